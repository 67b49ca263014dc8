package filter

import (
	"strings"
)

type tokenType int

const (
	tokEOF tokenType = iota
	tokIdent
	tokString
	tokNumber
	tokTrue
	tokFalse
	tokNone
	tokAnd
	tokOr
	tokNot
	tokIn
	tokIs
	tokEq
	tokNe
	tokLt
	tokLe
	tokGt
	tokGe
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokComma
)

var keywords = map[string]tokenType{
	"and":   tokAnd,
	"or":    tokOr,
	"not":   tokNot,
	"in":    tokIn,
	"is":    tokIs,
	"true":  tokTrue,
	"false": tokFalse,
	"none":  tokNone,
	"null":  tokNone,
}

type token struct {
	typ tokenType
	// text is the column name for identifiers (dataset prefix removed) or the
	// unquoted literal for strings and numbers.
	text string
	pos  int
}

type lexer struct {
	input string
	pos   int
}

func tokenize(input string) ([]token, error) {
	l := &lexer{input: input}
	var tokens []token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.typ == tokEOF {
			return tokens, nil
		}
	}
}

func (l *lexer) errorf(pos int, msg string) error {
	return &SyntaxError{Expr: l.input, Pos: pos, Msg: msg}
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.input) && isSpace(l.input[l.pos]) {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return token{typ: tokEOF, pos: l.pos}, nil
	}

	start := l.pos
	ch := l.input[l.pos]
	switch {
	case ch == '\'' || ch == '"':
		return l.lexString(ch)
	case isDigit(ch) || ((ch == '-' || ch == '.') && l.pos+1 < len(l.input) && isDigit(l.input[l.pos+1])):
		return l.lexNumber()
	case isIdentStart(ch):
		return l.lexIdent()
	}

	two := ""
	if l.pos+1 < len(l.input) {
		two = l.input[l.pos : l.pos+2]
	}
	switch two {
	case "==":
		l.pos += 2
		return token{typ: tokEq, text: two, pos: start}, nil
	case "!=", "<>":
		l.pos += 2
		return token{typ: tokNe, text: two, pos: start}, nil
	case "<=":
		l.pos += 2
		return token{typ: tokLe, text: two, pos: start}, nil
	case ">=":
		l.pos += 2
		return token{typ: tokGe, text: two, pos: start}, nil
	}

	single := map[byte]tokenType{
		'=': tokEq,
		'<': tokLt,
		'>': tokGt,
		'(': tokLParen,
		')': tokRParen,
		'[': tokLBracket,
		']': tokRBracket,
		',': tokComma,
	}
	if typ, ok := single[ch]; ok {
		l.pos++
		return token{typ: typ, text: string(ch), pos: start}, nil
	}
	return token{}, l.errorf(start, "unexpected character "+string(ch))
}

func (l *lexer) lexString(quote byte) (token, error) {
	start := l.pos
	l.pos++
	var b strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		switch {
		case ch == '\\' && l.pos+1 < len(l.input):
			b.WriteByte(l.input[l.pos+1])
			l.pos += 2
		case ch == quote:
			l.pos++
			return token{typ: tokString, text: b.String(), pos: start}, nil
		default:
			b.WriteByte(ch)
			l.pos++
		}
	}
	return token{}, l.errorf(start, "unterminated string literal")
}

func (l *lexer) lexNumber() (token, error) {
	start := l.pos
	if l.input[l.pos] == '-' {
		l.pos++
	}
	dot := false
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == '.' && !dot {
			dot = true
		} else if !isDigit(ch) {
			break
		}
		l.pos++
	}
	return token{typ: tokNumber, text: l.input[start:l.pos], pos: start}, nil
}

// lexIdent reads a bare or dataset-qualified identifier ("adsl:saffl") or a keyword.
func (l *lexer) lexIdent() (token, error) {
	start := l.pos
	for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
		l.pos++
	}
	word := l.input[start:l.pos]

	if l.pos < len(l.input) && l.input[l.pos] == ':' {
		l.pos++
		colStart := l.pos
		if l.pos >= len(l.input) || !isIdentStart(l.input[l.pos]) {
			return token{}, l.errorf(l.pos, "expected column name after "+word+":")
		}
		for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
			l.pos++
		}
		return token{typ: tokIdent, text: strings.ToUpper(l.input[colStart:l.pos]), pos: start}, nil
	}

	if typ, ok := keywords[strings.ToLower(word)]; ok {
		return token{typ: typ, text: word, pos: start}, nil
	}
	return token{typ: tokIdent, text: strings.ToUpper(word), pos: start}, nil
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ch == '_'
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
