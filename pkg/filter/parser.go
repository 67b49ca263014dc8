package filter

import (
	"strconv"
	"strings"
)

// Expression is a parsed filter. It renders to a SQL predicate and evaluates directly
// against rows, so both execution paths share one grammar.
type Expression struct {
	source  string
	root    node
	columns []string
}

// Parse builds an expression tree from a filter string.
//
// Grammar, lowest precedence first:
//
//	or         = and { "or" and }
//	and        = not { "and" not }
//	not        = "not" not | comparison
//	comparison = "(" or ")" | operand [ cmp operand | ["not"] "in" list | "is" ["not"] "None" ]
//	list       = ( "[" | "(" ) operand { "," operand } ( "]" | ")" )
//
// A blank filter parses to an expression that is always true.
func Parse(expr string) (*Expression, error) {
	if strings.TrimSpace(expr) == "" {
		return &Expression{source: expr, root: constNode{v: true}}, nil
	}

	tokens, err := tokenize(expr)
	if err != nil {
		return nil, err
	}

	p := &parser{source: expr, tokens: tokens, seen: map[string]bool{}}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.typ != tokEOF {
		return nil, p.errorf(tok, "unexpected "+describe(tok))
	}
	return &Expression{source: expr, root: root, columns: p.columns}, nil
}

// Columns lists the referenced column names, upper-cased, in first-use order.
func (e *Expression) Columns() []string {
	return append([]string(nil), e.columns...)
}

// SQL renders the expression as a WHERE-clause predicate.
func (e *Expression) SQL() string {
	return e.root.sql()
}

func (e *Expression) String() string {
	return e.source
}

type parser struct {
	source  string
	tokens  []token
	pos     int
	columns []string
	seen    map[string]bool
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) advance() token {
	tok := p.tokens[p.pos]
	if tok.typ != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) accept(typ tokenType) bool {
	if p.peek().typ == typ {
		p.advance()
		return true
	}
	return false
}

func (p *parser) errorf(tok token, msg string) error {
	return &SyntaxError{Expr: p.source, Pos: tok.pos, Msg: msg}
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.accept(tokOr) {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = orNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.accept(tokAnd) {
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = andNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (node, error) {
	if p.accept(tokNot) {
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return notNode{inner: inner}, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (node, error) {
	if p.accept(tokLParen) {
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if tok := p.peek(); !p.accept(tokRParen) {
			return nil, p.errorf(tok, "expected ) but found "+describe(tok))
		}
		return parenNode{inner: inner}, nil
	}

	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	tok := p.peek()
	switch tok.typ {
	case tokEq, tokNe, tokLt, tokLe, tokGt, tokGe:
		p.advance()
		right, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		if isNone(right) && (tok.typ == tokEq || tok.typ == tokNe) {
			return isNullNode{operand: left, negate: tok.typ == tokNe}, nil
		}
		return compareNode{op: tok.typ, left: left, right: right}, nil
	case tokIn:
		p.advance()
		return p.parseList(left, false)
	case tokNot:
		p.advance()
		if next := p.peek(); !p.accept(tokIn) {
			return nil, p.errorf(next, "expected in after not but found "+describe(next))
		}
		return p.parseList(left, true)
	case tokIs:
		p.advance()
		negate := p.accept(tokNot)
		if next := p.peek(); !p.accept(tokNone) {
			return nil, p.errorf(next, "expected None after is but found "+describe(next))
		}
		return isNullNode{operand: left, negate: negate}, nil
	}
	return truthNode{operand: left}, nil
}

func (p *parser) parseList(left operand, negate bool) (node, error) {
	open := p.advance()
	var closing tokenType
	switch open.typ {
	case tokLBracket:
		closing = tokRBracket
	case tokLParen:
		closing = tokRParen
	default:
		return nil, p.errorf(open, "expected [ after in but found "+describe(open))
	}

	var items []operand
	for {
		item, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if p.accept(tokComma) {
			if p.peek().typ == closing {
				p.advance()
				break
			}
			continue
		}
		if tok := p.peek(); !p.accept(closing) {
			return nil, p.errorf(tok, "expected , or closing bracket but found "+describe(tok))
		}
		break
	}
	return inNode{operand: left, items: items, negate: negate}, nil
}

func (p *parser) parseOperand() (operand, error) {
	tok := p.advance()
	switch tok.typ {
	case tokIdent:
		if !p.seen[tok.text] {
			p.seen[tok.text] = true
			p.columns = append(p.columns, tok.text)
		}
		return columnRef{name: tok.text}, nil
	case tokString:
		return literal{v: tok.text}, nil
	case tokNumber:
		if i, err := strconv.ParseInt(tok.text, 10, 64); err == nil {
			return literal{v: i, text: tok.text}, nil
		}
		f, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, p.errorf(tok, "invalid number "+tok.text)
		}
		return literal{v: f, text: tok.text}, nil
	case tokTrue:
		return literal{v: true}, nil
	case tokFalse:
		return literal{v: false}, nil
	case tokNone:
		return literal{v: nil}, nil
	}
	return nil, p.errorf(tok, "expected column or literal but found "+describe(tok))
}

func isNone(o operand) bool {
	lit, ok := o.(literal)
	return ok && lit.v == nil
}

func describe(tok token) string {
	if tok.typ == tokEOF {
		return "end of expression"
	}
	return strconv.Quote(tok.text)
}
