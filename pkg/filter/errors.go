package filter

import (
	"errors"
	"fmt"
)

var (
	// ErrFilter is returned by the executor when neither the SQL engine nor the
	// expression-tree evaluator could apply a filter.
	ErrFilter = errors.New("filter failed")
	// ErrSyntax marks malformed filter expressions.
	ErrSyntax = errors.New("filter syntax error")
	// ErrUnknownColumn marks a filter that references a column absent from the dataset.
	ErrUnknownColumn = errors.New("unknown filter column")
)

// SyntaxError reports where in the expression parsing stopped.
type SyntaxError struct {
	Expr string
	Pos  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at offset %d in %q", e.Msg, e.Pos, e.Expr)
}

func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

type UnknownColumnError struct {
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("column %q referenced by filter does not exist", e.Column)
}

func (e *UnknownColumnError) Unwrap() error {
	return ErrUnknownColumn
}
