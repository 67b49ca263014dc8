package filter

import (
	"fmt"
	"strings"

	"github.com/de-tools/tlf-atlas/pkg/dataset"
)

// Truth is a three-valued logic result. Comparisons involving a null are Unknown and
// rows are only kept when a filter is True.
type Truth int8

const (
	Unknown Truth = iota
	False
	True
)

func truthOf(b bool) Truth {
	if b {
		return True
	}
	return False
}

// Row is the read-only view a filter evaluates against. dataset.Row satisfies it.
type Row interface {
	Get(column string) (any, bool)
}

// Eval evaluates the expression against a row.
func (e *Expression) Eval(r Row) (Truth, error) {
	return e.root.eval(r)
}

// Evaluate filters a table with the expression tree alone. Column names are matched
// case-insensitively, and every referenced column must exist even when the table is
// empty.
func Evaluate(table *dataset.Table, expr string) (*dataset.Table, error) {
	parsed, err := Parse(expr)
	if err != nil {
		return nil, err
	}
	return parsed.Apply(table)
}

// Apply keeps the rows of table for which the expression is True.
func (e *Expression) Apply(table *dataset.Table) (*dataset.Table, error) {
	resolve := make(map[string]string, len(table.Columns()))
	for _, c := range table.Columns() {
		resolve[strings.ToUpper(c)] = c
	}
	for _, c := range e.columns {
		if _, ok := resolve[c]; !ok {
			return nil, &UnknownColumnError{Column: c}
		}
	}

	var evalErr error
	out := table.Filter(func(r dataset.Row) bool {
		if evalErr != nil {
			return false
		}
		t, err := e.root.eval(foldedRow{row: r, resolve: resolve})
		if err != nil {
			evalErr = err
			return false
		}
		return t == True
	})
	if evalErr != nil {
		return nil, evalErr
	}
	return out, nil
}

type foldedRow struct {
	row     dataset.Row
	resolve map[string]string
}

func (f foldedRow) Get(column string) (any, bool) {
	name, ok := f.resolve[column]
	if !ok {
		return nil, false
	}
	return f.row.Get(name)
}

type node interface {
	eval(r Row) (Truth, error)
	sql() string
}

type operand interface {
	value(r Row) (any, error)
	sql() string
}

type columnRef struct {
	name string
}

func (c columnRef) value(r Row) (any, error) {
	v, ok := r.Get(c.name)
	if !ok {
		return nil, &UnknownColumnError{Column: c.name}
	}
	return dataset.Normalize(v), nil
}

func (c columnRef) sql() string {
	return c.name
}

type literal struct {
	v    any
	text string
}

func (l literal) value(Row) (any, error) {
	return l.v, nil
}

func (l literal) sql() string {
	switch v := l.v.(type) {
	case nil:
		return "NULL"
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	}
	return l.text
}

type constNode struct {
	v bool
}

func (c constNode) eval(Row) (Truth, error) {
	return truthOf(c.v), nil
}

func (c constNode) sql() string {
	if c.v {
		return "TRUE"
	}
	return "FALSE"
}

type orNode struct {
	left, right node
}

func (n orNode) eval(r Row) (Truth, error) {
	l, err := n.left.eval(r)
	if err != nil {
		return Unknown, err
	}
	rt, err := n.right.eval(r)
	if err != nil {
		return Unknown, err
	}
	switch {
	case l == True || rt == True:
		return True, nil
	case l == Unknown || rt == Unknown:
		return Unknown, nil
	}
	return False, nil
}

func (n orNode) sql() string {
	return n.left.sql() + " OR " + n.right.sql()
}

type andNode struct {
	left, right node
}

func (n andNode) eval(r Row) (Truth, error) {
	l, err := n.left.eval(r)
	if err != nil {
		return Unknown, err
	}
	rt, err := n.right.eval(r)
	if err != nil {
		return Unknown, err
	}
	switch {
	case l == False || rt == False:
		return False, nil
	case l == Unknown || rt == Unknown:
		return Unknown, nil
	}
	return True, nil
}

func (n andNode) sql() string {
	return n.left.sql() + " AND " + n.right.sql()
}

type notNode struct {
	inner node
}

func (n notNode) eval(r Row) (Truth, error) {
	t, err := n.inner.eval(r)
	if err != nil {
		return Unknown, err
	}
	switch t {
	case True:
		return False, nil
	case False:
		return True, nil
	}
	return Unknown, nil
}

func (n notNode) sql() string {
	return "NOT " + n.inner.sql()
}

type parenNode struct {
	inner node
}

func (n parenNode) eval(r Row) (Truth, error) {
	return n.inner.eval(r)
}

func (n parenNode) sql() string {
	return "(" + n.inner.sql() + ")"
}

type compareNode struct {
	op          tokenType
	left, right operand
}

var sqlOperators = map[tokenType]string{
	tokEq: "=",
	tokNe: "<>",
	tokLt: "<",
	tokLe: "<=",
	tokGt: ">",
	tokGe: ">=",
}

func (n compareNode) eval(r Row) (Truth, error) {
	l, err := n.left.value(r)
	if err != nil {
		return Unknown, err
	}
	rt, err := n.right.value(r)
	if err != nil {
		return Unknown, err
	}
	c, ok := dataset.Compare(l, rt)
	if !ok {
		return Unknown, nil
	}
	switch n.op {
	case tokEq:
		return truthOf(c == 0), nil
	case tokNe:
		return truthOf(c != 0), nil
	case tokLt:
		return truthOf(c < 0), nil
	case tokLe:
		return truthOf(c <= 0), nil
	case tokGt:
		return truthOf(c > 0), nil
	}
	return truthOf(c >= 0), nil
}

func (n compareNode) sql() string {
	return n.left.sql() + " " + sqlOperators[n.op] + " " + n.right.sql()
}

type inNode struct {
	operand operand
	items   []operand
	negate  bool
}

func (n inNode) eval(r Row) (Truth, error) {
	v, err := n.operand.value(r)
	if err != nil {
		return Unknown, err
	}
	if v == nil {
		return Unknown, nil
	}

	result := False
	for _, item := range n.items {
		iv, err := item.value(r)
		if err != nil {
			return Unknown, err
		}
		if iv == nil {
			result = Unknown
			continue
		}
		if dataset.Equal(v, iv) {
			result = True
			break
		}
	}

	if n.negate && result != Unknown {
		return truthOf(result == False), nil
	}
	return result, nil
}

func (n inNode) sql() string {
	items := make([]string, len(n.items))
	for i, item := range n.items {
		items[i] = item.sql()
	}
	op := " IN ("
	if n.negate {
		op = " NOT IN ("
	}
	return n.operand.sql() + op + strings.Join(items, ",") + ")"
}

type isNullNode struct {
	operand operand
	negate  bool
}

func (n isNullNode) eval(r Row) (Truth, error) {
	v, err := n.operand.value(r)
	if err != nil {
		return Unknown, err
	}
	return truthOf((v == nil) != n.negate), nil
}

func (n isNullNode) sql() string {
	if n.negate {
		return n.operand.sql() + " IS NOT NULL"
	}
	return n.operand.sql() + " IS NULL"
}

// truthNode is a bare operand used as a condition, such as a boolean flag column.
type truthNode struct {
	operand operand
}

func (n truthNode) eval(r Row) (Truth, error) {
	v, err := n.operand.value(r)
	if err != nil {
		return Unknown, err
	}
	switch b := v.(type) {
	case nil:
		return Unknown, nil
	case bool:
		return truthOf(b), nil
	}
	return Unknown, fmt.Errorf("%w: %s is not a boolean", ErrSyntax, n.operand.sql())
}

func (n truthNode) sql() string {
	return n.operand.sql()
}
