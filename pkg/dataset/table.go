package dataset

import (
	"fmt"
	"sort"
)

// Table is an in-memory, row-oriented dataset with ordered, uniquely named columns.
// Tables are treated as immutable: every operation returns a new Table.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]any
}

// New builds a table. Every row must have exactly len(columns) values; values are
// normalized with Normalize.
func New(columns []string, rows [][]any) (*Table, error) {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("duplicate column %q", c)
		}
		index[c] = i
	}

	data := make([][]any, len(rows))
	for i, r := range rows {
		if len(r) != len(columns) {
			return nil, fmt.Errorf("row %d has %d values, expected %d", i, len(r), len(columns))
		}
		row := make([]any, len(r))
		for j, v := range r {
			row[j] = Normalize(v)
		}
		data[i] = row
	}

	return &Table{
		columns: append([]string(nil), columns...),
		index:   index,
		rows:    data,
	}, nil
}

// MustNew is New that panics on error. Intended for fixtures.
func MustNew(columns []string, rows [][]any) *Table {
	t, err := New(columns, rows)
	if err != nil {
		panic(err)
	}
	return t
}

// FromColumns builds a table from column vectors of equal length.
func FromColumns(columns []string, values map[string][]any) (*Table, error) {
	n := -1
	for _, c := range columns {
		v, ok := values[c]
		if !ok {
			return nil, &ColumnError{Column: c}
		}
		if n >= 0 && len(v) != n {
			return nil, fmt.Errorf("column %q has %d values, expected %d", c, len(v), n)
		}
		n = len(v)
	}
	if n < 0 {
		n = 0
	}

	rows := make([][]any, n)
	for i := range rows {
		row := make([]any, len(columns))
		for j, c := range columns {
			row[j] = values[c][i]
		}
		rows[i] = row
	}
	return New(columns, rows)
}

func (t *Table) derive(columns []string, rows [][]any) *Table {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c] = i
	}
	return &Table{columns: columns, index: index, rows: rows}
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Value returns the value at row i of the named column.
func (t *Table) Value(i int, column string) (any, error) {
	j, ok := t.index[column]
	if !ok {
		return nil, &ColumnError{Column: column}
	}
	return t.rows[i][j], nil
}

// Column returns a copy of the named column's values.
func (t *Table) Column(name string) ([]any, error) {
	j, ok := t.index[name]
	if !ok {
		return nil, &ColumnError{Column: name}
	}
	out := make([]any, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[j]
	}
	return out, nil
}

// Row returns a read-only view of row i.
func (t *Table) Row(i int) Row {
	return Row{table: t, i: i}
}

// Records returns every row as a slice of values in column order.
func (t *Table) Records() [][]any {
	out := make([][]any, len(t.rows))
	for i, r := range t.rows {
		out[i] = append([]any(nil), r...)
	}
	return out
}

// Take returns the rows at the given positions, in the given order.
func (t *Table) Take(positions []int) *Table {
	rows := make([][]any, 0, len(positions))
	for _, p := range positions {
		rows = append(rows, t.rows[p])
	}
	return t.derive(t.columns, rows)
}

// Filter keeps the rows for which keep returns true.
func (t *Table) Filter(keep func(Row) bool) *Table {
	rows := make([][]any, 0, len(t.rows))
	for i, r := range t.rows {
		if keep(Row{table: t, i: i}) {
			rows = append(rows, r)
		}
	}
	return t.derive(t.columns, rows)
}

// Select projects the named columns; every column must exist.
func (t *Table) Select(columns ...string) (*Table, error) {
	for _, c := range columns {
		if !t.HasColumn(c) {
			return nil, &ColumnError{Column: c}
		}
	}
	return t.project(columns), nil
}

// SelectAvailable projects the named columns that exist and silently skips the rest.
// Duplicate names are kept once.
func (t *Table) SelectAvailable(columns ...string) *Table {
	seen := make(map[string]bool, len(columns))
	keep := make([]string, 0, len(columns))
	for _, c := range columns {
		if t.HasColumn(c) && !seen[c] {
			seen[c] = true
			keep = append(keep, c)
		}
	}
	return t.project(keep)
}

func (t *Table) project(columns []string) *Table {
	rows := make([][]any, len(t.rows))
	for i, r := range t.rows {
		row := make([]any, len(columns))
		for j, c := range columns {
			row[j] = r[t.index[c]]
		}
		rows[i] = row
	}
	return t.derive(append([]string(nil), columns...), rows)
}

// Drop removes the named columns; unknown names are ignored.
func (t *Table) Drop(columns ...string) *Table {
	drop := make(map[string]bool, len(columns))
	for _, c := range columns {
		drop[c] = true
	}
	keep := make([]string, 0, len(t.columns))
	for _, c := range t.columns {
		if !drop[c] {
			keep = append(keep, c)
		}
	}
	return t.project(keep)
}

// WithColumn appends a column, or replaces it when the name already exists.
func (t *Table) WithColumn(name string, values []any) (*Table, error) {
	if len(values) != len(t.rows) {
		return nil, fmt.Errorf("column %q has %d values, table has %d rows", name, len(values), len(t.rows))
	}

	columns := t.columns
	pos, exists := t.index[name]
	if !exists {
		columns = append(append([]string(nil), t.columns...), name)
		pos = len(columns) - 1
	}

	rows := make([][]any, len(t.rows))
	for i, r := range t.rows {
		row := make([]any, len(columns))
		copy(row, r)
		row[pos] = Normalize(values[i])
		rows[i] = row
	}
	return t.derive(columns, rows), nil
}

// Reorder moves the named columns to the front, keeping the rest in order.
func (t *Table) Reorder(first ...string) *Table {
	order := make([]string, 0, len(t.columns))
	seen := make(map[string]bool)
	for _, c := range first {
		if t.HasColumn(c) && !seen[c] {
			order = append(order, c)
			seen[c] = true
		}
	}
	for _, c := range t.columns {
		if !seen[c] {
			order = append(order, c)
		}
	}
	return t.project(order)
}

// Keys returns the set of formatted, non-null values of a column.
func (t *Table) Keys(column string) (map[string]struct{}, error) {
	j, ok := t.index[column]
	if !ok {
		return nil, &ColumnError{Column: column}
	}
	keys := make(map[string]struct{}, len(t.rows))
	for _, r := range t.rows {
		if r[j] != nil {
			keys[Format(r[j])] = struct{}{}
		}
	}
	return keys, nil
}

// SemiJoin keeps rows whose column value is in keys. Rows with a null key are dropped.
func (t *Table) SemiJoin(column string, keys map[string]struct{}) (*Table, error) {
	j, ok := t.index[column]
	if !ok {
		return nil, &ColumnError{Column: column}
	}
	rows := make([][]any, 0, len(t.rows))
	for _, r := range t.rows {
		if r[j] == nil {
			continue
		}
		if _, hit := keys[Format(r[j])]; hit {
			rows = append(rows, r)
		}
	}
	return t.derive(t.columns, rows), nil
}

// LeftJoin joins other onto t by the on column, preserving every row of t and its
// order. Columns of other that clash with t get a "_right" suffix.
func (t *Table) LeftJoin(other *Table, on string) (*Table, error) {
	lj, ok := t.index[on]
	if !ok {
		return nil, &ColumnError{Column: on}
	}
	rj, ok := other.index[on]
	if !ok {
		return nil, &ColumnError{Column: on}
	}

	columns := append([]string(nil), t.columns...)
	var rightCols []int
	for j, c := range other.columns {
		if j == rj {
			continue
		}
		name := c
		if t.HasColumn(name) {
			name += "_right"
		}
		columns = append(columns, name)
		rightCols = append(rightCols, j)
	}

	lookup := make(map[string][]int, len(other.rows))
	for i, r := range other.rows {
		if r[rj] == nil {
			continue
		}
		k := Format(r[rj])
		lookup[k] = append(lookup[k], i)
	}

	rows := make([][]any, 0, len(t.rows))
	for _, l := range t.rows {
		var matches []int
		if l[lj] != nil {
			matches = lookup[Format(l[lj])]
		}
		if len(matches) == 0 {
			row := make([]any, len(columns))
			copy(row, l)
			rows = append(rows, row)
			continue
		}
		for _, m := range matches {
			row := make([]any, 0, len(columns))
			row = append(row, l...)
			for _, j := range rightCols {
				row = append(row, other.rows[m][j])
			}
			rows = append(rows, row)
		}
	}
	return t.derive(columns, rows), nil
}

// SortBy stable-sorts rows ascending by the given columns. Nulls sort last.
func (t *Table) SortBy(columns ...string) (*Table, error) {
	pos := make([]int, len(columns))
	for i, c := range columns {
		j, ok := t.index[c]
		if !ok {
			return nil, &ColumnError{Column: c}
		}
		pos[i] = j
	}

	rows := append([][]any(nil), t.rows...)
	sort.SliceStable(rows, func(a, b int) bool {
		for _, j := range pos {
			va, vb := rows[a][j], rows[b][j]
			switch {
			case va == nil && vb == nil:
				continue
			case va == nil:
				return false
			case vb == nil:
				return true
			}
			if c, _ := Compare(va, vb); c != 0 {
				return c < 0
			}
		}
		return false
	})
	return t.derive(t.columns, rows), nil
}

// Distinct returns the non-null values of a column in first-seen order, de-duplicated
// by their formatted text.
func (t *Table) Distinct(column string) ([]any, error) {
	j, ok := t.index[column]
	if !ok {
		return nil, &ColumnError{Column: column}
	}
	seen := make(map[string]bool)
	var out []any
	for _, r := range t.rows {
		if r[j] == nil {
			continue
		}
		k := Format(r[j])
		if !seen[k] {
			seen[k] = true
			out = append(out, r[j])
		}
	}
	return out, nil
}

// Row is a read-only view over one table row.
type Row struct {
	table *Table
	i     int
}

// Get returns the value of a column; ok is false when the column does not exist.
func (r Row) Get(column string) (any, bool) {
	j, ok := r.table.index[column]
	if !ok {
		return nil, false
	}
	return r.table.rows[r.i][j], true
}

// Index returns the row position in its table.
func (r Row) Index() int {
	return r.i
}
