package ard

import (
	"github.com/de-tools/tlf-atlas/pkg/dataset"
	"github.com/de-tools/tlf-atlas/pkg/models/domain"
)

// ToDisplay pivots an ARD to a wide table: one column per group in ARD group order
// and one row per category that has cells, in ARD category order. The row label
// column is named header and shows each category's label. Blank rows are kept and
// absent cells are empty.
func ToDisplay(a *domain.ARD, header string) *domain.DisplayTable {
	cells := map[string]map[string]string{}
	var extra []string
	declared := map[string]bool{}
	for _, c := range a.Categories {
		declared[c] = true
	}
	for _, r := range a.Rows {
		if _, ok := cells[r.Index]; !ok {
			cells[r.Index] = map[string]string{}
			if !declared[r.Index] {
				extra = append(extra, r.Index)
			}
		}
		cells[r.Index][r.Group] = r.Value
	}

	d := &domain.DisplayTable{Columns: append([]string{header}, a.Groups...)}
	for _, index := range append(append([]string(nil), a.Categories...), extra...) {
		row, ok := cells[index]
		if !ok {
			continue
		}
		line := make([]string, 0, len(d.Columns))
		line = append(line, a.Label(index))
		for _, g := range a.Groups {
			line = append(line, row[g])
		}
		d.Rows = append(d.Rows, line)
	}
	return d
}

// TableDisplay formats every cell of a listing as text. Column headers come from
// labels where present, otherwise the column name is used.
func TableDisplay(t *dataset.Table, labels map[string]string) *domain.DisplayTable {
	d := &domain.DisplayTable{}
	for _, c := range t.Columns() {
		if l, ok := labels[c]; ok {
			d.Columns = append(d.Columns, l)
			continue
		}
		d.Columns = append(d.Columns, c)
	}
	for _, rec := range t.Records() {
		line := make([]string, len(rec))
		for j, v := range rec {
			line[j] = dataset.Format(v)
		}
		d.Rows = append(d.Rows, line)
	}
	return d
}
