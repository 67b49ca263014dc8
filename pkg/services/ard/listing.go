package ard

import (
	"context"
	"fmt"
	"strings"

	"github.com/de-tools/tlf-atlas/pkg/dataset"
	"github.com/de-tools/tlf-atlas/pkg/services/count"
)

// IndexColumn holds the composite page label of a listing row.
const IndexColumn = "__index__"

// Column is a dataset column with its display label.
type Column struct {
	Name  string
	Label string
}

type ListingInput struct {
	Population        *dataset.Table
	Observation       *dataset.Table
	PopulationFilter  string
	ObservationFilter string
	// ID is the subject identifier. Defaults to USUBJID.
	ID                 string
	ObservationColumns []string
	PopulationColumns  []string
	// PageBy columns are folded into IndexColumn as "Label = value, ...".
	PageBy []Column
	// SortBy defaults to the subject identifier.
	SortBy []string
}

// Listing selects observation columns, left-joins population columns on the subject
// identifier and sorts the result. Columns absent from either dataset are skipped.
// When PageBy is set the rows carry an IndexColumn label and the page-by columns,
// other than the identifier, are dropped.
func (b *Builder) Listing(ctx context.Context, in ListingInput) (*dataset.Table, error) {
	if in.Population == nil || in.Observation == nil {
		return nil, fmt.Errorf("%w: listing needs population and observation", ErrMissingDataset)
	}
	id := in.ID
	if id == "" {
		id = count.DefaultID
	}

	pop, obs, err := b.prepare(ctx, Input{
		Population:        in.Population,
		Observation:       in.Observation,
		PopulationFilter:  in.PopulationFilter,
		ObservationFilter: in.ObservationFilter,
		Count:             count.Options{ID: id},
	})
	if err != nil {
		return nil, err
	}

	pageBy := make([]string, len(in.PageBy))
	for i, c := range in.PageBy {
		pageBy[i] = c.Name
	}

	obsSel := obs.SelectAvailable(append(append([]string{id}, in.ObservationColumns...), pageBy...)...)
	var popCols []string
	for _, c := range append(append([]string(nil), in.PopulationColumns...), pageBy...) {
		if !obsSel.HasColumn(c) {
			popCols = append(popCols, c)
		}
	}
	popSel := pop.SelectAvailable(append([]string{id}, popCols...)...)

	out, err := obsSel.LeftJoin(popSel, id)
	if err != nil {
		return nil, err
	}

	sortBy := in.SortBy
	if len(sortBy) == 0 {
		sortBy = []string{id}
	}
	var available []string
	for _, c := range sortBy {
		if out.HasColumn(c) {
			available = append(available, c)
		}
	}
	if out, err = out.SortBy(available...); err != nil {
		return nil, err
	}

	if len(in.PageBy) == 0 {
		return out, nil
	}

	labels := make([]any, out.Len())
	for i := range labels {
		var parts []string
		for _, c := range in.PageBy {
			v, ok := out.Row(i).Get(c.Name)
			if !ok {
				continue
			}
			label := c.Label
			if label == "" {
				label = c.Name
			}
			parts = append(parts, label+" = "+dataset.Format(v))
		}
		labels[i] = strings.Join(parts, ", ")
	}
	if out, err = out.WithColumn(IndexColumn, labels); err != nil {
		return nil, err
	}

	var drop []string
	for _, c := range pageBy {
		if c != id {
			drop = append(drop, c)
		}
	}
	return out.Drop(drop...).Reorder(IndexColumn), nil
}
