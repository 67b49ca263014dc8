package ard

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/de-tools/tlf-atlas/pkg/dataset"
	"github.com/de-tools/tlf-atlas/pkg/models/domain"
	"github.com/de-tools/tlf-atlas/pkg/services/count"
)

const (
	DefaultDiscontinued = "Discontinued"
	reasonColumn        = "__reason__"
)

// DispositionTerms names the subject-level columns a disposition table reads.
type DispositionTerms struct {
	// Status is the end-of-study status column, e.g. EOSSTT.
	Status string
	// Reason is the discontinuation reason column, e.g. DCREASCD.
	Reason string
	// Discontinued is the status value whose subjects are broken down by reason.
	Discontinued string
}

// Disposition counts subjects per end-of-study status, alphabetically, and nests the
// discontinuation reasons directly under the discontinued status. Only discontinued
// subjects are counted for reasons; a blank reason among them counts as Missing.
func (b *Builder) Disposition(ctx context.Context, in Input, terms DispositionTerms) (*domain.ARD, error) {
	if terms.Discontinued == "" {
		terms.Discontinued = DefaultDiscontinued
	}
	in.Observation = nil
	pop, _, err := b.prepare(ctx, in)
	if err != nil {
		return nil, err
	}
	if !pop.HasColumn(terms.Reason) {
		return nil, &dataset.ColumnError{Column: terms.Reason}
	}
	denoms, err := count.Subjects(pop, in.Count)
	if err != nil {
		return nil, err
	}

	a := domain.NewARD([]string{PopulationLabel, ""}, groupsOf(denoms))
	populationRows(a, denoms)
	blankRows(a, denoms)

	statuses, err := count.SubjectsWithObservation(pop, pop, in.Count, terms.Status)
	if err != nil {
		return nil, err
	}
	addCounts(a, statuses, asIs)

	discontinued := pop.Filter(func(r dataset.Row) bool {
		v, _ := r.Get(terms.Status)
		return v != nil && strings.EqualFold(strings.TrimSpace(dataset.Format(v)), terms.Discontinued)
	})
	raw, err := discontinued.Column(terms.Reason)
	if err != nil {
		return nil, err
	}
	reasons := make([]any, len(raw))
	for i, v := range raw {
		if s := strings.TrimSpace(dataset.Format(v)); s != "" {
			reasons[i] = s
		} else {
			reasons[i] = count.MissingLabel
		}
	}
	discontinued, err = discontinued.WithColumn(reasonColumn, reasons)
	if err != nil {
		return nil, err
	}
	reasonCounts, err := count.SubjectsWithObservation(pop, discontinued, in.Count, reasonColumn)
	if err != nil {
		return nil, fmt.Errorf("discontinuation reasons: %w", err)
	}
	addCounts(a, reasonCounts, indented)

	// statuses come back in lexical order already
	for _, s := range distinctValues(statuses) {
		a.AddCategory(s)
		if strings.EqualFold(s, terms.Discontinued) {
			for _, r := range missingLast(distinctValues(reasonCounts)) {
				a.AddCategory(indented(r))
			}
		}
	}

	a.Sort()
	return a, nil
}

func distinctValues(counts []count.ObservationCount) []string {
	var out []string
	seen := map[string]bool{}
	for _, c := range counts {
		if !seen[c.Value] {
			seen[c.Value] = true
			out = append(out, c.Value)
		}
	}
	return out
}

func missingLast(values []string) []string {
	out := append([]string(nil), values...)
	sort.SliceStable(out, func(i, j int) bool {
		mi, mj := out[i] == count.MissingLabel, out[j] == count.MissingLabel
		if mi != mj {
			return mj
		}
		return out[i] < out[j]
	})
	return out
}
