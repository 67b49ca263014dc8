package ard

import (
	"context"
	"fmt"
	"sort"

	"github.com/de-tools/tlf-atlas/pkg/dataset"
	"github.com/de-tools/tlf-atlas/pkg/models/domain"
	"github.com/de-tools/tlf-atlas/pkg/services/count"
)

// Variable is one summary row: observations matching Filter, displayed as Label.
type Variable struct {
	Filter string
	Label  string
}

// AESummary counts subjects with at least one observation matching each variable.
// Rows: population count, blank, then one row per variable in declared order.
func (b *Builder) AESummary(ctx context.Context, in Input, variables []Variable) (*domain.ARD, error) {
	if in.Observation == nil {
		return nil, fmt.Errorf("%w: observation", ErrMissingDataset)
	}
	pop, obs, err := b.prepare(ctx, in)
	if err != nil {
		return nil, err
	}
	denoms, err := count.Subjects(pop, in.Count)
	if err != nil {
		return nil, err
	}

	categories := []string{PopulationLabel, ""}
	for _, v := range variables {
		categories = append(categories, v.Label)
	}
	a := domain.NewARD(categories, groupsOf(denoms))
	populationRows(a, denoms)
	blankRows(a, denoms)

	for _, v := range variables {
		matched, err := b.exec.Apply(ctx, obs, v.Filter)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", v.Label, err)
		}
		counts, err := count.SubjectsWithAny(pop, matched, in.Count, v.Label)
		if err != nil {
			return nil, err
		}
		if len(counts) == 0 {
			for _, d := range denoms {
				a.Add(v.Label, d.Group, count.FormatNPct(0, 0))
			}
			continue
		}
		addCounts(a, counts, asIs)
	}

	a.Sort()
	return a, nil
}

// AESpecific lists adverse event terms by frequency: the largest count in any real
// group descending, ties alphabetical. When soc is set, preferred terms are nested
// under their system organ class, and both levels are ordered the same way. Nested
// terms are keyed by TermKey and labelled with their indented name.
func (b *Builder) AESpecific(ctx context.Context, in Input, term, soc string) (*domain.ARD, error) {
	if in.Observation == nil {
		return nil, fmt.Errorf("%w: observation", ErrMissingDataset)
	}
	pop, obs, err := b.prepare(ctx, in)
	if err != nil {
		return nil, err
	}
	denoms, err := count.Subjects(pop, in.Count)
	if err != nil {
		return nil, err
	}

	const (
		with    = indent + "with one or more adverse events"
		without = indent + "with no adverse events"
	)
	a := domain.NewARD([]string{PopulationLabel, with, without, ""}, groupsOf(denoms))
	populationRows(a, denoms)
	if err := withWithout(a, pop, obs, in.Count, with, without); err != nil {
		return nil, err
	}
	blankRows(a, denoms)

	if soc == "" {
		counts, err := count.SubjectsWithObservation(pop, obs, in.Count, term)
		if err != nil {
			return nil, err
		}
		for _, v := range byFrequency(counts) {
			a.AddCategory(v)
		}
		addCounts(a, counts, asIs)
		a.Sort()
		return a, nil
	}

	socCounts, err := count.SubjectsWithObservation(pop, obs, in.Count, soc)
	if err != nil {
		return nil, err
	}
	if !obs.HasColumn(term) {
		return nil, &dataset.ColumnError{Column: term}
	}
	for _, s := range byFrequency(socCounts) {
		a.AddCategory(s)
		addCounts(a, only(socCounts, s), asIs)

		inSOC := obs.Filter(func(r dataset.Row) bool {
			v, _ := r.Get(soc)
			return v != nil && dataset.Format(v) == s
		})
		ptCounts, err := count.SubjectsWithObservation(pop, inSOC, in.Count, term)
		if err != nil {
			return nil, err
		}
		for _, pt := range byFrequency(ptCounts) {
			key := TermKey(s, pt)
			a.AddCategory(key)
			a.SetLabel(key, indented(pt))
		}
		addCounts(a, ptCounts, func(pt string) string { return TermKey(s, pt) })
	}
	a.Sort()
	return a, nil
}

// CMSummary lists medications alphabetically after the with/without rows.
func (b *Builder) CMSummary(ctx context.Context, in Input, term string) (*domain.ARD, error) {
	if in.Observation == nil {
		return nil, fmt.Errorf("%w: observation", ErrMissingDataset)
	}
	pop, obs, err := b.prepare(ctx, in)
	if err != nil {
		return nil, err
	}
	denoms, err := count.Subjects(pop, in.Count)
	if err != nil {
		return nil, err
	}

	const (
		with    = indent + "with one or more medications"
		without = indent + "with no medications"
	)
	a := domain.NewARD([]string{PopulationLabel, with, without, ""}, groupsOf(denoms))
	populationRows(a, denoms)
	if err := withWithout(a, pop, obs, in.Count, with, without); err != nil {
		return nil, err
	}
	blankRows(a, denoms)

	counts, err := count.SubjectsWithObservation(pop, obs, in.Count, term)
	if err != nil {
		return nil, err
	}
	// counts are already in lexical value order
	for _, c := range counts {
		a.AddCategory(c.Value)
	}
	addCounts(a, counts, asIs)
	a.Sort()
	return a, nil
}

// byFrequency orders values by their largest count over the real groups, descending,
// then alphabetically. The Total and Missing columns do not take part.
func byFrequency(counts []count.ObservationCount) []string {
	peak := map[string]int{}
	var values []string
	for _, c := range counts {
		if _, ok := peak[c.Value]; !ok {
			values = append(values, c.Value)
			peak[c.Value] = 0
		}
		if c.Group == count.TotalLabel || c.Group == count.MissingLabel {
			continue
		}
		if c.N > peak[c.Value] {
			peak[c.Value] = c.N
		}
	}
	sort.SliceStable(values, func(i, j int) bool {
		if peak[values[i]] != peak[values[j]] {
			return peak[values[i]] > peak[values[j]]
		}
		return values[i] < values[j]
	})
	return values
}

// TermKey is the category key of a term nested under a parent category, unique per
// parent so the same term can appear under several parents.
func TermKey(parent, term string) string {
	return parent + "\x1f" + term
}

func only(counts []count.ObservationCount, value string) []count.ObservationCount {
	var out []count.ObservationCount
	for _, c := range counts {
		if c.Value == value {
			out = append(out, c)
		}
	}
	return out
}
