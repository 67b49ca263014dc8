package ard

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/de-tools/tlf-atlas/pkg/dataset"
	"github.com/de-tools/tlf-atlas/pkg/filter"
	"github.com/de-tools/tlf-atlas/pkg/models/domain"
	"github.com/de-tools/tlf-atlas/pkg/services/count"
	"github.com/rs/zerolog"
)

const (
	PopulationLabel = "Participants in population"
	indent          = "    "
)

// ErrMissingDataset is returned before any computation when a builder is not given a
// dataset it needs.
var ErrMissingDataset = errors.New("required dataset not supplied")

// Input is what every counting builder starts from: the two canonical datasets, the
// resolved filters and the counting options.
type Input struct {
	Population        *dataset.Table
	Observation       *dataset.Table
	PopulationFilter  string
	ObservationFilter string
	Count             count.Options
}

// Builder turns filtered datasets into Analysis Results Data. All filters run through
// the executor so the SQL engine and the fallback evaluator see the same expressions.
type Builder struct {
	exec *filter.Executor
}

func New(exec *filter.Executor) *Builder {
	if exec == nil {
		exec = filter.NewExecutor(nil)
	}
	return &Builder{exec: exec}
}

// prepare applies the population filter, then the observation filter, and keeps only
// observation rows whose subject survived the population filter.
func (b *Builder) prepare(ctx context.Context, in Input) (pop, obs *dataset.Table, err error) {
	if in.Population == nil {
		return nil, nil, fmt.Errorf("%w: population", ErrMissingDataset)
	}

	pop, err = b.exec.Apply(ctx, in.Population, in.PopulationFilter)
	if err != nil {
		return nil, nil, fmt.Errorf("population filter: %w", err)
	}
	if in.Observation == nil {
		return pop, nil, nil
	}

	obs, err = b.exec.Apply(ctx, in.Observation, in.ObservationFilter)
	if err != nil {
		return nil, nil, fmt.Errorf("observation filter: %w", err)
	}
	obs, err = restrict(pop, obs, in.Count.ID)
	if err != nil {
		return nil, nil, err
	}

	zerolog.Ctx(ctx).Debug().
		Int("population", pop.Len()).
		Int("observation", obs.Len()).
		Msg("datasets filtered")
	return pop, obs, nil
}

func restrict(pop, obs *dataset.Table, id string) (*dataset.Table, error) {
	if id == "" {
		id = count.DefaultID
	}
	keys, err := pop.Keys(id)
	if err != nil {
		return nil, err
	}
	return obs.SemiJoin(id, keys)
}

// populationRows adds the denominator row. The denominator is a bare count.
func populationRows(a *domain.ARD, denoms []count.GroupCount) {
	for _, d := range denoms {
		a.Add(PopulationLabel, d.Group, strconv.Itoa(d.N))
	}
}

func blankRows(a *domain.ARD, denoms []count.GroupCount) {
	for _, d := range denoms {
		a.Add("", d.Group, "")
	}
}

func groupsOf(denoms []count.GroupCount) []string {
	out := make([]string, len(denoms))
	for i, d := range denoms {
		out[i] = d.Group
	}
	return out
}

// withWithout adds "with one or more" and "with no" rows from the number of subjects
// with any observation.
func withWithout(a *domain.ARD, pop, obs *dataset.Table, opts count.Options, with, without string) error {
	counts, err := count.SubjectsWithAny(pop, obs, opts, with)
	if err != nil {
		return err
	}
	denoms, err := count.Subjects(pop, opts)
	if err != nil {
		return err
	}

	n := make(map[string]int, len(counts))
	for _, c := range counts {
		n[c.Group] = c.N
	}
	for _, d := range denoms {
		a.Add(with, d.Group, count.FormatNPct(n[d.Group], count.Percent(n[d.Group], d.N)))
	}
	for _, d := range denoms {
		rest := d.N - n[d.Group]
		a.Add(without, d.Group, count.FormatNPct(rest, count.Percent(rest, d.N)))
	}
	return nil
}

func addCounts(a *domain.ARD, counts []count.ObservationCount, label func(value string) string) {
	for _, c := range counts {
		a.Add(label(c.Value), c.Group, c.Formatted)
	}
}

func asIs(v string) string { return v }

func indented(v string) string { return indent + v }
