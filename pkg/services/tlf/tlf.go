package tlf

import (
	"context"
	"fmt"
	"strings"

	"github.com/de-tools/tlf-atlas/pkg/dataset"
	"github.com/de-tools/tlf-atlas/pkg/models/domain"
	"github.com/de-tools/tlf-atlas/pkg/services/ard"
	"github.com/de-tools/tlf-atlas/pkg/services/count"
	"github.com/de-tools/tlf-atlas/pkg/services/registry"
	"github.com/de-tools/tlf-atlas/pkg/services/study"
	"github.com/rs/zerolog"
)

const (
	SubjectDataset = "adsl"
	SubjectLabel   = "Subject ID"
)

const (
	AESummary   = "ae_summary"
	AESpecific  = "ae_specific"
	CMSummary   = "cm_summary"
	CMListing   = "cm_listing"
	MHListing   = "mh_listing"
	IEListing   = "ie_listing"
	Disposition = "disposition"
)

// Options carries the counting policies that apply to every table of a run.
type Options struct {
	MissingGroup count.MissingGroup
	IncludeTotal bool
}

// Service builds the artifacts of one study.
type Service struct {
	study *study.Context
	ard   *ard.Builder
	opts  Options
}

func New(sc *study.Context, builder *ard.Builder, opts Options) *Service {
	return &Service{study: sc, ard: builder, opts: opts}
}

// Register adds a builder for every supported analysis.
func (s *Service) Register(r registry.Registry) error {
	builders := map[string]registry.BuilderFunc{
		AESummary:   s.aeSummary,
		AESpecific:  s.aeSpecific,
		CMSummary:   s.cmSummary,
		Disposition: s.disposition,
		CMListing:   s.listing(cmListing),
		MHListing:   s.listing(mhListing),
		IEListing:   s.listing(ieListing),
	}
	for _, name := range []string{AESummary, AESpecific, CMSummary, Disposition, CMListing, MHListing, IEListing} {
		if err := r.Register(name, builders[name]); err != nil {
			return err
		}
	}
	return nil
}

// resolved holds everything a plan refers to. Keywords are resolved before any
// dataset is read.
type resolved struct {
	population  domain.Keyword
	observation domain.Keyword
	group       study.GroupInfo
	subjects    *dataset.Table
	events      *dataset.Table
}

func (s *Service) resolve(ctx context.Context, plan domain.IndividualPlan, events string) (*resolved, error) {
	var (
		r   resolved
		err error
	)
	if r.population, err = s.study.Population(plan.Population); err != nil {
		return nil, err
	}
	if r.observation, err = s.study.Observation(plan.Observation); err != nil {
		return nil, err
	}
	if r.group, err = s.study.Group(plan.Group); err != nil {
		return nil, err
	}

	names := []string{SubjectDataset}
	if events != "" {
		names = append(names, events)
	}
	tables, err := s.study.Datasets(ctx, names...)
	if err != nil {
		return nil, err
	}
	r.subjects = tables[SubjectDataset]
	r.events = tables[events]

	zerolog.Ctx(ctx).Debug().
		Str("plan_id", plan.ID()).
		Str("population", r.population.Name).
		Str("group", r.group.Column).
		Msg("plan resolved")
	return &r, nil
}

func (s *Service) countOptions(g study.GroupInfo) count.Options {
	return count.Options{
		Group:        g.Column,
		Levels:       g.Levels,
		Total:        s.opts.IncludeTotal,
		MissingGroup: s.opts.MissingGroup,
	}
}

func (r *resolved) input(observationFilter string, opts count.Options) ard.Input {
	return ard.Input{
		Population:        r.subjects,
		Observation:       r.events,
		PopulationFilter:  r.population.Filter,
		ObservationFilter: observationFilter,
		Count:             opts,
	}
}

// titles returns the main title followed by population, subset and parameter lines.
func (r *resolved) titles(main string, parameter string) []string {
	out := []string{main}
	out = append(out, "Population: "+r.population.DisplayLabel())
	if r.observation.Name != "" {
		out = append(out, "Subset: "+r.observation.DisplayLabel())
	}
	if parameter != "" {
		out = append(out, "Parameter: "+parameter)
	}
	return out
}

// allOf joins filters with and, skipping blanks.
func allOf(filters ...string) string {
	return join(filters, " and ")
}

// anyOf joins filters with or. A blank filter matches everything, so it makes the
// whole expression blank.
func anyOf(filters ...string) string {
	for _, f := range filters {
		if strings.TrimSpace(f) == "" {
			return ""
		}
	}
	return join(filters, " or ")
}

func join(filters []string, op string) string {
	var parts []string
	for _, f := range filters {
		if f = strings.TrimSpace(f); f != "" {
			parts = append(parts, f)
		}
	}
	if len(parts) <= 1 {
		return strings.Join(parts, "")
	}
	for i, p := range parts {
		parts[i] = "(" + p + ")"
	}
	return strings.Join(parts, op)
}

// tableSpec lays out a counts table: a wide label column, then one centered
// "n (%)" column per group.
func tableSpec(titles []string, display *domain.DisplayTable, footnotes []string) domain.RenderSpec {
	n := len(display.Columns)
	second := make([]string, n)
	widths := make([]float64, n)
	justify := make([]domain.Justification, n)
	for i := range display.Columns {
		if i == 0 {
			widths[i] = 3
			justify[i] = domain.JustifyLeft
			continue
		}
		second[i] = "n (%)"
		widths[i] = 1
		justify[i] = domain.JustifyCenter
	}
	return domain.RenderSpec{
		Titles:        titles,
		Footnotes:     footnotes,
		ColumnHeaders: [][]string{append([]string(nil), display.Columns...), second},
		ColumnWidths:  widths,
		Justify:       justify,
		Orientation:   domain.Landscape,
	}
}

func groupHeader(g study.GroupInfo, fallback string) string {
	if g.Label != "" {
		return g.Label
	}
	return fallback
}

func wrap(plan domain.IndividualPlan, err error) error {
	return fmt.Errorf("%s: %w", plan.ID(), err)
}
