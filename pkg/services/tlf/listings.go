package tlf

import (
	"context"

	"github.com/de-tools/tlf-atlas/pkg/models/domain"
	"github.com/de-tools/tlf-atlas/pkg/services/ard"
	"github.com/de-tools/tlf-atlas/pkg/services/count"
	"github.com/de-tools/tlf-atlas/pkg/services/registry"
)

type listingSpec struct {
	title   string
	dataset string
	columns []ard.Column
	// sortBy entries absent from the joined listing are skipped. groupColumn stands
	// for the plan's treatment column.
	sortBy []string
}

const groupColumn = "$group"

var (
	cmListing = listingSpec{
		title:   "Listing of Concomitant Medications",
		dataset: cmDataset,
		columns: []ard.Column{
			{Name: "CMTRT", Label: "Reported Term"},
			{Name: "CMDECOD", Label: "Standardized Term"},
			{Name: "ASTDT", Label: "Start Date"},
			{Name: "AENDT", Label: "End Date"},
			{Name: "ONTRTFL", Label: "On Treatment"},
		},
		sortBy: []string{groupColumn, count.DefaultID, "ASTDT", "CMTRT"},
	}
	mhListing = listingSpec{
		title:   "Listing of Medical History",
		dataset: "admh",
		columns: []ard.Column{
			{Name: "MHSEQ", Label: "Sequence"},
			{Name: "MHBODSYS", Label: "Body System"},
			{Name: "MHDECOD", Label: "Term"},
			{Name: "MHSTDTC", Label: "Start Date"},
			{Name: "MHENRTPT", Label: "End Relative to Reference"},
			{Name: "MHOCCUR", Label: "Occurrence"},
		},
		sortBy: []string{count.DefaultID, "MHSTDTC"},
	}
	ieListing = listingSpec{
		title:   "Inclusion/Exclusion Listing",
		dataset: "adie",
		columns: []ard.Column{
			{Name: "PARAM", Label: "Inclusion/Exclusion Reason"},
		},
		sortBy: []string{count.DefaultID},
	}
)

// listing returns a builder for a subject listing paged by subject and, when the plan
// names a group, by treatment.
func (s *Service) listing(spec listingSpec) registry.BuilderFunc {
	return func(ctx context.Context, plan domain.IndividualPlan) (domain.Artifact, error) {
		r, err := s.resolve(ctx, plan, spec.dataset)
		if err != nil {
			return nil, wrap(plan, err)
		}

		labels := map[string]string{count.DefaultID: SubjectLabel}
		columns := make([]string, len(spec.columns))
		for i, c := range spec.columns {
			columns[i] = c.Name
			labels[c.Name] = c.Label
		}

		pageBy := []ard.Column{{Name: count.DefaultID, Label: SubjectLabel}}
		if r.group.Column != "" {
			pageBy = append(pageBy, ard.Column{Name: r.group.Column, Label: groupHeader(r.group, r.group.Column)})
		}
		var sortBy []string
		for _, c := range spec.sortBy {
			if c == groupColumn {
				c = r.group.Column
			}
			if c != "" {
				sortBy = append(sortBy, c)
			}
		}

		out, err := s.ard.Listing(ctx, ard.ListingInput{
			Population:         r.subjects,
			Observation:        r.events,
			PopulationFilter:   r.population.Filter,
			ObservationFilter:  r.observation.Filter,
			ObservationColumns: columns,
			PageBy:             pageBy,
			SortBy:             sortBy,
		})
		if err != nil {
			return nil, wrap(plan, err)
		}

		data := ard.TableDisplay(out, labels)
		return &domain.ListingArtifact{
			ID:     plan.ID(),
			Render: listingRender(r.titles(spec.title, ""), data),
			Data:   data,
		}, nil
	}
}

// listingRender lays out every column but the page label, left-justified, with the
// subject column narrower than the rest.
func listingRender(titles []string, data *domain.DisplayTable) domain.RenderSpec {
	headers := data.Columns[1:]
	widths := make([]float64, len(headers))
	justify := make([]domain.Justification, len(headers))
	for i, h := range headers {
		widths[i] = 2
		if h == SubjectLabel {
			widths[i] = 1
		}
		justify[i] = domain.JustifyLeft
	}
	return domain.RenderSpec{
		Titles:        titles,
		ColumnHeaders: [][]string{append([]string(nil), headers...)},
		ColumnWidths:  widths,
		Justify:       justify,
		GroupBy:       []string{SubjectLabel},
		PageBy:        []string{ard.IndexColumn},
		Orientation:   domain.Landscape,
	}
}
