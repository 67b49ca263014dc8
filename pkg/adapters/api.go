package adapters

import (
	"fmt"

	"github.com/de-tools/tlf-atlas/pkg/models/api"
	"github.com/de-tools/tlf-atlas/pkg/models/domain"
)

func MapPlanToAPI(p domain.IndividualPlan) api.Plan {
	return api.Plan{
		ID:          p.ID(),
		Analysis:    p.Analysis,
		Population:  p.Population,
		Observation: p.Observation,
		Parameter:   p.Parameter,
		Group:       p.Group,
		Filename:    p.Filename(),
	}
}

func MapARDToAPI(planID string, a *domain.ARD) api.ARD {
	out := api.ARD{
		PlanID:     planID,
		Categories: append([]string{}, a.Categories...),
		Groups:     append([]string{}, a.Groups...),
		Rows:       make([]api.ARDRow, 0, len(a.Rows)),
	}
	for _, r := range a.Rows {
		out.Rows = append(out.Rows, api.ARDRow{Index: r.Index, Group: r.Group, Value: r.Value})
	}
	if len(a.Labels) > 0 {
		out.Labels = make(map[string]string, len(a.Labels))
		for k, v := range a.Labels {
			out.Labels[k] = v
		}
	}
	return out
}

// MapArtifactToDisplay returns the cells of a table or listing. Figures have no cells.
func MapArtifactToDisplay(art domain.Artifact) (api.Display, error) {
	out := api.Display{
		PlanID:    art.PlanID(),
		Kind:      string(art.Kind()),
		Titles:    art.Spec().Titles,
		Footnotes: art.Spec().Footnotes,
	}
	var data *domain.DisplayTable
	switch a := art.(type) {
	case *domain.TableArtifact:
		data = a.Display
	case *domain.ListingArtifact:
		data = a.Data
	default:
		return api.Display{}, fmt.Errorf("%s: %w", art.PlanID(), domain.ErrFigureNotSupported)
	}
	if data != nil {
		out.Columns, out.Rows = data.Columns, data.Rows
	}
	if out.Rows == nil {
		out.Rows = [][]string{}
	}
	return out, nil
}

func MapRunToAPI(r *domain.Run) api.Run {
	return api.Run{
		ID:         r.ID,
		Study:      r.Study,
		Status:     string(r.Status),
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Total:      r.Total,
		Failed:     r.Failed,
	}
}

func MapResultToAPI(res domain.Result) api.RunResult {
	out := api.RunResult{PlanID: res.PlanID, Path: res.Path}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}
