package adapters

import (
	"errors"

	"github.com/de-tools/tlf-atlas/pkg/models/domain"
	"github.com/de-tools/tlf-atlas/pkg/models/store"
)

func MapStoreRunToDomain(r *store.Run) *domain.Run {
	if r == nil {
		return nil
	}

	return &domain.Run{
		ID:         r.ID,
		Study:      r.Study,
		Status:     domain.RunStatus(r.Status),
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Total:      r.Total,
		Failed:     r.Failed,
	}
}

func MapDomainResultToStore(runID string, res domain.Result) store.RunResult {
	out := store.RunResult{
		RunID:  runID,
		PlanID: res.PlanID,
	}
	if res.Path != "" {
		path := res.Path
		out.Path = &path
	}
	if res.Err != nil {
		msg := res.Err.Error()
		out.Error = &msg
	}
	return out
}

// MapStoreResultToDomain restores a recorded result. The original error value is not
// persisted, so a failure comes back as a plain error carrying its message.
func MapStoreResultToDomain(r store.RunResult) domain.Result {
	res := domain.Result{PlanID: r.PlanID}
	if r.Path != nil {
		res.Path = *r.Path
	}
	if r.Error != nil {
		res.Err = errors.New(*r.Error)
	}
	return res
}
