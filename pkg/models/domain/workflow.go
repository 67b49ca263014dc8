package domain

import "time"

type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusFinished RunStatus = "finished"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one batch generation pass over a study plan.
type Run struct {
	ID         string
	Study      string
	Status     RunStatus
	StartedAt  time.Time
	FinishedAt *time.Time
	Total      int
	Failed     int
}

// Result is the outcome of one individual plan within a run. A non-nil Err is the
// placeholder recorded in place of the output.
type Result struct {
	PlanID string
	Path   string
	Err    error
}

func (r Result) OK() bool {
	return r.Err == nil
}
