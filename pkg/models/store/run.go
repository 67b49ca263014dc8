package store

import "time"

type Run struct {
	ID         string
	Study      string
	Status     string
	StartedAt  time.Time
	FinishedAt *time.Time
	Total      int
	Failed     int
}

type RunResult struct {
	RunID  string
	PlanID string
	Path   *string
	Error  *string
}
