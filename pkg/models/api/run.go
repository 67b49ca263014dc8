package api

import "time"

type Run struct {
	ID         string     `json:"id"`
	Study      string     `json:"study"`
	Status     string     `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Total      int        `json:"total"`
	Failed     int        `json:"failed"`
}

type RunResult struct {
	PlanID string `json:"plan_id"`
	Path   string `json:"path,omitempty"`
	Error  string `json:"error,omitempty"`
}

type RunDetail struct {
	Run     Run         `json:"run"`
	Results []RunResult `json:"results"`
}

// StartRunRequest selects the analyses of a run. An empty list runs every plan.
type StartRunRequest struct {
	Only []string `json:"only,omitempty"`
}
