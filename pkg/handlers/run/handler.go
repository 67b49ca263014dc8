package run

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/de-tools/tlf-atlas/pkg/adapters"
	"github.com/de-tools/tlf-atlas/pkg/models/api"
	"github.com/de-tools/tlf-atlas/pkg/models/domain"
	"github.com/de-tools/tlf-atlas/pkg/services/plan"
	"github.com/de-tools/tlf-atlas/pkg/services/workflow"
	"github.com/de-tools/tlf-atlas/pkg/store/duckdb/runs"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Store reads recorded runs.
type Store interface {
	GetRun(ctx context.Context, runID string) (*domain.Run, error)
	ListRuns(ctx context.Context, study string) ([]*domain.Run, error)
	ListResults(ctx context.Context, runID string) ([]domain.Result, error)
}

type PlanLister interface {
	Plans() []domain.IndividualPlan
}

type Handler struct {
	study      string
	plans      PlanLister
	store      Store
	controller workflow.Controller
}

func NewHandler(study string, plans PlanLister, store Store, controller workflow.Controller) *Handler {
	return &Handler{
		study:      study,
		plans:      plans,
		store:      store,
		controller: controller,
	}
}

func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	list, err := h.store.ListRuns(ctx, h.study)
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}

	response := make([]api.Run, 0, len(list))
	for _, run := range list {
		response = append(response, adapters.MapRunToAPI(run))
	}
	writeJSON(ctx, w, http.StatusOK, response)
}

func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	run, err := h.store.GetRun(ctx, id)
	if err != nil {
		writeError(ctx, w, statusOf(err), err)
		return
	}
	results, err := h.store.ListResults(ctx, id)
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}

	response := api.RunDetail{Run: adapters.MapRunToAPI(run), Results: make([]api.RunResult, 0, len(results))}
	for _, res := range results {
		response.Results = append(response.Results, adapters.MapResultToAPI(res))
	}
	writeJSON(ctx, w, http.StatusOK, response)
}

// StartRun launches a background generation of every plan, or of the plans listed in
// the request body, and answers 202 with the new run.
func (h *Handler) StartRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	var req api.StartRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(ctx, w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	plans, err := plan.Select(h.plans.Plans(), req.Only)
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, err)
		return
	}

	run, err := h.controller.Start(ctx, h.study, plans)
	if err != nil {
		logger.Error().Err(err).Msg("failed to start run")
		writeError(ctx, w, statusOf(err), err)
		return
	}
	logger.Info().Str("run_id", run.ID).Int("plans", len(plans)).Msg("run started")
	writeJSON(ctx, w, http.StatusAccepted, adapters.MapRunToAPI(run))
}

func (h *Handler) CancelRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := h.controller.Cancel(ctx, id); err != nil {
		writeError(ctx, w, statusOf(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, runs.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrRunNotActive), errors.Is(err, workflow.ErrRunInProgress):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	writeJSON(ctx, w, status, api.Error{Error: err.Error()})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(ctx).Error().
			Err(err).
			Msg("failed to encode response")
	}
}
