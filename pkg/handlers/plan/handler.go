package plan

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/de-tools/tlf-atlas/pkg/adapters"
	"github.com/de-tools/tlf-atlas/pkg/models/api"
	"github.com/de-tools/tlf-atlas/pkg/models/domain"
	"github.com/de-tools/tlf-atlas/pkg/services/registry"
	"github.com/de-tools/tlf-atlas/pkg/services/study"
	"github.com/de-tools/tlf-atlas/pkg/services/workspace"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Service is the part of a study workspace the handler serves.
type Service interface {
	Plans() []domain.IndividualPlan
	Plan(id string) (domain.IndividualPlan, error)
	Build(ctx context.Context, p domain.IndividualPlan) (domain.Artifact, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans := h.service.Plans()
	response := make([]api.Plan, 0, len(plans))
	for _, p := range plans {
		response = append(response, adapters.MapPlanToAPI(p))
	}
	writeJSON(r.Context(), w, http.StatusOK, response)
}

func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	p, ok := h.plan(w, r)
	if !ok {
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, adapters.MapPlanToAPI(p))
}

func (h *Handler) GetARD(w http.ResponseWriter, r *http.Request) {
	art, ok := h.build(w, r)
	if !ok {
		return
	}
	table, isTable := art.(*domain.TableArtifact)
	if !isTable || table.ARD == nil {
		writeError(r.Context(), w, http.StatusNotFound, errors.New(string(art.Kind())+" analyses have no analysis results data"))
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, adapters.MapARDToAPI(art.PlanID(), table.ARD))
}

func (h *Handler) GetDisplay(w http.ResponseWriter, r *http.Request) {
	art, ok := h.build(w, r)
	if !ok {
		return
	}
	display, err := adapters.MapArtifactToDisplay(art)
	if err != nil {
		writeError(r.Context(), w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, display)
}

func (h *Handler) plan(w http.ResponseWriter, r *http.Request) (domain.IndividualPlan, bool) {
	id := chi.URLParam(r, "id")
	p, err := h.service.Plan(id)
	if err != nil {
		writeError(r.Context(), w, statusOf(err), err)
		return domain.IndividualPlan{}, false
	}
	return p, true
}

func (h *Handler) build(w http.ResponseWriter, r *http.Request) (domain.Artifact, bool) {
	p, ok := h.plan(w, r)
	if !ok {
		return nil, false
	}
	ctx := r.Context()
	art, err := h.service.Build(ctx, p)
	if err != nil {
		zerolog.Ctx(ctx).Error().
			Err(err).
			Str("plan_id", p.ID()).
			Msg("failed to build analysis")
		writeError(ctx, w, statusOf(err), err)
		return nil, false
	}
	return art, true
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, workspace.ErrPlanNotFound):
		return http.StatusNotFound
	case errors.Is(err, registry.ErrUnknownAnalysis),
		errors.Is(err, study.ErrKeywordNotFound),
		errors.Is(err, study.ErrDatasetNotFound):
		return http.StatusUnprocessableEntity
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
