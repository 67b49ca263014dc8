package run

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/de-tools/tlf-atlas/pkg/models/api"
	"github.com/de-tools/tlf-atlas/pkg/models/domain"
	"github.com/de-tools/tlf-atlas/pkg/services/workflow"
	"github.com/de-tools/tlf-atlas/pkg/store/duckdb/runs"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetRun(ctx context.Context, runID string) (*domain.Run, error) {
	args := m.Called(ctx, runID)
	run, _ := args.Get(0).(*domain.Run)
	return run, args.Error(1)
}

func (m *mockStore) ListRuns(ctx context.Context, study string) ([]*domain.Run, error) {
	args := m.Called(ctx, study)
	return args.Get(0).([]*domain.Run), args.Error(1)
}

func (m *mockStore) ListResults(ctx context.Context, runID string) ([]domain.Result, error) {
	args := m.Called(ctx, runID)
	return args.Get(0).([]domain.Result), args.Error(1)
}

type mockController struct {
	mock.Mock
}

func (m *mockController) Start(ctx context.Context, study string, plans []domain.IndividualPlan) (*domain.Run, error) {
	args := m.Called(ctx, study, plans)
	run, _ := args.Get(0).(*domain.Run)
	return run, args.Error(1)
}

func (m *mockController) Cancel(ctx context.Context, runID string) error {
	return m.Called(ctx, runID).Error(0)
}

type planList []domain.IndividualPlan

func (p planList) Plans() []domain.IndividualPlan { return p }

var (
	started = time.Date(2025, 6, 13, 9, 0, 0, 0, time.UTC)
	plans   = planList{
		{Analysis: "ae_summary", Population: "apat"},
		{Analysis: "cm_summary", Population: "apat"},
	}
)

func router(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/runs", h.ListRuns)
	r.Post("/runs", h.StartRun)
	r.Get("/runs/{id}", h.GetRun)
	r.Delete("/runs/{id}", h.CancelRun)
	return r
}

func do(h *Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router(h).ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestListRuns(t *testing.T) {
	store := new(mockStore)
	store.On("ListRuns", mock.Anything, "xyz123").Return([]*domain.Run{
		{ID: "run-1", Study: "xyz123", Status: domain.RunStatusFinished, StartedAt: started, Total: 2},
	}, nil)
	h := NewHandler("xyz123", plans, store, new(mockController))

	rec := do(h, http.MethodGet, "/runs", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var out []api.Run
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, []api.Run{{ID: "run-1", Study: "xyz123", Status: "finished", StartedAt: started, Total: 2}}, out)
}

func TestGetRun(t *testing.T) {
	t.Run("with results", func(t *testing.T) {
		store := new(mockStore)
		store.On("GetRun", mock.Anything, "run-1").
			Return(&domain.Run{ID: "run-1", Study: "xyz123", Status: domain.RunStatusFailed, StartedAt: started, Total: 2, Failed: 1}, nil)
		store.On("ListResults", mock.Anything, "run-1").Return([]domain.Result{
			{PlanID: "ae_summary_apat", Path: "out/ae_summary_apat.rtf"},
			{PlanID: "cm_summary_apat", Err: fmt.Errorf("dataset not configured")},
		}, nil)
		h := NewHandler("xyz123", plans, store, new(mockController))

		rec := do(h, http.MethodGet, "/runs/run-1", "")

		require.Equal(t, http.StatusOK, rec.Code)
		var out api.RunDetail
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
		assert.Equal(t, "failed", out.Run.Status)
		assert.Equal(t, []api.RunResult{
			{PlanID: "ae_summary_apat", Path: "out/ae_summary_apat.rtf"},
			{PlanID: "cm_summary_apat", Error: "dataset not configured"},
		}, out.Results)
	})

	t.Run("unknown run", func(t *testing.T) {
		store := new(mockStore)
		store.On("GetRun", mock.Anything, "run-9").Return(nil, fmt.Errorf("%w: run-9", runs.ErrRunNotFound))
		h := NewHandler("xyz123", plans, store, new(mockController))

		rec := do(h, http.MethodGet, "/runs/run-9", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestStartRun(t *testing.T) {
	run := &domain.Run{ID: "run-2", Study: "xyz123", Status: domain.RunStatusRunning, StartedAt: started, Total: 1}

	tests := []struct {
		name           string
		body           string
		expectedPlans  []domain.IndividualPlan
		expectedStatus int
	}{
		{name: "every plan", body: "", expectedPlans: plans, expectedStatus: http.StatusAccepted},
		{name: "selected plans", body: `{"only":["cm_summary_apat"]}`, expectedPlans: plans[1:], expectedStatus: http.StatusAccepted},
		{name: "unknown plan", body: `{"only":["cm_summary_itt"]}`, expectedStatus: http.StatusBadRequest},
		{name: "malformed body", body: `{"only":`, expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := new(mockController)
			if tt.expectedPlans != nil {
				ctrl.On("Start", mock.Anything, "xyz123", tt.expectedPlans).Return(run, nil)
			}
			h := NewHandler("xyz123", plans, new(mockStore), ctrl)

			rec := do(h, http.MethodPost, "/runs", tt.body)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			ctrl.AssertExpectations(t)
		})
	}
}

func TestCancelRun(t *testing.T) {
	ctrl := new(mockController)
	ctrl.On("Cancel", mock.Anything, "run-2").Return(nil)
	ctrl.On("Cancel", mock.Anything, "run-1").Return(fmt.Errorf("%w: run-1", workflow.ErrRunNotActive))
	h := NewHandler("xyz123", plans, new(mockStore), ctrl)

	assert.Equal(t, http.StatusNoContent, do(h, http.MethodDelete, "/runs/run-2", "").Code)
	assert.Equal(t, http.StatusConflict, do(h, http.MethodDelete, "/runs/run-1", "").Code)
}
