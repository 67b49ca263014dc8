package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/de-tools/tlf-atlas/pkg/models/api"
	"github.com/de-tools/tlf-atlas/pkg/models/domain"
	"github.com/de-tools/tlf-atlas/pkg/services/study"
	"github.com/de-tools/tlf-atlas/pkg/services/workspace"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Plans() []domain.IndividualPlan {
	args := m.Called()
	return args.Get(0).([]domain.IndividualPlan)
}

func (m *mockService) Plan(id string) (domain.IndividualPlan, error) {
	args := m.Called(id)
	return args.Get(0).(domain.IndividualPlan), args.Error(1)
}

func (m *mockService) Build(ctx context.Context, p domain.IndividualPlan) (domain.Artifact, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.Artifact), args.Error(1)
}

var (
	aeSummary = domain.IndividualPlan{Analysis: "ae_summary", Population: "apat", Group: "trt01a"}
	cmListing = domain.IndividualPlan{Analysis: "cm_listing", Population: "apat"}
)

func summaryArtifact() *domain.TableArtifact {
	a := domain.NewARD([]string{"Participants in population"}, []string{"A", "B"})
	a.Rows = []domain.ARDRow{
		{Index: "Participants in population", Group: "A", Value: "2"},
		{Index: "Participants in population", Group: "B", Value: "1"},
	}
	return &domain.TableArtifact{
		ID:      aeSummary.ID(),
		Render:  domain.RenderSpec{Titles: []string{"Analysis of Adverse Event Summary"}},
		ARD:     a,
		Display: &domain.DisplayTable{Columns: []string{"", "A", "B"}, Rows: [][]string{{"Participants in population", "2", "1"}}},
	}
}

func serve(route string, handler http.HandlerFunc, path string) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	router.Get(route, handler)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestListPlans(t *testing.T) {
	svc := new(mockService)
	svc.On("Plans").Return([]domain.IndividualPlan{aeSummary, cmListing})
	h := NewHandler(svc)

	rec := serve("/plans", h.ListPlans, "/plans")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	plans := decode[[]api.Plan](t, rec)
	require.Len(t, plans, 2)
	assert.Equal(t, "ae_summary_apat", plans[0].ID)
	assert.Equal(t, "cm_listing_apat.rtf", plans[1].Filename)
}

func TestGetPlan(t *testing.T) {
	tests := []struct {
		name           string
		id             string
		setupMock      func(*mockService)
		expectedStatus int
	}{
		{
			name: "found",
			id:   "ae_summary_apat",
			setupMock: func(m *mockService) {
				m.On("Plan", "ae_summary_apat").Return(aeSummary, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "not found",
			id:   "ae_summary_itt",
			setupMock: func(m *mockService) {
				m.On("Plan", "ae_summary_itt").
					Return(domain.IndividualPlan{}, fmt.Errorf("%w: ae_summary_itt", workspace.ErrPlanNotFound))
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockService)
			tt.setupMock(svc)
			h := NewHandler(svc)

			rec := serve("/plans/{id}", h.GetPlan, "/plans/"+tt.id)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestGetARD(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		svc := new(mockService)
		svc.On("Plan", "ae_summary_apat").Return(aeSummary, nil)
		svc.On("Build", mock.Anything, aeSummary).Return(summaryArtifact(), nil)
		h := NewHandler(svc)

		rec := serve("/plans/{id}/ard", h.GetARD, "/plans/ae_summary_apat/ard")

		require.Equal(t, http.StatusOK, rec.Code)
		out := decode[api.ARD](t, rec)
		assert.Equal(t, "ae_summary_apat", out.PlanID)
		assert.Equal(t, []string{"A", "B"}, out.Groups)
		assert.Len(t, out.Rows, 2)
	})

	t.Run("listing has no ARD", func(t *testing.T) {
		svc := new(mockService)
		svc.On("Plan", "cm_listing_apat").Return(cmListing, nil)
		svc.On("Build", mock.Anything, cmListing).
			Return(&domain.ListingArtifact{ID: cmListing.ID(), Data: &domain.DisplayTable{}}, nil)
		h := NewHandler(svc)

		rec := serve("/plans/{id}/ard", h.GetARD, "/plans/cm_listing_apat/ard")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "listing analyses have no analysis results data", decode[api.Error](t, rec).Error)
	})

	t.Run("unresolved keyword", func(t *testing.T) {
		svc := new(mockService)
		svc.On("Plan", "ae_summary_apat").Return(aeSummary, nil)
		svc.On("Build", mock.Anything, aeSummary).
			Return(nil, &study.KeywordNotFoundError{Category: domain.CategoryGroup, Name: "trt01a"})
		h := NewHandler(svc)

		rec := serve("/plans/{id}/ard", h.GetARD, "/plans/ae_summary_apat/ard")

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestGetDisplay(t *testing.T) {
	svc := new(mockService)
	svc.On("Plan", "ae_summary_apat").Return(aeSummary, nil)
	svc.On("Build", mock.Anything, aeSummary).Return(summaryArtifact(), nil)
	h := NewHandler(svc)

	rec := serve("/plans/{id}/display", h.GetDisplay, "/plans/ae_summary_apat/display")

	require.Equal(t, http.StatusOK, rec.Code)
	out := decode[api.Display](t, rec)
	assert.Equal(t, api.Display{
		PlanID:  "ae_summary_apat",
		Kind:    "table",
		Titles:  []string{"Analysis of Adverse Event Summary"},
		Columns: []string{"", "A", "B"},
		Rows:    [][]string{{"Participants in population", "2", "1"}},
	}, out)
}
