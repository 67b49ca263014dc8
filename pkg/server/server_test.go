package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/de-tools/tlf-atlas/pkg/models/api"
	"github.com/de-tools/tlf-atlas/pkg/models/domain"
	"github.com/de-tools/tlf-atlas/pkg/server/middleware"
	"github.com/de-tools/tlf-atlas/pkg/services/workspace"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPlans struct {
	mock.Mock
}

func (m *mockPlans) Plans() []domain.IndividualPlan {
	args := m.Called()
	return args.Get(0).([]domain.IndividualPlan)
}

func (m *mockPlans) Plan(id string) (domain.IndividualPlan, error) {
	args := m.Called(id)
	return args.Get(0).(domain.IndividualPlan), args.Error(1)
}

func (m *mockPlans) Build(ctx context.Context, p domain.IndividualPlan) (domain.Artifact, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.Artifact), args.Error(1)
}

func TestWebAPI_Endpoints(t *testing.T) {
	logger := zerolog.New(zerolog.NewTestWriter(t))

	plan := domain.IndividualPlan{Analysis: "cm_summary", Population: "apat"}
	artifact := &domain.TableArtifact{
		ID:      plan.ID(),
		Render:  domain.RenderSpec{Titles: []string{"Summary of Concomitant Medications"}},
		ARD:     &domain.ARD{Categories: []string{"Participants in population"}, Groups: []string{"Overall"}, Rows: []domain.ARDRow{{Index: "Participants in population", Group: "Overall", Value: "4"}}},
		Display: &domain.DisplayTable{Columns: []string{"", "Overall"}, Rows: [][]string{{"Participants in population", "4"}}},
	}

	plans := new(mockPlans)
	plans.On("Plans").Return([]domain.IndividualPlan{plan})
	plans.On("Plan", "cm_summary_apat").Return(plan, nil)
	plans.On("Plan", "cm_summary_itt").
		Return(domain.IndividualPlan{}, fmt.Errorf("%w: cm_summary_itt", workspace.ErrPlanNotFound))
	plans.On("Build", mock.Anything, plan).Return(artifact, nil)

	webAPI := NewWebAPI(logger, Config{
		Addr:            ":8080",
		ShutdownTimeout: 10 * time.Second,
		Dependencies:    Dependencies{Plans: plans},
	})
	testServer := httptest.NewServer(webAPI.router)
	defer testServer.Close()

	tests := []struct {
		name           string
		path           string
		expectedStatus int
		expected       interface{}
		parseResponse  func([]byte) (interface{}, error)
	}{
		{
			name:           "ListPlans",
			path:           "/api/v1/plans",
			expectedStatus: http.StatusOK,
			expected: []api.Plan{{
				ID: "cm_summary_apat", Analysis: "cm_summary", Population: "apat", Filename: "cm_summary_apat.rtf",
			}},
			parseResponse: unmarshalResponse[[]api.Plan](),
		},
		{
			name:           "GetPlan_NotFound",
			path:           "/api/v1/plans/cm_summary_itt",
			expectedStatus: http.StatusNotFound,
			expected:       api.Error{Error: "plan not found: cm_summary_itt"},
			parseResponse:  unmarshalResponse[api.Error](),
		},
		{
			name:           "GetARD",
			path:           "/api/v1/plans/cm_summary_apat/ard",
			expectedStatus: http.StatusOK,
			expected: api.ARD{
				PlanID:     "cm_summary_apat",
				Categories: []string{"Participants in population"},
				Groups:     []string{"Overall"},
				Rows:       []api.ARDRow{{Index: "Participants in population", Group: "Overall", Value: "4"}},
			},
			parseResponse: unmarshalResponse[api.ARD](),
		},
		{
			name:           "GetDisplay",
			path:           "/api/v1/plans/cm_summary_apat/display",
			expectedStatus: http.StatusOK,
			expected: api.Display{
				PlanID:  "cm_summary_apat",
				Kind:    "table",
				Titles:  []string{"Summary of Concomitant Medications"},
				Columns: []string{"", "Overall"},
				Rows:    [][]string{{"Participants in population", "4"}},
			},
			parseResponse: unmarshalResponse[api.Display](),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Get(testServer.URL + tc.path)
			require.NoError(t, err, "Failed to send request")
			defer resp.Body.Close()

			assert.Equal(t, tc.expectedStatus, resp.StatusCode, "Status code mismatch")
			assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err, "Failed to read response body")

			actual, err := tc.parseResponse(body)
			require.NoError(t, err, "Failed to parse response")

			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestWebAPI_RecoversFromPanics(t *testing.T) {
	plans := new(mockPlans)
	plans.On("Plan", "cm_summary_apat").Run(func(mock.Arguments) {
		panic("boom")
	}).Return(domain.IndividualPlan{}, nil)

	router := ConfigureRouter(zerolog.Nop(), Dependencies{Plans: plans})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/plans/cm_summary_apat", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type fakeRuns struct{}

func (fakeRuns) GetRun(_ context.Context, runID string) (*domain.Run, error) {
	return &domain.Run{ID: runID, Study: "xyz123", Status: domain.RunStatusFinished}, nil
}

func (fakeRuns) ListRuns(_ context.Context, study string) ([]*domain.Run, error) {
	return []*domain.Run{{ID: "run-1", Study: study, Status: domain.RunStatusFinished}}, nil
}

func (fakeRuns) ListResults(context.Context, string) ([]domain.Result, error) {
	return nil, nil
}

type fakeWorkflow struct{}

func (fakeWorkflow) Start(_ context.Context, study string, plans []domain.IndividualPlan) (*domain.Run, error) {
	return &domain.Run{ID: "run-2", Study: study, Status: domain.RunStatusRunning, Total: len(plans)}, nil
}

func (fakeWorkflow) Cancel(context.Context, string) error {
	return nil
}

func TestWebAPI_RunRoutes(t *testing.T) {
	plans := new(mockPlans)
	plans.On("Plans").Return([]domain.IndividualPlan{{Analysis: "cm_summary", Population: "apat"}})

	t.Run("mounted with a run store", func(t *testing.T) {
		router := ConfigureRouter(zerolog.Nop(), Dependencies{
			Study: "xyz123", Plans: plans, Runs: fakeRuns{}, Workflow: fakeWorkflow{},
		})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var listed []api.Run
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&listed))
		assert.Equal(t, "xyz123", listed[0].Study)

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil))
		require.Equal(t, http.StatusAccepted, rec.Code)
		var started api.Run
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&started))
		assert.Equal(t, 1, started.Total)
	})

	t.Run("absent without a run store", func(t *testing.T) {
		router := ConfigureRouter(zerolog.Nop(), Dependencies{Plans: plans})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func unmarshalResponse[T any]() func([]byte) (interface{}, error) {
	return func(data []byte) (interface{}, error) {
		var response T
		err := json.Unmarshal(data, &response)
		return response, err
	}
}
