package generator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/de-tools/tlf-atlas/pkg/models/domain"
	"github.com/de-tools/tlf-atlas/pkg/services/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type textRenderer struct{}

func (textRenderer) Render(w io.Writer, art domain.Artifact) error {
	if art.Kind() == domain.KindFigure {
		return domain.ErrFigureNotSupported
	}
	_, err := fmt.Fprintln(w, art.PlanID())
	return err
}

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) CreateRun(ctx context.Context, study string, total int) (*domain.Run, error) {
	args := m.Called(ctx, study, total)
	run, _ := args.Get(0).(*domain.Run)
	return run, args.Error(1)
}

func (m *mockRecorder) RecordResults(ctx context.Context, runID string, results []domain.Result) error {
	return m.Called(ctx, runID, results).Error(0)
}

func (m *mockRecorder) FinishRun(ctx context.Context, runID string) (*domain.Run, error) {
	args := m.Called(ctx, runID)
	run, _ := args.Get(0).(*domain.Run)
	return run, args.Error(1)
}

var errNoData = errors.New("no data")

func testRegistry(t *testing.T) registry.Registry {
	t.Helper()
	r := registry.New()
	require.NoError(t, r.Register("ae_summary", registry.BuilderFunc(
		func(_ context.Context, plan domain.IndividualPlan) (domain.Artifact, error) {
			if plan.Population == "itt" {
				return nil, errNoData
			}
			return &domain.TableArtifact{ID: plan.ID()}, nil
		})))
	require.NoError(t, r.Register("ae_figure", registry.BuilderFunc(
		func(_ context.Context, plan domain.IndividualPlan) (domain.Artifact, error) {
			return &domain.FigureArtifact{ID: plan.ID()}, nil
		})))
	return r
}

func plans() []domain.IndividualPlan {
	return []domain.IndividualPlan{
		{Analysis: "ae_summary", Population: "apat", Parameter: "any"},
		{Analysis: "ae_summary", Population: "itt", Parameter: "any"},
		{Analysis: "ae_figure", Population: "apat"},
		{Analysis: "cm_summary", Population: "apat"},
		{Analysis: "ae_summary", Population: "apat", Parameter: "any;ser"},
	}
}

func TestGenerate_ContinuesPastFailures(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	var seen []string
	g := New(testRegistry(t), textRenderer{}, dir, WithProgress(func(done, total int, res domain.Result) {
		assert.Equal(t, 5, total)
		seen = append(seen, res.PlanID)
	}))

	report, err := g.Generate(context.Background(), "xyz123", plans())
	require.NoError(t, err)

	require.Len(t, report.Results, 5)
	assert.Equal(t, []string{
		"ae_summary_apat_any",
		"ae_summary_itt_any",
		"ae_figure_apat",
		"cm_summary_apat",
		"ae_summary_apat_any;ser",
	}, seen)

	assert.True(t, report.Results[0].OK())
	assert.Equal(t, filepath.Join(dir, "ae_summary_apat_any.rtf"), report.Results[0].Path)
	assert.ErrorIs(t, report.Results[1].Err, errNoData)
	assert.ErrorIs(t, report.Results[2].Err, domain.ErrFigureNotSupported)
	assert.ErrorIs(t, report.Results[3].Err, registry.ErrUnknownAnalysis)
	assert.Equal(t, filepath.Join(dir, "ae_summary_apat_any_ser.rtf"), report.Results[4].Path)

	assert.Len(t, report.Failed(), 3)
	assert.Equal(t, domain.RunStatusFailed, report.Run.Status)
	assert.Equal(t, 3, report.Run.Failed)
	assert.NotEmpty(t, report.Run.ID)

	content, err := os.ReadFile(report.Results[0].Path)
	require.NoError(t, err)
	assert.Equal(t, "ae_summary_apat_any\n", string(content))

	_, err = os.Stat(filepath.Join(dir, "ae_figure_apat.rtf"))
	assert.True(t, os.IsNotExist(err), "failed render must not leave a file behind")
}

func TestGenerate_RecordsRun(t *testing.T) {
	ctx := context.Background()
	rec := new(mockRecorder)
	run := &domain.Run{ID: "run-1", Study: "xyz123", Status: domain.RunStatusRunning, Total: 2}
	finished := &domain.Run{ID: "run-1", Study: "xyz123", Status: domain.RunStatusFailed, Total: 2, Failed: 1}

	rec.On("CreateRun", ctx, "xyz123", 2).Return(run, nil)
	rec.On("RecordResults", mock.Anything, "run-1", mock.MatchedBy(func(rs []domain.Result) bool {
		return len(rs) == 1
	})).Return(nil).Twice()
	rec.On("FinishRun", mock.Anything, "run-1").Return(finished, nil)

	g := New(testRegistry(t), textRenderer{}, t.TempDir(), WithRecorder(rec))
	report, err := g.Generate(ctx, "xyz123", plans()[:2])
	require.NoError(t, err)

	assert.Same(t, finished, report.Run)
	rec.AssertExpectations(t)
}

func TestGenerate_RecorderFailure(t *testing.T) {
	ctx := context.Background()
	rec := new(mockRecorder)
	rec.On("CreateRun", ctx, "xyz123", 1).Return(nil, errors.New("database is locked"))

	_, err := New(testRegistry(t), textRenderer{}, t.TempDir(), WithRecorder(rec)).
		Generate(ctx, "xyz123", plans()[:1])
	assert.Error(t, err)
}

func TestExecute_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rec := new(mockRecorder)
	run := &domain.Run{ID: "run-2", Study: "xyz123", Status: domain.RunStatusRunning, Total: 3}
	rec.On("RecordResults", mock.MatchedBy(func(c context.Context) bool {
		return c.Err() == nil
	}), "run-2", mock.Anything).Return(nil).Times(3)
	rec.On("FinishRun", mock.Anything, "run-2").Return(nil, errors.New("database is locked"))

	g := New(testRegistry(t), textRenderer{}, t.TempDir(), WithRecorder(rec), WithProgress(func(done, _ int, _ domain.Result) {
		if done == 1 {
			cancel()
		}
	}))
	report := g.Execute(ctx, run, plans()[:3])

	require.Len(t, report.Results, 3)
	assert.True(t, report.Results[0].OK())
	assert.ErrorIs(t, report.Results[1].Err, context.Canceled)
	assert.ErrorIs(t, report.Results[2].Err, context.Canceled)
	assert.Equal(t, domain.RunStatusFailed, report.Run.Status)
	assert.Equal(t, 2, report.Run.Failed)
	rec.AssertExpectations(t)
}

func TestGenerateOne_PropagatesErrors(t *testing.T) {
	g := New(testRegistry(t), textRenderer{}, t.TempDir())

	_, err := g.GenerateOne(context.Background(), plans()[1])
	assert.ErrorIs(t, err, errNoData)

	path, err := g.GenerateOne(context.Background(), plans()[0])
	require.NoError(t, err)
	assert.FileExists(t, path)
}
