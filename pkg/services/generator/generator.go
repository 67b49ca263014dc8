package generator

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/de-tools/tlf-atlas/pkg/models/domain"
	"github.com/de-tools/tlf-atlas/pkg/services/registry"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Renderer writes an artifact as a document.
type Renderer interface {
	Render(w io.Writer, art domain.Artifact) error
}

// Recorder persists runs and their per-plan results.
type Recorder interface {
	CreateRun(ctx context.Context, study string, total int) (*domain.Run, error)
	RecordResults(ctx context.Context, runID string, results []domain.Result) error
	FinishRun(ctx context.Context, runID string) (*domain.Run, error)
}

// Progress is called after every plan of a run.
type Progress func(done, total int, result domain.Result)

type Generator struct {
	registry  registry.Registry
	renderer  Renderer
	outputDir string
	recorder  Recorder
	progress  Progress
}

type Option func(*Generator)

func WithRecorder(r Recorder) Option {
	return func(g *Generator) {
		g.recorder = r
	}
}

func WithProgress(p Progress) Option {
	return func(g *Generator) {
		g.progress = p
	}
}

func New(reg registry.Registry, renderer Renderer, outputDir string, opts ...Option) *Generator {
	g := &Generator{
		registry:  reg,
		renderer:  renderer,
		outputDir: outputDir,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Report is the outcome of a run: one result per plan, in plan order.
type Report struct {
	Run     *domain.Run
	Results []domain.Result
}

func (r *Report) Failed() []domain.Result {
	var out []domain.Result
	for _, res := range r.Results {
		if !res.OK() {
			out = append(out, res)
		}
	}
	return out
}

// Generate renders every plan in order. A plan that fails is recorded as an error
// placeholder under its ID and the remaining plans still run. Only problems that
// affect the whole run, such as an unusable output directory, are returned as errors.
func (g *Generator) Generate(ctx context.Context, study string, plans []domain.IndividualPlan) (*Report, error) {
	run, err := g.Start(ctx, study, len(plans))
	if err != nil {
		return nil, err
	}
	return g.Execute(ctx, run, plans), nil
}

// Start prepares the output directory and opens a run for total plans.
func (g *Generator) Start(ctx context.Context, study string, total int) (*domain.Run, error) {
	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return g.startRun(ctx, study, total)
}

// Execute renders plans under a run opened by Start. When ctx is cancelled the plans
// not yet rendered are recorded as failed with the context error, so the report still
// has one result per plan.
func (g *Generator) Execute(ctx context.Context, run *domain.Run, plans []domain.IndividualPlan) *Report {
	logger := zerolog.Ctx(ctx).With().Str("run_id", run.ID).Str("study", run.Study).Logger()
	logger.Info().Int("plans", len(plans)).Msg("generation started")

	// Results are recorded even after cancellation.
	recordCtx := context.WithoutCancel(ctx)

	report := &Report{Run: run, Results: make([]domain.Result, 0, len(plans))}
	for i, plan := range plans {
		res := domain.Result{PlanID: plan.ID()}
		if err := ctx.Err(); err != nil {
			res.Err = err
		} else if path, err := g.GenerateOne(logger.WithContext(ctx), plan); err != nil {
			logger.Error().Err(err).Str("plan_id", res.PlanID).Msg("plan failed")
			res.Err = err
		} else {
			res.Path = path
			logger.Info().Str("plan_id", res.PlanID).Str("path", path).Msg("plan generated")
		}
		report.Results = append(report.Results, res)

		if g.recorder != nil {
			if err := g.recorder.RecordResults(recordCtx, run.ID, []domain.Result{res}); err != nil {
				logger.Warn().Err(err).Str("plan_id", res.PlanID).Msg("failed to record result")
			}
		}
		if g.progress != nil {
			g.progress(i+1, len(plans), res)
		}
	}

	report.Run = g.finishRun(logger.WithContext(recordCtx), run, report.Results)
	logger.Info().
		Int("failed", report.Run.Failed).
		Str("status", string(report.Run.Status)).
		Msg("generation finished")
	return report
}

// GenerateOne builds and renders a single plan to <output dir>/<plan filename>.
// Errors are returned as is.
func (g *Generator) GenerateOne(ctx context.Context, plan domain.IndividualPlan) (string, error) {
	art, err := g.Build(ctx, plan)
	if err != nil {
		return "", err
	}

	path := filepath.Join(g.outputDir, plan.Filename())
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := g.renderer.Render(f, art); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to render %s: %w", plan.ID(), err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

// Build produces the artifact for a plan without rendering it.
func (g *Generator) Build(ctx context.Context, plan domain.IndividualPlan) (domain.Artifact, error) {
	builder, err := g.registry.Get(plan.Analysis)
	if err != nil {
		return nil, err
	}
	return builder.Build(ctx, plan)
}

func (g *Generator) startRun(ctx context.Context, study string, total int) (*domain.Run, error) {
	if g.recorder != nil {
		run, err := g.recorder.CreateRun(ctx, study, total)
		if err != nil {
			return nil, fmt.Errorf("failed to create run: %w", err)
		}
		return run, nil
	}
	return &domain.Run{
		ID:        uuid.NewString(),
		Study:     study,
		Status:    domain.RunStatusRunning,
		StartedAt: time.Now().UTC(),
		Total:     total,
	}, nil
}

func (g *Generator) finishRun(ctx context.Context, run *domain.Run, results []domain.Result) *domain.Run {
	if g.recorder != nil {
		finished, err := g.recorder.FinishRun(ctx, run.ID)
		if err == nil {
			return finished
		}
		zerolog.Ctx(ctx).Warn().Err(err).Str("run_id", run.ID).Msg("failed to finish run")
	}

	out := *run
	now := time.Now().UTC()
	out.FinishedAt = &now
	out.Failed = 0
	for _, res := range results {
		if !res.OK() {
			out.Failed++
		}
	}
	out.Status = domain.RunStatusFinished
	if out.Failed > 0 {
		out.Status = domain.RunStatusFailed
	}
	return &out
}
