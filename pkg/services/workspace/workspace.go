package workspace

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/de-tools/tlf-atlas/pkg/filter"
	"github.com/de-tools/tlf-atlas/pkg/models/domain"
	"github.com/de-tools/tlf-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/tlf-atlas/pkg/services/ard"
	"github.com/de-tools/tlf-atlas/pkg/services/config"
	"github.com/de-tools/tlf-atlas/pkg/services/count"
	"github.com/de-tools/tlf-atlas/pkg/services/generator"
	"github.com/de-tools/tlf-atlas/pkg/services/plan"
	"github.com/de-tools/tlf-atlas/pkg/services/registry"
	"github.com/de-tools/tlf-atlas/pkg/services/study"
	"github.com/de-tools/tlf-atlas/pkg/services/tlf"
	"github.com/de-tools/tlf-atlas/pkg/services/workflow"
	"github.com/de-tools/tlf-atlas/pkg/store/duckdb"
	"github.com/de-tools/tlf-atlas/pkg/store/duckdb/runs"
	s3store "github.com/de-tools/tlf-atlas/pkg/store/s3"
	"github.com/rs/zerolog"
)

// ErrPlanNotFound is returned when no individual plan has the requested ID.
var ErrPlanNotFound = errors.New("plan not found")

// Workspace holds everything needed to work on one study plan: its configuration,
// dataset access, the analysis registry and the generator.
type Workspace struct {
	Settings  *config.Settings
	Config    *domain.StudyConfig
	Study     *study.Context
	Registry  registry.Registry
	Generator *generator.Generator
	Runs      runs.Store
	Workflow  *workflow.DefaultController

	db *sql.DB
}

// Open loads the plan file and assembles the study services around a DuckDB
// connection. Close releases the connection.
func Open(ctx context.Context, settings *config.Settings, planPath string, opts ...generator.Option) (*Workspace, error) {
	logger := zerolog.Ctx(ctx)

	cfg, err := config.NewLoader(filepath.Dir(planPath)).Load(planPath)
	if err != nil {
		return nil, err
	}

	db, err := duckdb.NewDB(duckdb.Settings{DbPath: settings.DBPath})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ws, err := assemble(ctx, settings, cfg, db, opts)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Debug().
		Str("study", cfg.Study.Name).
		Int("plans", len(cfg.Plans)).
		Str("db_path", settings.DBPath).
		Msg("workspace opened")
	return ws, nil
}

func assemble(
	ctx context.Context,
	settings *config.Settings,
	cfg *domain.StudyConfig,
	db *sql.DB,
	opts []generator.Option,
) (*Workspace, error) {
	tableLoader, err := duckdb.NewLoader(db)
	if err != nil {
		return nil, err
	}
	var loader study.Loader = tableLoader
	if remoteData(cfg) {
		client, err := s3store.NewClient(ctx, settings.S3Region, settings.S3Endpoint)
		if err != nil {
			return nil, err
		}
		loader = s3store.NewLoader(s3store.NewFetcher(client, settings.CacheDir), tableLoader)
	}

	engine, err := duckdb.NewPredicateEngine(db)
	if err != nil {
		return nil, err
	}

	sc := study.New(cfg, loader, study.WithDataDir(settings.DataDir))
	svc := tlf.New(sc, ard.New(filter.NewExecutor(engine)), tlf.Options{
		MissingGroup: count.MissingGroup(settings.MissingGroup),
		IncludeTotal: settings.IncludeTotal,
	})

	reg := registry.New()
	if err := svc.Register(reg); err != nil {
		return nil, err
	}

	runStore, err := runs.NewStore(db)
	if err != nil {
		return nil, err
	}

	opts = append([]generator.Option{generator.WithRecorder(runStore)}, opts...)
	gen := generator.New(reg, export.NewRTFWriter(), settings.OutputDir, opts...)
	return &Workspace{
		Settings:  settings,
		Config:    cfg,
		Study:     sc,
		Registry:  reg,
		Generator: gen,
		Runs:      runStore,
		Workflow:  workflow.NewController(gen),
		db:        db,
	}, nil
}

func remoteData(cfg *domain.StudyConfig) bool {
	for _, path := range cfg.Data {
		if s3store.IsRemote(path) {
			return true
		}
	}
	return false
}

// Plans returns the expanded, deduplicated individual plans in declaration order.
func (w *Workspace) Plans() []domain.IndividualPlan {
	return plan.Deduplicate(plan.ExpandAll(w.Config.Plans))
}

func (w *Workspace) Summary() domain.PlanSummary {
	return plan.Summarize(w.Config.Plans)
}

// Plan returns the individual plan with the given ID.
func (w *Workspace) Plan(id string) (domain.IndividualPlan, error) {
	p, ok := plan.Find(w.Config.Plans, id)
	if !ok {
		return domain.IndividualPlan{}, fmt.Errorf("%w: %s", ErrPlanNotFound, id)
	}
	return p, nil
}

// Validate checks every plan reference against the configured keywords and the
// registered analyses.
func (w *Workspace) Validate() domain.ValidationReport {
	return plan.Validate(w.Config.Plans, plan.ReferencesFor(w.Config, w.Registry.List()))
}

// Close cancels background runs and releases the database.
func (w *Workspace) Close() error {
	w.Workflow.Shutdown()
	return w.db.Close()
}

// Build produces the artifact of an individual plan without rendering it.
func (w *Workspace) Build(ctx context.Context, p domain.IndividualPlan) (domain.Artifact, error) {
	return w.Generator.Build(ctx, p)
}
