package runs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/de-tools/tlf-atlas/pkg/adapters"
	"github.com/de-tools/tlf-atlas/pkg/models/domain"
	"github.com/de-tools/tlf-atlas/pkg/models/store"
	"github.com/de-tools/tlf-atlas/pkg/store/duckdb"
	"github.com/google/uuid"
)

var ErrRunNotFound = errors.New("run not found")

// Store records generation runs and the outcome of every plan in them.
type Store interface {
	CreateRun(ctx context.Context, study string, total int) (*domain.Run, error)
	RecordResults(ctx context.Context, runID string, results []domain.Result) error
	FinishRun(ctx context.Context, runID string) (*domain.Run, error)
	GetRun(ctx context.Context, runID string) (*domain.Run, error)
	ListRuns(ctx context.Context, study string) ([]*domain.Run, error)
	ListResults(ctx context.Context, runID string) ([]domain.Result, error)
}

type defaultStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &defaultStore{
		db: db,
	}, nil
}

func (s *defaultStore) CreateRun(ctx context.Context, study string, total int) (*domain.Run, error) {
	run := &store.Run{
		ID:        uuid.NewString(),
		Study:     study,
		Status:    string(domain.RunStatusRunning),
		StartedAt: time.Now().UTC(),
		Total:     total,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO generation_runs (id, study, status, started_at, total) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Study, run.Status, run.StartedAt, run.Total,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return adapters.MapStoreRunToDomain(run), nil
}

// RecordResults stores results in one transaction unless ctx already carries one.
func (s *defaultStore) RecordResults(ctx context.Context, runID string, results []domain.Result) error {
	if len(results) == 0 {
		return nil
	}

	tx := duckdb.GetTransaction(ctx)
	owned := false
	if tx == nil {
		var err error
		if tx, err = s.db.BeginTx(ctx, nil); err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		owned = true
		defer tx.Rollback()
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO generation_results (run_id, plan_id, path, error)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (run_id, plan_id) DO UPDATE SET path = EXCLUDED.path, error = EXCLUDED.error`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, res := range results {
		rec := adapters.MapDomainResultToStore(runID, res)
		if _, err := stmt.ExecContext(ctx, rec.RunID, rec.PlanID, rec.Path, rec.Error); err != nil {
			return fmt.Errorf("insert result %s: %w", rec.PlanID, err)
		}
	}

	if owned {
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit results: %w", err)
		}
	}
	return nil
}

func (s *defaultStore) FinishRun(ctx context.Context, runID string) (*domain.Run, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE generation_runs SET
			finished_at = ?,
			failed = (SELECT COUNT(*) FROM generation_results WHERE run_id = ? AND error IS NOT NULL),
			status = CASE WHEN (SELECT COUNT(*) FROM generation_results WHERE run_id = ? AND error IS NOT NULL) > 0
				THEN ? ELSE ? END
		WHERE id = ?`,
		time.Now().UTC(), runID, runID, string(domain.RunStatusFailed), string(domain.RunStatusFinished), runID,
	)
	if err != nil {
		return nil, fmt.Errorf("update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return s.GetRun(ctx, runID)
}

func (s *defaultStore) GetRun(ctx context.Context, runID string) (*domain.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, study, status, started_at, finished_at, total, failed FROM generation_runs WHERE id = ?`, runID)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, err
	}
	return adapters.MapStoreRunToDomain(run), nil
}

func (s *defaultStore) ListRuns(ctx context.Context, study string) ([]*domain.Run, error) {
	query := `SELECT id, study, status, started_at, finished_at, total, failed FROM generation_runs`
	var args []any
	if study != "" {
		query += ` WHERE study = ?`
		args = append(args, study)
	}
	query += ` ORDER BY started_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []*domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, adapters.MapStoreRunToDomain(run))
	}
	return out, rows.Err()
}

func (s *defaultStore) ListResults(ctx context.Context, runID string) ([]domain.Result, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, plan_id, path, error FROM generation_results WHERE run_id = ? ORDER BY created_at, plan_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var out []domain.Result
	for rows.Next() {
		var rec store.RunResult
		var path, msg sql.NullString
		if err := rows.Scan(&rec.RunID, &rec.PlanID, &path, &msg); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		if path.Valid {
			rec.Path = &path.String
		}
		if msg.Valid {
			rec.Error = &msg.String
		}
		out = append(out, adapters.MapStoreResultToDomain(rec))
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*store.Run, error) {
	var run store.Run
	var finished sql.NullTime
	if err := row.Scan(&run.ID, &run.Study, &run.Status, &run.StartedAt, &finished, &run.Total, &run.Failed); err != nil {
		return nil, err
	}
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return &run, nil
}
