package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/marcboeker/go-duckdb/v2"
)

const RunsTableSchema = `
	CREATE TABLE IF NOT EXISTS generation_runs (
		id VARCHAR PRIMARY KEY,
		study VARCHAR NOT NULL,
		status VARCHAR NOT NULL,
		started_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		finished_at TIMESTAMP NULL,
		total INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0
	);
`
const RunResultsTableSchema = `
	CREATE TABLE IF NOT EXISTS generation_results (
		run_id VARCHAR NOT NULL,
		plan_id VARCHAR NOT NULL,
		path VARCHAR,
		error VARCHAR,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (run_id, plan_id)
	);
`

var bootQueries = []string{
	RunsTableSchema,
	RunResultsTableSchema,
}

type Settings struct {
	DbPath string
}

func NewDB(settings Settings) (*sql.DB, error) {
	c, err := duckdb.NewConnector(fmt.Sprintf("%s?threads=4", settings.DbPath), func(exec driver.ExecerContext) error {
		for _, query := range bootQueries {
			_, err := exec.ExecContext(context.Background(), query, nil)
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	db := sql.OpenDB(c)
	return db, nil
}
