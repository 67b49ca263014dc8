package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/de-tools/tlf-atlas/pkg/dataset"
)

// Loader reads parquet and CSV files through DuckDB's table functions.
type Loader struct {
	db *sql.DB
}

func NewLoader(db *sql.DB) (*Loader, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &Loader{db: db}, nil
}

func (l *Loader) Load(ctx context.Context, path string) (*dataset.Table, error) {
	var reader string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		reader = "read_parquet"
	case ".csv", ".tsv", ".txt":
		reader = "read_csv_auto"
	default:
		return nil, fmt.Errorf("%w: %s", dataset.ErrUnsupportedFormat, path)
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", dataset.ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	query := fmt.Sprintf("SELECT * FROM %s('%s')", reader, strings.ReplaceAll(path, "'", "''"))
	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	defer rows.Close()

	return scanTable(rows)
}

func scanTable(rows *sql.Rows) (*dataset.Table, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	var records [][]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		records = append(records, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return dataset.New(columns, records)
}
