package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/de-tools/tlf-atlas/pkg/dataset"
)

const rowColumn = "__row__"

// PredicateEngine evaluates SQL WHERE predicates over in-memory tables by staging them
// in a temporary DuckDB table.
type PredicateEngine struct {
	db  *sql.DB
	seq atomic.Int64
}

func NewPredicateEngine(db *sql.DB) (*PredicateEngine, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &PredicateEngine{db: db}, nil
}

// Where returns the positions of the rows matching predicate, in table order.
func (e *PredicateEngine) Where(ctx context.Context, table *dataset.Table, predicate string) ([]int, error) {
	conn, err := e.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	name := fmt.Sprintf("__filter_%d", e.seq.Add(1))
	columns := table.Columns()
	types := inferTypes(table)

	defs := make([]string, 0, len(columns)+1)
	defs = append(defs, quoteIdent(rowColumn)+" BIGINT")
	for i, c := range columns {
		defs = append(defs, quoteIdent(c)+" "+types[i])
	}
	if _, err := conn.ExecContext(ctx, fmt.Sprintf("CREATE TEMP TABLE %s (%s)", quoteIdent(name), strings.Join(defs, ", "))); err != nil {
		return nil, fmt.Errorf("create staging table: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(context.Background(), "DROP TABLE IF EXISTS "+quoteIdent(name))
	}()

	if err := stage(ctx, conn, name, table, types); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE (%s) ORDER BY %s",
		quoteIdent(rowColumn), quoteIdent(name), predicate, quoteIdent(rowColumn))
	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("evaluate predicate %q: %w", predicate, err)
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var pos int64
		if err := rows.Scan(&pos); err != nil {
			return nil, fmt.Errorf("scan row position: %w", err)
		}
		out = append(out, int(pos))
	}
	return out, rows.Err()
}

func stage(ctx context.Context, conn *sql.Conn, name string, table *dataset.Table, types []string) error {
	if table.Len() == 0 {
		return nil
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin staging: %w", err)
	}
	defer tx.Rollback()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(types)+1), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(name), placeholders))
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	records := table.Records()
	args := make([]any, len(types)+1)
	for i, r := range records {
		args[0] = int64(i)
		for j, v := range r {
			args[j+1] = bindValue(v, types[j])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("stage row %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// inferTypes picks one DuckDB type per column from its non-null values. Columns with
// mixed or no values are staged as VARCHAR.
func inferTypes(table *dataset.Table) []string {
	columns := table.Columns()
	records := table.Records()
	out := make([]string, len(columns))
	for j := range columns {
		kind := ""
		for _, r := range records {
			var k string
			switch r[j].(type) {
			case nil:
				continue
			case int64:
				k = "BIGINT"
			case float64:
				k = "DOUBLE"
			case bool:
				k = "BOOLEAN"
			case time.Time:
				k = "TIMESTAMP"
			default:
				k = "VARCHAR"
			}
			switch {
			case kind == "":
				kind = k
			case kind == k:
			case (kind == "BIGINT" && k == "DOUBLE") || (kind == "DOUBLE" && k == "BIGINT"):
				kind = "DOUBLE"
			default:
				kind = "VARCHAR"
			}
		}
		if kind == "" {
			kind = "VARCHAR"
		}
		out[j] = kind
	}
	return out
}

func bindValue(v any, typ string) any {
	if v == nil {
		return nil
	}
	switch typ {
	case "VARCHAR":
		return dataset.Format(v)
	case "DOUBLE":
		if i, ok := v.(int64); ok {
			return float64(i)
		}
	}
	return v
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
