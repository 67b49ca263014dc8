package filter

import (
	"context"
	"fmt"
	"strings"

	"github.com/de-tools/tlf-atlas/pkg/dataset"
	"github.com/rs/zerolog"
)

// Translate converts a dataset-qualified filter into a SQL WHERE predicate:
//
//	adsl:saffl == 'Y'          -> SAFFL = 'Y'
//	adae:aerel in ['A','B']    -> AEREL IN ('A','B')
//	""                         -> TRUE
func Translate(expr string) (string, error) {
	parsed, err := Parse(expr)
	if err != nil {
		return "", err
	}
	return parsed.SQL(), nil
}

// SQLEngine runs a translated predicate against a table and returns the positions of
// the matching rows in table order.
type SQLEngine interface {
	Where(ctx context.Context, table *dataset.Table, predicate string) ([]int, error)
}

// Executor applies filters through a SQL engine and falls back to the expression tree
// when the engine fails.
type Executor struct {
	engine SQLEngine
}

// NewExecutor returns an executor. A nil engine evaluates every filter with the
// expression tree.
func NewExecutor(engine SQLEngine) *Executor {
	return &Executor{engine: engine}
}

// Apply returns the rows of table matching expr. A blank expr returns the table as is.
func (e *Executor) Apply(ctx context.Context, table *dataset.Table, expr string) (*dataset.Table, error) {
	if strings.TrimSpace(expr) == "" {
		return table, nil
	}
	if e.engine == nil {
		out, err := Evaluate(table, expr)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrFilter, expr, err)
		}
		return out, nil
	}

	logger := zerolog.Ctx(ctx)

	primaryErr := func() error {
		predicate, err := Translate(expr)
		if err != nil {
			return err
		}
		rows, err := e.engine.Where(ctx, table, predicate)
		if err != nil {
			return err
		}
		table = table.Take(rows)
		return nil
	}()
	if primaryErr == nil {
		return table, nil
	}

	logger.Warn().
		Err(primaryErr).
		Str("filter", expr).
		Msg("sql filter failed, falling back to expression evaluator")

	out, fallbackErr := Evaluate(table, expr)
	if fallbackErr != nil {
		return nil, fmt.Errorf("%w: %q: %w (fallback: %w)", ErrFilter, expr, primaryErr, fallbackErr)
	}
	return out, nil
}
