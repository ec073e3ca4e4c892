package explain

import (
	"context"
	"database/sql"
	"fmt"
)

// DefaultPrefix is prepended to a statement to request its plan.
const DefaultPrefix = "EXPLAIN "

// Querier is the subset of *sql.DB, *sql.Conn and *sql.Tx used to run an
// explain.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Plan is the tabular output of an explain statement.
type Plan struct {
	Columns []string
	Rows    [][]any
}

// SQLExplainer runs explain statements through database/sql.
type SQLExplainer struct {
	q      Querier
	prefix string
}

// SQLOption configures a SQLExplainer.
type SQLOption func(*SQLExplainer)

// WithPrefix replaces DefaultPrefix, e.g. "EXPLAIN (FORMAT JSON) " or
// "EXPLAIN QUERY PLAN ".
func WithPrefix(prefix string) SQLOption {
	return func(e *SQLExplainer) {
		e.prefix = prefix
	}
}

// NewSQLExplainer creates an explainer that queries through q.
func NewSQLExplainer(q Querier, opts ...SQLOption) *SQLExplainer {
	e := &SQLExplainer{q: q, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Explain runs the prefixed statement with args and collects every row.
// []byte values are converted to strings.
func (e *SQLExplainer) Explain(ctx context.Context, statement string, args ...any) (any, error) {
	if e.q == nil {
		return nil, ErrNilQuerier
	}

	rows, err := e.q.QueryContext(ctx, e.prefix+statement, args...)
	if err != nil {
		return nil, fmt.Errorf("query plan: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("plan columns: %w", err)
	}

	plan := Plan{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan plan row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		plan.Rows = append(plan.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read plan rows: %w", err)
	}

	return plan, nil
}

// Func adapts the explainer to an ExplainFunc. args are bound on every run.
func (e *SQLExplainer) Func(args ...any) ExplainFunc {
	return func(ctx context.Context, statement string) (any, error) {
		return e.Explain(ctx, statement, args...)
	}
}
