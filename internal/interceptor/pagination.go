package interceptor

import (
	"context"
	"fmt"
	"log/slog"

	"sqlguard/internal/sqlrewrite"
)

// Pagination bounds a SELECT to the requested page and, when asked, prepares
// a count query over the same (already scoped) predicate.
type Pagination struct {
	MaxLimit int64
	Logger   *slog.Logger
}

// Name implements Interceptor.
func (p *Pagination) Name() string { return "pagination" }

// Intercept implements Interceptor.
func (p *Pagination) Intercept(_ context.Context, inv *Invocation) (*sqlrewrite.Statement, error) {
	st := inv.Statement
	if inv.Page == nil || st.Kind != sqlrewrite.StmtSelect {
		return st, nil
	}
	if err := inv.Page.Validate(); err != nil {
		return nil, err
	}
	if !st.Parsed() {
		// Parsing fails open: the statement runs as written, unbounded.
		p.logger().Warn("pagination skipped: statement did not parse", "error", st.Err())
		return st, nil
	}

	limit := inv.Page.EffectiveLimit(p.MaxLimit)
	out, err := sqlrewrite.Paginate(st, inv.Page.Offset, limit)
	if err != nil {
		return nil, fmt.Errorf("paginate: %w", err)
	}

	if inv.Page.WithTotal {
		count, err := sqlrewrite.CountStatement(st)
		if err != nil {
			return nil, fmt.Errorf("count statement: %w", err)
		}
		inv.Count = count
	}
	return out, nil
}

func (p *Pagination) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}
