// Package engine executes SQL through the interceptor chain. Every statement
// is parsed, scoped, paginated, version-checked, and guarded before it
// reaches the database.
package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sqlguard/internal/audit"
	"sqlguard/internal/domain"
	"sqlguard/internal/interceptor"
	"sqlguard/internal/sqlast"
	"sqlguard/internal/sqlrewrite"
)

// Querier is the subset of *sql.DB and *sql.Tx the engine needs.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Config configures a GuardedEngine.
type Config struct {
	Interceptors interceptor.Config
	// ParamStyle is the placeholder syntax of statements the engine builds
	// for Insert, Update, and SoftDelete.
	ParamStyle sqlast.ParamStyle
	// Metrics is optional.
	Metrics *Metrics
	// Now is the audit clock; nil uses time.Now.
	Now func() time.Time
}

// GuardedEngine runs statements through the interceptor chain. It holds no
// per-call state and is safe for concurrent use.
type GuardedEngine struct {
	q       Querier
	chain   *interceptor.Chain
	filler  *audit.FieldFiller
	cfg     Config
	metrics *Metrics
	logger  *slog.Logger
}

// NewGuardedEngine creates a GuardedEngine over q.
func NewGuardedEngine(q Querier, cfg Config, logger *slog.Logger) *GuardedEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &GuardedEngine{
		q:       q,
		chain:   interceptor.NewChain(cfg.Interceptors, logger),
		filler:  audit.NewFieldFiller(cfg.Now, logger),
		cfg:     cfg,
		metrics: cfg.Metrics,
		logger:  logger,
	}
}

// WithTx returns an engine that runs its statements inside tx. The caller
// owns the transaction.
func (e *GuardedEngine) WithTx(tx *sql.Tx) *GuardedEngine {
	cp := *e
	cp.q = tx
	return &cp
}

// Execute runs sqlText with args through the interceptor chain.
//
// The flow:
//  1. Pull a data scope out of the options or the bound arguments
//  2. Parse the statement; parse failures continue as an opaque statement
//  3. Run the chain: scope, pagination, optimistic lock, mutation guard
//  4. Execute the final statement, plus the count query when requested
func (e *GuardedEngine) Execute(ctx context.Context, sqlText string, args []any, opts ...Option) (*Result, error) {
	o := collectOptions(opts)
	args = o.extractScope(args)

	st, err := sqlrewrite.Parse(sqlText)
	if err != nil {
		e.logger.Debug("statement did not parse; continuing as opaque", "error", err)
	}
	return e.run(ctx, st, args, o, true)
}

// run executes st through the chain. When passthrough is set and no
// interceptor replaced the statement, the caller's text and arguments are
// sent unchanged.
func (e *GuardedEngine) run(ctx context.Context, st *sqlrewrite.Statement, args []any, o *options, passthrough bool) (*Result, error) {
	start := time.Now()

	inv := &interceptor.Invocation{
		Statement:       st,
		Scope:           o.scope,
		Page:            o.page,
		ExpectedVersion: o.expectedVersion,
	}
	if err := e.chain.Proceed(ctx, inv); err != nil {
		e.observe(st.Kind, err, start)
		return nil, err
	}

	query, bound := st.Raw, args
	if !passthrough || inv.Statement != st {
		var order []int
		query, order = inv.Statement.Render()
		var err error
		if bound, err = sqlrewrite.BindArgs(order, args); err != nil {
			e.observe(st.Kind, err, start)
			return nil, err
		}
	}

	res := &Result{}
	var err error
	if inv.Count != nil {
		res.Total, err = e.count(ctx, inv.Count, args)
		if err != nil {
			e.observe(st.Kind, err, start)
			return nil, err
		}
	}

	if st.Kind == sqlrewrite.StmtSelect {
		err = e.query(ctx, query, bound, res)
	} else {
		err = e.exec(ctx, query, bound, res)
	}
	if err == nil && inv.VersionChecked && res.RowsAffected == 0 {
		err = domain.ErrConflict(inv.Statement.Target(), *o.expectedVersion)
	}

	if err == nil && inv.Count != nil {
		limit := o.page.EffectiveLimit(e.cfg.Interceptors.MaxLimit)
		res.NextPageToken = domain.NextPageToken(o.page.Offset, limit, *res.Total)
	}
	if inv.ScopeApplied && e.metrics != nil {
		e.metrics.ScopeRewrites.WithLabelValues(st.Kind.String()).Inc()
	}
	e.observe(st.Kind, err, start)
	e.audit(ctx, inv, query, res, err)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (e *GuardedEngine) count(ctx context.Context, st *sqlrewrite.Statement, args []any) (*int64, error) {
	query, order := st.Render()
	bound, err := sqlrewrite.BindArgs(order, args)
	if err != nil {
		return nil, err
	}
	rows, err := e.q.QueryContext(ctx, query, bound...)
	if err != nil {
		return nil, fmt.Errorf("execute count: %w", err)
	}
	defer rows.Close()

	var total int64
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("read count: %w", err)
		}
		return nil, fmt.Errorf("read count: no rows")
	}
	if err := rows.Scan(&total); err != nil {
		return nil, fmt.Errorf("read count: %w", err)
	}
	return &total, rows.Err()
}

func (e *GuardedEngine) query(ctx context.Context, query string, args []any, res *Result) error {
	rows, err := e.q.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	if res.Columns, res.Rows, err = scanRows(rows); err != nil {
		return fmt.Errorf("read rows: %w", err)
	}
	return nil
}

func (e *GuardedEngine) exec(ctx context.Context, query string, args []any, res *Result) error {
	r, err := e.q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("execute statement: %w", err)
	}
	if res.RowsAffected, err = r.RowsAffected(); err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if id, err := r.LastInsertId(); err == nil {
		res.LastInsertID = id
	}
	return nil
}

func (e *GuardedEngine) observe(kind sqlrewrite.StatementType, err error, start time.Time) {
	if e.metrics == nil {
		return
	}
	outcome := Outcome(err)
	e.metrics.Statements.WithLabelValues(kind.String(), outcome).Inc()
	e.metrics.Duration.WithLabelValues(kind.String()).Observe(time.Since(start).Seconds())
}

// audit writes one structured line per executed statement.
func (e *GuardedEngine) audit(ctx context.Context, inv *interceptor.Invocation, query string, res *Result, err error) {
	attrs := []any{
		"request_id", domain.RequestIDFromContext(ctx),
		"kind", inv.Statement.Kind.String(),
		"tables", inv.Statement.Tables,
		"sql", query,
		"rewrites", inv.Rewrites,
	}
	if p, ok := domain.PrincipalFromContext(ctx); ok {
		attrs = append(attrs, "principal_id", p.ID)
	}
	if err != nil {
		e.logger.Warn("statement failed", append(attrs, "outcome", Outcome(err), "error", err)...)
		return
	}
	e.logger.Info("statement executed", append(attrs, "rows", len(res.Rows), "rows_affected", res.RowsAffected)...)
}

// Outcome classifies an execution error for metrics and logs.
func Outcome(err error) string {
	var (
		conflict *domain.ConflictError
		rejected *domain.RejectedError
		scope    *domain.ScopeUnenforceableError
		parse    *domain.ParseError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &conflict):
		return "conflict"
	case errors.As(err, &rejected):
		return "rejected"
	case errors.As(err, &scope):
		return "scope_unenforceable"
	case errors.As(err, &parse):
		return "parse_error"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
