// Package interceptor implements the fixed chain of statement interceptors
// that runs before every execution: data scope, pagination, optimistic lock,
// and the full-table mutation guard.
package interceptor

import (
	"context"
	"log/slog"

	"sqlguard/internal/domain"
	"sqlguard/internal/sqlrewrite"
)

// Invocation is one statement execution passing through the chain. The
// caller fills the inputs; interceptors record what they did in the outputs.
type Invocation struct {
	// Inputs.
	Statement       *sqlrewrite.Statement
	Scope           *domain.DataScope
	Page            *domain.PageRequest
	ExpectedVersion *int64

	// Outputs.
	Count          *sqlrewrite.Statement // companion count query, when requested
	ScopeApplied   bool
	VersionChecked bool
	Rewrites       []string // names of interceptors that replaced the statement

	// beforeLock is the statement as it was before the version check was
	// added. The mutation guard judges it, since the version predicate alone
	// does not restrict which rows are touched.
	beforeLock *sqlrewrite.Statement
}

// Interceptor inspects one invocation and returns the statement to pass on:
// either the current one or a replacement. Returning an error aborts the
// execution before anything reaches the database.
type Interceptor interface {
	Name() string
	Intercept(ctx context.Context, inv *Invocation) (*sqlrewrite.Statement, error)
}

// Config holds the interceptor settings.
type Config struct {
	// ScopeMutations extends scope injection to UPDATE and DELETE.
	ScopeMutations bool
	// MaxLimit clamps page sizes; zero or less means unbounded.
	MaxLimit int64
	// VersionColumn names the optimistic-lock column.
	VersionColumn string
}

// Chain runs the interceptors in their fixed order.
//
// Scope must be injected before pagination computes bounds, so counts reflect
// the restricted set; the mutation guard must see the final predicate.
type Chain struct {
	interceptors []Interceptor
	logger       *slog.Logger
}

// NewChain builds the chain [DataScope, Pagination, OptimisticLock, BlockAttack].
func NewChain(cfg Config, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.VersionColumn == "" {
		cfg.VersionColumn = domain.ColumnVersion
	}
	return &Chain{
		interceptors: []Interceptor{
			&DataScope{ScopeMutations: cfg.ScopeMutations, Logger: logger},
			&Pagination{MaxLimit: cfg.MaxLimit, Logger: logger},
			&OptimisticLock{Column: cfg.VersionColumn, Logger: logger},
			&BlockAttack{Logger: logger},
		},
		logger: logger,
	}
}

// Names returns the interceptor names in execution order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.interceptors))
	for i, ic := range c.interceptors {
		names[i] = ic.Name()
	}
	return names
}

// Proceed runs every interceptor over inv. On success inv.Statement holds the
// statement to execute. Rewrites are pure, so a cancellation or error
// part-way leaves nothing to undo.
func (c *Chain) Proceed(ctx context.Context, inv *Invocation) error {
	for _, ic := range c.interceptors {
		if err := ctx.Err(); err != nil {
			return err
		}
		next, err := ic.Intercept(ctx, inv)
		if err != nil {
			return err
		}
		if next != inv.Statement {
			inv.Rewrites = append(inv.Rewrites, ic.Name())
			c.logger.Debug("statement rewritten", "interceptor", ic.Name(), "sql", next.String())
			inv.Statement = next
		}
	}
	return nil
}
