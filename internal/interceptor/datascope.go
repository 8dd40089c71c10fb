package interceptor

import (
	"context"
	"log/slog"

	"sqlguard/internal/domain"
	"sqlguard/internal/sqlrewrite"
)

// DataScope ANDs the caller's scope filter into the statement predicate.
//
// A scoped statement that cannot be rewritten fails with
// ScopeUnenforceableError instead of running unrestricted.
type DataScope struct {
	ScopeMutations bool
	Logger         *slog.Logger
}

// Name implements Interceptor.
func (d *DataScope) Name() string { return "data_scope" }

// Intercept implements Interceptor.
func (d *DataScope) Intercept(_ context.Context, inv *Invocation) (*sqlrewrite.Statement, error) {
	st := inv.Statement
	if inv.Scope.IsBlank() {
		return st, nil
	}

	switch {
	case st.Kind == sqlrewrite.StmtSelect:
	case st.Kind.IsMutation() && d.ScopeMutations:
	default:
		return st, nil
	}

	if !st.Parsed() {
		d.logger().Warn("scope filter not applied: statement did not parse",
			"kind", st.Kind.String(), "error", st.Err())
		return nil, domain.ErrScopeUnenforceable("scope filter cannot be applied to unparseable %s: %v", st.Kind, st.Err())
	}

	filter, err := sqlrewrite.ParseScopeFilter(inv.Scope.SQLFilter)
	if err != nil {
		d.logger().Warn("scope filter not applied: invalid fragment", "error", err)
		return nil, domain.ErrScopeUnenforceable("%v", err)
	}

	out, err := sqlrewrite.AndWhere(st, filter)
	if err != nil {
		d.logger().Warn("scope filter not applied", "kind", st.Kind.String(), "tables", st.Tables, "error", err)
		return nil, domain.ErrScopeUnenforceable("scope filter cannot be applied: %v", err)
	}

	inv.ScopeApplied = true
	return out, nil
}

func (d *DataScope) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}
