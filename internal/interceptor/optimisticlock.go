package interceptor

import (
	"context"
	"log/slog"

	"sqlguard/internal/domain"
	"sqlguard/internal/sqlrewrite"
)

// OptimisticLock adds the version check to an UPDATE issued with an expected
// version. The executor reports zero affected rows as a ConflictError.
type OptimisticLock struct {
	Column string
	Logger *slog.Logger
}

// Name implements Interceptor.
func (o *OptimisticLock) Name() string { return "optimistic_lock" }

// Intercept implements Interceptor.
func (o *OptimisticLock) Intercept(_ context.Context, inv *Invocation) (*sqlrewrite.Statement, error) {
	st := inv.Statement
	if inv.ExpectedVersion == nil || st.Kind != sqlrewrite.StmtUpdate {
		return st, nil
	}

	if !st.Parsed() {
		// Running the update without its version check would lose writes.
		o.logger().Warn("optimistic lock cannot be enforced: statement did not parse", "error", st.Err())
		if err := st.Err(); err != nil {
			return nil, err
		}
		return nil, &domain.ParseError{SQL: st.Raw, Err: sqlrewrite.ErrNotRewritable}
	}

	out, err := sqlrewrite.WithVersionCheck(st, o.Column, *inv.ExpectedVersion)
	if err != nil {
		return nil, err
	}
	inv.beforeLock = st
	inv.VersionChecked = true
	return out, nil
}

func (o *OptimisticLock) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}
