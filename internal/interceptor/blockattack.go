package interceptor

import (
	"context"
	"log/slog"

	"sqlguard/internal/domain"
	"sqlguard/internal/sqlrewrite"
)

// BlockAttack rejects UPDATE and DELETE statements that would touch every row
// of their table: no predicate, a predicate that folds to TRUE, or a
// predicate that cannot be inspected because the statement did not parse.
// Stacked statements are rejected whatever their kind, since only the first
// one could ever be judged.
type BlockAttack struct {
	Logger *slog.Logger
}

// Name implements Interceptor.
func (b *BlockAttack) Name() string { return "block_attack" }

// Intercept implements Interceptor.
func (b *BlockAttack) Intercept(_ context.Context, inv *Invocation) (*sqlrewrite.Statement, error) {
	st := inv.Statement
	if st.MultiStatement() {
		b.logger().Warn("statement rejected: multiple statements", "kind", st.Kind.String())
		return nil, domain.ErrRejected("multiple statements in one call are not allowed")
	}
	if !st.Kind.IsMutation() {
		return st, nil
	}

	judged := st
	if inv.beforeLock != nil {
		judged = inv.beforeLock
	}

	if !judged.Parsed() {
		b.logger().Warn("mutation rejected: predicate cannot be verified", "kind", st.Kind.String(), "error", st.Err())
		return nil, domain.ErrRejected("%s rejected: statement did not parse, predicate cannot be verified", st.Kind)
	}
	if !sqlrewrite.HasEffectivePredicate(judged) {
		b.logger().Warn("mutation rejected: no effective predicate", "kind", st.Kind.String(), "table", st.Target())
		return nil, domain.ErrRejected("%s on %q rejected: no effective WHERE clause", st.Kind, st.Target())
	}
	return st, nil
}

func (b *BlockAttack) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.Default()
	}
	return b.Logger
}
