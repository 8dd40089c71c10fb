package sqlrewrite

import (
	"errors"
	"fmt"

	"sqlguard/internal/sqlast"
)

// ErrNotRewritable is returned when a rewrite needs structure the statement
// does not have: an opaque statement, or a shape the rewrite does not handle.
var ErrNotRewritable = errors.New("statement cannot be rewritten")

// AndWhere returns a copy of s whose predicate is (existing) AND (filter), or
// just (filter) when s has no predicate. It handles single-core SELECT,
// UPDATE, and DELETE statements.
func AndWhere(s *Statement, filter sqlast.Expr) (*Statement, error) {
	if !s.Parsed() {
		return nil, fmt.Errorf("%w: %v", ErrNotRewritable, s.Err())
	}

	switch n := s.ast.(type) {
	case *sqlast.SelectStmt:
		if !s.IsSimpleSelect() {
			return nil, fmt.Errorf("%w: set operations have no single predicate", ErrNotRewritable)
		}
		core := *n.Body.Left
		core.Where = sqlast.AndExpr(core.Where, filter)
		return s.derive(&sqlast.SelectStmt{With: n.With, Body: &sqlast.SelectBody{Left: &core}}), nil

	case *sqlast.UpdateStmt:
		upd := *n
		upd.Where = sqlast.AndExpr(upd.Where, filter)
		return s.derive(&upd), nil

	case *sqlast.DeleteStmt:
		del := *n
		del.Where = sqlast.AndExpr(del.Where, filter)
		return s.derive(&del), nil

	default:
		return nil, fmt.Errorf("%w: %s has no predicate", ErrNotRewritable, s.Kind)
	}
}

// derive wraps a rewritten AST, keeping the original raw text for logging.
func (s *Statement) derive(stmt sqlast.Stmt) *Statement {
	return &Statement{
		Kind:   s.Kind,
		Raw:    s.Raw,
		Tables: sqlast.CollectTableNames(stmt),
		ast:    stmt,
	}
}
