// Package sqlrewrite provides the statement model the interceptor chain works
// on, plus the pure rewrites it applies: scope predicate injection, page
// bounds, count companions, and optimistic-lock version checks.
//
// Every rewrite returns a new Statement and leaves its input untouched, so an
// aborted chain never leaves a half-rewritten statement behind. Statements
// that fail to parse stay opaque: they keep their raw text and render it
// unchanged.
package sqlrewrite

import (
	"fmt"
	"strings"

	"sqlguard/internal/domain"
	"sqlguard/internal/sqlast"
)

// StatementType represents the kind of SQL statement.
type StatementType int

// SQL statement types identified during parsing.
const (
	StmtSelect StatementType = iota
	StmtInsert
	StmtUpdate
	StmtDelete
	StmtOther
)

func (t StatementType) String() string {
	switch t {
	case StmtSelect:
		return "SELECT"
	case StmtInsert:
		return "INSERT"
	case StmtUpdate:
		return "UPDATE"
	case StmtDelete:
		return "DELETE"
	default:
		return "OTHER"
	}
}

// IsMutation reports whether the kind is UPDATE or DELETE.
func (t StatementType) IsMutation() bool {
	return t == StmtUpdate || t == StmtDelete
}

func fromAST(t sqlast.StmtType) StatementType {
	switch t {
	case sqlast.StmtTypeSelect:
		return StmtSelect
	case sqlast.StmtTypeInsert:
		return StmtInsert
	case sqlast.StmtTypeUpdate:
		return StmtUpdate
	case sqlast.StmtTypeDelete:
		return StmtDelete
	default:
		return StmtOther
	}
}

// Statement is a parsed, rewritable SQL statement.
type Statement struct {
	Kind   StatementType
	Raw    string
	Tables []string

	ast        sqlast.Stmt
	err        error
	statements int // statements found in opaque text
}

// Parse parses raw SQL into a Statement.
//
// On failure it returns a *domain.ParseError together with a non-nil opaque
// Statement that keeps the raw text. Its kind comes from a token scan, so a
// write hidden behind WITH or inside a CTE still classifies as a write.
// Multi-statement input is never parsed.
func Parse(raw string) (*Statement, error) {
	stmt, err := sqlast.Parse(raw)
	if err != nil {
		perr := &domain.ParseError{SQL: raw, Err: err}
		kind, n := sqlast.ClassifyText(raw)
		return &Statement{
			Kind:       fromAST(kind),
			Raw:        raw,
			err:        perr,
			statements: n,
		}, perr
	}
	return newStatement(raw, stmt), nil
}

// FromAST wraps an already-built AST in a Statement.
func FromAST(stmt sqlast.Stmt) *Statement {
	return newStatement(sqlast.Format(stmt), stmt)
}

func newStatement(raw string, stmt sqlast.Stmt) *Statement {
	return &Statement{
		Kind:   fromAST(sqlast.Classify(stmt)),
		Raw:    raw,
		Tables: sqlast.CollectTableNames(stmt),
		ast:    stmt,
	}
}

// Parsed reports whether the statement has structure. Opaque statements
// cannot be rewritten.
func (s *Statement) Parsed() bool {
	return s != nil && s.ast != nil
}

// MultiStatement reports whether opaque text holds more than one statement.
// Drivers may run all of them, so such text must never be sent as is.
func (s *Statement) MultiStatement() bool {
	return s.statements > 1
}

// Err returns the parse error of an opaque statement.
func (s *Statement) Err() error {
	return s.err
}

// AST returns the statement's syntax tree, or nil for opaque statements.
// Callers must not mutate it; use the rewrite functions instead.
func (s *Statement) AST() sqlast.Stmt {
	return s.ast
}

// Render returns the SQL to execute and the order in which the original
// bound arguments must be passed. A nil order means the arguments are passed
// through unchanged, which is the case for opaque statements.
func (s *Statement) Render() (string, []int) {
	if !s.Parsed() {
		return s.Raw, nil
	}
	return sqlast.Render(s.ast)
}

// String renders the statement without argument information.
func (s *Statement) String() string {
	sql, _ := s.Render()
	return sql
}

// Target returns the table an INSERT, UPDATE, or DELETE writes to, or the
// first table a SELECT reads. Empty when unknown.
func (s *Statement) Target() string {
	if t := sqlast.TargetTable(s.ast); t != nil {
		return t.Name
	}
	if len(s.Tables) > 0 {
		return s.Tables[0]
	}
	return ""
}

// Predicate returns the WHERE expression of a single-core SELECT, an UPDATE,
// or a DELETE. It is nil when the statement has no predicate or is opaque.
func (s *Statement) Predicate() sqlast.Expr {
	switch n := s.ast.(type) {
	case *sqlast.SelectStmt:
		if n.Body != nil && n.Body.Op == sqlast.SetOpNone {
			return n.Body.Left.Where
		}
	case *sqlast.UpdateStmt:
		return n.Where
	case *sqlast.DeleteStmt:
		return n.Where
	}
	return nil
}

// IsSimpleSelect reports whether the statement is a SELECT with a single core
// (no UNION, INTERSECT, or EXCEPT), the shape a scope predicate can be
// attached to.
func (s *Statement) IsSimpleSelect() bool {
	sel, ok := s.ast.(*sqlast.SelectStmt)
	return ok && sel.Body != nil && sel.Body.Op == sqlast.SetOpNone
}

// BindArgs reorders args to match a render order. A nil order passes args
// through unchanged.
func BindArgs(order []int, args []any) ([]any, error) {
	if order == nil {
		return args, nil
	}
	bound := make([]any, len(order))
	for i, idx := range order {
		if idx < 0 || idx >= len(args) {
			return nil, domain.ErrValidation("statement references argument %d but %d were bound", idx+1, len(args))
		}
		bound[i] = args[idx]
	}
	return bound, nil
}

// ParseScopeFilter parses a scope filter fragment into an expression.
// Fragments must be self-contained: bind placeholders are refused because
// they cannot be aligned with the caller's arguments.
func ParseScopeFilter(fragment string) (sqlast.Expr, error) {
	expr, err := sqlast.ParseExpr(fragment)
	if err != nil {
		return nil, fmt.Errorf("parse scope filter: %w", err)
	}
	if sqlast.ContainsParam(expr) {
		return nil, fmt.Errorf("scope filter must not contain bind placeholders")
	}
	return expr, nil
}

// QuoteIdentifier unconditionally quotes a SQL identifier using double quotes.
// Internal double quotes are escaped by doubling them ("" → ").
func QuoteIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
