package sqlrewrite

import (
	"fmt"
	"strconv"
	"strings"

	"sqlguard/internal/sqlast"
)

// countAlias names the derived table a wrapped count query selects from.
const countAlias = "sqlguard_count"

// Paginate returns a copy of a SELECT bounded to limit rows starting at
// offset. Any existing LIMIT/OFFSET is replaced. For set operations the
// bound applies to the whole compound.
func Paginate(s *Statement, offset, limit int64) (*Statement, error) {
	sel, err := selectOf(s)
	if err != nil {
		return nil, err
	}
	if offset < 0 || limit < 0 {
		return nil, fmt.Errorf("page bounds must not be negative (offset %d, limit %d)", offset, limit)
	}

	body := copyBodyChain(sel.Body, func(last *sqlast.SelectCore) {
		last.Limit = intLiteral(limit)
		last.Offset = nil
		if offset > 0 {
			last.Offset = intLiteral(offset)
		}
	})
	return s.derive(&sqlast.SelectStmt{With: sel.With, Body: body}), nil
}

// CountStatement returns the companion count query of a SELECT: the same
// FROM and predicate with the projection replaced by COUNT(*) and without
// ORDER BY, LIMIT, or OFFSET.
//
// Plain selects get their projection swapped. Selects whose row count
// depends on the projection (DISTINCT, GROUP BY, HAVING, aggregates, set
// operations) are wrapped as SELECT COUNT(*) FROM (...) AS sqlguard_count.
func CountStatement(s *Statement) (*Statement, error) {
	sel, err := selectOf(s)
	if err != nil {
		return nil, err
	}

	stripped := copyBodyChain(sel.Body, func(last *sqlast.SelectCore) {
		last.OrderBy = nil
		last.Limit = nil
		last.Offset = nil
	})

	if stripped.Op == sqlast.SetOpNone && !needsCountWrap(stripped.Left) {
		stripped.Left.Columns = []sqlast.SelectItem{{Expr: countStar()}}
		return s.derive(&sqlast.SelectStmt{With: sel.With, Body: stripped}), nil
	}

	wrapped := &sqlast.SelectCore{
		Columns: []sqlast.SelectItem{{Expr: countStar()}},
		From: &sqlast.FromClause{
			Source: &sqlast.DerivedTable{
				Select: &sqlast.SelectStmt{Body: stripped},
				Alias:  countAlias,
			},
		},
	}
	return s.derive(&sqlast.SelectStmt{With: sel.With, Body: &sqlast.SelectBody{Left: wrapped}}), nil
}

func selectOf(s *Statement) (*sqlast.SelectStmt, error) {
	if !s.Parsed() {
		return nil, fmt.Errorf("%w: %v", ErrNotRewritable, s.Err())
	}
	sel, ok := s.ast.(*sqlast.SelectStmt)
	if !ok || sel.Body == nil {
		return nil, fmt.Errorf("%w: %s is not a SELECT", ErrNotRewritable, s.Kind)
	}
	return sel, nil
}

// copyBodyChain shallow-copies a set-operation chain and every core in it,
// then lets edit modify the copy of the last core, which holds the trailing
// ORDER BY, LIMIT, and OFFSET.
func copyBodyChain(body *sqlast.SelectBody, edit func(last *sqlast.SelectCore)) *sqlast.SelectBody {
	out := *body
	core := *body.Left
	out.Left = &core
	if out.Right != nil {
		out.Right = copyBodyChain(out.Right, edit)
		return &out
	}
	edit(out.Left)
	return &out
}

func needsCountWrap(core *sqlast.SelectCore) bool {
	if core.Distinct || len(core.GroupBy) > 0 || core.Having != nil {
		return true
	}
	for _, item := range core.Columns {
		if hasAggregate(item.Expr) {
			return true
		}
	}
	return false
}

var aggregateFuncs = map[string]bool{
	"count":        true,
	"sum":          true,
	"avg":          true,
	"min":          true,
	"max":          true,
	"group_concat": true,
	"string_agg":   true,
	"array_agg":    true,
	"bool_and":     true,
	"bool_or":      true,
	"every":        true,
	"total":        true,
}

func hasAggregate(e sqlast.Expr) bool {
	found := false
	sqlast.Inspect(e, func(n sqlast.Expr) bool {
		switch fn := n.(type) {
		case *sqlast.FuncCall:
			if aggregateFuncs[strings.ToLower(fn.Name)] {
				found = true
			}
		case *sqlast.SubqueryExpr, *sqlast.ExistsExpr:
			// aggregates inside a subquery do not collapse the outer rows
			return false
		}
		return !found
	})
	return found
}

func countStar() *sqlast.FuncCall {
	return &sqlast.FuncCall{Name: "COUNT", Star: true}
}

func intLiteral(v int64) *sqlast.Literal {
	return &sqlast.Literal{Type: sqlast.LiteralNumber, Value: strconv.FormatInt(v, 10)}
}
