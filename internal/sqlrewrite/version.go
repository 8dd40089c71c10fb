package sqlrewrite

import (
	"fmt"
	"strings"

	"sqlguard/internal/sqlast"
)

// WithVersionCheck returns a copy of an UPDATE that only matches rows still
// at the expected version and advances the version by one:
//
//	... SET <column> = expected + 1 WHERE (<existing>) AND (<column> = expected)
//
// A caller-supplied assignment to the version column is replaced.
func WithVersionCheck(s *Statement, column string, expected int64) (*Statement, error) {
	if !s.Parsed() {
		return nil, fmt.Errorf("%w: %v", ErrNotRewritable, s.Err())
	}
	upd, ok := s.ast.(*sqlast.UpdateStmt)
	if !ok {
		return nil, fmt.Errorf("%w: version check requires UPDATE, got %s", ErrNotRewritable, s.Kind)
	}
	if column == "" {
		return nil, fmt.Errorf("version column is required")
	}

	out := *upd
	out.Sets = make([]sqlast.SetClause, 0, len(upd.Sets)+1)
	for _, set := range upd.Sets {
		if strings.EqualFold(set.Column, column) {
			continue
		}
		out.Sets = append(out.Sets, set)
	}
	out.Sets = append(out.Sets, sqlast.SetClause{Column: column, Value: intLiteral(expected + 1)})

	ref := &sqlast.ColumnRef{Column: column}
	if upd.From != nil {
		// UPDATE ... FROM may join tables with their own version column.
		ref.Table = upd.Table.Name
		if upd.Table.Alias != "" {
			ref.Table = upd.Table.Alias
		}
	}
	check := &sqlast.BinaryExpr{
		Left:  ref,
		Op:    sqlast.TokEq,
		Right: intLiteral(expected),
	}
	out.Where = sqlast.AndExpr(out.Where, check)

	return s.derive(&out), nil
}
