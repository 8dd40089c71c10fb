package sqlrewrite

import (
	"strconv"

	"sqlguard/internal/sqlast"
)

// truth is the three-valued result of folding a predicate without data.
type truth int

const (
	unknown truth = iota
	alwaysTrue
	alwaysFalse
)

func truthOf(b bool) truth {
	if b {
		return alwaysTrue
	}
	return alwaysFalse
}

func (t truth) not() truth {
	switch t {
	case alwaysTrue:
		return alwaysFalse
	case alwaysFalse:
		return alwaysTrue
	}
	return unknown
}

// IsTautology reports whether a predicate is true for every row regardless of
// data, e.g. TRUE, 1 = 1, 'a' = 'a', x = x, NOT FALSE, or c = 1 OR 1 = 1.
// A nil predicate counts as a tautology.
//
// The fold is conservative: anything it cannot decide is not a tautology.
func IsTautology(e sqlast.Expr) bool {
	if e == nil {
		return true
	}
	return fold(e) == alwaysTrue
}

// HasEffectivePredicate reports whether an UPDATE or DELETE restricts the rows
// it touches. Opaque statements report false.
func HasEffectivePredicate(s *Statement) bool {
	if !s.Parsed() {
		return false
	}
	return !IsTautology(s.Predicate())
}

func fold(e sqlast.Expr) truth {
	switch expr := e.(type) {
	case *sqlast.Literal:
		switch expr.Type {
		case sqlast.LiteralBool:
			return truthOf(expr.Value == "true")
		case sqlast.LiteralNumber:
			if v, ok := numeric(expr); ok {
				return truthOf(v != 0)
			}
		}
		return unknown

	case *sqlast.ParenExpr:
		return fold(expr.Expr)

	case *sqlast.UnaryExpr:
		if expr.Op == sqlast.TokNot {
			return fold(expr.Expr).not()
		}
		if v, ok := numeric(expr); ok {
			return truthOf(v != 0)
		}
		return unknown

	case *sqlast.BinaryExpr:
		return foldBinary(expr)

	case *sqlast.IsNullExpr:
		lit, ok := unwrap(expr.Expr).(*sqlast.Literal)
		if !ok {
			return unknown
		}
		isNull := lit.Type == sqlast.LiteralNull
		return truthOf(isNull != expr.Not)

	case *sqlast.IsBoolExpr:
		inner := fold(expr.Expr)
		if inner == unknown {
			return unknown
		}
		matches := (inner == alwaysTrue) == expr.Value
		return truthOf(matches != expr.Not)

	case *sqlast.BetweenExpr:
		v, ok1 := numeric(expr.Expr)
		lo, ok2 := numeric(expr.Low)
		hi, ok3 := numeric(expr.High)
		if !ok1 || !ok2 || !ok3 {
			return unknown
		}
		return truthOf((v >= lo && v <= hi) != expr.Not)

	case *sqlast.InExpr:
		return foldIn(expr)
	}
	return unknown
}

func foldBinary(expr *sqlast.BinaryExpr) truth {
	switch expr.Op {
	case sqlast.TokAnd:
		l, r := fold(expr.Left), fold(expr.Right)
		if l == alwaysFalse || r == alwaysFalse {
			return alwaysFalse
		}
		if l == alwaysTrue && r == alwaysTrue {
			return alwaysTrue
		}
		return unknown

	case sqlast.TokOr:
		l, r := fold(expr.Left), fold(expr.Right)
		if l == alwaysTrue || r == alwaysTrue {
			return alwaysTrue
		}
		if l == alwaysFalse && r == alwaysFalse {
			return alwaysFalse
		}
		return unknown

	case sqlast.TokEq, sqlast.TokNotEq, sqlast.TokLt,
		sqlast.TokGt, sqlast.TokLtEq, sqlast.TokGtEq:
		return foldComparison(expr.Op, expr.Left, expr.Right)

	default:
		if v, ok := numeric(expr); ok {
			return truthOf(v != 0)
		}
		return unknown
	}
}

// foldComparison decides comparisons between constants of the same type, and
// self-comparisons of one column. x = x is only NULL-false, which still
// matches every non-null row, so it is treated as universally true.
func foldComparison(op sqlast.TokenType, left, right sqlast.Expr) truth {
	if l, ok := unwrap(left).(*sqlast.ColumnRef); ok {
		if r, ok := unwrap(right).(*sqlast.ColumnRef); ok && *l == *r {
			switch op {
			case sqlast.TokEq, sqlast.TokLtEq, sqlast.TokGtEq:
				return alwaysTrue
			default:
				return alwaysFalse
			}
		}
		return unknown
	}

	if lv, ok := numeric(left); ok {
		if rv, ok := numeric(right); ok {
			return truthOf(compareOrdered(op, lv, rv))
		}
		return unknown
	}

	ll, lok := unwrap(left).(*sqlast.Literal)
	rl, rok := unwrap(right).(*sqlast.Literal)
	if !lok || !rok || ll.Type != rl.Type {
		return unknown
	}
	switch ll.Type {
	case sqlast.LiteralString:
		return truthOf(compareOrdered(op, ll.Value, rl.Value))
	case sqlast.LiteralBool:
		switch op {
		case sqlast.TokEq:
			return truthOf(ll.Value == rl.Value)
		case sqlast.TokNotEq:
			return truthOf(ll.Value != rl.Value)
		}
	}
	return unknown
}

func foldIn(expr *sqlast.InExpr) truth {
	if expr.Query != nil {
		return unknown
	}
	v, ok := numeric(expr.Expr)
	if !ok {
		return unknown
	}
	for _, candidate := range expr.Values {
		c, ok := numeric(candidate)
		if !ok {
			return unknown
		}
		if c == v {
			return truthOf(!expr.Not)
		}
	}
	return truthOf(expr.Not)
}

func compareOrdered[T float64 | string](op sqlast.TokenType, l, r T) bool {
	switch op {
	case sqlast.TokEq:
		return l == r
	case sqlast.TokNotEq:
		return l != r
	case sqlast.TokLt:
		return l < r
	case sqlast.TokGt:
		return l > r
	case sqlast.TokLtEq:
		return l <= r
	case sqlast.TokGtEq:
		return l >= r
	}
	return false
}

// numeric evaluates constant arithmetic over number literals.
func numeric(e sqlast.Expr) (float64, bool) {
	switch expr := e.(type) {
	case *sqlast.Literal:
		if expr.Type != sqlast.LiteralNumber {
			return 0, false
		}
		v, err := strconv.ParseFloat(expr.Value, 64)
		return v, err == nil
	case *sqlast.ParenExpr:
		return numeric(expr.Expr)
	case *sqlast.UnaryExpr:
		v, ok := numeric(expr.Expr)
		if !ok {
			return 0, false
		}
		switch expr.Op {
		case sqlast.TokMinus:
			return -v, true
		case sqlast.TokPlus:
			return v, true
		}
	case *sqlast.BinaryExpr:
		l, ok := numeric(expr.Left)
		if !ok {
			return 0, false
		}
		r, ok := numeric(expr.Right)
		if !ok {
			return 0, false
		}
		switch expr.Op {
		case sqlast.TokPlus:
			return l + r, true
		case sqlast.TokMinus:
			return l - r, true
		case sqlast.TokStar:
			return l * r, true
		}
	}
	return 0, false
}

func unwrap(e sqlast.Expr) sqlast.Expr {
	for {
		p, ok := e.(*sqlast.ParenExpr)
		if !ok {
			return e
		}
		e = p.Expr
	}
}
