package sqlast

import "strings"

func (p *printer) expr(e Expr) {
	switch n := e.(type) {
	case nil:
	case *Literal:
		p.literal(n)
	case *ColumnRef:
		p.qualified(n.Table, n.Column)
	case *ParamExpr:
		p.param(n)
	case *DefaultExpr:
		p.put("DEFAULT")
	case *ValueFunc:
		p.put(n.Name)
	case *StarExpr:
		if n.Table != "" {
			p.ident(n.Table)
			p.put(".")
		}
		p.put("*")
	case *ParenExpr:
		p.put("(")
		p.expr(n.Expr)
		p.put(")")
	case *BinaryExpr:
		p.expr(n.Left)
		p.put(" ", operatorString(n.Op), " ")
		p.expr(n.Right)
	case *UnaryExpr:
		p.put(unaryPrefix(n.Op))
		p.expr(n.Expr)
	case *FuncCall:
		p.call(n)
	case *CaseExpr:
		p.caseExpr(n)
	case *CastExpr:
		p.cast(n)
	case *InExpr:
		p.expr(n.Expr)
		p.flag(n.Not, " NOT")
		p.put(" IN (")
		if n.Query != nil {
			p.query(n.Query)
		} else {
			p.exprs(n.Values)
		}
		p.put(")")
	case *BetweenExpr:
		p.expr(n.Expr)
		p.flag(n.Not, " NOT")
		p.clause(" BETWEEN ", n.Low)
		p.clause(" AND ", n.High)
	case *IsNullExpr:
		p.expr(n.Expr)
		p.put(" IS ")
		p.flag(n.Not, "NOT ")
		p.put("NULL")
	case *IsBoolExpr:
		p.expr(n.Expr)
		p.put(" IS ")
		p.flag(n.Not, "NOT ")
		if n.Value {
			p.put("TRUE")
		} else {
			p.put("FALSE")
		}
	case *LikeExpr:
		p.like(n)
	case *ExistsExpr:
		p.flag(n.Not, "NOT ")
		p.put("EXISTS ")
		p.subquery(n.Select)
	case *SubqueryExpr:
		p.subquery(n.Select)
	}
}

func (p *printer) subquery(s *SelectStmt) {
	p.put("(")
	p.query(s)
	p.put(")")
}

func (p *printer) literal(lit *Literal) {
	switch lit.Type {
	case LiteralString:
		p.put("'", strings.ReplaceAll(lit.Value, "'", "''"), "'")
	case LiteralBool:
		p.put(strings.ToUpper(lit.Value))
	case LiteralNull:
		p.put("NULL")
	default:
		p.put(lit.Value)
	}
}

// operatorString returns the SQL spelling of a binary or unary operator token.
func operatorString(op TokenType) string {
	if op == TokNotEq {
		return "<>"
	}
	if name, ok := tokenNames[op]; ok {
		return name
	}
	return "?"
}

func unaryPrefix(op TokenType) string {
	switch op {
	case TokNot:
		return "NOT "
	case TokMinus:
		return "-"
	case TokPlus:
		return "+"
	}
	return operatorString(op)
}

// call writes a function call. Function names keep their original case and
// are never quoted.
func (p *printer) call(fn *FuncCall) {
	p.put(fn.Name, "(")
	p.flag(fn.Distinct, "DISTINCT ")
	if fn.Star {
		p.put("*")
	} else {
		p.exprs(fn.Args)
	}
	p.put(")")
}

func (p *printer) caseExpr(c *CaseExpr) {
	p.put("CASE")
	p.clause(" ", c.Operand)
	for _, w := range c.Whens {
		p.clause(" WHEN ", w.Condition)
		p.clause(" THEN ", w.Result)
	}
	p.clause(" ELSE ", c.Else)
	p.put(" END")
}

func (p *printer) cast(c *CastExpr) {
	if c.Postfix {
		p.expr(c.Expr)
		p.put("::", c.TypeName)
		return
	}
	p.put("CAST(")
	p.expr(c.Expr)
	p.put(" AS ", c.TypeName, ")")
}

func (p *printer) like(l *LikeExpr) {
	p.expr(l.Expr)
	p.flag(l.Not, " NOT")
	op := " LIKE "
	if l.ILike {
		op = " ILIKE "
	}
	p.clause(op, l.Pattern)
	p.clause(" ESCAPE ", l.Escape)
}

func (p *printer) orderItem(item OrderByItem) {
	p.expr(item.Expr)
	p.flag(item.Desc, " DESC")
	if nf := item.NullsFirst; nf != nil {
		if *nf {
			p.put(" NULLS FIRST")
		} else {
			p.put(" NULLS LAST")
		}
	}
}
