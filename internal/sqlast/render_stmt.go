package sqlast

func (p *printer) stmt(s Stmt) {
	switch n := s.(type) {
	case *SelectStmt:
		p.query(n)
	case *InsertStmt:
		p.insert(n)
	case *UpdateStmt:
		p.update(n)
	case *DeleteStmt:
		p.delete(n)
	}
}

func (p *printer) query(s *SelectStmt) {
	if s == nil {
		return
	}
	p.with(s.With)
	for body := s.Body; body != nil; body = body.Right {
		p.core(body.Left)
		if body.Op == SetOpNone {
			break
		}
		p.put(" ", string(body.Op))
		p.flag(body.All, " ALL")
		p.put(" ")
	}
}

func (p *printer) with(w *WithClause) {
	if w == nil {
		return
	}
	p.put("WITH ")
	p.flag(w.Recursive, "RECURSIVE ")
	each(p, w.CTEs, func(cte *CTE) {
		p.ident(cte.Name)
		p.idents(cte.Columns)
		p.put(" AS ")
		p.subquery(cte.Select)
	})
	p.put(" ")
}

func (p *printer) core(c *SelectCore) {
	if c == nil {
		return
	}
	p.put("SELECT ")
	p.flag(c.Distinct, "DISTINCT ")
	each(p, c.Columns, p.selectItem)
	if c.From != nil {
		p.put(" FROM ")
		p.from(c.From)
	}
	p.clause(" WHERE ", c.Where)
	if len(c.GroupBy) > 0 {
		p.put(" GROUP BY ")
		p.exprs(c.GroupBy)
	}
	p.clause(" HAVING ", c.Having)
	if len(c.OrderBy) > 0 {
		p.put(" ORDER BY ")
		each(p, c.OrderBy, p.orderItem)
	}
	p.clause(" LIMIT ", c.Limit)
	p.clause(" OFFSET ", c.Offset)
}

func (p *printer) selectItem(item SelectItem) {
	switch {
	case item.Star:
		p.put("*")
	case item.TableStar != "":
		p.ident(item.TableStar)
		p.put(".*")
	default:
		p.expr(item.Expr)
		p.alias(item.Alias)
	}
}

func (p *printer) from(f *FromClause) {
	if f == nil {
		return
	}
	p.tableRef(f.Source)
	for _, j := range f.Joins {
		p.join(j)
	}
}

func (p *printer) tableRef(ref TableRef) {
	switch t := ref.(type) {
	case *TableName:
		p.table(t)
	case *DerivedTable:
		p.subquery(t.Select)
		p.alias(t.Alias)
	}
}

func (p *printer) table(t *TableName) {
	p.qualified(t.Schema, t.Name)
	p.alias(t.Alias)
}

func (p *printer) join(j *Join) {
	if j == nil {
		return
	}
	if j.Type == JoinComma {
		p.put(", ")
		p.tableRef(j.Right)
		return
	}
	p.put(" ")
	p.flag(j.Natural, "NATURAL ")
	if j.Type != JoinInner {
		p.put(string(j.Type), " ")
	}
	p.put("JOIN ")
	p.tableRef(j.Right)
	p.clause(" ON ", j.Condition)
	if len(j.Using) > 0 {
		p.put(" USING")
		p.idents(j.Using)
	}
}

func (p *printer) insert(s *InsertStmt) {
	p.with(s.With)
	p.put("INSERT INTO ")
	p.table(s.Table)
	p.idents(s.Columns)
	switch {
	case s.Query != nil:
		p.put(" ")
		p.query(s.Query)
	case len(s.Values) > 0:
		p.put(" VALUES ")
		each(p, s.Values, func(row []Expr) {
			p.put("(")
			p.exprs(row)
			p.put(")")
		})
	}
	if oc := s.OnConflict; oc != nil {
		p.put(" ON CONFLICT")
		p.idents(oc.Columns)
		if oc.DoNothing {
			p.put(" DO NOTHING")
		} else {
			p.put(" DO UPDATE SET ")
			p.assignments(oc.DoUpdate)
			p.clause(" WHERE ", oc.Where)
		}
	}
	p.returning(s.Returning)
}

func (p *printer) update(s *UpdateStmt) {
	p.with(s.With)
	p.put("UPDATE ")
	p.table(s.Table)
	p.put(" SET ")
	p.assignments(s.Sets)
	if s.From != nil {
		p.put(" FROM ")
		p.from(s.From)
	}
	p.clause(" WHERE ", s.Where)
	p.returning(s.Returning)
}

func (p *printer) delete(s *DeleteStmt) {
	p.with(s.With)
	p.put("DELETE FROM ")
	p.table(s.Table)
	if s.Using != nil {
		p.put(" USING ")
		p.from(s.Using)
	}
	p.clause(" WHERE ", s.Where)
	p.returning(s.Returning)
}

func (p *printer) assignments(sets []SetClause) {
	each(p, sets, func(sc SetClause) {
		p.ident(sc.Column)
		p.put(" = ")
		p.expr(sc.Value)
	})
}

func (p *printer) returning(items []SelectItem) {
	if len(items) == 0 {
		return
	}
	p.put(" RETURNING ")
	each(p, items, p.selectItem)
}
