package sqlast

func (p *Parser) insertStmt() *InsertStmt {
	p.want(TokInsert)
	p.want(TokInto)
	s := &InsertStmt{Table: p.tableName()}
	s.Columns = p.optionalNameList()

	switch {
	case p.accept(TokValues):
		for {
			p.want(TokLParen)
			row := p.exprList()
			p.want(TokRParen)
			if len(s.Columns) > 0 && len(row) != len(s.Columns) {
				p.fail("VALUES row does not match column list")
			}
			s.Values = append(s.Values, row)
			if !p.accept(TokComma) {
				break
			}
		}
	case p.startsQuery():
		s.Query = p.selectStmt()
	default:
		p.fail("expected VALUES or SELECT in INSERT")
	}

	if p.is(TokOn) && p.lookahead(1).Type == TokConflict {
		p.pos += 2
		s.OnConflict = p.onConflict()
	}
	s.Returning = p.returning()
	return s
}

// onConflict parses the clause after ON CONFLICT.
func (p *Parser) onConflict() *OnConflictClause {
	oc := &OnConflictClause{Columns: p.optionalNameList()}
	p.want(TokDo)
	if p.accept(TokNothing) {
		oc.DoNothing = true
		return oc
	}
	if p.want(TokUpdate) {
		p.want(TokSet)
		oc.DoUpdate = p.assignments()
		oc.Where = p.optionalExpr(TokWhere)
	}
	return oc
}

func (p *Parser) updateStmt() *UpdateStmt {
	p.want(TokUpdate)
	s := &UpdateStmt{Table: p.tableName()}
	p.want(TokSet)
	s.Sets = p.assignments()
	if p.accept(TokFrom) {
		s.From = p.fromClause()
	}
	s.Where = p.optionalExpr(TokWhere)
	s.Returning = p.returning()
	return s
}

func (p *Parser) deleteStmt() *DeleteStmt {
	p.want(TokDelete)
	p.want(TokFrom)
	s := &DeleteStmt{Table: p.tableName()}
	if p.accept(TokUsing) {
		s.Using = p.fromClause()
	}
	s.Where = p.optionalExpr(TokWhere)
	s.Returning = p.returning()
	return s
}

// assignments parses col = expr, ... A qualified target keeps only the
// column name.
func (p *Parser) assignments() []SetClause {
	var sets []SetClause
	for {
		col := p.name("column name in SET")
		if p.accept(TokDot) {
			col = p.name("column name in SET")
		}
		p.want(TokEq)
		sets = append(sets, SetClause{Column: col, Value: p.expression()})
		if !p.accept(TokComma) {
			return sets
		}
	}
}

func (p *Parser) returning() []SelectItem {
	if !p.accept(TokReturning) {
		return nil
	}
	return p.selectList()
}
