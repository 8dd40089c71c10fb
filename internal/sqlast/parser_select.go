package sqlast

func (p *Parser) selectStmt() *SelectStmt {
	s := &SelectStmt{}
	if p.is(TokWith) {
		s.With = p.withClause()
	}
	s.Body = p.selectBody()
	return s
}

// withStatement parses a top-level statement led by WITH. Besides a query,
// the CTEs may feed an INSERT, UPDATE or DELETE, which keeps its own kind so
// the mutation guard still sees it.
func (p *Parser) withStatement() Stmt {
	w := p.withClause()
	switch p.cur().Type {
	case TokInsert:
		s := p.insertStmt()
		s.With = w
		return s
	case TokUpdate:
		s := p.updateStmt()
		s.With = w
		return s
	case TokDelete:
		s := p.deleteStmt()
		s.With = w
		return s
	}
	return &SelectStmt{With: w, Body: p.selectBody()}
}

func (p *Parser) withClause() *WithClause {
	p.want(TokWith)
	w := &WithClause{Recursive: p.accept(TokRecursive)}
	for {
		w.CTEs = append(w.CTEs, p.cte())
		if !p.accept(TokComma) {
			return w
		}
	}
}

func (p *Parser) cte() *CTE {
	c := &CTE{Name: p.name("CTE name")}
	c.Columns = p.optionalNameList()
	p.want(TokAs)
	c.Select = p.subquery()
	return c
}

var setOps = map[TokenType]SetOpType{
	TokUnion:     SetOpUnion,
	TokIntersect: SetOpIntersect,
	TokExcept:    SetOpExcept,
}

// selectBody parses a core and any set operations chained after it. An
// explicit DISTINCT after the operator is the default and is dropped.
func (p *Parser) selectBody() *SelectBody {
	body := &SelectBody{Left: p.selectCore()}
	op, ok := setOps[p.cur().Type]
	if !ok {
		return body
	}
	p.advance()
	body.Op = op
	body.All = p.accept(TokAll)
	if !body.All {
		p.accept(TokDistinct)
	}
	body.Right = p.selectBody()
	return body
}

func (p *Parser) selectCore() *SelectCore {
	p.want(TokSelect)
	c := &SelectCore{Distinct: p.accept(TokDistinct)}
	if !c.Distinct {
		p.accept(TokAll)
	}
	c.Columns = p.selectList()
	if p.accept(TokFrom) {
		c.From = p.fromClause()
	}
	c.Where = p.optionalExpr(TokWhere)
	if p.acceptPair(TokGroup, TokBy) {
		c.GroupBy = p.exprList()
	}
	c.Having = p.optionalExpr(TokHaving)
	if p.acceptPair(TokOrder, TokBy) {
		c.OrderBy = p.orderList()
	}
	if p.accept(TokLimit) {
		c.Limit = p.expression()
		// LIMIT offset, count
		if p.accept(TokComma) {
			c.Offset, c.Limit = c.Limit, p.expression()
		}
	}
	if p.accept(TokOffset) {
		c.Offset = p.expression()
	}
	return c
}

// optionalExpr parses an expression introduced by keyword, if present.
func (p *Parser) optionalExpr(keyword TokenType) Expr {
	if !p.accept(keyword) {
		return nil
	}
	return p.expression()
}

func (p *Parser) selectList() []SelectItem {
	var items []SelectItem
	for {
		items = append(items, p.selectItem())
		if !p.accept(TokComma) {
			return items
		}
	}
}

func (p *Parser) selectItem() SelectItem {
	if p.accept(TokStar) {
		return SelectItem{Star: true}
	}
	if tok := p.cur(); nameable(tok.Type) &&
		p.lookahead(1).Type == TokDot && p.lookahead(2).Type == TokStar {
		p.pos += 3
		return SelectItem{TableStar: tok.Literal}
	}
	item := SelectItem{Expr: p.expression()}
	if item.Expr == nil {
		p.fail("expected select item")
	}
	item.Alias = p.alias()
	return item
}

func (p *Parser) orderList() []OrderByItem {
	var items []OrderByItem
	for {
		item := OrderByItem{Expr: p.expression()}
		if !p.accept(TokAsc) {
			item.Desc = p.accept(TokDesc)
		}
		if p.accept(TokNulls) {
			switch {
			case p.accept(TokFirst):
				first := true
				item.NullsFirst = &first
			case p.accept(TokLast):
				first := false
				item.NullsFirst = &first
			default:
				p.fail("expected FIRST or LAST after NULLS")
			}
		}
		items = append(items, item)
		if !p.accept(TokComma) {
			return items
		}
	}
}

func (p *Parser) fromClause() *FromClause {
	f := &FromClause{Source: p.tableRef()}
	for {
		j := p.join()
		if j == nil {
			return f
		}
		f.Joins = append(f.Joins, j)
	}
}

func (p *Parser) tableRef() TableRef {
	if p.is(TokLParen) {
		d := &DerivedTable{Select: p.subquery()}
		d.Alias = p.alias()
		return d
	}
	if !nameable(p.cur().Type) {
		p.fail("expected table name, got %s", p.cur().Type)
		return &TableName{}
	}
	return p.tableName()
}

// tableName parses [schema.]name [[AS] alias].
func (p *Parser) tableName() *TableName {
	t := &TableName{Name: p.name("table name")}
	if p.accept(TokDot) {
		t.Schema, t.Name = t.Name, p.name("table name")
	}
	t.Alias = p.alias()
	return t
}

var joinKinds = map[TokenType]JoinType{
	TokInner: JoinInner,
	TokLeft:  JoinLeft,
	TokRight: JoinRight,
	TokFull:  JoinFull,
	TokCross: JoinCross,
}

// join parses the next join in a FROM list, or returns nil when none follows.
func (p *Parser) join() *Join {
	if p.accept(TokComma) {
		return &Join{Type: JoinComma, Right: p.tableRef()}
	}

	j := &Join{Natural: p.accept(TokNatural), Type: JoinInner}
	if kind, ok := joinKinds[p.cur().Type]; ok {
		p.advance()
		j.Type = kind
		if kind == JoinLeft || kind == JoinRight || kind == JoinFull {
			p.accept(TokOuter)
		}
	} else if !j.Natural && !p.is(TokJoin) {
		return nil
	}
	if !p.want(TokJoin) {
		return nil
	}

	j.Right = p.tableRef()
	if j.Natural || j.Type == JoinCross {
		return j
	}
	if p.accept(TokOn) {
		j.Condition = p.expression()
	} else if p.accept(TokUsing) {
		p.want(TokLParen)
		j.Using = p.nameList()
	}
	return j
}
