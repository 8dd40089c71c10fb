package sqlast

func (p *Parser) primary() Expr {
	tok := p.cur()
	switch tok.Type {
	case TokNumber, TokString, TokTrue, TokFalse, TokNull:
		p.advance()
		return literalFor(tok)
	case TokQMark, TokDollar:
		return p.param()
	case TokDefault:
		p.advance()
		return &DefaultExpr{}
	case TokCurrentDate, TokCurrentTime, TokCurrentTimestamp:
		// CURRENT_TIMESTAMP(3) falls through to the call form below.
		if p.lookahead(1).Type != TokLParen {
			p.advance()
			return &ValueFunc{Name: tok.Type.String()}
		}
	case TokStar:
		p.advance()
		return &StarExpr{}
	case TokCase:
		return p.caseExpr()
	case TokCast:
		return p.castExpr()
	case TokExists:
		return p.exists(false)
	case TokLParen:
		return p.parenthesized()
	case TokEOF:
		p.fail("unexpected end of input in expression")
		return nil
	}

	// LEFT, RIGHT and similar keywords double as function names.
	if nameable(tok.Type) || (isKeywordType(tok.Type) && p.lookahead(1).Type == TokLParen) {
		p.advance()
		return p.reference(tok.Literal)
	}
	p.fail("unexpected token in expression: %s (%q)", tok.Type, tok.Literal)
	p.advance()
	return nil
}

func literalFor(tok Token) *Literal {
	switch tok.Type {
	case TokString:
		return &Literal{Type: LiteralString, Value: tok.Literal}
	case TokTrue:
		return &Literal{Type: LiteralBool, Value: "true"}
	case TokFalse:
		return &Literal{Type: LiteralBool, Value: "false"}
	case TokNull:
		return &Literal{Type: LiteralNull, Value: "NULL"}
	}
	return &Literal{Type: LiteralNumber, Value: tok.Literal}
}

// reference parses what follows a leading name: a call, a dotted path or a
// bare column. For schema.table.column only the table qualifier is kept.
func (p *Parser) reference(first string) Expr {
	path := []string{first}
	for p.accept(TokDot) {
		if p.accept(TokStar) {
			return &StarExpr{Table: path[len(path)-1]}
		}
		if !nameable(p.cur().Type) {
			p.fail("expected identifier after '.'")
			return nil
		}
		path = append(path, p.cur().Literal)
		p.advance()
	}

	if p.is(TokLParen) {
		switch len(path) {
		case 1:
			return p.call(first)
		case 2:
			return p.call(path[0] + "." + path[1])
		}
	}

	n := len(path)
	ref := &ColumnRef{Column: path[n-1]}
	if n > 1 {
		ref.Table = path[n-2]
	}
	return ref
}

// call parses name(...), name(*) or name(DISTINCT ...).
func (p *Parser) call(name string) Expr {
	fn := &FuncCall{Name: name}
	p.want(TokLParen)
	switch {
	case p.accept(TokStar):
		fn.Star = true
	case !p.is(TokRParen):
		fn.Distinct = p.accept(TokDistinct)
		fn.Args = p.exprList()
	}
	p.want(TokRParen)
	return fn
}

func (p *Parser) caseExpr() Expr {
	p.want(TokCase)
	c := &CaseExpr{}
	if !p.is(TokWhen) {
		c.Operand = p.expression()
	}
	for p.accept(TokWhen) {
		w := WhenClause{Condition: p.expression()}
		p.want(TokThen)
		w.Result = p.expression()
		c.Whens = append(c.Whens, w)
	}
	if len(c.Whens) == 0 {
		p.fail("CASE requires at least one WHEN")
	}
	if p.accept(TokElse) {
		c.Else = p.expression()
	}
	p.want(TokEnd)
	return c
}

func (p *Parser) castExpr() Expr {
	p.want(TokCast)
	p.want(TokLParen)
	c := &CastExpr{Expr: p.expression()}
	p.want(TokAs)
	c.TypeName = p.typeName()
	p.want(TokRParen)
	return c
}

// exists parses EXISTS (subquery); a preceding NOT is already consumed.
func (p *Parser) exists(not bool) Expr {
	p.want(TokExists)
	return &ExistsExpr{Not: not, Select: p.subquery()}
}

// subquery parses "(" select ")".
func (p *Parser) subquery() *SelectStmt {
	p.want(TokLParen)
	s := p.selectStmt()
	p.want(TokRParen)
	return s
}

// parenthesized parses a grouped expression or a scalar subquery.
func (p *Parser) parenthesized() Expr {
	if p.lookahead(1).Type == TokSelect || p.lookahead(1).Type == TokWith {
		return &SubqueryExpr{Select: p.subquery()}
	}
	p.want(TokLParen)
	inner := p.expression()
	p.want(TokRParen)
	return &ParenExpr{Expr: inner}
}
