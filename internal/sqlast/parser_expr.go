package sqlast

import "strings"

// Binding powers, lowest first. Binary operators are left associative: the
// right operand is parsed one level tighter than the operator itself.
const (
	bpNone = iota
	bpOr
	bpAnd
	bpNot
	bpCompare // = <> < > <= >= IS IN BETWEEN LIKE
	bpAdd     // + - ||
	bpMul     // * / %
	bpUnary   // prefix - +
	bpCast    // ::
)

var infixPower = map[TokenType]int{
	TokOr:          bpOr,
	TokAnd:         bpAnd,
	TokEq:          bpCompare,
	TokNotEq:       bpCompare,
	TokLt:          bpCompare,
	TokGt:          bpCompare,
	TokLtEq:        bpCompare,
	TokGtEq:        bpCompare,
	TokIs:          bpCompare,
	TokIn:          bpCompare,
	TokBetween:     bpCompare,
	TokLike:        bpCompare,
	TokILike:       bpCompare,
	TokNot:         bpCompare,
	TokPlus:        bpAdd,
	TokMinus:       bpAdd,
	TokConcat:      bpAdd,
	TokStar:        bpMul,
	TokSlash:       bpMul,
	TokPercent:     bpMul,
	TokDoubleColon: bpCast,
}

func (p *Parser) expression() Expr {
	return p.exprAbove(bpNone)
}

// exprAbove parses an expression whose infix operators all bind tighter
// than floor.
func (p *Parser) exprAbove(floor int) Expr {
	left := p.prefix()
	for left != nil {
		power := infixPower[p.cur().Type]
		if power <= floor {
			break
		}
		left = p.infix(left, power)
	}
	return left
}

func (p *Parser) prefix() Expr {
	switch op := p.cur().Type; op {
	case TokNot:
		p.advance()
		if p.is(TokExists) {
			return p.exists(true)
		}
		return &UnaryExpr{Op: op, Expr: p.exprAbove(bpNot - 1)}
	case TokMinus, TokPlus:
		p.advance()
		return &UnaryExpr{Op: op, Expr: p.exprAbove(bpUnary - 1)}
	}
	return p.primary()
}

func (p *Parser) infix(left Expr, power int) Expr {
	op := p.cur().Type
	p.advance()
	switch op {
	case TokNot:
		return p.negatedPredicate(left)
	case TokIs:
		return p.isPredicate(left)
	case TokIn, TokBetween, TokLike, TokILike:
		return p.predicate(op, left, false)
	case TokDoubleColon:
		return &CastExpr{Expr: left, TypeName: p.typeName(), Postfix: true}
	}
	right := p.exprAbove(power)
	if right == nil {
		p.fail("missing right operand for %s", op)
		return nil
	}
	return &BinaryExpr{Left: left, Op: op, Right: right}
}

// negatedPredicate handles NOT IN, NOT BETWEEN, NOT LIKE and NOT ILIKE once
// NOT has been consumed.
func (p *Parser) negatedPredicate(left Expr) Expr {
	op := p.cur().Type
	switch op {
	case TokIn, TokBetween, TokLike, TokILike:
		p.advance()
		return p.predicate(op, left, true)
	}
	p.fail("expected IN, BETWEEN, LIKE, or ILIKE after NOT")
	return nil
}

// predicate parses the operand side of IN, BETWEEN and LIKE. The bounds and
// patterns stop at comparison level so BETWEEN's AND is not taken as a
// conjunction.
func (p *Parser) predicate(op TokenType, left Expr, not bool) Expr {
	switch op {
	case TokIn:
		in := &InExpr{Expr: left, Not: not}
		p.want(TokLParen)
		if p.startsQuery() {
			in.Query = p.selectStmt()
		} else {
			in.Values = p.exprList()
		}
		p.want(TokRParen)
		return in
	case TokBetween:
		b := &BetweenExpr{Expr: left, Not: not, Low: p.exprAbove(bpCompare)}
		p.want(TokAnd)
		b.High = p.exprAbove(bpCompare)
		return b
	default:
		like := &LikeExpr{Expr: left, Not: not, ILike: op == TokILike}
		like.Pattern = p.exprAbove(bpCompare)
		if p.accept(TokEscape) {
			like.Escape = p.exprAbove(bpCompare)
		}
		return like
	}
}

// isPredicate parses the tail of IS [NOT] NULL|TRUE|FALSE.
func (p *Parser) isPredicate(left Expr) Expr {
	not := p.accept(TokNot)
	tok := p.cur().Type
	switch tok {
	case TokNull:
		p.advance()
		return &IsNullExpr{Expr: left, Not: not}
	case TokTrue, TokFalse:
		p.advance()
		return &IsBoolExpr{Expr: left, Not: not, Value: tok == TokTrue}
	}
	p.fail("expected NULL, TRUE, or FALSE after IS")
	return nil
}

// exprList parses a comma-separated expression list, dropping operands that
// failed to parse.
func (p *Parser) exprList() []Expr {
	var out []Expr
	for {
		if e := p.expression(); e != nil {
			out = append(out, e)
		}
		if !p.accept(TokComma) {
			return out
		}
	}
}

// typeName parses a cast target such as INT, VARCHAR(255), NUMERIC(10, 2)
// or DOUBLE PRECISION. The result is upper-cased.
func (p *Parser) typeName() string {
	if !p.is(TokIdent) {
		p.fail("expected type name")
		return ""
	}
	words := []string{strings.ToUpper(p.cur().Literal)}
	p.advance()
	for p.is(TokIdent) {
		w := strings.ToUpper(p.cur().Literal)
		if w != "PRECISION" && w != "VARYING" {
			break
		}
		words = append(words, w)
		p.advance()
	}
	typ := strings.Join(words, " ")

	if p.accept(TokLParen) {
		var mods []string
		for p.is(TokNumber) {
			mods = append(mods, p.cur().Literal)
			p.advance()
			if !p.accept(TokComma) {
				break
			}
		}
		p.want(TokRParen)
		typ += "(" + strings.Join(mods, ", ") + ")"
	}
	return typ
}
