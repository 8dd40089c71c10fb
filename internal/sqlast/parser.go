package sqlast

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Parser is a recursive-descent parser over a fully lexed token stream.
// Only the first syntax error is kept; parsing continues after it but the
// result is discarded.
type Parser struct {
	toks []Token
	pos  int
	err  error

	qmarks int // ? placeholders numbered so far
	styles map[ParamStyle]bool
}

// NewParser lexes sql and positions the parser on its first token.
func NewParser(sql string) *Parser {
	p := &Parser{styles: map[ParamStyle]bool{}}
	lx := NewLexer(sql)
	for {
		tok := lx.NextToken()
		p.toks = append(p.toks, tok)
		if tok.Type == TokEOF {
			break
		}
	}
	return p
}

// Parse parses exactly one statement. A trailing semicolon is accepted;
// anything after it is a multi-statement error.
func Parse(sql string) (Stmt, error) {
	if strings.TrimSpace(sql) == "" {
		return nil, errors.New("empty SQL")
	}
	p := NewParser(sql)
	stmt := p.statement()
	if p.err != nil {
		return nil, p.err
	}
	p.accept(TokSemicolon)
	if !p.is(TokEOF) {
		return nil, errors.New("multi-statement queries are not allowed")
	}
	if len(p.styles) > 1 {
		return nil, errors.New("parse error: mixed ? and $n placeholders")
	}
	return stmt, nil
}

// ParseExpr parses a standalone boolean or scalar expression, such as a
// scope predicate.
func ParseExpr(sql string) (Expr, error) {
	if strings.TrimSpace(sql) == "" {
		return nil, errors.New("empty expression")
	}
	p := NewParser(sql)
	e := p.expression()
	if p.err != nil {
		return nil, p.err
	}
	if !p.is(TokEOF) {
		return nil, fmt.Errorf("unexpected token after expression: %s", p.cur().Literal)
	}
	return e, nil
}

func (p *Parser) statement() Stmt {
	switch p.cur().Type {
	case TokSelect:
		return p.selectStmt()
	case TokWith:
		return p.withStatement()
	case TokInsert:
		return p.insertStmt()
	case TokUpdate:
		return p.updateStmt()
	case TokDelete:
		return p.deleteStmt()
	}
	p.fail("unsupported statement starting with %s", p.cur().Type)
	return nil
}

// lookahead returns the token n positions past the current one, or the
// trailing EOF token.
func (p *Parser) lookahead(n int) Token {
	if i := p.pos + n; i < len(p.toks) {
		return p.toks[i]
	}
	return p.toks[len(p.toks)-1]
}

func (p *Parser) cur() Token { return p.lookahead(0) }

func (p *Parser) advance() {
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
}

func (p *Parser) is(t TokenType) bool {
	return p.cur().Type == t
}

// accept consumes the current token when it is t.
func (p *Parser) accept(t TokenType) bool {
	if !p.is(t) {
		return false
	}
	p.advance()
	return true
}

// want consumes t or records an error.
func (p *Parser) want(t TokenType) bool {
	if p.accept(t) {
		return true
	}
	p.fail("unexpected token %s, expected %s", p.cur().Type, t)
	return false
}

// acceptPair consumes a two-keyword sequence such as ORDER BY.
func (p *Parser) acceptPair(first, second TokenType) bool {
	if !p.is(first) {
		return false
	}
	p.advance()
	p.want(second)
	return true
}

func (p *Parser) fail(format string, args ...any) {
	if p.err == nil {
		p.err = fmt.Errorf("parse error: "+format, args...)
	}
}

// startsQuery reports whether the current token opens a SELECT statement.
func (p *Parser) startsQuery() bool {
	return p.is(TokSelect) || p.is(TokWith)
}

// nameable reports whether t can name a column, table, or alias. A handful
// of keywords only matter in fixed positions and stay usable as names.
func nameable(t TokenType) bool {
	switch t {
	case TokIdent, TokFirst, TokLast, TokNulls, TokDo,
		TokNothing, TokConflict, TokEscape, TokRecursive:
		return true
	}
	return false
}

func (p *Parser) name(what string) string {
	tok := p.cur()
	if !nameable(tok.Type) {
		p.fail("expected %s, got %s", what, tok.Type)
		return ""
	}
	p.advance()
	return tok.Literal
}

// nameList parses name, name, ... after an already consumed "(" and
// consumes the closing ")".
func (p *Parser) nameList() []string {
	var names []string
	for {
		names = append(names, p.name("column name"))
		if !p.accept(TokComma) {
			break
		}
	}
	p.want(TokRParen)
	return names
}

// optionalNameList parses a parenthesized name list when one follows.
func (p *Parser) optionalNameList() []string {
	if !p.accept(TokLParen) {
		return nil
	}
	return p.nameList()
}

// alias parses `[AS] alias`. Without AS only a plain identifier counts, so
// a following clause keyword is never mistaken for an alias.
func (p *Parser) alias() string {
	tok := p.cur()
	if p.accept(TokAs) {
		tok = p.cur()
		if nameable(tok.Type) || tok.Type == TokString {
			p.advance()
			return tok.Literal
		}
		p.fail("expected alias after AS")
		return ""
	}
	if tok.Type == TokIdent {
		p.advance()
		return tok.Literal
	}
	return ""
}

// param turns the current placeholder token into a ParamExpr. `?` markers
// are numbered in source order; `$n` refers to argument n-1.
func (p *Parser) param() Expr {
	tok := p.cur()
	p.advance()
	if tok.Type == TokQMark {
		p.styles[ParamQuestion] = true
		p.qmarks++
		return &ParamExpr{Style: ParamQuestion, Index: p.qmarks - 1}
	}
	n, err := strconv.Atoi(strings.TrimPrefix(tok.Literal, "$"))
	if err != nil || n < 1 {
		p.fail("invalid placeholder %q", tok.Literal)
		return nil
	}
	p.styles[ParamDollar] = true
	return &ParamExpr{Style: ParamDollar, Index: n - 1}
}
