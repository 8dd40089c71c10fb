package sqlast

import (
	"strconv"
	"strings"
)

// Format renders stmt as a single-line SQL string with every identifier
// double-quoted.
func Format(stmt Stmt) string {
	sql, _ := Render(stmt)
	return sql
}

// Render formats stmt and reports which bound arguments the output consumes.
// args[i] of the returned order is the index of the original argument that
// must be bound at the i-th placeholder position. `$n` placeholders are
// renumbered densely in order of first appearance, so clauses dropped during
// rewriting never leave gaps.
func Render(stmt Stmt) (string, []int) {
	p := newPrinter()
	p.stmt(stmt)
	return p.String(), p.order
}

// FormatExpr renders a single expression.
func FormatExpr(expr Expr) string {
	p := newPrinter()
	p.expr(expr)
	return p.String()
}

type printer struct {
	sb    strings.Builder
	order []int
	// renumbered maps an original argument index to the $n it was emitted as.
	renumbered map[int]int
}

func newPrinter() *printer {
	return &printer{renumbered: map[int]int{}}
}

func (p *printer) String() string {
	return strings.TrimSpace(p.sb.String())
}

// put appends each fragment verbatim.
func (p *printer) put(parts ...string) {
	for _, s := range parts {
		p.sb.WriteString(s)
	}
}

func (p *printer) ident(name string) {
	p.put(quoteIdent(name))
}

// qualified writes "prefix"."name", dropping the prefix when empty.
func (p *printer) qualified(prefix, name string) {
	if prefix != "" {
		p.ident(prefix)
		p.put(".")
	}
	p.ident(name)
}

func (p *printer) alias(name string) {
	if name != "" {
		p.put(" AS ")
		p.ident(name)
	}
}

// clause writes keyword followed by e, or nothing when e is nil.
func (p *printer) clause(keyword string, e Expr) {
	if e == nil {
		return
	}
	p.put(keyword)
	p.expr(e)
}

// flag writes s only when on is set.
func (p *printer) flag(on bool, s string) {
	if on {
		p.put(s)
	}
}

// quoteIdent double-quotes an identifier, doubling embedded quotes.
func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// each renders items separated by ", ".
func each[T any](p *printer, items []T, render func(T)) {
	for i, it := range items {
		if i > 0 {
			p.put(", ")
		}
		render(it)
	}
}

func (p *printer) exprs(list []Expr) {
	each(p, list, p.expr)
}

// idents writes a parenthesized identifier list with a leading space.
func (p *printer) idents(names []string) {
	if len(names) == 0 {
		return
	}
	p.put(" (")
	each(p, names, p.ident)
	p.put(")")
}

func (p *printer) param(ph *ParamExpr) {
	if ph.Style == ParamQuestion {
		p.order = append(p.order, ph.Index)
		p.put("?")
		return
	}
	n, seen := p.renumbered[ph.Index]
	if !seen {
		p.order = append(p.order, ph.Index)
		n = len(p.order)
		p.renumbered[ph.Index] = n
	}
	p.put("$", strconv.Itoa(n))
}
