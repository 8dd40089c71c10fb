package sqlast

import "strings"

// StmtType is the coarse kind of a statement.
type StmtType int

// Statement kinds. StmtTypeOther covers everything the guard does not
// rewrite.
const (
	StmtTypeSelect StmtType = iota
	StmtTypeInsert
	StmtTypeUpdate
	StmtTypeDelete
	StmtTypeOther
)

var leadingKinds = map[TokenType]StmtType{
	TokSelect: StmtTypeSelect,
	TokWith:   StmtTypeSelect,
	TokInsert: StmtTypeInsert,
	TokUpdate: StmtTypeUpdate,
	TokDelete: StmtTypeDelete,
}

// Classify returns the kind of a parsed statement.
func Classify(stmt Stmt) StmtType {
	switch stmt.(type) {
	case *SelectStmt:
		return StmtTypeSelect
	case *InsertStmt:
		return StmtTypeInsert
	case *UpdateStmt:
		return StmtTypeUpdate
	case *DeleteStmt:
		return StmtTypeDelete
	}
	return StmtTypeOther
}

// ClassifyKeyword maps the leading token of a statement to its kind.
func ClassifyKeyword(tok TokenType) StmtType {
	if k, ok := leadingKinds[tok]; ok {
		return k
	}
	return StmtTypeOther
}

// ClassifyText classifies text the parser rejected, and counts the
// statements in it.
//
// The leading keyword is only a starting point: an INSERT, UPDATE or DELETE
// anywhere in the first statement, a data-modifying CTE included, decides
// the kind, with UPDATE and DELETE ranking above INSERT. A leading TRUNCATE
// counts as DELETE. Every non-empty piece between semicolons is a
// statement, whatever the nesting, since a driver may run each of them.
func ClassifyText(sql string) (kind StmtType, statements int) {
	kind = StmtTypeOther
	var (
		prev    Token
		inPiece bool
		leading = true
	)
	l := NewLexer(sql)
	for tok := l.NextToken(); tok.Type != TokEOF; prev, tok = tok, l.NextToken() {
		if tok.Type == TokSemicolon {
			inPiece = false
			continue
		}
		if !inPiece {
			inPiece = true
			statements++
		}
		if statements > 1 || tok.Type == TokLParen {
			continue
		}

		if leading {
			leading = false
			kind = ClassifyKeyword(tok.Type)
			if isWord(tok, "TRUNCATE") {
				kind = StmtTypeDelete
			}
			continue
		}
		switch w := writeKind(prev, tok); {
		case w == StmtTypeOther, kind == StmtTypeUpdate, kind == StmtTypeDelete:
		default:
			kind = w
		}
	}
	return kind, statements
}

// writeKind reports the kind of write tok starts, or StmtTypeOther. UPDATE
// and DELETE after FOR, KEY, DO or ON belong to a locking, upsert or
// foreign-key clause and start nothing.
func writeKind(prev, tok Token) StmtType {
	switch tok.Type {
	case TokInsert:
		return StmtTypeInsert
	case TokUpdate, TokDelete:
		if prev.Type == TokDo || prev.Type == TokOn || isWord(prev, "FOR") || isWord(prev, "KEY") {
			return StmtTypeOther
		}
		if tok.Type == TokUpdate {
			return StmtTypeUpdate
		}
		return StmtTypeDelete
	case TokInto:
		if isWord(prev, "REPLACE") {
			return StmtTypeInsert
		}
	}
	return StmtTypeOther
}

func isWord(tok Token, word string) bool {
	return tok.Type == TokIdent && !tok.Quoted && strings.EqualFold(tok.Literal, word)
}

// TargetTable returns the table written by an INSERT, UPDATE or DELETE, and
// nil for anything else.
func TargetTable(stmt Stmt) *TableName {
	switch s := stmt.(type) {
	case *InsertStmt:
		return s.Table
	case *UpdateStmt:
		return s.Table
	case *DeleteStmt:
		return s.Table
	}
	return nil
}

// children splits the direct operands of e into nested expressions and
// nested queries, both in source order.
func children(e Expr) ([]Expr, []*SelectStmt) {
	switch n := e.(type) {
	case *BinaryExpr:
		return []Expr{n.Left, n.Right}, nil
	case *UnaryExpr:
		return []Expr{n.Expr}, nil
	case *ParenExpr:
		return []Expr{n.Expr}, nil
	case *CastExpr:
		return []Expr{n.Expr}, nil
	case *IsNullExpr:
		return []Expr{n.Expr}, nil
	case *IsBoolExpr:
		return []Expr{n.Expr}, nil
	case *FuncCall:
		return n.Args, nil
	case *BetweenExpr:
		return []Expr{n.Expr, n.Low, n.High}, nil
	case *LikeExpr:
		return []Expr{n.Expr, n.Pattern, n.Escape}, nil
	case *CaseExpr:
		kids := []Expr{n.Operand}
		for _, w := range n.Whens {
			kids = append(kids, w.Condition, w.Result)
		}
		return append(kids, n.Else), nil
	case *InExpr:
		kids := append([]Expr{n.Expr}, n.Values...)
		if n.Query != nil {
			return kids, []*SelectStmt{n.Query}
		}
		return kids, nil
	case *ExistsExpr:
		return nil, []*SelectStmt{n.Select}
	case *SubqueryExpr:
		return nil, []*SelectStmt{n.Select}
	}
	return nil, nil
}

// Inspect walks an expression depth-first, calling fn for every node. When
// fn returns false the node's operands are skipped. Nested queries are
// entered and their expressions visited too.
func Inspect(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	kids, queries := children(e)
	for _, k := range kids {
		Inspect(k, fn)
	}
	for _, q := range queries {
		inspectQuery(q, fn)
	}
}

func inspectQuery(s *SelectStmt, fn func(Expr) bool) {
	if s == nil {
		return
	}
	if s.With != nil {
		for _, cte := range s.With.CTEs {
			inspectQuery(cte.Select, fn)
		}
	}
	for body := s.Body; body != nil; body = body.Right {
		c := body.Left
		if c == nil {
			continue
		}
		for _, e := range coreExprs(c) {
			Inspect(e, fn)
		}
		for _, d := range derivedQueries(c.From) {
			inspectQuery(d, fn)
		}
	}
}

// coreExprs lists every expression slot of a SELECT core, including join
// conditions.
func coreExprs(c *SelectCore) []Expr {
	var out []Expr
	for _, col := range c.Columns {
		out = append(out, col.Expr)
	}
	if c.From != nil {
		for _, j := range c.From.Joins {
			out = append(out, j.Condition)
		}
	}
	out = append(out, c.Where)
	out = append(out, c.GroupBy...)
	out = append(out, c.Having)
	for _, o := range c.OrderBy {
		out = append(out, o.Expr)
	}
	return append(out, c.Limit, c.Offset)
}

func fromRefs(f *FromClause) []TableRef {
	if f == nil {
		return nil
	}
	refs := []TableRef{f.Source}
	for _, j := range f.Joins {
		refs = append(refs, j.Right)
	}
	return refs
}

func derivedQueries(f *FromClause) []*SelectStmt {
	var out []*SelectStmt
	for _, ref := range fromRefs(f) {
		if d, ok := ref.(*DerivedTable); ok {
			out = append(out, d.Select)
		}
	}
	return out
}

// ContainsParam reports whether e references a bind placeholder anywhere,
// nested queries included.
func ContainsParam(e Expr) bool {
	found := false
	Inspect(e, func(n Expr) bool {
		if _, ok := n.(*ParamExpr); ok {
			found = true
		}
		return !found
	})
	return found
}

// CollectTableNames lists the distinct base tables a statement touches, in
// first-seen order: the write target, FROM and JOIN sources, then tables
// inside subqueries and CTE bodies. CTE names themselves are not tables.
func CollectTableNames(stmt Stmt) []string {
	tc := &tableCollector{seen: map[string]bool{}, ctes: map[string]bool{}}
	tc.add(TargetTable(stmt))
	switch s := stmt.(type) {
	case *SelectStmt:
		tc.query(s)
	case *InsertStmt:
		tc.with(s.With)
		tc.query(s.Query)
		for _, row := range s.Values {
			tc.exprs(row...)
		}
	case *UpdateStmt:
		tc.with(s.With)
		tc.from(s.From)
		for _, set := range s.Sets {
			tc.exprs(set.Value)
		}
		tc.exprs(s.Where)
	case *DeleteStmt:
		tc.with(s.With)
		tc.from(s.Using)
		tc.exprs(s.Where)
	}
	return tc.names
}

type tableCollector struct {
	seen  map[string]bool
	ctes  map[string]bool
	names []string
}

func (tc *tableCollector) add(t *TableName) {
	switch {
	case t == nil, t.Name == "", tc.seen[t.Name]:
	case t.Schema == "" && tc.ctes[t.Name]:
	default:
		tc.seen[t.Name] = true
		tc.names = append(tc.names, t.Name)
	}
}

func (tc *tableCollector) query(s *SelectStmt) {
	if s == nil {
		return
	}
	tc.with(s.With)
	for body := s.Body; body != nil; body = body.Right {
		c := body.Left
		if c == nil {
			continue
		}
		tc.from(c.From)
		tc.exprs(c.Where, c.Having)
		for _, col := range c.Columns {
			tc.exprs(col.Expr)
		}
	}
}

// with registers the CTE names before collecting from their bodies, so a
// CTE that reads another one is not mistaken for a table.
func (tc *tableCollector) with(w *WithClause) {
	if w == nil {
		return
	}
	for _, cte := range w.CTEs {
		tc.ctes[cte.Name] = true
	}
	for _, cte := range w.CTEs {
		tc.query(cte.Select)
	}
}

func (tc *tableCollector) from(f *FromClause) {
	if f == nil {
		return
	}
	for i, ref := range fromRefs(f) {
		switch t := ref.(type) {
		case *TableName:
			tc.add(t)
		case *DerivedTable:
			tc.query(t.Select)
		}
		if i > 0 {
			tc.exprs(f.Joins[i-1].Condition)
		}
	}
}

// exprs collects tables from the subqueries nested in each expression.
func (tc *tableCollector) exprs(list ...Expr) {
	for _, e := range list {
		for _, q := range nestedQueries(e) {
			tc.query(q)
		}
	}
}

// nestedQueries returns the outermost subqueries inside e without entering
// them.
func nestedQueries(e Expr) []*SelectStmt {
	var out []*SelectStmt
	var visit func(Expr)
	visit = func(e Expr) {
		if e == nil {
			return
		}
		kids, queries := children(e)
		for _, k := range kids {
			visit(k)
		}
		out = append(out, queries...)
	}
	visit(e)
	return out
}

// AndExpr conjoins a filter onto an existing predicate as
// (existing) AND (filter). With no existing predicate the filter is returned
// alone, still parenthesized, so neither side's precedence can leak across
// the AND.
func AndExpr(existing, filter Expr) Expr {
	if existing == nil {
		return parenthesize(filter)
	}
	return &BinaryExpr{Left: parenthesize(existing), Op: TokAnd, Right: parenthesize(filter)}
}

func parenthesize(e Expr) Expr {
	if _, ok := e.(*ParenExpr); ok {
		return e
	}
	return &ParenExpr{Expr: e}
}
