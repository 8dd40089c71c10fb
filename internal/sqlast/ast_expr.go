package sqlast

// ColumnRef names a column, optionally qualified by a table or alias.
type ColumnRef struct {
	Table  string
	Column string
}

// Literal is a constant. Value keeps the source spelling for numbers and the
// unescaped text for strings.
type Literal struct {
	Type  LiteralType
	Value string
}

// LiteralType tells literal kinds apart.
type LiteralType int

// Literal kinds.
const (
	LiteralNumber LiteralType = iota
	LiteralString
	LiteralBool
	LiteralNull
)

// BinaryExpr is an infix operation. Op is the operator token.
type BinaryExpr struct {
	Left  Expr
	Op    TokenType
	Right Expr
}

// UnaryExpr is a prefix NOT, minus or plus.
type UnaryExpr struct {
	Op   TokenType
	Expr Expr
}

// ParenExpr preserves explicit grouping.
type ParenExpr struct {
	Expr Expr
}

// FuncCall is name(args). The name is kept as written and never quoted.
type FuncCall struct {
	Name     string
	Distinct bool // COUNT(DISTINCT ...)
	Args     []Expr
	Star     bool // COUNT(*)
}

// CaseExpr covers both the simple and the searched CASE forms.
type CaseExpr struct {
	Operand Expr // nil for searched CASE
	Whens   []WhenClause
	Else    Expr
}

// WhenClause is one WHEN ... THEN ... arm.
type WhenClause struct {
	Condition Expr
	Result    Expr
}

// CastExpr represents CAST(expr AS type) or the PostgreSQL expr::type form.
type CastExpr struct {
	Expr     Expr
	TypeName string
	Postfix  bool // written as expr::type
}

// InExpr is x [NOT] IN (list) or x [NOT] IN (subquery). Exactly one of
// Values and Query is set.
type InExpr struct {
	Expr   Expr
	Not    bool
	Values []Expr      // IN (1, 2, 3)
	Query  *SelectStmt // IN (SELECT ...)
}

// BetweenExpr is x [NOT] BETWEEN low AND high.
type BetweenExpr struct {
	Expr Expr
	Not  bool
	Low  Expr
	High Expr
}

// IsNullExpr is x IS [NOT] NULL.
type IsNullExpr struct {
	Expr Expr
	Not  bool
}

// IsBoolExpr is x IS [NOT] TRUE or x IS [NOT] FALSE.
type IsBoolExpr struct {
	Expr  Expr
	Not   bool
	Value bool
}

// LikeExpr is a [NOT] LIKE or ILIKE match with an optional ESCAPE.
type LikeExpr struct {
	Expr    Expr
	Not     bool
	Pattern Expr
	ILike   bool
	Escape  Expr
}

// ExistsExpr is [NOT] EXISTS (subquery).
type ExistsExpr struct {
	Not    bool
	Select *SelectStmt
}

// SubqueryExpr is a parenthesized query in expression position.
type SubqueryExpr struct {
	Select *SelectStmt
}

// StarExpr is a bare * or t.* outside the select list, e.g. inside a call.
type StarExpr struct {
	Table string
}

// ParamStyle distinguishes positional placeholder syntaxes.
type ParamStyle int

// ParamQuestion and ParamDollar are the supported placeholder styles.
const (
	ParamQuestion ParamStyle = iota // ?
	ParamDollar                     // $1
)

// ParamExpr represents a bind placeholder. Index is the zero-based position
// of the bound argument it refers to: the n-th `?` in source order, or n-1
// for `$n`.
type ParamExpr struct {
	Style ParamStyle
	Index int
}

// DefaultExpr is the DEFAULT keyword inside a VALUES row.
type DefaultExpr struct{}

// ValueFunc is a niladic SQL function written as a bare keyword, such as
// CURRENT_TIMESTAMP. It renders unquoted; quoting would turn it into an
// identifier.
type ValueFunc struct {
	Name string
}
