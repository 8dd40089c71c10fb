package sqlast

// SelectStmt is a query: an optional WITH clause and a body.
type SelectStmt struct {
	With *WithClause
	Body *SelectBody
}

// WithClause holds the common table expressions of a query.
type WithClause struct {
	Recursive bool
	CTEs      []*CTE
}

// CTE is one name [(cols)] AS (query) entry.
type CTE struct {
	Name    string
	Columns []string
	Select  *SelectStmt
}

// SelectBody is a core optionally chained to further bodies by a set
// operator. Chains nest to the right.
type SelectBody struct {
	Left  *SelectCore
	Op    SetOpType
	All   bool
	Right *SelectBody
}

// SetOpType is the keyword joining two bodies.
type SetOpType string

// Set operators. SetOpNone marks the last body of a chain.
const (
	SetOpNone      SetOpType = ""
	SetOpUnion     SetOpType = "UNION"
	SetOpIntersect SetOpType = "INTERSECT"
	SetOpExcept    SetOpType = "EXCEPT"
)

// SelectCore represents the core SELECT clause with all optional clauses.
//
// ORDER BY, LIMIT, and OFFSET written after the last member of a set
// operation are attached to the last core; the formatter emits them at the
// end, where they apply to the whole compound.
type SelectCore struct {
	Distinct bool
	Columns  []SelectItem
	From     *FromClause
	Where    Expr
	GroupBy  []Expr
	Having   Expr
	OrderBy  []OrderByItem
	Limit    Expr
	Offset   Expr
}

// SelectItem is one entry of a select list. Star and TableStar exclude Expr.
type SelectItem struct {
	Star      bool
	TableStar string
	Expr      Expr
	Alias     string
}

// FromClause is the first source followed by its joins in order.
type FromClause struct {
	Source TableRef
	Joins  []*Join
}

// Join attaches Right to everything before it. Comma joins carry no
// condition.
type Join struct {
	Type      JoinType
	Natural   bool
	Right     TableRef
	Condition Expr
	Using     []string
}

// JoinType is the join keyword, or "," for a comma join.
type JoinType string

// Join kinds.
const (
	JoinInner JoinType = "INNER"
	JoinLeft  JoinType = "LEFT"
	JoinRight JoinType = "RIGHT"
	JoinFull  JoinType = "FULL"
	JoinCross JoinType = "CROSS"
	JoinComma JoinType = ","
)

// OrderByItem is one sort key. A nil NullsFirst keeps the dialect default.
type OrderByItem struct {
	Expr       Expr
	Desc       bool
	NullsFirst *bool
}

// InsertStmt is INSERT INTO with either VALUES rows or a query source.
type InsertStmt struct {
	With       *WithClause
	Table      *TableName
	Columns    []string
	Values     [][]Expr
	Query      *SelectStmt
	OnConflict *OnConflictClause
	Returning  []SelectItem
}

// OnConflictClause is the upsert tail of an INSERT.
type OnConflictClause struct {
	Columns   []string
	DoUpdate  []SetClause
	DoNothing bool
	Where     Expr
}

// SetClause is one col = value assignment.
type SetClause struct {
	Column string
	Value  Expr
}

// UpdateStmt is UPDATE ... SET with an optional FROM list.
type UpdateStmt struct {
	With      *WithClause
	Table     *TableName
	Sets      []SetClause
	From      *FromClause
	Where     Expr
	Returning []SelectItem
}

// DeleteStmt is DELETE FROM with an optional USING list.
type DeleteStmt struct {
	With      *WithClause
	Table     *TableName
	Using     *FromClause
	Where     Expr
	Returning []SelectItem
}

// TableName is [schema.]name with an optional alias.
type TableName struct {
	Schema string
	Name   string
	Alias  string
}

// DerivedTable is a parenthesized query used as a FROM source.
type DerivedTable struct {
	Select *SelectStmt
	Alias  string
}
