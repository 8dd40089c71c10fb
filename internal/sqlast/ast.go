package sqlast

// Node is implemented by every AST node. The unexported marker methods
// keep the node families closed to this package.
type Node interface {
	node()
}

// Expr is a scalar or boolean expression.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a top-level statement.
type Stmt interface {
	Node
	stmtNode()
}

// TableRef is a source in a FROM list.
type TableRef interface {
	Node
	tableRefNode()
}

func (*ColumnRef) node()    {}
func (*Literal) node()      {}
func (*BinaryExpr) node()   {}
func (*UnaryExpr) node()    {}
func (*ParenExpr) node()    {}
func (*FuncCall) node()     {}
func (*CaseExpr) node()     {}
func (*CastExpr) node()     {}
func (*InExpr) node()       {}
func (*BetweenExpr) node()  {}
func (*IsNullExpr) node()   {}
func (*IsBoolExpr) node()   {}
func (*LikeExpr) node()     {}
func (*ExistsExpr) node()   {}
func (*SubqueryExpr) node() {}
func (*StarExpr) node()     {}
func (*ParamExpr) node()    {}
func (*DefaultExpr) node()  {}
func (*ValueFunc) node()    {}
func (*SelectStmt) node()   {}
func (*InsertStmt) node()   {}
func (*UpdateStmt) node()   {}
func (*DeleteStmt) node()   {}
func (*TableName) node()    {}
func (*DerivedTable) node() {}

func (*ColumnRef) exprNode()    {}
func (*Literal) exprNode()      {}
func (*BinaryExpr) exprNode()   {}
func (*UnaryExpr) exprNode()    {}
func (*ParenExpr) exprNode()    {}
func (*FuncCall) exprNode()     {}
func (*CaseExpr) exprNode()     {}
func (*CastExpr) exprNode()     {}
func (*InExpr) exprNode()       {}
func (*BetweenExpr) exprNode()  {}
func (*IsNullExpr) exprNode()   {}
func (*IsBoolExpr) exprNode()   {}
func (*LikeExpr) exprNode()     {}
func (*ExistsExpr) exprNode()   {}
func (*SubqueryExpr) exprNode() {}
func (*StarExpr) exprNode()     {}
func (*ParamExpr) exprNode()    {}
func (*DefaultExpr) exprNode()  {}
func (*ValueFunc) exprNode()    {}

func (*SelectStmt) stmtNode() {}
func (*InsertStmt) stmtNode() {}
func (*UpdateStmt) stmtNode() {}
func (*DeleteStmt) stmtNode() {}

func (*TableName) tableRefNode()    {}
func (*DerivedTable) tableRefNode() {}
