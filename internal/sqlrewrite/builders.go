package sqlrewrite

import (
	"fmt"

	"sqlguard/internal/sqlast"
)

// paramBuilder hands out placeholders in one style with increasing indexes.
type paramBuilder struct {
	style sqlast.ParamStyle
	next  int
}

func (b *paramBuilder) param() *sqlast.ParamExpr {
	p := &sqlast.ParamExpr{Style: b.style, Index: b.next}
	b.next++
	return p
}

// BuildInsert builds INSERT INTO table (columns...) VALUES (?, ...). The
// arguments bind in column order.
func BuildInsert(table string, columns []string, style sqlast.ParamStyle) (*Statement, error) {
	if table == "" || len(columns) == 0 {
		return nil, fmt.Errorf("insert requires a table and at least one column")
	}

	pb := &paramBuilder{style: style}
	row := make([]sqlast.Expr, len(columns))
	for i := range columns {
		row[i] = pb.param()
	}

	return FromAST(&sqlast.InsertStmt{
		Table:   &sqlast.TableName{Name: table},
		Columns: columns,
		Values:  [][]sqlast.Expr{row},
	}), nil
}

// BuildUpdateByKey builds UPDATE table SET col = ?, ... WHERE key = ?. The
// arguments bind as the SET values in order followed by the key value.
func BuildUpdateByKey(table string, columns []string, key string, style sqlast.ParamStyle) (*Statement, error) {
	if table == "" || key == "" || len(columns) == 0 {
		return nil, fmt.Errorf("update requires a table, a key column, and at least one column")
	}

	pb := &paramBuilder{style: style}
	sets := make([]sqlast.SetClause, len(columns))
	for i, col := range columns {
		sets[i] = sqlast.SetClause{Column: col, Value: pb.param()}
	}

	return FromAST(&sqlast.UpdateStmt{
		Table: &sqlast.TableName{Name: table},
		Sets:  sets,
		Where: &sqlast.BinaryExpr{
			Left:  &sqlast.ColumnRef{Column: key},
			Op:    sqlast.TokEq,
			Right: pb.param(),
		},
	}), nil
}

// BuildSoftDelete builds UPDATE table SET flag = <value>, col = ?, ... WHERE
// key = ?. The flag is written as a literal; the remaining columns and then
// the key bind as arguments in order.
func BuildSoftDelete(table, flag string, value any, columns []string, key string, style sqlast.ParamStyle) (*Statement, error) {
	if flag == "" {
		return nil, fmt.Errorf("soft delete requires a flag column")
	}
	lit, err := makeLiteralExpr(value)
	if err != nil {
		return nil, fmt.Errorf("soft delete flag: %w", err)
	}

	stmt, err := BuildUpdateByKey(table, columns, key, style)
	if err != nil {
		return nil, err
	}
	upd := stmt.ast.(*sqlast.UpdateStmt)
	upd.Sets = append([]sqlast.SetClause{{Column: flag, Value: lit}}, upd.Sets...)
	return FromAST(upd), nil
}

// makeLiteralExpr creates a Literal expression from a Go value.
func makeLiteralExpr(v interface{}) (sqlast.Expr, error) {
	switch val := v.(type) {
	case nil:
		return &sqlast.Literal{Type: sqlast.LiteralNull, Value: "NULL"}, nil
	case int:
		return intLiteral(int64(val)), nil
	case int32:
		return intLiteral(int64(val)), nil
	case int64:
		return intLiteral(val), nil
	case float64:
		return &sqlast.Literal{Type: sqlast.LiteralNumber, Value: fmt.Sprintf("%g", val)}, nil
	case string:
		return &sqlast.Literal{Type: sqlast.LiteralString, Value: val}, nil
	case bool:
		if val {
			return &sqlast.Literal{Type: sqlast.LiteralBool, Value: "true"}, nil
		}
		return &sqlast.Literal{Type: sqlast.LiteralBool, Value: "false"}, nil
	default:
		return nil, fmt.Errorf("unsupported literal type: %T", v)
	}
}
