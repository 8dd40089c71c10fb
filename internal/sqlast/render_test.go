package sqlast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFormat_RoundTrip checks that format(parse(sql)) produces the expected
// canonical SQL and that the output parses again.
func TestFormat_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want string
	}{
		{
			name: "select_star",
			sql:  "SELECT * FROM t",
			want: `SELECT * FROM "t"`,
		},
		{
			name: "select_alias",
			sql:  "SELECT x AS y FROM t",
			want: `SELECT "x" AS "y" FROM "t"`,
		},
		{
			name: "select_distinct",
			sql:  "select distinct x from t",
			want: `SELECT DISTINCT "x" FROM "t"`,
		},
		{
			name: "where_and_or",
			sql:  "SELECT * FROM t WHERE a = 1 AND (b = 2 OR c != 3)",
			want: `SELECT * FROM "t" WHERE "a" = 1 AND ("b" = 2 OR "c" <> 3)`,
		},
		{
			name: "join_with_aliases",
			sql:  "SELECT u.id FROM users u JOIN orgs o ON u.org_id = o.id",
			want: `SELECT "u"."id" FROM "users" AS "u" JOIN "orgs" AS "o" ON "u"."org_id" = "o"."id"`,
		},
		{
			name: "comma_join",
			sql:  "SELECT * FROM a, b",
			want: `SELECT * FROM "a", "b"`,
		},
		{
			name: "group_having_order_limit",
			sql:  "SELECT dept, count(*) FROM emp GROUP BY dept HAVING count(*) > 2 ORDER BY dept DESC LIMIT 10 OFFSET 5",
			want: `SELECT "dept", count(*) FROM "emp" GROUP BY "dept" HAVING count(*) > 2 ORDER BY "dept" DESC LIMIT 10 OFFSET 5`,
		},
		{
			name: "limit_comma",
			sql:  "SELECT * FROM t LIMIT 5, 10",
			want: `SELECT * FROM "t" LIMIT 10 OFFSET 5`,
		},
		{
			name: "union_all",
			sql:  "SELECT a FROM t UNION ALL SELECT a FROM s",
			want: `SELECT "a" FROM "t" UNION ALL SELECT "a" FROM "s"`,
		},
		{
			name: "cte",
			sql:  "WITH x AS (SELECT id FROM t) SELECT * FROM x",
			want: `WITH "x" AS (SELECT "id" FROM "t") SELECT * FROM "x"`,
		},
		{
			name: "derived_table",
			sql:  "SELECT * FROM (SELECT id FROM t) sub",
			want: `SELECT * FROM (SELECT "id" FROM "t") AS "sub"`,
		},
		{
			name: "predicates",
			sql:  "SELECT * FROM t WHERE a IN (1, 2) AND b BETWEEN 1 AND 5 AND c LIKE 'x%' AND d IS NOT NULL",
			want: `SELECT * FROM "t" WHERE "a" IN (1, 2) AND "b" BETWEEN 1 AND 5 AND "c" LIKE 'x%' AND "d" IS NOT NULL`,
		},
		{
			name: "string_escape",
			sql:  "SELECT 'it''s'",
			want: `SELECT 'it''s'`,
		},
		{
			name: "booleans_and_null",
			sql:  "SELECT true, false, null",
			want: `SELECT TRUE, FALSE, NULL`,
		},
		{
			name: "case_and_cast",
			sql:  "SELECT CASE WHEN a > 0 THEN 'pos' ELSE 'neg' END, CAST(b AS integer), c::text FROM t",
			want: `SELECT CASE WHEN "a" > 0 THEN 'pos' ELSE 'neg' END, CAST("b" AS INTEGER), "c"::TEXT FROM "t"`,
		},
		{
			name: "exists",
			sql:  "SELECT * FROM t WHERE NOT EXISTS (SELECT 1 FROM s WHERE s.t_id = t.id)",
			want: `SELECT * FROM "t" WHERE NOT EXISTS (SELECT 1 FROM "s" WHERE "s"."t_id" = "t"."id")`,
		},
		{
			name: "insert_values",
			sql:  "INSERT INTO users (id, name) VALUES (?, ?)",
			want: `INSERT INTO "users" ("id", "name") VALUES (?, ?)`,
		},
		{
			name: "insert_on_conflict",
			sql:  "INSERT INTO t (id) VALUES (1) ON CONFLICT (id) DO NOTHING",
			want: `INSERT INTO "t" ("id") VALUES (1) ON CONFLICT ("id") DO NOTHING`,
		},
		{
			name: "update",
			sql:  "UPDATE users SET name = ?, version = version + 1 WHERE id = ?",
			want: `UPDATE "users" SET "name" = ?, "version" = "version" + 1 WHERE "id" = ?`,
		},
		{
			name: "delete_returning",
			sql:  "DELETE FROM users WHERE id = ? RETURNING id",
			want: `DELETE FROM "users" WHERE "id" = ? RETURNING "id"`,
		},
		{
			name: "value_functions",
			sql:  "SELECT current_timestamp, CURRENT_DATE, current_time FROM t WHERE d < CURRENT_DATE",
			want: `SELECT CURRENT_TIMESTAMP, CURRENT_DATE, CURRENT_TIME FROM "t" WHERE "d" < CURRENT_DATE`,
		},
		{
			name: "value_function_precision",
			sql:  "SELECT CURRENT_TIMESTAMP(3)",
			want: `SELECT CURRENT_TIMESTAMP(3)`,
		},
		{
			name: "update_value_function",
			sql:  "UPDATE t SET touched = CURRENT_TIMESTAMP WHERE id = ?",
			want: `UPDATE "t" SET "touched" = CURRENT_TIMESTAMP WHERE "id" = ?`,
		},
		{
			name: "with_update",
			sql:  "WITH x AS (SELECT id FROM s) UPDATE t SET a = 1 WHERE id IN (SELECT id FROM x)",
			want: `WITH "x" AS (SELECT "id" FROM "s") UPDATE "t" SET "a" = 1 WHERE "id" IN (SELECT "id" FROM "x")`,
		},
		{
			name: "with_delete",
			sql:  "WITH x AS (SELECT id FROM s) DELETE FROM t WHERE id IN (SELECT id FROM x)",
			want: `WITH "x" AS (SELECT "id" FROM "s") DELETE FROM "t" WHERE "id" IN (SELECT "id" FROM "x")`,
		},
		{
			name: "with_insert",
			sql:  "WITH x AS (SELECT 1 AS v) INSERT INTO t (a) SELECT v FROM x",
			want: `WITH "x" AS (SELECT 1 AS "v") INSERT INTO "t" ("a") SELECT "v" FROM "x"`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stmt, err := Parse(tc.sql)
			require.NoError(t, err)

			got := Format(stmt)
			assert.Equal(t, tc.want, got)

			_, err = Parse(got)
			require.NoError(t, err, "formatted SQL must parse again: %s", got)
		})
	}
}

func TestRender_QuestionArgOrder(t *testing.T) {
	stmt, err := Parse("SELECT * FROM t WHERE a = ? AND b = ?")
	require.NoError(t, err)

	sql, order := Render(stmt)
	assert.Equal(t, `SELECT * FROM "t" WHERE "a" = ? AND "b" = ?`, sql)
	assert.Equal(t, []int{0, 1}, order)
}

func TestRender_DollarRenumbering(t *testing.T) {
	stmt, err := Parse("SELECT * FROM t WHERE a = $2 AND b = $1 OR c = $2")
	require.NoError(t, err)

	sql, order := Render(stmt)
	assert.Equal(t, `SELECT * FROM "t" WHERE "a" = $1 AND "b" = $2 OR "c" = $1`, sql)
	assert.Equal(t, []int{1, 0}, order)
}

func TestRender_DroppedClauseKeepsArgsAligned(t *testing.T) {
	stmt, err := Parse("SELECT * FROM t WHERE a = ? ORDER BY b LIMIT ?")
	require.NoError(t, err)

	stmt.(*SelectStmt).Body.Left.Where = nil
	sql, order := Render(stmt)
	assert.Equal(t, `SELECT * FROM "t" ORDER BY "b" LIMIT ?`, sql)
	assert.Equal(t, []int{1}, order)
}

func TestFormatExpr(t *testing.T) {
	expr, err := ParseExpr("org_id IN (1, 2) OR owner = 'me'")
	require.NoError(t, err)
	assert.Equal(t, `"org_id" IN (1, 2) OR "owner" = 'me'`, FormatExpr(expr))
}

func TestFormat_QuotesEmbeddedDoubleQuote(t *testing.T) {
	stmt, err := Parse(`SELECT "we""ird" FROM t`)
	require.NoError(t, err)
	assert.Equal(t, `SELECT "we""ird" FROM "t"`, Format(stmt))
}
