package sqlast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// === Classify tests ===

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want StmtType
	}{
		{"select", "SELECT * FROM t", StmtTypeSelect},
		{"with", "WITH x AS (SELECT 1) SELECT * FROM x", StmtTypeSelect},
		{"insert", "INSERT INTO t (a) VALUES (1)", StmtTypeInsert},
		{"update", "UPDATE t SET a = 1", StmtTypeUpdate},
		{"delete", "DELETE FROM t WHERE id = 1", StmtTypeDelete},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stmt, err := Parse(tc.sql)
			require.NoError(t, err)
			assert.Equal(t, tc.want, Classify(stmt))
		})
	}
}

func TestClassifyKeyword(t *testing.T) {
	assert.Equal(t, StmtTypeSelect, ClassifyKeyword(TokWith))
	assert.Equal(t, StmtTypeUpdate, ClassifyKeyword(TokUpdate))
	assert.Equal(t, StmtTypeOther, ClassifyKeyword(TokIdent))
}

func TestClassifyText(t *testing.T) {
	tests := []struct {
		name       string
		sql        string
		kind       StmtType
		statements int
	}{
		{"parenthesized_select", "(select 1) union (select 2)", StmtTypeSelect, 1},
		{"update", "UPDATE t SET a = a[1]", StmtTypeUpdate, 1},
		{"delete", "delete from t where x ~ 'y'", StmtTypeDelete, 1},
		{"truncate", "TRUNCATE t", StmtTypeDelete, 1},
		{"other", "PRAGMA journal_mode", StmtTypeOther, 1},
		{"trailing_semicolon", "SELECT 1 ~ 2;", StmtTypeSelect, 1},
		{"empty", "", StmtTypeOther, 0},
		{"stacked", "SELECT 1; DELETE FROM t", StmtTypeSelect, 2},
		{"stacked_in_parens", "SELECT (1; DELETE FROM t)", StmtTypeSelect, 2},
		{"with_update", "WITH x AS (SELECT 1) UPDATE t SET a = a[1]", StmtTypeUpdate, 1},
		{"data_modifying_cte", "WITH gone AS (DELETE FROM t RETURNING *) SELECT * FROM gone", StmtTypeDelete, 1},
		{"with_insert", "WITH x AS (SELECT 1) INSERT INTO t SELECT * FROM x WHERE a ~ 'b'", StmtTypeInsert, 1},
		{"replace_into", "REPLACE INTO t (a) VALUES (1)", StmtTypeInsert, 1},
		{"for_update", "SELECT * FROM t WHERE a ~ 'x' FOR UPDATE", StmtTypeSelect, 1},
		{"for_no_key_update", "SELECT * FROM t FOR NO KEY UPDATE", StmtTypeSelect, 1},
		{"upsert", "INSERT INTO t VALUES (1) ON CONFLICT (a) DO UPDATE SET a = excluded.a || 'x'", StmtTypeInsert, 1},
		{"keyword_in_string", "SELECT 'DELETE FROM t' ~ 'x'", StmtTypeSelect, 1},
		{"quoted_identifier", `SELECT "delete" FROM t WHERE a ~ 'x'`, StmtTypeSelect, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			kind, n := ClassifyText(tc.sql)
			assert.Equal(t, tc.kind, kind)
			assert.Equal(t, tc.statements, n)
		})
	}
}

// === CollectTableNames tests ===

func TestCollectTableNames(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want []string
	}{
		{"simple", "SELECT * FROM users", []string{"users"}},
		{"join", "SELECT * FROM users u JOIN orgs o ON u.org_id = o.id", []string{"users", "orgs"}},
		{"dedupe", "SELECT * FROM users a, users b", []string{"users"}},
		{"where_subquery", "SELECT * FROM t WHERE id IN (SELECT t_id FROM s)", []string{"t", "s"}},
		{"exists_subquery", "SELECT * FROM t WHERE EXISTS (SELECT 1 FROM s)", []string{"t", "s"}},
		{"scalar_subquery", "SELECT (SELECT max(v) FROM s) FROM t", []string{"t", "s"}},
		{"derived", "SELECT * FROM (SELECT * FROM inner_t) x", []string{"inner_t"}},
		{"cte_not_a_table", "WITH x AS (SELECT * FROM a) SELECT * FROM x JOIN b ON x.id = b.id", []string{"a", "b"}},
		{"union", "SELECT a FROM t UNION SELECT a FROM s", []string{"t", "s"}},
		{"insert_select", "INSERT INTO archive SELECT * FROM users", []string{"archive", "users"}},
		{"update_from", "UPDATE t SET a = s.a FROM s WHERE t.id = s.id", []string{"t", "s"}},
		{"delete_using", "DELETE FROM t USING s WHERE t.id = s.id", []string{"t", "s"}},
		{"with_delete", "WITH old AS (SELECT id FROM s) DELETE FROM t WHERE id IN (SELECT id FROM old)", []string{"t", "s"}},
		{"with_update", "WITH x AS (SELECT 1 AS v) UPDATE t SET a = (SELECT v FROM x) WHERE id = 1", []string{"t"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stmt, err := Parse(tc.sql)
			require.NoError(t, err)
			assert.Equal(t, tc.want, CollectTableNames(stmt))
		})
	}
}

func TestTargetTable(t *testing.T) {
	stmt, err := Parse("UPDATE app.users SET a = 1")
	require.NoError(t, err)
	tbl := TargetTable(stmt)
	require.NotNil(t, tbl)
	assert.Equal(t, "app", tbl.Schema)
	assert.Equal(t, "users", tbl.Name)

	stmt, err = Parse("SELECT 1")
	require.NoError(t, err)
	assert.Nil(t, TargetTable(stmt))
}

// === ContainsParam tests ===

func TestContainsParam(t *testing.T) {
	tests := []struct {
		sql  string
		want bool
	}{
		{"org_id = 5", false},
		{"org_id = ?", true},
		{"org_id IN (1, $2)", true},
		{"owner = 'me' OR EXISTS (SELECT 1 FROM m WHERE m.uid = ?)", true},
		{"dept_id IN (SELECT id FROM depts WHERE parent = 1)", false},
		{"CASE WHEN a THEN ? END = 1", true},
	}

	for _, tc := range tests {
		t.Run(tc.sql, func(t *testing.T) {
			expr, err := ParseExpr(tc.sql)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ContainsParam(expr))
		})
	}
}

// === AndExpr tests ===

func TestAndExpr_ParenthesizesBothSides(t *testing.T) {
	existing, err := ParseExpr("a = 1 OR b = 2")
	require.NoError(t, err)
	filter, err := ParseExpr("org_id = 5 OR owner = 'me'")
	require.NoError(t, err)

	got := FormatExpr(AndExpr(existing, filter))
	assert.Equal(t, `("a" = 1 OR "b" = 2) AND ("org_id" = 5 OR "owner" = 'me')`, got)
}

func TestAndExpr_NoExisting(t *testing.T) {
	filter, err := ParseExpr("org_id = 5")
	require.NoError(t, err)
	assert.Equal(t, `("org_id" = 5)`, FormatExpr(AndExpr(nil, filter)))
}

func TestAndExpr_AlreadyParenthesized(t *testing.T) {
	existing, err := ParseExpr("(a = 1)")
	require.NoError(t, err)
	filter, err := ParseExpr("b = 2")
	require.NoError(t, err)
	assert.Equal(t, `("a" = 1) AND ("b" = 2)`, FormatExpr(AndExpr(existing, filter)))
}
