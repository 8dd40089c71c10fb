package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlguard/internal/config"
)

// setupEnv points the CLI at a fresh SQLite file and an in-memory Redis.
func setupEnv(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	t.Chdir(t.TempDir())
	mr := miniredis.RunT(t)
	for _, k := range []string{config.EnvConfigFile, "DB_DRIVER", "ENV", "REDIS_PASSWORD", "SESSION_TTL", "PAGE_MAX_LIMIT", "SCOPE_MUTATIONS"} {
		t.Setenv(k, "")
	}
	t.Setenv("DB_DSN", filepath.Join(t.TempDir(), "cli.sqlite"))
	t.Setenv("REDIS_ADDR", mr.Addr())
	t.Setenv("LOG_LEVEL", "error")
	return mr
}

// run executes the root command with args and returns its stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err, out)
	return out
}

func TestVersion_JSON(t *testing.T) {
	out := mustRun(t, "version", "-o", "json")

	var v map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "dev", v["version"])
}

func TestRoot_RejectsUnknownOutputFormat(t *testing.T) {
	_, err := run(t, "version", "-o", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestMigrate_SeedsOnce(t *testing.T) {
	setupEnv(t)

	out := mustRun(t, "migrate", "--seed", "admin", "-o", "json")
	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &first))
	assert.InDelta(t, 2, first["schema_version"], 0.001)
	assert.InDelta(t, 1, first["user_id"], 0.001)

	out = mustRun(t, "migrate", "--seed", "admin", "-o", "json")
	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &second))
	assert.NotContains(t, second, "user_id")
}

func TestExec_ScopeAndPagination(t *testing.T) {
	setupEnv(t)
	mustRun(t, "migrate")
	for _, name := range []string{"a", "b", "c"} {
		mustRun(t, "exec", "INSERT INTO sys_user (username, real_name, org_id) VALUES (?, ?, ?)", name, strings.ToUpper(name), "1")
	}
	mustRun(t, "exec", "INSERT INTO sys_user (username, real_name, org_id) VALUES (?, ?, ?)", "d", "D", "2")

	out := mustRun(t, "exec", "SELECT username FROM sys_user ORDER BY id", "--scope", "org_id = 1", "--limit", "2", "--total")
	assert.Contains(t, out, "USERNAME")
	assert.Contains(t, out, "2 of 3 row(s)")
	assert.Contains(t, out, "next page: --page-token")
	assert.NotContains(t, out, "\nd")

	out = mustRun(t, "exec", "SELECT username FROM sys_user ORDER BY id", "--scope", "org_id = 1", "-o", "json")
	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Len(t, res["rows"], 3)
}

func TestExec_GuardsMutations(t *testing.T) {
	setupEnv(t)
	mustRun(t, "migrate")
	mustRun(t, "exec", "INSERT INTO sys_user (username, real_name, org_id) VALUES (?, ?, ?)", "a", "A", "1")

	_, err := run(t, "exec", "DELETE FROM sys_user")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no effective WHERE clause")

	_, err = run(t, "exec", "UPDATE sys_user SET real_name = ? WHERE id = ?", "B", "1", "--expected-version", "9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conflict")

	out := mustRun(t, "exec", "UPDATE sys_user SET real_name = ? WHERE id = ?", "B", "1", "--expected-version", "0")
	assert.Contains(t, out, "1 row(s) affected")
}

func TestSession_Lifecycle(t *testing.T) {
	mr := setupEnv(t)
	mustRun(t, "migrate")

	token := strings.TrimSpace(mustRun(t, "session", "issue", "--user-id", "7", "--org-id", "3", "--username", "ann"))
	require.NotEmpty(t, token)
	assert.True(t, mr.Exists("sys:token:"+token))

	out := mustRun(t, "session", "show", token)
	assert.Contains(t, out, "ann")
	assert.Contains(t, out, "12h0m0s")

	out = mustRun(t, "session", "list", "-o", "json")
	var listed map[string][]string
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	assert.Equal(t, []string{token}, listed["tokens"])

	assert.Contains(t, mustRun(t, "session", "revoke", token), "revoked")
	_, err := run(t, "session", "show", token)
	require.Error(t, err)
}

func TestSession_IssueRequiresUserID(t *testing.T) {
	setupEnv(t)
	_, err := run(t, "session", "issue")
	require.Error(t, err)
}

func TestExec_TokenMustResolve(t *testing.T) {
	setupEnv(t)
	mustRun(t, "migrate", "--seed", "admin")
	token := strings.TrimSpace(mustRun(t, "session", "issue", "--user-id", "1", "--org-id", "1"))

	_, err := run(t, "exec", "SELECT 1", "--token", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown or expired")

	out := mustRun(t, "exec", "SELECT username FROM sys_user WHERE id = ?", "1", "--token", token, "-o", "json")
	assert.Contains(t, out, "admin")
}

func TestFormatCell(t *testing.T) {
	assert.Equal(t, "", formatCell(nil))
	assert.Equal(t, `{"k":"v"}`, formatCell(map[string]any{"k": "v"}))
	assert.Equal(t, `["a","b"]`, formatCell([]string{"a", "b"}))
	assert.Equal(t, "42", formatCell(int64(42)))
}

func TestClip(t *testing.T) {
	assert.Equal(t, "abc", clip("abc", 0))
	assert.Equal(t, "abc", clip("abc", 3))
	assert.Equal(t, "abcd~", clip("abcdefgh", 5))
}
