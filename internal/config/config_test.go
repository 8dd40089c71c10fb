package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	EnvConfigFile, "DB_DRIVER", "DB_DSN", "LISTEN_ADDR", "LOG_LEVEL", "ENV",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "SESSION_NAMESPACE", "SESSION_TTL",
	"SESSION_SLIDING", "SESSION_FAIL_CLOSED", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	"PAGE_MAX_LIMIT", "VERSION_COLUMN", "SCOPE_MUTATIONS", "CORS_ALLOWED_ORIGINS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "sqlite3", cfg.DBDriver)
	assert.Equal(t, "sqlguard.sqlite", cfg.DBDSN)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "localhost:6379", cfg.Session.RedisAddr)
	assert.Equal(t, "sys:token", cfg.Session.Namespace)
	assert.Equal(t, 12*time.Hour, cfg.Session.TTL)
	assert.False(t, cfg.Session.Sliding)
	assert.Equal(t, "version", cfg.Guard.VersionColumn)
	assert.Equal(t, int64(0), cfg.Guard.PageMaxLimit)
	assert.False(t, cfg.Guard.ScopeMutations)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Len(t, cfg.Warnings, 2)
}

func TestLoadFromEnv_AllVarsSet(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", "pgx")
	t.Setenv("DB_DSN", "postgres://localhost/app")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("SESSION_NAMESPACE", "app:token")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("SESSION_SLIDING", "true")
	t.Setenv("PAGE_MAX_LIMIT", "500")
	t.Setenv("VERSION_COLUMN", "revision")
	t.Setenv("SCOPE_MUTATIONS", "yes")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "pgx", cfg.DBDriver)
	assert.Equal(t, "postgres://localhost/app", cfg.DBDSN)
	assert.Equal(t, "redis:6379", cfg.Session.RedisAddr)
	assert.Equal(t, 3, cfg.Session.RedisDB)
	assert.Equal(t, "app:token", cfg.Session.Namespace)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.True(t, cfg.Session.Sliding)
	assert.Equal(t, int64(500), cfg.Guard.PageMaxLimit)
	assert.Equal(t, "revision", cfg.Guard.VersionColumn)
	assert.True(t, cfg.Guard.ScopeMutations)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Empty(t, cfg.Warnings)
}

func TestLoadFromEnv_MalformedValuesWarn(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("SESSION_TTL", "forever")
	t.Setenv("PAGE_MAX_LIMIT", "lots")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 12*time.Hour, cfg.Session.TTL)
	assert.Len(t, cfg.Warnings, 3)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.DBDriver = "mysql" }, wantErr: "DB_DRIVER"},
		{name: "pgx without dsn", mutate: func(c *Config) { c.DBDriver = "pgx"; c.DBDSN = "" }, wantErr: "DB_DSN"},
		{name: "negative ttl", mutate: func(c *Config) { c.Session.TTL = -time.Second }, wantErr: "SESSION_TTL"},
		{name: "negative max limit", mutate: func(c *Config) { c.Guard.PageMaxLimit = -1 }, wantErr: "PAGE_MAX_LIMIT"},
		{name: "production without redis password", mutate: func(c *Config) { c.Env = "production" }, wantErr: "REDIS_PASSWORD"},
		{name: "production cors wildcard", mutate: func(c *Config) {
			c.Env = "production"
			c.Session.RedisPassword = "s3cret"
			c.CORSAllowedOrigins = []string{"*"}
		}, wantErr: "CORS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{DBDriver: "sqlite3", DBDSN: "x.sqlite"}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_YAMLOverlayOverridesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDIS_ADDR", "env-redis:6379")
	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("VERSION_COLUMN", "revision")

	path := filepath.Join(t.TempDir(), "sqlguard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: warn
session:
  redis_addr: file-redis:6379
  ttl: 2h
  sliding: true
guard:
  page_max_limit: 100
  scope_mutations: true
`), 0o600))
	t.Setenv(EnvConfigFile, path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "file-redis:6379", cfg.Session.RedisAddr)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.True(t, cfg.Session.Sliding)
	assert.Equal(t, int64(100), cfg.Guard.PageMaxLimit)
	assert.True(t, cfg.Guard.ScopeMutations)
	assert.Equal(t, "revision", cfg.Guard.VersionColumn, "unset file keys keep the env value")
	assert.Equal(t, slog.LevelWarn, cfg.SlogLevel())
}

func TestLoad_MissingOverlayFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvConfigFile, filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	require.Error(t, err)
}

func TestLoadFile_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("session: [unclosed"), 0o600))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoadFile_AppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "min.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db_dsn: data.sqlite\n"), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", cfg.DBDriver)
	assert.Equal(t, "data.sqlite", cfg.DBDSN)
	assert.Equal(t, 12*time.Hour, cfg.Session.TTL)
}

func TestLoadDotEnv_FileNotFound(t *testing.T) {
	err := LoadDotEnv("/nonexistent/.env")
	if err != nil {
		t.Errorf("expected no error for missing .env, got: %v", err)
	}
}

func TestLoadDotEnv_ParsesKeyValue(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	err := os.WriteFile(envFile, []byte("TEST_KEY=test_value\n"), 0644)
	if err != nil {
		t.Fatalf("write .env: %v", err)
	}

	if err := LoadDotEnv(envFile); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}

	if val := os.Getenv("TEST_KEY"); val != "test_value" {
		t.Errorf("TEST_KEY = %q, want %q", val, "test_value")
	}
	_ = os.Unsetenv("TEST_KEY")
}

func TestLoadDotEnv_SkipsComments(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	err := os.WriteFile(envFile, []byte("# comment\nTEST_COMMENT_KEY=value\n"), 0644)
	if err != nil {
		t.Fatalf("write .env: %v", err)
	}

	if err := LoadDotEnv(envFile); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}

	if val := os.Getenv("TEST_COMMENT_KEY"); val != "value" {
		t.Errorf("TEST_COMMENT_KEY = %q, want %q", val, "value")
	}
	_ = os.Unsetenv("TEST_COMMENT_KEY")
}

func TestLoadDotEnv_EnvVarPrecedence(t *testing.T) {
	t.Setenv("TEST_PRECEDENCE_KEY", "from_env")

	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	err := os.WriteFile(envFile, []byte("TEST_PRECEDENCE_KEY=from_file\n"), 0644)
	if err != nil {
		t.Fatalf("write .env: %v", err)
	}

	if err := LoadDotEnv(envFile); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}

	if val := os.Getenv("TEST_PRECEDENCE_KEY"); val != "from_env" {
		t.Errorf("TEST_PRECEDENCE_KEY = %q, want %q (env precedence)", val, "from_env")
	}
}
