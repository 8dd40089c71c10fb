// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigFile names the environment variable pointing at an optional YAML
// overlay. Values in the file override the environment.
const EnvConfigFile = "SQLGUARD_CONFIG"

// SessionConfig holds the session store settings.
type SessionConfig struct {
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	Namespace     string        `yaml:"namespace"`      // key prefix (default "sys:token")
	TTL           time.Duration `yaml:"ttl"`            // access token expiry (default 12h)
	Sliding       bool          `yaml:"sliding"`        // refresh the TTL on every resolve
	FailClosed    bool          `yaml:"fail_closed"`    // answer 503 when the store is down
	RateLimitRPS  float64       `yaml:"rate_limit_rps"` // token lookups per client per second
	RateBurst     int           `yaml:"rate_limit_burst"`
}

// GuardConfig holds the interceptor chain settings.
type GuardConfig struct {
	PageMaxLimit   int64  `yaml:"page_max_limit"` // 0 means unlimited
	VersionColumn  string `yaml:"version_column"` // default "version"
	ScopeMutations bool   `yaml:"scope_mutations"`
}

// Config holds the configuration for the guarded engine and its surfaces.
type Config struct {
	DBDriver   string `yaml:"db_driver"` // sqlite3 (default) or pgx
	DBDSN      string `yaml:"db_dsn"`
	ListenAddr string `yaml:"listen_addr"` // HTTP listen address (default ":8080")
	LogLevel   string `yaml:"log_level"`   // debug, info, warn, error (default "info")
	Env        string `yaml:"env"`         // "development" (default) or "production"

	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"` // default ["*"]

	Session SessionConfig `yaml:"session"`
	Guard   GuardConfig   `yaml:"guard"`

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string `yaml:"-"`
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite3", "pgx":
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite3 or pgx, got %q", c.DBDriver)
	}
	if c.DBDriver == "pgx" && c.DBDSN == "" {
		return fmt.Errorf("DB_DSN is required when DB_DRIVER=pgx")
	}
	if c.Session.TTL < 0 {
		return fmt.Errorf("SESSION_TTL must not be negative")
	}
	if c.Guard.PageMaxLimit < 0 {
		return fmt.Errorf("PAGE_MAX_LIMIT must not be negative")
	}
	if c.Session.RedisDB < 0 {
		return fmt.Errorf("REDIS_DB must not be negative")
	}
	if c.IsProduction() {
		if c.Session.RedisPassword == "" {
			return fmt.Errorf("REDIS_PASSWORD must be set in production (ENV=production)")
		}
		if len(c.CORSAllowedOrigins) == 1 && c.CORSAllowedOrigins[0] == "*" {
			return fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
	}
	return nil
}

// Load reads the environment, applies the YAML overlay named by
// SQLGUARD_CONFIG when set, fills defaults, and validates the result.
func Load() (*Config, error) {
	cfg := fromEnv()
	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() (*Config, error) {
	cfg := fromEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads configuration from a YAML file only, without consulting the
// environment.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{}
	if err := cfg.mergeFile(path); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromEnv() *Config {
	cfg := &Config{
		DBDriver:   os.Getenv("DB_DRIVER"),
		DBDSN:      os.Getenv("DB_DSN"),
		ListenAddr: os.Getenv("LISTEN_ADDR"),
		LogLevel:   os.Getenv("LOG_LEVEL"),
		Env:        os.Getenv("ENV"),
		Session: SessionConfig{
			RedisAddr:     os.Getenv("REDIS_ADDR"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			Namespace:     os.Getenv("SESSION_NAMESPACE"),
			Sliding:       parseBoolEnvDefault("SESSION_SLIDING", false),
			FailClosed:    parseBoolEnvDefault("SESSION_FAIL_CLOSED", false),
		},
		Guard: GuardConfig{
			VersionColumn:  os.Getenv("VERSION_COLUMN"),
			ScopeMutations: parseBoolEnvDefault("SCOPE_MUTATIONS", false),
		},
	}

	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Session.RedisDB = n
		} else {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("REDIS_DB %q is not an integer, using 0", v))
		}
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Session.TTL = d
		} else {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("SESSION_TTL %q is not a duration, using default", v))
		}
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Session.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Session.RateBurst = n
		}
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = origins
	}
	if v := os.Getenv("PAGE_MAX_LIMIT"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Guard.PageMaxLimit = n
		} else {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("PAGE_MAX_LIMIT %q is not an integer, pages are unbounded", v))
		}
	}
	return cfg
}

// mergeFile overlays the non-zero values of a YAML file onto c.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is operator-controlled
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	overlay(&c.DBDriver, file.DBDriver)
	overlay(&c.DBDSN, file.DBDSN)
	overlay(&c.ListenAddr, file.ListenAddr)
	overlay(&c.LogLevel, file.LogLevel)
	overlay(&c.Env, file.Env)
	if len(file.CORSAllowedOrigins) > 0 {
		c.CORSAllowedOrigins = file.CORSAllowedOrigins
	}

	overlay(&c.Session.RedisAddr, file.Session.RedisAddr)
	overlay(&c.Session.RedisPassword, file.Session.RedisPassword)
	overlay(&c.Session.RedisDB, file.Session.RedisDB)
	overlay(&c.Session.Namespace, file.Session.Namespace)
	overlay(&c.Session.TTL, file.Session.TTL)
	overlay(&c.Session.RateLimitRPS, file.Session.RateLimitRPS)
	overlay(&c.Session.RateBurst, file.Session.RateBurst)
	c.Session.Sliding = c.Session.Sliding || file.Session.Sliding
	c.Session.FailClosed = c.Session.FailClosed || file.Session.FailClosed

	overlay(&c.Guard.PageMaxLimit, file.Guard.PageMaxLimit)
	overlay(&c.Guard.VersionColumn, file.Guard.VersionColumn)
	c.Guard.ScopeMutations = c.Guard.ScopeMutations || file.Guard.ScopeMutations
	return nil
}

func overlay[T comparable](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}

func (c *Config) applyDefaults() {
	if c.DBDriver == "" {
		c.DBDriver = "sqlite3"
	}
	if c.DBDriver == "sqlite3" && c.DBDSN == "" {
		c.DBDSN = "sqlguard.sqlite"
	}
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if len(c.CORSAllowedOrigins) == 0 {
		c.CORSAllowedOrigins = []string{"*"}
	}
	if c.Session.RedisAddr == "" {
		c.Session.RedisAddr = "localhost:6379"
		c.Warnings = append(c.Warnings, "REDIS_ADDR not set, using localhost:6379")
	}
	if c.Session.Namespace == "" {
		c.Session.Namespace = "sys:token"
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = 12 * time.Hour
	}
	if c.Session.RateLimitRPS == 0 {
		c.Session.RateLimitRPS = 100
	}
	if c.Session.RateBurst == 0 {
		c.Session.RateBurst = 200
	}
	if c.Guard.VersionColumn == "" {
		c.Guard.VersionColumn = "version"
	}
	if c.Guard.PageMaxLimit == 0 {
		c.Warnings = append(c.Warnings, "PAGE_MAX_LIMIT not set, page size is unbounded")
	}
}

func parseBoolEnvDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return defaultVal
	}
	if v == "0" || v == "false" || v == "no" || v == "off" {
		return false
	}
	if v == "1" || v == "true" || v == "yes" || v == "on" {
		return true
	}
	return defaultVal
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes matching surrounding double or single quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
