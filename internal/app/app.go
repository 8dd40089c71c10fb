// Package app provides application-level wiring for the guarded engine, its
// session resolver, and the HTTP surface.
package app

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"sqlguard/internal/api"
	"sqlguard/internal/config"
	internaldb "sqlguard/internal/db"
	"sqlguard/internal/engine"
	"sqlguard/internal/interceptor"
	"sqlguard/internal/middleware"
	"sqlguard/internal/session"
	"sqlguard/internal/sqlast"
)

// Deps holds the external dependencies that main() must provide: the
// database pool, the session store client, and the metrics registry.
type Deps struct {
	Cfg      *config.Config
	DB       *sql.DB
	Redis    redis.UniversalClient
	Registry *prometheus.Registry // nil disables metrics
	Logger   *slog.Logger
}

// App holds the fully-wired application.
type App struct {
	Engine      *engine.GuardedEngine
	Store       *session.TokenStore
	Resolver    *session.Resolver
	RateLimiter *middleware.TokenRateLimiter
	Handler     http.Handler
}

// New wires the engine, session resolver, and router from deps.
func New(deps Deps) *App {
	cfg := deps.Cfg
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var metrics *engine.Metrics
	var gatherer prometheus.Gatherer
	if deps.Registry != nil {
		metrics = engine.NewMetrics(deps.Registry)
		gatherer = deps.Registry
	}

	paramStyle := sqlast.ParamQuestion
	if cfg.DBDriver == internaldb.DriverPostgres {
		paramStyle = sqlast.ParamDollar
	}

	eng := engine.NewGuardedEngine(deps.DB, engine.Config{
		Interceptors: interceptor.Config{
			ScopeMutations: cfg.Guard.ScopeMutations,
			MaxLimit:       cfg.Guard.PageMaxLimit,
			VersionColumn:  cfg.Guard.VersionColumn,
		},
		ParamStyle: paramStyle,
		Metrics:    metrics,
	}, logger.With("component", "engine"))

	store := session.NewTokenStore(deps.Redis, cfg.Session.Namespace, cfg.Session.TTL)
	resolver := session.NewResolver(store, session.ResolverConfig{
		TTL:     cfg.Session.TTL,
		Sliding: cfg.Session.Sliding,
	}, logger.With("component", "session"))

	limiter := middleware.NewTokenRateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.Session.RateLimitRPS,
		Burst:             cfg.Session.RateBurst,
	})

	handler := api.NewHandler(eng, resolver, api.OrgScope, logger.With("component", "api"))
	router := api.NewRouter(handler, api.RouterConfig{
		Resolver:       resolver,
		Session:        middleware.SessionConfig{FailClosed: cfg.Session.FailClosed},
		RateLimiter:    limiter,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Gatherer:       gatherer,
		Logger:         logger,
	})

	return &App{
		Engine:      eng,
		Store:       store,
		Resolver:    resolver,
		RateLimiter: limiter,
		Handler:     router,
	}
}
