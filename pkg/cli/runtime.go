package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"sqlguard/internal/app"
	"sqlguard/internal/config"
	internaldb "sqlguard/internal/db"
)

// runtime holds the resources one command invocation opened. close releases
// them in reverse order.
type runtime struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *sql.DB
	redis    *redis.Client
	registry *prometheus.Registry
	app      *app.App
	closers  []func() error
}

func loadRuntime() (*runtime, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}
	return &runtime{cfg: cfg, logger: logger}, nil
}

func (rt *runtime) openDB(ctx context.Context) (*sql.DB, error) {
	if rt.db != nil {
		return rt.db, nil
	}
	db, err := internaldb.Open(ctx, rt.cfg.DBDriver, rt.cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	rt.db = db
	rt.closers = append(rt.closers, db.Close)
	return db, nil
}

func (rt *runtime) openRedis() *redis.Client {
	if rt.redis != nil {
		return rt.redis
	}
	rt.redis = redis.NewClient(&redis.Options{
		Addr:     rt.cfg.Session.RedisAddr,
		Password: rt.cfg.Session.RedisPassword,
		DB:       rt.cfg.Session.RedisDB,
	})
	rt.closers = append(rt.closers, rt.redis.Close)
	return rt.redis
}

// wire opens the database and session store and builds the application.
func (rt *runtime) wire(ctx context.Context) (*app.App, error) {
	if rt.app != nil {
		return rt.app, nil
	}
	db, err := rt.openDB(ctx)
	if err != nil {
		return nil, err
	}
	rt.registry = prometheus.NewRegistry()
	rt.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db, "sqlguard"),
	)
	rt.app = app.New(app.Deps{
		Cfg:      rt.cfg,
		DB:       db,
		Redis:    rt.openRedis(),
		Registry: rt.registry,
		Logger:   rt.logger,
	})
	return rt.app, nil
}

func (rt *runtime) close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			rt.logger.Warn("close resource", "error", err)
		}
	}
}
