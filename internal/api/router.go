package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sqlguard/internal/middleware"
)

// RouterConfig holds what the router needs besides the handler.
type RouterConfig struct {
	Resolver       middleware.PrincipalResolver
	Session        middleware.SessionConfig
	RateLimiter    *middleware.TokenRateLimiter // optional
	AllowedOrigins []string
	Gatherer       prometheus.Gatherer // nil serves no /metrics
	Logger         *slog.Logger
}

// NewRouter mounts the public health endpoints and the authenticated /v1 routes.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Recoverer)
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
			AllowedHeaders: []string{"Authorization", "Content-Type", middleware.HeaderRequestID},
			ExposedHeaders: []string{middleware.HeaderRequestID},
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Middleware)
		}
		if cfg.Session.Logger == nil {
			cfg.Session.Logger = cfg.Logger
		}
		r.Use(middleware.Session(cfg.Resolver, cfg.Session))
		r.Use(middleware.RequirePrincipal)

		r.Post("/query", h.ExecuteQuery)
		r.Get("/session", h.CurrentSession)
		r.Delete("/session", h.RevokeSession)
	})
	return r
}
