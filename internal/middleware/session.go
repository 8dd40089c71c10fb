package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"sqlguard/internal/domain"
)

// PrincipalResolver looks up the principal behind an access token.
type PrincipalResolver interface {
	Resolve(ctx context.Context, token string) (*domain.Principal, error)
}

// SessionConfig configures the Session middleware.
type SessionConfig struct {
	// FailClosed answers 503 when the session store is unavailable instead
	// of continuing without a principal.
	FailClosed bool
	Logger     *slog.Logger
}

// Session resolves the request's access token once at entry and attaches the
// principal to the request context. Requests without a token, or with an
// unknown one, continue without a principal; RequirePrincipal rejects them
// where that matters.
//
// When the store cannot be reached the failure is recorded with
// domain.WithResolutionError so handlers can tell it apart from an
// unauthenticated request.
func Session(resolver PrincipalResolver, cfg SessionConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := AccessToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			p, err := resolver.Resolve(ctx, token)
			if err != nil {
				var cu *domain.CacheUnavailableError
				if !errors.As(err, &cu) {
					logger.Error("resolve session", "request_id", domain.RequestIDFromContext(ctx), "error", err)
					writeError(w, http.StatusInternalServerError, "session lookup failed")
					return
				}
				if cfg.FailClosed {
					writeError(w, http.StatusServiceUnavailable, "session store unavailable")
					return
				}
				next.ServeHTTP(w, r.WithContext(domain.WithResolutionError(ctx, err)))
				return
			}

			next.ServeHTTP(w, r.WithContext(domain.WithPrincipal(ctx, p)))
		})
	}
}

// RequirePrincipal answers 401 for requests without a resolved principal.
func RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := domain.PrincipalFromContext(r.Context()); !ok {
			if domain.ResolutionErrorFromContext(r.Context()) != nil {
				writeError(w, http.StatusServiceUnavailable, "session store unavailable")
				return
			}
			writeError(w, http.StatusUnauthorized, "unauthorized: provide a valid access token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AccessToken returns the bearer token of r, falling back to the
// access_token query parameter.
func AccessToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return strings.TrimSpace(auth)
	}
	return r.URL.Query().Get("access_token")
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    code,
		"message": message,
	})
}
