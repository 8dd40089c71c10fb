package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"sqlguard/internal/domain"
)

// lookupTimeout bounds a shared store lookup once it no longer follows any
// single caller's context.
const lookupTimeout = 5 * time.Second

// ResolverConfig controls session lifetimes.
type ResolverConfig struct {
	// TTL is the lifetime of issued tokens.
	TTL time.Duration
	// Sliding refreshes a token's expiry to TTL on every successful resolve.
	Sliding bool
}

// Resolver turns access tokens into principals. It is safe for concurrent
// use; lookups of the same token in flight at the same time share one round
// trip to the store.
type Resolver struct {
	store  *TokenStore
	cfg    ResolverConfig
	group  singleflight.Group
	now    func() time.Time
	logger *slog.Logger
}

// NewResolver creates a Resolver over store.
func NewResolver(store *TokenStore, cfg ResolverConfig, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, cfg: cfg, now: time.Now, logger: logger}
}

// Resolve returns the principal for token, or (nil, nil) when the token is
// unknown or expired. A *domain.CacheUnavailableError means the store could
// not be asked, which callers must not confuse with "unauthenticated".
func (r *Resolver) Resolve(ctx context.Context, token string) (*domain.Principal, error) {
	if token == "" {
		return nil, nil
	}

	v, err, _ := r.group.Do(token, func() (interface{}, error) {
		// Callers joining this lookup must not fail because the first one
		// went away.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()

		p, err := r.store.Get(ctx, token)
		if err != nil || p == nil {
			return p, err
		}
		if r.cfg.Sliding && r.cfg.TTL > 0 {
			if _, err := r.store.Touch(ctx, token, r.cfg.TTL); err != nil {
				// The principal is valid for this request even if the refresh
				// did not land.
				r.logger.Warn("session refresh failed", "error", err)
			} else {
				p.ExpiresAt = r.now().Add(r.cfg.TTL).UTC()
			}
		}
		return p, nil
	})
	if err != nil {
		var cu *domain.CacheUnavailableError
		if errors.As(err, &cu) {
			r.logger.Warn("principal resolution failed", "op", cu.Op, "error", cu.Err)
		}
		return nil, err
	}

	p, _ := v.(*domain.Principal)
	if p == nil {
		return nil, nil
	}
	// Each caller gets its own copy; shared results must not alias.
	cp := *p
	cp.Scopes = append([]string(nil), p.Scopes...)
	return &cp, nil
}

// Issue stores p under a freshly generated token and returns the token.
func (r *Resolver) Issue(ctx context.Context, p *domain.Principal) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	token := domain.NewID()

	stored := *p
	if r.cfg.TTL > 0 {
		stored.ExpiresAt = r.now().Add(r.cfg.TTL).UTC()
	}
	if err := r.store.Put(ctx, token, &stored, r.cfg.TTL); err != nil {
		return "", err
	}
	r.logger.Info("session issued", "principal_id", p.ID, "ttl", r.cfg.TTL)
	return token, nil
}

// Revoke ends the session for token.
func (r *Resolver) Revoke(ctx context.Context, token string) error {
	return r.store.Delete(ctx, token)
}
