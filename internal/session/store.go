// Package session caches authenticated principals in Redis, keyed by an
// opaque access token, and resolves them back at request entry.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"sqlguard/internal/domain"
)

// DefaultNamespace prefixes every token key.
const DefaultNamespace = "sys:token"

// NoExpiry is the TTL reported for a token stored without expiry.
const NoExpiry time.Duration = -1

const scanBatch = 100

// TokenStore is the session cache. Each principal is stored as JSON under
// "<namespace>:<token>" with the store's native per-key expiry. Reads never
// refresh the expiry; Touch does so explicitly.
type TokenStore struct {
	client     redis.UniversalClient
	namespace  string
	defaultTTL time.Duration
}

// NewTokenStore creates a TokenStore. An empty namespace uses
// DefaultNamespace; defaultTTL is the expiry used by PutDefault.
func NewTokenStore(client redis.UniversalClient, namespace string, defaultTTL time.Duration) *TokenStore {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &TokenStore{client: client, namespace: namespace, defaultTTL: defaultTTL}
}

func (s *TokenStore) key(token string) string {
	return s.namespace + ":" + token
}

// Put stores p under token. A ttl of zero or less stores it without expiry.
// Concurrent puts of the same token are last-write-wins.
func (s *TokenStore) Put(ctx context.Context, token string, p *domain.Principal, ttl time.Duration) error {
	if token == "" {
		return domain.ErrValidation("token is required")
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode principal: %w", err)
	}
	if err := s.client.Set(ctx, s.key(token), payload, ttl).Err(); err != nil {
		return unavailable("put", err)
	}
	return nil
}

// PutDefault stores p with the store's default expiry.
func (s *TokenStore) PutDefault(ctx context.Context, token string, p *domain.Principal) error {
	return s.Put(ctx, token, p, s.defaultTTL)
}

// Get returns the principal stored under token, or (nil, nil) when the token
// is unknown or expired.
func (s *TokenStore) Get(ctx context.Context, token string) (*domain.Principal, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := s.client.Get(ctx, s.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("get", err)
	}
	var p domain.Principal
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode principal for token: %w", err)
	}
	return &p, nil
}

// TTL returns the remaining lifetime of token. The boolean is false when the
// token does not exist; a token without expiry reports NoExpiry.
func (s *TokenStore) TTL(ctx context.Context, token string) (time.Duration, bool, error) {
	d, err := s.client.TTL(ctx, s.key(token)).Result()
	if err != nil {
		return 0, false, unavailable("ttl", err)
	}
	switch {
	case d == -2:
		return 0, false, nil
	case d == -1:
		return NoExpiry, true, nil
	case d < 0:
		return 0, false, nil
	}
	return d, true, nil
}

// Touch resets the expiry of token to ttl. It reports false when the token
// no longer exists.
func (s *TokenStore) Touch(ctx context.Context, token string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ok, err := s.client.Persist(ctx, s.key(token)).Result()
		if err != nil {
			return false, unavailable("touch", err)
		}
		return ok, nil
	}
	ok, err := s.client.Expire(ctx, s.key(token), ttl).Result()
	if err != nil {
		return false, unavailable("touch", err)
	}
	return ok, nil
}

// Delete removes token. Deleting an unknown token is not an error.
func (s *TokenStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil {
		return unavailable("delete", err)
	}
	return nil
}

// ListActiveTokens returns the tokens matching a glob pattern ("*" when
// empty). It iterates with SCAN so large keyspaces are not blocked; tokens
// that expire during the walk may or may not be included.
func (s *TokenStore) ListActiveTokens(ctx context.Context, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*"
	}
	prefix := s.namespace + ":"

	var tokens []string
	iter := s.client.Scan(ctx, 0, prefix+pattern, scanBatch).Iterator()
	for iter.Next(ctx) {
		tokens = append(tokens, strings.TrimPrefix(iter.Val(), prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, unavailable("list", err)
	}
	return tokens, nil
}

func unavailable(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &domain.CacheUnavailableError{Op: op, Err: err}
}
