package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig bounds how often one client may present access tokens.
// Every presented token costs a session store round trip, so unbounded
// probing with made-up tokens would load the store.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate (tokens added per second).
	RequestsPerSecond float64
	// Burst is the number of requests allowed at once.
	Burst int
	// IdleTTL drops a client's bucket after this long without requests.
	// Zero means ten minutes.
	IdleTTL time.Duration
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// TokenRateLimiter holds one token bucket per client address.
type TokenRateLimiter struct {
	cfg     RateLimitConfig
	mu      sync.Mutex
	clients map[string]*clientBucket
}

// NewTokenRateLimiter creates a limiter. Run Sweep in the background to drop
// idle clients.
func NewTokenRateLimiter(cfg RateLimitConfig) *TokenRateLimiter {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	return &TokenRateLimiter{cfg: cfg, clients: make(map[string]*clientBucket)}
}

func (l *TokenRateLimiter) bucket(client string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.clients[client]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(rate.Limit(l.cfg.RequestsPerSecond), l.cfg.Burst)}
		l.clients[client] = b
	}
	b.lastSeen = now
	return b.limiter
}

// Sweep drops idle buckets every interval until ctx is done.
func (l *TokenRateLimiter) Sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.sweep(now)
		}
	}
}

func (l *TokenRateLimiter) sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, b := range l.clients {
		if now.Sub(b.lastSeen) > l.cfg.IdleTTL {
			delete(l.clients, k)
		}
	}
}

// Middleware rejects requests that carry an access token once the client has
// exceeded its rate, with 429 and a Retry-After header. Requests without a
// token never reach the session store and are not counted.
func (l *TokenRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if AccessToken(r) == "" {
			next.ServeHTTP(w, r)
			return
		}

		limiter := l.bucket(clientIP(r), time.Now())
		reservation := limiter.Reserve()
		if !reservation.OK() {
			writeTooManyRequests(w, 0)
			return
		}
		if delay := reservation.Delay(); delay > 0 {
			reservation.Cancel()
			writeTooManyRequests(w, int(delay.Seconds())+1)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.cfg.Burst))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(limiter.Tokens())))
		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the client address from RemoteAddr. X-Forwarded-For is
// ignored because clients control it.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeTooManyRequests(w http.ResponseWriter, retryAfterSecs int) {
	if retryAfterSecs > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSecs))
	}
	writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
}
