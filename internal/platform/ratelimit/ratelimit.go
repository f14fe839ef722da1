package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	authmw "github.com/corvusHold/rentmail/internal/auth/middleware"
	"github.com/corvusHold/rentmail/internal/metrics"
)

// Policy defines a fixed-window rate limit: Limit requests within Window per derived key.
type Policy struct {
	// Name is a short identifier for the limited endpoint (e.g. "contracts:send").
	Name   string
	Window time.Duration
	Limit  int
	// Key builds the bucket key for this request.
	Key func(echo.Context) string
	Log zerolog.Logger
}

// Store abstracts a shared counter store (e.g., Redis) for fixed-window limiting.
type Store interface {
	// Allow increments the counter for key and reports whether the request is allowed.
	// When it is not, retryAfterSec is the number of seconds until the window resets.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, retryAfterSec int, err error)
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu      sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

type bucket struct {
	start  time.Time
	window time.Duration
	count  int
}

// NewMemoryStore returns an empty in-memory fixed-window store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string]*bucket), now: time.Now}
}

func (m *MemoryStore) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, int, error) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	if now.Sub(m.lastSweep) >= window {
		m.sweep(now)
	}
	b, ok := m.buckets[key]
	if !ok || now.Sub(b.start) >= window {
		m.buckets[key] = &bucket{start: now, window: window, count: 1}
		return true, 0, nil
	}
	if b.count < limit {
		b.count++
		return true, 0, nil
	}
	remaining := window - now.Sub(b.start)
	return false, int((remaining + time.Second - 1) / time.Second), nil
}

// sweep drops buckets whose window has closed. Callers hold m.mu.
func (m *MemoryStore) sweep(now time.Time) {
	for k, b := range m.buckets {
		if now.Sub(b.start) >= b.window {
			delete(m.buckets, k)
		}
	}
	m.lastSweep = now
}

var _ Store = (*MemoryStore)(nil)

// Middleware enforces p with an in-memory store.
// Note: This is process-local. For multi-instance deployments, prefer MiddlewareWithStore with Redis.
func Middleware(p Policy) echo.MiddlewareFunc {
	return MiddlewareWithStore(p, NewMemoryStore())
}

// MiddlewareWithStore uses s for limiting. Store errors fail open.
func MiddlewareWithStore(p Policy, s Store) echo.MiddlewareFunc {
	if p.Window <= 0 {
		p.Window = time.Minute
	}
	if p.Limit <= 0 {
		p.Limit = 60
	}
	if p.Key == nil {
		p.Key = KeyUserOrIP(p.Name)
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := p.Key(c)
			allowed, retryAfter, err := s.Allow(c.Request().Context(), key, p.Limit, p.Window)
			if err != nil {
				p.Log.Warn().Err(err).Str("endpoint", p.Name).Msg("rate limit store unavailable")
				return next(c)
			}
			if allowed {
				return next(c)
			}
			src := "ip"
			if strings.Contains(key, ":uid:") {
				src = "user"
			}
			metrics.IncRateLimitExceeded(p.Name, src)
			p.Log.Warn().
				Str("endpoint", p.Name).
				Str("key", key).
				Int("limit", p.Limit).
				Dur("window", p.Window).
				Int("retry_after", retryAfter).
				Msg("rate limit exceeded")
			if retryAfter > 0 {
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
			}
			return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
		}
	}
}

// KeyUserOrIP keys buckets by the authenticated caller, falling back to the real IP.
// The bearer middleware must run first for the caller to be known.
func KeyUserOrIP(prefix string) func(echo.Context) string {
	return func(c echo.Context) string {
		if uid, ok := authmw.UserID(c); ok {
			return prefix + ":uid:" + uid
		}
		return prefix + ":ip:" + c.RealIP()
	}
}
