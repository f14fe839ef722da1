package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/corvusHold/rentmail/internal/metrics"
	domain "github.com/corvusHold/rentmail/internal/users/domain"
)

// Ensure Cached implements domain.Repository
var _ domain.Repository = (*Cached)(nil)

// Cached is a cache-aside decorator over a Repository for single-user lookups.
// Cache failures never fail the call; the underlying store stays authoritative.
type Cached struct {
	next domain.Repository
	rc   redis.Cmdable
	ttl  time.Duration
	log  zerolog.Logger
}

func NewCached(next domain.Repository, rc redis.Cmdable, ttl time.Duration, log zerolog.Logger) *Cached {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cached{next: next, rc: rc, ttl: ttl, log: log}
}

func cacheKey(uid string) string { return "users:" + uid }

func (c *Cached) GetByID(ctx context.Context, uid string) (domain.AppUser, error) {
	raw, err := c.rc.Get(ctx, cacheKey(uid)).Bytes()
	switch {
	case err == nil:
		var u domain.AppUser
		if jerr := json.Unmarshal(raw, &u); jerr == nil {
			metrics.IncUserCache("hit")
			return u, nil
		}
		metrics.IncUserCache("error")
	case errors.Is(err, redis.Nil):
		metrics.IncUserCache("miss")
	default:
		metrics.IncUserCache("error")
		c.log.Warn().Err(err).Str("uid", uid).Msg("user cache read failed")
	}

	u, err := c.next.GetByID(ctx, uid)
	if err != nil {
		return u, err
	}
	if b, err := json.Marshal(u); err == nil {
		if err := c.rc.Set(ctx, cacheKey(uid), b, c.ttl).Err(); err != nil {
			c.log.Warn().Err(err).Str("uid", uid).Msg("user cache write failed")
		}
	}
	return u, nil
}

func (c *Cached) ListByType(ctx context.Context, t domain.UserType) ([]domain.AppUser, error) {
	return c.next.ListByType(ctx, t)
}

func (c *Cached) Upsert(ctx context.Context, u domain.AppUser) error {
	if err := c.next.Upsert(ctx, u); err != nil {
		return err
	}
	c.evict(ctx, u.UID)
	return nil
}

func (c *Cached) Delete(ctx context.Context, uid string) error {
	err := c.next.Delete(ctx, uid)
	// evict even on not-found so a stale entry cannot outlive the record
	c.evict(ctx, uid)
	return err
}

func (c *Cached) evict(ctx context.Context, uid string) {
	if err := c.rc.Del(ctx, cacheKey(uid)).Err(); err != nil {
		c.log.Warn().Err(err).Str("uid", uid).Msg("user cache evict failed")
	}
}
