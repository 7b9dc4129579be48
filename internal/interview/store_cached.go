package interview

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"gezy-backend/internal/shared/telemetry"
)

// CachedStore serves reads from a Redis cache in front of a durable Store.
// Writes go to the durable store first; the cache is refreshed after success
// and dropped on conflict.
type CachedStore struct {
	Durable Store
	client  *redis.Client
	ttl     time.Duration
}

func NewCachedStore(durable Store, client *redis.Client, ttl time.Duration) *CachedStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedStore{Durable: durable, client: client, ttl: ttl}
}

func cacheKey(id string) string { return "interview:cache:" + id }

func (c *CachedStore) Create(ctx context.Context, s Session) error {
	if err := c.Durable.Create(ctx, s); err != nil {
		return err
	}
	c.set(ctx, s)
	return nil
}

func (c *CachedStore) Get(ctx context.Context, id string) (Session, error) {
	data, err := c.client.Get(ctx, cacheKey(id)).Bytes()
	if err == nil {
		var s Session
		if jerr := json.Unmarshal(data, &s); jerr == nil {
			return s, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		telemetry.Warn("interview.cache_read_failed", map[string]any{"session_id": id, "error": err})
	}

	s, err := c.Durable.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	c.set(ctx, s)
	return s, nil
}

func (c *CachedStore) Update(ctx context.Context, s Session) error {
	if err := c.Durable.Update(ctx, s); err != nil {
		if errors.Is(err, ErrVersionConflict) || errors.Is(err, ErrSessionCompleted) {
			c.client.Del(ctx, cacheKey(s.ID))
		}
		return err
	}
	c.set(ctx, s)
	return nil
}

func (c *CachedStore) LatestCompleted(ctx context.Context, caseID string) (Session, error) {
	return c.Durable.LatestCompleted(ctx, caseID)
}

func (c *CachedStore) set(ctx context.Context, s Session) {
	data, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(s.ID), data, c.ttl).Err(); err != nil {
		telemetry.Warn("interview.cache_write_failed", map[string]any{"session_id": s.ID, "error": err})
	}
}

var _ Store = (*CachedStore)(nil)
