package interview

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions in Redis with a TTL. Updates run under WATCH so a
// concurrent writer aborts the transaction instead of overwriting it.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

func sessionKey(id string) string { return "interview:session:" + id }

func caseCompletedKey(caseID string) string { return "interview:case:" + caseID + ":completed" }

func (r *RedisStore) Create(ctx context.Context, s Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	ok, err := r.client.SetNX(ctx, sessionKey(s.ID), data, r.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrVersionConflict
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (Session, error) {
	return r.get(ctx, r.client, id)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *RedisStore) get(ctx context.Context, c getter, id string) (Session, error) {
	data, err := c.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, err
	}
	if s.Responses == nil {
		s.Responses = []Response{}
	}
	return s, nil
}

func (r *RedisStore) Update(ctx context.Context, s Session) error {
	key := sessionKey(s.ID)
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := r.get(ctx, tx, s.ID)
		if err != nil {
			return err
		}
		if err := checkTransition(cur, s); err != nil {
			return err
		}
		data, err := json.Marshal(s)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.ttl)
			if s.Status == StatusCompleted && s.CompletedAt != nil {
				idx := caseCompletedKey(s.CaseID)
				pipe.ZAdd(ctx, idx, redis.Z{Score: float64(s.CompletedAt.UnixNano()), Member: s.ID})
				pipe.Expire(ctx, idx, r.ttl)
			}
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrVersionConflict
	}
	return err
}

// LatestCompleted skips index entries whose session has already expired.
func (r *RedisStore) LatestCompleted(ctx context.Context, caseID string) (Session, error) {
	ids, err := r.client.ZRevRange(ctx, caseCompletedKey(caseID), 0, -1).Result()
	if err != nil {
		return Session{}, err
	}
	for _, id := range ids {
		s, err := r.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		return s, err
	}
	return Session{}, ErrNotFound
}

var _ Store = (*RedisStore)(nil)
