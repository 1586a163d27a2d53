package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps entries in Redis. The expiry travels inside the value so the
// lazy read check matches the other stores; the native TTL only bounds memory.
type RedisStore struct {
	rdb *redis.Client
	now func() time.Time
}

type redisEnvelope struct {
	Payload   []byte `json:"payload"`
	ExpiresAt int64  `json:"expires_at,omitempty"` // unix millis, 0 = never
}

// NewRedisStore creates a RedisStore on top of an existing client.
func NewRedisStore(rdb *redis.Client, now func() time.Time) *RedisStore {
	if now == nil {
		now = time.Now
	}
	return &RedisStore{rdb: rdb, now: now}
}

// Get fetches and decodes key.
func (s *RedisStore) Get(ctx context.Context, key string) (*Entry, error) {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var env redisEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope %s: %w", key, err)
	}

	entry := &Entry{Key: key, Payload: env.Payload}
	if env.ExpiresAt > 0 {
		entry.ExpiresAt = time.UnixMilli(env.ExpiresAt)
	}

	if entry.Expired(s.now()) {
		if err := s.rdb.Del(ctx, key).Err(); err != nil {
			return nil, fmt.Errorf("redis purge %s: %w", key, err)
		}
		return nil, ErrNotFound
	}
	return entry, nil
}

// Put wraps payload in an envelope and stores it.
func (s *RedisStore) Put(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	env := redisEnvelope{Payload: payload}
	if exp := expiryFor(s.now(), ttl); !exp.IsZero() {
		env.ExpiresAt = exp.UnixMilli()
	}

	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope %s: %w", key, err)
	}

	if ttl < 0 {
		ttl = 0
	}
	if err := s.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Remove deletes key.
func (s *RedisStore) Remove(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
