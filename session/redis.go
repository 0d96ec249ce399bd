package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisRecordKeyPrefix = "casr"

var errRedisBackend = errors.New("session storage backend unavailable")

// RedisStorage is a durable tier backed by Redis, for deployments where the
// console shell is server-mediated and one session record exists per
// browser identity. Records expire with the refresh token lifetime so Redis
// never accumulates dead sessions.
type RedisStorage struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisStorage creates a Redis-backed tier. scopeID distinguishes
// concurrent session owners (for example a shell session cookie id); ttl of
// zero stores records without expiry.
func NewRedisStorage(client *redis.Client, scopeID string, ttl time.Duration) *RedisStorage {
	return &RedisStorage{
		client: client,
		key:    redisRecordKeyPrefix + ":" + scopeID,
		ttl:    ttl,
	}
}

// Read returns the stored record or [ErrNoRecord].
func (r *RedisStorage) Read(ctx context.Context) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoRecord
		}
		return nil, fmt.Errorf("%w: %v", errRedisBackend, err)
	}
	return data, nil
}

// Write replaces the stored record and resets its TTL.
func (r *RedisStorage) Write(ctx context.Context, record []byte) error {
	if err := r.client.Set(ctx, r.key, record, r.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", errRedisBackend, err)
	}
	return nil
}

// Clear deletes the stored record. Deleting a missing record is not an
// error.
func (r *RedisStorage) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("%w: %v", errRedisBackend, err)
	}
	return nil
}
