package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyStore maps Idempotency-Key headers to the order id the key
// originally produced, so a retried checkout returns the same order.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, orderID string) error
}

// RedisIdempotencyStore implements IdempotencyStore on Redis with a TTL.
type RedisIdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisIdempotencyStore creates a new RedisIdempotencyStore.
func NewRedisIdempotencyStore(client *redis.Client, ttl time.Duration) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client, ttl: ttl}
}

func (s *RedisIdempotencyStore) key(k string) string {
	return "idem:checkout:" + k
}

// Get returns the order id recorded for key, or "" when the key is unseen.
func (s *RedisIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, s.key(key)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

// Set records the order id produced under key.
func (s *RedisIdempotencyStore) Set(ctx context.Context, key, orderID string) error {
	return s.client.Set(ctx, s.key(key), orderID, s.ttl).Err()
}
