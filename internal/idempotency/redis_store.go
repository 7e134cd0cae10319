package idempotency

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/allisson/orders/internal/errors"
)

// RedisStore implements Store on a shared Redis instance. Records expire
// after the configured TTL, after which the key becomes eligible for reuse.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore with the given TTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// NewRedisClient creates a Redis client from a connection URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// Get returns the record for (tenantID, key), or nil on a miss.
func (s *RedisStore) Get(ctx context.Context, tenantID, key string) (*Record, error) {
	raw, err := s.client.Get(ctx, redisKey(tenantID, key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, apperrors.Wrap(err, "failed to read idempotency record")
	}

	var record Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode idempotency record")
	}

	return &record, nil
}

// PutIfAbsent stores the record with SET NX so concurrent writers for the
// same unseen key resolve to exactly one winner.
func (s *RedisStore) PutIfAbsent(ctx context.Context, tenantID, key string, record Record) (bool, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to encode idempotency record")
	}

	won, err := s.client.SetNX(ctx, redisKey(tenantID, key), raw, s.ttl).Result()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to store idempotency record")
	}

	return won, nil
}

// Ping verifies connectivity to the idempotency cache, used by readiness checks.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// redisKey builds the tenant-scoped cache key.
func redisKey(tenantID, key string) string {
	return fmt.Sprintf("idempotency:%s:%s", tenantID, key)
}
