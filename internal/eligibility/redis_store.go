package eligibility

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares cached verdicts across portal instances. Redis owns
// expiry via key TTLs.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisStore creates a Redis-backed store with the given TTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if client == nil {
		panic("eligibility: redis client required")
	}
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &RedisStore{client: client, ttl: ttl, prefix: "eligibility:"}
}

// Get returns the cached result; expired keys read as misses.
func (r *RedisStore) Get(ctx context.Context, key string) (Result, bool, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Result{}, false, nil
		}
		return Result{}, false, fmt.Errorf("eligibility: redis get: %w", err)
	}
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return Result{}, false, fmt.Errorf("eligibility: decode cached result: %w", err)
	}
	return result, true, nil
}

// Set replaces the entry wholesale with a fresh TTL.
func (r *RedisStore) Set(ctx context.Context, key string, result Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("eligibility: encode result: %w", err)
	}
	if err := r.client.Set(ctx, r.prefix+key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("eligibility: redis set: %w", err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
