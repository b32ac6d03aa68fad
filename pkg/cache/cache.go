// Package cache provides a Redis-backed read-through cache for catalog
// reads. Values are stored as JSON. When Redis is unreachable the cache
// degrades to a no-op so the store remains the source of truth.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rajatverma/kirana/config"
	"github.com/rajatverma/kirana/pkg/metrics"
)

var rdb *redis.Client

// Connect initialises the Redis client and verifies the connection with a
// ping. Returns an error so the caller can log a warning and continue.
func Connect(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr(),
		Password: config.RedisPassword(),
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache: redis ping: %w", err)
	}

	rdb = client
	return nil
}

// Close releases the Redis connection.
func Close() {
	if rdb != nil {
		_ = rdb.Close()
		rdb = nil
	}
}

// Get retrieves a cached value by key and unmarshals into dest.
// Returns true on a cache hit, false on miss, error, or no Redis.
func Get(ctx context.Context, key string, dest interface{}) bool {
	if rdb == nil {
		return false
	}

	val, err := rdb.Get(ctx, key).Result()
	if err != nil {
		metrics.CacheMisses.Inc()
		return false
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		metrics.CacheMisses.Inc()
		return false
	}

	metrics.CacheHits.Inc()
	return true
}

// Set stores value under key for the given TTL.
func Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if rdb == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return rdb.Set(ctx, key, data, ttl).Err()
}

// Del removes one or more keys.
func Del(ctx context.Context, keys ...string) error {
	if rdb == nil || len(keys) == 0 {
		return nil
	}
	return rdb.Del(ctx, keys...).Err()
}

// DelPrefix removes every key under prefix. Used to invalidate listing
// caches after a catalog mutation.
func DelPrefix(ctx context.Context, prefix string) error {
	if rdb == nil {
		return nil
	}

	iter := rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return Del(ctx, keys...)
}
