// Package cache is a JSON read-through cache in front of expensive reads.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "solarops:"

type Cache interface {
	// Get decodes the value at key into dst and reports whether it was found.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient dials Redis and pings it once.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		// A value written by an older build; drop it and miss.
		_ = c.client.Del(ctx, keyPrefix+key).Err()
		return false, nil
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, keyPrefix+key, raw, ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = keyPrefix + key
	}
	return c.client.Del(ctx, prefixed...).Err()
}

// Noop never hits; used when Redis is not configured.
type Noop struct{}

func (Noop) Get(context.Context, string, any) (bool, error) { return false, nil }

func (Noop) Set(context.Context, string, any, time.Duration) error { return nil }

func (Noop) Delete(context.Context, ...string) error { return nil }

// Fetch returns the cached value at key or loads, stores and returns it.
// Cache failures are logged and fall through to load.
func Fetch[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var cached T
	if c != nil {
		hit, err := c.Get(ctx, key, &cached)
		if err != nil {
			slog.Warn("cache get failed", "key", key, "err", err)
		}
		if hit {
			return cached, nil
		}
	}
	value, err := load(ctx)
	if err != nil {
		return value, err
	}
	if c != nil {
		if err := c.Set(ctx, key, value, ttl); err != nil {
			slog.Warn("cache set failed", "key", key, "err", err)
		}
	}
	return value, nil
}
