package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if client == nil {
		return false, nil
	}
	s, err := client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, b, ttl).Err()
}

// Aside tries Redis first and on a miss calls fetch, which must populate dest,
// then stores dest with ttl. Cache read and write failures fall through to fetch.
// hit reports whether dest came from Redis.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) (hit bool, err error) {
	found, err := GetJSON(ctx, key, dest)
	if err == nil && found {
		return true, nil
	}

	if err := fetch(); err != nil {
		return false, err
	}

	_ = SetJSON(ctx, key, dest, ttl)
	return false, nil
}

// Invalidate deletes the given keys. Missing keys and a disabled cache are not errors.
func Invalidate(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	client.Del(ctx, keys...)
}
