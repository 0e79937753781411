// Package cache stores encoded API responses. Values are opaque bytes so the
// memory and redis backends behave the same.
package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Cache is implemented by MemoryCache and RedisCache. Get returns
// domain.ErrCacheMiss for absent or expired keys.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
	Close() error
}

// GetJSON decodes a cached value into dst.
func GetJSON(ctx context.Context, c Cache, key string, dst any) error {
	raw, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// SetJSON encodes value and stores it under key.
func SetJSON(ctx context.Context, c Cache, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, raw, ttl)
}
