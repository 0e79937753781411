package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"pennycentral/internal/domain"
)

type memoryEntry struct {
	value      []byte
	expiration time.Time
}

// MemoryCache is a thread-safe in-process cache with TTL support.
type MemoryCache struct {
	mu   sync.RWMutex
	data map[string]memoryEntry
	done chan struct{}
	once sync.Once
	now  func() time.Time
}

// NewMemoryCache starts a janitor that drops expired entries every
// cleanupEvery until Close is called.
func NewMemoryCache(cleanupEvery time.Duration) *MemoryCache {
	c := &MemoryCache{
		data: make(map[string]memoryEntry),
		done: make(chan struct{}),
		now:  time.Now,
	}
	if cleanupEvery > 0 {
		go c.cleanupExpired(cleanupEvery)
	}
	return c
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.data[key]
	if !ok || c.now().After(e.expiration) {
		return nil, domain.ErrCacheMiss
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = memoryEntry{value: stored, expiration: c.now().Add(ttl)}
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *MemoryCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.data {
		if strings.HasPrefix(key, prefix) {
			delete(c.data, key)
		}
	}
	return nil
}

// Size returns the number of stored entries, expired ones included.
func (c *MemoryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

func (c *MemoryCache) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *MemoryCache) cleanupExpired(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.purge()
		}
	}
}

func (c *MemoryCache) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, e := range c.data {
		if now.After(e.expiration) {
			delete(c.data, key)
		}
	}
}
