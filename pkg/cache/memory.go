package cache

import (
	"context"
	"sync"
)

// MemCache is an in-memory cache backend, safe for concurrent use.
// It is primarily intended for tests.
type MemCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemCache creates an empty in-memory cache.
func NewMemCache() *MemCache {
	return &MemCache{entries: make(map[string][]byte)}
}

// Get retrieves a value from the cache.
func (c *MemCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, true, nil
}

// Set stores a value in the cache.
func (c *MemCache) Set(ctx context.Context, key string, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	c.mu.Lock()
	c.entries[key] = cp
	c.mu.Unlock()
	return nil
}

// Close does nothing for the in-memory cache.
func (c *MemCache) Close() error {
	return nil
}

// Ensure MemCache implements Cache.
var _ Cache = (*MemCache)(nil)
