// Package memory provides a process-local answer cache for deployments
// that run without Postgres. Expiry is lazy: expired entries are dropped
// when read.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/asklegal/engine/internal/core/domain"
)

type Cache struct {
	mu      sync.Mutex
	entries map[string]domain.CacheEntry
	now     func() time.Time
}

func New() *Cache {
	return &Cache{
		entries: make(map[string]domain.CacheEntry),
		now:     time.Now,
	}
}

func (c *Cache) Get(_ context.Context, key string) (domain.CacheEntry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return domain.CacheEntry{}, false, nil
	}
	if entry.Expired(c.now()) {
		delete(c.entries, key)
		return domain.CacheEntry{}, false, nil
	}
	return entry, true, nil
}

func (c *Cache) Put(_ context.Context, entry domain.CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[entry.Key] = entry
	return nil
}
