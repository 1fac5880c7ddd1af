package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/brandao-20/mcp-server-ipma/internal/observability"
)

// Cache is the storage behind the get-or-fetch layer. Values are raw JSON
// documents; Get reports presence explicitly so callers can distinguish a
// miss from an empty payload.
type Cache interface {
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)
	Set(ctx context.Context, key string, value json.RawMessage, ttl time.Duration) error
}

// InMemoryCache is a fixed-capacity TTL cache. Insertion beyond capacity
// evicts the oldest-inserted entry (insertion order, not LRU access order);
// re-setting a key moves it to the back. TTL is measured from insertion, no
// sliding expiry. Expired entries are removed on access. Safe for concurrent
// use.
type InMemoryCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]cacheEntry
	order    []string
}

// cacheEntry stores a cached document with its expiration timestamp.
type cacheEntry struct {
	value     json.RawMessage
	expiresAt time.Time
}

// NewInMemoryCache creates an in-memory cache holding at most capacity
// entries.
func NewInMemoryCache(capacity int) *InMemoryCache {
	if capacity <= 0 {
		capacity = 128
	}
	return &InMemoryCache{
		capacity: capacity,
		entries:  make(map[string]cacheEntry, capacity),
	}
}

// Get retrieves the cached document for the key if present and not expired.
// Returns (value, true, nil) on hit, (nil, false, nil) on miss or expiry.
func (c *InMemoryCache) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}

	if time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		c.removeFromOrder(key)
		return nil, false, nil
	}

	return entry.value, true, nil
}

// Set stores a document under key with the given TTL, evicting the
// oldest-inserted entry if the cache is full.
func (c *InMemoryCache) Set(ctx context.Context, key string, value json.RawMessage, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.removeFromOrder(key)
	} else if len(c.entries) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
		observability.CacheEvictionsTotal.Inc()
	}

	c.entries[key] = cacheEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	c.order = append(c.order, key)
	return nil
}

// Len reports the number of stored entries, including not-yet-collected
// expired ones.
func (c *InMemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// removeFromOrder drops key from the insertion-order slice. Callers hold mu.
func (c *InMemoryCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
