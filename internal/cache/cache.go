package cache

import (
	"strings"
	"sync"
	"time"
)

// DefaultTTL matches the store-refresh interval the read paths are tuned for.
const DefaultTTL = 5 * time.Minute

type entry struct {
	value      any
	insertedAt time.Time
}

// Cache is an in-process key/value store with a uniform time-to-live.
// Expired entries are evicted lazily on access, there is no background sweep.
// It carries no cross-process coherence: a miss always means "ask the store
// of record", never an error.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
}

func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
	}
}

// Get returns the value for key if it is present and fresh. A stale entry is
// removed and reported as a miss.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Since(e.insertedAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set inserts or overwrites key, resetting its timestamp to now.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, insertedAt: time.Now()}
}

// Has reports whether key is present and fresh, evicting it when stale.
func (c *Cache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	if time.Since(e.insertedAt) >= c.ttl {
		delete(c.entries, key)
		return false
	}
	return true
}

// Delete removes key and reports whether it existed.
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.entries[key]
	delete(c.entries, key)
	return ok
}

// DeleteByPrefix removes every entry whose key starts with prefix and returns
// the number removed. Composite keys use ':' separators, so callers pass a
// separator-terminated prefix ("cart:5:") and cannot swallow a neighbouring
// id ("cart:52:...").
func (c *Cache) DeleteByPrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			count++
		}
	}
	return count
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
