package dedupe

import (
	"sync"
	"time"
)

type entry struct {
	id string
	ts time.Time
}

type fingerprint struct {
	hash string
	ts   time.Time
}

// Cache keeps a fixed-size map of page id -> content fingerprint so the
// worker can skip reindexing pages whose record has not changed.
type Cache struct {
	mu       sync.Mutex
	items    map[string]fingerprint
	order    []entry
	capacity int
	ttl      time.Duration
}

// NewCache creates a cache with the provided capacity and ttl.
func NewCache(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = 1
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{
		items:    make(map[string]fingerprint, capacity),
		order:    make([]entry, 0, capacity),
		capacity: capacity,
		ttl:      ttl,
	}
}

// Unchanged returns true when the page was indexed with the same fingerprint
// inside the ttl window. It does not record anything; use Remember for that.
func (c *Cache) Unchanged(id, hash string) bool {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if fp, ok := c.items[id]; ok {
		if fp.hash == hash && now.Sub(fp.ts) <= c.ttl {
			return true
		}
	}
	return false
}

// Remember records the fingerprint a page was last indexed with.
func (c *Cache) Remember(id, hash string) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[id] = fingerprint{hash: hash, ts: now}
	c.order = append(c.order, entry{id: id, ts: now})
	c.compact(now)
}

// Forget drops a page, typically after its record was deleted from the index.
func (c *Cache) Forget(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, id)
}

func (c *Cache) compact(now time.Time) {
	cutoff := now.Add(-c.ttl)

	for len(c.order) > 0 && (len(c.items) > c.capacity || c.order[0].ts.Before(cutoff)) {
		oldest := c.order[0]
		c.order = c.order[1:]

		if fp, ok := c.items[oldest.id]; ok {
			if fp.ts == oldest.ts {
				delete(c.items, oldest.id)
			}
		}
	}
}
