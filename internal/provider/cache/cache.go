package cache

import (
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"optionsgateway/internal/provider"
)

const (
	// DefaultTTL is the fixed lifetime of an entry.
	DefaultTTL = 60 * time.Second
	// DefaultSweep is how often expired entries are evicted.
	DefaultSweep = 120 * time.Second
)

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
	Keys   int    `json:"keys"`
}

// Cache stores canonical results keyed by request shape. Entries expire
// a fixed TTL after they were written, regardless of reads. Stored
// values are shared snapshots and must not be mutated.
type Cache struct {
	items  *gocache.Cache
	hits   atomic.Uint64
	misses atomic.Uint64
}

// New creates a cache. Non-positive values fall back to the defaults.
func New(ttl, sweep time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if sweep <= 0 {
		sweep = DefaultSweep
	}
	return &Cache{items: gocache.New(ttl, sweep)}
}

// Key derives the entry key for an operation.
func Key(endpoint provider.Endpoint, symbol, expiration string) string {
	if expiration != "" {
		return string(endpoint) + ":" + symbol + ":" + expiration
	}
	return string(endpoint) + ":" + symbol
}

// Get returns the live value stored under key.
func (c *Cache) Get(key string) (any, bool) {
	v, ok := c.items.Get(key)
	c.count(ok)
	return v, ok
}

// Lookup is a typed Get. A value of another type counts as a miss.
func Lookup[T any](c *Cache, key string) (T, bool) {
	v, _ := c.items.Get(key)
	t, ok := v.(T)
	c.count(ok)
	return t, ok
}

func (c *Cache) count(hit bool) {
	if hit {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
}

// Set stores value with the default TTL, replacing any existing entry.
func (c *Cache) Set(key string, value any) {
	c.items.SetDefault(key, value)
}

// SetWithTTL stores value with an explicit TTL.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	c.items.Set(key, value, ttl)
}

// Stats reports hit/miss counters and the number of stored keys
// (expired entries count until the next sweep).
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Keys:   c.items.ItemCount(),
	}
}

// Flush drops every entry. Intended for tests and operator tooling.
func (c *Cache) Flush() {
	c.items.Flush()
}
