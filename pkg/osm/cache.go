package osm

import (
	"sync"
	"time"
)

// entry pairs a cached value with its expiry deadline.
type entry[V any] struct {
	value   V
	staleAt time.Time
}

// TTLCache is a small thread-safe map cache where every entry shares one
// lifetime. Expired entries are dropped lazily on read and swept
// opportunistically on writes, so no background goroutine is needed for
// the short-lived geocode results it holds.
type TTLCache[K comparable, V any] struct {
	ttl    time.Duration
	mu     sync.Mutex
	data   map[K]entry[V]
	writes int
}

// sweepEvery controls how many Set calls pass between full sweeps of
// expired entries.
const sweepEvery = 64

// NewTTLCache returns an empty cache whose entries live for ttl.
func NewTTLCache[K comparable, V any](ttl time.Duration) *TTLCache[K, V] {
	return &TTLCache[K, V]{
		ttl:  ttl,
		data: make(map[K]entry[V]),
	}
}

// Get returns the live value for key, dropping it if it has expired.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.data[key]
	if !ok {
		var zero V
		return zero, false
	}
	if time.Now().After(e.staleAt) {
		delete(c.data, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key for the cache's TTL. Every sweepEvery-th
// call also evicts any entries that have gone stale in the meantime.
func (c *TTLCache[K, V]) Set(key K, value V) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.writes++
	if c.writes%sweepEvery == 0 {
		for k, e := range c.data {
			if now.After(e.staleAt) {
				delete(c.data, k)
			}
		}
	}

	c.data[key] = entry[V]{value: value, staleAt: now.Add(c.ttl)}
}

// Delete removes key from the cache if present.
func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Clear drops every entry.
func (c *TTLCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[K]entry[V])
}

// Size reports the number of entries, including any not yet swept.
func (c *TTLCache[K, V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}
