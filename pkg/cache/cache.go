// Package cache provides caching for geocoding and routing responses
// to reduce calls to the external services.
package cache

import (
	"sync"
	"time"
)

// record is a stored value with its expiry time. A zero expiry means the
// record never expires.
type record struct {
	value    interface{}
	expireAt time.Time
}

func (r record) expired(now time.Time) bool {
	return !r.expireAt.IsZero() && now.After(r.expireAt)
}

// TTLCache is a thread-safe string-keyed cache with per-entry expiry and a
// size cap. When the cap is exceeded, the entries closest to expiry are
// evicted first.
type TTLCache struct {
	mu         sync.RWMutex
	records    map[string]record
	defaultTTL time.Duration
	maxItems   int
	stop       chan struct{}
	stopOnce   sync.Once
}

// NewTTLCache builds a cache. defaultTTL of 0 means entries never expire,
// cleanupInterval of 0 disables the background sweeper, and maxItems of 0
// means unbounded.
func NewTTLCache(defaultTTL, cleanupInterval time.Duration, maxItems int) *TTLCache {
	c := &TTLCache{
		records:    make(map[string]record),
		defaultTTL: defaultTTL,
		maxItems:   maxItems,
		stop:       make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go c.sweepLoop(cleanupInterval)
	}

	return c
}

// Set stores value under key with the cache's default TTL.
func (c *TTLCache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores value under key, expiring after ttl. A ttl of 0 keeps
// the entry until it is evicted or deleted.
func (c *TTLCache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	rec := record{value: value}
	if ttl > 0 {
		rec.expireAt = time.Now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.records[key] = rec
	if c.maxItems > 0 {
		for len(c.records) > c.maxItems {
			c.evictSoonestLocked()
		}
	}
}

// Get returns the value for key if it exists and has not expired. Expired
// entries are removed on access.
func (c *TTLCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	rec, found := c.records[key]
	c.mu.RUnlock()

	if !found {
		return nil, false
	}
	if rec.expired(time.Now()) {
		c.Delete(key)
		return nil, false
	}
	return rec.value, true
}

// Delete removes key from the cache.
func (c *TTLCache) Delete(key string) {
	c.mu.Lock()
	delete(c.records, key)
	c.mu.Unlock()
}

// Count returns the number of stored entries.
func (c *TTLCache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Clear removes every entry.
func (c *TTLCache) Clear() {
	c.mu.Lock()
	c.records = make(map[string]record)
	c.mu.Unlock()
}

// Stop halts the background sweeper. Safe to call more than once.
func (c *TTLCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

// evictSoonestLocked removes the entry nearest to expiry. Entries without
// an expiry are only evicted once all expiring entries are gone. Caller
// must hold the write lock.
func (c *TTLCache) evictSoonestLocked() {
	var victim string
	var victimAt time.Time
	first := true

	for k, rec := range c.records {
		at := rec.expireAt
		if at.IsZero() {
			continue
		}
		if first || at.Before(victimAt) {
			victim, victimAt = k, at
			first = false
		}
	}

	if first {
		// Nothing carries an expiry; drop an arbitrary entry.
		for k := range c.records {
			victim = k
			break
		}
	}

	delete(c.records, victim)
}

func (c *TTLCache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stop:
			return
		}
	}
}

// deleteExpired removes every entry past its expiry.
func (c *TTLCache) deleteExpired() {
	now := time.Now()

	c.mu.Lock()
	for k, rec := range c.records {
		if rec.expired(now) {
			delete(c.records, k)
		}
	}
	c.mu.Unlock()
}

// Global cache instance shared by the tools
var (
	globalCache     *TTLCache
	globalCacheOnce sync.Once
	globalCacheMu   sync.Mutex
)

// GetGlobalCache returns the shared cache used by the distance tools.
func GetGlobalCache() *TTLCache {
	globalCacheOnce.Do(func() {
		// 5 minute TTL, sweep every minute, at most 1000 entries
		globalCache = NewTTLCache(5*time.Minute, time.Minute, 1000)
	})
	return globalCache
}

// StopGlobalCache stops the shared cache's sweeper.
func StopGlobalCache() {
	globalCacheMu.Lock()
	defer globalCacheMu.Unlock()

	if globalCache != nil {
		globalCache.Stop()
	}
}
