// Package cache is a small in-process TTL map with a size bound.
package cache

import (
	"sync"
	"time"
)

const (
	defaultTTL     = 5 * time.Second
	defaultEntries = 1024
)

type Cache[V any] struct {
	mu   sync.RWMutex
	ttl  time.Duration
	size int
	now  func() time.Time
	m    map[string]entry[V]
}

type entry[V any] struct {
	val V
	exp time.Time
}

// New returns a cache holding at most size entries for ttl each. Non positive
// arguments select small defaults.
func New[V any](ttl time.Duration, size int) *Cache[V] {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if size <= 0 {
		size = defaultEntries
	}
	return &Cache[V]{
		ttl:  ttl,
		size: size,
		now:  time.Now,
		m:    make(map[string]entry[V]),
	}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false
	}
	if now.Before(e.exp) {
		return e.val, true
	}

	c.mu.Lock()
	// a concurrent Set may have refreshed it
	if cur, ok := c.m[key]; ok && !now.Before(cur.exp) {
		delete(c.m, key)
	}
	c.mu.Unlock()
	return zero, false
}

// Set stores val. When the cache is full, expired entries go first, then the
// entry closest to expiry.
func (c *Cache[V]) Set(key string, val V) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.m[key]; !ok && len(c.m) >= c.size {
		c.evict(now)
	}
	c.m[key] = entry[V]{val: val, exp: now.Add(c.ttl)}
}

func (c *Cache[V]) evict(now time.Time) {
	var (
		oldest string
		oldExp time.Time
	)
	for k, e := range c.m {
		if !now.Before(e.exp) {
			delete(c.m, k)
			continue
		}
		if oldest == "" || e.exp.Before(oldExp) {
			oldest, oldExp = k, e.exp
		}
	}
	if len(c.m) >= c.size && oldest != "" {
		delete(c.m, oldest)
	}
}

func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
}

func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
