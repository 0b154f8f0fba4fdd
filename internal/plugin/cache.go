package plugin

import "sync"

// Cache memoizes lookups for the lifetime of one sync invocation. It is
// passed by reference to whatever needs it and invalidated explicitly after
// any action that changes what a key would resolve to.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	once  sync.Once
	value string
	err   error
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*cacheEntry)}
}

// Do returns the memoized result for key, calling fn at most once per key
// until the key is invalidated. Concurrent callers for the same key wait for
// the first call.
func (c *Cache) Do(key string, fn func() (string, error)) (string, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &cacheEntry{}
		c.entries[key] = e
	}
	c.mu.Unlock()

	e.once.Do(func() { e.value, e.err = fn() })
	return e.value, e.err
}

// Invalidate drops the given keys, or every key when none are given.
func (c *Cache) Invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(keys) == 0 {
		c.entries = make(map[string]*cacheEntry)
		return
	}
	for _, k := range keys {
		delete(c.entries, k)
	}
}

// Len returns the number of memoized keys.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
