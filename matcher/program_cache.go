package matcher

import "sync"

// ProgramCache stores compiled programs keyed by engine and expression.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// MapCache is an unbounded, concurrency-safe ProgramCache. Matcher
// expressions come from configuration, so the key space is small.
type MapCache struct {
	mu     sync.RWMutex
	store  map[string]any
	hits   int
	misses int
}

// NewMapCache returns an empty cache.
func NewMapCache() *MapCache {
	return &MapCache{store: make(map[string]any)}
}

// Get implements ProgramCache.
func (c *MapCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.store[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return value, ok
}

// Set implements ProgramCache.
func (c *MapCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = make(map[string]any)
	}
	c.store[key] = value
}

// Stats returns cache hits and misses so far.
func (c *MapCache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

func cacheKey(engine, expression string) string {
	return engine + ":" + expression
}
