package lrucache

import "sync"

// DefaultMaxSize is used when a cache is constructed with maxSize <= 0.
const DefaultMaxSize = 100

// Stats is a point-in-time snapshot of cache activity, in the same
// plain-struct style as a typical resource-manager stats report: cheap
// to copy, safe to log, no live references into the cache.
type Stats struct {
	Len       int
	MaxSize   int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

type entry[K comparable, V any] struct {
	value V
	n     *node[K]
}

// Cache is a strict single-mutex LRU map: at most MaxSize entries survive
// any call, the oldest (by use) is evicted first, and both GetOrCreate hits
// and misses refresh recency.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[K, V]
	order   list[K]
	maxSize int

	hits, misses, evictions uint64
}

// New creates a cache bounded at maxSize entries. maxSize <= 0 uses
// DefaultMaxSize; SetMaxSize(0) is a distinct, later, explicit choice to
// evict everything and accept no further entries until raised again.
func New[K comparable, V any](maxSize int) *Cache[K, V] {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Cache[K, V]{
		entries: make(map[K]*entry[K, V]),
		maxSize: maxSize,
	}
}

// GetOrCreate returns the cached value for key, refreshing its recency.
// On a miss, create is invoked while the cache lock is held so a concurrent
// caller can never observe a duplicate creation for the same key, then the
// new value is inserted and, if that pushes the cache over its bound,
// the least-recently-used entries are evicted one at a time until the
// cache is back at or under MaxSize.
func (c *Cache[K, V]) GetOrCreate(key K, create func() (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		c.order.moveToFront(e.n)
		c.hits++
		return e.value, nil
	}

	c.misses++
	value, err := create()
	if err != nil {
		var zero V
		return zero, err
	}

	n := c.order.pushFront(key)
	c.entries[key] = &entry[K, V]{value: value, n: n}

	for c.order.Len() > c.maxSize {
		oldest, ok := c.order.removeOldest()
		if !ok {
			break
		}
		delete(c.entries, oldest)
		c.evictions++
	}

	return value, nil
}

// SetMaxSize changes the bound, immediately evicting LRU entries down to n
// if the cache currently holds more than n entries. n == 0 is permitted
// and evicts everything.
func (c *Cache[K, V]) SetMaxSize(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.maxSize = n
	for c.order.Len() > c.maxSize {
		oldest, ok := c.order.removeOldest()
		if !ok {
			break
		}
		delete(c.entries, oldest)
		c.evictions++
	}
}

// MaxSize returns the current bound.
func (c *Cache[K, V]) MaxSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxSize
}

// Len returns the number of entries currently cached.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear evicts every entry without changing MaxSize.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]*entry[K, V])
	c.order.clear()
}

// Stats returns a snapshot of cache activity.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Len:       len(c.entries),
		MaxSize:   c.maxSize,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}
