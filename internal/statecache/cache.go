package statecache

import (
	"sync"
	"sync/atomic"
)

// Cache is a bounded LRU of native state objects keyed by a state
// signature.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	entries  map[K]*lruNode[K, V]
	order    lruList[K, V]
	capacity int
	release  func(V)

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// New creates a cache holding at most capacity entries. A capacity below 1
// means unbounded. release, if non-nil, is called for every value that
// leaves the cache.
func New[K comparable, V any](capacity int, release func(V)) *Cache[K, V] {
	if capacity < 0 {
		capacity = 0
	}
	return &Cache[K, V]{
		entries:  make(map[K]*lruNode[K, V]),
		capacity: capacity,
		release:  release,
	}
}

// Get returns the cached value for key and marks it most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	c.hits.Add(1)
	c.order.moveToFront(node)
	return node.value, true
}

// GetOrCreate returns the cached value for key, calling create on a miss.
// create runs under the cache lock so a value is built once per key. A
// failed create caches nothing.
func (c *Cache[K, V]) GetOrCreate(key K, create func() (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if node, ok := c.entries[key]; ok {
		c.hits.Add(1)
		c.order.moveToFront(node)
		return node.value, nil
	}
	c.misses.Add(1)

	value, err := create()
	if err != nil {
		var zero V
		return zero, err
	}
	c.entries[key] = c.order.pushFront(key, value)
	c.evict()
	return value, nil
}

// evict drops least recently used entries until the cache fits.
// Caller must hold c.mu.
func (c *Cache[K, V]) evict() {
	for c.capacity > 0 && c.order.len > c.capacity {
		node := c.order.removeOldest()
		delete(c.entries, node.key)
		c.evictions.Add(1)
		if c.release != nil {
			c.release(node.value)
		}
	}
}

// Delete removes key and releases its value. It reports whether key was
// present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.entries[key]
	if !ok {
		return false
	}
	c.order.unlink(node)
	delete(c.entries, key)
	if c.release != nil {
		c.release(node.value)
	}
	return true
}

// Clear releases every value and empties the cache. Statistics are kept.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for node := c.order.head; node != nil; node = node.next {
		if c.release != nil {
			c.release(node.value)
		}
	}
	c.entries = make(map[K]*lruNode[K, V])
	c.order = lruList[K, V]{}
}

// Len returns the number of cached entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.len
}

// Stats returns cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	return Stats{
		Len:       c.Len(),
		Capacity:  c.capacity,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

// Stats contains cache statistics.
type Stats struct {
	// Len is the current number of entries.
	Len int
	// Capacity is the entry limit, 0 when unbounded.
	Capacity int
	// Hits is the number of lookups served from the cache.
	Hits uint64
	// Misses is the number of lookups that had to create a value.
	Misses uint64
	// Evictions is the number of entries dropped to honor Capacity.
	Evictions uint64
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
