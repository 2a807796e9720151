// Package statecache caches compiled native state objects.
//
// Backends build an immutable native object (a recorded state block, a
// render pipeline) the first time a state combination is seen and re-apply
// the cached object afterwards:
//
//	c := statecache.New[string, StateBlock](256, func(b StateBlock) { b.Release() })
//	block, err := c.GetOrCreate(key, func() (StateBlock, error) {
//	    return record(delta)
//	})
//
// The cache is a bounded LRU. Evicted and cleared values are handed to the
// release callback so their native objects are freed.
//
// # Thread Safety
//
// Cache is safe for concurrent use and must not be copied after creation.
package statecache
