// Package cache provides a small generic LRU cache with an eviction hook.
//
//	c := cache.NewWithEvict[string, *Program](32, func(_ string, p *Program) {
//	    p.Release()
//	})
//	p, err := c.GetOrCreate(src, build)
//
// The dispatcher uses it as an optional compiled-program cache: every
// entry that leaves the cache is passed to the callback so device
// resources are released exactly once.
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
