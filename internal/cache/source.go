// Package cache holds the in-memory caches: file contents keyed by absolute path, and
// derived analysis results that remember which files they were computed from.
package cache

import (
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Loader produces the content for a path. ok=false means the file could not be read;
// such results are not cached.
type Loader func(path string) (content string, ok bool)

// SourceStats reports source cache usage
type SourceStats struct {
	Entries   int   `json:"entries"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	// Evictions counts every entry that left the cache, including invalidations
	Evictions int64 `json:"evictions"`
}

// SourceCache is a bounded LRU of file contents keyed by absolute path.
type SourceCache struct {
	mu     sync.Mutex
	lru    *lru.Cache[string, string]
	loader Loader

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64

	// OnHit and OnMiss are optional hooks for metrics
	OnHit  func()
	OnMiss func()
}

// NewSourceCache creates a cache holding at most maxEntries files.
func NewSourceCache(maxEntries int, loader Loader) (*SourceCache, error) {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	c := &SourceCache{loader: loader}
	l, err := lru.NewWithEvict(maxEntries, func(string, string) {
		c.evictions.Add(1)
	})
	if err != nil {
		return nil, err
	}
	c.lru = l
	return c, nil
}

// Content returns the cached content for path, loading it on a miss.
func (c *SourceCache) Content(path string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if content, ok := c.lru.Get(path); ok {
		c.hits.Add(1)
		if c.OnHit != nil {
			c.OnHit()
		}
		return content, true
	}

	c.misses.Add(1)
	if c.OnMiss != nil {
		c.OnMiss()
	}
	if c.loader == nil {
		return "", false
	}
	content, ok := c.loader(path)
	if !ok {
		return "", false
	}
	c.lru.Add(path, content)
	return content, true
}

// Contains reports whether path is cached without touching recency.
func (c *SourceCache) Contains(path string) bool {
	return c.lru.Contains(path)
}

// Invalidate drops the cached content for path.
func (c *SourceCache) Invalidate(path string) bool {
	return c.lru.Remove(path)
}

// Clear drops every entry.
func (c *SourceCache) Clear() {
	c.lru.Purge()
}

// Len returns the number of cached files.
func (c *SourceCache) Len() int {
	return c.lru.Len()
}

// Stats returns a snapshot of cache usage.
func (c *SourceCache) Stats() SourceStats {
	return SourceStats{
		Entries:   c.lru.Len(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}
