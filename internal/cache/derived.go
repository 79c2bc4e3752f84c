package cache

import "sync"

// AnyPath as a reference makes an entry drop on every invalidation.
const AnyPath = "*"

type derivedEntry[V any] struct {
	value V
	refs  []string
}

// DerivedCache maps keys to computed values and tracks the file paths each value was
// computed from, so that a change to any of those files drops the value.
type DerivedCache[V any] struct {
	mu      sync.Mutex
	entries map[string]derivedEntry[V]
	byPath  map[string]map[string]struct{}
}

// NewDerivedCache creates an empty derived cache.
func NewDerivedCache[V any]() *DerivedCache[V] {
	return &DerivedCache[V]{
		entries: make(map[string]derivedEntry[V]),
		byPath:  make(map[string]map[string]struct{}),
	}
}

// Get returns the value for key.
func (c *DerivedCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e.value, ok
}

// Put stores value under key, replacing any previous entry. refs are the paths the value
// depends on.
func (c *DerivedCache[V]) Put(key string, value V, refs ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.removeLocked(key)
	refs = dedupe(refs)
	c.entries[key] = derivedEntry[V]{value: value, refs: refs}
	for _, ref := range refs {
		keys, ok := c.byPath[ref]
		if !ok {
			keys = make(map[string]struct{})
			c.byPath[ref] = keys
		}
		keys[key] = struct{}{}
	}
}

// Delete drops key.
func (c *DerivedCache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(key)
}

// InvalidatePath drops every entry referencing path, plus every AnyPath entry. It returns
// the number of entries dropped.
func (c *DerivedCache[V]) InvalidatePath(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var doomed []string
	for _, ref := range []string{path, AnyPath} {
		for key := range c.byPath[ref] {
			doomed = append(doomed, key)
		}
	}
	dropped := 0
	for _, key := range doomed {
		if _, ok := c.entries[key]; ok {
			c.removeLocked(key)
			dropped++
		}
	}
	return dropped
}

// Clear drops every entry.
func (c *DerivedCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]derivedEntry[V])
	c.byPath = make(map[string]map[string]struct{})
}

// Len returns the number of entries.
func (c *DerivedCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *DerivedCache[V]) removeLocked(key string) {
	e, ok := c.entries[key]
	if !ok {
		return
	}
	delete(c.entries, key)
	for _, ref := range e.refs {
		keys := c.byPath[ref]
		delete(keys, key)
		if len(keys) == 0 {
			delete(c.byPath, ref)
		}
	}
}

func dedupe(refs []string) []string {
	if len(refs) < 2 {
		return refs
	}
	seen := make(map[string]bool, len(refs))
	out := refs[:0:0]
	for _, r := range refs {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}
