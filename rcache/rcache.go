// Package rcache keeps a read-through cache of the most recently fetched
// CachedItem per key, so repeated GetItem calls for hot keys can skip the
// round trip. Cache is NOT threadsafe; callers needing concurrent access
// must serialize their own calls, the same contract the client facade
// places on a single Connection.
package rcache

import "github.com/m-lab/memcache-info/wire"

// Cache holds the last-seen item for each cached key.
type Cache struct {
	items map[string]wire.CachedItem
}

// New creates a cache with the given initial capacity hint.
func New(capacity int) *Cache {
	return &Cache{items: make(map[string]wire.CachedItem, capacity)}
}

// Get returns the cached item for key, if any.
func (c *Cache) Get(key string) (wire.CachedItem, bool) {
	item, ok := c.items[key]
	return item, ok
}

// Put records item under its own key, overwriting any previous entry.
func (c *Cache) Put(item wire.CachedItem) {
	c.items[item.Key] = item
}

// Invalidate drops any cached entry for key. Called on every mutation
// (set/add/replace/append/prepend/cas/delete/incr/decr/touch) so the
// cache never serves stale data after a write.
func (c *Cache) Invalidate(key string) {
	delete(c.items, key)
}

// Len reports the number of entries currently cached.
func (c *Cache) Len() int {
	return len(c.items)
}
