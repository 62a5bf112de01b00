// Package cache implements the bounded, most-recently-used cache that
// sits in front of each KVStore's data file: get promotes to head, put
// evicts the tail when over capacity.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ox-ai/oxdb-lite/internal/codec"
)

// DefaultCapacity is the per-store cache size used when the caller does
// not configure one.
const DefaultCapacity = 25

// LRUCache is a bounded key→Value cache with O(1) get/put/delete.
type LRUCache struct {
	inner *lru.Cache[string, codec.Value]
}

// New creates an LRUCache with the given capacity. A non-positive
// capacity falls back to DefaultCapacity.
func New(capacity int) *LRUCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c, _ := lru.New[string, codec.Value](capacity)
	return &LRUCache{inner: c}
}

// Get returns the cached value for key and promotes it to most-recently-used.
func (c *LRUCache) Get(key string) (codec.Value, bool) {
	return c.inner.Get(key)
}

// Put inserts or updates key, evicting the least-recently-used entry if
// the cache is over capacity.
func (c *LRUCache) Put(key string, value codec.Value) {
	c.inner.Add(key, value)
}

// Delete removes key from the cache, if present.
func (c *LRUCache) Delete(key string) {
	c.inner.Remove(key)
}

// Contains reports whether key is cached, without promoting it.
func (c *LRUCache) Contains(key string) bool {
	return c.inner.Contains(key)
}

// Len reports the number of cached entries.
func (c *LRUCache) Len() int {
	return c.inner.Len()
}

// Purge empties the cache.
func (c *LRUCache) Purge() {
	c.inner.Purge()
}
