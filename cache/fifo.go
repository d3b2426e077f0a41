// Package cache provides the bounded result cache used by the pagination controller.
//
// Entries are keyed by canonical query strings (see package query) and evicted
// in insertion order: once the cache is full, inserting a new key removes the
// single oldest-inserted entry. Reads never reorder entries, so this is FIFO,
// not LRU. There is no TTL; an entry is valid until it is evicted or the cache
// is cleared.
package cache

import (
	"container/list"
	"sync"

	paging "github.com/nrfta/feed-paging"
)

// FIFO is a bounded, insertion-ordered cache. It is safe for concurrent use.
//
// Type parameter V is the cached value type (typically *paging.Page[T]).
type FIFO[V any] struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	entries  map[string]*list.Element
}

type entry[V any] struct {
	key   string
	value V
}

// New creates a FIFO cache holding at most capacity entries.
// A non-positive capacity falls back to paging.DefaultCacheCapacity.
func New[V any](capacity int) *FIFO[V] {
	if capacity <= 0 {
		capacity = paging.DefaultCacheCapacity
	}
	return &FIFO[V]{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element, capacity),
	}
}

// Get returns the value stored under key.
func (c *FIFO[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		incCacheResult(resultMiss)
		var zero V
		return zero, false
	}

	incCacheResult(resultHit)
	return el.Value.(*entry[V]).value, true
}

// Put stores value under key. Replacing an existing key keeps its original
// insertion position. Inserting a new key into a full cache evicts the
// oldest-inserted entry first.
func (c *FIFO[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*entry[V]).value = value
		return
	}

	c.entries[key] = c.order.PushBack(&entry[V]{key: key, value: value})

	for c.order.Len() > c.capacity {
		oldest := c.order.Front()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*entry[V]).key)
		incEviction()
	}
}

// Clear removes every entry.
func (c *FIFO[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.entries = make(map[string]*list.Element, c.capacity)
}

// Len returns the number of cached entries.
func (c *FIFO[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Capacity returns the maximum number of entries.
func (c *FIFO[V]) Capacity() int {
	return c.capacity
}

// Keys returns the cached keys, oldest first.
func (c *FIFO[V]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*entry[V]).key)
	}
	return keys
}
