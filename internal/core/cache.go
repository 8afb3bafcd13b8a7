package core

// cache.go implements the bounded, read-through document view cache.
//
// Parsing a large workbook is expensive, so read paths go through this
// cache keyed by document id. Capacity is counted in entries, eviction is
// strict LRU, and every mutation to a document's blob must be followed by
// Remove so the next read re-parses.

import (
	"container/list"
	"sync"
)

// ViewLoader parses a document into its read-only View on a cache miss.
type ViewLoader func(id string) (*View, error)

// CacheSummary reports cache effectiveness counters.
type CacheSummary struct {
	Hits     int `json:"hits"`
	Misses   int `json:"misses"`
	MaxSize  int `json:"maxsize"`
	CurrSize int `json:"currsize"`
}

type cacheEntry struct {
	id   string
	view *View
}

// ViewCache is an LRU map from document id to parsed View. All operations,
// including the loader call on a miss, run under a single mutex: a View is
// never loaded twice concurrently and eviction is atomic with insertion.
type ViewCache struct {
	mu      sync.Mutex
	maxSize int
	entries map[string]*list.Element
	order   *list.List // front = most recently used
	hits    int
	misses  int
}

// NewViewCache creates a cache bounded to maxSize entries.
func NewViewCache(maxSize int) *ViewCache {
	if maxSize < 1 {
		maxSize = 1
	}
	return &ViewCache{
		maxSize: maxSize,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

// GetOrLoad returns the cached View for id, or invokes load to parse it.
// A hit marks the entry most recently used; a miss inserts the loaded View
// and evicts the least recently used entry if the cache is over capacity.
// Load errors are not cached.
func (c *ViewCache) GetOrLoad(id string, load ViewLoader) (*View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[id]; ok {
		c.order.MoveToFront(el)
		c.hits++
		return el.Value.(*cacheEntry).view, nil
	}

	view, err := load(id)
	if err != nil {
		return nil, err
	}

	c.entries[id] = c.order.PushFront(&cacheEntry{id: id, view: view})
	c.misses++

	if c.order.Len() > c.maxSize {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).id)
	}

	return view, nil
}

// Remove drops the entry for id. It is idempotent: removing an absent id
// returns false without error.
func (c *ViewCache) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[id]
	if !ok {
		return false
	}
	c.order.Remove(el)
	delete(c.entries, id)
	return true
}

// Clear drops every entry and resets the hit/miss counters.
func (c *ViewCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.order.Init()
	c.hits = 0
	c.misses = 0
}

// Keys returns the cached document ids, most recently used first.
func (c *ViewCache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*cacheEntry).id)
	}
	return keys
}

// Summary returns the current counters and sizes.
func (c *ViewCache) Summary() CacheSummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	return CacheSummary{
		Hits:     c.hits,
		Misses:   c.misses,
		MaxSize:  c.maxSize,
		CurrSize: c.order.Len(),
	}
}
