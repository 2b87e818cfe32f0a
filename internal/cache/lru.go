package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/nexventures/nexsearch/internal/models"
)

// LRU is an in-process cache of search responses with a fixed capacity and a
// per-entry TTL. Expired entries are dropped on read.
type LRU struct {
	capacity int
	ttl      time.Duration
	cache    map[string]*list.Element
	lru      *list.List
	mu       sync.Mutex
	now      func() time.Time
}

type cacheEntry struct {
	key     string
	value   models.SearchResponse
	expires time.Time
}

// NewLRU creates a new cache with the given capacity and entry lifetime.
// A ttl <= 0 means entries never expire.
func NewLRU(capacity int, ttl time.Duration) *LRU {
	if capacity < 1 {
		capacity = 1
	}
	return &LRU{
		capacity: capacity,
		ttl:      ttl,
		cache:    make(map[string]*list.Element),
		lru:      list.New(),
		now:      time.Now,
	}
}

// Get returns a copy of the cached response for key if present and fresh.
func (c *LRU) Get(_ context.Context, key string) (*models.SearchResponse, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.cache[key]
	if !ok {
		return nil, false, nil
	}
	entry := elem.Value.(*cacheEntry)
	if c.ttl > 0 && c.now().After(entry.expires) {
		c.lru.Remove(elem)
		delete(c.cache, key)
		return nil, false, nil
	}
	c.lru.MoveToFront(elem)
	resp := entry.value
	return &resp, true, nil
}

// Set stores a copy of resp for key, evicting the least recently used entry if at capacity.
func (c *LRU) Set(_ context.Context, key string, resp *models.SearchResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.now().Add(c.ttl)
	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		entry := elem.Value.(*cacheEntry)
		entry.value = *resp
		entry.expires = expires
		return nil
	}

	entry := &cacheEntry{key: key, value: *resp, expires: expires}
	elem := c.lru.PushFront(entry)
	c.cache[key] = elem

	if c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		if oldest != nil {
			c.lru.Remove(oldest)
			delete(c.cache, oldest.Value.(*cacheEntry).key)
		}
	}
	return nil
}

// Len returns the number of entries, including expired ones not yet read.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
