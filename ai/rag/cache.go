package rag

import (
	"container/list"
	"sync"
	"time"
)

// lruCache is a small LRU cache with TTL, used to avoid re-embedding
// repeated queries.
type lruCache[K comparable, V any] struct {
	cache      map[K]*cacheEntry[K, V]
	order      *list.List
	capacity   int
	defaultTTL time.Duration
	mu         sync.Mutex
}

type cacheEntry[K comparable, V any] struct {
	expiresAt time.Time
	element   *list.Element
	key       K
	value     V
}

func newLRUCache[K comparable, V any](capacity int, defaultTTL time.Duration) *lruCache[K, V] {
	if capacity <= 0 {
		capacity = 256
	}
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	return &lruCache[K, V]{
		capacity:   capacity,
		defaultTTL: defaultTTL,
		cache:      make(map[K]*cacheEntry[K, V]),
		order:      list.New(),
	}
}

func (c *lruCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.cache[key]
	if !ok {
		var zero V
		return zero, false
	}
	if time.Now().After(e.expiresAt) {
		c.order.Remove(e.element)
		delete(c.cache, e.key)
		var zero V
		return zero, false
	}

	c.order.MoveToFront(e.element)
	return e.value, true
}

func (c *lruCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.cache[key]; ok {
		e.value = value
		e.expiresAt = time.Now().Add(c.defaultTTL)
		c.order.MoveToFront(e.element)
		return
	}

	for len(c.cache) >= c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		old := oldest.Value.(*cacheEntry[K, V])
		c.order.Remove(oldest)
		delete(c.cache, old.key)
	}

	e := &cacheEntry[K, V]{
		key:       key,
		value:     value,
		expiresAt: time.Now().Add(c.defaultTTL),
	}
	e.element = c.order.PushFront(e)
	c.cache[key] = e
}
