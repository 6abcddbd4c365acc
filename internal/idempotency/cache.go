// Package idempotency caches successful tool responses so repeated calls are
// answered without touching the scheduler.
package idempotency

import (
	"container/list"
	"sync"
	"time"

	"github.com/codex-k8s/yaml-tool-scheduler/internal/protocol"
)

const (
	defaultTTL        = time.Hour
	defaultMaxEntries = 1000
)

// Cache is an LRU of tool responses with a fixed time to live.
type Cache struct {
	mu         sync.Mutex
	items      map[string]*list.Element
	order      *list.List
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

type cacheEntry struct {
	key       string
	value     protocol.ToolResponse
	expiresAt time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCache creates a cache. Non-positive ttl or maxEntries fall back to 1h and 1000.
func NewCache(ttl time.Duration, maxEntries int, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	c := &Cache{
		items:      make(map[string]*list.Element),
		order:      list.New(),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a cached response if present and not expired.
func (c *Cache) Get(key string) (protocol.ToolResponse, bool) {
	if c == nil || key == "" {
		return protocol.ToolResponse{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return protocol.ToolResponse{}, false
	}
	entry := elem.Value.(*cacheEntry)
	if c.now().After(entry.expiresAt) {
		c.removeLocked(elem)
		return protocol.ToolResponse{}, false
	}
	c.order.MoveToFront(elem)
	return entry.value, true
}

// Set stores a response, evicting the least recently used entries over the limit.
func (c *Cache) Set(key string, value protocol.ToolResponse) {
	if c == nil || key == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(c.ttl)
	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.value = value
		entry.expiresAt = expiresAt
		c.order.MoveToFront(elem)
		return
	}

	c.items[key] = c.order.PushFront(&cacheEntry{key: key, value: value, expiresAt: expiresAt})
	for len(c.items) > c.maxEntries {
		c.removeLocked(c.order.Back())
	}
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Cache) removeLocked(elem *list.Element) {
	if elem == nil {
		return
	}
	entry := elem.Value.(*cacheEntry)
	delete(c.items, entry.key)
	c.order.Remove(elem)
}
