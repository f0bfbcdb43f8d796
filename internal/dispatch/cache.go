package dispatch

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/castmate/castmate/internal/domain"
)

// CacheKey returns the content address for an event: a hash of its type
// and the priority-relevant payload fields. Timestamps never participate,
// so materially identical situations collide to the same entry.
func CacheKey(ev domain.Event) string {
	h := sha256.Sum256([]byte(string(ev.Type) + "|" + ev.Payload.CacheKey()))
	return hex.EncodeToString(h[:])
}

// Cache is a thread-safe LRU cache of generated commentary text. Repeat
// situations (same weapon, same kill count, same health bracket) recur
// often in a session, and each hit skips a network-bound generation call.
type Cache struct {
	mu      sync.Mutex
	cap     int
	order   *list.List // front = most recently used
	entries map[string]*list.Element
	hits    int64
	misses  int64
}

type cacheEntry struct {
	key  string
	text string
}

// NewCache creates a cache that evicts the least recently used entry past
// the given capacity.
func NewCache(capacity int) *Cache {
	if capacity < 1 {
		capacity = 1
	}
	return &Cache{
		cap:     capacity,
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}
}

// Get returns the cached text for a key and whether it was present.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		c.misses++
		return "", false
	}
	c.order.MoveToFront(el)
	c.hits++
	return el.Value.(*cacheEntry).text, true
}

// Put stores text under a key, displacing the least recently used entry
// when the cache is full.
func (c *Cache) Put(key, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).text = text
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, text: text})

	if c.order.Len() > c.cap {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns hit and miss counts.
func (c *Cache) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
