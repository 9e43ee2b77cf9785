package analyzer

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// DefaultCacheCapacity bounds the analysis cache.
const DefaultCacheCapacity = 1000

// Cache memoizes analysis results by a content+project key. Capacity is
// bounded with oldest-first (FIFO-by-insertion) eviction: pure memoization
// freshness matters more than recency for this workload, so true LRU buys
// nothing here.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]cacheEntry
	order    []string
	capacity int
}

type cacheEntry struct {
	result    Result
	projectID string
}

// NewCache creates a bounded cache. capacity <= 0 uses the default.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &Cache{
		entries:  make(map[string]cacheEntry, capacity),
		capacity: capacity,
	}
}

// Key derives the memoization key for a content+project pair.
func Key(projectID, content string) string {
	h := sha256.New()
	h.Write([]byte(projectID))
	h.Write([]byte{0})
	h.Write([]byte(content))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the memoized result for key, if present.
func (c *Cache) Get(key string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Result{}, false
	}
	return e.result, true
}

// Put stores a result, evicting the oldest insertion once the bound is
// exceeded.
func (c *Cache) Put(key, projectID string, result Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = cacheEntry{result: result, projectID: projectID}

	for len(c.entries) > c.capacity && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

// InvalidateProject drops every cached analysis referencing the project.
func (c *Cache) InvalidateProject(projectID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	keep := c.order[:0]
	for _, key := range c.order {
		if e, ok := c.entries[key]; ok && e.projectID == projectID {
			delete(c.entries, key)
			continue
		}
		keep = append(keep, key)
	}
	c.order = keep
}

// Len returns the current entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
