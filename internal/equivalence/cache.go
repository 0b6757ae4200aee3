package equivalence

import (
	"sync"

	"github.com/JosephCarrino/SwissTARO/internal/models"
)

// Cache memoizes similarity decisions by title pair. It is symmetric: the key of (a, b)
// equals the key of (b, a). It also keeps the URL index of the last candidate list
// seen by the linked oracle.
type Cache struct {
	entries      map[string]bool
	reach        reachIndex
	reachBuilds  int
	mu           sync.Mutex
	hits         int
	misses       int
	computations int
}

// CacheStats summarizes cache usage.
type CacheStats struct {
	Hits         int `json:"hits"`
	Misses       int `json:"misses"`
	Computations int `json:"computations"`
	Size         int `json:"size"`
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]bool)}
}

// PairKey builds the symmetric key of two titles.
func PairKey(a, b string) string {
	if a < b {
		a, b = b, a
	}

	return a + "_" + b
}

// Lookup returns the cached decision for key.
func (c *Cache) Lookup(key string) (value, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value, ok = c.entries[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}

	return value, ok
}

// Store records a computed decision.
func (c *Cache) Store(key string, value bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = value
	c.computations++
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return CacheStats{
		Hits:         c.hits,
		Misses:       c.misses,
		Computations: c.computations,
		Size:         len(c.entries),
	}
}

// reachIndex is the reachable-URL map of one candidate list, identified by its first
// element and length.
type reachIndex struct {
	first *models.Article
	n     int
	urls  map[string]string
}

// reachable returns the reachable-URL map of candidates, rebuilding it only when the
// candidate list changes. A nil cache always rebuilds.
func (c *Cache) reachable(candidates []*models.Article) map[string]string {
	if c == nil || len(candidates) == 0 {
		return reachable(candidates)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.reach.urls != nil && c.reach.first == candidates[0] && c.reach.n == len(candidates) {
		return c.reach.urls
	}

	c.reach = reachIndex{first: candidates[0], n: len(candidates), urls: reachable(candidates)}
	c.reachBuilds++

	return c.reach.urls
}
