package geocode

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
	"time"
)

// cacheKey returns SHA-256 hex of the normalized query tuple.
func cacheKey(q Query) string {
	normalized := fmt.Sprintf("%s|%s|%s|%s",
		strings.ToLower(strings.TrimSpace(q.Address)),
		strings.ToLower(strings.TrimSpace(q.County)),
		strings.ToLower(strings.TrimSpace(q.Constituency)),
		strings.ToLower(strings.TrimSpace(q.Ward)),
	)
	h := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", h)
}

type cacheEntry struct {
	result  Result
	expires time.Time
}

// resultCache is a bounded TTL cache safe for concurrent use. Eviction
// is coarse: expired entries are dropped on write, then arbitrary
// entries until the cache fits.
type resultCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	max     int
}

func newResultCache(ttl time.Duration, max int) *resultCache {
	return &resultCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		max:     max,
	}
}

func (c *resultCache) get(key string) (*Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expires) {
		return nil, false
	}
	res := e.result
	return &res, true
}

func (c *resultCache) put(key string, res *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if len(c.entries) >= c.max {
		for k, e := range c.entries {
			if now.After(e.expires) {
				delete(c.entries, k)
			}
		}
		for k := range c.entries {
			if len(c.entries) < c.max {
				break
			}
			delete(c.entries, k)
		}
	}
	c.entries[key] = cacheEntry{result: *res, expires: now.Add(c.ttl)}
}
