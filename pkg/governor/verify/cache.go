// Package verify implements the governor's Verify stage: a ProofChecker
// interface with an OPA/Rego-backed production implementation, and a
// content-addressed proof cache consulted before any call reaches the
// policy engine. The cache's shape — keyed, capacity- and TTL-bounded,
// concurrency-safe — is grounded on this codebase family's in-memory
// fallback stores (InMemoryVectorFallback / InMemoryPatternFallback):
// a guarded map plus an eviction list, not a general-purpose cache
// library, because the obligation set this engine ever caches is small
// and entirely content-addressed by the caller.
package verify

import (
	"container/list"
	"sync"
	"time"
)

// ProofRecord is one cached verdict: whether one obligation discharged
// to sat, keyed by that obligation's content hash.
type ProofRecord struct {
	ObligationID string
	Sat          bool
	CachedAt     time.Time
}

type cacheEntry struct {
	record  ProofRecord
	element *list.Element
}

// ProofCache is a capacity- and TTL-bounded, concurrency-safe cache of
// proof verdicts keyed by a content address over the obligation's id,
// query, and Rego source (obligationKey in checker.go); the installed Σ
// version is not part of the key, so a hit stays valid across installs
// as long as the obligation text is unchanged.
type ProofCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	entries  map[string]*cacheEntry
	order    *list.List // front = most recently used
}

// NewProofCache constructs an empty cache. capacity <= 0 disables
// caching (every lookup misses); ttl <= 0 disables expiry.
func NewProofCache(capacity int, ttl time.Duration) *ProofCache {
	return &ProofCache{
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[string]*cacheEntry),
		order:    list.New(),
	}
}

// Get returns the cached verdict for key, if present and not expired.
func (c *ProofCache) Get(key string) (ProofRecord, bool) {
	if c.capacity <= 0 {
		return ProofRecord{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return ProofRecord{}, false
	}
	if c.ttl > 0 && time.Since(e.record.CachedAt) > c.ttl {
		c.evictLocked(key, e)
		return ProofRecord{}, false
	}
	c.order.MoveToFront(e.element)
	return e.record, true
}

// Put records a verdict for key, evicting the least-recently-used entry
// if the cache is at capacity.
func (c *ProofCache) Put(key string, rec ProofRecord) {
	if c.capacity <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.record = rec
		c.order.MoveToFront(e.element)
		return
	}

	if len(c.entries) >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.evictLocked(oldest.Value.(string), c.entries[oldest.Value.(string)])
		}
	}

	elem := c.order.PushFront(key)
	c.entries[key] = &cacheEntry{record: rec, element: elem}
}

func (c *ProofCache) evictLocked(key string, e *cacheEntry) {
	c.order.Remove(e.element)
	delete(c.entries, key)
}

// Len reports the number of entries currently cached.
func (c *ProofCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
