// Package stabilize keeps repeated scans of the same subject from
// jittering. It memoizes results per frame fingerprint and blends fresh
// measurements toward a recent history anchor with a time and
// similarity driven damping factor.
package stabilize

import (
	"sync"

	"github.com/glowteam/skinscan/internal/metrics"
)

// CacheStore memoizes finished analysis records by frame fingerprint.
// The same frame must always yield the same scores, so entries are
// written once and never replaced.
type CacheStore interface {
	Get(fingerprint string) (*metrics.SkinMetrics, bool)
	Put(fingerprint string, m *metrics.SkinMetrics)
}

// MemoryCache is the in-process CacheStore. Safe for concurrent use.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*metrics.SkinMetrics
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]*metrics.SkinMetrics)}
}

// Get returns a copy of the cached record, so callers can stamp fresh
// timestamps without mutating the stored result.
func (c *MemoryCache) Get(fingerprint string) (*metrics.SkinMetrics, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.entries[fingerprint]
	if !ok {
		return nil, false
	}
	return m.Clone(), true
}

// Put stores a copy of the record. An existing entry wins; identical
// frames analyzed concurrently must not flip-flop between results.
func (c *MemoryCache) Put(fingerprint string, m *metrics.SkinMetrics) {
	if fingerprint == "" || m == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[fingerprint]; ok {
		return
	}
	c.entries[fingerprint] = m.Clone()
}

// Len reports the number of memoized frames.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
