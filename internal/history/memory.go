package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/glowteam/skinscan/internal/metrics"
)

// MemoryStore is the in-process Store used without a database. Safe for
// concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]*metrics.SkinMetrics // per normalized subject, newest first
	seen    map[string]bool                   // record IDs
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string][]*metrics.SkinMetrics),
		seen:    make(map[string]bool),
	}
}

func (s *MemoryStore) Save(_ context.Context, subjectKey string, m *metrics.SkinMetrics) error {
	key := NormalizeSubjectKey(subjectKey)

	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID != "" && s.seen[m.ID] {
		return nil
	}
	if m.ID != "" {
		s.seen[m.ID] = true
	}

	list := append(s.records[key], m.Clone())
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Timestamp > list[j].Timestamp
	})
	s.records[key] = list
	return nil
}

func (s *MemoryStore) Recent(_ context.Context, subjectKey string, limit int) ([]*metrics.SkinMetrics, error) {
	key := NormalizeSubjectKey(subjectKey)

	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.records[key]
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	out := make([]*metrics.SkinMetrics, len(list))
	for i, m := range list {
		out[i] = m.Clone()
	}
	return out, nil
}

func (s *MemoryStore) LatestWithin(_ context.Context, subjectKey string, window time.Duration) (*metrics.SkinMetrics, error) {
	key := NormalizeSubjectKey(subjectKey)
	cutoff := time.Now().Add(-window).UnixMilli()

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.records[key] {
		if m.Timestamp >= cutoff {
			return m.Clone(), nil
		}
	}
	return nil, nil
}
