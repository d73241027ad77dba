package stats

import (
	"context"
	"sync"
)

// MemoryStore aggregates counters in process memory. It backs the ops
// /stats endpoint when no external sink is configured.
type MemoryStore struct {
	mu       sync.Mutex
	totals   Counters
	byStatus map[int]uint64
	byClient map[string]Counters
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byStatus: make(map[int]uint64),
		byClient: make(map[string]Counters),
	}
}

func (s *MemoryStore) Record(ctx context.Context, ev Event) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.byClient[ev.ClientID]
	if ev.Allowed {
		s.totals.Allowed++
		c.Allowed++
	} else {
		s.totals.Denied++
		c.Denied++
	}
	s.byClient[ev.ClientID] = c
	s.byStatus[ev.Status]++
	return nil
}

// Totals returns the aggregate admission counters.
func (s *MemoryStore) Totals() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totals
}

// ByStatus returns a copy of the per-status counters.
func (s *MemoryStore) ByStatus() map[int]uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]uint64, len(s.byStatus))
	for status, n := range s.byStatus {
		out[status] = n
	}
	return out
}

// ByClient returns a copy of the per-client counters.
func (s *MemoryStore) ByClient() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Counters, len(s.byClient))
	for id, c := range s.byClient {
		out[id] = c
	}
	return out
}
