package journal

import (
	"context"
	"sync"
)

// MemoryStore is a minimal in-memory Store implementation intended for
// tests, examples, and short-lived processes. Entries are kept in arrival
// order; it makes no durability promises.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
	closed  bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.entries = append(s.entries, entry)
	return nil
}

// Entries returns the recorded entries for scopeID in arrival order. An
// empty scopeID returns everything.
func (s *MemoryStore) Entries(_ context.Context, scopeID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	if scopeID == "" {
		return append([]Entry(nil), s.entries...), nil
	}
	var out []Entry
	for _, entry := range s.entries {
		if entry.ScopeID == scopeID {
			out = append(out, entry)
		}
	}
	return out, nil
}

// Close rejects further appends and reads. Mostly useful for asserting hook
// error handling in tests.
func (s *MemoryStore) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
