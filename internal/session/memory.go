package session

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store implementation for tests and development.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]map[string]string
}

// NewMemoryStore constructs an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]map[string]string)}
}

// Get returns a copy of the stored record, or an empty map when none exists.
func (s *MemoryStore) Get(_ context.Context, userID int64) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.sessions[userID]
	if !ok {
		return map[string]string{}, nil
	}
	out := make(map[string]string, len(stored))
	for k, v := range stored {
		out[k] = v
	}
	return out, nil
}

// Set merges the given fields into the user's record, creating it if needed.
func (s *MemoryStore) Set(_ context.Context, userID int64, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.sessions[userID]
	if !ok {
		stored = make(map[string]string, len(fields))
		s.sessions[userID] = stored
	}
	for k, v := range fields {
		stored[k] = v
	}
	return nil
}

// Delete removes the user's record.
func (s *MemoryStore) Delete(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, userID)
	return nil
}
