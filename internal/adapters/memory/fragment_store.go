// Package memory holds in-process adapters for state that never needs to
// outlive the server: in the browser the shareable fragment lives in the
// address bar, here it lives in a map behind the FragmentStore port.
package memory

import (
	"context"
	"sync"
)

// FragmentStore implements ports.FragmentStore with a process-local map.
type FragmentStore struct {
	mu    sync.RWMutex
	frags map[string]string
}

// NewFragmentStore creates an empty store.
func NewFragmentStore() *FragmentStore {
	return &FragmentStore{frags: make(map[string]string)}
}

// Get returns the stored fragment for a session, or "" when none is set.
func (s *FragmentStore) Get(ctx context.Context, sessionID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frags[sessionID], nil
}

// Set stores the fragment for a session.
func (s *FragmentStore) Set(ctx context.Context, sessionID, frag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frags[sessionID] = frag
	return nil
}

// Delete removes a session's fragment.
func (s *FragmentStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.frags, sessionID)
	return nil
}
