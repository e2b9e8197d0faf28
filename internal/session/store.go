package session

import (
	"context"
	"errors"
	"sync"
)

// ErrNoSession signals that a client has no persisted session id yet.
var ErrNoSession = errors.New("no session for client")

// Store persists one opaque session id per client. Session ids have no
// expiry; they live until rotated.
type Store interface {
	Get(ctx context.Context, clientID string) (string, error)
	Set(ctx context.Context, clientID string, sessionID string) error
}

// MemoryStore is used in tests and single-process setups.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, clientID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.sessions[clientID]
	if !ok {
		return "", ErrNoSession
	}
	return id, nil
}

func (s *MemoryStore) Set(_ context.Context, clientID string, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[clientID] = sessionID
	return nil
}
