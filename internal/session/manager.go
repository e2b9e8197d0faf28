package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Manager issues and rotates opaque per-client session ids. The id is a bare
// correlation key for anonymous carts, not a signed token; the trust boundary
// is entirely server-side.
type Manager struct {
	store Store
}

func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Ensure returns the client's session id, generating and persisting a fresh
// UUIDv4 on first need. Repeated calls return the same id until Rotate.
func (m *Manager) Ensure(ctx context.Context, clientID string) (string, error) {
	id, err := m.store.Get(ctx, clientID)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, ErrNoSession) {
		return "", fmt.Errorf("failed to read session: %w", err)
	}

	id = uuid.NewString()
	if err := m.store.Set(ctx, clientID, id); err != nil {
		return "", fmt.Errorf("failed to persist session: %w", err)
	}
	return id, nil
}

// Rotate unconditionally replaces the client's session id with a fresh
// UUIDv4 and returns it. Called once after a verified payment so the spent
// cart key can never be reused; never called on failure or cancellation, so
// an abandoned cart stays addressable for retry. Safe to repeat.
func (m *Manager) Rotate(ctx context.Context, clientID string) (string, error) {
	id := uuid.NewString()
	if err := m.store.Set(ctx, clientID, id); err != nil {
		return "", fmt.Errorf("failed to persist rotated session: %w", err)
	}
	return id, nil
}
