package cart

import (
	"context"
	"sync"

	"storefront/internal/models"
)

// MemoryStore keeps carts in process memory. Suitable for single-node
// deployments and tests; carts do not survive a restart.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string][]models.CartEntry
}

// NewMemoryStore creates an empty in-memory cart store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string][]models.CartEntry)}
}

func (m *MemoryStore) Get(_ context.Context, sessionID string) ([]models.CartEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := m.carts[sessionID]
	out := make([]models.CartEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (m *MemoryStore) Set(_ context.Context, sessionID string, entries []models.CartEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]models.CartEntry, len(entries))
	copy(stored, entries)
	m.carts[sessionID] = stored
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.carts, sessionID)
	return nil
}
