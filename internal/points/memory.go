package points

import (
	"context"
	"sync"

	"github.com/pointdash/pointdash/internal/dataset"
)

// MemoryStore keeps collections in process memory. It backs the anonymous
// playground, where nothing outlives the connection.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]dataset.Point
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]dataset.Point)}
}

func (m *MemoryStore) LoadPoints(_ context.Context, userID string) ([]dataset.Point, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return dataset.Clone(m.data[userID]), nil
}

func (m *MemoryStore) SavePoints(_ context.Context, userID string, points []dataset.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[userID] = dataset.Clone(points)
	return nil
}

// Forget drops a user's collection.
func (m *MemoryStore) Forget(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, userID)
}
