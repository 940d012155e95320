package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/atlas-core/internal/core/ports/driven"
)

var _ driven.EmbeddingCache = (*MockEmbeddingCache)(nil)

// MockEmbeddingCache is an in-memory EmbeddingCache for testing
type MockEmbeddingCache struct {
	mu      sync.RWMutex
	vectors map[string][]float32
	getErr  error
}

// NewMockEmbeddingCache creates a new MockEmbeddingCache
func NewMockEmbeddingCache() *MockEmbeddingCache {
	return &MockEmbeddingCache{vectors: make(map[string][]float32)}
}

func (m *MockEmbeddingCache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.vectors[key]
	return v, ok, nil
}

func (m *MockEmbeddingCache) Set(ctx context.Context, key string, vector []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectors[key] = vector
	return nil
}

// Helper methods for testing

func (m *MockEmbeddingCache) SetGetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getErr = err
}

func (m *MockEmbeddingCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vectors)
}
