package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/atlas-core/internal/core/domain"
	"github.com/custodia-labs/atlas-core/internal/core/ports/driven"
)

var _ driven.VectorIndex = (*MockVectorIndex)(nil)

// MockVectorIndex is an in-memory VectorIndex for testing.
// Query ignores the vector and returns stored hits that match the filter,
// ordered by their preset score.
type MockVectorIndex struct {
	mu       sync.RWMutex
	hits     map[string][]domain.IndexHit
	failures map[string]error
	delays   map[string]time.Duration
	queries  map[string]int
	scrolls  map[string]int
}

// NewMockVectorIndex creates a new MockVectorIndex
func NewMockVectorIndex() *MockVectorIndex {
	return &MockVectorIndex{
		hits:     make(map[string][]domain.IndexHit),
		failures: make(map[string]error),
		delays:   make(map[string]time.Duration),
		queries:  make(map[string]int),
		scrolls:  make(map[string]int),
	}
}

func (m *MockVectorIndex) Query(ctx context.Context, collection string, vector []float32, filter domain.IndexFilter, limit int) ([]domain.IndexHit, error) {
	m.mu.Lock()
	m.queries[collection]++
	m.mu.Unlock()

	out, err := m.lookup(ctx, collection, filter, limit)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockVectorIndex) Scroll(ctx context.Context, collection string, filter domain.IndexFilter, limit int) ([]domain.IndexHit, error) {
	m.mu.Lock()
	m.scrolls[collection]++
	m.mu.Unlock()

	out, err := m.lookup(ctx, collection, filter, limit)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockVectorIndex) lookup(ctx context.Context, collection string, filter domain.IndexFilter, limit int) ([]domain.IndexHit, error) {
	m.mu.RLock()
	delay := m.delays[collection]
	failure := m.failures[collection]
	rows := m.hits[collection]
	m.mu.RUnlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if failure != nil {
		return nil, failure
	}

	var out []domain.IndexHit
	for _, h := range rows {
		if filter.Matches(h) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *MockVectorIndex) Collections(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []string
	for id := range m.hits {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MockVectorIndex) HealthCheck(ctx context.Context) error {
	return nil
}

// Helper methods for testing

// Add stores hits in a collection
func (m *MockVectorIndex) Add(collection string, hits ...domain.IndexHit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hits[collection] = append(m.hits[collection], hits...)
}

// Fail makes every call against collection return an error
func (m *MockVectorIndex) Fail(collection string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[collection] = fmt.Errorf("collection %s unavailable", collection)
}

// Delay makes every call against collection wait before answering
func (m *MockVectorIndex) Delay(collection string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delays[collection] = d
}

// QueryCount returns how many Query calls hit collection
func (m *MockVectorIndex) QueryCount(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.queries[collection]
}

// ScrollCount returns how many Scroll calls hit collection
func (m *MockVectorIndex) ScrollCount(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.scrolls[collection]
}
