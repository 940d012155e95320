package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/atlas-core/internal/core/domain"
	"github.com/custodia-labs/atlas-core/internal/core/ports/driven"
)

var _ driven.WebSearcher = (*MockWebSearcher)(nil)

// MockWebSearcher returns a fixed response for testing
type MockWebSearcher struct {
	mu      sync.Mutex
	results []domain.WebSearchResult
	err     error
	queries []string
}

// NewMockWebSearcher creates a new MockWebSearcher
func NewMockWebSearcher() *MockWebSearcher {
	return &MockWebSearcher{}
}

func (m *MockWebSearcher) Search(ctx context.Context, query string, maxResults int, category string) (*domain.WebSearchResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, query)
	if m.err != nil {
		return nil, m.err
	}
	results := m.results
	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}
	return &domain.WebSearchResponse{
		Success: len(results) > 0,
		Results: results,
		Source:  "mock",
	}, nil
}

// Helper methods for testing

func (m *MockWebSearcher) SetResults(results ...domain.WebSearchResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = results
}

func (m *MockWebSearcher) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockWebSearcher) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}
