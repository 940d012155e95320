package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/atlas-core/internal/core/domain"
	"github.com/custodia-labs/atlas-core/internal/core/ports/driven"
)

var _ driven.SiteStore = (*MockSiteStore)(nil)

// MockSiteStore is a mock implementation of SiteStore for testing
type MockSiteStore struct {
	mu       sync.RWMutex
	sites    map[string]*domain.Site
	fetchErr error
	scanErr  error
}

// NewMockSiteStore creates a new MockSiteStore
func NewMockSiteStore() *MockSiteStore {
	return &MockSiteStore{
		sites: make(map[string]*domain.Site),
	}
}

func (m *MockSiteStore) FetchByIDs(ctx context.Context, ids []string) ([]*domain.Site, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	var out []*domain.Site
	for _, id := range ids {
		if s, ok := m.sites[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MockSiteStore) KeywordScan(ctx context.Context, terms []string, limit int) ([]*domain.Site, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.scanErr != nil {
		return nil, m.scanErr
	}

	priority := make(map[string]int, len(domain.SourcePriority))
	for i, id := range domain.SourcePriority {
		priority[id] = i
	}

	var out []*domain.Site
	for _, s := range m.sites {
		text := strings.ToLower(s.Name + " " + s.Description + " " + s.Country)
		for _, term := range terms {
			if strings.Contains(text, strings.ToLower(term)) {
				out = append(out, s)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		pi, pj := rank(priority, out[i].Source), rank(priority, out[j].Source)
		if pi != pj {
			return pi < pj
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func rank(priority map[string]int, source string) int {
	if p, ok := priority[source]; ok {
		return p
	}
	return len(priority)
}

func (m *MockSiteStore) Ping(ctx context.Context) error {
	return nil
}

// Helper methods for testing

func (m *MockSiteStore) Add(sites ...*domain.Site) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range sites {
		m.sites[s.ID] = s
	}
}

func (m *MockSiteStore) SetFetchError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchErr = err
}

func (m *MockSiteStore) SetScanError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scanErr = err
}
