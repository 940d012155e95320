package mocks

import (
	"sync"
	"time"

	"github.com/custodia-labs/atlas-core/internal/core/ports/driven"
)

var _ driven.MetricsRecorder = (*MockMetrics)(nil)

// MockMetrics records every measurement for assertions
type MockMetrics struct {
	mu                 sync.Mutex
	Sessions           int
	QueueDepth         int
	Busy               bool
	Takeovers          int
	Queries            map[string]int
	CollectionFailures map[string]int
	Fallbacks          map[string]int
	Searches           int
	Generations        int
}

// NewMockMetrics creates a new MockMetrics
func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		Queries:            make(map[string]int),
		CollectionFailures: make(map[string]int),
		Fallbacks:          make(map[string]int),
	}
}

func (m *MockMetrics) SetAdmission(sessions, queueDepth int, busy bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sessions, m.QueueDepth, m.Busy = sessions, queueDepth, busy
}

func (m *MockMetrics) IncTakeover() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Takeovers++
}

func (m *MockMetrics) IncQuery(intent string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries[intent]++
}

func (m *MockMetrics) IncCollectionFailure(collection string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CollectionFailures[collection]++
}

func (m *MockMetrics) IncFallback(stage string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Fallbacks[stage]++
}

func (m *MockMetrics) ObserveSearch(time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Searches++
}

func (m *MockMetrics) ObserveGeneration(time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Generations++
}

// FallbackCount returns how often stage fell back
func (m *MockMetrics) FallbackCount(stage string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Fallbacks[stage]
}

// CollectionFailureCount returns the failure count for a collection
func (m *MockMetrics) CollectionFailureCount(collection string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CollectionFailures[collection]
}
