package runtime

import (
	"context"
	"log/slog"
	"sync"

	"github.com/custodia-labs/atlas-core/internal/core/domain"
	"github.com/custodia-labs/atlas-core/internal/core/ports/driven"
)

// Services holds references to the backends the core depends on.
// AI services can be swapped at runtime; the index and store are fixed at
// startup. Thread-safe for concurrent access.
type Services struct {
	mu sync.RWMutex

	// Config tracks capability flags
	config *domain.RuntimeConfig

	// Dynamic services (can be nil)
	embeddingService driven.EmbeddingService
	llmService       driven.LLMService

	// Static backends (set once at startup)
	index driven.VectorIndex
	store driven.SiteStore
}

// NewServices creates a new Services registry
func NewServices(config *domain.RuntimeConfig) *Services {
	return &Services{
		config: config,
	}
}

// Config returns the runtime configuration
func (s *Services) Config() *domain.RuntimeConfig {
	return s.config
}

// EmbeddingService returns the current embedding service (may be nil)
func (s *Services) EmbeddingService() driven.EmbeddingService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.embeddingService
}

// LLMService returns the current LLM service (may be nil)
func (s *Services) LLMService() driven.LLMService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.llmService
}

// SetEmbeddingService updates the embedding service.
// Closes the old service if present. Updates config flags.
func (s *Services) SetEmbeddingService(svc driven.EmbeddingService) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.embeddingService != nil && s.embeddingService != svc {
		_ = s.embeddingService.Close()
	}

	s.embeddingService = svc
	s.config.SetEmbeddingAvailable(svc != nil)
}

// SetLLMService updates the LLM service.
// Closes the old service if present. Updates config flags.
func (s *Services) SetLLMService(svc driven.LLMService) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.llmService != nil && s.llmService != svc {
		_ = s.llmService.Close()
	}

	s.llmService = svc
	s.config.SetLLMAvailable(svc != nil)
}

// SetBackends records the vector index and site store.
// Availability is established by the first Probe.
func (s *Services) SetBackends(index driven.VectorIndex, store driven.SiteStore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = index
	s.store = store
}

// Close shuts down all services
func (s *Services) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.embeddingService != nil {
		_ = s.embeddingService.Close()
		s.embeddingService = nil
	}
	if s.llmService != nil {
		_ = s.llmService.Close()
		s.llmService = nil
	}

	s.config.SetEmbeddingAvailable(false)
	s.config.SetLLMAvailable(false)
	s.config.SetIndexAvailable(false)
	s.config.SetStoreAvailable(false)

	return nil
}

// Probe health-checks every configured backend and refreshes the
// availability flags. Services stay registered when a check fails so they
// can recover on the next probe.
func (s *Services) Probe(ctx context.Context, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	s.mu.RLock()
	embedding, llm, index, store := s.embeddingService, s.llmService, s.index, s.store
	s.mu.RUnlock()

	check := func(name string, configured bool, fn func(context.Context) error, set func(bool)) {
		if !configured {
			set(false)
			return
		}
		err := fn(ctx)
		if err != nil {
			logger.Warn("backend unavailable", "backend", name, "error", err)
		}
		set(err == nil)
	}

	check("embedding", embedding != nil, func(ctx context.Context) error { return embedding.HealthCheck(ctx) }, s.config.SetEmbeddingAvailable)
	check("llm", llm != nil, func(ctx context.Context) error { return llm.Ping(ctx) }, s.config.SetLLMAvailable)
	check("index", index != nil, func(ctx context.Context) error { return index.HealthCheck(ctx) }, s.config.SetIndexAvailable)
	check("store", store != nil, func(ctx context.Context) error { return store.Ping(ctx) }, s.config.SetStoreAvailable)
}
