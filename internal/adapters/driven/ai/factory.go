package ai

import (
	"fmt"
	"log/slog"

	"github.com/custodia-labs/atlas-core/internal/core/domain"
	"github.com/custodia-labs/atlas-core/internal/core/ports/driven"
)

// Ensure Factory implements AIServiceFactory
var _ driven.AIServiceFactory = (*Factory)(nil)

// Factory creates AI services based on configuration
type Factory struct {
	cache  driven.EmbeddingCache
	logger *slog.Logger
}

// NewFactory creates a new AI service factory. When cache is non-nil every
// embedding service it creates is wrapped in a CachedEmbedding.
func NewFactory(cache driven.EmbeddingCache, logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{cache: cache, logger: logger}
}

// CreateEmbeddingService creates an embedding service from settings
func (f *Factory) CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	var svc driven.EmbeddingService
	switch settings.Provider {
	case domain.AIProviderOllama:
		svc = NewOllamaEmbedding(settings.BaseURL, settings.Model, settings.Dimensions)
	case domain.AIProviderOpenAI:
		emb, err := NewOpenAIEmbedding(settings.APIKey, settings.Model, settings.BaseURL, settings.Dimensions)
		if err != nil {
			return nil, err
		}
		svc = emb
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, settings.Provider)
	}

	if f.cache != nil {
		svc = NewCachedEmbedding(svc, f.cache, f.logger)
	}
	return svc, nil
}

// CreateLLMService creates an LLM service from settings.
// Generation is served by Ollama only.
func (f *Factory) CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return NewOllamaLLM(settings.BaseURL, settings.Model), nil
	default:
		return nil, fmt.Errorf("%w: %s does not serve generation", domain.ErrInvalidProvider, settings.Provider)
	}
}
