package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/custodia-labs/atlas-core/internal/core/domain"
	"github.com/custodia-labs/atlas-core/internal/core/ports/driven/mocks"
)

// mockEmbeddingService is a mock implementation for testing
type mockEmbeddingService struct {
	healthCheckErr error
	closed         bool
}

func (m *mockEmbeddingService) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return nil, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	return 384
}

func (m *mockEmbeddingService) Model() string {
	return "test-model"
}

func (m *mockEmbeddingService) HealthCheck(ctx context.Context) error {
	return m.healthCheckErr
}

func (m *mockEmbeddingService) Close() error {
	m.closed = true
	return nil
}

// mockLLMService is a mock implementation for testing
type mockLLMService struct {
	pingErr error
	closed  bool
}

func (m *mockLLMService) Generate(ctx context.Context, req domain.GenerateRequest) (string, error) {
	return "", nil
}

func (m *mockLLMService) GenerateStream(ctx context.Context, req domain.GenerateRequest, onChunk func(string) error) error {
	return nil
}

func (m *mockLLMService) ListModels(ctx context.Context) ([]string, error) {
	return []string{"test-llm"}, nil
}

func (m *mockLLMService) Model() string {
	return "test-llm"
}

func (m *mockLLMService) Ping(ctx context.Context) error {
	return m.pingErr
}

func (m *mockLLMService) Close() error {
	m.closed = true
	return nil
}

func TestNewServices(t *testing.T) {
	config := domain.NewRuntimeConfig("memory")
	services := NewServices(config)

	if services == nil {
		t.Fatal("expected non-nil services")
	}
	if services.Config() != config {
		t.Error("expected config to be set")
	}
	if services.EmbeddingService() != nil {
		t.Error("expected nil embedding service initially")
	}
	if services.LLMService() != nil {
		t.Error("expected nil LLM service initially")
	}
}

func TestServices_SetEmbeddingService(t *testing.T) {
	config := domain.NewRuntimeConfig("memory")
	services := NewServices(config)

	first := &mockEmbeddingService{}
	services.SetEmbeddingService(first)
	if !config.EmbeddingAvailable() {
		t.Error("expected embedding to be available")
	}

	second := &mockEmbeddingService{}
	services.SetEmbeddingService(second)
	if !first.closed {
		t.Error("expected old service to be closed")
	}
	if services.EmbeddingService() != second {
		t.Error("expected new service to be set")
	}

	services.SetEmbeddingService(nil)
	if config.EmbeddingAvailable() {
		t.Error("expected embedding to be unavailable after clearing")
	}
}

func TestServices_SetLLMService(t *testing.T) {
	config := domain.NewRuntimeConfig("memory")
	services := NewServices(config)

	first := &mockLLMService{}
	services.SetLLMService(first)
	if !config.LLMAvailable() {
		t.Error("expected LLM to be available")
	}

	services.SetLLMService(&mockLLMService{})
	if !first.closed {
		t.Error("expected old service to be closed")
	}
}

func TestServices_Probe(t *testing.T) {
	config := domain.NewRuntimeConfig("memory")
	services := NewServices(config)

	embedding := &mockEmbeddingService{}
	services.SetEmbeddingService(embedding)
	services.SetLLMService(&mockLLMService{pingErr: errors.New("down")})
	services.SetBackends(mocks.NewMockVectorIndex(), mocks.NewMockSiteStore())

	services.Probe(context.Background(), nil)

	if !config.EmbeddingAvailable() || !config.IndexAvailable() || !config.StoreAvailable() {
		t.Errorf("unexpected readiness: %v", config.Readiness())
	}
	if config.LLMAvailable() {
		t.Error("expected LLM to be marked unavailable")
	}
	if services.LLMService() == nil {
		t.Error("a failed probe must not unregister the service")
	}

	embedding.healthCheckErr = errors.New("gone")
	services.Probe(context.Background(), nil)
	if config.CanDoSemanticSearch() {
		t.Error("expected semantic search to be unavailable")
	}
}

func TestServices_Close(t *testing.T) {
	config := domain.NewRuntimeConfig("memory")
	services := NewServices(config)

	embedding := &mockEmbeddingService{}
	llm := &mockLLMService{}
	services.SetEmbeddingService(embedding)
	services.SetLLMService(llm)

	if err := services.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !embedding.closed || !llm.closed {
		t.Error("expected services to be closed")
	}
	if config.EmbeddingAvailable() || config.LLMAvailable() {
		t.Error("expected flags to be cleared")
	}
}
