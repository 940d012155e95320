package driven

import (
	"context"

	"github.com/custodia-labs/atlas-core/internal/core/domain"
)

// LLMService is the generation backend
type LLMService interface {
	// Generate returns the complete answer for a prompt
	Generate(ctx context.Context, req domain.GenerateRequest) (string, error)

	// GenerateStream calls onChunk for every text fragment in order.
	// Returning an error from onChunk aborts the stream with that error.
	GenerateStream(ctx context.Context, req domain.GenerateRequest, onChunk func(chunk string) error) error

	// ListModels returns the models the backend can serve
	ListModels(ctx context.Context) ([]string, error)

	// Model returns the default model name
	Model() string

	// Ping verifies the LLM service is available
	Ping(ctx context.Context) error

	// Close releases resources held by the LLM service
	Close() error
}
