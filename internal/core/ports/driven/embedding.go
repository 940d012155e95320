package driven

import (
	"context"
)

// EmbeddingService generates text embeddings
type EmbeddingService interface {
	// EmbedQuery generates an embedding for a search query
	EmbedQuery(ctx context.Context, query string) ([]float32, error)

	// Dimensions returns the embedding dimension size
	Dimensions() int

	// Model returns the model name being used
	Model() string

	// HealthCheck verifies the embedding service is available
	HealthCheck(ctx context.Context) error

	// Close releases resources held by the embedding service
	Close() error
}

// EmbeddingCache stores query embeddings keyed by model and text
type EmbeddingCache interface {
	// Get returns the cached vector, or ok=false on a miss
	Get(ctx context.Context, key string) (vector []float32, ok bool, err error)

	// Set stores a vector
	Set(ctx context.Context, key string, vector []float32) error
}
