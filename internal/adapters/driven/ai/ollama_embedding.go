package ai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/custodia-labs/atlas-core/internal/core/ports/driven"
)

// Ensure OllamaEmbedding implements EmbeddingService
var _ driven.EmbeddingService = (*OllamaEmbedding)(nil)

const (
	defaultOllamaEmbeddingModel = "nomic-embed-text"
	defaultEmbeddingDimensions  = 768
)

// OllamaEmbedding implements EmbeddingService against the Ollama embeddings API.
// Vectors are L2-normalised so cosine distance and dot product agree.
type OllamaEmbedding struct {
	model      string
	dimensions int
	http       *ollamaClient
}

// NewOllamaEmbedding creates an embedding service. dimensions <= 0 means 768.
func NewOllamaEmbedding(baseURL, model string, dimensions int) *OllamaEmbedding {
	if model == "" {
		model = defaultOllamaEmbeddingModel
	}
	if dimensions <= 0 {
		dimensions = defaultEmbeddingDimensions
	}
	return &OllamaEmbedding{
		model:      model,
		dimensions: dimensions,
		http:       newOllamaClient(baseURL, 30*time.Second),
	}
}

type ollamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

// EmbedQuery generates an embedding for a search query
func (e *OllamaEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	var resp ollamaEmbeddingResponse
	err := e.http.doJSON(ctx, http.MethodPost, "/api/embeddings",
		ollamaEmbeddingRequest{Model: e.model, Prompt: query}, &resp)
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	if len(resp.Embedding) == 0 {
		return nil, errors.New("ollama embed: empty embedding")
	}
	if len(resp.Embedding) != e.dimensions {
		return nil, fmt.Errorf("ollama embed: got %d dimensions, want %d", len(resp.Embedding), e.dimensions)
	}
	return normalizeVector(resp.Embedding), nil
}

// Dimensions returns the embedding dimension size
func (e *OllamaEmbedding) Dimensions() int {
	return e.dimensions
}

// Model returns the model name being used
func (e *OllamaEmbedding) Model() string {
	return e.model
}

// HealthCheck embeds a short probe text
func (e *OllamaEmbedding) HealthCheck(ctx context.Context) error {
	_, err := e.EmbedQuery(ctx, "health check")
	return err
}

// Close releases idle connections
func (e *OllamaEmbedding) Close() error {
	e.http.close()
	return nil
}

// normalizeVector scales v to unit length and narrows it to float32.
// A zero vector is returned unchanged.
func normalizeVector(v []float64) []float32 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		if norm > 0 {
			x /= norm
		}
		out[i] = float32(x)
	}
	return out
}
