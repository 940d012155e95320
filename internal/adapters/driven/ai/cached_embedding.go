package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"

	"github.com/custodia-labs/atlas-core/internal/core/ports/driven"
)

// Ensure CachedEmbedding implements EmbeddingService
var _ driven.EmbeddingService = (*CachedEmbedding)(nil)

// CachedEmbedding memoises query embeddings. Cache failures are logged and
// treated as misses; they never fail an embedding call.
type CachedEmbedding struct {
	inner  driven.EmbeddingService
	cache  driven.EmbeddingCache
	logger *slog.Logger
}

// NewCachedEmbedding wraps inner with cache
func NewCachedEmbedding(inner driven.EmbeddingService, cache driven.EmbeddingCache, logger *slog.Logger) *CachedEmbedding {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedEmbedding{
		inner:  inner,
		cache:  cache,
		logger: logger.With("component", "embedding_cache"),
	}
}

// CacheKey derives the cache key for a query under a model. Case and
// whitespace differences map to the same key.
func CacheKey(model, text string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return model + ":" + hex.EncodeToString(sum[:])
}

// EmbedQuery returns the cached vector or embeds and stores it
func (c *CachedEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	key := CacheKey(c.inner.Model(), query)

	vec, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("embedding cache read failed", "error", err)
	} else if ok && len(vec) == c.inner.Dimensions() {
		return vec, nil
	}

	vec, err = c.inner.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, vec); err != nil {
		c.logger.Warn("embedding cache write failed", "error", err)
	}
	return vec, nil
}

// Dimensions returns the embedding dimension size
func (c *CachedEmbedding) Dimensions() int {
	return c.inner.Dimensions()
}

// Model returns the model name being used
func (c *CachedEmbedding) Model() string {
	return c.inner.Model()
}

// HealthCheck bypasses the cache
func (c *CachedEmbedding) HealthCheck(ctx context.Context) error {
	return c.inner.HealthCheck(ctx)
}

// Close closes the wrapped service
func (c *CachedEmbedding) Close() error {
	return c.inner.Close()
}
