package memory

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/custodia-labs/atlas-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.EmbeddingCache = (*EmbeddingCache)(nil)

// EmbeddingCache is a process-local EmbeddingCache backed by go-cache
type EmbeddingCache struct {
	cache *gocache.Cache
}

// NewEmbeddingCache creates a cache whose entries expire after ttl
func NewEmbeddingCache(ttl time.Duration) *EmbeddingCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &EmbeddingCache{cache: gocache.New(ttl, ttl/2)}
}

// Get returns the cached vector for key
func (c *EmbeddingCache) Get(_ context.Context, key string) ([]float32, bool, error) {
	v, ok := c.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	vec, ok := v.([]float32)
	return vec, ok, nil
}

// Set stores a copy of vector
func (c *EmbeddingCache) Set(_ context.Context, key string, vector []float32) error {
	cp := make([]float32, len(vector))
	copy(cp, vector)
	c.cache.SetDefault(key, cp)
	return nil
}

// Len returns the number of live entries
func (c *EmbeddingCache) Len() int {
	return c.cache.ItemCount()
}
