package domain

import "sync"

// RuntimeConfig tracks which backends are available at runtime.
// Flags are set at startup and refreshed by the janitor's readiness probe.
// Thread-safe for concurrent access.
type RuntimeConfig struct {
	mu sync.RWMutex

	// Static (set at startup, read-only)
	CacheBackend string // "memory" or "redis"

	// Dynamic capability flags
	embeddingAvailable bool
	llmAvailable       bool
	indexAvailable     bool
	storeAvailable     bool
}

// NewRuntimeConfig creates a new RuntimeConfig with initial values
func NewRuntimeConfig(cacheBackend string) *RuntimeConfig {
	return &RuntimeConfig{
		CacheBackend: cacheBackend,
	}
}

// EmbeddingAvailable returns whether the embedding backend is available
func (c *RuntimeConfig) EmbeddingAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.embeddingAvailable
}

// LLMAvailable returns whether the generation backend is available
func (c *RuntimeConfig) LLMAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.llmAvailable
}

// IndexAvailable returns whether the vector index is reachable
func (c *RuntimeConfig) IndexAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.indexAvailable
}

// StoreAvailable returns whether the site record store is reachable
func (c *RuntimeConfig) StoreAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.storeAvailable
}

// SetEmbeddingAvailable updates the embedding availability flag
func (c *RuntimeConfig) SetEmbeddingAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.embeddingAvailable = available
}

// SetLLMAvailable updates the LLM availability flag
func (c *RuntimeConfig) SetLLMAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.llmAvailable = available
}

// SetIndexAvailable updates the vector index availability flag
func (c *RuntimeConfig) SetIndexAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.indexAvailable = available
}

// SetStoreAvailable updates the site store availability flag
func (c *RuntimeConfig) SetStoreAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.storeAvailable = available
}

// CanDoSemanticSearch returns true if queries can be embedded and matched
func (c *RuntimeConfig) CanDoSemanticSearch() bool {
	return c.EmbeddingAvailable() && c.IndexAvailable()
}

// CanGenerate returns true if answers can be generated
func (c *RuntimeConfig) CanGenerate() bool {
	return c.LLMAvailable()
}

// Readiness reports every flag by backend name
func (c *RuntimeConfig) Readiness() map[string]bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return map[string]bool{
		"embedding": c.embeddingAvailable,
		"llm":       c.llmAvailable,
		"index":     c.indexAvailable,
		"store":     c.storeAvailable,
	}
}

// Ready reports whether every backend is available
func (c *RuntimeConfig) Ready() bool {
	for _, ok := range c.Readiness() {
		if !ok {
			return false
		}
	}
	return true
}
