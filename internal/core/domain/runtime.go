package domain

import "sync"

// RuntimeConfig tracks which external services are available.
// Capability flags are consulted by retrieval and generation so every
// degraded path is explicit rather than an exception swallowed somewhere.
// Thread-safe for concurrent access.
type RuntimeConfig struct {
	mu sync.RWMutex

	// Static (set at startup, read-only)
	SessionBackend string // "redis" or "postgres"

	// Dynamic capability flags
	embeddingAvailable  bool
	llmAvailable        bool
	rerankerAvailable   bool
	denseIndexAvailable bool
}

// NewRuntimeConfig creates a new RuntimeConfig with initial values
func NewRuntimeConfig(sessionBackend string) *RuntimeConfig {
	return &RuntimeConfig{
		SessionBackend: sessionBackend,
	}
}

// EmbeddingAvailable returns whether the embedding service is available
func (c *RuntimeConfig) EmbeddingAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.embeddingAvailable
}

// LLMAvailable returns whether the language model is available
func (c *RuntimeConfig) LLMAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.llmAvailable
}

// RerankerAvailable returns whether the reranker service is available
func (c *RuntimeConfig) RerankerAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rerankerAvailable
}

// DenseIndexAvailable returns whether the vector index is reachable
func (c *RuntimeConfig) DenseIndexAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.denseIndexAvailable
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

// SetRerankerAvailable updates the reranker availability flag
func (c *RuntimeConfig) SetRerankerAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rerankerAvailable = available
}

// SetDenseIndexAvailable updates the vector index availability flag
func (c *RuntimeConfig) SetDenseIndexAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.denseIndexAvailable = available
}

// CanDoDenseRetrieval returns true if dense retrieval is possible at all
func (c *RuntimeConfig) CanDoDenseRetrieval() bool {
	return c.EmbeddingAvailable() && c.DenseIndexAvailable()
}
