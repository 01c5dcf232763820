package driven

import (
	"context"
)

// Reranker scores (query, chunk) pairs with a pairwise relevance model.
// This is the precision stage after rank fusion; callers fall back to
// fused order when the reranker is unavailable.
type Reranker interface {
	// Score returns one relevance score per chunk content, aligned by
	// index with the input slice.
	Score(ctx context.Context, query string, chunks []string) ([]float64, error)

	// Model returns the model identifier for logging
	Model() string

	// HealthCheck verifies the reranker service is available
	HealthCheck(ctx context.Context) error

	// Close releases resources held by the reranker
	Close() error
}
