package driven

import (
	"context"

	"github.com/custodia-labs/quizgen-core/internal/core/domain"
)

// VectorHit is one dense similarity match
type VectorHit struct {
	ChunkID string  `json:"chunk_id"`
	Score   float64 `json:"score"`
}

// VectorIndex handles dense vector indexing and similarity search
// (Weaviate). Index replacement per document must be atomic from the
// reader's perspective.
type VectorIndex interface {
	// Upsert replaces all vectors for the chunks' document.
	// Embeddings are aligned by index with chunks.
	Upsert(ctx context.Context, chunks []*domain.Chunk, embeddings [][]float32) error

	// Search finds the top-limit most similar chunks within a document
	Search(ctx context.Context, documentID string, embedding []float32, limit int) ([]VectorHit, error)

	// DeleteByDocument removes all vectors for a document
	DeleteByDocument(ctx context.Context, documentID string) error

	// HealthCheck verifies the vector index is available
	HealthCheck(ctx context.Context) error
}

// SparseHit is one lexical match
type SparseHit struct {
	ChunkID string  `json:"chunk_id"`
	Score   float64 `json:"score"`
}

// SparseIndex handles lexical (term-overlap) indexing and search over
// the same chunks as the VectorIndex
type SparseIndex interface {
	// IndexDocument atomically replaces the postings for a document
	IndexDocument(ctx context.Context, documentID string, chunks []*domain.Chunk) error

	// Search returns the top-limit lexical matches within a document
	Search(ctx context.Context, documentID string, query string, limit int) ([]SparseHit, error)

	// DeleteDocument removes all postings for a document
	DeleteDocument(ctx context.Context, documentID string) error
}
