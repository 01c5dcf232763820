package driven

import (
	"context"

	"github.com/custodia-labs/quizgen-core/internal/core/domain"
)

// DocumentStore handles document persistence (PostgreSQL)
type DocumentStore interface {
	// Save creates or fully replaces a document record
	Save(ctx context.Context, doc *domain.Document) error

	// Get retrieves a document by ID
	Get(ctx context.Context, id string) (*domain.Document, error)

	// Delete deletes a document
	Delete(ctx context.Context, id string) error

	// Count returns total document count
	Count(ctx context.Context) (int, error)
}

// ChunkStore handles chunk persistence (PostgreSQL)
type ChunkStore interface {
	// SaveBatch replaces all chunks for the batch's document in a
	// transaction. Re-ingestion must leave no orphaned chunks.
	SaveBatch(ctx context.Context, documentID string, chunks []*domain.Chunk) error

	// GetByDocument retrieves all chunks for a document ordered by ordinal
	GetByDocument(ctx context.Context, documentID string) ([]*domain.Chunk, error)

	// GetByIDs retrieves chunks by ID, preserving the requested order
	GetByIDs(ctx context.Context, ids []string) ([]*domain.Chunk, error)

	// DeleteByDocument deletes all chunks for a document
	DeleteByDocument(ctx context.Context, documentID string) error

	// CountByDocument returns the chunk count for a document
	CountByDocument(ctx context.Context, documentID string) (int, error)
}
