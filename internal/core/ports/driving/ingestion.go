package driving

import (
	"context"

	"github.com/custodia-labs/quizgen-core/internal/core/domain"
)

// IngestionService turns extracted document text into indexed chunks
type IngestionService interface {
	// Ingest chunks, embeds and indexes one document synchronously.
	// Re-ingesting an existing document ID fully replaces its chunks
	// and index entries.
	Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error)

	// EnqueueIngest schedules an ingestion on the task queue and
	// returns the task ID. Falls back to synchronous ingestion when no
	// queue is configured.
	EnqueueIngest(ctx context.Context, req domain.IngestRequest) (string, error)

	// GetDocument retrieves an ingested document's record
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// DeleteDocument removes a document, its chunks and index entries
	DeleteDocument(ctx context.Context, id string) error
}
