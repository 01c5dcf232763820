package driving

import (
	"context"

	"github.com/custodia-labs/quizgen-core/internal/core/domain"
)

// QuizService generates quizzes grounded in ingested documents
type QuizService interface {
	// Generate returns a quiz for the request, served from cache when a
	// fresh fingerprint match exists. Concurrent requests for the same
	// fingerprint share one computation.
	Generate(ctx context.Context, req domain.QuizRequest) (*domain.QuizResponse, error)

	// InvalidateDocument clears cached quizzes for a document
	// (called after re-ingestion)
	InvalidateDocument(ctx context.Context, documentID string) error
}

// RetrievalService returns reranked grounding context for a query
type RetrievalService interface {
	// Retrieve runs hybrid retrieval plus reranking scoped to one document
	Retrieve(ctx context.Context, documentID string, query string, opts domain.RetrievalOptions) (*domain.RetrievalResult, error)
}
