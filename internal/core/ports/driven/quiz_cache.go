package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/quizgen-core/internal/core/domain"
)

// QuizCache memoizes generated quiz sets by fingerprint (Redis).
// Implementations must return the exact stored payload on a hit;
// question IDs and answers are used downstream for grading.
type QuizCache interface {
	// Get retrieves a cached quiz set.
	// Returns domain.ErrNotFound on a miss or expired entry.
	Get(ctx context.Context, fingerprint string) (*domain.QuizSet, error)

	// Set stores a quiz set under the fingerprint with the given TTL
	Set(ctx context.Context, fingerprint string, quiz *domain.QuizSet, ttl time.Duration) error

	// InvalidateDocument clears every cached quiz for a document
	InvalidateDocument(ctx context.Context, documentID string) error

	// Ping verifies the cache backend is reachable
	Ping(ctx context.Context) error
}
