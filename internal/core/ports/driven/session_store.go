package driven

import (
	"context"

	"github.com/custodia-labs/quizgen-core/internal/core/domain"
)

// SessionStore handles quiz session persistence (Redis or PostgreSQL).
// Sessions expire at their ExpiresAt timestamp.
type SessionStore interface {
	// Save stores a session with TTL based on ExpiresAt
	Save(ctx context.Context, session *domain.Session) error

	// Get retrieves a session by ID.
	// Returns domain.ErrNotFound for unknown or expired sessions.
	Get(ctx context.Context, id string) (*domain.Session, error)

	// Delete deletes a session
	Delete(ctx context.Context, id string) error
}

// FeedbackStore persists user feedback on generated questions (PostgreSQL)
type FeedbackStore interface {
	// Save stores one feedback record
	Save(ctx context.Context, fb *domain.Feedback) error

	// ListBySession retrieves feedback for a session, newest first
	ListBySession(ctx context.Context, sessionID string) ([]*domain.Feedback, error)
}

// QuizStore persists generated quiz sets for provenance auditing
// (PostgreSQL). Write-through from the cache layer.
type QuizStore interface {
	// Save stores a quiz set under its fingerprint
	Save(ctx context.Context, fingerprint string, quiz *domain.QuizSet) error

	// GetByFingerprint retrieves a stored quiz set
	GetByFingerprint(ctx context.Context, fingerprint string) (*domain.QuizSet, error)

	// DeleteByDocument removes stored quiz sets for a document
	DeleteByDocument(ctx context.Context, documentID string) error
}
