package driving

import (
	"context"

	"github.com/custodia-labs/quizgen-core/internal/core/domain"
)

// SessionService manages quiz sessions and answer grading
type SessionService interface {
	// Create starts a new active session around a quiz set
	Create(ctx context.Context, quiz *domain.QuizSet) (*domain.Session, error)

	// Get retrieves a session by ID
	Get(ctx context.Context, id string) (*domain.Session, error)

	// SubmitAnswer grades one answer and records it.
	// Completing the last question transitions the session to completed.
	SubmitAnswer(ctx context.Context, sessionID string, questionID int, answer string) (*domain.AnswerResult, error)

	// Complete explicitly finishes a session
	Complete(ctx context.Context, sessionID string) error

	// Results computes the aggregate outcome for a session
	Results(ctx context.Context, sessionID string) (*domain.SessionResults, error)
}

// FeedbackService records user feedback on generated questions
type FeedbackService interface {
	// Submit stores one feedback record
	Submit(ctx context.Context, fb *domain.Feedback) error

	// ListBySession retrieves feedback for a session
	ListBySession(ctx context.Context, sessionID string) ([]*domain.Feedback, error)
}
