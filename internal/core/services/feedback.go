package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/quizgen-core/internal/core/domain"
	"github.com/custodia-labs/quizgen-core/internal/core/ports/driven"
	"github.com/custodia-labs/quizgen-core/internal/core/ports/driving"
)

// Ensure feedbackService implements FeedbackService
var _ driving.FeedbackService = (*feedbackService)(nil)

// feedbackService records ratings on generated questions.
// Ratings reference a session so the generating fingerprint can be
// traced through the stored quiz.
type feedbackService struct {
	feedbackStore driven.FeedbackStore
	sessionStore  driven.SessionStore
}

// NewFeedbackService creates a new FeedbackService
func NewFeedbackService(feedbackStore driven.FeedbackStore, sessionStore driven.SessionStore) driving.FeedbackService {
	return &feedbackService{
		feedbackStore: feedbackStore,
		sessionStore:  sessionStore,
	}
}

// Submit validates and stores one feedback record
func (s *feedbackService) Submit(ctx context.Context, fb *domain.Feedback) error {
	if fb == nil {
		return fmt.Errorf("%w: feedback is required", domain.ErrInvalidInput)
	}
	if err := fb.Validate(); err != nil {
		return err
	}

	// The session must exist; a question reference must resolve
	session, err := s.sessionStore.Get(ctx, fb.SessionID)
	if err != nil {
		return err
	}
	if fb.QuestionID != 0 && session.Quiz.Question(fb.QuestionID) == nil {
		return fmt.Errorf("%w: question %d", domain.ErrQuestionNotFound, fb.QuestionID)
	}

	if fb.ID == "" {
		fb.ID = uuid.NewString()
	}
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now().UTC()
	}

	return s.feedbackStore.Save(ctx, fb)
}

// ListBySession retrieves feedback for a session, newest first
func (s *feedbackService) ListBySession(ctx context.Context, sessionID string) ([]*domain.Feedback, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", domain.ErrInvalidInput)
	}
	return s.feedbackStore.ListBySession(ctx, sessionID)
}
