package services

import (
	"context"
	"errors"
	"testing"

	"github.com/custodia-labs/quizgen-core/internal/core/domain"
	"github.com/custodia-labs/quizgen-core/internal/core/ports/driven/mocks"
)

func newFeedbackEnv(t *testing.T) (*feedbackService, *domain.Session) {
	t.Helper()

	sessionStore := mocks.NewMockSessionStore()
	sessions := NewSessionService(sessionStore, domain.DefaultSessionTTL, nil)
	session, err := sessions.Create(context.Background(), sampleQuiz())
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}

	svc := NewFeedbackService(mocks.NewMockFeedbackStore(), sessionStore).(*feedbackService)
	return svc, session
}

func TestFeedbackSubmit(t *testing.T) {
	svc, session := newFeedbackEnv(t)
	ctx := context.Background()

	fb := &domain.Feedback{
		SessionID:  session.ID,
		QuestionID: 1,
		Rating:     4,
		Comment:    "good question",
	}
	if err := svc.Submit(ctx, fb); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fb.ID == "" {
		t.Error("expected an assigned feedback ID")
	}
	if fb.CreatedAt.IsZero() {
		t.Error("expected a creation timestamp")
	}

	list, err := svc.ListBySession(ctx, session.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 feedback record, got %d", len(list))
	}
	if list[0].Rating != 4 {
		t.Errorf("expected rating 4, got %d", list[0].Rating)
	}
}

func TestFeedbackSubmit_WholeQuiz(t *testing.T) {
	svc, session := newFeedbackEnv(t)

	// QuestionID 0 rates the whole quiz and needs no question lookup
	err := svc.Submit(context.Background(), &domain.Feedback{
		SessionID: session.ID,
		Rating:    5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFeedbackSubmit_InvalidRating(t *testing.T) {
	svc, session := newFeedbackEnv(t)

	for _, rating := range []int{0, -1, 6} {
		err := svc.Submit(context.Background(), &domain.Feedback{
			SessionID: session.ID,
			Rating:    rating,
		})
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("rating %d: expected ErrInvalidInput, got %v", rating, err)
		}
	}
}

func TestFeedbackSubmit_UnknownSession(t *testing.T) {
	svc, _ := newFeedbackEnv(t)

	err := svc.Submit(context.Background(), &domain.Feedback{
		SessionID: "missing",
		Rating:    3,
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFeedbackSubmit_UnknownQuestion(t *testing.T) {
	svc, session := newFeedbackEnv(t)

	err := svc.Submit(context.Background(), &domain.Feedback{
		SessionID:  session.ID,
		QuestionID: 42,
		Rating:     3,
	})
	if !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Errorf("expected ErrQuestionNotFound, got %v", err)
	}
}
