package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/quizgen-core/internal/core/domain"
	"github.com/custodia-labs/quizgen-core/internal/core/ports/driven"
	"github.com/custodia-labs/quizgen-core/internal/core/ports/driving"
)

// Ensure sessionService implements SessionService
var _ driving.SessionService = (*sessionService)(nil)

// sessionService manages quiz session lifecycle and answer grading
type sessionService struct {
	store  driven.SessionStore
	ttl    time.Duration
	logger *slog.Logger

	// now is swapped in tests for deterministic timestamps
	now func() time.Time
}

// NewSessionService creates a new SessionService
func NewSessionService(store driven.SessionStore, ttl time.Duration, logger *slog.Logger) driving.SessionService {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = domain.DefaultSessionTTL
	}

	return &sessionService{
		store:  store,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Create starts a new active session around a quiz set
func (s *sessionService) Create(ctx context.Context, quiz *domain.QuizSet) (*domain.Session, error) {
	if quiz == nil || len(quiz.Questions) == 0 {
		return nil, fmt.Errorf("%w: session needs a quiz with questions", domain.ErrInvalidInput)
	}

	now := s.now().UTC()
	session := &domain.Session{
		ID:        uuid.NewString(),
		Quiz:      quiz,
		Status:    domain.SessionActive,
		Answers:   make(map[int]*domain.SubmittedAnswer),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	if err := s.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.logger.Info("session created",
		"session_id", session.ID,
		"document_id", quiz.DocumentID,
		"questions", len(quiz.Questions))

	return session, nil
}

// Get retrieves a session by ID
func (s *sessionService) Get(ctx context.Context, id string) (*domain.Session, error) {
	session, err := s.getLive(ctx, id)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// SubmitAnswer grades one answer against the stored correct answer and
// records it. Answering the last open question completes the session.
func (s *sessionService) SubmitAnswer(ctx context.Context, sessionID string, questionID int, answer string) (*domain.AnswerResult, error) {
	session, err := s.getLive(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == domain.SessionCompleted {
		return nil, fmt.Errorf("%w: session %s", domain.ErrSessionCompleted, sessionID)
	}

	question := session.Quiz.Question(questionID)
	if question == nil {
		return nil, fmt.Errorf("%w: question %d", domain.ErrQuestionNotFound, questionID)
	}

	correct := domain.GradeAnswer(question.CorrectAnswer, answer)
	session.Answers[questionID] = &domain.SubmittedAnswer{
		QuestionID: questionID,
		Answer:     answer,
		Correct:    correct,
		AnsweredAt: s.now().UTC(),
	}

	if session.AllAnswered() {
		session.Status = domain.SessionCompleted
	}

	if err := s.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return &domain.AnswerResult{
		QuestionID:    questionID,
		Correct:       correct,
		CorrectAnswer: question.CorrectAnswer,
		Explanation:   question.Explanation,
	}, nil
}

// Complete explicitly finishes a session.
// Completing an already completed session is a no-op.
func (s *sessionService) Complete(ctx context.Context, sessionID string) error {
	session, err := s.getLive(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Status == domain.SessionCompleted {
		return nil
	}

	session.Status = domain.SessionCompleted
	if err := s.store.Save(ctx, session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Results computes the aggregate outcome for a session.
// Unanswered questions count as incorrect.
func (s *sessionService) Results(ctx context.Context, sessionID string) (*domain.SessionResults, error) {
	session, err := s.getLive(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return domain.ComputeResults(session, s.now().UTC()), nil
}

// getLive loads a session and maps missing or expired sessions onto
// ErrSessionNotFound
func (s *sessionService) getLive(ctx context.Context, id string) (*domain.Session, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: session id is required", domain.ErrInvalidInput)
	}

	session, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
		}
		return nil, err
	}
	if session.Expired(s.now()) {
		return nil, fmt.Errorf("%w: %s expired", domain.ErrSessionNotFound, id)
	}
	return session, nil
}
