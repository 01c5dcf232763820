package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/quizgen-core/internal/core/domain"
)

// setupTestRedis creates a miniredis instance and client
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return client, mr, func() {
		client.Close()
		mr.Close()
	}
}

func testSession(id string) *domain.Session {
	return &domain.Session{
		ID: id,
		Quiz: &domain.QuizSet{
			Title:      "Quiz: test",
			DocumentID: "doc-1",
			Topic:      "test",
			Difficulty: domain.DifficultyEasy,
			Questions: []*domain.QuizQuestion{
				{
					ID:            1,
					Type:          domain.QuestionTrueFalse,
					Prompt:        "True or false: water is wet.",
					Options:       []string{"true", "false"},
					CorrectAnswer: "true",
					Explanation:   "Water is wet.",
				},
			},
			GeneratedAt: time.Now().UTC(),
		},
		Status:    domain.SessionActive,
		Answers:   make(map[int]*domain.SubmittedAnswer),
		CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
}

func TestSessionStore_SaveAndGet(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewSessionStore(client)
	ctx := context.Background()
	session := testSession("session-1")

	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.Get(ctx, "session-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.ID != session.ID {
		t.Errorf("expected ID %s, got %s", session.ID, got.ID)
	}
	if got.Status != domain.SessionActive {
		t.Errorf("expected active status, got %s", got.Status)
	}
	if len(got.Quiz.Questions) != 1 {
		t.Fatalf("expected quiz to round-trip, got %d questions", len(got.Quiz.Questions))
	}
	if got.Quiz.Questions[0].CorrectAnswer != "true" {
		t.Error("correct answer did not round-trip")
	}
}

func TestSessionStore_GetMissing(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewSessionStore(client)

	_, err := store.Get(context.Background(), "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionStore_SaveExpiredFails(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewSessionStore(client)
	ctx := context.Background()

	session := testSession("session-expired")
	session.ExpiresAt = time.Now().Add(-time.Hour)

	// A write racing expiry must fail loudly rather than report success
	// for a discarded session
	if err := store.Save(ctx, session); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound saving an expired session, got %v", err)
	}

	if _, err := store.Get(ctx, "session-expired"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expired session must not be stored, got %v", err)
	}
}

func TestSessionStore_TTLExpiry(t *testing.T) {
	client, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewSessionStore(client)
	ctx := context.Background()

	session := testSession("session-ttl")
	session.ExpiresAt = time.Now().Add(time.Minute)
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Jump past the TTL
	mr.FastForward(2 * time.Minute)

	if _, err := store.Get(ctx, "session-ttl"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound after TTL, got %v", err)
	}
}

func TestSessionStore_AnswersRoundTrip(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewSessionStore(client)
	ctx := context.Background()

	session := testSession("session-answers")
	session.Answers[1] = &domain.SubmittedAnswer{
		QuestionID: 1,
		Answer:     "true",
		Correct:    true,
		AnsweredAt: time.Now().UTC(),
	}

	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.Get(ctx, "session-answers")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Answers) != 1 || !got.Answers[1].Correct {
		t.Error("recorded answers did not round-trip")
	}
}

func TestSessionStore_Delete(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewSessionStore(client)
	ctx := context.Background()

	session := testSession("session-del")
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.Delete(ctx, "session-del"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Get(ctx, "session-del"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// Deleting again is fine
	if err := store.Delete(ctx, "session-del"); err != nil {
		t.Errorf("second delete should be a no-op, got %v", err)
	}
}
