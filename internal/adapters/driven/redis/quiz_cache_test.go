package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/custodia-labs/quizgen-core/internal/core/domain"
)

func testQuiz(documentID string) *domain.QuizSet {
	return &domain.QuizSet{
		Title:      "Quiz: oceans",
		DocumentID: documentID,
		Topic:      "oceans",
		Difficulty: domain.DifficultyMedium,
		Questions: []*domain.QuizQuestion{
			{
				ID:            1,
				Type:          domain.QuestionMultipleChoice,
				Prompt:        "Which is the largest ocean?",
				Options:       []string{"Pacific", "Atlantic", "Indian", "Arctic"},
				CorrectAnswer: "Pacific",
				Explanation:   "The Pacific covers the largest area.",
			},
		},
		SourceChunkIDs: []string{documentID + ":0"},
		GeneratedAt:    time.Now().UTC(),
	}
}

func TestQuizCache_SetAndGet(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewQuizCache(client)
	ctx := context.Background()
	quiz := testQuiz("doc-1")

	if err := cache.Set(ctx, "fp-1", quiz, time.Hour); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := cache.Get(ctx, "fp-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.DocumentID != "doc-1" {
		t.Errorf("expected document doc-1, got %s", got.DocumentID)
	}
	if len(got.Questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(got.Questions))
	}
	// Stored payload must replay exactly
	if got.Questions[0].ID != 1 || got.Questions[0].CorrectAnswer != "Pacific" {
		t.Error("cached quiz did not round-trip exactly")
	}
}

func TestQuizCache_Miss(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewQuizCache(client)

	_, err := cache.Get(context.Background(), "unknown")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestQuizCache_TTLExpiry(t *testing.T) {
	client, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewQuizCache(client)
	ctx := context.Background()

	if err := cache.Set(ctx, "fp-ttl", testQuiz("doc-1"), 30*time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mr.FastForward(31 * time.Minute)

	if _, err := cache.Get(ctx, "fp-ttl"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound after TTL, got %v", err)
	}
}

func TestQuizCache_RejectsNonPositiveTTL(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewQuizCache(client)

	if err := cache.Set(context.Background(), "fp", testQuiz("doc-1"), 0); err == nil {
		t.Error("expected error for zero TTL")
	}
}

func TestQuizCache_InvalidateDocument(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewQuizCache(client)
	ctx := context.Background()

	// Two quizzes for doc-1, one for doc-2
	if err := cache.Set(ctx, "fp-a", testQuiz("doc-1"), time.Hour); err != nil {
		t.Fatal(err)
	}
	if err := cache.Set(ctx, "fp-b", testQuiz("doc-1"), time.Hour); err != nil {
		t.Fatal(err)
	}
	if err := cache.Set(ctx, "fp-c", testQuiz("doc-2"), time.Hour); err != nil {
		t.Fatal(err)
	}

	if err := cache.InvalidateDocument(ctx, "doc-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := cache.Get(ctx, "fp-a"); !errors.Is(err, domain.ErrNotFound) {
		t.Error("fp-a should be invalidated")
	}
	if _, err := cache.Get(ctx, "fp-b"); !errors.Is(err, domain.ErrNotFound) {
		t.Error("fp-b should be invalidated")
	}
	if _, err := cache.Get(ctx, "fp-c"); err != nil {
		t.Error("fp-c belongs to another document and must survive")
	}
}

func TestQuizCache_InvalidateUnknownDocument(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewQuizCache(client)

	if err := cache.InvalidateDocument(context.Background(), "ghost"); err != nil {
		t.Errorf("invalidating an unknown document should be a no-op, got %v", err)
	}
}

func TestQuizCache_Ping(t *testing.T) {
	client, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewQuizCache(client)

	if err := cache.Ping(context.Background()); err != nil {
		t.Errorf("unexpected ping error: %v", err)
	}

	mr.Close()
	if err := cache.Ping(context.Background()); err == nil {
		t.Error("expected ping failure after backend shutdown")
	}
}
