package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/quizgen-core/internal/core/domain"
	"github.com/custodia-labs/quizgen-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.QuizCache = (*QuizCache)(nil)

const (
	quizPrefix    = "quiz:set:"
	quizDocPrefix = "quiz:doc:"
)

// QuizCache implements driven.QuizCache using Redis.
// Entries expire via Redis TTL; a per-document set tracks which
// fingerprints exist so re-ingestion can invalidate them all.
type QuizCache struct {
	client *redis.Client
}

// NewQuizCache creates a new Redis-backed QuizCache
func NewQuizCache(client *redis.Client) *QuizCache {
	return &QuizCache{client: client}
}

// Get retrieves a cached quiz set.
// Returns domain.ErrNotFound on a miss or expired entry.
func (c *QuizCache) Get(ctx context.Context, fingerprint string) (*domain.QuizSet, error) {
	data, err := c.client.Get(ctx, quizPrefix+fingerprint).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached quiz: %w", err)
	}

	var quiz domain.QuizSet
	if err := json.Unmarshal(data, &quiz); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached quiz: %w", err)
	}

	return &quiz, nil
}

// Set stores a quiz set under the fingerprint with the given TTL
func (c *QuizCache) Set(ctx context.Context, fingerprint string, quiz *domain.QuizSet, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive, got %s", ttl)
	}

	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("failed to marshal quiz: %w", err)
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, quizPrefix+fingerprint, data, ttl)

	// Track the fingerprint under its document. The set outlives the
	// entry slightly so invalidation can always find live fingerprints.
	docKey := quizDocPrefix + quiz.DocumentID
	pipe.SAdd(ctx, docKey, fingerprint)
	pipe.Expire(ctx, docKey, ttl+time.Minute)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache quiz: %w", err)
	}
	return nil
}

// InvalidateDocument clears every cached quiz for a document
func (c *QuizCache) InvalidateDocument(ctx context.Context, documentID string) error {
	docKey := quizDocPrefix + documentID

	fingerprints, err := c.client.SMembers(ctx, docKey).Result()
	if err != nil {
		return fmt.Errorf("failed to list document fingerprints: %w", err)
	}
	if len(fingerprints) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	for _, fingerprint := range fingerprints {
		pipe.Del(ctx, quizPrefix+fingerprint)
	}
	pipe.Del(ctx, docKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to invalidate cached quizzes: %w", err)
	}
	return nil
}

// Ping verifies the cache backend is reachable
func (c *QuizCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
