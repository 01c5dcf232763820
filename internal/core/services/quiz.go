package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/quizgen-core/internal/core/domain"
	"github.com/custodia-labs/quizgen-core/internal/core/ports/driven"
	"github.com/custodia-labs/quizgen-core/internal/core/ports/driving"
)

// Ensure quizService implements QuizService
var _ driving.QuizService = (*quizService)(nil)

// DefaultQuizTTL bounds how long a cached quiz is replayed
const DefaultQuizTTL = 30 * time.Minute

// quizService fronts the generation orchestrator with a fingerprint
// cache. Lookup-before-compute, single-flight per fingerprint, and
// graceful degradation to direct computation when the cache backend is
// down. A cache hit is returned byte-identical to what was stored;
// question IDs and answers feed grading downstream.
type quizService struct {
	generator *GenerationOrchestrator
	cache     driven.QuizCache
	quizStore driven.QuizStore
	ttl       time.Duration
	logger    *slog.Logger

	flight singleflight.Group
}

// QuizConfig holds dependencies for the quiz service.
// Cache and QuizStore are optional; without a cache every request
// computes directly.
type QuizConfig struct {
	Generator *GenerationOrchestrator
	Cache     driven.QuizCache
	QuizStore driven.QuizStore
	TTL       time.Duration
	Logger    *slog.Logger
}

// NewQuizService creates a new QuizService
func NewQuizService(cfg QuizConfig) driving.QuizService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultQuizTTL
	}

	return &quizService{
		generator: cfg.Generator,
		cache:     cfg.Cache,
		quizStore: cfg.QuizStore,
		ttl:       ttl,
		logger:    logger,
	}
}

// Generate returns a quiz for the request, served from cache when a
// fresh fingerprint match exists.
func (s *quizService) Generate(ctx context.Context, req domain.QuizRequest) (*domain.QuizResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	fingerprint := Fingerprint(req)

	if s.cache != nil {
		quiz, err := s.cache.Get(ctx, fingerprint)
		switch {
		case err == nil:
			return &domain.QuizResponse{Quiz: quiz, Cached: true}, nil
		case errors.Is(err, domain.ErrNotFound):
			// miss, fall through to compute
		default:
			s.logger.Warn("quiz cache unavailable, computing directly",
				"fingerprint", fingerprint, "error", err)
		}
	}

	return s.computeShared(ctx, fingerprint, req)
}

// computeShared collapses concurrent misses for one fingerprint into a
// single computation. The computation runs detached from any single
// caller's context so an abandoned request only stops its own wait, not
// the shared work.
func (s *quizService) computeShared(ctx context.Context, fingerprint string, req domain.QuizRequest) (*domain.QuizResponse, error) {
	resultCh := s.flight.DoChan(fingerprint, func() (interface{}, error) {
		return s.compute(context.WithoutCancel(ctx), fingerprint, req)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultCh:
		if res.Err != nil {
			return nil, res.Err
		}
		return &domain.QuizResponse{Quiz: res.Val.(*domain.QuizSet), Cached: false}, nil
	}
}

// compute generates the quiz and stores it under its fingerprint
func (s *quizService) compute(ctx context.Context, fingerprint string, req domain.QuizRequest) (*domain.QuizSet, error) {
	quiz, err := s.generator.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, fingerprint, quiz, s.ttl); err != nil {
			s.logger.Warn("failed to cache quiz", "fingerprint", fingerprint, "error", err)
		}
	}
	if s.quizStore != nil {
		if err := s.quizStore.Save(ctx, fingerprint, quiz); err != nil {
			s.logger.Warn("failed to persist quiz", "fingerprint", fingerprint, "error", err)
		}
	}

	return quiz, nil
}

// InvalidateDocument clears cached and stored quizzes for a document
func (s *quizService) InvalidateDocument(ctx context.Context, documentID string) error {
	if s.quizStore != nil {
		if err := s.quizStore.DeleteByDocument(ctx, documentID); err != nil {
			s.logger.Warn("stored quiz cleanup failed", "document_id", documentID, "error", err)
		}
	}
	if s.cache == nil {
		return nil
	}
	return s.cache.InvalidateDocument(ctx, documentID)
}

// Fingerprint derives the deterministic cache key for a request.
// Folds in the retrieval config version so cached quizzes are not
// replayed across retrieval semantics changes.
func Fingerprint(req domain.QuizRequest) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%d|%s",
		req.DocumentID,
		req.NormalisedTopic(),
		req.Difficulty,
		req.QuestionCount,
		domain.RetrievalConfigVersion)))
	return hex.EncodeToString(sum[:])
}
