package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/custodia-labs/quizgen-core/internal/core/domain"
	"github.com/custodia-labs/quizgen-core/internal/core/ports/driven"
	"github.com/custodia-labs/quizgen-core/internal/core/ports/driving"
	"github.com/custodia-labs/quizgen-core/internal/runtime"
)

// Ensure ingestionService implements IngestionService
var _ driving.IngestionService = (*ingestionService)(nil)

// MinContentLength is the minimum extracted text length accepted for
// ingestion, after whitespace trimming.
const MinContentLength = 50

const objectivesPrompt = `You are given the beginning of a study document.
List 3 to 5 learning objectives a student should achieve after studying it.
Return one objective per line with no numbering and no other text.

Document:
%s`

// How much of the document the objectives prompt sees
const objectivesExcerptLen = 4000

// ingestionService coordinates the document ingestion pipeline:
// chunk, extract objectives, embed, index, persist. All-or-nothing per
// document except for dense indexing, which degrades to sparse-only
// when the vector index or embedding service is down.
type ingestionService struct {
	documentStore driven.DocumentStore
	chunkStore    driven.ChunkStore
	vectorIndex   driven.VectorIndex
	sparseIndex   driven.SparseIndex
	quizCache     driven.QuizCache
	quizStore     driven.QuizStore
	taskQueue     driven.TaskQueue
	pipeline      driven.PostProcessorPipeline
	services      *runtime.Services
	logger        *slog.Logger
}

// IngestionConfig holds dependencies for the ingestion service.
// TaskQueue, QuizCache and QuizStore are optional.
type IngestionConfig struct {
	DocumentStore driven.DocumentStore
	ChunkStore    driven.ChunkStore
	VectorIndex   driven.VectorIndex
	SparseIndex   driven.SparseIndex
	QuizCache     driven.QuizCache
	QuizStore     driven.QuizStore
	TaskQueue     driven.TaskQueue
	Pipeline      driven.PostProcessorPipeline
	Services      *runtime.Services
	Logger        *slog.Logger
}

// NewIngestionService creates a new IngestionService
func NewIngestionService(cfg IngestionConfig) driving.IngestionService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &ingestionService{
		documentStore: cfg.DocumentStore,
		chunkStore:    cfg.ChunkStore,
		vectorIndex:   cfg.VectorIndex,
		sparseIndex:   cfg.SparseIndex,
		quizCache:     cfg.QuizCache,
		quizStore:     cfg.QuizStore,
		taskQueue:     cfg.TaskQueue,
		pipeline:      cfg.Pipeline,
		services:      cfg.Services,
		logger:        logger,
	}
}

// Ingest runs the full pipeline for one document synchronously.
// Re-ingesting an existing document ID replaces its chunks, index
// entries and any cached quizzes.
func (s *ingestionService) Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	start := time.Now()

	if req.DocumentID == "" {
		req.DocumentID = domain.GenerateID()
	}
	if len(strings.TrimSpace(req.Content)) < MinContentLength {
		return nil, fmt.Errorf("%w: content below %d characters", domain.ErrContentEmpty, MinContentLength)
	}

	s.logger.Info("starting ingestion",
		"document_id", req.DocumentID,
		"filename", req.Filename,
		"bytes", len(req.Content))

	// Step 1: chunk
	pieces := s.pipeline.Process(req.Content)
	if len(pieces) == 0 {
		return nil, fmt.Errorf("%w: chunking produced no content", domain.ErrContentEmpty)
	}

	now := time.Now()
	chunks := make([]*domain.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = &domain.Chunk{
			ID:         fmt.Sprintf("%s:%d", req.DocumentID, i),
			DocumentID: req.DocumentID,
			Ordinal:    i,
			Content:    piece.Content,
			Heading:    piece.Heading,
			StartChar:  piece.StartOffset,
			EndChar:    piece.EndOffset,
			CreatedAt:  now,
		}
	}

	// Step 2: learning objectives (best effort)
	objectives := s.extractObjectives(ctx, req.Content)

	// Step 3: persist chunks (transactional replace)
	if err := s.chunkStore.SaveBatch(ctx, req.DocumentID, chunks); err != nil {
		return nil, fmt.Errorf("failed to save chunks: %w", err)
	}

	// Step 4: sparse index (mandatory; roll back chunks on failure)
	if err := s.sparseIndex.IndexDocument(ctx, req.DocumentID, chunks); err != nil {
		if delErr := s.chunkStore.DeleteByDocument(ctx, req.DocumentID); delErr != nil {
			s.logger.Error("rollback failed after sparse index error",
				"document_id", req.DocumentID, "error", delErr)
		}
		return nil, fmt.Errorf("failed to index document: %w", err)
	}

	// Step 5: dense index (degrades to sparse-only)
	status := s.indexDense(ctx, req.DocumentID, chunks)

	// Step 6: document record
	doc := &domain.Document{
		ID:          req.DocumentID,
		Filename:    req.Filename,
		ByteLength:  len(req.Content),
		ChunkCount:  len(chunks),
		IndexStatus: status,
		Objectives:  objectives,
		IngestedAt:  now,
	}
	if err := s.documentStore.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to save document: %w", err)
	}

	// Step 7: drop cached quizzes built on the old content
	s.invalidateQuizzes(ctx, req.DocumentID)

	s.logger.Info("ingestion complete",
		"document_id", req.DocumentID,
		"chunks", len(chunks),
		"index_status", string(status),
		"took", time.Since(start))

	return &domain.IngestResult{
		DocumentID:  req.DocumentID,
		ChunkCount:  len(chunks),
		Objectives:  objectives,
		IndexStatus: status,
	}, nil
}

// EnqueueIngest schedules ingestion on the task queue.
// Runs synchronously when no queue is configured.
func (s *ingestionService) EnqueueIngest(ctx context.Context, req domain.IngestRequest) (string, error) {
	if len(strings.TrimSpace(req.Content)) < MinContentLength {
		return "", fmt.Errorf("%w: content below %d characters", domain.ErrContentEmpty, MinContentLength)
	}
	if req.DocumentID == "" {
		req.DocumentID = domain.GenerateID()
	}

	task := domain.NewIngestTask(req)

	if s.taskQueue == nil {
		if _, err := s.Ingest(ctx, req); err != nil {
			return "", err
		}
		return task.ID, nil
	}

	if err := s.taskQueue.Enqueue(ctx, task); err != nil {
		return "", fmt.Errorf("failed to enqueue ingestion: %w", err)
	}

	s.logger.Info("ingestion enqueued", "task_id", task.ID, "document_id", req.DocumentID)
	return task.ID, nil
}

// GetDocument retrieves a document by ID
func (s *ingestionService) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	return s.documentStore.Get(ctx, id)
}

// DeleteDocument removes a document, its chunks and all index entries
func (s *ingestionService) DeleteDocument(ctx context.Context, id string) error {
	if _, err := s.documentStore.Get(ctx, id); err != nil {
		return err
	}

	if err := s.sparseIndex.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("failed to remove sparse entries: %w", err)
	}
	if s.vectorIndex != nil {
		if err := s.vectorIndex.DeleteByDocument(ctx, id); err != nil {
			s.logger.Warn("failed to remove dense entries", "document_id", id, "error", err)
		}
	}
	if err := s.chunkStore.DeleteByDocument(ctx, id); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}

	s.invalidateQuizzes(ctx, id)

	return s.documentStore.Delete(ctx, id)
}

// extractObjectives asks the LLM for learning objectives.
// Failures are non-fatal; the document is ingested without objectives.
func (s *ingestionService) extractObjectives(ctx context.Context, content string) []string {
	llm := s.services.LLMService()
	if llm == nil {
		return nil
	}

	excerpt := content
	if len(excerpt) > objectivesExcerptLen {
		excerpt = excerpt[:objectivesExcerptLen]
	}

	raw, err := llm.Generate(ctx, fmt.Sprintf(objectivesPrompt, excerpt))
	if err != nil {
		s.logger.Warn("objective extraction failed", "error", err)
		return nil
	}

	var objectives []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*• "))
		if line != "" {
			objectives = append(objectives, line)
		}
		if len(objectives) == 5 {
			break
		}
	}
	return objectives
}

// indexDense embeds and upserts chunk vectors.
// Any failure marks the document sparse-only rather than failing ingestion.
func (s *ingestionService) indexDense(ctx context.Context, documentID string, chunks []*domain.Chunk) domain.IndexStatus {
	embedder := s.services.EmbeddingService()
	if embedder == nil || s.vectorIndex == nil || !s.services.Config().DenseIndexAvailable() {
		s.logger.Warn("dense index unavailable, ingesting sparse-only", "document_id", documentID)
		return domain.IndexStatusSparseOnly
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	embeddings, err := embedder.Embed(ctx, texts)
	if err != nil {
		s.logger.Warn("embedding failed, ingesting sparse-only",
			"document_id", documentID, "error", err)
		return domain.IndexStatusSparseOnly
	}

	if err := s.vectorIndex.Upsert(ctx, chunks, embeddings); err != nil {
		s.logger.Warn("vector upsert failed, ingesting sparse-only",
			"document_id", documentID, "error", err)
		return domain.IndexStatusSparseOnly
	}

	return domain.IndexStatusFull
}

// invalidateQuizzes drops cached and stored quizzes for a document
func (s *ingestionService) invalidateQuizzes(ctx context.Context, documentID string) {
	if s.quizCache != nil {
		if err := s.quizCache.InvalidateDocument(ctx, documentID); err != nil {
			s.logger.Warn("quiz cache invalidation failed", "document_id", documentID, "error", err)
		}
	}
	if s.quizStore != nil {
		if err := s.quizStore.DeleteByDocument(ctx, documentID); err != nil {
			s.logger.Warn("stored quiz cleanup failed", "document_id", documentID, "error", err)
		}
	}
}
