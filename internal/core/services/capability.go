package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/custodia-labs/quizgen-core/internal/core/domain"
	"github.com/custodia-labs/quizgen-core/internal/core/ports/driven"
	"github.com/custodia-labs/quizgen-core/internal/core/ports/driving"
)

// Ensure capabilityService implements CapabilityService
var _ driving.CapabilityService = (*capabilityService)(nil)

// capabilityHandler resolves one tagged operation
type capabilityHandler func(ctx context.Context, req domain.CapabilityRequest) ([]*domain.CapabilityItem, error)

// capabilityService exposes the system's lookup operations as a closed
// set of tagged variants: hybrid topic search, lexical keyword search,
// and external content lookup. Each tag maps to exactly one handler.
type capabilityService struct {
	retrieval   driving.RetrievalService
	chunkStore  driven.ChunkStore
	sparseIndex driven.SparseIndex
	content     driven.ContentProvider
	logger      *slog.Logger

	table map[domain.CapabilityTag]capabilityHandler
}

// CapabilityConfig holds dependencies for the capability service
type CapabilityConfig struct {
	Retrieval   driving.RetrievalService
	ChunkStore  driven.ChunkStore
	SparseIndex driven.SparseIndex

	// Content is optional; without it external_content dispatches fail
	// with ErrServiceUnavailable
	Content driven.ContentProvider

	Logger *slog.Logger
}

// NewCapabilityService creates a new CapabilityService
func NewCapabilityService(cfg CapabilityConfig) driving.CapabilityService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &capabilityService{
		retrieval:   cfg.Retrieval,
		chunkStore:  cfg.ChunkStore,
		sparseIndex: cfg.SparseIndex,
		content:     cfg.Content,
		logger:      logger,
	}

	s.table = map[domain.CapabilityTag]capabilityHandler{
		domain.CapabilityTopicSearch:     s.topicSearch,
		domain.CapabilityKeywordSearch:   s.keywordSearch,
		domain.CapabilityExternalContent: s.externalContent,
	}

	return s
}

// Dispatch validates the request and runs its tag's handler
func (s *capabilityService) Dispatch(ctx context.Context, req domain.CapabilityRequest) (*domain.CapabilityResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	req = req.Normalised()

	handler, ok := s.table[req.Tag]
	if !ok {
		return nil, fmt.Errorf("%w: no handler for capability tag %q", domain.ErrInvalidInput, req.Tag)
	}

	items, err := handler(ctx, req)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*domain.CapabilityItem{}
	}

	s.logger.Debug("capability dispatched",
		"tag", req.Tag,
		"items", len(items))

	return &domain.CapabilityResult{
		Tag:   req.Tag,
		Query: req.Query,
		Items: items,
	}, nil
}

// Tags lists the registered tags in stable order
func (s *capabilityService) Tags() []domain.CapabilityTag {
	tags := make([]domain.CapabilityTag, 0, len(s.table))
	for tag := range s.table {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// topicSearch runs hybrid retrieval and maps the reranked candidates
// onto result items
func (s *capabilityService) topicSearch(ctx context.Context, req domain.CapabilityRequest) ([]*domain.CapabilityItem, error) {
	opts := domain.DefaultRetrievalOptions()
	opts.FinalK = req.Limit

	result, err := s.retrieval.Retrieve(ctx, req.DocumentID, req.Query, opts)
	if err != nil {
		return nil, err
	}

	items := make([]*domain.CapabilityItem, 0, len(result.Candidates))
	for _, c := range result.Candidates {
		score := c.FusedScore
		if result.Reranked {
			score = c.RerankScore
		}
		items = append(items, &domain.CapabilityItem{
			Title:   c.Chunk.Heading,
			Snippet: excerpt(c.Chunk.Content),
			Source:  c.Chunk.ID,
			Score:   score,
		})
	}
	return items, nil
}

// keywordSearch queries the sparse index alone, skipping embeddings
// and reranking
func (s *capabilityService) keywordSearch(ctx context.Context, req domain.CapabilityRequest) ([]*domain.CapabilityItem, error) {
	hits, err := s.sparseIndex.Search(ctx, req.DocumentID, req.Query, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}
	if len(hits) == 0 {
		return nil, nil
	}

	ids := make([]string, len(hits))
	for i, hit := range hits {
		ids[i] = hit.ChunkID
	}
	chunks, err := s.chunkStore.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load matched chunks: %w", err)
	}
	byID := make(map[string]*domain.Chunk, len(chunks))
	for _, chunk := range chunks {
		byID[chunk.ID] = chunk
	}

	items := make([]*domain.CapabilityItem, 0, len(hits))
	for _, hit := range hits {
		chunk, ok := byID[hit.ChunkID]
		if !ok {
			continue
		}
		items = append(items, &domain.CapabilityItem{
			Title:   chunk.Heading,
			Snippet: excerpt(chunk.Content),
			Source:  chunk.ID,
			Score:   hit.Score,
		})
	}
	return items, nil
}

// externalContent delegates to the configured provider
func (s *capabilityService) externalContent(ctx context.Context, req domain.CapabilityRequest) ([]*domain.CapabilityItem, error) {
	if s.content == nil {
		return nil, fmt.Errorf("%w: no external content provider configured", domain.ErrServiceUnavailable)
	}
	return s.content.Lookup(ctx, req.Query, req.Limit)
}

const maxExcerptLen = 200

// excerpt trims chunk content to a short display snippet, breaking at
// a word boundary
func excerpt(content string) string {
	content = strings.TrimSpace(content)
	if len(content) <= maxExcerptLen {
		return content
	}
	cut := content[:maxExcerptLen]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}
