package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/quizgen-core/internal/core/domain"
	"github.com/custodia-labs/quizgen-core/internal/core/ports/driven"
	"github.com/custodia-labs/quizgen-core/internal/core/ports/driving"
	"github.com/custodia-labs/quizgen-core/internal/runtime"
)

// Ensure retrievalService implements RetrievalService
var _ driving.RetrievalService = (*retrievalService)(nil)

// retrievalService runs hybrid retrieval: dense and sparse queries in
// parallel, weighted rank fusion, then cross-encoder reranking. The
// reranker is the precision stage; fusion alone is a coarse filter.
type retrievalService struct {
	documentStore driven.DocumentStore
	chunkStore    driven.ChunkStore
	vectorIndex   driven.VectorIndex
	sparseIndex   driven.SparseIndex
	services      *runtime.Services
	logger        *slog.Logger
}

// RetrievalConfig holds dependencies for the retrieval service
type RetrievalConfig struct {
	DocumentStore driven.DocumentStore
	ChunkStore    driven.ChunkStore
	VectorIndex   driven.VectorIndex
	SparseIndex   driven.SparseIndex
	Services      *runtime.Services
	Logger        *slog.Logger
}

// NewRetrievalService creates a new RetrievalService
func NewRetrievalService(cfg RetrievalConfig) driving.RetrievalService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &retrievalService{
		documentStore: cfg.DocumentStore,
		chunkStore:    cfg.ChunkStore,
		vectorIndex:   cfg.VectorIndex,
		sparseIndex:   cfg.SparseIndex,
		services:      cfg.Services,
		logger:        logger,
	}
}

// Retrieve returns the reranked grounding context for a query within
// one document's scope.
func (s *retrievalService) Retrieve(ctx context.Context, documentID string, query string, opts domain.RetrievalOptions) (*domain.RetrievalResult, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: query must not be empty", domain.ErrInvalidInput)
	}
	opts = opts.Normalise()

	doc, err := s.documentStore.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	degraded := doc.Degraded() || !s.services.Config().CanDoDenseRetrieval()

	denseHits, sparseHits, denseFailed, err := s.searchBoth(ctx, documentID, query, opts.CandidateLimit, degraded)
	if err != nil {
		return nil, err
	}
	if denseFailed {
		degraded = true
	}

	candidates, err := s.fuse(ctx, denseHits, sparseHits, opts, degraded)
	if err != nil {
		return nil, err
	}

	candidates, reranked := s.rerank(ctx, query, candidates, opts.FinalK)

	return &domain.RetrievalResult{
		Query:      query,
		Candidates: candidates,
		Degraded:   degraded,
		Reranked:   reranked,
	}, nil
}

// searchBoth runs the dense and sparse queries concurrently.
// A dense failure degrades to sparse-only; a sparse failure is fatal.
func (s *retrievalService) searchBoth(ctx context.Context, documentID, query string, limit int, skipDense bool) (dense []driven.VectorHit, sparse []driven.SparseHit, denseFailed bool, err error) {
	g, gctx := errgroup.WithContext(ctx)

	if !skipDense {
		g.Go(func() error {
			embedder := s.services.EmbeddingService()
			if embedder == nil {
				denseFailed = true
				return nil
			}
			embedding, embErr := embedder.EmbedQuery(gctx, query)
			if embErr != nil {
				s.logger.Warn("query embedding failed, degrading to sparse", "error", embErr)
				denseFailed = true
				return nil
			}
			hits, searchErr := s.vectorIndex.Search(gctx, documentID, embedding, limit)
			if searchErr != nil {
				s.logger.Warn("dense search failed, degrading to sparse", "error", searchErr)
				denseFailed = true
				return nil
			}
			dense = hits
			return nil
		})
	}

	g.Go(func() error {
		hits, searchErr := s.sparseIndex.Search(gctx, documentID, query, limit)
		if searchErr != nil {
			return fmt.Errorf("sparse search failed: %w", searchErr)
		}
		sparse = hits
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, false, err
	}
	return dense, sparse, denseFailed, nil
}

// consensusWindow is the agreement band for fusion: a chunk ranked
// within the top consensusWindow of both source lists keeps a fused
// rank within that band.
const consensusWindow = 3

// fuse combines the dense and sparse ranked lists with weighted rank
// fusion. Rank positions map linearly onto [minRankScore(n), 1.0] with
// the best rank scoring 1.0. Candidates absent from one list take that
// list's minimum observed score rather than zero, so vocabulary
// mismatch between indexes does not bury a chunk. Ties break by chunk
// ordinal, earlier wins. Chunks in the top consensusWindow of both
// source lists are guaranteed a fused rank within the window; the
// weighted sum alone can place such a chunk below single-list leaders.
func (s *retrievalService) fuse(ctx context.Context, dense []driven.VectorHit, sparse []driven.SparseHit, opts domain.RetrievalOptions, degraded bool) ([]*domain.RetrievalCandidate, error) {
	denseWeight, sparseWeight := opts.DenseWeight, opts.SparseWeight
	if degraded {
		denseWeight, sparseWeight = 0, 1
	}

	denseScores := rankScores(len(dense))
	sparseScores := rankScores(len(sparse))

	denseByID := make(map[string]float64, len(dense))
	for i, hit := range dense {
		denseByID[hit.ChunkID] = denseScores[i]
	}
	sparseByID := make(map[string]float64, len(sparse))
	for i, hit := range sparse {
		sparseByID[hit.ChunkID] = sparseScores[i]
	}

	denseMin := minScore(denseScores)
	sparseMin := minScore(sparseScores)

	ids := make([]string, 0, len(denseByID)+len(sparseByID))
	seen := make(map[string]bool, len(denseByID)+len(sparseByID))
	for _, hit := range dense {
		if !seen[hit.ChunkID] {
			seen[hit.ChunkID] = true
			ids = append(ids, hit.ChunkID)
		}
	}
	for _, hit := range sparse {
		if !seen[hit.ChunkID] {
			seen[hit.ChunkID] = true
			ids = append(ids, hit.ChunkID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	chunks, err := s.chunkStore.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate chunks: %w", err)
	}

	candidates := make([]*domain.RetrievalCandidate, 0, len(chunks))
	for _, chunk := range chunks {
		denseScore, inDense := denseByID[chunk.ID]
		if !inDense {
			denseScore = denseMin
		}
		sparseScore, inSparse := sparseByID[chunk.ID]
		if !inSparse {
			sparseScore = sparseMin
		}

		candidates = append(candidates, &domain.RetrievalCandidate{
			Chunk:       chunk,
			DenseScore:  denseScore,
			SparseScore: sparseScore,
			FusedScore:  denseWeight*denseScore + sparseWeight*sparseScore,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].FusedScore != candidates[j].FusedScore {
			return candidates[i].FusedScore > candidates[j].FusedScore
		}
		return candidates[i].Chunk.Ordinal < candidates[j].Chunk.Ordinal
	})

	promoteConsensus(candidates, consensusChunks(dense, sparse))

	if len(candidates) > opts.FusedLimit {
		candidates = candidates[:opts.FusedLimit]
	}
	for i, c := range candidates {
		c.FusedRank = i
	}
	return candidates, nil
}

// rerank scores each (query, chunk) pair with the cross-encoder and
// reorders strictly descending, ties broken by pre-rerank fused rank.
// Falls back to fused order when no reranker is available.
func (s *retrievalService) rerank(ctx context.Context, query string, candidates []*domain.RetrievalCandidate, finalK int) ([]*domain.RetrievalCandidate, bool) {
	if len(candidates) == 0 {
		return candidates, false
	}

	reranker := s.services.Reranker()
	if reranker == nil {
		return truncate(candidates, finalK), false
	}

	contents := make([]string, len(candidates))
	for i, c := range candidates {
		contents[i] = c.Chunk.Content
	}

	scores, err := reranker.Score(ctx, query, contents)
	if err != nil || len(scores) != len(candidates) {
		s.logger.Warn("reranking failed, keeping fused order", "error", err)
		return truncate(candidates, finalK), false
	}

	for i, c := range candidates {
		c.RerankScore = scores[i]
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].RerankScore != candidates[j].RerankScore {
			return candidates[i].RerankScore > candidates[j].RerankScore
		}
		return candidates[i].FusedRank < candidates[j].FusedRank
	})

	return truncate(candidates, finalK), true
}

// consensusChunks returns the IDs ranked within the consensus window
// of both source lists. At most consensusWindow IDs can qualify.
func consensusChunks(dense []driven.VectorHit, sparse []driven.SparseHit) map[string]bool {
	denseTop := make(map[string]bool, consensusWindow)
	for i, hit := range dense {
		if i >= consensusWindow {
			break
		}
		denseTop[hit.ChunkID] = true
	}

	both := make(map[string]bool, consensusWindow)
	for i, hit := range sparse {
		if i >= consensusWindow {
			break
		}
		if denseTop[hit.ChunkID] {
			both[hit.ChunkID] = true
		}
	}
	return both
}

// promoteConsensus moves consensus chunks that weighted fusion pushed
// below the window back inside it. Displaced chunks shift down one
// position; relative order is otherwise preserved.
func promoteConsensus(candidates []*domain.RetrievalCandidate, consensus map[string]bool) {
	if len(consensus) == 0 || len(candidates) <= consensusWindow {
		return
	}

	var outside []int
	for i := consensusWindow; i < len(candidates); i++ {
		if consensus[candidates[i].Chunk.ID] {
			outside = append(outside, i)
		}
	}

	// Pack displaced consensus chunks into the bottom of the window so
	// none of them pushes another back out.
	for j, i := range outside {
		target := consensusWindow - len(outside) + j
		c := candidates[i]
		copy(candidates[target+1:i+1], candidates[target:i])
		candidates[target] = c
	}
}

// rankScores maps rank positions of an n-item list onto (0,1], best
// rank first at 1.0.
func rankScores(n int) []float64 {
	scores := make([]float64, n)
	for i := range scores {
		scores[i] = 1.0 - float64(i)/float64(n)
	}
	return scores
}

// minScore returns the worst observed rank score, or 0 for an empty list
func minScore(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	return scores[len(scores)-1]
}

func truncate(candidates []*domain.RetrievalCandidate, k int) []*domain.RetrievalCandidate {
	if len(candidates) > k {
		return candidates[:k]
	}
	return candidates
}
