package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/custodia-labs/quizgen-core/internal/core/domain"
	"github.com/custodia-labs/quizgen-core/internal/core/ports/driven"
	"github.com/custodia-labs/quizgen-core/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/quizgen-core/internal/runtime"
)

type retrievalFixtureEnv struct {
	service       *retrievalService
	documentStore *mocks.MockDocumentStore
	chunkStore    *mocks.MockChunkStore
	vectorIndex   *mocks.MockVectorIndex
	sparseIndex   *mocks.MockSparseIndex
	reranker      *mocks.MockReranker
	services      *runtime.Services
}

func newRetrievalEnv(t *testing.T) *retrievalFixtureEnv {
	t.Helper()

	env := &retrievalFixtureEnv{
		documentStore: mocks.NewMockDocumentStore(),
		chunkStore:    mocks.NewMockChunkStore(),
		vectorIndex:   mocks.NewMockVectorIndex(),
		sparseIndex:   mocks.NewMockSparseIndex(),
		reranker:      mocks.NewMockReranker(),
		services:      runtime.NewServices(domain.NewRuntimeConfig("redis")),
	}

	env.services.SetEmbeddingService(mocks.NewMockEmbeddingService())
	env.services.SetReranker(env.reranker)
	env.services.Config().SetDenseIndexAvailable(true)

	env.service = NewRetrievalService(RetrievalConfig{
		DocumentStore: env.documentStore,
		ChunkStore:    env.chunkStore,
		VectorIndex:   env.vectorIndex,
		SparseIndex:   env.sparseIndex,
		Services:      env.services,
	}).(*retrievalService)

	return env
}

// seedDocument stores and indexes a document made of the given chunk texts
func (env *retrievalFixtureEnv) seedDocument(t *testing.T, documentID string, texts []string) {
	t.Helper()
	ctx := context.Background()

	chunks := make([]*domain.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = &domain.Chunk{
			ID:         fmt.Sprintf("%s:%d", documentID, i),
			DocumentID: documentID,
			Ordinal:    i,
			Content:    text,
			CreatedAt:  time.Now(),
		}
	}

	if err := env.chunkStore.SaveBatch(ctx, documentID, chunks); err != nil {
		t.Fatalf("seed chunks: %v", err)
	}
	if err := env.sparseIndex.IndexDocument(ctx, documentID, chunks); err != nil {
		t.Fatalf("seed sparse index: %v", err)
	}

	embedder := env.services.EmbeddingService()
	texts2 := make([]string, len(chunks))
	for i, c := range chunks {
		texts2[i] = c.Content
	}
	embeddings, err := embedder.Embed(ctx, texts2)
	if err != nil {
		t.Fatalf("seed embeddings: %v", err)
	}
	if err := env.vectorIndex.Upsert(ctx, chunks, embeddings); err != nil {
		t.Fatalf("seed vector index: %v", err)
	}

	if err := env.documentStore.Save(ctx, &domain.Document{
		ID:          documentID,
		ChunkCount:  len(chunks),
		IndexStatus: domain.IndexStatusFull,
		IngestedAt:  time.Now(),
	}); err != nil {
		t.Fatalf("seed document: %v", err)
	}
}

var fixtureTexts = []string{
	"Photosynthesis converts light energy into chemical energy inside chloroplasts.",
	"Chlorophyll pigments absorb red and blue wavelengths of light.",
	"The Calvin cycle fixes carbon dioxide into glucose molecules.",
	"Cellular respiration breaks glucose down to release stored energy.",
	"Stomata regulate gas exchange on the underside of leaves.",
}

func TestRetrieve_Hybrid(t *testing.T) {
	env := newRetrievalEnv(t)
	env.seedDocument(t, "doc-1", fixtureTexts)

	result, err := env.service.Retrieve(context.Background(), "doc-1", "photosynthesis light energy", domain.RetrievalOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Candidates) == 0 {
		t.Fatal("expected candidates")
	}
	if len(result.Candidates) > domain.DefaultRetrievalOptions().FinalK {
		t.Errorf("expected at most %d candidates, got %d",
			domain.DefaultRetrievalOptions().FinalK, len(result.Candidates))
	}
	if result.Degraded {
		t.Error("expected Degraded=false with dense index up")
	}
	if !result.Reranked {
		t.Error("expected Reranked=true with reranker available")
	}
	if env.reranker.CallCount() != 1 {
		t.Errorf("expected 1 reranker call, got %d", env.reranker.CallCount())
	}

	// Rerank order must be strictly non-increasing by score
	for i := 1; i < len(result.Candidates); i++ {
		if result.Candidates[i].RerankScore > result.Candidates[i-1].RerankScore {
			t.Errorf("candidates not sorted by rerank score at %d", i)
		}
	}
}

func TestRetrieve_EmptyQuery(t *testing.T) {
	env := newRetrievalEnv(t)
	env.seedDocument(t, "doc-1", fixtureTexts)

	_, err := env.service.Retrieve(context.Background(), "doc-1", "", domain.RetrievalOptions{})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRetrieve_UnknownDocument(t *testing.T) {
	env := newRetrievalEnv(t)

	_, err := env.service.Retrieve(context.Background(), "missing", "query", domain.RetrievalOptions{})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRetrieve_DegradedDocumentSkipsDense(t *testing.T) {
	env := newRetrievalEnv(t)
	env.seedDocument(t, "doc-1", fixtureTexts)

	// Mark the document sparse-only, as if the dense index was down at
	// ingestion time
	doc, _ := env.documentStore.Get(context.Background(), "doc-1")
	doc.IndexStatus = domain.IndexStatusSparseOnly
	_ = env.documentStore.Save(context.Background(), doc)

	result, err := env.service.Retrieve(context.Background(), "doc-1", "glucose energy", domain.RetrievalOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Degraded {
		t.Error("expected Degraded=true for sparse-only document")
	}
	if len(result.Candidates) == 0 {
		t.Fatal("expected sparse candidates in degraded mode")
	}
	for _, c := range result.Candidates {
		if c.DenseScore != 0 {
			t.Errorf("expected zero dense score in degraded mode, got %f", c.DenseScore)
		}
	}
}

func TestRetrieve_DenseFailureDegrades(t *testing.T) {
	env := newRetrievalEnv(t)
	env.seedDocument(t, "doc-1", fixtureTexts)
	env.vectorIndex.SetFail(true)

	result, err := env.service.Retrieve(context.Background(), "doc-1", "glucose energy", domain.RetrievalOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Degraded {
		t.Error("expected Degraded=true after dense search failure")
	}
	if len(result.Candidates) == 0 {
		t.Fatal("expected sparse candidates after dense failure")
	}
}

func TestRetrieve_RerankerFailureKeepsFusedOrder(t *testing.T) {
	env := newRetrievalEnv(t)
	env.seedDocument(t, "doc-1", fixtureTexts)
	env.reranker.SetFail(true)

	result, err := env.service.Retrieve(context.Background(), "doc-1", "photosynthesis light", domain.RetrievalOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Reranked {
		t.Error("expected Reranked=false after reranker failure")
	}
	if len(result.Candidates) == 0 {
		t.Fatal("expected candidates")
	}

	// Fused ranks must be intact and ascending
	for i, c := range result.Candidates {
		if c.FusedRank != i {
			t.Errorf("candidate %d has fused rank %d", i, c.FusedRank)
		}
	}
}

func TestRetrieve_NoRerankerConfigured(t *testing.T) {
	env := newRetrievalEnv(t)
	env.seedDocument(t, "doc-1", fixtureTexts)
	env.services.SetReranker(nil)

	result, err := env.service.Retrieve(context.Background(), "doc-1", "glucose", domain.RetrievalOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Reranked {
		t.Error("expected Reranked=false without a reranker")
	}
}

func TestFuse_TieBreaksByOrdinal(t *testing.T) {
	env := newRetrievalEnv(t)

	chunks := []*domain.Chunk{
		{ID: "d:0", DocumentID: "d", Ordinal: 0, Content: "alpha"},
		{ID: "d:1", DocumentID: "d", Ordinal: 1, Content: "beta"},
	}
	if err := env.chunkStore.SaveBatch(context.Background(), "d", chunks); err != nil {
		t.Fatalf("seed chunks: %v", err)
	}

	// Mirror-image rank positions with equal weights give both chunks
	// the same fused score; the earlier ordinal must win
	dense := []driven.VectorHit{{ChunkID: "d:1", Score: 0.9}, {ChunkID: "d:0", Score: 0.8}}
	sparse := []driven.SparseHit{{ChunkID: "d:0", Score: 3}, {ChunkID: "d:1", Score: 2}}

	opts := domain.DefaultRetrievalOptions()
	opts.DenseWeight = 0.5
	opts.SparseWeight = 0.5

	candidates, err := env.service.fuse(context.Background(), dense, sparse, opts, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].FusedScore != candidates[1].FusedScore {
		t.Fatalf("expected a fused-score tie, got %f vs %f",
			candidates[0].FusedScore, candidates[1].FusedScore)
	}
	if candidates[0].Chunk.Ordinal != 0 {
		t.Error("tie must break toward the earlier ordinal")
	}
}

func TestFuse_AbsentListGetsMinimumScore(t *testing.T) {
	env := newRetrievalEnv(t)

	chunks := []*domain.Chunk{
		{ID: "d:0", DocumentID: "d", Ordinal: 0, Content: "alpha"},
		{ID: "d:1", DocumentID: "d", Ordinal: 1, Content: "beta"},
		{ID: "d:2", DocumentID: "d", Ordinal: 2, Content: "gamma"},
	}
	if err := env.chunkStore.SaveBatch(context.Background(), "d", chunks); err != nil {
		t.Fatalf("seed chunks: %v", err)
	}

	// d:2 appears only in the sparse list; its dense score must be the
	// dense list's minimum, not zero
	dense := []driven.VectorHit{{ChunkID: "d:0", Score: 0.9}, {ChunkID: "d:1", Score: 0.7}}
	sparse := []driven.SparseHit{{ChunkID: "d:2", Score: 4}}

	candidates, err := env.service.fuse(context.Background(), dense, sparse, domain.DefaultRetrievalOptions(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	byID := make(map[string]*domain.RetrievalCandidate)
	for _, c := range candidates {
		byID[c.Chunk.ID] = c
	}

	denseMin := rankScores(2)[1]
	if byID["d:2"].DenseScore != denseMin {
		t.Errorf("absent-from-dense candidate should take dense minimum %f, got %f",
			denseMin, byID["d:2"].DenseScore)
	}
	if byID["d:2"].DenseScore == 0 {
		t.Error("absent-list score must not be zero")
	}
}

func TestFuse_ConsensusStaysInWindow(t *testing.T) {
	env := newRetrievalEnv(t)

	chunks := make([]*domain.Chunk, 10)
	for i := range chunks {
		chunks[i] = &domain.Chunk{
			ID:         fmt.Sprintf("d:%d", i),
			DocumentID: "d",
			Ordinal:    i,
			Content:    fmt.Sprintf("chunk %d", i),
		}
	}
	if err := env.chunkStore.SaveBatch(context.Background(), "d", chunks); err != nil {
		t.Fatalf("seed chunks: %v", err)
	}

	// d:2 sits at rank 3 of both lists. With 0.6/0.4 weights its raw
	// fused score (0.80) trails the single-list leaders d:0 (0.84),
	// d:1 and d:3 (0.82 each), which would push it out to fused rank 4
	// without the consensus guarantee.
	denseOrder := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	sparseOrder := []int{3, 4, 2, 1, 0, 5, 6, 7, 8, 9}

	dense := make([]driven.VectorHit, len(denseOrder))
	for i, n := range denseOrder {
		dense[i] = driven.VectorHit{ChunkID: fmt.Sprintf("d:%d", n), Score: 1 - float64(i)/10}
	}
	sparse := make([]driven.SparseHit, len(sparseOrder))
	for i, n := range sparseOrder {
		sparse[i] = driven.SparseHit{ChunkID: fmt.Sprintf("d:%d", n), Score: float64(10 - i)}
	}

	candidates, err := env.service.fuse(context.Background(), dense, sparse, domain.DefaultRetrievalOptions(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pos := -1
	for i, c := range candidates {
		if c.Chunk.ID == "d:2" {
			pos = i
		}
	}
	if pos < 0 || pos >= 3 {
		t.Errorf("chunk in the top-3 of both lists must fuse into the top-3, got rank %d", pos)
	}
	if candidates[0].Chunk.ID != "d:0" {
		t.Errorf("promotion must not displace the fused leader, got %s first", candidates[0].Chunk.ID)
	}
	for i, c := range candidates {
		if c.FusedRank != i {
			t.Errorf("candidate %d has fused rank %d after promotion", i, c.FusedRank)
		}
	}
}

func TestRankScores(t *testing.T) {
	scores := rankScores(4)
	if scores[0] != 1.0 {
		t.Errorf("best rank should score 1.0, got %f", scores[0])
	}
	for i := 1; i < len(scores); i++ {
		if scores[i] >= scores[i-1] {
			t.Errorf("scores must strictly decrease, got %v", scores)
		}
		if scores[i] <= 0 {
			t.Errorf("scores must stay positive, got %v", scores)
		}
	}

	if minScore(scores) != scores[3] {
		t.Error("minScore should be the last rank's score")
	}
	if minScore(nil) != 0 {
		t.Error("empty list minimum should be 0")
	}
}
