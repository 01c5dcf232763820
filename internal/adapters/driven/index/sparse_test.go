package index

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/custodia-labs/quizgen-core/internal/core/domain"
)

func chunk(documentID string, ordinal int, content string) *domain.Chunk {
	return &domain.Chunk{
		ID:         fmt.Sprintf("%s:%d", documentID, ordinal),
		DocumentID: documentID,
		Ordinal:    ordinal,
		Content:    content,
		CreatedAt:  time.Now(),
	}
}

func TestSearch_RanksMatchingChunksFirst(t *testing.T) {
	idx := NewSparseIndex()
	ctx := context.Background()

	chunks := []*domain.Chunk{
		chunk("doc-1", 0, "Photosynthesis converts light energy into chemical energy in plants."),
		chunk("doc-1", 1, "Cellular respiration releases energy from glucose."),
		chunk("doc-1", 2, "The Krebs cycle is part of cellular respiration."),
	}
	if err := idx.IndexDocument(ctx, "doc-1", chunks); err != nil {
		t.Fatalf("IndexDocument: %v", err)
	}

	hits, err := idx.Search(ctx, "doc-1", "photosynthesis light", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("expected at least one hit")
	}
	if hits[0].ChunkID != "doc-1:0" {
		t.Errorf("top hit = %s, want doc-1:0", hits[0].ChunkID)
	}
}

func TestSearch_RareTermsOutweighCommonOnes(t *testing.T) {
	idx := NewSparseIndex()
	ctx := context.Background()

	// "energy" appears in every chunk, "chlorophyll" only in one
	chunks := []*domain.Chunk{
		chunk("doc-1", 0, "Energy flows through the ecosystem."),
		chunk("doc-1", 1, "Energy is stored as chemical bonds."),
		chunk("doc-1", 2, "Chlorophyll absorbs energy from sunlight."),
	}
	if err := idx.IndexDocument(ctx, "doc-1", chunks); err != nil {
		t.Fatalf("IndexDocument: %v", err)
	}

	hits, err := idx.Search(ctx, "doc-1", "chlorophyll energy", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if hits[0].ChunkID != "doc-1:2" {
		t.Errorf("top hit = %s, want the chunk with the rare term", hits[0].ChunkID)
	}
}

func TestSearch_TieBreaksByOrdinal(t *testing.T) {
	idx := NewSparseIndex()
	ctx := context.Background()

	chunks := []*domain.Chunk{
		chunk("doc-1", 0, "mitochondria produce energy"),
		chunk("doc-1", 1, "mitochondria produce energy"),
	}
	if err := idx.IndexDocument(ctx, "doc-1", chunks); err != nil {
		t.Fatalf("IndexDocument: %v", err)
	}

	hits, err := idx.Search(ctx, "doc-1", "mitochondria", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].ChunkID != "doc-1:0" {
		t.Errorf("equal scores must order by ordinal, got %s first", hits[0].ChunkID)
	}
}

func TestSearch_RespectsLimit(t *testing.T) {
	idx := NewSparseIndex()
	ctx := context.Background()

	var chunks []*domain.Chunk
	for i := 0; i < 10; i++ {
		chunks = append(chunks, chunk("doc-1", i, "osmosis moves water across membranes"))
	}
	if err := idx.IndexDocument(ctx, "doc-1", chunks); err != nil {
		t.Fatalf("IndexDocument: %v", err)
	}

	hits, err := idx.Search(ctx, "doc-1", "osmosis", 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 3 {
		t.Errorf("expected 3 hits, got %d", len(hits))
	}
}

func TestSearch_UnknownDocument(t *testing.T) {
	idx := NewSparseIndex()

	hits, err := idx.Search(context.Background(), "missing", "anything", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if hits != nil {
		t.Errorf("expected nil hits for unknown document, got %v", hits)
	}
}

func TestSearch_ScopedToDocument(t *testing.T) {
	idx := NewSparseIndex()
	ctx := context.Background()

	_ = idx.IndexDocument(ctx, "doc-1", []*domain.Chunk{chunk("doc-1", 0, "glycolysis splits glucose")})
	_ = idx.IndexDocument(ctx, "doc-2", []*domain.Chunk{chunk("doc-2", 0, "glycolysis splits glucose")})

	hits, err := idx.Search(ctx, "doc-1", "glycolysis", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].ChunkID != "doc-1:0" {
		t.Errorf("search must not leak across documents: %v", hits)
	}
}

func TestIndexDocument_ReplacesPostings(t *testing.T) {
	idx := NewSparseIndex()
	ctx := context.Background()

	_ = idx.IndexDocument(ctx, "doc-1", []*domain.Chunk{
		chunk("doc-1", 0, "volcanoes erupt magma"),
		chunk("doc-1", 1, "earthquakes shake the ground"),
	})
	_ = idx.IndexDocument(ctx, "doc-1", []*domain.Chunk{
		chunk("doc-1", 0, "rivers erode valleys"),
	})

	hits, err := idx.Search(ctx, "doc-1", "volcanoes", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("old postings must be gone after re-index, got %v", hits)
	}

	hits, _ = idx.Search(ctx, "doc-1", "rivers", 10)
	if len(hits) != 1 {
		t.Errorf("new postings missing: %v", hits)
	}
}

func TestDeleteDocument(t *testing.T) {
	idx := NewSparseIndex()
	ctx := context.Background()

	_ = idx.IndexDocument(ctx, "doc-1", []*domain.Chunk{chunk("doc-1", 0, "covalent bonds share electrons")})
	if err := idx.DeleteDocument(ctx, "doc-1"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}

	hits, _ := idx.Search(ctx, "doc-1", "covalent", 10)
	if len(hits) != 0 {
		t.Errorf("expected no hits after delete, got %v", hits)
	}
}

func TestConcurrentReindexAndSearch(t *testing.T) {
	idx := NewSparseIndex()
	ctx := context.Background()

	chunks := []*domain.Chunk{
		chunk("doc-1", 0, "enzymes catalyze reactions"),
		chunk("doc-1", 1, "substrates bind to active sites"),
	}
	_ = idx.IndexDocument(ctx, "doc-1", chunks)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = idx.IndexDocument(ctx, "doc-1", chunks)
			}
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				hits, err := idx.Search(ctx, "doc-1", "enzymes", 5)
				if err != nil {
					t.Errorf("Search: %v", err)
					return
				}
				// The index is never half-replaced
				if len(hits) != 1 {
					t.Errorf("expected 1 hit during reindex, got %d", len(hits))
					return
				}
			}
		}()
	}
	wg.Wait()
}
