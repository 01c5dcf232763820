package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/custodia-labs/quizgen-core/internal/core/domain"
	"github.com/custodia-labs/quizgen-core/internal/core/ports/driven/mocks"
)

// stubContentProvider returns canned external study material
type stubContentProvider struct {
	items []*domain.CapabilityItem
	err   error

	lastTopic string
	lastLimit int
}

func (s *stubContentProvider) Lookup(ctx context.Context, topic string, limit int) ([]*domain.CapabilityItem, error) {
	s.lastTopic = topic
	s.lastLimit = limit
	if s.err != nil {
		return nil, s.err
	}
	return s.items, nil
}

func (s *stubContentProvider) HealthCheck(ctx context.Context) error { return s.err }

func (s *stubContentProvider) Close() error { return nil }

type capabilityFixtureEnv struct {
	service     *capabilityService
	retrieval   *stubRetrieval
	chunkStore  *mocks.MockChunkStore
	sparseIndex *mocks.MockSparseIndex
	content     *stubContentProvider
}

func newCapabilityEnv(t *testing.T) *capabilityFixtureEnv {
	t.Helper()

	env := &capabilityFixtureEnv{
		retrieval:   retrievalFixture(false),
		chunkStore:  mocks.NewMockChunkStore(),
		sparseIndex: mocks.NewMockSparseIndex(),
		content:     &stubContentProvider{},
	}

	env.service = NewCapabilityService(CapabilityConfig{
		Retrieval:   env.retrieval,
		ChunkStore:  env.chunkStore,
		SparseIndex: env.sparseIndex,
		Content:     env.content,
	}).(*capabilityService)

	return env
}

// seedChunks stores and sparse-indexes chunks with the given contents
func (env *capabilityFixtureEnv) seedChunks(t *testing.T, documentID string, texts []string) {
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
}

func TestCapabilityDispatch_TopicSearch(t *testing.T) {
	env := newCapabilityEnv(t)

	result, err := env.service.Dispatch(context.Background(), domain.CapabilityRequest{
		Tag:        domain.CapabilityTopicSearch,
		DocumentID: "doc-1",
		Query:      "photosynthesis",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Tag != domain.CapabilityTopicSearch {
		t.Errorf("expected tag %q, got %q", domain.CapabilityTopicSearch, result.Tag)
	}
	want := len(env.retrieval.result.Candidates)
	if len(result.Items) != want {
		t.Fatalf("expected %d items, got %d", want, len(result.Items))
	}
	for i, item := range result.Items {
		if item.Source != env.retrieval.result.Candidates[i].Chunk.ID {
			t.Errorf("item %d: expected source %q, got %q",
				i, env.retrieval.result.Candidates[i].Chunk.ID, item.Source)
		}
		if item.Snippet == "" {
			t.Errorf("item %d: expected a snippet", i)
		}
	}
}

func TestCapabilityDispatch_KeywordSearch(t *testing.T) {
	env := newCapabilityEnv(t)
	env.seedChunks(t, "doc-1", []string{
		"Mitochondria produce ATP through oxidative phosphorylation.",
		"The cell membrane is a phospholipid bilayer.",
		"ATP synthase spins as protons flow through it, producing ATP.",
	})

	result, err := env.service.Dispatch(context.Background(), domain.CapabilityRequest{
		Tag:        domain.CapabilityKeywordSearch,
		DocumentID: "doc-1",
		Query:      "ATP",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(result.Items))
	}
	for i, item := range result.Items {
		if !strings.Contains(item.Snippet, "ATP") {
			t.Errorf("item %d: snippet %q does not mention the query term", i, item.Snippet)
		}
		if i > 0 && result.Items[i].Score > result.Items[i-1].Score {
			t.Errorf("items not sorted by score at %d", i)
		}
	}
}

func TestCapabilityDispatch_KeywordSearchNoMatches(t *testing.T) {
	env := newCapabilityEnv(t)
	env.seedChunks(t, "doc-1", []string{"The cell membrane is a phospholipid bilayer."})

	result, err := env.service.Dispatch(context.Background(), domain.CapabilityRequest{
		Tag:        domain.CapabilityKeywordSearch,
		DocumentID: "doc-1",
		Query:      "volcano",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Items == nil {
		t.Error("expected empty items slice, got nil")
	}
	if len(result.Items) != 0 {
		t.Errorf("expected no items, got %d", len(result.Items))
	}
}

func TestCapabilityDispatch_ExternalContent(t *testing.T) {
	env := newCapabilityEnv(t)
	env.content.items = []*domain.CapabilityItem{
		{Title: "Intro to photosynthesis", Snippet: "Video lesson", Source: "khan-academy", URL: "https://example.org/photo"},
	}

	result, err := env.service.Dispatch(context.Background(), domain.CapabilityRequest{
		Tag:   domain.CapabilityExternalContent,
		Query: "photosynthesis",
		Limit: 3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(result.Items))
	}
	if env.content.lastTopic != "photosynthesis" {
		t.Errorf("expected provider topic %q, got %q", "photosynthesis", env.content.lastTopic)
	}
	if env.content.lastLimit != 3 {
		t.Errorf("expected provider limit 3, got %d", env.content.lastLimit)
	}
}

func TestCapabilityDispatch_ExternalContentUnconfigured(t *testing.T) {
	env := newCapabilityEnv(t)
	env.service.content = nil

	_, err := env.service.Dispatch(context.Background(), domain.CapabilityRequest{
		Tag:   domain.CapabilityExternalContent,
		Query: "photosynthesis",
	})
	if !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Errorf("expected ErrServiceUnavailable, got %v", err)
	}
}

func TestCapabilityDispatch_Validation(t *testing.T) {
	env := newCapabilityEnv(t)

	cases := []struct {
		name string
		req  domain.CapabilityRequest
	}{
		{"unknown tag", domain.CapabilityRequest{Tag: "summarise", DocumentID: "doc-1", Query: "x"}},
		{"empty query", domain.CapabilityRequest{Tag: domain.CapabilityTopicSearch, DocumentID: "doc-1", Query: "   "}},
		{"missing document", domain.CapabilityRequest{Tag: domain.CapabilityKeywordSearch, Query: "cells"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.service.Dispatch(context.Background(), tc.req)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestCapabilityDispatch_LimitClamped(t *testing.T) {
	env := newCapabilityEnv(t)

	_, err := env.service.Dispatch(context.Background(), domain.CapabilityRequest{
		Tag:   domain.CapabilityExternalContent,
		Query: "photosynthesis",
		Limit: 500,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.content.lastLimit != domain.MaxCapabilityLimit {
		t.Errorf("expected limit clamped to %d, got %d", domain.MaxCapabilityLimit, env.content.lastLimit)
	}
}

func TestCapabilityTags(t *testing.T) {
	env := newCapabilityEnv(t)

	tags := env.service.Tags()
	if len(tags) != 3 {
		t.Fatalf("expected 3 tags, got %d", len(tags))
	}
	for i := 1; i < len(tags); i++ {
		if tags[i] <= tags[i-1] {
			t.Errorf("tags not in stable sorted order: %v", tags)
		}
	}
}
