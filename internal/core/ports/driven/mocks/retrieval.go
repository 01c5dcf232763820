package mocks

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/quizgen-core/internal/core/domain"
	"github.com/custodia-labs/quizgen-core/internal/core/ports/driven"
)

// MockVectorIndex is an in-memory cosine-similarity VectorIndex for testing
type MockVectorIndex struct {
	mu         sync.RWMutex
	vectors    map[string]map[string][]float32 // documentID -> chunkID -> embedding
	failSearch bool
	failUpsert bool
}

// NewMockVectorIndex creates a new MockVectorIndex
func NewMockVectorIndex() *MockVectorIndex {
	return &MockVectorIndex{vectors: make(map[string]map[string][]float32)}
}

func (m *MockVectorIndex) Upsert(ctx context.Context, chunks []*domain.Chunk, embeddings [][]float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpsert {
		return domain.ErrServiceUnavailable
	}
	if len(chunks) == 0 {
		return nil
	}
	docID := chunks[0].DocumentID
	replacement := make(map[string][]float32, len(chunks))
	for i, chunk := range chunks {
		replacement[chunk.ID] = embeddings[i]
	}
	m.vectors[docID] = replacement
	return nil
}

func (m *MockVectorIndex) Search(ctx context.Context, documentID string, embedding []float32, limit int) ([]driven.VectorHit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failSearch {
		return nil, domain.ErrServiceUnavailable
	}

	var hits []driven.VectorHit
	for chunkID, vec := range m.vectors[documentID] {
		hits = append(hits, driven.VectorHit{ChunkID: chunkID, Score: cosine(embedding, vec)})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (m *MockVectorIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.vectors, documentID)
	return nil
}

func (m *MockVectorIndex) HealthCheck(ctx context.Context) error {
	if m.failSearch || m.failUpsert {
		return domain.ErrServiceUnavailable
	}
	return nil
}

// Helper methods for testing

func (m *MockVectorIndex) SetFail(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSearch = fail
	m.failUpsert = fail
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// MockSparseIndex is an in-memory term-overlap SparseIndex for testing
type MockSparseIndex struct {
	mu    sync.RWMutex
	byDoc map[string][]*domain.Chunk
}

// NewMockSparseIndex creates a new MockSparseIndex
func NewMockSparseIndex() *MockSparseIndex {
	return &MockSparseIndex{byDoc: make(map[string][]*domain.Chunk)}
}

func (m *MockSparseIndex) IndexDocument(ctx context.Context, documentID string, chunks []*domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	replacement := make([]*domain.Chunk, len(chunks))
	copy(replacement, chunks)
	m.byDoc[documentID] = replacement
	return nil
}

func (m *MockSparseIndex) Search(ctx context.Context, documentID string, query string, limit int) ([]driven.SparseHit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	terms := strings.Fields(strings.ToLower(query))
	var hits []driven.SparseHit
	for _, chunk := range m.byDoc[documentID] {
		content := strings.ToLower(chunk.Content)
		score := 0.0
		for _, term := range terms {
			score += float64(strings.Count(content, term))
		}
		if score > 0 {
			hits = append(hits, driven.SparseHit{ChunkID: chunk.ID, Score: score})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (m *MockSparseIndex) DeleteDocument(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byDoc, documentID)
	return nil
}

// MockReranker scores chunks by shared-token count with the query.
// Deterministic, so rerank ordering is reproducible in tests.
type MockReranker struct {
	mu        sync.Mutex
	fail      bool
	callCount int
}

// NewMockReranker creates a new MockReranker
func NewMockReranker() *MockReranker {
	return &MockReranker{}
}

func (m *MockReranker) Score(ctx context.Context, query string, chunks []string) ([]float64, error) {
	m.mu.Lock()
	m.callCount++
	fail := m.fail
	m.mu.Unlock()
	if fail {
		return nil, domain.ErrServiceUnavailable
	}

	queryTerms := make(map[string]bool)
	for _, term := range strings.Fields(strings.ToLower(query)) {
		queryTerms[term] = true
	}

	scores := make([]float64, len(chunks))
	for i, content := range chunks {
		for _, term := range strings.Fields(strings.ToLower(content)) {
			if queryTerms[term] {
				scores[i]++
			}
		}
	}
	return scores, nil
}

func (m *MockReranker) Model() string {
	return "mock-reranker"
}

func (m *MockReranker) HealthCheck(ctx context.Context) error {
	return nil
}

func (m *MockReranker) Close() error {
	return nil
}

// Helper methods for testing

func (m *MockReranker) SetFail(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = fail
}

func (m *MockReranker) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}
