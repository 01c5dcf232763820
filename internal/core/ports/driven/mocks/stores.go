package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/quizgen-core/internal/core/domain"
)

// MockDocumentStore is a mock implementation of DocumentStore for testing
type MockDocumentStore struct {
	mu        sync.RWMutex
	documents map[string]*domain.Document
}

// NewMockDocumentStore creates a new MockDocumentStore
func NewMockDocumentStore() *MockDocumentStore {
	return &MockDocumentStore{
		documents: make(map[string]*domain.Document),
	}
}

func (m *MockDocumentStore) Save(ctx context.Context, doc *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[doc.ID] = doc
	return nil
}

func (m *MockDocumentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

func (m *MockDocumentStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.documents, id)
	return nil
}

func (m *MockDocumentStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.documents), nil
}

// MockChunkStore is a mock implementation of ChunkStore for testing
type MockChunkStore struct {
	mu    sync.RWMutex
	byDoc map[string][]*domain.Chunk
	byID  map[string]*domain.Chunk
}

// NewMockChunkStore creates a new MockChunkStore
func NewMockChunkStore() *MockChunkStore {
	return &MockChunkStore{
		byDoc: make(map[string][]*domain.Chunk),
		byID:  make(map[string]*domain.Chunk),
	}
}

func (m *MockChunkStore) SaveBatch(ctx context.Context, documentID string, chunks []*domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, old := range m.byDoc[documentID] {
		delete(m.byID, old.ID)
	}
	replacement := make([]*domain.Chunk, len(chunks))
	copy(replacement, chunks)
	m.byDoc[documentID] = replacement
	for _, chunk := range replacement {
		m.byID[chunk.ID] = chunk
	}
	return nil
}

func (m *MockChunkStore) GetByDocument(ctx context.Context, documentID string) ([]*domain.Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	chunks := make([]*domain.Chunk, len(m.byDoc[documentID]))
	copy(chunks, m.byDoc[documentID])
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Ordinal < chunks[j].Ordinal })
	return chunks, nil
}

func (m *MockChunkStore) GetByIDs(ctx context.Context, ids []string) ([]*domain.Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var chunks []*domain.Chunk
	for _, id := range ids {
		if chunk, ok := m.byID[id]; ok {
			chunks = append(chunks, chunk)
		}
	}
	return chunks, nil
}

func (m *MockChunkStore) DeleteByDocument(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, chunk := range m.byDoc[documentID] {
		delete(m.byID, chunk.ID)
	}
	delete(m.byDoc, documentID)
	return nil
}

func (m *MockChunkStore) CountByDocument(ctx context.Context, documentID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byDoc[documentID]), nil
}

// MockSessionStore is a mock implementation of SessionStore for testing
type MockSessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

// NewMockSessionStore creates a new MockSessionStore
func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{sessions: make(map[string]*domain.Session)}
}

func (m *MockSessionStore) Save(ctx context.Context, session *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = session
	return nil
}

func (m *MockSessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[id]
	if !ok || session.Expired(time.Now()) {
		return nil, domain.ErrNotFound
	}
	return session, nil
}

func (m *MockSessionStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// MockFeedbackStore is a mock implementation of FeedbackStore for testing
type MockFeedbackStore struct {
	mu        sync.RWMutex
	bySession map[string][]*domain.Feedback
}

// NewMockFeedbackStore creates a new MockFeedbackStore
func NewMockFeedbackStore() *MockFeedbackStore {
	return &MockFeedbackStore{bySession: make(map[string][]*domain.Feedback)}
}

func (m *MockFeedbackStore) Save(ctx context.Context, fb *domain.Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bySession[fb.SessionID] = append([]*domain.Feedback{fb}, m.bySession[fb.SessionID]...)
	return nil
}

func (m *MockFeedbackStore) ListBySession(ctx context.Context, sessionID string) ([]*domain.Feedback, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Feedback, len(m.bySession[sessionID]))
	copy(out, m.bySession[sessionID])
	return out, nil
}

// MockQuizStore is a mock implementation of QuizStore for testing
type MockQuizStore struct {
	mu      sync.RWMutex
	quizzes map[string]*domain.QuizSet
}

// NewMockQuizStore creates a new MockQuizStore
func NewMockQuizStore() *MockQuizStore {
	return &MockQuizStore{quizzes: make(map[string]*domain.QuizSet)}
}

func (m *MockQuizStore) Save(ctx context.Context, fingerprint string, quiz *domain.QuizSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quizzes[fingerprint] = quiz
	return nil
}

func (m *MockQuizStore) GetByFingerprint(ctx context.Context, fingerprint string) (*domain.QuizSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	quiz, ok := m.quizzes[fingerprint]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return quiz, nil
}

func (m *MockQuizStore) DeleteByDocument(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for fp, quiz := range m.quizzes {
		if quiz.DocumentID == documentID {
			delete(m.quizzes, fp)
		}
	}
	return nil
}
