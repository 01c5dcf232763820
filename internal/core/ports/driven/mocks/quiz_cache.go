package mocks

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/custodia-labs/quizgen-core/internal/core/domain"
)

type cacheEntry struct {
	payload   []byte
	expiresAt time.Time
}

// MockQuizCache is an in-memory QuizCache with TTL semantics for testing.
// Payloads round-trip through JSON so hits replay exactly what was stored.
type MockQuizCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	down    bool

	hits   int
	misses int
}

// NewMockQuizCache creates a new MockQuizCache
func NewMockQuizCache() *MockQuizCache {
	return &MockQuizCache{entries: make(map[string]cacheEntry)}
}

func (m *MockQuizCache) Get(ctx context.Context, fingerprint string) (*domain.QuizSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return nil, domain.ErrServiceUnavailable
	}

	entry, ok := m.entries[fingerprint]
	if !ok || time.Now().After(entry.expiresAt) {
		m.misses++
		return nil, domain.ErrNotFound
	}
	m.hits++

	var quiz domain.QuizSet
	if err := json.Unmarshal(entry.payload, &quiz); err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (m *MockQuizCache) Set(ctx context.Context, fingerprint string, quiz *domain.QuizSet, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return domain.ErrServiceUnavailable
	}

	payload, err := json.Marshal(quiz)
	if err != nil {
		return err
	}
	m.entries[fingerprint] = cacheEntry{payload: payload, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (m *MockQuizCache) InvalidateDocument(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return domain.ErrServiceUnavailable
	}

	for fp, entry := range m.entries {
		var quiz domain.QuizSet
		if err := json.Unmarshal(entry.payload, &quiz); err == nil && quiz.DocumentID == documentID {
			delete(m.entries, fp)
		}
	}
	return nil
}

func (m *MockQuizCache) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.down {
		return domain.ErrServiceUnavailable
	}
	return nil
}

// Helper methods for testing

// SetDown simulates the cache backend being unreachable
func (m *MockQuizCache) SetDown(down bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.down = down
}

// Hits returns the number of cache hits
func (m *MockQuizCache) Hits() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hits
}

// Misses returns the number of cache misses
func (m *MockQuizCache) Misses() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.misses
}
