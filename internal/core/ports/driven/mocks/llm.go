package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/quizgen-core/internal/core/domain"
)

// MockLLMService is a scripted mock implementation of LLMService for
// testing. Responses are returned in order; when the script runs out
// the last response repeats.
type MockLLMService struct {
	mu sync.Mutex

	responses     []string
	next          int
	transportFail int // Number of calls to fail with ErrServiceUnavailable first

	callCount int
	prompts   []string
}

// NewMockLLMService creates a new MockLLMService
func NewMockLLMService(responses ...string) *MockLLMService {
	return &MockLLMService{responses: responses}
}

func (m *MockLLMService) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callCount++
	m.prompts = append(m.prompts, prompt)

	if m.transportFail > 0 {
		m.transportFail--
		return "", domain.ErrServiceUnavailable
	}

	if len(m.responses) == 0 {
		return "", nil
	}
	resp := m.responses[m.next]
	if m.next < len(m.responses)-1 {
		m.next++
	}
	return resp, nil
}

func (m *MockLLMService) Model() string {
	return "mock-llm"
}

func (m *MockLLMService) Ping(ctx context.Context) error {
	return nil
}

func (m *MockLLMService) Close() error {
	return nil
}

// Helper methods for testing

// SetTransportFailures makes the next n calls fail with a transport error
func (m *MockLLMService) SetTransportFailures(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transportFail = n
}

// CallCount returns how many times Generate was invoked
func (m *MockLLMService) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Prompts returns every prompt passed to Generate
func (m *MockLLMService) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}
