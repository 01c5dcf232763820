package driven

import (
	"context"
)

// LLMService provides large language model completions for quiz
// generation and objective extraction
type LLMService interface {
	// Generate runs one completion for the given prompt and returns the
	// raw model text. Transport errors should be distinguishable from
	// empty output.
	Generate(ctx context.Context, prompt string) (string, error)

	// Model returns the model name being used
	Model() string

	// Ping verifies the LLM service is available
	Ping(ctx context.Context) error

	// Close releases resources held by the LLM service
	Close() error
}
