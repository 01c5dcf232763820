package driving

import (
	"context"

	"github.com/custodia-labs/quizgen-core/internal/core/domain"
)

// CapabilityService routes tagged lookup operations over a fixed
// dispatch table
type CapabilityService interface {
	// Dispatch runs the handler registered for the request's tag
	Dispatch(ctx context.Context, req domain.CapabilityRequest) (*domain.CapabilityResult, error)

	// Tags lists the dispatchable capability tags in stable order
	Tags() []domain.CapabilityTag
}
