package driven

import (
	"context"

	"github.com/custodia-labs/quizgen-core/internal/core/domain"
)

// ContentProvider fetches supplementary study material from an
// external source (Khan Academy style APIs)
type ContentProvider interface {
	// Lookup returns up to limit items for a topic
	Lookup(ctx context.Context, topic string, limit int) ([]*domain.CapabilityItem, error)

	// HealthCheck verifies the upstream API is reachable
	HealthCheck(ctx context.Context) error

	// Close releases resources held by the provider
	Close() error
}
