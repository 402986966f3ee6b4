package ports

import (
	"context"

	"github.com/chocolab/ai-gateway/internal/domain"
)

// Provider abstracts the generative-language provider. It is the single
// point of failure the circuit breaker protects.
type Provider interface {
	// Generate produces text from a multimodal prompt (text and image parts).
	Generate(ctx context.Context, req *domain.GenerateRequest) (string, error)

	// GenerateText produces text from a plain prompt.
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// EventPublisher publishes fire-and-forget notification events.
// Implementations: direct storage (default), websocket hub.
// Absence of a subscriber is not an error.
type EventPublisher interface {
	Publish(ctx context.Context, event *domain.Event) error
	Close() error
}
