// Package direct provides an event publisher that writes events straight to
// storage. This is the default for single-instance deployments.
package direct

import (
	"context"
	"fmt"

	"github.com/chocolab/ai-gateway/internal/core/ports"
	"github.com/chocolab/ai-gateway/internal/domain"
)

// EventSink is the storage surface the publisher writes to. The SQLite store
// satisfies it.
type EventSink interface {
	SaveEvent(ctx context.Context, event *domain.Event) error
}

// Publisher implements ports.EventPublisher by appending events to storage.
type Publisher struct {
	sink EventSink
}

var _ ports.EventPublisher = (*Publisher)(nil)

// NewPublisher creates a direct event publisher.
func NewPublisher(sink EventSink) (*Publisher, error) {
	if sink == nil {
		return nil, fmt.Errorf("event sink required")
	}
	return &Publisher{sink: sink}, nil
}

// Publish appends the event to storage.
func (p *Publisher) Publish(ctx context.Context, event *domain.Event) error {
	return p.sink.SaveEvent(ctx, event)
}

// Close is a no-op for the direct publisher.
func (p *Publisher) Close() error {
	return nil
}
