package runtime

import (
	"context"
	"errors"

	"github.com/chocolab/ai-gateway/internal/core/ports"
	"github.com/chocolab/ai-gateway/internal/domain"
)

// fanoutPublisher forwards each event to every wrapped publisher. Publish
// errors are joined but delivery is attempted everywhere.
type fanoutPublisher struct {
	publishers []ports.EventPublisher
}

func newFanoutPublisher(publishers ...ports.EventPublisher) *fanoutPublisher {
	return &fanoutPublisher{publishers: publishers}
}

func (f *fanoutPublisher) Publish(ctx context.Context, event *domain.Event) error {
	var errs []error
	for _, p := range f.publishers {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *fanoutPublisher) Close() error {
	var errs []error
	for _, p := range f.publishers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// unconfiguredProvider stands in when no credential is configured. Every
// call fails, which routes translation and detection to their deterministic
// fallbacks.
type unconfiguredProvider struct{}

func (unconfiguredProvider) Generate(context.Context, *domain.GenerateRequest) (string, error) {
	return "", domain.NewGatewayError(domain.ErrorTypeConfigAbsent, "provider credential not configured")
}

func (unconfiguredProvider) GenerateText(context.Context, string) (string, error) {
	return "", domain.NewGatewayError(domain.ErrorTypeConfigAbsent, "provider credential not configured")
}
