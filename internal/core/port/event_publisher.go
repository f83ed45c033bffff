package port

import (
	"context"
	"listing-service/internal/core/domain"
)

type PropertyEventPublisherPort interface {
	PublishPropertyEvent(ctx context.Context, event domain.PropertyEvent) error
}
