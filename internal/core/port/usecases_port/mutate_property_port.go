package usecases_port

import (
	"context"
	"listing-service/internal/core/domain"
)

type CreatePropertyUseCase interface {
	Execute(ctx context.Context, input domain.CreatePropertyInput) (*domain.Property, error)
}

type UpdatePropertyUseCase interface {
	Execute(ctx context.Context, id int64, input domain.UpdatePropertyInput) (*domain.Property, error)
}

type DeletePropertyUseCase interface {
	Execute(ctx context.Context, id int64) error
}
