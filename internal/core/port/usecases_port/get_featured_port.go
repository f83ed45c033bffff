package usecases_port

import (
	"context"
	"listing-service/internal/core/domain"
)

type GetFeaturedUseCase interface {
	Execute(ctx context.Context, limit int) ([]domain.Property, error)
}
