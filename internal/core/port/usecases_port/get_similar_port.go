package usecases_port

import (
	"context"
	"listing-service/internal/core/domain"
)

type GetSimilarUseCase interface {
	Execute(ctx context.Context, property *domain.Property, limit int) ([]domain.Property, error)
}
