package usecases_port

import (
	"context"
	"listing-service/internal/core/domain"
)

type ListPropertiesUseCase interface {
	ListAll(ctx context.Context) ([]domain.Property, error)
	Paginate(ctx context.Context, perPage, page int) (*domain.Page, error)
}
