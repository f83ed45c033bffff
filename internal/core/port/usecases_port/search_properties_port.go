package usecases_port

import (
	"context"
	"listing-service/internal/core/domain"
)

type SearchPropertiesUseCase interface {
	Execute(ctx context.Context, filters domain.SearchFilters) (*domain.Page, error)
}
