package port

import (
	"context"
	"listing-service/internal/core/domain"
)

// PropertyQueryPort - чтение объявлений. Каждый метод сам явно применяет
// базовый предикат видимости (approved + active + не удален), кроме FindByIDAdmin.
type PropertyQueryPort interface {
	Search(ctx context.Context, filters domain.SearchFilters) (*domain.Page, error)
	ListAll(ctx context.Context) ([]domain.Property, error)
	Featured(ctx context.Context, q domain.FeaturedQuery) ([]domain.Property, error)
	Similar(ctx context.Context, q domain.SimilarQuery) ([]domain.Property, error)

	FindBySlug(ctx context.Context, slug string) (*domain.Property, error)
	FindByOwner(ctx context.Context, ownerID int64) ([]domain.Property, error)

	// FindByIDAdmin - административный путь: без предиката видимости, включая удаленные
	FindByIDAdmin(ctx context.Context, id int64) (*domain.Property, error)
}
