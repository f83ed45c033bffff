package usecases_port

import (
	"context"
	"listing-service/internal/core/domain"
)

type GetPropertyUseCase interface {
	BySlug(ctx context.Context, slug string) (*domain.Property, error)
	ByOwner(ctx context.Context, ownerID int64) ([]domain.Property, error)
	ByIDAdmin(ctx context.Context, id int64) (*domain.Property, error)
}
