package port

import (
	"context"
	"listing-service/internal/core/domain"
	"time"
)

// FeaturedCachePort - кеш выборки featured. Get возвращает found=false при промахе.
type FeaturedCachePort interface {
	GetFeatured(ctx context.Context, limit int) (items []domain.Property, found bool, err error)
	SetFeatured(ctx context.Context, limit int, items []domain.Property, ttl time.Duration) error
	InvalidateFeatured(ctx context.Context) error
}
