package usecase

import (
	"context"
	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
	"time"
)

type GetFeaturedUseCase struct {
	query port.PropertyQueryPort
	cache port.FeaturedCachePort // может быть nil
	clock port.Clock
	// Кеш сбрасывают только мутации этого сервиса; внешняя модерация видна через cacheTTL
	cacheTTL time.Duration
}

func NewGetFeaturedUseCase(query port.PropertyQueryPort, cache port.FeaturedCachePort, clock port.Clock, cacheTTL time.Duration) *GetFeaturedUseCase {
	if clock == nil {
		clock = port.SystemClock{}
	}
	return &GetFeaturedUseCase{
		query:    query,
		cache:    cache,
		clock:    clock,
		cacheTTL: cacheTTL,
	}
}

func (uc *GetFeaturedUseCase) Execute(ctx context.Context, limit int) ([]domain.Property, error) {
	if limit <= 0 {
		limit = domain.DefaultFeaturedSize
	}
	now := uc.clock.Now()

	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "GetFeatured",
		"limit":    limit,
	})

	ucLogger.Info("Use case started", nil)

	if uc.cache != nil {
		cached, found, err := uc.cache.GetFeatured(ctx, limit)
		if err != nil {
			// Кеш не обязателен, идем в хранилище
			ucLogger.Warn("Featured cache read failed", port.Fields{"error": err.Error()})
		} else if found {
			items := stillFeatured(cached, now)
			ucLogger.Info("Use case finished from cache", port.Fields{"count": len(items)})
			return items, nil
		}
	}

	items, err := uc.query.Featured(ctx, domain.FeaturedQuery{Now: now, Limit: limit})
	if err != nil {
		ucLogger.Error("Storage returned an error", err, nil)
		return nil, err
	}

	if uc.cache != nil {
		if ttl := featuredCacheTTL(items, now, uc.cacheTTL); ttl > 0 {
			if err := uc.cache.SetFeatured(ctx, limit, items, ttl); err != nil {
				ucLogger.Warn("Featured cache write failed", port.Fields{"error": err.Error()})
			}
		}
	}

	ucLogger.Info("Use case finished successfully", port.Fields{"count": len(items)})
	return items, nil
}

// featuredCacheTTL не дает кешу пережить самый ранний featured_until в выборке
func featuredCacheTTL(items []domain.Property, now time.Time, maxTTL time.Duration) time.Duration {
	ttl := maxTTL
	for i := range items {
		if items[i].FeaturedUntil == nil {
			continue
		}
		if left := items[i].FeaturedUntil.Sub(now); left < ttl {
			ttl = left
		}
	}
	return ttl
}

func stillFeatured(items []domain.Property, now time.Time) []domain.Property {
	out := make([]domain.Property, 0, len(items))
	for i := range items {
		if items[i].IsFeaturedAt(now) {
			out = append(out, items[i])
		}
	}
	return out
}
