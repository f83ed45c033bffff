package usecase

import (
	"context"
	"fmt"
	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
)

// GetSimilarUseCase - "похожие" объявления: тот же город, кроме самого объекта.
// Это простая эвристика по местоположению, не ранжирование.
type GetSimilarUseCase struct {
	query port.PropertyQueryPort
}

func NewGetSimilarUseCase(query port.PropertyQueryPort) *GetSimilarUseCase {
	return &GetSimilarUseCase{query: query}
}

func (uc *GetSimilarUseCase) Execute(ctx context.Context, property *domain.Property, limit int) ([]domain.Property, error) {
	if property == nil {
		return nil, fmt.Errorf("reference property is required: %w", domain.ErrValidationFailed)
	}
	if limit <= 0 {
		limit = domain.DefaultSimilarSize
	}

	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case":    "GetSimilar",
		"property_id": property.ID,
		"city":        property.City,
		"limit":       limit,
	})

	ucLogger.Info("Use case started", nil)

	items, err := uc.query.Similar(ctx, domain.SimilarQuery{
		PropertyID: property.ID,
		City:       property.City,
		Limit:      limit,
	})
	if err != nil {
		ucLogger.Error("Storage returned an error", err, nil)
		return nil, err
	}

	ucLogger.Info("Use case finished successfully", port.Fields{"count": len(items)})
	return items, nil
}
