package usecase

import (
	"context"
	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
)

type SearchPropertiesUseCase struct {
	query port.PropertyQueryPort
}

func NewSearchPropertiesUseCase(query port.PropertyQueryPort) *SearchPropertiesUseCase {
	return &SearchPropertiesUseCase{query: query}
}

func (uc *SearchPropertiesUseCase) Execute(ctx context.Context, filters domain.SearchFilters) (*domain.Page, error) {
	filters = filters.Normalize()

	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "SearchProperties",
		"filters":  filters,
	})

	ucLogger.Info("Use case started", nil)

	result, err := uc.query.Search(ctx, filters)
	if err != nil {
		ucLogger.Error("Storage returned an error", err, nil)
		return nil, err
	}

	ucLogger.Info("Use case finished successfully", port.Fields{
		"total_found":   result.Total,
		"items_on_page": len(result.Items),
	})

	return result, nil
}
