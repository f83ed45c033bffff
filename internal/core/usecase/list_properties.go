package usecase

import (
	"context"
	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
)

// ListPropertiesUseCase - выдача всех видимых объявлений, целиком или постранично
type ListPropertiesUseCase struct {
	query port.PropertyQueryPort
}

func NewListPropertiesUseCase(query port.PropertyQueryPort) *ListPropertiesUseCase {
	return &ListPropertiesUseCase{query: query}
}

func (uc *ListPropertiesUseCase) ListAll(ctx context.Context) ([]domain.Property, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{"use_case": "ListAllProperties"})

	ucLogger.Info("Use case started", nil)

	items, err := uc.query.ListAll(ctx)
	if err != nil {
		ucLogger.Error("Storage returned an error", err, nil)
		return nil, err
	}

	ucLogger.Info("Use case finished successfully", port.Fields{"count": len(items)})
	return items, nil
}

// Paginate - тот же поиск без фильтров
func (uc *ListPropertiesUseCase) Paginate(ctx context.Context, perPage, page int) (*domain.Page, error) {
	filters := domain.SearchFilters{PerPage: perPage, Page: page}.Normalize()

	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "PaginateProperties",
		"per_page": filters.PerPage,
		"page":     filters.Page,
	})

	ucLogger.Info("Use case started", nil)

	result, err := uc.query.Search(ctx, filters)
	if err != nil {
		ucLogger.Error("Storage returned an error", err, nil)
		return nil, err
	}

	ucLogger.Info("Use case finished successfully", port.Fields{"total_found": result.Total})
	return result, nil
}
