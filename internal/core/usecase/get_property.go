package usecase

import (
	"context"
	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
)

type GetPropertyUseCase struct {
	query port.PropertyQueryPort
}

func NewGetPropertyUseCase(query port.PropertyQueryPort) *GetPropertyUseCase {
	return &GetPropertyUseCase{query: query}
}

// BySlug - карточка объявления: владелец, изображения, удобства и одобренные отзывы
func (uc *GetPropertyUseCase) BySlug(ctx context.Context, slug string) (*domain.Property, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "GetPropertyBySlug",
		"slug":     slug,
	})

	ucLogger.Info("Use case started", nil)

	result, err := uc.query.FindBySlug(ctx, slug)
	if err != nil {
		ucLogger.Error("Storage returned an error", err, nil)
		return nil, err
	}

	ucLogger.Info("Use case finished successfully", port.Fields{"property_id": result.ID})
	return result, nil
}

// ByOwner - все не удаленные объявления владельца в любом статусе
func (uc *GetPropertyUseCase) ByOwner(ctx context.Context, ownerID int64) ([]domain.Property, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "GetPropertiesByOwner",
		"owner_id": ownerID,
	})

	ucLogger.Info("Use case started", nil)

	items, err := uc.query.FindByOwner(ctx, ownerID)
	if err != nil {
		ucLogger.Error("Storage returned an error", err, nil)
		return nil, err
	}

	ucLogger.Info("Use case finished successfully", port.Fields{"count": len(items)})
	return items, nil
}

// ByIDAdmin - административный просмотр, удаленные объекты тоже доступны
func (uc *GetPropertyUseCase) ByIDAdmin(ctx context.Context, id int64) (*domain.Property, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case":    "GetPropertyByIDAdmin",
		"property_id": id,
	})

	ucLogger.Info("Use case started", nil)

	result, err := uc.query.FindByIDAdmin(ctx, id)
	if err != nil {
		ucLogger.Error("Storage returned an error", err, nil)
		return nil, err
	}

	ucLogger.Info("Use case finished successfully", port.Fields{"deleted": result.IsDeleted()})
	return result, nil
}
