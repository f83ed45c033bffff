package usecase

import (
	"context"
	"fmt"
	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
)

type UpdatePropertyUseCase struct {
	pipeline  *mutationPipeline
	images    *ImageAssociationManager
	amenities *AmenityAssociationManager
}

func NewUpdatePropertyUseCase(deps MutationDeps) *UpdatePropertyUseCase {
	pipeline := newMutationPipeline(deps)
	return &UpdatePropertyUseCase{
		pipeline:  pipeline,
		images:    NewImageAssociationManager(deps.Images, pipeline.deps.Clock),
		amenities: NewAmenityAssociationManager(),
	}
}

// Execute сливает заданные поля, при смене заголовка пересчитывает slug,
// заменяет набор удобств (если передан) и дописывает новые изображения.
func (uc *UpdatePropertyUseCase) Execute(ctx context.Context, id int64, input domain.UpdatePropertyInput) (*domain.Property, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case":    "UpdateProperty",
		"property_id": id,
		"images":      len(input.Images),
	})

	ucLogger.Info("Use case started", nil)

	var (
		updated *domain.Property
		changed []string
	)
	err := uc.pipeline.run(ctx, func(ctx context.Context, store port.PropertyTxStore, files *storedFiles) error {
		property, err := store.GetLiveForUpdate(ctx, id)
		if err != nil {
			return err
		}

		// Шаг 1: merge
		changeSet := input.ApplyTo(property)
		if changeSet.TitleChanged {
			property.Slug = domain.DeriveSlug(property.Title)
		}
		if changeSet.LocationChanged {
			property.Geohash = locationHash(property.Latitude, property.Longitude)
		}
		property.UpdatedAt = uc.pipeline.now()
		changed = changeSet.Fields

		if err := property.CheckInvariants(); err != nil {
			return err
		}

		// Шаг 2
		if err := store.Update(ctx, property); err != nil {
			return fmt.Errorf("failed to update property: %w", err)
		}

		// Шаг 3: полная замена набора удобств
		if input.AmenityIDs != nil {
			added, removed, err := uc.amenities.Replace(ctx, store, id, *input.AmenityIDs)
			if err != nil {
				return err
			}
			ucLogger.Debug("Amenities replaced", port.Fields{"added": added, "removed": removed})
			changed = append(changed, "amenities")
		}

		// Шаг 4: новые изображения после существующих. Основное не трогаем,
		// кроме случая когда у объекта еще нет ни одного изображения.
		if len(input.Images) > 0 {
			count, err := store.CountImages(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to count images: %w", err)
			}
			if _, err := uc.images.Attach(ctx, store, id, input.Images, count == 0, files); err != nil {
				return err
			}
			changed = append(changed, "images")
		}

		// Шаг 5
		hydrated, err := store.Hydrate(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load updated property: %w", err)
		}
		updated = hydrated
		return nil
	})
	if err != nil {
		ucLogger.Error("Update transaction aborted", err, nil)
		return nil, err
	}

	uc.pipeline.afterCommit(ctx, domain.NewPropertyEvent(domain.EventPropertyUpdated, updated, changed, uc.pipeline.now()))

	ucLogger.Info("Use case finished successfully", port.Fields{
		"slug":           updated.Slug,
		"changed_fields": changed,
	})
	return updated, nil
}
