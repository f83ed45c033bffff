package usecase

import (
	"context"
	"fmt"
	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
)

// CreatePropertyUseCase - создание объявления вместе с удобствами и изображениями в одной транзакции
type CreatePropertyUseCase struct {
	pipeline  *mutationPipeline
	images    *ImageAssociationManager
	amenities *AmenityAssociationManager
}

func NewCreatePropertyUseCase(deps MutationDeps) *CreatePropertyUseCase {
	pipeline := newMutationPipeline(deps)
	return &CreatePropertyUseCase{
		pipeline:  pipeline,
		images:    NewImageAssociationManager(deps.Images, pipeline.deps.Clock),
		amenities: NewAmenityAssociationManager(),
	}
}

func (uc *CreatePropertyUseCase) Execute(ctx context.Context, input domain.CreatePropertyInput) (*domain.Property, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case":  "CreateProperty",
		"owner_id":  input.OwnerID,
		"amenities": len(input.AmenityIDs),
		"images":    len(input.Images),
	})

	ucLogger.Info("Use case started", nil)

	var created *domain.Property
	err := uc.pipeline.run(ctx, func(ctx context.Context, store port.PropertyTxStore, files *storedFiles) error {
		// Шаг 1: slug и статус. Новые объявления всегда ждут модерации.
		property := domain.NewPropertyFromInput(input)
		if input.Slug != "" {
			property.Slug = domain.DeriveSlug(input.Slug)
		} else {
			property.Slug = domain.DeriveSlug(property.Title)
		}
		property.Status = domain.StatusPending
		property.Geohash = locationHash(property.Latitude, property.Longitude)

		now := uc.pipeline.now()
		property.CreatedAt = now
		property.UpdatedAt = now

		if err := property.CheckInvariants(); err != nil {
			return err
		}

		// Шаг 2: строка объекта
		if err := store.Insert(ctx, property); err != nil {
			return fmt.Errorf("failed to insert property: %w", err)
		}

		// Шаг 3: удобства
		if len(input.AmenityIDs) > 0 {
			if err := uc.amenities.Attach(ctx, store, property.ID, input.AmenityIDs); err != nil {
				return err
			}
		}

		// Шаг 4: изображения, первое - основное
		if len(input.Images) > 0 {
			if _, err := uc.images.Attach(ctx, store, property.ID, input.Images, true, files); err != nil {
				return err
			}
		}

		// Шаг 5: гидратация в той же транзакции
		hydrated, err := store.Hydrate(ctx, property.ID)
		if err != nil {
			return fmt.Errorf("failed to load created property: %w", err)
		}
		created = hydrated
		return nil
	})
	if err != nil {
		ucLogger.Error("Create transaction aborted", err, nil)
		return nil, err
	}

	uc.pipeline.afterCommit(ctx, domain.NewPropertyEvent(domain.EventPropertyCreated, created, nil, uc.pipeline.now()))

	ucLogger.Info("Use case finished successfully", port.Fields{
		"property_id": created.ID,
		"slug":        created.Slug,
	})
	return created, nil
}
