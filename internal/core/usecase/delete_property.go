package usecase

import (
	"context"
	"fmt"
	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
)

// DeletePropertyUseCase - мягкое удаление. Изображения и связи с удобствами
// не отвязываются: их судьба - забота схемы хранилища.
type DeletePropertyUseCase struct {
	pipeline *mutationPipeline
}

func NewDeletePropertyUseCase(deps MutationDeps) *DeletePropertyUseCase {
	return &DeletePropertyUseCase{pipeline: newMutationPipeline(deps)}
}

func (uc *DeletePropertyUseCase) Execute(ctx context.Context, id int64) error {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case":    "DeleteProperty",
		"property_id": id,
	})

	ucLogger.Info("Use case started", nil)

	var deleted *domain.Property
	err := uc.pipeline.run(ctx, func(ctx context.Context, store port.PropertyTxStore, _ *storedFiles) error {
		property, err := store.GetLiveForUpdate(ctx, id)
		if err != nil {
			return err
		}

		at := uc.pipeline.now()
		if err := store.SoftDelete(ctx, id, at); err != nil {
			return fmt.Errorf("failed to soft delete property: %w", err)
		}
		property.DeletedAt = &at
		deleted = property
		return nil
	})
	if err != nil {
		ucLogger.Error("Delete transaction aborted", err, nil)
		return err
	}

	uc.pipeline.afterCommit(ctx, domain.NewPropertyEvent(domain.EventPropertyDeleted, deleted, nil, uc.pipeline.now()))

	ucLogger.Info("Use case finished successfully", nil)
	return nil
}
