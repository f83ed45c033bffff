package usecase

import (
	"context"
	"fmt"
	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
)

// ImageAssociationManager привязывает изображения к объекту: файл уходит во внешнее
// хранилище, строка PropertyImage пишется в текущую транзакцию
type ImageAssociationManager struct {
	storage port.ImageStoragePort
	clock   port.Clock
}

func NewImageAssociationManager(storage port.ImageStoragePort, clock port.Clock) *ImageAssociationManager {
	if clock == nil {
		clock = port.SystemClock{}
	}
	return &ImageAssociationManager{storage: storage, clock: clock}
}

// Attach добавляет изображения в порядке ввода, order продолжает текущее количество.
// markFirstPrimary=true делает primary первое из переданных (index 0).
func (m *ImageAssociationManager) Attach(ctx context.Context, store port.PropertyTxStore, propertyID int64,
	images []domain.RawImage, markFirstPrimary bool, files *storedFiles) ([]domain.PropertyImage, error) {

	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":   "ImageAssociationManager",
		"property_id": propertyID,
		"count":       len(images),
	})

	if m.storage == nil {
		return nil, fmt.Errorf("image storage is not configured")
	}

	startOrder, err := store.CountImages(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to count images: %w", err)
	}

	attached := make([]domain.PropertyImage, 0, len(images))
	for i, raw := range images {
		stored, err := m.storage.Store(ctx, propertyID, raw)
		if err != nil {
			logger.Error("Image storage rejected file", err, port.Fields{"index": i, "filename": raw.Filename})
			return nil, fmt.Errorf("failed to store image %d: %w", i, err)
		}
		if files != nil {
			files.add(stored)
		}

		img := domain.PropertyImage{
			PropertyID:    propertyID,
			ImagePath:     stored.Path,
			ThumbnailPath: stored.ThumbnailPath,
			Order:         startOrder + i,
			IsPrimary:     markFirstPrimary && i == 0,
			CreatedAt:     m.clock.Now(),
		}
		if err := store.InsertImage(ctx, &img); err != nil {
			return nil, fmt.Errorf("failed to insert image %d: %w", i, err)
		}
		attached = append(attached, img)
	}

	logger.Debug("Images attached", port.Fields{"start_order": startOrder})
	return attached, nil
}
