package port

import (
	"context"
	"listing-service/internal/core/domain"
)

// ImageStoragePort - внешнее хранилище бинарных файлов изображений
type ImageStoragePort interface {
	Store(ctx context.Context, propertyID int64, image domain.RawImage) (domain.StoredImage, error)
	Delete(ctx context.Context, image domain.StoredImage) error
}
