package port

import (
	"context"
	"listing-service/internal/core/domain"
	"time"
)

// PropertyTxStore - операции записи, доступные только внутри транзакции
type PropertyTxStore interface {
	// Insert записывает строку и проставляет ID/CreatedAt/UpdatedAt в p
	Insert(ctx context.Context, p *domain.Property) error
	// GetLiveForUpdate возвращает не удаленный объект с блокировкой строки, иначе domain.ErrNotFound
	GetLiveForUpdate(ctx context.Context, id int64) (*domain.Property, error)
	Update(ctx context.Context, p *domain.Property) error
	SoftDelete(ctx context.Context, id int64, at time.Time) error

	AmenityIDs(ctx context.Context, propertyID int64) ([]int64, error)
	LinkAmenities(ctx context.Context, propertyID int64, amenityIDs []int64) error
	UnlinkAmenities(ctx context.Context, propertyID int64, amenityIDs []int64) error

	CountImages(ctx context.Context, propertyID int64) (int, error)
	InsertImage(ctx context.Context, img *domain.PropertyImage) error

	// Hydrate загружает объект со связями (владелец, изображения, удобства) в рамках той же транзакции
	Hydrate(ctx context.Context, id int64) (*domain.Property, error)
}

// TransactionManager выполняет fn в одной транзакции: ошибка fn - откат, иначе коммит
type TransactionManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, store PropertyTxStore) error) error
}
