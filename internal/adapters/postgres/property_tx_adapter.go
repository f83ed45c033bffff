package postgres

import (
	"context"
	"fmt"
	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresTransactionManager открывает транзакцию на пуле и отдает use case'ам PropertyTxStore.
type PostgresTransactionManager struct {
	pool *pgxpool.Pool
}

var _ port.TransactionManager = (*PostgresTransactionManager)(nil)

func NewPostgresTransactionManager(pool *pgxpool.Pool) (*PostgresTransactionManager, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgxpool.Pool cannot be nil")
	}
	return &PostgresTransactionManager{pool: pool}, nil
}

func (m *PostgresTransactionManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context, store port.PropertyTxStore) error) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// Rollback после Commit ничего не делает
	defer tx.Rollback(context.WithoutCancel(ctx))

	if err := fn(ctx, &pgTxStore{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		contextkeys.LoggerFromContext(ctx).Error("Failed to commit transaction", err, port.Fields{
			"component": "PostgresTransactionManager",
		})
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// pgTxStore - операции записи внутри одной pgx.Tx
type pgTxStore struct {
	tx pgx.Tx
}

var _ port.PropertyTxStore = (*pgTxStore)(nil)

func (s *pgTxStore) Insert(ctx context.Context, p *domain.Property) error {
	sql := `
		INSERT INTO properties (
			owner_id, title, slug, description, type,
			price, yearly_price, deposit, rental_period, utilities_included,
			address, city, district, postal_code, latitude, longitude, geohash,
			bedrooms, bathrooms, area, floor, total_floors,
			furnishing, parking, parking_spaces, pets_allowed,
			status, is_featured, featured_until, is_active, meta_title, meta_description,
			published_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6::bigint / 100.0, $7::bigint / 100.0, $8::bigint / 100.0, $9, $10,
			$11, $12, $13, $14, $15, $16, $17,
			$18, $19, $20::bigint / 100.0, $21, $22,
			$23, $24, $25, $26,
			$27, $28, $29, $30, $31, $32,
			$33, $34, $35
		)
		RETURNING id`

	err := s.tx.QueryRow(ctx, sql,
		p.OwnerID, p.Title, p.Slug, p.Description, string(p.Type),
		p.Price.Cents(), centsPtr(p.YearlyPrice), centsPtr(p.Deposit), string(p.RentalPeriod), p.UtilitiesIncluded,
		p.Address, p.City, p.District, p.PostalCode, p.Latitude, p.Longitude, p.Geohash,
		p.Bedrooms, p.Bathrooms, p.Area.Cents(), p.Floor, p.TotalFloors,
		string(p.Furnishing), p.Parking, p.ParkingSpaces, p.PetsAllowed,
		string(p.Status), p.IsFeatured, p.FeaturedUntil, p.IsActive, p.MetaTitle, p.MetaDescription,
		p.PublishedAt, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		return mapStorageError(err)
	}
	return nil
}

func (s *pgTxStore) GetLiveForUpdate(ctx context.Context, id int64) (*domain.Property, error) {
	query := fmt.Sprintf("SELECT %s FROM properties p WHERE p.id = $1 AND p.deleted_at IS NULL FOR UPDATE", propertyColumns)
	p, err := scanProperty(s.tx.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapStorageError(err)
	}
	return p, nil
}

func (s *pgTxStore) Update(ctx context.Context, p *domain.Property) error {
	sql := `
		UPDATE properties SET
			title = $2, slug = $3, description = $4, type = $5,
			price = $6::bigint / 100.0, yearly_price = $7::bigint / 100.0, deposit = $8::bigint / 100.0,
			rental_period = $9, utilities_included = $10,
			address = $11, city = $12, district = $13, postal_code = $14,
			latitude = $15, longitude = $16, geohash = $17,
			bedrooms = $18, bathrooms = $19, area = $20::bigint / 100.0, floor = $21, total_floors = $22,
			furnishing = $23, parking = $24, parking_spaces = $25, pets_allowed = $26,
			is_featured = $27, featured_until = $28, is_active = $29,
			meta_title = $30, meta_description = $31, updated_at = $32
		WHERE id = $1 AND deleted_at IS NULL`

	tag, err := s.tx.Exec(ctx, sql,
		p.ID, p.Title, p.Slug, p.Description, string(p.Type),
		p.Price.Cents(), centsPtr(p.YearlyPrice), centsPtr(p.Deposit),
		string(p.RentalPeriod), p.UtilitiesIncluded,
		p.Address, p.City, p.District, p.PostalCode,
		p.Latitude, p.Longitude, p.Geohash,
		p.Bedrooms, p.Bathrooms, p.Area.Cents(), p.Floor, p.TotalFloors,
		string(p.Furnishing), p.Parking, p.ParkingSpaces, p.PetsAllowed,
		p.IsFeatured, p.FeaturedUntil, p.IsActive,
		p.MetaTitle, p.MetaDescription, p.UpdatedAt,
	)
	if err != nil {
		return mapStorageError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("property %d: %w", p.ID, domain.ErrNotFound)
	}
	return nil
}

func (s *pgTxStore) SoftDelete(ctx context.Context, id int64, at time.Time) error {
	tag, err := s.tx.Exec(ctx,
		`UPDATE properties SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`, id, at)
	if err != nil {
		return mapStorageError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("property %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *pgTxStore) AmenityIDs(ctx context.Context, propertyID int64) ([]int64, error) {
	rows, err := s.tx.Query(ctx,
		`SELECT amenity_id FROM property_amenity WHERE property_id = $1 ORDER BY amenity_id`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query amenity links: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("failed to scan amenity links: %w", err)
	}
	return ids, nil
}

func (s *pgTxStore) LinkAmenities(ctx context.Context, propertyID int64, amenityIDs []int64) error {
	if len(amenityIDs) == 0 {
		return nil
	}
	_, err := s.tx.Exec(ctx, `
		INSERT INTO property_amenity (property_id, amenity_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING`, propertyID, amenityIDs)
	return mapStorageError(err)
}

func (s *pgTxStore) UnlinkAmenities(ctx context.Context, propertyID int64, amenityIDs []int64) error {
	if len(amenityIDs) == 0 {
		return nil
	}
	_, err := s.tx.Exec(ctx,
		`DELETE FROM property_amenity WHERE property_id = $1 AND amenity_id = ANY($2)`, propertyID, amenityIDs)
	return mapStorageError(err)
}

func (s *pgTxStore) CountImages(ctx context.Context, propertyID int64) (int, error) {
	var count int
	if err := s.tx.QueryRow(ctx, `SELECT COUNT(*) FROM property_images WHERE property_id = $1`, propertyID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count images: %w", err)
	}
	return count, nil
}

func (s *pgTxStore) InsertImage(ctx context.Context, img *domain.PropertyImage) error {
	err := s.tx.QueryRow(ctx, `
		INSERT INTO property_images (property_id, image_path, thumbnail_path, "order", is_primary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		img.PropertyID, img.ImagePath, img.ThumbnailPath, img.Order, img.IsPrimary, img.CreatedAt,
	).Scan(&img.ID)
	if err != nil {
		return mapStorageError(err)
	}
	return nil
}

func (s *pgTxStore) Hydrate(ctx context.Context, id int64) (*domain.Property, error) {
	query := fmt.Sprintf("SELECT %s FROM properties p WHERE p.id = $1", propertyColumns)
	p, err := scanProperty(s.tx.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapStorageError(err)
	}
	items := []domain.Property{*p}
	if err := hydrate(ctx, s.tx, items, relations{amenities: true}); err != nil {
		return nil, err
	}
	return &items[0], nil
}
