package postgres

import (
	"context"
	"errors"
	"fmt"
	"listing-service/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Денежные колонки читаются в копейках, чтобы не терять точность NUMERIC
const propertyColumns = `p.id, p.owner_id, p.title, p.slug, p.description, p.type,
	(p.price * 100)::bigint, (p.yearly_price * 100)::bigint, (p.deposit * 100)::bigint, p.rental_period,
	p.utilities_included, p.address, p.city, p.district, p.postal_code, p.latitude, p.longitude, p.geohash,
	p.bedrooms, p.bathrooms, (p.area * 100)::bigint, p.floor, p.total_floors,
	p.furnishing, p.parking, p.parking_spaces, p.pets_allowed,
	p.status, p.is_featured, p.featured_until, p.is_active, p.meta_title, p.meta_description,
	p.views_count, p.favorites_count, p.reviews_count, (p.average_rating * 100)::bigint,
	p.published_at, p.created_at, p.updated_at, p.deleted_at`

// querier - общее подмножество pgxpool.Pool и pgx.Tx
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func scanProperty(row pgx.Row) (*domain.Property, error) {
	var (
		p                    domain.Property
		price, area, rating  int64
		yearlyPrice, deposit *int64
		propertyType         string
		rentalPeriod         string
		furnishing, status   string
	)
	err := row.Scan(
		&p.ID, &p.OwnerID, &p.Title, &p.Slug, &p.Description, &propertyType,
		&price, &yearlyPrice, &deposit, &rentalPeriod,
		&p.UtilitiesIncluded, &p.Address, &p.City, &p.District, &p.PostalCode, &p.Latitude, &p.Longitude, &p.Geohash,
		&p.Bedrooms, &p.Bathrooms, &area, &p.Floor, &p.TotalFloors,
		&furnishing, &p.Parking, &p.ParkingSpaces, &p.PetsAllowed,
		&status, &p.IsFeatured, &p.FeaturedUntil, &p.IsActive, &p.MetaTitle, &p.MetaDescription,
		&p.ViewsCount, &p.FavoritesCount, &p.ReviewsCount, &rating,
		&p.PublishedAt, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Type = domain.PropertyType(propertyType)
	p.RentalPeriod = domain.RentalPeriod(rentalPeriod)
	p.Furnishing = domain.Furnishing(furnishing)
	p.Status = domain.PropertyStatus(status)
	p.Price = domain.Money(price)
	p.Area = domain.Money(area)
	p.AverageRating = domain.Money(rating)
	p.YearlyPrice = moneyPtr(yearlyPrice)
	p.Deposit = moneyPtr(deposit)
	return &p, nil
}

func scanProperties(rows pgx.Rows) ([]domain.Property, error) {
	defer rows.Close()
	items := make([]domain.Property, 0)
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func moneyPtr(cents *int64) *domain.Money {
	if cents == nil {
		return nil
	}
	m := domain.Money(*cents)
	return &m
}

func centsPtr(m *domain.Money) *int64 {
	if m == nil {
		return nil
	}
	c := m.Cents()
	return &c
}

// relations - какие связи догружать
type relations struct {
	amenities       bool
	reviews         bool
	approvedReviews bool
}

// hydrate догружает владельцев и изображения для списка, плюс опциональные связи
func hydrate(ctx context.Context, q querier, items []domain.Property, rel relations) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(items))
	ownerIDs := make([]int64, 0, len(items))
	index := make(map[int64]int, len(items))
	for i := range items {
		ids = append(ids, items[i].ID)
		ownerIDs = append(ownerIDs, items[i].OwnerID)
		index[items[i].ID] = i
		items[i].Images = []domain.PropertyImage{}
	}

	owners, err := loadOwners(ctx, q, ownerIDs)
	if err != nil {
		return err
	}
	for i := range items {
		if o, ok := owners[items[i].OwnerID]; ok {
			o := o
			items[i].Owner = &o
		}
	}

	rows, err := q.Query(ctx, `
		SELECT id, property_id, image_path, thumbnail_path, "order", is_primary, created_at
		FROM property_images
		WHERE property_id = ANY($1)
		ORDER BY property_id, "order"`, ids)
	if err != nil {
		return fmt.Errorf("failed to load images: %w", err)
	}
	for rows.Next() {
		var img domain.PropertyImage
		if err := rows.Scan(&img.ID, &img.PropertyID, &img.ImagePath, &img.ThumbnailPath, &img.Order, &img.IsPrimary, &img.CreatedAt); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan image: %w", err)
		}
		i := index[img.PropertyID]
		items[i].Images = append(items[i].Images, img)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if rel.amenities {
		if err := loadAmenities(ctx, q, items, ids, index); err != nil {
			return err
		}
	}
	if rel.reviews || rel.approvedReviews {
		if err := loadReviews(ctx, q, items, ids, index, rel.approvedReviews); err != nil {
			return err
		}
	}
	return nil
}

func loadOwners(ctx context.Context, q querier, ownerIDs []int64) (map[int64]domain.Owner, error) {
	rows, err := q.Query(ctx, `SELECT id, name, email, role FROM users WHERE id = ANY($1)`, ownerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load owners: %w", err)
	}
	defer rows.Close()

	owners := make(map[int64]domain.Owner)
	for rows.Next() {
		var (
			o    domain.Owner
			role string
		)
		if err := rows.Scan(&o.ID, &o.Name, &o.Email, &role); err != nil {
			return nil, fmt.Errorf("failed to scan owner: %w", err)
		}
		o.Role = domain.UserRole(role)
		owners[o.ID] = o
	}
	return owners, rows.Err()
}

func loadAmenities(ctx context.Context, q querier, items []domain.Property, ids []int64, index map[int64]int) error {
	for i := range items {
		items[i].Amenities = []domain.Amenity{}
	}
	rows, err := q.Query(ctx, `
		SELECT pa.property_id, a.id, a.name, a.icon
		FROM property_amenity pa
		JOIN amenities a ON a.id = pa.amenity_id
		WHERE pa.property_id = ANY($1)
		ORDER BY pa.property_id, a.id`, ids)
	if err != nil {
		return fmt.Errorf("failed to load amenities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			propertyID int64
			a          domain.Amenity
		)
		if err := rows.Scan(&propertyID, &a.ID, &a.Name, &a.Icon); err != nil {
			return fmt.Errorf("failed to scan amenity: %w", err)
		}
		i := index[propertyID]
		items[i].Amenities = append(items[i].Amenities, a)
	}
	return rows.Err()
}

func loadReviews(ctx context.Context, q querier, items []domain.Property, ids []int64, index map[int64]int, approvedOnly bool) error {
	for i := range items {
		items[i].Reviews = []domain.Review{}
	}
	query := `
		SELECT id, property_id, user_id, rating, comment, owner_response, owner_responded_at,
		       is_verified_renter, is_approved, created_at
		FROM reviews
		WHERE property_id = ANY($1)`
	if approvedOnly {
		query += " AND is_approved = true"
	}
	query += " ORDER BY property_id, created_at DESC, id DESC"

	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to load reviews: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r domain.Review
		if err := rows.Scan(&r.ID, &r.PropertyID, &r.UserID, &r.Rating, &r.Comment, &r.OwnerResponse,
			&r.OwnerRespondedAt, &r.IsVerifiedRenter, &r.IsApproved, &r.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan review: %w", err)
		}
		i := index[r.PropertyID]
		items[i].Reviews = append(items[i].Reviews, r)
	}
	return rows.Err()
}

// Имя частичного уникального индекса по slug из миграции
const slugIndexName = "properties_slug_live_idx"

// mapStorageError переводит ошибки драйвера в доменные
func mapStorageError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if pgErr.ConstraintName == slugIndexName {
				return fmt.Errorf("%w: %s", domain.ErrDuplicateSlug, pgErr.Detail)
			}
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: %w", domain.NewValidationError(pgErr.ConstraintName, "referenced row does not exist"), err)
		case "23514": // check_violation
			return fmt.Errorf("%w: %w", domain.NewValidationError(pgErr.ConstraintName, "check constraint failed"), err)
		}
	}
	return err
}
