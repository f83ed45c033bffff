package postgres

import (
	"context"
	"errors"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pgclient "listing-service/pkg/postgres"
)

// setupTestDB поднимает пул на TEST_DATABASE_URL, без нее тест пропускается
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping PostgreSQL integration test")
	}

	ctx := context.Background()
	pool, err := pgclient.NewClient(ctx, pgclient.Config{DatabaseURL: dsn})
	if err != nil {
		t.Skipf("PostgreSQL not available: %v", err)
	}
	t.Cleanup(pool.Close)

	_, err = Migrate(ctx, pool)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `TRUNCATE reviews, property_images, property_amenity, properties, amenities, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `
		INSERT INTO users (id, name, email, role) VALUES (1, 'Owner', 'owner@example.com', 'owner');
		INSERT INTO amenities (id, name) VALUES (1, 'wifi'), (2, 'parking'), (3, 'pool');`)
	require.NoError(t, err)
	return pool
}

func newTestProperty(slug string, createdAt time.Time) *domain.Property {
	return &domain.Property{
		OwnerID:      1,
		Title:        slug,
		Slug:         slug,
		Type:         domain.TypeApartment,
		Price:        domain.NewMoney(1200, 50),
		RentalPeriod: domain.RentalMonthly,
		Address:      "Main st. 1",
		City:         "Minsk",
		Bedrooms:     2,
		Bathrooms:    1,
		Area:         domain.NewMoney(54, 30),
		Furnishing:   domain.Furnished,
		Status:       domain.StatusApproved,
		IsActive:     true,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
}

func TestPostgres_InsertSearchAndSoftDelete(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	txm, err := NewPostgresTransactionManager(pool)
	require.NoError(t, err)
	query, err := NewPostgresQueryAdapter(pool)
	require.NoError(t, err)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	var firstID int64
	err = txm.WithinTransaction(ctx, func(ctx context.Context, store port.PropertyTxStore) error {
		p := newTestProperty("flat-one", base)
		if err := store.Insert(ctx, p); err != nil {
			return err
		}
		firstID = p.ID
		if err := store.LinkAmenities(ctx, p.ID, []int64{1, 2}); err != nil {
			return err
		}
		if err := store.InsertImage(ctx, &domain.PropertyImage{
			PropertyID: p.ID, ImagePath: "properties/1/a.jpg", Order: 0, IsPrimary: true, CreatedAt: base,
		}); err != nil {
			return err
		}
		return store.Insert(ctx, newTestProperty("flat-two", base.Add(time.Hour)))
	})
	require.NoError(t, err)

	page, err := query.Search(ctx, domain.SearchFilters{City: "Minsk"})
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	assert.Equal(t, "flat-two", page.Items[0].Slug)
	assert.Equal(t, domain.NewMoney(1200, 50), page.Items[1].Price)
	require.Len(t, page.Items[1].Images, 1)
	require.NotNil(t, page.Items[1].Owner)

	detail, err := query.FindBySlug(ctx, "flat-one")
	require.NoError(t, err)
	assert.Len(t, detail.Amenities, 2)

	err = txm.WithinTransaction(ctx, func(ctx context.Context, store port.PropertyTxStore) error {
		return store.SoftDelete(ctx, firstID, base.Add(2*time.Hour))
	})
	require.NoError(t, err)

	_, err = query.FindBySlug(ctx, "flat-one")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	admin, err := query.FindByIDAdmin(ctx, firstID)
	require.NoError(t, err)
	assert.True(t, admin.IsDeleted())
}

func TestPostgres_DuplicateSlugRollsBack(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	txm, err := NewPostgresTransactionManager(pool)
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, txm.WithinTransaction(ctx, func(ctx context.Context, store port.PropertyTxStore) error {
		return store.Insert(ctx, newTestProperty("same-slug", now))
	}))

	err = txm.WithinTransaction(ctx, func(ctx context.Context, store port.PropertyTxStore) error {
		if err := store.Insert(ctx, newTestProperty("other-slug", now)); err != nil {
			return err
		}
		return store.Insert(ctx, newTestProperty("same-slug", now))
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDuplicateSlug))

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM properties`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestPostgres_UnknownAmenityIsValidationError(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	txm, err := NewPostgresTransactionManager(pool)
	require.NoError(t, err)

	err = txm.WithinTransaction(ctx, func(ctx context.Context, store port.PropertyTxStore) error {
		p := newTestProperty("with-bad-amenity", time.Now().UTC())
		if err := store.Insert(ctx, p); err != nil {
			return err
		}
		return store.LinkAmenities(ctx, p.ID, []int64{999})
	})
	assert.ErrorIs(t, err, domain.ErrValidationFailed)
}
