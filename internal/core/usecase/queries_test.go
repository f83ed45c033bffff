package usecase

import (
	"context"
	"testing"
	"time"

	"listing-service/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchProperties_VisibilityFiltersAndOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seed("Old Minsk", "Minsk", domain.StatusApproved, 3*time.Hour)
	f.seed("New Minsk", "Minsk", domain.StatusApproved, time.Hour)
	f.seed("Pending Minsk", "Minsk", domain.StatusPending, time.Minute)
	f.seed("Rejected Minsk", "Minsk", domain.StatusRejected, time.Minute)
	f.seed("Brest flat", "Brest", domain.StatusApproved, time.Minute)
	f.store.Seed(domain.Property{
		OwnerID: 1, Title: "Inactive Minsk", Slug: "inactive-minsk", City: "Minsk",
		Status: domain.StatusApproved, IsActive: false, CreatedAt: f.clock.Now(),
	})

	page, err := NewSearchPropertiesUseCase(f.store).Execute(ctx, domain.SearchFilters{City: "Minsk"})
	require.NoError(t, err)

	assert.Equal(t, 2, page.Total)
	assert.Equal(t, domain.DefaultPerPage, page.PerPage)
	assert.Equal(t, 1, page.Page)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "New Minsk", page.Items[0].Title)
	assert.Equal(t, "Old Minsk", page.Items[1].Title)
}

func TestSearchProperties_PriceAndBedrooms(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i, price := range []int64{500, 1000, 1500, 2000} {
		f.store.Seed(domain.Property{
			OwnerID: 1, Title: "Flat", Slug: "flat-" + string(rune('a'+i)), City: "Minsk",
			Type: domain.TypeApartment, Bedrooms: i + 1, Price: domain.NewMoney(price, 0),
			Status: domain.StatusApproved, IsActive: true, CreatedAt: f.clock.Now().Add(time.Duration(i) * time.Minute),
		})
	}

	minPrice, maxPrice := domain.NewMoney(1000, 0), domain.NewMoney(2000, 0)
	page, err := NewSearchPropertiesUseCase(f.store).Execute(ctx, domain.SearchFilters{
		MinPrice: &minPrice,
		MaxPrice: &maxPrice,
		Bedrooms: ptr(3),
	})
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	assert.Equal(t, domain.NewMoney(2000, 0), page.Items[0].Price)
	assert.Equal(t, domain.NewMoney(1500, 0), page.Items[1].Price)

	// тип ничего не нашел - пустая страница, а не ошибка
	page, err = NewSearchPropertiesUseCase(f.store).Execute(ctx, domain.SearchFilters{Type: domain.TypeVilla})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
	assert.NotNil(t, page.Items)
	assert.Equal(t, 1, page.LastPage)
}

func TestListProperties_PaginateAndListAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		f.seed("Flat "+string(rune('A'+i)), "Minsk", domain.StatusApproved, time.Duration(i)*time.Minute)
	}
	f.seed("Hidden", "Minsk", domain.StatusPending, 0)

	uc := NewListPropertiesUseCase(f.store)

	page, err := uc.Paginate(ctx, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 3, page.LastPage)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Flat E", page.Items[0].Title)

	page, err = uc.Paginate(ctx, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	all, err := uc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)
	assert.Equal(t, "Flat A", all[0].Title)
}

func TestGetProperty_Views(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	visible := f.seed("Public flat", "Minsk", domain.StatusApproved, time.Hour)
	pending := f.seed("Pending flat", "Minsk", domain.StatusPending, time.Minute)
	f.store.AddReview(domain.Review{ID: 1, PropertyID: visible, Rating: 5, IsApproved: true})
	f.store.AddReview(domain.Review{ID: 2, PropertyID: visible, Rating: 1, IsApproved: false})

	uc := NewGetPropertyUseCase(f.store)

	card, err := uc.BySlug(ctx, "public-flat")
	require.NoError(t, err)
	require.Len(t, card.Reviews, 1)
	assert.Equal(t, int64(1), card.Reviews[0].ID)
	require.NotNil(t, card.Owner)
	assert.Equal(t, "Owner", card.Owner.Name)

	_, err = uc.BySlug(ctx, "pending-flat")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	admin, err := uc.ByIDAdmin(ctx, visible)
	require.NoError(t, err)
	assert.Len(t, admin.Reviews, 2)

	require.NoError(t, NewDeletePropertyUseCase(f.deps).Execute(ctx, pending))
	owned, err := uc.ByOwner(ctx, 1)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, visible, owned[0].ID)

	deleted, err := uc.ByIDAdmin(ctx, pending)
	require.NoError(t, err)
	assert.True(t, deleted.IsDeleted())

	_, err = uc.ByIDAdmin(ctx, 777)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetSimilar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ref := f.seed("Reference", "Minsk", domain.StatusApproved, time.Hour)
	for i := 0; i < 8; i++ {
		f.seed("Neighbour "+string(rune('A'+i)), "Minsk", domain.StatusApproved, time.Duration(i)*time.Minute)
	}
	f.seed("Far away", "Gomel", domain.StatusApproved, 0)
	f.seed("Not approved", "Minsk", domain.StatusPending, 0)

	property, err := f.store.FindByIDAdmin(ctx, ref)
	require.NoError(t, err)

	uc := NewGetSimilarUseCase(f.store)
	items, err := uc.Execute(ctx, property, 0)
	require.NoError(t, err)
	require.Len(t, items, domain.DefaultSimilarSize)
	for _, p := range items {
		assert.NotEqual(t, ref, p.ID)
		assert.Equal(t, "Minsk", p.City)
		assert.True(t, p.IsVisible())
	}
	assert.Equal(t, "Neighbour A", items[0].Title)

	items, err = uc.Execute(ctx, property, 2)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	_, err = uc.Execute(ctx, nil, 2)
	assert.ErrorIs(t, err, domain.ErrValidationFailed)
}

func seedFeatured(f *fixture, title string, until time.Time) int64 {
	return f.store.Seed(domain.Property{
		OwnerID: 1, Title: title, Slug: domain.DeriveSlug(title), City: "Minsk",
		Status: domain.StatusApproved, IsActive: true, IsFeatured: true, FeaturedUntil: &until,
		CreatedAt: f.clock.Now(),
	})
}

func TestGetFeatured_ExpiryAndCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := f.clock.Now()

	seedFeatured(f, "Long promo", now.Add(24*time.Hour))
	seedFeatured(f, "Short promo", now.Add(2*time.Minute))
	seedFeatured(f, "Expired promo", now.Add(-time.Minute))

	uc := NewGetFeaturedUseCase(f.store, f.cache, f.clock, 10*time.Minute)

	items, err := uc.Execute(ctx, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	// TTL кеша не переживает самый ранний featured_until
	assert.Equal(t, 2*time.Minute, f.cache.lastTTL)

	// через 3 минуты закешированный "Short promo" уже истек и отфильтрован
	f.clock.Advance(3 * time.Minute)
	items, err = uc.Execute(ctx, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "long-promo", items[0].Slug)
}

func TestGetFeatured_CacheErrorFallsBackToStorage(t *testing.T) {
	f := newFixture(t)
	seedFeatured(f, "Promo", f.clock.Now().Add(time.Hour))
	f.cache.getErr = errBrokerDown

	items, err := NewGetFeaturedUseCase(f.store, f.cache, f.clock, time.Minute).Execute(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestGetFeatured_MutationInvalidatesCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedFeatured(f, "Promo", f.clock.Now().Add(time.Hour))

	featured := NewGetFeaturedUseCase(f.store, f.cache, f.clock, time.Minute)
	_, err := featured.Execute(ctx, 10)
	require.NoError(t, err)
	require.Contains(t, f.cache.entries, 10)

	_, err = NewCreatePropertyUseCase(f.deps).Execute(ctx, createInput("Fresh listing"))
	require.NoError(t, err)
	assert.NotContains(t, f.cache.entries, 10)
}

func TestFeaturedCacheTTL(t *testing.T) {
	now := time.Now()
	soon := now.Add(30 * time.Second)
	items := []domain.Property{{FeaturedUntil: nil}, {FeaturedUntil: &soon}}

	assert.Equal(t, 30*time.Second, featuredCacheTTL(items, now, time.Minute))
	assert.Equal(t, time.Minute, featuredCacheTTL(nil, now, time.Minute))
}
