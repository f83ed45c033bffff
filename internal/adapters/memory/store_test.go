package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	require.NoError(t, s.AddOwner(domain.Owner{ID: 1, Name: "Owner", Role: domain.RoleOwner}))
	s.AddAmenity(domain.Amenity{ID: 1, Name: "Wi-Fi"})
	s.AddAmenity(domain.Amenity{ID: 2, Name: "Pool"})
	return s
}

func insert(t *testing.T, s *Store, slug string) int64 {
	t.Helper()
	p := &domain.Property{OwnerID: 1, Title: slug, Slug: slug, Status: domain.StatusApproved, IsActive: true, CreatedAt: time.Now()}
	err := s.WithinTransaction(context.Background(), func(ctx context.Context, store port.PropertyTxStore) error {
		return store.Insert(ctx, p)
	})
	require.NoError(t, err)
	return p.ID
}

func TestStore_AddOwnerRejectsUnknownRole(t *testing.T) {
	s := NewStore()
	err := s.AddOwner(domain.Owner{ID: 1, Role: "landlord"})
	assert.ErrorIs(t, err, domain.ErrValidationFailed)
}

func TestStore_RollbackDiscardsAllWrites(t *testing.T) {
	s := newTestStore(t)
	boom := errors.New("boom")

	err := s.WithinTransaction(context.Background(), func(ctx context.Context, store port.PropertyTxStore) error {
		p := &domain.Property{OwnerID: 1, Slug: "rolled-back"}
		require.NoError(t, store.Insert(ctx, p))
		require.NoError(t, store.LinkAmenities(ctx, p.ID, []int64{1, 2}))
		require.NoError(t, store.InsertImage(ctx, &domain.PropertyImage{PropertyID: p.ID, Order: 0, IsPrimary: true}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.FindByIDAdmin(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// ID из откаченной транзакции выдается снова
	assert.Equal(t, int64(1), insert(t, s, "committed"))
}

func TestStore_SlugUniqueAmongLiveRows(t *testing.T) {
	s := newTestStore(t)
	id := insert(t, s, "loft")

	err := s.WithinTransaction(context.Background(), func(ctx context.Context, store port.PropertyTxStore) error {
		return store.Insert(ctx, &domain.Property{OwnerID: 1, Slug: "loft"})
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateSlug)

	err = s.WithinTransaction(context.Background(), func(ctx context.Context, store port.PropertyTxStore) error {
		return store.SoftDelete(ctx, id, time.Now())
	})
	require.NoError(t, err)

	assert.NotEqual(t, id, insert(t, s, "loft"))
}

func TestStore_LiveRowOperationsOnDeleted(t *testing.T) {
	s := newTestStore(t)
	id := insert(t, s, "gone")

	err := s.WithinTransaction(context.Background(), func(ctx context.Context, store port.PropertyTxStore) error {
		return store.SoftDelete(ctx, id, time.Now())
	})
	require.NoError(t, err)

	err = s.WithinTransaction(context.Background(), func(ctx context.Context, store port.PropertyTxStore) error {
		_, err := store.GetLiveForUpdate(ctx, id)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = s.WithinTransaction(context.Background(), func(ctx context.Context, store port.PropertyTxStore) error {
		return store.SoftDelete(ctx, id, time.Now())
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_ImagesAndAmenities(t *testing.T) {
	s := newTestStore(t)
	id := insert(t, s, "gallery")

	err := s.WithinTransaction(context.Background(), func(ctx context.Context, store port.PropertyTxStore) error {
		require.NoError(t, store.InsertImage(ctx, &domain.PropertyImage{PropertyID: id, Order: 1}))
		require.NoError(t, store.InsertImage(ctx, &domain.PropertyImage{PropertyID: id, Order: 0, IsPrimary: true}))

		assert.Error(t, store.InsertImage(ctx, &domain.PropertyImage{PropertyID: id, Order: 1}), "order занят")
		assert.Error(t, store.InsertImage(ctx, &domain.PropertyImage{PropertyID: id, Order: 2, IsPrimary: true}), "второе основное")

		require.NoError(t, store.LinkAmenities(ctx, id, []int64{2, 1}))
		require.NoError(t, store.UnlinkAmenities(ctx, id, []int64{2}))
		ids, err := store.AmenityIDs(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []int64{1}, ids)

		count, err := store.CountImages(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
		return nil
	})
	require.NoError(t, err)

	p, err := s.FindBySlug(context.Background(), "gallery")
	require.NoError(t, err)
	require.Len(t, p.Images, 2)
	assert.Equal(t, 0, p.Images[0].Order)
	assert.True(t, p.PrimaryImage().IsPrimary)
	require.Len(t, p.Amenities, 1)
	assert.Equal(t, "Wi-Fi", p.Amenities[0].Name)
}

func TestStore_ReadersSeeOnlyCommittedState(t *testing.T) {
	s := newTestStore(t)
	started := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.WithinTransaction(context.Background(), func(ctx context.Context, store port.PropertyTxStore) error {
			if err := store.Insert(ctx, &domain.Property{OwnerID: 1, Slug: "in-flight", Status: domain.StatusApproved, IsActive: true}); err != nil {
				return err
			}
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	items, err := s.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items, "незакоммиченная строка не видна")

	close(release)
	wg.Wait()

	items, err = s.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestStore_WritersAreSerialized(t *testing.T) {
	s := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.WithinTransaction(context.Background(), func(ctx context.Context, store port.PropertyTxStore) error {
				return store.Insert(ctx, &domain.Property{OwnerID: 1, Slug: fmt.Sprintf("p-%d", i)})
			})
		}(i)
	}
	wg.Wait()

	owned, err := s.FindByOwner(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, owned, 20)
}

func TestStore_CancelledContext(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.WithinTransaction(ctx, func(ctx context.Context, store port.PropertyTxStore) error {
		t.Fatal("fn must not run")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = s.Search(ctx, domain.SearchFilters{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_SeedDuringTransactionIsNotLost(t *testing.T) {
	s := newTestStore(t)
	before := s.snapshot()

	inTx := make(chan struct{})
	release := make(chan struct{})
	txDone := make(chan error, 1)
	go func() {
		txDone <- s.WithinTransaction(context.Background(), func(ctx context.Context, store port.PropertyTxStore) error {
			close(inTx)
			<-release
			return store.Insert(ctx, &domain.Property{OwnerID: 1, Title: "tx", Slug: "from-tx", Status: domain.StatusApproved, IsActive: true, CreatedAt: time.Now()})
		})
	}()
	<-inTx

	seeded := make(chan int64, 1)
	go func() {
		seeded <- s.Seed(domain.Property{OwnerID: 1, Title: "seed", Slug: "from-seed", Status: domain.StatusApproved, IsActive: true, CreatedAt: time.Now()})
	}()

	select {
	case <-seeded:
		t.Fatal("seed must wait for the running transaction")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-txDone)
	seededID := <-seeded

	items, err := s.ListAll(context.Background())
	require.NoError(t, err)
	slugs := make([]string, 0, len(items))
	for _, p := range items {
		slugs = append(slugs, p.Slug)
	}
	assert.ElementsMatch(t, []string{"from-tx", "from-seed"}, slugs)

	_, err = s.FindByIDAdmin(context.Background(), seededID)
	assert.NoError(t, err)

	// старый снимок не изменился
	assert.Empty(t, before.properties)

	s.AddReview(domain.Review{PropertyID: seededID, Rating: 5, IsApproved: true})
	assert.Empty(t, before.reviews)
}
