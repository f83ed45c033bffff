package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"listing-service/internal/adapters/memory"
	"listing-service/internal/core/domain"

	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeImageStorage хранит "файлы" в map. failAt >= 0 - номер вызова Store, который вернет ошибку.
type fakeImageStorage struct {
	mu      sync.Mutex
	calls   int
	failAt  int
	block   bool
	files   map[string]bool
	deleted []string
}

func newFakeImageStorage() *fakeImageStorage {
	return &fakeImageStorage{failAt: -1, files: make(map[string]bool)}
}

func (s *fakeImageStorage) Store(ctx context.Context, propertyID int64, image domain.RawImage) (domain.StoredImage, error) {
	if s.block {
		<-ctx.Done()
		return domain.StoredImage{}, ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	call := s.calls
	s.calls++
	if call == s.failAt {
		return domain.StoredImage{}, domain.NewValidationError("images", "unsupported image format")
	}
	path := fmt.Sprintf("properties/%d/%d-%s", propertyID, call, image.Filename)
	stored := domain.StoredImage{Path: path, ThumbnailPath: path + ".thumb"}
	s.files[path] = true
	return stored, nil
}

func (s *fakeImageStorage) Delete(ctx context.Context, image domain.StoredImage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, image.Path)
	s.deleted = append(s.deleted, image.Path)
	return nil
}

func (s *fakeImageStorage) fileCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

type fakeEvents struct {
	mu     sync.Mutex
	events []domain.PropertyEvent
	err    error
}

func (f *fakeEvents) PublishPropertyEvent(ctx context.Context, event domain.PropertyEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeEvents) published() []domain.PropertyEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.PropertyEvent(nil), f.events...)
}

type fakeCache struct {
	mu            sync.Mutex
	entries       map[int][]domain.Property
	lastTTL       time.Duration
	invalidations int
	getErr        error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[int][]domain.Property)}
}

func (c *fakeCache) GetFeatured(ctx context.Context, limit int) ([]domain.Property, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	items, ok := c.entries[limit]
	return items, ok, nil
}

func (c *fakeCache) SetFeatured(ctx context.Context, limit int, items []domain.Property, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[limit] = items
	c.lastTTL = ttl
	return nil
}

func (c *fakeCache) InvalidateFeatured(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[int][]domain.Property)
	c.invalidations++
	return nil
}

var errBrokerDown = errors.New("broker is down")

type fixture struct {
	store  *memory.Store
	images *fakeImageStorage
	events *fakeEvents
	cache  *fakeCache
	clock  *testClock
	deps   MutationDeps
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.AddOwner(domain.Owner{ID: 1, Name: "Owner", Role: domain.RoleOwner}))
	require.NoError(t, store.AddOwner(domain.Owner{ID: 2, Name: "Renter", Role: domain.RoleRenter}))
	for id, name := range map[int64]string{1: "Wi-Fi", 2: "Parking", 3: "Pool"} {
		store.AddAmenity(domain.Amenity{ID: id, Name: name})
	}

	f := &fixture{
		store:  store,
		images: newFakeImageStorage(),
		events: &fakeEvents{},
		cache:  newFakeCache(),
		clock:  &testClock{now: time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)},
	}
	f.deps = MutationDeps{
		Tx:      store,
		Images:  f.images,
		Events:  f.events,
		Cache:   f.cache,
		Clock:   f.clock,
		Timeout: time.Second,
	}
	return f
}

func (f *fixture) seed(title, city string, status domain.PropertyStatus, createdAgo time.Duration) int64 {
	now := f.clock.Now()
	return f.store.Seed(domain.Property{
		OwnerID:    1,
		Title:      title,
		Slug:       domain.DeriveSlug(title),
		Type:       domain.TypeApartment,
		Price:      domain.NewMoney(1000, 0),
		City:       city,
		Bedrooms:   2,
		Furnishing: domain.Furnished,
		Status:     status,
		IsActive:   true,
		CreatedAt:  now.Add(-createdAgo),
		UpdatedAt:  now.Add(-createdAgo),
	})
}

func createInput(title string) domain.CreatePropertyInput {
	return domain.CreatePropertyInput{
		OwnerID:    1,
		Title:      title,
		Type:       domain.TypeApartment,
		Price:      domain.NewMoney(1500, 50),
		Address:    "Main st. 1",
		City:       "Minsk",
		Bedrooms:   2,
		Bathrooms:  1,
		Area:       domain.NewMoney(54, 30),
		Furnishing: domain.Furnished,
	}
}

func rawImages(names ...string) []domain.RawImage {
	out := make([]domain.RawImage, 0, len(names))
	for _, n := range names {
		out = append(out, domain.RawImage{Filename: n, Data: []byte(n)})
	}
	return out
}

func ptr[T any](v T) *T { return &v }
