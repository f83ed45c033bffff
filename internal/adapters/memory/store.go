package memory

import (
	"context"
	"fmt"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
	"sort"
	"sync"
	"time"
)

// state - полный снимок данных. Транзакция работает над копией и
// подменяет committed только при успешном завершении.
type state struct {
	nextPropertyID int64
	nextImageID    int64

	properties   map[int64]domain.Property
	images       map[int64][]domain.PropertyImage
	amenityLinks map[int64]map[int64]struct{}

	owners    map[int64]domain.Owner
	amenities map[int64]domain.Amenity
	reviews   map[int64][]domain.Review
}

func newState() *state {
	return &state{
		properties:   make(map[int64]domain.Property),
		images:       make(map[int64][]domain.PropertyImage),
		amenityLinks: make(map[int64]map[int64]struct{}),
		owners:       make(map[int64]domain.Owner),
		amenities:    make(map[int64]domain.Amenity),
		reviews:      make(map[int64][]domain.Review),
	}
}

func (s *state) clone() *state {
	c := &state{
		nextPropertyID: s.nextPropertyID,
		nextImageID:    s.nextImageID,
		properties:     make(map[int64]domain.Property, len(s.properties)),
		images:         make(map[int64][]domain.PropertyImage, len(s.images)),
		amenityLinks:   make(map[int64]map[int64]struct{}, len(s.amenityLinks)),
		owners:         s.owners,
		amenities:      s.amenities,
		reviews:        s.reviews,
	}
	for id, p := range s.properties {
		c.properties[id] = p
	}
	for id, imgs := range s.images {
		c.images[id] = append([]domain.PropertyImage(nil), imgs...)
	}
	for id, links := range s.amenityLinks {
		set := make(map[int64]struct{}, len(links))
		for a := range links {
			set[a] = struct{}{}
		}
		c.amenityLinks[id] = set
	}
	return c
}

// Store - транзакционное хранилище в памяти. Реализует PropertyQueryPort и TransactionManager.
// Пишущие транзакции выполняются строго по очереди.
type Store struct {
	mu        sync.RWMutex
	writeMu   sync.Mutex
	committed *state
}

func NewStore() *Store {
	return &Store{committed: newState()}
}

var (
	_ port.PropertyQueryPort  = (*Store)(nil)
	_ port.TransactionManager = (*Store)(nil)
)

// --- справочники и фикстуры ---

// commitDirect применяет изменение к копии committed и подменяет ее целиком,
// как это делает WithinTransaction. Читатели со старым снимком его не видят.
func (s *Store) commitDirect(apply func(st *state)) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	work := s.committed.clone()
	s.mu.RUnlock()

	apply(work)

	s.mu.Lock()
	s.committed = work
	s.mu.Unlock()
}

func (s *Store) AddOwner(o domain.Owner) error {
	if !o.Role.Valid() {
		return domain.NewValidationError("role", fmt.Sprintf("unknown role %q", o.Role))
	}
	s.commitDirect(func(st *state) {
		owners := make(map[int64]domain.Owner, len(st.owners)+1)
		for id, v := range st.owners {
			owners[id] = v
		}
		owners[o.ID] = o
		st.owners = owners
	})
	return nil
}

func (s *Store) AddAmenity(a domain.Amenity) {
	s.commitDirect(func(st *state) {
		amenities := make(map[int64]domain.Amenity, len(st.amenities)+1)
		for id, v := range st.amenities {
			amenities[id] = v
		}
		amenities[a.ID] = a
		st.amenities = amenities
	})
}

func (s *Store) AddReview(r domain.Review) {
	s.commitDirect(func(st *state) {
		reviews := make(map[int64][]domain.Review, len(st.reviews)+1)
		for id, v := range st.reviews {
			reviews[id] = v
		}
		reviews[r.PropertyID] = append(append([]domain.Review(nil), reviews[r.PropertyID]...), r)
		st.reviews = reviews
	})
}

// Seed кладет готовую строку как есть (статус, даты, флаги), минуя оркестратор.
// Если ID не задан, выдается следующий.
func (s *Store) Seed(p domain.Property) int64 {
	p.Owner, p.Images, p.Amenities, p.Reviews = nil, nil, nil, nil
	s.commitDirect(func(st *state) {
		if p.ID == 0 {
			st.nextPropertyID++
			p.ID = st.nextPropertyID
		} else if p.ID > st.nextPropertyID {
			st.nextPropertyID = p.ID
		}
		// clone уже скопировал карту properties
		st.properties[p.ID] = p
	})
	return p.ID
}

// --- транзакции ---

func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context, store port.PropertyTxStore) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	s.mu.RLock()
	work := s.committed.clone()
	s.mu.RUnlock()

	if err := fn(ctx, &txStore{st: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.mu.Lock()
	s.committed = work
	s.mu.Unlock()
	return nil
}

type txStore struct {
	st *state
}

var _ port.PropertyTxStore = (*txStore)(nil)

func (t *txStore) slugTaken(slug string, exceptID int64) bool {
	for id, p := range t.st.properties {
		if id != exceptID && p.DeletedAt == nil && p.Slug == slug {
			return true
		}
	}
	return false
}

func (t *txStore) Insert(ctx context.Context, p *domain.Property) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := t.st.owners[p.OwnerID]; !ok {
		return domain.NewValidationError("owner_id", fmt.Sprintf("owner %d does not exist", p.OwnerID))
	}
	if t.slugTaken(p.Slug, 0) {
		return fmt.Errorf("slug %q: %w", p.Slug, domain.ErrDuplicateSlug)
	}
	t.st.nextPropertyID++
	p.ID = t.st.nextPropertyID

	row := *p
	row.Owner, row.Images, row.Amenities, row.Reviews = nil, nil, nil, nil
	t.st.properties[p.ID] = row
	return nil
}

func (t *txStore) GetLiveForUpdate(ctx context.Context, id int64) (*domain.Property, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, ok := t.st.properties[id]
	if !ok || p.DeletedAt != nil {
		return nil, fmt.Errorf("property %d: %w", id, domain.ErrNotFound)
	}
	return &p, nil
}

func (t *txStore) Update(ctx context.Context, p *domain.Property) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	current, ok := t.st.properties[p.ID]
	if !ok || current.DeletedAt != nil {
		return fmt.Errorf("property %d: %w", p.ID, domain.ErrNotFound)
	}
	if t.slugTaken(p.Slug, p.ID) {
		return fmt.Errorf("slug %q: %w", p.Slug, domain.ErrDuplicateSlug)
	}
	row := *p
	row.Owner, row.Images, row.Amenities, row.Reviews = nil, nil, nil, nil
	t.st.properties[p.ID] = row
	return nil
}

func (t *txStore) SoftDelete(ctx context.Context, id int64, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, ok := t.st.properties[id]
	if !ok || p.DeletedAt != nil {
		return fmt.Errorf("property %d: %w", id, domain.ErrNotFound)
	}
	p.DeletedAt = &at
	p.UpdatedAt = at
	t.st.properties[id] = p
	return nil
}

func (t *txStore) AmenityIDs(ctx context.Context, propertyID int64) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(t.st.amenityLinks[propertyID]))
	for id := range t.st.amenityLinks[propertyID] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (t *txStore) LinkAmenities(ctx context.Context, propertyID int64, amenityIDs []int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	links := t.st.amenityLinks[propertyID]
	if links == nil {
		links = make(map[int64]struct{}, len(amenityIDs))
		t.st.amenityLinks[propertyID] = links
	}
	for _, id := range amenityIDs {
		if _, ok := t.st.amenities[id]; !ok {
			return domain.NewValidationError("amenities", fmt.Sprintf("amenity %d does not exist", id))
		}
		links[id] = struct{}{}
	}
	return nil
}

func (t *txStore) UnlinkAmenities(ctx context.Context, propertyID int64, amenityIDs []int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, id := range amenityIDs {
		delete(t.st.amenityLinks[propertyID], id)
	}
	return nil
}

func (t *txStore) CountImages(ctx context.Context, propertyID int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return len(t.st.images[propertyID]), nil
}

func (t *txStore) InsertImage(ctx context.Context, img *domain.PropertyImage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, existing := range t.st.images[img.PropertyID] {
		if existing.Order == img.Order {
			return fmt.Errorf("image order %d already used for property %d", img.Order, img.PropertyID)
		}
		if img.IsPrimary && existing.IsPrimary {
			return fmt.Errorf("property %d already has a primary image", img.PropertyID)
		}
	}
	t.st.nextImageID++
	img.ID = t.st.nextImageID
	t.st.images[img.PropertyID] = append(t.st.images[img.PropertyID], *img)
	return nil
}

func (t *txStore) Hydrate(ctx context.Context, id int64) (*domain.Property, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, ok := t.st.properties[id]
	if !ok {
		return nil, fmt.Errorf("property %d: %w", id, domain.ErrNotFound)
	}
	return t.st.hydrate(p, withAmenities), nil
}

// --- гидратация ---

type hydrateOption int

const (
	withImagesOnly hydrateOption = iota
	withAmenities
	withApprovedReviews
	withAllReviews
)

func (s *state) hydrate(p domain.Property, opt hydrateOption) *domain.Property {
	if owner, ok := s.owners[p.OwnerID]; ok {
		o := owner
		p.Owner = &o
	}

	imgs := append([]domain.PropertyImage(nil), s.images[p.ID]...)
	sort.Slice(imgs, func(i, j int) bool { return imgs[i].Order < imgs[j].Order })
	p.Images = imgs

	if opt >= withAmenities {
		ids := make([]int64, 0, len(s.amenityLinks[p.ID]))
		for id := range s.amenityLinks[p.ID] {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		amenities := make([]domain.Amenity, 0, len(ids))
		for _, id := range ids {
			amenities = append(amenities, s.amenities[id])
		}
		p.Amenities = amenities
	}

	switch opt {
	case withApprovedReviews:
		reviews := make([]domain.Review, 0)
		for _, r := range s.reviews[p.ID] {
			if r.IsApproved {
				reviews = append(reviews, r)
			}
		}
		p.Reviews = reviews
	case withAllReviews:
		p.Reviews = append([]domain.Review{}, s.reviews[p.ID]...)
	}

	return &p
}
