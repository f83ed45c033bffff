package memory

import (
	"context"
	"fmt"
	"listing-service/internal/core/domain"
	"sort"
)

// selectVisible - выборка с явно примененным базовым предикатом и порядком newest-first
func (s *state) selectVisible(match func(p *domain.Property) bool) []domain.Property {
	out := make([]domain.Property, 0)
	for _, p := range s.properties {
		p := p
		if !p.IsVisible() {
			continue
		}
		if match != nil && !match(&p) {
			continue
		}
		out = append(out, p)
	}
	sortNewestFirst(out)
	return out
}

func sortNewestFirst(items []domain.Property) {
	sort.Slice(items, func(i, j int) bool { return domain.NewestFirst(&items[i], &items[j]) })
}

func (s *state) hydrateAll(items []domain.Property) []domain.Property {
	for i := range items {
		items[i] = *s.hydrate(items[i], withImagesOnly)
	}
	return items
}

func (s *Store) snapshot() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.committed
}

func (s *Store) Search(ctx context.Context, filters domain.SearchFilters) (*domain.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	filters = filters.Normalize()
	st := s.snapshot()

	all := st.selectVisible(filters.Matches)
	total := len(all)

	start := filters.Offset()
	if start > total {
		start = total
	}
	end := start + filters.PerPage
	if end > total {
		end = total
	}

	return domain.NewPage(st.hydrateAll(all[start:end]), total, filters.Page, filters.PerPage), nil
}

func (s *Store) ListAll(ctx context.Context) ([]domain.Property, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st := s.snapshot()
	return st.hydrateAll(st.selectVisible(nil)), nil
}

func (s *Store) Featured(ctx context.Context, q domain.FeaturedQuery) ([]domain.Property, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st := s.snapshot()
	items := st.selectVisible(func(p *domain.Property) bool { return p.IsFeaturedAt(q.Now) })
	return st.hydrateAll(limit(items, q.Limit)), nil
}

func (s *Store) Similar(ctx context.Context, q domain.SimilarQuery) ([]domain.Property, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st := s.snapshot()
	items := st.selectVisible(func(p *domain.Property) bool {
		return p.ID != q.PropertyID && p.City == q.City
	})
	return st.hydrateAll(limit(items, q.Limit)), nil
}

func (s *Store) FindBySlug(ctx context.Context, slug string) (*domain.Property, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st := s.snapshot()
	for _, p := range st.properties {
		if p.Slug == slug && p.IsVisible() {
			return st.hydrate(p, withApprovedReviews), nil
		}
	}
	return nil, fmt.Errorf("property with slug %q: %w", slug, domain.ErrNotFound)
}

func (s *Store) FindByOwner(ctx context.Context, ownerID int64) ([]domain.Property, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st := s.snapshot()
	out := make([]domain.Property, 0)
	for _, p := range st.properties {
		if p.OwnerID == ownerID && p.DeletedAt == nil {
			out = append(out, p)
		}
	}
	sortNewestFirst(out)
	return st.hydrateAll(out), nil
}

func (s *Store) FindByIDAdmin(ctx context.Context, id int64) (*domain.Property, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st := s.snapshot()
	p, ok := st.properties[id]
	if !ok {
		return nil, fmt.Errorf("property %d: %w", id, domain.ErrNotFound)
	}
	return st.hydrate(p, withAllReviews), nil
}

func limit(items []domain.Property, n int) []domain.Property {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
