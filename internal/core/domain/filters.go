package domain

import (
	"time"
)

const (
	DefaultPerPage      = 15
	MaxPerPage          = 100
	DefaultFeaturedSize = 10
	DefaultSimilarSize  = 6
)

// SearchFilters - набор фильтров поиска. Пустые поля ничего не ограничивают,
// заданные применяются через AND.
type SearchFilters struct {
	City     string
	Type     PropertyType
	Bedrooms *int   // минимум спален, не точное совпадение
	MinPrice *Money // включительно
	MaxPrice *Money // включительно
	PerPage  int
	Page     int
}

// Normalize подставляет значения пагинации по умолчанию
func (f SearchFilters) Normalize() SearchFilters {
	if f.PerPage <= 0 {
		f.PerPage = DefaultPerPage
	}
	if f.PerPage > MaxPerPage {
		f.PerPage = MaxPerPage
	}
	if f.Page < 1 {
		f.Page = 1
	}
	return f
}

func (f SearchFilters) Offset() int {
	return (f.Page - 1) * f.PerPage
}

// Matches проверяет только пользовательские фильтры. Базовый предикат
// видимости (IsVisible) вызывающая сторона применяет явно.
func (f SearchFilters) Matches(p *Property) bool {
	if f.City != "" && p.City != f.City {
		return false
	}
	if f.Type != "" && p.Type != f.Type {
		return false
	}
	if f.Bedrooms != nil && p.Bedrooms < *f.Bedrooms {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	return true
}

// NewestFirst - порядок выдачи: created_at DESC, при равенстве id DESC
func NewestFirst(a, b *Property) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// Page - страница результатов с метаданными
type Page struct {
	Items    []Property
	Total    int
	Page     int
	PerPage  int
	LastPage int
}

func NewPage(items []Property, total, page, perPage int) *Page {
	lastPage := 1
	if perPage > 0 && total > 0 {
		lastPage = (total + perPage - 1) / perPage
	}
	if items == nil {
		items = []Property{}
	}
	return &Page{
		Items:    items,
		Total:    total,
		Page:     page,
		PerPage:  perPage,
		LastPage: lastPage,
	}
}

// SimilarQuery - параметры выборки похожих объектов: тот же город, кроме самого объекта
type SimilarQuery struct {
	PropertyID int64
	City       string
	Limit      int
}

// FeaturedQuery - выборка "featured" на момент Now
type FeaturedQuery struct {
	Now   time.Time
	Limit int
}
