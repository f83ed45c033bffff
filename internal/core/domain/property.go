package domain

import (
	"time"
)

// PropertyType - тип объекта аренды
type PropertyType string

const (
	TypeApartment PropertyType = "apartment"
	TypeHouse     PropertyType = "house"
	TypeStudio    PropertyType = "studio"
	TypeVilla     PropertyType = "villa"
)

// RentalPeriod - период аренды
type RentalPeriod string

const (
	RentalMonthly RentalPeriod = "monthly"
	RentalYearly  RentalPeriod = "yearly"
	RentalBoth    RentalPeriod = "both"
)

// Furnishing - меблированность
type Furnishing string

const (
	Furnished     Furnishing = "furnished"
	SemiFurnished Furnishing = "semi-furnished"
	Unfurnished   Furnishing = "unfurnished"
)

// PropertyStatus - статус модерации объявления
type PropertyStatus string

const (
	StatusPending  PropertyStatus = "pending"
	StatusApproved PropertyStatus = "approved"
	StatusRejected PropertyStatus = "rejected"
	StatusRented   PropertyStatus = "rented"
)

// UserRole - роль пользователя
type UserRole string

const (
	RoleOwner  UserRole = "owner"
	RoleRenter UserRole = "renter"
	RoleAdmin  UserRole = "admin"
)

func (t PropertyType) Valid() bool {
	switch t {
	case TypeApartment, TypeHouse, TypeStudio, TypeVilla:
		return true
	}
	return false
}

func (r RentalPeriod) Valid() bool {
	switch r {
	case RentalMonthly, RentalYearly, RentalBoth:
		return true
	}
	return false
}

func (f Furnishing) Valid() bool {
	switch f {
	case Furnished, SemiFurnished, Unfurnished:
		return true
	}
	return false
}

func (r UserRole) Valid() bool {
	switch r {
	case RoleOwner, RoleRenter, RoleAdmin:
		return true
	}
	return false
}

// Owner - владелец объявления (пользователь с ролью)
type Owner struct {
	ID    int64
	Name  string
	Email string
	Role  UserRole
}

// Property - центральная сущность: объявление об аренде.
type Property struct {
	ID          int64
	OwnerID     int64
	Title       string
	Slug        string
	Description string
	Type        PropertyType

	Price        Money
	YearlyPrice  *Money
	Deposit      *Money
	RentalPeriod RentalPeriod

	UtilitiesIncluded bool

	Address    string
	City       string
	District   *string
	PostalCode *string
	Latitude   *float64
	Longitude  *float64
	Geohash    *string

	Bedrooms    int
	Bathrooms   int
	Area        Money // сотые доли квадратного метра, та же арифметика что и у цены
	Floor       *int
	TotalFloors *int

	Furnishing    Furnishing
	Parking       bool
	ParkingSpaces int
	PetsAllowed   bool

	Status        PropertyStatus
	IsFeatured    bool
	FeaturedUntil *time.Time
	IsActive      bool

	MetaTitle       *string
	MetaDescription *string

	ViewsCount     int
	FavoritesCount int
	ReviewsCount   int
	AverageRating  Money

	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time

	// Гидратированные связи, заполняются адаптером чтения
	Owner     *Owner
	Images    []PropertyImage
	Amenities []Amenity
	Reviews   []Review
}

// IsDeleted - объект помечен как удаленный (soft delete)
func (p *Property) IsDeleted() bool {
	return p.DeletedAt != nil
}

// IsVisible - базовый предикат видимости для всех публичных выборок
func (p *Property) IsVisible() bool {
	return p.Status == StatusApproved && p.IsActive && p.DeletedAt == nil
}

// IsFeaturedAt - объект считается "featured" только пока featured_until в будущем.
// Истечение проверяется только при чтении, фоновой задачи нет.
func (p *Property) IsFeaturedAt(now time.Time) bool {
	return p.IsFeatured && p.FeaturedUntil != nil && p.FeaturedUntil.After(now)
}

// PrimaryImage возвращает основное изображение, либо первое по порядку
func (p *Property) PrimaryImage() *PropertyImage {
	for i := range p.Images {
		if p.Images[i].IsPrimary {
			return &p.Images[i]
		}
	}
	if len(p.Images) > 0 {
		return &p.Images[0]
	}
	return nil
}

// PropertyImage - изображение галереи объекта
type PropertyImage struct {
	ID            int64
	PropertyID    int64
	ImagePath     string
	ThumbnailPath string
	Order         int
	IsPrimary     bool
	CreatedAt     time.Time
}

// Amenity - элемент общего справочника удобств
type Amenity struct {
	ID   int64
	Name string
	Icon *string
}

// Review - отзыв арендатора. Ядро только читает отзывы.
type Review struct {
	ID               int64
	PropertyID       int64
	UserID           int64
	Rating           int
	Comment          string
	OwnerResponse    *string
	OwnerRespondedAt *time.Time
	IsVerifiedRenter bool
	IsApproved       bool
	CreatedAt        time.Time
}
