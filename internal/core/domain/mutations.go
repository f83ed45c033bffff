package domain

import (
	"time"
)

// RawImage - "сырое" изображение, которое ядро передает хранилищу файлов как есть
type RawImage struct {
	Filename    string
	ContentType string
	Data        []byte
}

// StoredImage - результат сохранения файла внешним хранилищем
type StoredImage struct {
	Path          string
	ThumbnailPath string
}

// CreatePropertyInput - уже провалидированный набор полей для создания объявления
type CreatePropertyInput struct {
	OwnerID     int64
	Title       string
	Slug        string // необязательный, иначе выводится из Title
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

	Bedrooms    int
	Bathrooms   int
	Area        Money
	Floor       *int
	TotalFloors *int

	Furnishing    Furnishing
	Parking       bool
	ParkingSpaces int
	PetsAllowed   bool

	IsFeatured    bool
	FeaturedUntil *time.Time
	IsActive      *bool // nil -> true

	MetaTitle       *string
	MetaDescription *string

	AmenityIDs []int64
	Images     []RawImage
}

// Nullable - поле частичного обновления, которое можно как задать, так и обнулить.
// Set=false - поле не трогаем; Set=true, Value=nil - записываем NULL.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

func SetTo[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}

func SetNull[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

// UpdatePropertyInput - частичное обновление: nil/незаданные поля не меняются
type UpdatePropertyInput struct {
	Title       *string
	Description *string
	Type        *PropertyType

	Price        *Money
	YearlyPrice  Nullable[Money]
	Deposit      Nullable[Money]
	RentalPeriod *RentalPeriod

	UtilitiesIncluded *bool

	Address    *string
	City       *string
	District   Nullable[string]
	PostalCode Nullable[string]
	Latitude   Nullable[float64]
	Longitude  Nullable[float64]

	Bedrooms    *int
	Bathrooms   *int
	Area        *Money
	Floor       Nullable[int]
	TotalFloors Nullable[int]

	Furnishing    *Furnishing
	Parking       *bool
	ParkingSpaces *int
	PetsAllowed   *bool

	IsFeatured    *bool
	FeaturedUntil Nullable[time.Time]
	IsActive      *bool

	MetaTitle       Nullable[string]
	MetaDescription Nullable[string]

	// nil - набор удобств не трогаем; не-nil (даже пустой) - полностью заменяем
	AmenityIDs *[]int64
	// Новые изображения добавляются после существующих
	Images []RawImage
}

// ChangeSet - что изменилось после слияния полей
type ChangeSet struct {
	TitleChanged    bool
	LocationChanged bool
	Fields          []string
}

// NewPropertyFromInput собирает строку Property из входных данных создания.
// Slug, статус и geohash проставляет оркестратор.
func NewPropertyFromInput(in CreatePropertyInput) *Property {
	isActive := true
	if in.IsActive != nil {
		isActive = *in.IsActive
	}
	rentalPeriod := in.RentalPeriod
	if rentalPeriod == "" {
		rentalPeriod = RentalMonthly
	}

	return &Property{
		OwnerID:           in.OwnerID,
		Title:             in.Title,
		Description:       in.Description,
		Type:              in.Type,
		Price:             in.Price,
		YearlyPrice:       in.YearlyPrice,
		Deposit:           in.Deposit,
		RentalPeriod:      rentalPeriod,
		UtilitiesIncluded: in.UtilitiesIncluded,
		Address:           in.Address,
		City:              in.City,
		District:          in.District,
		PostalCode:        in.PostalCode,
		Latitude:          in.Latitude,
		Longitude:         in.Longitude,
		Bedrooms:          in.Bedrooms,
		Bathrooms:         in.Bathrooms,
		Area:              in.Area,
		Floor:             in.Floor,
		TotalFloors:       in.TotalFloors,
		Furnishing:        in.Furnishing,
		Parking:           in.Parking,
		ParkingSpaces:     in.ParkingSpaces,
		PetsAllowed:       in.PetsAllowed,
		IsFeatured:        in.IsFeatured,
		FeaturedUntil:     in.FeaturedUntil,
		IsActive:          isActive,
		MetaTitle:         in.MetaTitle,
		MetaDescription:   in.MetaDescription,
	}
}

// ApplyTo сливает заданные поля в существующую строку (merge, не replace)
func (in UpdatePropertyInput) ApplyTo(p *Property) ChangeSet {
	var cs ChangeSet
	mark := func(name string) { cs.Fields = append(cs.Fields, name) }

	if in.Title != nil {
		if *in.Title != p.Title {
			cs.TitleChanged = true
		}
		p.Title = *in.Title
		mark("title")
	}
	if in.Description != nil {
		p.Description = *in.Description
		mark("description")
	}
	if in.Type != nil {
		p.Type = *in.Type
		mark("type")
	}
	if in.Price != nil {
		p.Price = *in.Price
		mark("price")
	}
	if in.YearlyPrice.Set {
		p.YearlyPrice = in.YearlyPrice.Value
		mark("yearly_price")
	}
	if in.Deposit.Set {
		p.Deposit = in.Deposit.Value
		mark("deposit")
	}
	if in.RentalPeriod != nil {
		p.RentalPeriod = *in.RentalPeriod
		mark("rental_period")
	}
	if in.UtilitiesIncluded != nil {
		p.UtilitiesIncluded = *in.UtilitiesIncluded
		mark("utilities_included")
	}
	if in.Address != nil {
		p.Address = *in.Address
		mark("address")
	}
	if in.City != nil {
		p.City = *in.City
		mark("city")
	}
	if in.District.Set {
		p.District = in.District.Value
		mark("district")
	}
	if in.PostalCode.Set {
		p.PostalCode = in.PostalCode.Value
		mark("postal_code")
	}
	if in.Latitude.Set {
		p.Latitude = in.Latitude.Value
		cs.LocationChanged = true
		mark("latitude")
	}
	if in.Longitude.Set {
		p.Longitude = in.Longitude.Value
		cs.LocationChanged = true
		mark("longitude")
	}
	if in.Bedrooms != nil {
		p.Bedrooms = *in.Bedrooms
		mark("bedrooms")
	}
	if in.Bathrooms != nil {
		p.Bathrooms = *in.Bathrooms
		mark("bathrooms")
	}
	if in.Area != nil {
		p.Area = *in.Area
		mark("area")
	}
	if in.Floor.Set {
		p.Floor = in.Floor.Value
		mark("floor")
	}
	if in.TotalFloors.Set {
		p.TotalFloors = in.TotalFloors.Value
		mark("total_floors")
	}
	if in.Furnishing != nil {
		p.Furnishing = *in.Furnishing
		mark("furnishing")
	}
	if in.Parking != nil {
		p.Parking = *in.Parking
		mark("parking")
	}
	if in.ParkingSpaces != nil {
		p.ParkingSpaces = *in.ParkingSpaces
		mark("parking_spaces")
	}
	if in.PetsAllowed != nil {
		p.PetsAllowed = *in.PetsAllowed
		mark("pets_allowed")
	}
	if in.IsFeatured != nil {
		p.IsFeatured = *in.IsFeatured
		mark("is_featured")
	}
	if in.FeaturedUntil.Set {
		p.FeaturedUntil = in.FeaturedUntil.Value
		mark("featured_until")
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
		mark("is_active")
	}
	if in.MetaTitle.Set {
		p.MetaTitle = in.MetaTitle.Value
		mark("meta_title")
	}
	if in.MetaDescription.Set {
		p.MetaDescription = in.MetaDescription.Value
		mark("meta_description")
	}

	return cs
}

// CheckInvariants - доменные инварианты, которые оркестратор проверяет перед записью
func (p *Property) CheckInvariants() error {
	if p.Slug == "" {
		return NewValidationError("slug", "title does not produce a usable slug")
	}
	if p.Price.IsNegative() {
		return NewValidationError("price", "must not be negative")
	}
	if p.YearlyPrice != nil && p.YearlyPrice.IsNegative() {
		return NewValidationError("yearly_price", "must not be negative")
	}
	if p.Deposit != nil && p.Deposit.IsNegative() {
		return NewValidationError("deposit", "must not be negative")
	}
	if p.Area.IsNegative() {
		return NewValidationError("area", "must not be negative")
	}
	return nil
}
