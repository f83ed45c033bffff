package rest

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"listing-service/internal/core/domain"
	"time"
)

// ErrorResponse - тело ответа с ошибкой
type ErrorResponse struct {
	Error  string `json:"error"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// --- ответы ---

type OwnerResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type ImageResponse struct {
	ID            int64  `json:"id"`
	ImagePath     string `json:"image_path"`
	ThumbnailPath string `json:"thumbnail_path"`
	Order         int    `json:"order"`
	IsPrimary     bool   `json:"is_primary"`
}

type AmenityResponse struct {
	ID   int64   `json:"id"`
	Name string  `json:"name"`
	Icon *string `json:"icon,omitempty"`
}

type ReviewResponse struct {
	ID               int64      `json:"id"`
	UserID           int64      `json:"user_id"`
	Rating           int        `json:"rating"`
	Comment          string     `json:"comment"`
	OwnerResponse    *string    `json:"owner_response,omitempty"`
	OwnerRespondedAt *time.Time `json:"owner_responded_at,omitempty"`
	IsVerifiedRenter bool       `json:"is_verified_renter"`
	IsApproved       bool       `json:"is_approved"`
	CreatedAt        time.Time  `json:"created_at"`
}

// PropertyResponse - объявление в том виде, в котором его видит клиент.
// Денежные суммы сериализуются строкой с двумя знаками.
type PropertyResponse struct {
	ID                int64                 `json:"id"`
	OwnerID           int64                 `json:"owner_id"`
	Title             string                `json:"title"`
	Slug              string                `json:"slug"`
	Description       string                `json:"description"`
	Type              domain.PropertyType   `json:"type"`
	Price             domain.Money          `json:"price"`
	YearlyPrice       *domain.Money         `json:"yearly_price"`
	Deposit           *domain.Money         `json:"deposit"`
	RentalPeriod      domain.RentalPeriod   `json:"rental_period"`
	UtilitiesIncluded bool                  `json:"utilities_included"`
	Address           string                `json:"address"`
	City              string                `json:"city"`
	District          *string               `json:"district"`
	PostalCode        *string               `json:"postal_code"`
	Latitude          *float64              `json:"latitude"`
	Longitude         *float64              `json:"longitude"`
	Geohash           *string               `json:"geohash"`
	Bedrooms          int                   `json:"bedrooms"`
	Bathrooms         int                   `json:"bathrooms"`
	Area              domain.Money          `json:"area"`
	Floor             *int                  `json:"floor"`
	TotalFloors       *int                  `json:"total_floors"`
	Furnishing        domain.Furnishing     `json:"furnishing"`
	Parking           bool                  `json:"parking"`
	ParkingSpaces     int                   `json:"parking_spaces"`
	PetsAllowed       bool                  `json:"pets_allowed"`
	Status            domain.PropertyStatus `json:"status"`
	IsFeatured        bool                  `json:"is_featured"`
	FeaturedUntil     *time.Time            `json:"featured_until"`
	IsActive          bool                  `json:"is_active"`
	MetaTitle         *string               `json:"meta_title"`
	MetaDescription   *string               `json:"meta_description"`
	ViewsCount        int                   `json:"views_count"`
	FavoritesCount    int                   `json:"favorites_count"`
	ReviewsCount      int                   `json:"reviews_count"`
	AverageRating     domain.Money          `json:"average_rating"`
	PublishedAt       *time.Time            `json:"published_at"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
	DeletedAt         *time.Time            `json:"deleted_at,omitempty"`

	Owner        *OwnerResponse    `json:"owner,omitempty"`
	PrimaryImage *ImageResponse    `json:"primary_image,omitempty"`
	Images       []ImageResponse   `json:"images"`
	Amenities    []AmenityResponse `json:"amenities,omitempty"`
	Reviews      []ReviewResponse  `json:"reviews,omitempty"`
}

type PageResponse struct {
	Data     []PropertyResponse `json:"data"`
	Total    int                `json:"total"`
	Page     int                `json:"page"`
	PerPage  int                `json:"per_page"`
	LastPage int                `json:"last_page"`
}

type ListResponse struct {
	Data []PropertyResponse `json:"data"`
}

func toImageResponse(img domain.PropertyImage) ImageResponse {
	return ImageResponse{
		ID:            img.ID,
		ImagePath:     img.ImagePath,
		ThumbnailPath: img.ThumbnailPath,
		Order:         img.Order,
		IsPrimary:     img.IsPrimary,
	}
}

func toPropertyResponse(p *domain.Property) PropertyResponse {
	resp := PropertyResponse{
		ID:                p.ID,
		OwnerID:           p.OwnerID,
		Title:             p.Title,
		Slug:              p.Slug,
		Description:       p.Description,
		Type:              p.Type,
		Price:             p.Price,
		YearlyPrice:       p.YearlyPrice,
		Deposit:           p.Deposit,
		RentalPeriod:      p.RentalPeriod,
		UtilitiesIncluded: p.UtilitiesIncluded,
		Address:           p.Address,
		City:              p.City,
		District:          p.District,
		PostalCode:        p.PostalCode,
		Latitude:          p.Latitude,
		Longitude:         p.Longitude,
		Geohash:           p.Geohash,
		Bedrooms:          p.Bedrooms,
		Bathrooms:         p.Bathrooms,
		Area:              p.Area,
		Floor:             p.Floor,
		TotalFloors:       p.TotalFloors,
		Furnishing:        p.Furnishing,
		Parking:           p.Parking,
		ParkingSpaces:     p.ParkingSpaces,
		PetsAllowed:       p.PetsAllowed,
		Status:            p.Status,
		IsFeatured:        p.IsFeatured,
		FeaturedUntil:     p.FeaturedUntil,
		IsActive:          p.IsActive,
		MetaTitle:         p.MetaTitle,
		MetaDescription:   p.MetaDescription,
		ViewsCount:        p.ViewsCount,
		FavoritesCount:    p.FavoritesCount,
		ReviewsCount:      p.ReviewsCount,
		AverageRating:     p.AverageRating,
		PublishedAt:       p.PublishedAt,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
		DeletedAt:         p.DeletedAt,
		Images:            make([]ImageResponse, 0, len(p.Images)),
	}

	if p.Owner != nil {
		resp.Owner = &OwnerResponse{ID: p.Owner.ID, Name: p.Owner.Name}
	}
	if primary := p.PrimaryImage(); primary != nil {
		img := toImageResponse(*primary)
		resp.PrimaryImage = &img
	}
	for _, img := range p.Images {
		resp.Images = append(resp.Images, toImageResponse(img))
	}
	for _, a := range p.Amenities {
		resp.Amenities = append(resp.Amenities, AmenityResponse{ID: a.ID, Name: a.Name, Icon: a.Icon})
	}
	for _, r := range p.Reviews {
		resp.Reviews = append(resp.Reviews, ReviewResponse{
			ID:               r.ID,
			UserID:           r.UserID,
			Rating:           r.Rating,
			Comment:          r.Comment,
			OwnerResponse:    r.OwnerResponse,
			OwnerRespondedAt: r.OwnerRespondedAt,
			IsVerifiedRenter: r.IsVerifiedRenter,
			IsApproved:       r.IsApproved,
			CreatedAt:        r.CreatedAt,
		})
	}
	return resp
}

func toListResponse(items []domain.Property) ListResponse {
	data := make([]PropertyResponse, 0, len(items))
	for i := range items {
		data = append(data, toPropertyResponse(&items[i]))
	}
	return ListResponse{Data: data}
}

func toPageResponse(page *domain.Page) PageResponse {
	return PageResponse{
		Data:     toListResponse(page.Items).Data,
		Total:    page.Total,
		Page:     page.Page,
		PerPage:  page.PerPage,
		LastPage: page.LastPage,
	}
}

// --- запросы ---

// ImagePayload - файл изображения внутри JSON, data в base64
type ImagePayload struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        string `json:"data"`
}

func decodeImages(payloads []ImagePayload) ([]domain.RawImage, error) {
	images := make([]domain.RawImage, 0, len(payloads))
	for i, p := range payloads {
		data, err := base64.StdEncoding.DecodeString(p.Data)
		if err != nil {
			return nil, domain.NewValidationError(fmt.Sprintf("images.%d.data", i), "must be base64 encoded")
		}
		images = append(images, domain.RawImage{
			Filename:    p.Filename,
			ContentType: p.ContentType,
			Data:        data,
		})
	}
	return images, nil
}

// CreatePropertyRequest - тело POST /properties (уже прошедшее JSON Schema)
type CreatePropertyRequest struct {
	OwnerID           int64               `json:"owner_id"`
	Title             string              `json:"title"`
	Slug              string              `json:"slug"`
	Description       string              `json:"description"`
	Type              domain.PropertyType `json:"type"`
	Price             domain.Money        `json:"price"`
	YearlyPrice       *domain.Money       `json:"yearly_price"`
	Deposit           *domain.Money       `json:"deposit"`
	RentalPeriod      domain.RentalPeriod `json:"rental_period"`
	UtilitiesIncluded bool                `json:"utilities_included"`
	Address           string              `json:"address"`
	City              string              `json:"city"`
	District          *string             `json:"district"`
	PostalCode        *string             `json:"postal_code"`
	Latitude          *float64            `json:"latitude"`
	Longitude         *float64            `json:"longitude"`
	Bedrooms          int                 `json:"bedrooms"`
	Bathrooms         int                 `json:"bathrooms"`
	Area              domain.Money        `json:"area"`
	Floor             *int                `json:"floor"`
	TotalFloors       *int                `json:"total_floors"`
	Furnishing        domain.Furnishing   `json:"furnishing"`
	Parking           bool                `json:"parking"`
	ParkingSpaces     int                 `json:"parking_spaces"`
	PetsAllowed       bool                `json:"pets_allowed"`
	IsFeatured        bool                `json:"is_featured"`
	FeaturedUntil     *time.Time          `json:"featured_until"`
	IsActive          *bool               `json:"is_active"`
	MetaTitle         *string             `json:"meta_title"`
	MetaDescription   *string             `json:"meta_description"`
	Amenities         []int64             `json:"amenities"`
	Images            []ImagePayload      `json:"images"`
}

func (r CreatePropertyRequest) toInput() (domain.CreatePropertyInput, error) {
	images, err := decodeImages(r.Images)
	if err != nil {
		return domain.CreatePropertyInput{}, err
	}
	return domain.CreatePropertyInput{
		OwnerID:           r.OwnerID,
		Title:             r.Title,
		Slug:              r.Slug,
		Description:       r.Description,
		Type:              r.Type,
		Price:             r.Price,
		YearlyPrice:       r.YearlyPrice,
		Deposit:           r.Deposit,
		RentalPeriod:      r.RentalPeriod,
		UtilitiesIncluded: r.UtilitiesIncluded,
		Address:           r.Address,
		City:              r.City,
		District:          r.District,
		PostalCode:        r.PostalCode,
		Latitude:          r.Latitude,
		Longitude:         r.Longitude,
		Bedrooms:          r.Bedrooms,
		Bathrooms:         r.Bathrooms,
		Area:              r.Area,
		Floor:             r.Floor,
		TotalFloors:       r.TotalFloors,
		Furnishing:        r.Furnishing,
		Parking:           r.Parking,
		ParkingSpaces:     r.ParkingSpaces,
		PetsAllowed:       r.PetsAllowed,
		IsFeatured:        r.IsFeatured,
		FeaturedUntil:     r.FeaturedUntil,
		IsActive:          r.IsActive,
		MetaTitle:         r.MetaTitle,
		MetaDescription:   r.MetaDescription,
		AmenityIDs:        r.Amenities,
		Images:            images,
	}, nil
}

// updatePatch - тело PATCH как набор сырых полей: важно отличать
// отсутствующее поле от явного null
type updatePatch map[string]json.RawMessage

func isJSONNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}

// setField: присутствующее не-null поле декодируется в *dst
func setField[T any](p updatePatch, key string, dst **T) error {
	raw, ok := p[key]
	if !ok || isJSONNull(raw) {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return domain.NewValidationError(key, err.Error())
	}
	*dst = &v
	return nil
}

// nullableField: null - обнулить, значение - задать, отсутствие - не трогать
func nullableField[T any](p updatePatch, key string, dst *domain.Nullable[T]) error {
	raw, ok := p[key]
	if !ok {
		return nil
	}
	if isJSONNull(raw) {
		*dst = domain.SetNull[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return domain.NewValidationError(key, err.Error())
	}
	*dst = domain.SetTo(v)
	return nil
}

func (p updatePatch) toInput() (domain.UpdatePropertyInput, error) {
	var in domain.UpdatePropertyInput

	steps := []func() error{
		func() error { return setField(p, "title", &in.Title) },
		func() error { return setField(p, "description", &in.Description) },
		func() error { return setField(p, "type", &in.Type) },
		func() error { return setField(p, "price", &in.Price) },
		func() error { return nullableField(p, "yearly_price", &in.YearlyPrice) },
		func() error { return nullableField(p, "deposit", &in.Deposit) },
		func() error { return setField(p, "rental_period", &in.RentalPeriod) },
		func() error { return setField(p, "utilities_included", &in.UtilitiesIncluded) },
		func() error { return setField(p, "address", &in.Address) },
		func() error { return setField(p, "city", &in.City) },
		func() error { return nullableField(p, "district", &in.District) },
		func() error { return nullableField(p, "postal_code", &in.PostalCode) },
		func() error { return nullableField(p, "latitude", &in.Latitude) },
		func() error { return nullableField(p, "longitude", &in.Longitude) },
		func() error { return setField(p, "bedrooms", &in.Bedrooms) },
		func() error { return setField(p, "bathrooms", &in.Bathrooms) },
		func() error { return setField(p, "area", &in.Area) },
		func() error { return nullableField(p, "floor", &in.Floor) },
		func() error { return nullableField(p, "total_floors", &in.TotalFloors) },
		func() error { return setField(p, "furnishing", &in.Furnishing) },
		func() error { return setField(p, "parking", &in.Parking) },
		func() error { return setField(p, "parking_spaces", &in.ParkingSpaces) },
		func() error { return setField(p, "pets_allowed", &in.PetsAllowed) },
		func() error { return setField(p, "is_featured", &in.IsFeatured) },
		func() error { return nullableField(p, "featured_until", &in.FeaturedUntil) },
		func() error { return setField(p, "is_active", &in.IsActive) },
		func() error { return nullableField(p, "meta_title", &in.MetaTitle) },
		func() error { return nullableField(p, "meta_description", &in.MetaDescription) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return domain.UpdatePropertyInput{}, err
		}
	}

	// Присутствие ключа amenities означает полную замену набора, даже пустым списком
	if raw, ok := p["amenities"]; ok {
		ids := []int64{}
		if !isJSONNull(raw) {
			if err := json.Unmarshal(raw, &ids); err != nil {
				return domain.UpdatePropertyInput{}, domain.NewValidationError("amenities", err.Error())
			}
		}
		in.AmenityIDs = &ids
	}

	if raw, ok := p["images"]; ok && !isJSONNull(raw) {
		var payloads []ImagePayload
		if err := json.Unmarshal(raw, &payloads); err != nil {
			return domain.UpdatePropertyInput{}, domain.NewValidationError("images", err.Error())
		}
		images, err := decodeImages(payloads)
		if err != nil {
			return domain.UpdatePropertyInput{}, err
		}
		in.Images = images
	}

	return in, nil
}
