package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveSlug(t *testing.T) {
	cases := map[string]string{
		"Cozy Flat in Minsk":       "cozy-flat-in-minsk",
		"  --Sea View!!  Villa-- ": "sea-view-villa",
		"Café Straße":              "cafe-strasse",
		"Квартира у метро":         "kvartira-u-metro",
		"2 rooms, 54 m²":           "2-rooms-54-m",
		"Łódź & Ørsted":            "lodz-orsted",
		"!!!":                      "",
		"":                         "",
		"Already-a-slug":           "already-a-slug",
		"Пераезд у Гародню, 3 пакоі": "peraezd-u-garodnyu-3-pakoi",
	}
	for in, want := range cases {
		assert.Equal(t, want, DeriveSlug(in), in)
	}
}

func TestDeriveSlug_ShortI(t *testing.T) {
	assert.Equal(t, "uyutnyy-dom", DeriveSlug("Уютный дом"))
	assert.Equal(t, "chayka", DeriveSlug("Чайка"))
	// й в разложенной форме: и + U+0306
	assert.Equal(t, "chayka", DeriveSlug("Чаи\u0306ка"))
	assert.Equal(t, "elka-i-uzlesak", DeriveSlug("Ёлка і Ўзлесак"))
}

func TestDeriveSlug_Deterministic(t *testing.T) {
	title := "Sunny Apartment / Old Town"
	assert.Equal(t, DeriveSlug(title), DeriveSlug(title))
	assert.Equal(t, "sunny-apartment-old-town", DeriveSlug(title))
}
