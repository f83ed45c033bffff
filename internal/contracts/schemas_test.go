package contracts

import (
	"encoding/json"
	"listing-service/internal/core/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemasCompiled(t *testing.T) {
	require.NoError(t, loadErr)
	for _, key := range []string{
		"CreatePropertyRequest/1.0.0",
		"UpdatePropertyRequest/1.0.0",
		"SearchPropertiesRequest/1.0.0",
		"PropertyLifecycleEvent/1.0.0",
	} {
		assert.Contains(t, compiledSchemas, key)
	}
}

func TestGenerateKeyFromPath(t *testing.T) {
	assert.Equal(t, "CreatePropertyRequest/1.0.0", generateKeyFromPath("requests/create-property/v1.json"))
	assert.Equal(t, "PropertyLifecycleEvent/2.0.0", generateKeyFromPath("events/property-lifecycle/v2.json"))
	assert.Equal(t, "", generateKeyFromPath("requests/common.json"))
}

const validCreate = `{
	"owner_id": 1,
	"title": "Sunny flat near the park",
	"type": "apartment",
	"price": "1500.00",
	"deposit": null,
	"address": "Lenina 1",
	"city": "Minsk",
	"latitude": 53.9,
	"longitude": 27.56,
	"bedrooms": 2,
	"bathrooms": 1,
	"area": 54.5,
	"furnishing": "furnished",
	"featured_until": "2026-12-01T00:00:00Z",
	"amenities": [1, 2],
	"images": [{"filename": "a.png", "data": "aGVsbG8="}]
}`

func TestValidateRequest_Create(t *testing.T) {
	require.NoError(t, ValidateRequest(CreatePropertyRequest, []byte(validCreate)))

	cases := map[string]string{
		"missing title":    `{"owner_id":1,"type":"house","price":"1","address":"a","city":"c","bedrooms":1,"bathrooms":1,"area":"1","furnishing":"furnished"}`,
		"unknown type":     `{"owner_id":1,"title":"t","type":"castle","price":"1","address":"a","city":"c","bedrooms":1,"bathrooms":1,"area":"1","furnishing":"furnished"}`,
		"too many decimal": `{"owner_id":1,"title":"t","type":"house","price":"1.999","address":"a","city":"c","bedrooms":1,"bathrooms":1,"area":"1","furnishing":"furnished"}`,
		"bad base64":       `{"owner_id":1,"title":"t","type":"house","price":"1","address":"a","city":"c","bedrooms":1,"bathrooms":1,"area":"1","furnishing":"furnished","images":[{"data":"%%%"}]}`,
		"unknown field":    `{"owner_id":1,"title":"t","type":"house","price":"1","address":"a","city":"c","bedrooms":1,"bathrooms":1,"area":"1","furnishing":"furnished","status":"approved"}`,
		"not json":         `{"owner_id":`,
		"price too large":  `{"owner_id":1,"title":"t","type":"house","price":"200000000000000000","address":"a","city":"c","bedrooms":1,"bathrooms":1,"area":"1","furnishing":"furnished"}`,
		"number too large": `{"owner_id":1,"title":"t","type":"house","price":1e300,"address":"a","city":"c","bedrooms":1,"bathrooms":1,"area":"1","furnishing":"furnished"}`,
	}
	for name, body := range cases {
		err := ValidateRequest(CreatePropertyRequest, []byte(body))
		assert.ErrorIs(t, err, domain.ErrValidationFailed, name)
	}
}

func TestValidateRequest_FieldPath(t *testing.T) {
	err := ValidateRequest(UpdatePropertyRequest, []byte(`{"bedrooms": -1}`))
	require.Error(t, err)

	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "bedrooms", vErr.Field)
}

func TestValidateRequest_UpdateRequiresSomething(t *testing.T) {
	assert.ErrorIs(t, ValidateRequest(UpdatePropertyRequest, []byte(`{}`)), domain.ErrValidationFailed)
	assert.NoError(t, ValidateRequest(UpdatePropertyRequest, []byte(`{"amenities": []}`)))
	assert.NoError(t, ValidateRequest(UpdatePropertyRequest, []byte(`{"district": null}`)))
}

func TestValidateValue_Search(t *testing.T) {
	assert.NoError(t, ValidateValue(SearchPropertiesRequest, map[string]interface{}{
		"city": "Minsk", "bedrooms": json.Number("2"), "per_page": json.Number("15"),
	}))
	assert.ErrorIs(t, ValidateValue(SearchPropertiesRequest, map[string]interface{}{
		"per_page": json.Number("1000"),
	}), domain.ErrValidationFailed)
}

func TestValidateEvent(t *testing.T) {
	body := []byte(`{
		"event_id": "1b4e28ba-2fa1-11d2-883f-0016d3cca427",
		"event_type": "property.created",
		"property_id": 1,
		"owner_id": 2,
		"slug": "sunny-flat",
		"status": "pending",
		"occurred_at": "2026-01-02T03:04:05Z"
	}`)
	assert.NoError(t, ValidateEvent(PropertyLifecycleEvent, Version1, body))
	assert.Error(t, ValidateEvent(PropertyLifecycleEvent, Version1, []byte(`{"event_type":"property.moved"}`)))
	assert.Error(t, ValidateEvent(PropertyLifecycleEvent, "9.0.0", body))
}
