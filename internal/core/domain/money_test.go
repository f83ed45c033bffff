package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in   string
		want Money
	}{
		{"1500", 150000},
		{"1500.5", 150050},
		{"1500.50", 150050},
		{"0.07", 7},
		{".5", 50},
		{"-12.30", -1230},
		{" 42 ", 4200},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	for _, bad := range []string{"", "abc", "1.234", "1.", "1,50", "--1"} {
		_, err := ParseMoney(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseMoney_Range(t *testing.T) {
	maxAmount, err := ParseMoney("9999999999.99")
	require.NoError(t, err)
	assert.Equal(t, Money(999999999999), maxAmount)

	minAmount, err := ParseMoney("-9999999999.99")
	require.NoError(t, err)
	assert.Equal(t, Money(-999999999999), minAmount)

	for _, bad := range []string{
		"10000000000",
		"200000000000000000",
		"-200000000000000000",
		"99999999999999999999999",
	} {
		_, err := ParseMoney(bad)
		assert.ErrorContains(t, err, "out of range", bad)
	}
}

func TestMoneyFromFloat(t *testing.T) {
	cases := []struct {
		in   float64
		want Money
	}{
		{1500.5, 150050},
		{1200.1, 120010},
		{0.07, 7},
		{-3.25, -325},
		{9999999999.99, 999999999999},
	}
	for _, tc := range cases {
		got, err := MoneyFromFloat(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	for _, bad := range []float64{1e300, -1e300, 1e10, 1500.555, 0.001, math.Inf(1), math.NaN()} {
		_, err := MoneyFromFloat(bad)
		assert.Error(t, err, bad)
	}
}

func TestMoney_StringAndJSON(t *testing.T) {
	assert.Equal(t, "1500.00", NewMoney(1500, 0).String())
	assert.Equal(t, "-0.05", Money(-5).String())
	assert.Equal(t, "-3.25", NewMoney(-3, 25).String())

	raw, err := json.Marshal(struct {
		Price Money `json:"price"`
	}{Price: NewMoney(99, 9)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"price":"99.09"}`, string(raw))

	var fromString, fromNumber Money
	require.NoError(t, json.Unmarshal([]byte(`"1200.10"`), &fromString))
	require.NoError(t, json.Unmarshal([]byte(`1200.1`), &fromNumber))
	assert.Equal(t, fromString, fromNumber)

	var bad Money
	assert.Error(t, json.Unmarshal([]byte(`"12.345"`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`true`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`1e300`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`1500.555`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`"200000000000000000"`), &bad))
}
