package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money - фиксированная точка с двумя знаками после запятой,
// хранится в минимальных единицах (центах).
type Money int64

// MaxMoneyUnits - предел целой части, столбцы NUMERIC(12,2)
const MaxMoneyUnits int64 = 9_999_999_999

// NewMoney собирает значение из целой и дробной частей (1234, 50 -> 1234.50)
func NewMoney(units int64, cents int64) Money {
	if units < 0 {
		return Money(units*100 - cents)
	}
	return Money(units*100 + cents)
}

// ParseMoney разбирает строку вида "1500", "1500.5", "1500.50".
// Больше двух знаков после запятой - ошибка, округления нет.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	negative := false
	if s[0] == '-' || s[0] == '+' {
		negative = s[0] == '-'
		s = s[1:]
	}

	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	if intPart == "" {
		intPart = "0"
	}
	if hasFrac && (len(fracPart) == 0 || len(fracPart) > 2) {
		return 0, fmt.Errorf("invalid amount %q: expected at most 2 decimal places", s)
	}

	units, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil && errors.Is(err, strconv.ErrRange) {
		return 0, fmt.Errorf("amount %q is out of range", s)
	}
	if err != nil || units < 0 {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if units > MaxMoneyUnits {
		return 0, fmt.Errorf("amount %q is out of range: integer part exceeds %d", s, MaxMoneyUnits)
	}

	var cents int64
	if hasFrac {
		if len(fracPart) == 1 {
			fracPart += "0"
		}
		cents, err = strconv.ParseInt(fracPart, 10, 64)
		if err != nil || cents < 0 {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
	}

	m := units*100 + cents
	if negative {
		m = -m
	}
	return Money(m), nil
}

// MoneyFromFloat переводит число из JSON в центы по его кратчайшей десятичной записи,
// поэтому действуют те же правила, что и для строки: не больше двух знаков и предел MaxMoneyUnits.
func MoneyFromFloat(f float64) (Money, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid amount %v", f)
	}
	if math.Abs(f) >= float64(MaxMoneyUnits+1) {
		return 0, fmt.Errorf("amount %v is out of range: integer part exceeds %d", f, MaxMoneyUnits)
	}
	return ParseMoney(strconv.FormatFloat(f, 'f', -1, 64))
}

func (m Money) Cents() int64 { return int64(m) }

func (m Money) IsNegative() bool { return m < 0 }

func (m Money) Float64() float64 { return float64(m) / 100 }

// String всегда печатает ровно два знака: 1500.00
func (m Money) String() string {
	v := int64(m)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(m.String())), nil
}

// UnmarshalJSON принимает и строку "1500.50", и число 1500.5
func (m *Money) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := ParseMoney(s)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("amount must be a string or a number: %w", err)
	}
	parsed, err := MoneyFromFloat(f)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
