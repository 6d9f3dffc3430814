// Package core provides the domain model for the budgeting ledger.
//
// This file contains the exact-decimal money type and the parsing helpers
// used by every layer that touches monetary input. Amounts are stored as
// int64 cents so ledger arithmetic never drifts the way float math would.
package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Money is an exact monetary amount in cents.
type Money struct {
	Cents int64
}

// ErrNegativeAmount is returned when a monetary input is negative.
var ErrNegativeAmount = errors.New("negative amount")

// ParseDecimalToCents converts a decimal string to cents with half-up
// rounding on the third decimal place.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Zero is
// a valid result; negative values are rejected at parse time because no
// ledger input is ever negative.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.344") -> 1234, nil (rounds down)
//	ParseDecimalToCents("12.345") -> 1235, nil (rounds up)
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "-") {
		return 0, ErrNegativeAmount
	}
	s = strings.TrimPrefix(s, "+")
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
		if fracPart == "" {
			return 0, ErrInvalidAmount
		}
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// Take the first two fractional digits, then half-up rounding on the third
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	return iv*100 + fracCents, nil
}

// ParseMoney parses a decimal string into Money.
func ParseMoney(s string) (Money, error) {
	cents, err := ParseDecimalToCents(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Cents: cents}, nil
}

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool { return m.Cents > 0 }

// Add returns the sum of two amounts.
func (m Money) Add(other Money) Money { return Money{Cents: m.Cents + other.Cents} }

// Sub returns the difference of two amounts. The result may be negative;
// callers that must not store negatives clamp explicitly.
func (m Money) Sub(other Money) Money { return Money{Cents: m.Cents - other.Cents} }

// Div divides the amount by a positive divisor with half-up rounding in cents.
func (m Money) Div(divisor int64) Money {
	if divisor <= 0 {
		return Money{}
	}
	return Money{Cents: (m.Cents + divisor/2) / divisor}
}

// Percent returns pct percent of the amount with half-up rounding in cents.
func (m Money) Percent(pct float64) Money {
	raw := float64(m.Cents) * pct / 100
	if raw >= 0 {
		return Money{Cents: int64(raw + 0.5)}
	}
	return Money{Cents: int64(raw - 0.5)}
}

// String formats the amount as a plain decimal, e.g. "120.00" or "-4.50".
func (m Money) String() string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := fmt.Sprintf("%d.%02d", cents/100, cents%100)
	if neg {
		return "-" + s
	}
	return s
}

// MarshalJSON encodes Money as a bare JSON number with two decimals so API
// clients see the same numeric shape the original records carried.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts either a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Not a string: treat the raw token as a number literal.
		s = string(data)
	}
	cents, err := ParseDecimalToCents(s)
	if err != nil {
		return err
	}
	m.Cents = cents
	return nil
}
