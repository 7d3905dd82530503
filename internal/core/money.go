// Package core holds the domain model of the ekharcha backend.
//
// Money is stored as integer cents everywhere. JSON encoding converts to and
// from decimal numbers so the mobile client keeps sending plain amounts.
package core

import (
	"encoding/json"
	"math"
)

// Money is a monetary quantity in integer cents. Account balances are signed;
// transaction amounts are non-negative magnitudes with the sign carried by the
// transaction type.
type Money struct {
	Cents int64
}

// CentsFromFloat converts a decimal amount to cents with half-away-from-zero
// rounding.
func CentsFromFloat(v float64) int64 {
	return int64(math.Round(v * 100))
}

// Float returns the decimal value, for display and JSON encoding only. Use
// cents for arithmetic.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}

// Abs returns the absolute value.
func (m Money) Abs() Money {
	if m.Cents < 0 {
		return Money{Cents: -m.Cents}
	}
	return m
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

// Sub returns m - other.
func (m Money) Sub(other Money) Money {
	return Money{Cents: m.Cents - other.Cents}
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Float())
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	m.Cents = CentsFromFloat(v)
	return nil
}
