// Package core provides money parsing and handling utilities.
//
// Amounts are held as whole cents. Decimal text is parsed with
// shopspring/decimal and rounded to the cent half away from zero.
package core

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a currency magnitude in cents. The currency itself is a display
// setting and is never part of the value.
type Money struct {
	Cents int64
}

// Cents builds a Money from a cent count.
func Cents(c int64) Money {
	return Money{Cents: c}
}

// MaxCents bounds the magnitude of any single amount. It keeps sums of many
// amounts well inside int64.
const MaxCents int64 = 1_000_000_000_000_000

var maxCents = decimal.NewFromInt(MaxCents)

// MoneyFromDecimal rounds d to two places and converts it to cents.
// Magnitudes above MaxCents are rejected with ErrInvalidAmount.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	cents := d.Round(2).Shift(2)
	if cents.Abs().GreaterThan(maxCents) {
		return Money{}, fmt.Errorf("%w: %s is out of range", ErrInvalidAmount, d.String())
	}
	return Money{Cents: cents.IntPart()}, nil
}

// ParseMoney converts a decimal string to cents with half-away-from-zero
// rounding on the third decimal place.
//
// Examples:
//
//	ParseMoney("12.34")  -> 1234
//	ParseMoney("12.345") -> 1235
//	ParseMoney("12.344") -> 1234
//	ParseMoney("1e3")    -> 100000
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return MoneyFromDecimal(d)
}

// Decimal returns the exact decimal value of m.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String renders m without trailing zeros ("45.7", "1200").
func (m Money) String() string {
	return m.Decimal().String()
}

// Fixed renders m with exactly two decimals ("45.70").
func (m Money) Fixed() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }
func (m Money) Neg() Money        { return Money{Cents: -m.Cents} }

func (m Money) IsZero() bool     { return m.Cents == 0 }
func (m Money) IsPositive() bool { return m.Cents > 0 }
func (m Money) IsNegative() bool { return m.Cents < 0 }

// Validate checks that the amount is strictly positive.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// MarshalJSON encodes m as a bare JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts only JSON numbers. Values with more than two
// decimals are rounded to the cent.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] == '"' || bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("%w: expected a number, got %s", ErrInvalidAmount, data)
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, data)
	}
	v, err := MoneyFromDecimal(d)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
