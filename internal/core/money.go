// Package core provides money parsing and handling utilities.
//
// Amounts are held as integer cents. Decimal text is converted with
// shopspring/decimal so no binary floating point is involved in storage.
package core

import (
	"bytes"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/shopspring/decimal"
)

// MaxAmountCents bounds a single expense (10 billion in major units). Sums
// and percentage products over any realistic collection stay within int64.
const MaxAmountCents int64 = 1_000_000_000_000

var maxCents = decimal.NewFromInt(MaxAmountCents)

var mathExpression = regexp.MustCompile(`^[0-9+\-*/.() ]+$`)

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. Signs, zero and malformed
// input return ErrInvalidAmount.
//
// Examples:
//   ParseDecimalToCents("12.34") -> 1234, nil
//   ParseDecimalToCents("12,34") -> 1234, nil
//   ParseDecimalToCents("12.344") -> 1234, nil
//   ParseDecimalToCents("12.345") -> 1235, nil
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.ContainsAny(s, "eE") {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return centsFromDecimal(d)
}

// EvaluateAmount accepts either a plain amount or a small arithmetic
// expression such as "19.99 * 2" and returns the rounded result.
func EvaluateAmount(expr string) (Money, error) {
	clean := strings.TrimSpace(strings.ReplaceAll(expr, "$", ""))
	if clean == "" {
		return Money{}, ErrInvalidAmount
	}
	if cents, err := ParseDecimalToCents(clean); err == nil {
		return Money{Cents: cents}, nil
	}
	if !mathExpression.MatchString(clean) {
		return Money{}, fmt.Errorf("%w: %q is not an arithmetic expression", ErrInvalidAmount, expr)
	}

	expression, err := govaluate.NewEvaluableExpression(clean)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	result, err := expression.Evaluate(nil)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}

	v, ok := result.(float64)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return Money{}, fmt.Errorf("%w: result %v", ErrInvalidAmount, result)
	}
	cents, err := centsFromDecimal(decimal.NewFromFloat(v))
	if err != nil {
		return Money{}, err
	}
	return Money{Cents: cents}, nil
}

func centsFromDecimal(d decimal.Decimal) (int64, error) {
	cents := d.Round(2).Shift(2)
	if !cents.IsPositive() || cents.GreaterThan(maxCents) {
		return 0, ErrInvalidAmount
	}
	return cents.IntPart(), nil
}

// Decimal returns the amount as an exact decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String renders the amount with exactly two decimals, e.g. "12.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// MarshalJSON writes a bare JSON number with trailing zeros trimmed (12.5, 100).
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

// UnmarshalJSON reads a JSON number and rounds it half-up to cents, so a
// stored 12.345 loads as 12.35. Sign is preserved so that validation can
// reject negative values explicitly. Magnitudes above MaxAmountCents fail.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		return fmt.Errorf("%w: amount must be a number, got %s", ErrInvalidAmount, data)
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, data)
	}
	cents := d.Round(2).Shift(2)
	if cents.Abs().GreaterThan(maxCents) {
		return fmt.Errorf("%w: %s out of range", ErrInvalidAmount, data)
	}
	m.Cents = cents.IntPart()
	return nil
}
