// Package money holds currency amounts as integer minor units.
//
// Conversion to and from decimal major units happens only at the edges
// (HTTP payloads, config, logs); arithmetic inside the engine stays in int64.
package money

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Amount is a value in the currency's minor unit (e.g. cents).
type Amount int64

var (
	ErrPrecision = errors.New("amount has more fractional digits than the currency allows")
	ErrOverflow  = errors.New("amount out of range")
)

var (
	maxAmount = decimal.NewFromInt(math.MaxInt64)
	minAmount = decimal.NewFromInt(math.MinInt64)
	hundred   = decimal.NewFromInt(100)
	twelve    = decimal.NewFromInt(12)
)

// FromDecimal converts a major-unit decimal into minor units using exp fractional digits.
func FromDecimal(d decimal.Decimal, exp int32) (Amount, error) {
	if !d.Equal(d.Truncate(exp)) {
		return 0, fmt.Errorf("%w: %s (max %d)", ErrPrecision, d.String(), exp)
	}
	minor := d.Shift(exp)
	if minor.GreaterThan(maxAmount) || minor.LessThan(minAmount) {
		return 0, ErrOverflow
	}
	return Amount(minor.IntPart()), nil
}

// Parse reads a major-unit string such as "1250.50".
func Parse(s string, exp int32) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return FromDecimal(d, exp)
}

// Decimal renders the amount in major units.
func (a Amount) Decimal(exp int32) decimal.Decimal {
	return decimal.New(int64(a), -exp)
}

// Format renders the amount as a fixed-point major-unit string.
func (a Amount) Format(exp int32) string {
	return a.Decimal(exp).StringFixed(exp)
}

func (a Amount) IsPositive() bool { return a > 0 }

// Share returns total*part/whole rounded half away from zero to the minor unit.
func Share(total, part, whole Amount) Amount {
	if whole == 0 {
		return 0
	}
	d := decimal.NewFromInt(int64(total)).
		Mul(decimal.NewFromInt(int64(part))).
		Div(decimal.NewFromInt(int64(whole))).
		Round(0)
	return Amount(d.IntPart())
}

// SimpleInterest is principal * ratePct/100 * termMonths/12, rounded to the
// minor unit. It fails with ErrOverflow when the result does not fit.
func SimpleInterest(principal Amount, ratePct decimal.Decimal, termMonths int) (Amount, error) {
	d := decimal.NewFromInt(int64(principal)).
		Mul(ratePct).
		Mul(decimal.NewFromInt(int64(termMonths))).
		Div(hundred).
		Div(twelve).
		Round(0)
	if d.GreaterThan(maxAmount) || d.LessThan(minAmount) {
		return 0, fmt.Errorf("%w: interest on %d at %s%% for %d months", ErrOverflow, principal, ratePct.String(), termMonths)
	}
	return Amount(d.IntPart()), nil
}

// Add returns a+b, or ErrOverflow when the sum wraps.
func Add(a, b Amount) (Amount, error) {
	s := a + b
	if (b > 0 && s < a) || (b < 0 && s > a) {
		return 0, fmt.Errorf("%w: %d + %d", ErrOverflow, a, b)
	}
	return s, nil
}

// Split divides a into n parts of floor(a/n); the last part absorbs the remainder.
func Split(a Amount, n int) []Amount {
	if n <= 0 {
		return nil
	}
	out := make([]Amount, n)
	base := a / Amount(n)
	for i := range out {
		out[i] = base
	}
	out[n-1] += a - base*Amount(n)
	return out
}
