// Package money converts between decimal currency strings and integer minor units.
//
// Amounts are held as int64 counts of the smallest unit (1e-18 of the display unit,
// the same scale as wei). Decimal strings only appear at the presentation edge.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Decimals is the number of fractional digits between the display unit and a minor unit.
const Decimals = 18

var ErrInvalidAmount = errors.New("invalid amount")

// Parse converts a non-negative decimal string such as "0.005" into minor units.
// At most Decimals fractional digits are accepted.
func Parse(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidAmount)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a decimal number", ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, s)
	}

	minor := d.Shift(Decimals)
	if !minor.IsInteger() {
		return 0, fmt.Errorf("%w: %q has more than %d fractional digits", ErrInvalidAmount, s, Decimals)
	}

	bi := minor.BigInt()
	if !bi.IsInt64() {
		return 0, fmt.Errorf("%w: %q is out of range", ErrInvalidAmount, s)
	}
	return bi.Int64(), nil
}

// MustParse is Parse for package-level constants; it panics on malformed input.
func MustParse(s string) int64 {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Format renders minor units as a decimal string without trailing zeros ("0.005", "0").
func Format(minor int64) string {
	return decimal.New(minor, -Decimals).String()
}
