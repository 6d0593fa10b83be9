// Package money converts between integer cents and decimal amounts.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Decimal renders cents as a decimal major-unit amount.
func Decimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// Format renders cents with two fractional digits, e.g. 22599 -> "225.99".
func Format(cents int64) string {
	return Decimal(cents).StringFixed(2)
}

// Parse converts a major-unit amount such as "225.99" into cents. Amounts
// with sub-cent precision are rejected rather than rounded.
func Parse(value string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	scaled := d.Mul(hundred)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("amount %q has sub-cent precision", value)
	}
	return scaled.IntPart(), nil
}

// ApplyRate returns cents×rate rounded half-up to the nearest cent.
func ApplyRate(cents int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(cents).Mul(rate).Round(0).IntPart()
}
