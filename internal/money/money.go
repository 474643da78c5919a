// Package money converts between integer minor units and decimal amounts.
// Arithmetic stays in int64 minor units; decimals only appear at file and
// display boundaries.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of minor-unit digits (cents).
const Scale = 2

// FromDecimal converts a decimal amount to minor units. Amounts with more
// than Scale decimal places are rejected rather than rounded.
func FromDecimal(d decimal.Decimal) (int64, error) {
	shifted := d.Shift(Scale)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("amount %s has more than %d decimal places", d, Scale)
	}
	return shifted.IntPart(), nil
}

// Parse reads a decimal string ("-12.50", "1 234,00") into minor units.
func Parse(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	return FromDecimal(d)
}

// ToDecimal converts minor units to a decimal amount.
func ToDecimal(minor int64) decimal.Decimal {
	return decimal.New(minor, -Scale)
}

// Format renders minor units with exactly Scale decimals, e.g. "-50.00".
func Format(minor int64) string {
	return ToDecimal(minor).StringFixed(Scale)
}

// FormatOptional renders zero as an empty string.
func FormatOptional(minor int64) string {
	if minor == 0 {
		return ""
	}
	return Format(minor)
}
