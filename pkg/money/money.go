package money

import (
	"fmt"
	"math"
)

// Percent returns pct percent of amountCents, rounded half away from zero.
func Percent(amountCents int64, pct float64) int64 {
	return int64(math.Round(float64(amountCents) * pct / 100))
}

// Convert applies an exchange rate to a cent amount.
func Convert(amountCents int64, rate float64) int64 {
	return int64(math.Round(float64(amountCents) * rate))
}

// FromMajor converts a major-unit amount (e.g. 50.25) to cents.
func FromMajor(v float64) int64 {
	return int64(math.Round(v * 100))
}

// ToMajor converts cents back to major units for display.
func ToMajor(amountCents int64) float64 {
	return float64(amountCents) / 100
}

// Format renders cents as "12.50 USD".
func Format(amountCents int64, currency string) string {
	sign := ""
	if amountCents < 0 {
		sign = "-"
		amountCents = -amountCents
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, amountCents/100, amountCents%100, currency)
}
