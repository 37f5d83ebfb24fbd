// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/consultorio/pkg/constants"
)

// Round rounds a value to two decimals, i.e. to represent real currency.
// Used for making logical comparisons.
func Round(val float64) float64 {
	return math.Round(val*constants.DecimalPrecision) / constants.DecimalPrecision
}

// RoundWhole rounds a value to whole currency units, as shown in summaries.
func RoundWhole(val float64) float64 {
	return math.Round(val)
}

// SafeDivide returns numerator/denominator, or 0 when the denominator is not positive.
func SafeDivide(numerator, denominator float64) float64 {
	if denominator <= 0 {
		return 0
	}
	return numerator / denominator
}

// CalculatePercentage calculates what percentage value is of total
func CalculatePercentage(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return (value / total) * constants.PercentageMultiplier
}

// ApplyMarkup returns value increased by a fractional markup (0.5 = 50%).
func ApplyMarkup(value, markup float64) float64 {
	return value * (1 + markup)
}

// Compound returns principal grown by rate for the given number of periods.
func Compound(principal, rate float64, periods int) float64 {
	return principal * math.Pow(1+rate, float64(periods))
}
