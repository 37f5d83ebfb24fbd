package mathutil

import (
	"math"
	"testing"
)

func TestRound(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"Round up at midpoint", 1.235, 1.24},
		{"Round down below midpoint", 1.234, 1.23},
		{"No rounding needed", 1.23, 1.23},
		{"Large number", 12345.678, 12345.68},
		{"Negative number", -1.234, -1.23},
		{"Zero", 0.0, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Round(tt.input)
			if math.Abs(result-tt.expected) > 0.001 {
				t.Errorf("Round(%v) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestRoundWhole(t *testing.T) {
	if got := RoundWhole(29999.5); got != 30000 {
		t.Errorf("RoundWhole(29999.5) = %v, expected 30000", got)
	}
	if got := RoundWhole(10.4); got != 10 {
		t.Errorf("RoundWhole(10.4) = %v, expected 10", got)
	}
}

func TestSafeDivide(t *testing.T) {
	tests := []struct {
		name        string
		numerator   float64
		denominator float64
		expected    float64
	}{
		{"Regular division", 100, 4, 25},
		{"Zero denominator", 100, 0, 0},
		{"Negative denominator", 100, -2, 0},
		{"Zero numerator", 0, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafeDivide(tt.numerator, tt.denominator); got != tt.expected {
				t.Errorf("SafeDivide(%v, %v) = %v, expected %v", tt.numerator, tt.denominator, got, tt.expected)
			}
		})
	}
}

func TestCalculatePercentage(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		total    float64
		expected float64
	}{
		{"Quarter", 25, 100, 25},
		{"Zero total", 25, 0, 0},
		{"Whole", 40, 40, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculatePercentage(tt.value, tt.total); math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("CalculatePercentage(%v, %v) = %v, expected %v", tt.value, tt.total, got, tt.expected)
			}
		})
	}
}

func TestApplyMarkup(t *testing.T) {
	if got := ApplyMarkup(200, 0.5); got != 300 {
		t.Errorf("ApplyMarkup(200, 0.5) = %v, expected 300", got)
	}
	if got := ApplyMarkup(200, 1.0); got != 400 {
		t.Errorf("ApplyMarkup(200, 1.0) = %v, expected 400", got)
	}
}

func TestCompound(t *testing.T) {
	got := Compound(1000, 0.04, 5)
	expected := 1000 * math.Pow(1.04, 5)
	if got != expected {
		t.Errorf("Compound(1000, 0.04, 5) = %v, expected %v", got, expected)
	}
	if got := Compound(1000, 0.04, 0); got != 1000 {
		t.Errorf("Compound with zero periods = %v, expected 1000", got)
	}
}
