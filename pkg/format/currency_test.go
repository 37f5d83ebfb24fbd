package format

import (
	"errors"
	"math"
	"testing"
)

func TestCurrency(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		code     string
		expected string
	}{
		{"Thousands with code", 324848.4, "ARS", "$324,848 ARS"},
		{"Millions", 1234567, "ARS", "$1,234,567 ARS"},
		{"Small", 295.3, "ARS", "$295 ARS"},
		{"Negative", -1500, "USD", "-$1,500 USD"},
		{"No code", 30000, "", "$30,000"},
		{"Zero", 0, "ARS", "$0 ARS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Currency(tt.amount, tt.code); got != tt.expected {
				t.Errorf("Currency(%v, %q) = %q, expected %q", tt.amount, tt.code, got, tt.expected)
			}
		})
	}
}

func TestNumericCurrency(t *testing.T) {
	if got := NumericCurrency(-1234.5); got != "-1,234.50" {
		t.Errorf("NumericCurrency(-1234.5) = %q", got)
	}
	if got := NumericCurrency(243.3263); got != "243.33" {
		t.Errorf("NumericCurrency(243.3263) = %q", got)
	}
}

func TestCount(t *testing.T) {
	if got := Count(1083.4); got != "1,083" {
		t.Errorf("Count(1083.4) = %q", got)
	}
	if got := Count(11); got != "11" {
		t.Errorf("Count(11) = %q", got)
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(37.456); got != "37.5%" {
		t.Errorf("Percent(37.456) = %q", got)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
	}{
		{"Plain integer", "30000", 30000},
		{"Dollar sign and dot thousands", "$ 30.000", 30000},
		{"Argentine decimal", "1.234,56", 1234.56},
		{"US decimal", "1,234.56", 1234.56},
		{"Comma decimal", "45,5", 45.5},
		{"Comma thousands", "30,000", 30000},
		{"Multiple comma groups", "1,234,567", 1234567},
		{"Multiple dot groups", "1.234.567", 1234567},
		{"Dot decimal", "12.50", 12.5},
		{"Negative", "-45,50", -45.5},
		{"Currency code", "ARS 15.000", 15000},
		{"Euro sign", "€12,5", 12.5},
		{"Long decimal", "12.3456", 12.3456},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if err != nil {
				t.Fatalf("ParseAmount(%q) error = %v", tt.input, err)
			}
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("ParseAmount(%q) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseAmountInvalid(t *testing.T) {
	for _, input := range []string{"", "   ", "abc", "$", "1-2"} {
		t.Run(input, func(t *testing.T) {
			if _, err := ParseAmount(input); !errors.Is(err, ErrInvalidAmount) {
				t.Errorf("ParseAmount(%q) error = %v, expected ErrInvalidAmount", input, err)
			}
		})
	}
}
