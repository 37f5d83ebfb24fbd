package format

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidAmount is returned when a string holds no usable number.
var ErrInvalidAmount = errors.New("invalid amount")

// Currency returns a whole-unit currency string with a dollar sign, thousands
// separators and the currency code (e.g., "$324,848 ARS").
func Currency(amount float64, code string) string {
	formatted := formatPositive(math.Abs(amount), 0)
	sign := ""
	if amount < 0 && formatted != "0" {
		sign = "-"
	}
	if code == "" {
		return sign + "$" + formatted
	}
	return sign + "$" + formatted + " " + code
}

// NumericCurrency returns a two-decimal currency string without a currency symbol but with separators (e.g., "-1,234.56").
func NumericCurrency(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
	}
	return sign + formatPositive(math.Abs(amount), 2)
}

// Count renders a whole count with thousands separators (e.g., "1,083").
func Count(value float64) string {
	if value < 0 {
		return "-" + formatPositive(math.Abs(value), 0)
	}
	return formatPositive(value, 0)
}

// Percent renders a percentage with one decimal (e.g., "37.5%").
func Percent(value float64) string {
	return fmt.Sprintf("%.1f%%", value)
}

func formatPositive(value float64, decimals int) string {
	formatted := strconv.FormatFloat(value, 'f', decimals, 64)
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	if len(parts) == 2 {
		return intPart + "." + parts[1]
	}
	return intPart
}

// ParseAmount extracts a number from a free-form money string such as
// "$ 30.000", "1.234,56", "USD 1,234.56" or "-45,5".
//
// When both separators appear the right-most one is the decimal mark. A lone
// separator is a decimal mark when it occurs once with at most two digits after
// it; otherwise it groups thousands.
func ParseAmount(value string) (float64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidAmount)
	}

	var cleaned strings.Builder
	for _, r := range trimmed {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' || r == '-' {
			cleaned.WriteRune(r)
		}
	}
	number := cleaned.String()
	if number == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}

	negative := strings.HasPrefix(number, "-")
	number = strings.TrimLeft(number, "-")

	hasComma := strings.Contains(number, ",")
	hasDot := strings.Contains(number, ".")
	switch {
	case hasComma && hasDot:
		if strings.LastIndex(number, ",") > strings.LastIndex(number, ".") {
			number = strings.ReplaceAll(number, ".", "")
			number = strings.ReplaceAll(number, ",", ".")
		} else {
			number = strings.ReplaceAll(number, ",", "")
		}
	case hasComma:
		number = normalizeSingleSeparator(number, ",")
	case hasDot:
		number = normalizeSingleSeparator(number, ".")
	}

	result, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	if negative {
		result = -result
	}
	return result, nil
}

func normalizeSingleSeparator(number, sep string) string {
	parts := strings.Split(number, sep)
	if len(parts) == 2 && len(parts[1]) <= 2 {
		return parts[0] + "." + parts[1]
	}
	if len(parts) == 2 && len(parts[1]) != 3 {
		// "12.3456" is not a thousands grouping; keep it as a decimal.
		return parts[0] + "." + parts[1]
	}
	return strings.Join(parts, "")
}
