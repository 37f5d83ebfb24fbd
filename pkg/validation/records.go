package validation

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidInput marks every rejection made by this package.
var ErrInvalidInput = errors.New("invalid input")

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func checkAmount(field string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return invalid("%s must be a finite number", field)
	}
	if value < 0 {
		return invalid("%s must not be negative, got %.2f", field, value)
	}
	return nil
}

// ValidateVisit checks a new or edited visit.
func ValidateVisit(patient, treatment string, amount float64) error {
	if strings.TrimSpace(patient) == "" {
		return invalid("patient name is required")
	}
	if strings.TrimSpace(treatment) == "" {
		return invalid("treatment is required")
	}
	return checkAmount("amount", amount)
}

// ValidateEquipment checks an equipment purchase. Useful life is a divisor in
// the amortization, so it must be at least one year.
func ValidateEquipment(name string, priceUSD float64, lifeYears int) error {
	if strings.TrimSpace(name) == "" {
		return invalid("equipment name is required")
	}
	if err := checkAmount("purchase price", priceUSD); err != nil {
		return err
	}
	if lifeYears <= 0 {
		return invalid("useful life must be at least 1 year, got %d", lifeYears)
	}
	return nil
}

// ValidateFixedExpense checks a monthly fixed expense.
func ValidateFixedExpense(concept string, monthlyAmount float64) error {
	if strings.TrimSpace(concept) == "" {
		return invalid("expense concept is required")
	}
	return checkAmount("monthly amount", monthlyAmount)
}

// ValidateSettings checks the per-user work parameters.
func ValidateSettings(hourlyCost, profitMargin, exchangeRate, annualHours float64) error {
	if err := checkAmount("hourly cost", hourlyCost); err != nil {
		return err
	}
	if err := checkAmount("profit margin", profitMargin); err != nil {
		return err
	}
	if exchangeRate <= 0 || math.IsInf(exchangeRate, 0) || math.IsNaN(exchangeRate) {
		return invalid("exchange rate must be positive, got %.2f", exchangeRate)
	}
	return checkAmount("annual hours", annualHours)
}

// ValidateUserID checks that a user id can be used as a single directory name.
func ValidateUserID(userID string) error {
	if userID == "" || userID == "." || userID == ".." {
		return invalid("user id %q is not allowed", userID)
	}
	if strings.ContainsAny(userID, `/\:`) || strings.ContainsRune(userID, 0) {
		return invalid("user id %q contains path separators", userID)
	}
	if strings.TrimSpace(userID) != userID {
		return invalid("user id %q has surrounding spaces", userID)
	}
	return nil
}
