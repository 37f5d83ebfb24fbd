package validation

import (
	"errors"
	"math"
	"testing"
)

func TestValidateOutputFormat(t *testing.T) {
	tests := []struct {
		format    string
		expectErr bool
	}{
		{"pretty", false},
		{"csv", false},
		{"json", true},
		{"", true},
		{"PRETTY", true},
		{" pretty ", true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format)
			if tt.expectErr && !errors.Is(err, ErrInvalidInput) {
				t.Errorf("ValidateOutputFormat(%q) expected ErrInvalidInput, got %v", tt.format, err)
			}
			if !tt.expectErr && err != nil {
				t.Errorf("ValidateOutputFormat(%q) unexpected error = %v", tt.format, err)
			}
		})
	}
}

func TestValidateVisit(t *testing.T) {
	tests := []struct {
		name      string
		patient   string
		treatment string
		amount    float64
		expectErr bool
	}{
		{"Valid", "Juan Pérez", "Limpieza", 30000, false},
		{"Zero amount allowed", "Juan", "Consulta", 0, false},
		{"Missing patient", "  ", "Consulta", 100, true},
		{"Missing treatment", "Juan", "", 100, true},
		{"Negative amount", "Juan", "Consulta", -1, true},
		{"NaN amount", "Juan", "Consulta", math.NaN(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVisit(tt.patient, tt.treatment, tt.amount)
			if (err != nil) != tt.expectErr {
				t.Errorf("ValidateVisit() error = %v, expectErr %v", err, tt.expectErr)
			}
		})
	}
}

func TestValidateEquipment(t *testing.T) {
	tests := []struct {
		name      string
		equipment string
		price     float64
		life      int
		expectErr bool
	}{
		{"Valid", "Sillón Dental", 1000, 5, false},
		{"Zero life", "Autoclave", 1000, 0, true},
		{"Negative life", "Autoclave", 1000, -3, true},
		{"Negative price", "Autoclave", -1, 5, true},
		{"Missing name", "", 1000, 5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEquipment(tt.equipment, tt.price, tt.life)
			if (err != nil) != tt.expectErr {
				t.Errorf("ValidateEquipment() error = %v, expectErr %v", err, tt.expectErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestValidateFixedExpense(t *testing.T) {
	if err := ValidateFixedExpense("Alquiler", 50000); err != nil {
		t.Errorf("unexpected error = %v", err)
	}
	if err := ValidateFixedExpense("", 50000); err == nil {
		t.Error("expected error for missing concept")
	}
	if err := ValidateFixedExpense("Luz", -10); err == nil {
		t.Error("expected error for negative amount")
	}
}

func TestValidateSettings(t *testing.T) {
	tests := []struct {
		name      string
		hourly    float64
		margin    float64
		rate      float64
		hours     float64
		expectErr bool
	}{
		{"Defaults", 29000, 0.4, 1335, 1100, false},
		{"Zero hours allowed", 29000, 0.4, 1335, 0, false},
		{"Zero exchange rate", 29000, 0.4, 0, 1100, true},
		{"Negative margin", 29000, -0.1, 1335, 1100, true},
		{"Negative hours", 29000, 0.4, 1335, -5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSettings(tt.hourly, tt.margin, tt.rate, tt.hours)
			if (err != nil) != tt.expectErr {
				t.Errorf("ValidateSettings() error = %v, expectErr %v", err, tt.expectErr)
			}
		})
	}
}

func TestValidateUserID(t *testing.T) {
	valid := []string{"admin", "dra.lopez", "user_01"}
	for _, id := range valid {
		if err := ValidateUserID(id); err != nil {
			t.Errorf("ValidateUserID(%q) unexpected error = %v", id, err)
		}
	}

	invalid := []string{"", ".", "..", "../etc", `a\b`, "c:d", " admin"}
	for _, id := range invalid {
		if err := ValidateUserID(id); err == nil {
			t.Errorf("ValidateUserID(%q) expected error", id)
		}
	}
}
