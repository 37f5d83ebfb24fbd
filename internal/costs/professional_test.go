package costs

import (
	"errors"
	"testing"

	"github.com/iwvelando/consultorio/pkg/validation"
)

func TestProfessionalDefaults(t *testing.T) {
	result := Professional(DefaultProfessionalInputs())

	tests := []struct {
		name     string
		got      float64
		expected float64
	}{
		{"effective days", result.EffectiveDays, 22.0},
		{"productive hours", result.ProductiveHours, 99.2},
		{"estimated visits", result.EstimatedVisits, 99},
		{"fixed", result.Breakdown.Fixed, 1145},
		{"personal", result.Breakdown.Personal, 2980},
		{"variable per visit", result.Breakdown.VariablePerVisit, 18},
		{"variable", result.Breakdown.Variable, 1785.38},
		{"monthly total", result.MonthlyTotal, 5910.38},
		{"hourly cost", result.HourlyCost, 59.59},
	}
	for _, tt := range tests {
		if !approxEqual(tt.got, tt.expected, 0.011) {
			t.Errorf("%s = %v, expected %v", tt.name, tt.got, tt.expected)
		}
	}
	if result.Position != "Especialista" {
		t.Errorf("Position = %s", result.Position)
	}
	if len(result.Prices) != len(TreatmentTimes()) {
		t.Errorf("expected a price row per treatment, got %d", len(result.Prices))
	}
}

func TestProfessionalZeroHours(t *testing.T) {
	in := DefaultProfessionalInputs()
	in.Operating.Occupancy = 0
	result := Professional(in)
	if result.HourlyCost != 0 || result.ProductiveHours != 0 {
		t.Errorf("expected zero hourly cost, got %+v", result)
	}
	if result.MonthlyTotal != 4125 {
		t.Errorf("MonthlyTotal = %v, expected fixed + personal", result.MonthlyTotal)
	}
}

func TestRecommendedPrices(t *testing.T) {
	prices := RecommendedPrices(40, []Tier{{Name: "A", Markup: 0.25}, {Name: "B", Markup: 0.80}})
	if prices[0].Treatment != "Consulta" || prices[0].BaseCost != 20 {
		t.Fatalf("first row = %+v", prices[0])
	}
	if prices[0].Prices[0].Price != 25 || prices[0].Prices[1].Price != 36 {
		t.Errorf("Consulta prices = %+v", prices[0].Prices)
	}

	var endo TreatmentPrice
	for _, p := range prices {
		if p.Treatment == "Endodoncia Multirradicular" {
			endo = p
		}
	}
	if endo.Hours != 4.5 || endo.BaseCost != 180 || endo.Prices[0].Price != 225 {
		t.Errorf("Endodoncia Multirradicular = %+v", endo)
	}
}

func TestPosition(t *testing.T) {
	tests := []struct {
		hourly   float64
		expected string
	}{
		{15, "Básico"},
		{20, "Estándar"},
		{29.99, "Estándar"},
		{35, "Premium"},
		{40, "Especialista"},
	}
	for _, tt := range tests {
		if got := Position(tt.hourly); got != tt.expected {
			t.Errorf("Position(%v) = %s, expected %s", tt.hourly, got, tt.expected)
		}
	}
}

func TestProfessionalInputsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(in *ProfessionalInputs)
		wantErr bool
	}{
		{"defaults", func(in *ProfessionalInputs) {}, false},
		{"zero occupancy", func(in *ProfessionalInputs) { in.Operating.Occupancy = 0 }, false},
		{"full occupancy", func(in *ProfessionalInputs) { in.Operating.Occupancy = 1 }, false},
		{"occupancy above one", func(in *ProfessionalInputs) { in.Operating.Occupancy = 75 }, true},
		{"negative occupancy", func(in *ProfessionalInputs) { in.Operating.Occupancy = -0.5 }, true},
		{"negative hours", func(in *ProfessionalInputs) { in.Operating.ProductiveHoursPerDay = -6 }, true},
		{"more hours than a day", func(in *ProfessionalInputs) { in.Operating.ProductiveHoursPerDay = 25 }, true},
		{"vacations longer than a year", func(in *ProfessionalInputs) { in.Operating.VacationWeeks = 60 }, true},
		{"negative sick days", func(in *ProfessionalInputs) { in.Operating.SickDays = -1 }, true},
		{"negative fixed cost", func(in *ProfessionalInputs) { in.Fixed["alquiler_consultorio"] = -400 }, true},
		{"negative variable cost", func(in *ProfessionalInputs) { in.Variable["radiografias"] = -2 }, true},
		{"dropped bucket", func(in *ProfessionalInputs) { in.Personal["reserva_emergencias"] = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := DefaultProfessionalInputs()
			tt.mutate(&in)
			err := in.Validate()
			if tt.wantErr && !errors.Is(err, validation.ErrInvalidInput) {
				t.Errorf("Validate() error = %v, expected ErrInvalidInput", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() unexpected error = %v", err)
			}
		})
	}
}
