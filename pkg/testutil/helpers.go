// Package testutil provides shared fixtures for tests.
package testutil

import (
	"time"

	"github.com/iwvelando/consultorio/internal/records"
	"github.com/iwvelando/consultorio/internal/revenue"
	"github.com/iwvelando/consultorio/pkg/constants"
	"github.com/iwvelando/consultorio/pkg/datetime"
)

// Now is the reference time used by fixtures: 15 March 2025, 12:00 local.
var Now = time.Date(2025, time.March, 15, 12, 0, 0, 0, time.Local)

// Clock returns a time source frozen at t.
func Clock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// Visit builds a visit on day (YYYY-MM-DD) at 10:00.
func Visit(day, treatment string, amount float64, payment string) records.Visit {
	date := datetime.MustParseTime(constants.DateLayout, day)
	return records.Visit{
		Date:          datetime.NewTimestamp(date.Add(10 * time.Hour)),
		Patient:       "Paciente " + treatment,
		Treatment:     treatment,
		AmountARS:     amount,
		PaymentMethod: payment,
	}
}

// SampleVisits spans two active months for a total of 230,500, of which
// 175,500 falls in March 2025.
func SampleVisits() []records.Visit {
	return []records.Visit{
		Visit("2025-01-10", "Limpieza", 25000, "Efectivo"),
		Visit("2025-01-20", "Consulta", 30000, "Transferencia"),
		Visit("2025-03-02", "Consulta", 30000, "Efectivo"),
		Visit("2025-03-14", "Endodoncia", 120000, ""),
		Visit("2025-03-14", "Limpieza", 25500, "Efectivo"),
	}
}

// SampleDocument is a practice with the sample visits, one dental chair
// (1000 USD over 5 years), one retired autoclave and a monthly rent of 100,000.
func SampleDocument() records.Document {
	doc := records.NewDocument(records.DefaultSettings())
	doc.Visits = SampleVisits()
	doc.Equipment = []records.Equipment{
		{ID: 1, Name: "Sillón", PriceUSD: 1000, LifeYears: 5, Active: true},
		{ID: 2, Name: "Autoclave", PriceUSD: 800, LifeYears: 4, Active: false},
	}
	doc.FixedExpenses = []records.FixedExpense{
		{ID: 1, Concept: "Alquiler", MonthlyAmount: 100000, Active: true},
	}
	return doc
}

// FindGroup finds a group total by name.
// Returns a pointer to the group if found, nil otherwise.
func FindGroup(groups []revenue.GroupTotal, name string) *revenue.GroupTotal {
	for i := range groups {
		if groups[i].Name == name {
			return &groups[i]
		}
	}
	return nil
}
