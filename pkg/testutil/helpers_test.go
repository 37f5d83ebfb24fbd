package testutil

import (
	"testing"
	"time"

	"github.com/iwvelando/consultorio/internal/revenue"
)

func TestClock(t *testing.T) {
	now := Clock(Now)
	if !now().Equal(Now) || !now().Equal(now()) {
		t.Errorf("Clock() should always return %v", Now)
	}
}

func TestVisit(t *testing.T) {
	v := Visit("2025-03-02", "Consulta", 30000, "Efectivo")
	expected := time.Date(2025, time.March, 2, 10, 0, 0, 0, time.Local)
	if !v.Date.Equal(expected) {
		t.Errorf("Date = %v, expected %v", v.Date.Time, expected)
	}
	if v.Treatment != "Consulta" || v.AmountARS != 30000 || v.PaymentMethod != "Efectivo" {
		t.Errorf("Visit = %+v", v)
	}
}

func TestSampleDocument(t *testing.T) {
	doc := SampleDocument()
	if len(doc.Visits) != 5 {
		t.Errorf("expected 5 visits, got %d", len(doc.Visits))
	}
	if len(doc.ActiveEquipment()) != 1 || len(doc.ActiveFixedExpenses()) != 1 {
		t.Errorf("expected one active equipment item and one active expense")
	}

	var total float64
	for _, v := range doc.Visits {
		total += v.AmountARS
	}
	if total != 230500 {
		t.Errorf("total = %v, expected 230500", total)
	}
}

func TestFindGroup(t *testing.T) {
	groups := revenue.ByTreatment(SampleVisits())

	tests := []struct {
		name          string
		searchName    string
		expectFound   bool
		expectedCount int
	}{
		{"Find Limpieza", "Limpieza", true, 2},
		{"Find Endodoncia", "Endodoncia", true, 1},
		{"Search for non-existent treatment", "Ortodoncia", false, 0},
		{"Search is case sensitive", "limpieza", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			group := FindGroup(groups, tt.searchName)
			if !tt.expectFound {
				if group != nil {
					t.Errorf("FindGroup(%q) = %+v, expected nil", tt.searchName, group)
				}
				return
			}
			if group == nil {
				t.Fatalf("FindGroup(%q) returned nil", tt.searchName)
			}
			if group.Visits != tt.expectedCount {
				t.Errorf("Visits = %d, expected %d", group.Visits, tt.expectedCount)
			}
		})
	}

	if FindGroup(nil, "Limpieza") != nil {
		t.Error("FindGroup(nil) should return nil")
	}
}
