package costs

import (
	"github.com/iwvelando/consultorio/pkg/constants"
	"github.com/iwvelando/consultorio/pkg/format"
	"github.com/iwvelando/consultorio/pkg/mathutil"
)

// MarginLevel classifies projected profitability.
type MarginLevel string

// Margin levels.
const (
	MarginExcellent  MarginLevel = "excellent"
	MarginAcceptable MarginLevel = "acceptable"
	MarginLow        MarginLevel = "low"
)

// Activity is the visit history the recommendations are measured against.
type Activity struct {
	Visits       int
	TotalRevenue float64
	// ActiveMonths is the number of distinct calendar months with visits.
	ActiveMonths int
}

// AverageVisit is the mean revenue per visit, 0 without visits.
func (a Activity) AverageVisit() float64 {
	return mathutil.SafeDivide(a.TotalRevenue, float64(a.Visits))
}

// ProjectedAnnualRevenue extrapolates the average active month to a year.
func (a Activity) ProjectedAnnualRevenue() float64 {
	return mathutil.SafeDivide(a.TotalRevenue, float64(a.ActiveMonths)) * constants.MonthsPerYear
}

// MarginHealth compares projected revenue with the annual cost.
type MarginHealth struct {
	ProjectedRevenue float64     `json:"ingresos_anuales_proyectados"`
	Percent          float64     `json:"porcentaje"`
	Level            MarginLevel `json:"nivel"`
}

// Share is one slice of the annual cost composition.
type Share struct {
	Category string  `json:"categoria"`
	Amount   float64 `json:"monto"`
	Percent  float64 `json:"porcentaje"`
}

// Recommendation is the pricing advice derived from an Analysis.
type Recommendation struct {
	MinimumPrice    float64      `json:"precio_minimo"`
	OptimalPrice    float64      `json:"precio_optimo"`
	BreakEvenVisits *float64     `json:"consultas_break_even"`
	BreakEvenLabel  string       `json:"consultas_break_even_texto"`
	Margin          MarginHealth `json:"margen"`
	Efficiency      float64      `json:"eficiencia"`
	Composition     []Share      `json:"composicion"`
}

// Recommend derives prices, break-even and margin health. Ratios without a
// denominator come back as 0 or, for break-even, nil with a "Sin datos" label.
func (c *Calculator) Recommend(analysis Analysis, activity Activity) Recommendation {
	rec := Recommendation{
		MinimumPrice: mathutil.ApplyMarkup(analysis.HourlyCost, c.params.MinimumMarkup),
		OptimalPrice: mathutil.ApplyMarkup(analysis.HourlyCost, c.params.OptimalMarkup),
		Composition:  Composition(analysis),
	}

	if avg := activity.AverageVisit(); avg > 0 {
		visits := analysis.TotalAnnual / avg
		rec.BreakEvenVisits = &visits
		rec.BreakEvenLabel = format.Count(visits) + " /año"
	} else {
		rec.BreakEvenLabel = constants.NoData
	}

	rec.Margin = c.MarginHealth(activity.ProjectedAnnualRevenue(), analysis.TotalAnnual)

	months := activity.ActiveMonths
	if months < 1 {
		months = 1
	}
	perMonth := float64(activity.Visits) / float64(months)
	rec.Efficiency = mathutil.SafeDivide(perMonth*constants.MonthsPerYear, analysis.AnnualHours)
	return rec
}

// MarginHealth computes (revenue - cost) / revenue as a percentage and
// classifies it. Revenue <= 0 gives a 0% margin.
func (c *Calculator) MarginHealth(annualRevenue, annualCost float64) MarginHealth {
	var percent float64
	if annualRevenue > 0 {
		percent = (annualRevenue - annualCost) / annualRevenue * constants.PercentageMultiplier
	}
	return MarginHealth{
		ProjectedRevenue: annualRevenue,
		Percent:          percent,
		Level:            c.ClassifyMargin(percent),
	}
}

// ClassifyMargin maps a margin percentage to a level. A margin must exceed a
// threshold to reach its level.
func (c *Calculator) ClassifyMargin(percent float64) MarginLevel {
	switch {
	case percent > c.params.ExcellentMargin:
		return MarginExcellent
	case percent > c.params.AcceptableMargin:
		return MarginAcceptable
	default:
		return MarginLow
	}
}

// Composition splits the annual cost into equipment and fixed expenses.
func Composition(analysis Analysis) []Share {
	return []Share{
		{
			Category: "Equipos (Amortización)",
			Amount:   analysis.EquipmentAnnual,
			Percent:  mathutil.CalculatePercentage(analysis.EquipmentAnnual, analysis.TotalAnnual),
		},
		{
			Category: "Gastos Fijos",
			Amount:   analysis.ExpensesAnnual,
			Percent:  mathutil.CalculatePercentage(analysis.ExpensesAnnual, analysis.TotalAnnual),
		},
	}
}
