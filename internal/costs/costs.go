// Package costs turns a practice's equipment, fixed expenses and visit
// activity into a real hourly cost, price recommendations and margin health.
package costs

import (
	"fmt"

	"github.com/iwvelando/consultorio/internal/records"
	"github.com/iwvelando/consultorio/pkg/constants"
	"github.com/iwvelando/consultorio/pkg/mathutil"
	"go.uber.org/zap"
)

// Tier is a named markup over base cost, as a fraction (0.25 = 25%).
type Tier struct {
	Name   string  `mapstructure:"name" json:"nombre" yaml:"name"`
	Markup float64 `mapstructure:"markup" json:"markup" yaml:"markup"`
}

// Parameters tune the cost model.
type Parameters struct {
	InflationRate    float64 `mapstructure:"inflationRate"`
	MinimumMarkup    float64 `mapstructure:"minimumMarkup"`
	OptimalMarkup    float64 `mapstructure:"optimalMarkup"`
	Tiers            []Tier  `mapstructure:"tiers"`
	ExcellentMargin  float64 `mapstructure:"excellentMargin"`
	AcceptableMargin float64 `mapstructure:"acceptableMargin"`
}

// DefaultTiers returns the smart calculator's markup tiers.
func DefaultTiers() []Tier {
	return []Tier{
		{Name: "basic", Markup: 0.25},
		{Name: "standard", Markup: 0.50},
		{Name: "premium", Markup: 0.75},
		{Name: "exclusive", Markup: 1.00},
	}
}

// DefaultParameters returns the built-in model parameters.
func DefaultParameters() Parameters {
	return Parameters{
		InflationRate:    constants.DefaultInflationRate,
		MinimumMarkup:    constants.DefaultMinimumMarkup,
		OptimalMarkup:    constants.DefaultOptimalMarkup,
		Tiers:            DefaultTiers(),
		ExcellentMargin:  constants.DefaultExcellentMargin,
		AcceptableMargin: constants.DefaultAcceptableMargin,
	}
}

// EquipmentCost is the amortization of a single equipment item.
type EquipmentCost struct {
	ID             int     `json:"id"`
	Name           string  `json:"nombre"`
	ReplacementUSD float64 `json:"costo_reposicion_usd"`
	AnnualUSD      float64 `json:"amortizacion_anual_usd"`
}

// Analysis is the breakdown behind the real hourly cost.
type Analysis struct {
	HourlyCost         float64         `json:"costo_hora_ars"`
	EquipmentAnnualUSD float64         `json:"costo_equipos_anual_usd"`
	EquipmentAnnual    float64         `json:"costo_equipos_anual"`
	ExpensesAnnual     float64         `json:"costo_gastos_anual"`
	TotalAnnual        float64         `json:"costo_total_anual"`
	AnnualHours        float64         `json:"horas_anuales"`
	ExchangeRate       float64         `json:"tipo_cambio"`
	ActiveEquipment    int             `json:"cantidad_equipos"`
	ActiveExpenses     int             `json:"cantidad_gastos"`
	Items              []EquipmentCost `json:"equipos"`
	Skipped            []string        `json:"equipos_omitidos,omitempty"`
}

// HasCosts reports whether any equipment or expense contributed.
func (a Analysis) HasCosts() bool {
	return a.TotalAnnual > 0
}

// Calculator evaluates the cost model with a fixed set of parameters.
type Calculator struct {
	params Parameters
	logger *zap.Logger
}

// NewCalculator creates a calculator. Missing tiers fall back to the defaults.
func NewCalculator(logger *zap.Logger, params Parameters) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(params.Tiers) == 0 {
		params.Tiers = DefaultTiers()
	}
	return &Calculator{params: params, logger: logger}
}

// HourlyCost amortizes each active equipment item at its inflation-adjusted
// replacement cost over its useful life, adds the annualized active fixed
// expenses and spreads the total over the annual working hours. Items with a
// useful life below one year are skipped. annualHours <= 0 yields an hourly
// cost of 0.
func (c *Calculator) HourlyCost(equipment []records.Equipment, expenses []records.FixedExpense, exchangeRate, annualHours float64) Analysis {
	analysis := Analysis{
		AnnualHours:  annualHours,
		ExchangeRate: exchangeRate,
		Items:        []EquipmentCost{},
	}

	for _, e := range equipment {
		if !e.Active {
			continue
		}
		if e.LifeYears <= 0 {
			c.logger.Warn("skipping equipment with invalid useful life",
				zap.String("op", "costs.Calculator.HourlyCost"),
				zap.Int("id", e.ID),
				zap.String("name", e.Name),
				zap.Int("lifeYears", e.LifeYears),
			)
			analysis.Skipped = append(analysis.Skipped, fmt.Sprintf("%s (%d years)", e.Name, e.LifeYears))
			continue
		}
		replacement := mathutil.Compound(e.PriceUSD, c.params.InflationRate, e.LifeYears)
		annual := replacement / float64(e.LifeYears)
		analysis.Items = append(analysis.Items, EquipmentCost{
			ID:             e.ID,
			Name:           e.Name,
			ReplacementUSD: replacement,
			AnnualUSD:      annual,
		})
		analysis.EquipmentAnnualUSD += annual
		analysis.ActiveEquipment++
	}

	var monthly float64
	for _, f := range expenses {
		if !f.Active {
			continue
		}
		monthly += f.MonthlyAmount
		analysis.ActiveExpenses++
	}

	analysis.EquipmentAnnual = analysis.EquipmentAnnualUSD * exchangeRate
	analysis.ExpensesAnnual = monthly * constants.MonthsPerYear
	analysis.TotalAnnual = analysis.EquipmentAnnual + analysis.ExpensesAnnual
	analysis.HourlyCost = mathutil.SafeDivide(analysis.TotalAnnual, annualHours)
	return analysis
}

// Analyze runs HourlyCost over a whole document using its settings.
func (c *Calculator) Analyze(doc records.Document) Analysis {
	return c.HourlyCost(doc.ActiveEquipment(), doc.ActiveFixedExpenses(), doc.Config.ExchangeRate, doc.Config.AnnualHours)
}
