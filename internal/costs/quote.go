package costs

import (
	"fmt"
	"math"

	"github.com/iwvelando/consultorio/pkg/constants"
	"github.com/iwvelando/consultorio/pkg/mathutil"
	"github.com/iwvelando/consultorio/pkg/validation"
)

// TierPrice is the price of a job at one markup tier.
type TierPrice struct {
	Name    string  `json:"nombre"`
	Percent float64 `json:"porcentaje"`
	Price   float64 `json:"precio"`
}

// Quote prices a single treatment from its chair time and materials.
type Quote struct {
	Hours      float64     `json:"horas"`
	HourlyCost float64     `json:"costo_por_hora"`
	Labor      float64     `json:"mano_obra"`
	Materials  float64     `json:"materiales"`
	BaseCost   float64     `json:"costo_total"`
	Margin     float64     `json:"margen"`
	Price      float64     `json:"precio_final"`
	Tiers      []TierPrice `json:"niveles"`
}

// Quote computes labor (hours x hourly cost) plus materials, then prices the
// result at the given profit margin and at every configured tier. Money is
// rounded to whole units.
func (c *Calculator) Quote(hours, materials, hourlyCost, profitMargin float64) (Quote, error) {
	if hours <= 0 || math.IsNaN(hours) || math.IsInf(hours, 0) {
		return Quote{}, fmt.Errorf("%w: hours must be greater than zero, got %v", validation.ErrInvalidInput, hours)
	}
	if materials < 0 || math.IsNaN(materials) || math.IsInf(materials, 0) {
		return Quote{}, fmt.Errorf("%w: materials must not be negative, got %v", validation.ErrInvalidInput, materials)
	}

	labor := hours * hourlyCost
	base := labor + materials
	q := Quote{
		Hours:      hours,
		HourlyCost: hourlyCost,
		Labor:      mathutil.RoundWhole(labor),
		Materials:  materials,
		BaseCost:   mathutil.RoundWhole(base),
		Margin:     profitMargin * constants.PercentageMultiplier,
		Price:      mathutil.RoundWhole(mathutil.ApplyMarkup(base, profitMargin)),
		Tiers:      make([]TierPrice, 0, len(c.params.Tiers)),
	}
	for _, tier := range c.params.Tiers {
		q.Tiers = append(q.Tiers, TierPrice{
			Name:    tier.Name,
			Percent: tier.Markup * constants.PercentageMultiplier,
			Price:   mathutil.RoundWhole(mathutil.ApplyMarkup(base, tier.Markup)),
		})
	}
	return q, nil
}
