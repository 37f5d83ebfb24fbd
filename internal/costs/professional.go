package costs

import (
	"fmt"
	"math"
	"sort"

	"github.com/iwvelando/consultorio/pkg/constants"
	"github.com/iwvelando/consultorio/pkg/mathutil"
	"github.com/iwvelando/consultorio/pkg/validation"
)

// Operating describes how much of the calendar turns into billable time.
type Operating struct {
	ProductiveHoursPerDay float64 `json:"horas_dia_productivas"`
	Occupancy             float64 `json:"porcentaje_ocupacion"`
	VacationWeeks         float64 `json:"semanas_vacaciones"`
	SickDays              float64 `json:"dias_enfermedad"`
}

// ProfessionalInputs are the cost buckets of the professional calculator,
// all in USD: monthly fixed costs, per-visit variable costs and monthly
// personal costs.
type ProfessionalInputs struct {
	Fixed     map[string]float64 `json:"fijos"`
	Variable  map[string]float64 `json:"variables"`
	Personal  map[string]float64 `json:"personales"`
	Operating Operating          `json:"operativos"`
}

// DefaultProfessionalInputs returns sector averages for a basic dental office.
func DefaultProfessionalInputs() ProfessionalInputs {
	return ProfessionalInputs{
		Fixed: map[string]float64{
			"alquiler_consultorio":    400,
			"servicios_publicos":      80,
			"seguros_profesionales":   50,
			"amortizacion_equipos":    200,
			"mantenimiento_equipos":   60,
			"software_sistemas":       30,
			"marketing_basico":        100,
			"limpieza_mantenimiento":  80,
			"contabilidad_legal":      120,
			"telefono_comunicaciones": 25,
		},
		Variable: map[string]float64{
			"insumos_descartables": 2.5,
			"materiales_basicos":   3.0,
			"instrumental_usa":     1.5,
			"laboratorio_promedio": 8.0,
			"radiografias":         2.0,
			"medicamentos":         1.0,
		},
		Personal: map[string]float64{
			"sueldo_deseado":       2000,
			"aportes_jubilatorios": 300,
			"obra_social_privada":  80,
			"gastos_capacitacion":  100,
			"gastos_profesionales": 150,
			"reserva_vacaciones":   200,
			"reserva_emergencias":  150,
		},
		Operating: Operating{
			ProductiveHoursPerDay: 6,
			Occupancy:             0.75,
			VacationWeeks:         3,
			SickDays:              5,
		},
	}
}

// Validate rejects negative or non-finite amounts and operating parameters
// outside the calendar: occupancy is a fraction between 0 and 1, productive
// hours fit in a day and vacations fit in a year.
func (in ProfessionalInputs) Validate() error {
	buckets := []struct {
		name   string
		values map[string]float64
	}{
		{"fijos", in.Fixed},
		{"variables", in.Variable},
		{"personales", in.Personal},
	}
	for _, b := range buckets {
		keys := make([]string, 0, len(b.values))
		for k := range b.values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if v := b.values[k]; v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: %s.%s must be a non-negative amount, got %v", validation.ErrInvalidInput, b.name, k, v)
			}
		}
	}

	op := in.Operating
	switch {
	case op.Occupancy < 0 || op.Occupancy > 1:
		return fmt.Errorf("%w: occupancy must be between 0 and 1, got %v", validation.ErrInvalidInput, op.Occupancy)
	case op.ProductiveHoursPerDay < 0 || op.ProductiveHoursPerDay > 24:
		return fmt.Errorf("%w: productive hours per day must be between 0 and 24, got %v", validation.ErrInvalidInput, op.ProductiveHoursPerDay)
	case op.VacationWeeks < 0 || op.VacationWeeks > constants.WeeksPerYear:
		return fmt.Errorf("%w: vacation weeks must be between 0 and %v, got %v", validation.ErrInvalidInput, constants.WeeksPerYear, op.VacationWeeks)
	case op.SickDays < 0:
		return fmt.Errorf("%w: sick days must not be negative, got %v", validation.ErrInvalidInput, op.SickDays)
	}
	return nil
}

// ProfessionalBreakdown splits the monthly total by bucket.
type ProfessionalBreakdown struct {
	Fixed            float64 `json:"fijos_mes"`
	Personal         float64 `json:"personales_mes"`
	Variable         float64 `json:"variables_mes"`
	VariablePerVisit float64 `json:"costo_variable_consulta"`
}

// ProfessionalResult is the comprehensive hourly cost.
type ProfessionalResult struct {
	HourlyCost      float64               `json:"costo_por_hora"`
	MonthlyTotal    float64               `json:"costo_total_mensual"`
	ProductiveHours float64               `json:"horas_productivas_mes"`
	EstimatedVisits float64               `json:"consultas_estimadas_mes"`
	EffectiveDays   float64               `json:"dias_efectivos_mes"`
	Breakdown       ProfessionalBreakdown `json:"breakdown"`
	Position        string                `json:"posicionamiento"`
	Prices          []TreatmentPrice      `json:"precios"`
}

// TreatmentTime is the average chair time of a treatment.
type TreatmentTime struct {
	Treatment string  `json:"tratamiento"`
	Hours     float64 `json:"horas"`
}

// TreatmentTimes returns the built-in chair time table.
func TreatmentTimes() []TreatmentTime {
	return []TreatmentTime{
		{"Consulta", 0.5},
		{"Consulta de Urgencia", 0.75},
		{"Limpieza", 1.0},
		{"Operatoria Simple", 1.5},
		{"Operatoria Compleja", 2.5},
		{"Endodoncia Unirradicular", 3.0},
		{"Endodoncia Multirradicular", 4.5},
		{"Placa Estabilizadora", 2.0},
		{"Provisorio", 1.0},
		{"Corona Metálica", 3.5},
		{"Corona de Porcelana", 4.0},
		{"Extracción Simple", 0.75},
		{"Extracción Compleja", 2.0},
	}
}

// ProfessionalMargins are the target margins priced by the professional calculator.
func ProfessionalMargins() []Tier {
	return []Tier{
		{Name: "Supervivencia (15%)", Markup: 0.15},
		{Name: "Mínimo Sector (25%)", Markup: 0.25},
		{Name: "Competitivo (40%)", Markup: 0.40},
		{Name: "Premium (60%)", Markup: 0.60},
		{Name: "Especialista (80%)", Markup: 0.80},
	}
}

// TreatmentPrice lists a treatment's base cost and its price per margin.
type TreatmentPrice struct {
	Treatment string      `json:"tratamiento"`
	Hours     float64     `json:"horas"`
	BaseCost  float64     `json:"costo_base"`
	Prices    []TierPrice `json:"precios"`
}

func sum(values map[string]float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

// Professional computes the comprehensive hourly cost: effective days come
// from the working weeks left after vacations and sick days, productive
// hours scale by occupancy, and one visit is assumed per productive hour.
// Zero productive hours yield an hourly cost of 0.
func Professional(in ProfessionalInputs) ProfessionalResult {
	fixed := sum(in.Fixed)
	perVisit := sum(in.Variable)
	personal := sum(in.Personal)

	workWeeks := constants.WeeksPerYear - in.Operating.VacationWeeks
	effectiveDaysYear := workWeeks*constants.WorkDaysPerWeek - in.Operating.SickDays
	effectiveDays := effectiveDaysYear / constants.MonthsPerYear
	productiveHours := effectiveDays * in.Operating.ProductiveHoursPerDay * in.Operating.Occupancy
	if productiveHours < 0 {
		productiveHours = 0
	}
	visits := productiveHours
	variable := perVisit * visits
	monthly := fixed + personal + variable
	hourly := mathutil.SafeDivide(monthly, productiveHours)

	return ProfessionalResult{
		HourlyCost:      mathutil.Round(hourly),
		MonthlyTotal:    mathutil.Round(monthly),
		ProductiveHours: roundTenth(productiveHours),
		EstimatedVisits: mathutil.RoundWhole(visits),
		EffectiveDays:   roundTenth(effectiveDays),
		Breakdown: ProfessionalBreakdown{
			Fixed:            mathutil.Round(fixed),
			Personal:         mathutil.Round(personal),
			Variable:         mathutil.Round(variable),
			VariablePerVisit: mathutil.Round(perVisit),
		},
		Position: Position(hourly),
		Prices:   RecommendedPrices(mathutil.Round(hourly), ProfessionalMargins()),
	}
}

// RecommendedPrices prices every treatment in the time table at each margin.
func RecommendedPrices(hourlyCost float64, margins []Tier) []TreatmentPrice {
	times := TreatmentTimes()
	prices := make([]TreatmentPrice, 0, len(times))
	for _, tt := range times {
		base := hourlyCost * tt.Hours
		row := TreatmentPrice{
			Treatment: tt.Treatment,
			Hours:     tt.Hours,
			BaseCost:  mathutil.Round(base),
			Prices:    make([]TierPrice, 0, len(margins)),
		}
		for _, m := range margins {
			row.Prices = append(row.Prices, TierPrice{
				Name:    m.Name,
				Percent: m.Markup * constants.PercentageMultiplier,
				Price:   mathutil.Round(mathutil.ApplyMarkup(base, m.Markup)),
			})
		}
		prices = append(prices, row)
	}
	return prices
}

// Position places a USD hourly cost against sector benchmarks.
func Position(hourlyUSD float64) string {
	switch {
	case hourlyUSD < 20:
		return "Básico"
	case hourlyUSD < 30:
		return "Estándar"
	case hourlyUSD < 40:
		return "Premium"
	default:
		return "Especialista"
	}
}

func roundTenth(v float64) float64 {
	return mathutil.RoundWhole(v*10) / 10
}
