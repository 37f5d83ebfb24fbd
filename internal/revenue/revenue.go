// Package revenue aggregates recorded visits into summaries and series.
package revenue

import (
	"sort"
	"time"

	"github.com/iwvelando/consultorio/internal/costs"
	"github.com/iwvelando/consultorio/internal/records"
	"github.com/iwvelando/consultorio/pkg/constants"
	"github.com/iwvelando/consultorio/pkg/datetime"
	"github.com/iwvelando/consultorio/pkg/mathutil"
)

// Summary is the headline view of a practice's visits. Money is rounded to
// whole units.
type Summary struct {
	TotalVisits      int     `json:"total_consultas"`
	TotalRevenue     float64 `json:"ingreso_total"`
	AverageVisit     float64 `json:"promedio_consulta"`
	PopularTreatment string  `json:"tratamiento_popular"`
	CurrentMonth     float64 `json:"ingresos_mes"`
	ActiveMonths     int     `json:"meses_activos"`
	AverageMonthly   float64 `json:"ingreso_mensual_promedio"`
}

// Activity converts visits into cost model input using unrounded totals.
func Activity(visits []records.Visit) costs.Activity {
	months := make(map[string]struct{})
	var total float64
	for _, v := range visits {
		total += v.AmountARS
		months[datetime.MonthKey(v.Date.Time)] = struct{}{}
	}
	return costs.Activity{
		Visits:       len(visits),
		TotalRevenue: total,
		ActiveMonths: len(months),
	}
}

// Summarize aggregates visits; now selects the current calendar month.
func Summarize(visits []records.Visit, now time.Time) Summary {
	summary := Summary{PopularTreatment: constants.NotAvailable}
	if len(visits) == 0 {
		return summary
	}

	var total, month float64
	months := make(map[string]struct{})
	for _, v := range visits {
		total += v.AmountARS
		months[datetime.MonthKey(v.Date.Time)] = struct{}{}
		if datetime.SameMonth(v.Date.Time, now) {
			month += v.AmountARS
		}
	}

	summary.TotalVisits = len(visits)
	summary.TotalRevenue = mathutil.RoundWhole(total)
	summary.AverageVisit = mathutil.RoundWhole(total / float64(len(visits)))
	summary.PopularTreatment = popularTreatment(visits)
	summary.CurrentMonth = mathutil.RoundWhole(month)
	summary.ActiveMonths = len(months)
	summary.AverageMonthly = mathutil.RoundWhole(total / float64(len(months)))
	return summary
}

// popularTreatment returns the most frequent treatment; ties go to the one
// recorded first.
func popularTreatment(visits []records.Visit) string {
	counts := make(map[string]int)
	var order []string
	for _, v := range visits {
		if _, seen := counts[v.Treatment]; !seen {
			order = append(order, v.Treatment)
		}
		counts[v.Treatment]++
	}
	best := constants.NotAvailable
	bestCount := 0
	for _, name := range order {
		if counts[name] > bestCount {
			best = name
			bestCount = counts[name]
		}
	}
	return best
}

// MonthTotal is the income of one calendar month.
type MonthTotal struct {
	Month   string  `json:"mes"`
	Visits  int     `json:"consultas"`
	Revenue float64 `json:"ingresos"`
}

// Monthly returns income per "YYYY-MM", oldest first.
func Monthly(visits []records.Visit) []MonthTotal {
	index := make(map[string]int)
	var series []MonthTotal
	for _, v := range visits {
		key := datetime.MonthKey(v.Date.Time)
		i, ok := index[key]
		if !ok {
			i = len(series)
			index[key] = i
			series = append(series, MonthTotal{Month: key})
		}
		series[i].Visits++
		series[i].Revenue += v.AmountARS
	}
	sort.Slice(series, func(a, b int) bool { return series[a].Month < series[b].Month })
	if series == nil {
		return []MonthTotal{}
	}
	return series
}

// GroupTotal counts and sums visits sharing a label.
type GroupTotal struct {
	Name    string  `json:"nombre"`
	Visits  int     `json:"consultas"`
	Revenue float64 `json:"ingresos"`
}

func groupBy(visits []records.Visit, label func(records.Visit) string) []GroupTotal {
	index := make(map[string]int)
	groups := []GroupTotal{}
	for _, v := range visits {
		key := label(v)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, GroupTotal{Name: key})
		}
		groups[i].Visits++
		groups[i].Revenue += v.AmountARS
	}
	sort.SliceStable(groups, func(a, b int) bool { return groups[a].Visits > groups[b].Visits })
	return groups
}

// ByTreatment groups visits by treatment, most frequent first.
func ByTreatment(visits []records.Visit) []GroupTotal {
	return groupBy(visits, func(v records.Visit) string { return v.Treatment })
}

// ByPaymentMethod groups visits by payment method, most frequent first.
// Visits without one are grouped as "No especificado".
func ByPaymentMethod(visits []records.Visit) []GroupTotal {
	return groupBy(visits, func(v records.Visit) string {
		if v.PaymentMethod == "" {
			return constants.UnspecifiedPaymentMethod
		}
		return v.PaymentMethod
	})
}

// DayTotal is the income of one day.
type DayTotal struct {
	Date    string  `json:"fecha"`
	Visits  int     `json:"consultas"`
	Revenue float64 `json:"ingresos"`
}

// PeriodReport describes the visits inside a date range.
type PeriodReport struct {
	From           string       `json:"desde"`
	To             string       `json:"hasta"`
	Visits         int          `json:"consultas"`
	Revenue        float64      `json:"ingresos"`
	Average        float64      `json:"promedio"`
	VisitsPerDay   float64      `json:"consultas_por_dia"`
	Daily          []DayTotal   `json:"diario"`
	PaymentMethods []GroupTotal `json:"medios_pago"`
}

// Period reports on visits whose calendar day falls within [from, to].
func Period(visits []records.Visit, from, to time.Time) PeriodReport {
	start := datetime.StartOfDay(from)
	end := datetime.StartOfDay(to)
	report := PeriodReport{
		From:           start.Format(constants.DateLayout),
		To:             end.Format(constants.DateLayout),
		Daily:          []DayTotal{},
		PaymentMethods: []GroupTotal{},
	}

	var selected []records.Visit
	for _, v := range visits {
		day := datetime.StartOfDay(v.Date.Time)
		if day.Before(start) || day.After(end) {
			continue
		}
		selected = append(selected, v)
	}
	if len(selected) == 0 {
		return report
	}

	days := make(map[string]int)
	for _, v := range selected {
		report.Revenue += v.AmountARS
		key := v.Date.Format(constants.DateLayout)
		i, ok := days[key]
		if !ok {
			i = len(report.Daily)
			days[key] = i
			report.Daily = append(report.Daily, DayTotal{Date: key})
		}
		report.Daily[i].Visits++
		report.Daily[i].Revenue += v.AmountARS
	}
	sort.Slice(report.Daily, func(a, b int) bool { return report.Daily[a].Date < report.Daily[b].Date })

	span := int(end.Sub(start).Hours()/24+0.5) + 1
	report.Visits = len(selected)
	report.Average = report.Revenue / float64(len(selected))
	report.VisitsPerDay = mathutil.SafeDivide(float64(len(selected)), float64(span))
	report.PaymentMethods = ByPaymentMethod(selected)
	return report
}

// Range is the span covered by the recorded visits.
type Range struct {
	First string `json:"primera"`
	Last  string `json:"ultima"`
}

// DateRange returns the first and last visit dates as dd/mm/yyyy, or "N/A"
// for both when there are no visits.
func DateRange(visits []records.Visit) Range {
	if len(visits) == 0 {
		return Range{First: constants.NotAvailable, Last: constants.NotAvailable}
	}
	first, last := visits[0].Date.Time, visits[0].Date.Time
	for _, v := range visits[1:] {
		if v.Date.Before(first) {
			first = v.Date.Time
		}
		if v.Date.After(last) {
			last = v.Date.Time
		}
	}
	return Range{
		First: first.Format(constants.DisplayDateLayout),
		Last:  last.Format(constants.DisplayDateLayout),
	}
}
