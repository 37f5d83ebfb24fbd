// Package output formats a practice's cost and revenue report for the terminal.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/iwvelando/consultorio/internal/costs"
	"github.com/iwvelando/consultorio/internal/records"
	"github.com/iwvelando/consultorio/internal/revenue"
	"github.com/iwvelando/consultorio/pkg/format"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Report is everything printed for one user.
type Report struct {
	User           string
	Summary        revenue.Summary
	Analysis       costs.Analysis
	Recommendation costs.Recommendation
	Monthly        []revenue.MonthTotal
	Treatments     []revenue.GroupTotal
}

// NewReport evaluates doc with calc as of now.
func NewReport(user string, doc records.Document, calc *costs.Calculator, now time.Time) Report {
	analysis := calc.Analyze(doc)
	return Report{
		User:           user,
		Summary:        revenue.Summarize(doc.Visits, now),
		Analysis:       analysis,
		Recommendation: calc.Recommend(analysis, revenue.Activity(doc.Visits)),
		Monthly:        revenue.Monthly(doc.Visits),
		Treatments:     revenue.ByTreatment(doc.Visits),
	}
}

type row struct {
	section string
	metric  string
	value   string
}

func (r Report) rows(p *message.Printer) []row {
	money := func(v float64) string {
		if v < 0 {
			return "-$" + format.NumericCurrency(-v)
		}
		return "$" + format.NumericCurrency(v)
	}
	rec := r.Recommendation

	rows := []row{
		{"summary", "visits", format.Count(float64(r.Summary.TotalVisits))},
		{"summary", "total revenue", money(r.Summary.TotalRevenue)},
		{"summary", "average visit", money(r.Summary.AverageVisit)},
		{"summary", "current month", money(r.Summary.CurrentMonth)},
		{"summary", "average month", money(r.Summary.AverageMonthly)},
		{"summary", "popular treatment", r.Summary.PopularTreatment},
		{"costs", "hourly cost", money(r.Analysis.HourlyCost)},
		{"costs", "equipment per year", money(r.Analysis.EquipmentAnnual)},
		{"costs", "equipment per year (USD)", format.Currency(r.Analysis.EquipmentAnnualUSD, "USD")},
		{"costs", "fixed expenses per year", money(r.Analysis.ExpensesAnnual)},
		{"costs", "total per year", money(r.Analysis.TotalAnnual)},
		{"costs", "active equipment", p.Sprintf("%d", r.Analysis.ActiveEquipment)},
		{"costs", "active expenses", p.Sprintf("%d", r.Analysis.ActiveExpenses)},
	}
	if !r.Analysis.HasCosts() {
		rows = append(rows, row{"costs", "note", "no active equipment or fixed expenses"})
	}
	for _, name := range r.Analysis.Skipped {
		rows = append(rows, row{"costs", "skipped equipment", name})
	}
	rows = append(rows, []row{
		{"pricing", "minimum price", money(rec.MinimumPrice)},
		{"pricing", "optimal price", money(rec.OptimalPrice)},
		{"pricing", "break-even visits", rec.BreakEvenLabel},
		{"pricing", "margin", fmt.Sprintf("%s (%s)", format.Percent(rec.Margin.Percent), rec.Margin.Level)},
		{"pricing", "visits per hour", p.Sprintf("%.2f", rec.Efficiency)},
	}...)
	for _, m := range r.Monthly {
		rows = append(rows, row{"monthly", m.Month, p.Sprintf("%d visits, %s", m.Visits, money(m.Revenue))})
	}
	for _, t := range r.Treatments {
		rows = append(rows, row{"treatments", t.Name, p.Sprintf("%d visits, %s", t.Visits, money(t.Revenue))})
	}
	return rows
}

// PrettyFormat writes a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, report Report) {
	p := message.NewPrinter(language.English)
	_, _ = fmt.Fprintf(w, "--- Report for %s ---\n", report.User)
	section := ""
	for _, r := range report.rows(p) {
		if r.section != section {
			section = r.section
			_, _ = fmt.Fprintf(w, "\n[%s]\n", section)
		}
		_, _ = fmt.Fprintf(w, "%-24s | %s\n", r.metric, r.value)
	}
}

// CsvFormat writes the report in comma-separated value format.
func CsvFormat(w io.Writer, report Report) {
	p := message.NewPrinter(language.English)
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"section", "metric", "value"})
	for _, r := range report.rows(p) {
		_ = cw.Write([]string{r.section, r.metric, r.value})
	}
	cw.Flush()
}
