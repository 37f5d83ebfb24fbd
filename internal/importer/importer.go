// Package importer loads visits from spreadsheet exports (CSV) using a
// user-supplied column mapping.
package importer

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/iwvelando/consultorio/internal/records"
	"github.com/iwvelando/consultorio/internal/revenue"
	"github.com/iwvelando/consultorio/pkg/constants"
	"github.com/iwvelando/consultorio/pkg/datetime"
	"github.com/iwvelando/consultorio/pkg/format"
	"github.com/iwvelando/consultorio/pkg/mathutil"
	"github.com/iwvelando/consultorio/pkg/validation"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
)

var (
	// ErrEmptyFile is returned when the upload has no data rows.
	ErrEmptyFile = errors.New("file has no rows")
	// ErrUnknownColumn is returned when the mapping names a column the file lacks.
	ErrUnknownColumn = errors.New("unknown column")
)

// DefaultPreviewRows is how many rows Preview returns when asked for none.
const DefaultPreviewRows = 5

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Mapping tells the importer which column holds each visit field. Patient,
// Treatment and Amount are required.
type Mapping struct {
	Patient       string `json:"paciente"`
	Treatment     string `json:"tratamiento"`
	Amount        string `json:"monto"`
	Date          string `json:"fecha,omitempty"`
	PaymentMethod string `json:"medio_pago,omitempty"`
}

func (m Mapping) trimmed() Mapping {
	return Mapping{
		Patient:       strings.TrimSpace(m.Patient),
		Treatment:     strings.TrimSpace(m.Treatment),
		Amount:        strings.TrimSpace(m.Amount),
		Date:          strings.TrimSpace(m.Date),
		PaymentMethod: strings.TrimSpace(m.PaymentMethod),
	}
}

func (m Mapping) validate(columns []string) error {
	required := map[string]string{"patient": m.Patient, "treatment": m.Treatment, "amount": m.Amount}
	for _, field := range []string{"patient", "treatment", "amount"} {
		if strings.TrimSpace(required[field]) == "" {
			return fmt.Errorf("%w: %s column is required", validation.ErrInvalidInput, field)
		}
	}
	for _, col := range []string{m.Patient, m.Treatment, m.Amount, m.Date, m.PaymentMethod} {
		if col != "" && !contains(columns, col) {
			return fmt.Errorf("%w: %q", ErrUnknownColumn, col)
		}
	}
	return nil
}

// Preview shows the file layout so columns can be mapped.
type Preview struct {
	Columns   []string   `json:"columnas"`
	Rows      [][]string `json:"filas"`
	TotalRows int        `json:"total_filas"`
	Delimiter string     `json:"delimitador"`
}

// RowError explains why a data row was skipped. Rows are numbered from 1.
type RowError struct {
	Row     int    `json:"fila"`
	Message string `json:"error"`
}

// Result summarizes an import.
type Result struct {
	Imported    int             `json:"importadas"`
	Errors      int             `json:"errores"`
	TotalAmount float64         `json:"monto_total"`
	RowErrors   []RowError      `json:"detalle_errores"`
	DateRange   revenue.Range   `json:"rango_fechas"`
	Visits      []records.Visit `json:"-"`
}

// VisitAdder stores a batch of visits with a single save.
type VisitAdder interface {
	AddVisits(visits []records.Visit) (int, error)
}

// Importer parses CSV exports into visits.
type Importer struct {
	logger *zap.Logger
	now    func() time.Time
}

// New creates an importer. now stamps rows without a usable date; nil means time.Now.
func New(logger *zap.Logger, now func() time.Time) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &Importer{logger: logger, now: now}
}

// Read decodes CSV bytes into a string-typed dataframe. Non UTF-8 input is
// read as Windows-1252, the usual encoding of spreadsheet exports, and the
// delimiter is sniffed from the header line.
func (im *Importer) Read(data []byte) (dataframe.DataFrame, rune, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return dataframe.DataFrame{}, 0, fmt.Errorf("failed to decode file: %w", err)
		}
		data = decoded
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return dataframe.DataFrame{}, 0, ErrEmptyFile
	}

	delimiter := sniffDelimiter(data)
	df := dataframe.ReadCSV(bytes.NewReader(data),
		dataframe.WithDelimiter(delimiter),
		dataframe.WithLazyQuotes(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if err := df.Error(); err != nil {
		return dataframe.DataFrame{}, 0, fmt.Errorf("%w: failed to read CSV: %v", validation.ErrInvalidInput, err)
	}
	if df.Nrow() == 0 {
		return dataframe.DataFrame{}, 0, ErrEmptyFile
	}
	if err := trimNames(df); err != nil {
		return dataframe.DataFrame{}, 0, err
	}
	return df, delimiter, nil
}

// Preview returns the columns and up to rows leading rows of the file.
func (im *Importer) Preview(data []byte, rows int) (Preview, error) {
	df, delimiter, err := im.Read(data)
	if err != nil {
		return Preview{}, err
	}
	if rows <= 0 {
		rows = DefaultPreviewRows
	}
	if rows > df.Nrow() {
		rows = df.Nrow()
	}

	columns := df.Names()
	preview := Preview{
		Columns:   columns,
		Rows:      make([][]string, 0, rows),
		TotalRows: df.Nrow(),
		Delimiter: string(delimiter),
	}
	for i := 0; i < rows; i++ {
		row := make([]string, len(columns))
		for j, col := range columns {
			row[j] = cell(df, col, i)
		}
		preview.Rows = append(preview.Rows, row)
	}
	return preview, nil
}

// Parse converts every row into a visit without storing anything. Rows with
// a missing or non-positive amount are counted as errors and skipped.
func (im *Importer) Parse(data []byte, mapping Mapping) (Result, error) {
	df, _, err := im.Read(data)
	if err != nil {
		return Result{}, err
	}
	mapping = mapping.trimmed()
	if err := mapping.validate(df.Names()); err != nil {
		return Result{}, err
	}

	result := Result{RowErrors: []RowError{}, Visits: []records.Visit{}}
	var total float64
	for i := 0; i < df.Nrow(); i++ {
		row := i + 1

		raw := cell(df, mapping.Amount, i)
		amount, err := format.ParseAmount(raw)
		if err != nil || amount <= 0 {
			result.Errors++
			result.RowErrors = append(result.RowErrors, RowError{Row: row, Message: fmt.Sprintf("invalid amount %q", raw)})
			continue
		}

		patient := strings.TrimSpace(cell(df, mapping.Patient, i))
		if patient == "" {
			patient = fmt.Sprintf("Paciente_%d", row)
		}
		treatment := strings.TrimSpace(cell(df, mapping.Treatment, i))
		if treatment == "" {
			treatment = constants.DefaultTreatment
		}
		payment := constants.UnspecifiedPaymentMethod
		if mapping.PaymentMethod != "" {
			if p := strings.TrimSpace(cell(df, mapping.PaymentMethod, i)); p != "" {
				payment = p
			}
		}

		result.Visits = append(result.Visits, records.Visit{
			Date:          datetime.NewTimestamp(im.visitDate(df, mapping.Date, i, row)),
			Patient:       patient,
			Treatment:     treatment,
			AmountARS:     mathutil.RoundWhole(amount),
			PaymentMethod: payment,
		})
		total += amount
	}

	result.Imported = len(result.Visits)
	result.TotalAmount = mathutil.RoundWhole(total)
	result.DateRange = revenue.DateRange(result.Visits)
	return result, nil
}

// Import parses the file and appends the valid rows to store in one save.
func (im *Importer) Import(store VisitAdder, data []byte, mapping Mapping) (Result, error) {
	result, err := im.Parse(data, mapping)
	if err != nil {
		return Result{}, err
	}
	if len(result.Visits) > 0 {
		if _, err := store.AddVisits(result.Visits); err != nil {
			return Result{}, fmt.Errorf("failed to store imported visits: %w", err)
		}
	}
	im.logger.Info("imported visits",
		zap.String("op", "importer.Import"),
		zap.Int("imported", result.Imported),
		zap.Int("errors", result.Errors),
		zap.Float64("totalAmount", result.TotalAmount),
	)
	return result, nil
}

func (im *Importer) visitDate(df dataframe.DataFrame, column string, i, row int) time.Time {
	if column == "" {
		return im.now()
	}
	raw := strings.TrimSpace(cell(df, column, i))
	if raw == "" {
		return im.now()
	}
	parsed, err := datetime.ParseFlexible(raw)
	if err != nil {
		im.logger.Warn("unrecognized date, using import time",
			zap.String("op", "importer.Parse"),
			zap.Int("row", row),
			zap.String("value", raw),
		)
		return im.now()
	}
	return parsed
}

func cell(df dataframe.DataFrame, column string, i int) string {
	el := df.Col(column).Elem(i)
	if el.IsNA() {
		return ""
	}
	return el.String()
}

// trimNames strips surrounding spaces from the header so columns match the
// trimmed names of a mapping.
func trimNames(df dataframe.DataFrame) error {
	names := df.Names()
	seen := make(map[string]bool, len(names))
	changed := false
	for i, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			trimmed = name
		}
		if seen[trimmed] {
			return fmt.Errorf("%w: duplicate column %q", validation.ErrInvalidInput, trimmed)
		}
		seen[trimmed] = true
		if trimmed != name {
			names[i] = trimmed
			changed = true
		}
	}
	if !changed {
		return nil
	}
	if err := df.SetNames(names...); err != nil {
		return fmt.Errorf("%w: failed to rename columns: %v", validation.ErrInvalidInput, err)
	}
	return nil
}

// sniffDelimiter picks the most frequent of ';', ',' and tab in the header line.
func sniffDelimiter(data []byte) rune {
	header := data
	if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
		header = data[:idx]
	}
	best, bestCount := ',', 0
	for _, candidate := range []rune{';', ',', '\t'} {
		if n := bytes.Count(header, []byte(string(candidate))); n > bestCount {
			best, bestCount = candidate, n
		}
	}
	return best
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
