// Package constants provides shared constants for the consultorio application.
package constants

// DateLayout is the calendar date format used in query parameters and exports.
const DateLayout = "2006-01-02"

// MonthLayout is the key format for monthly aggregations.
const MonthLayout = "2006-01"

// DisplayDateLayout is the day-first date format shown to users.
const DisplayDateLayout = "02/01/2006"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// WeeksPerYear is used by the professional calculator to derive working days
	WeeksPerYear = 52

	// WorkDaysPerWeek is the average number of working days per week (5.5 days)
	WorkDaysPerWeek = 5.5

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)

// Cost model defaults
const (
	// DefaultInflationRate is the annual inflation applied to equipment replacement cost
	DefaultInflationRate = 0.04

	// DefaultMinimumMarkup is the markup over hourly cost for the minimum price (50%)
	DefaultMinimumMarkup = 0.5

	// DefaultOptimalMarkup is the markup over hourly cost for the optimal price (100%)
	DefaultOptimalMarkup = 1.0

	// DefaultExcellentMargin is the margin percentage above which health is excellent
	DefaultExcellentMargin = 50.0

	// DefaultAcceptableMargin is the margin percentage above which health is acceptable
	DefaultAcceptableMargin = 25.0
)

// Per-user settings defaults
const (
	DefaultHourlyCost   = 29000.0
	DefaultProfitMargin = 0.40
	DefaultExchangeRate = 1335.0
	DefaultAnnualHours  = 1100.0
)

// Display placeholders
const (
	// NotAvailable is shown when a value cannot be derived from the data
	NotAvailable = "N/A"

	// NoData is shown when a ratio has no denominator yet
	NoData = "Sin datos"

	// DefaultTreatment is assigned to imported visits without a treatment
	DefaultTreatment = "Consulta"

	// UnspecifiedPaymentMethod is assigned to imported visits without a payment method
	UnspecifiedPaymentMethod = "No especificado"

	// DefaultCurrencyCode is the local currency label
	DefaultCurrencyCode = "ARS"
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "consultorio.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix is the prefix for environment variable overrides
	EnvPrefix = "CONSULTORIO"
)

// Storage defaults
const (
	DefaultDataDir      = "data"
	DefaultUsersFile    = "usuarios.json"
	DefaultDocumentName = "dental_data.json"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum CSV upload size (2 MB)
	DefaultMaxUploadSizeBytes int64 = 2 * 1024 * 1024

	// DefaultMetricsPath is where Prometheus metrics are exposed
	DefaultMetricsPath = "/metrics"

	// DefaultRequestTimeout bounds a single API request
	DefaultRequestTimeout = "30s"
)

// Auth defaults
const (
	DefaultTokenDuration     = "24h"
	DefaultMinPasswordLength = 8
)
