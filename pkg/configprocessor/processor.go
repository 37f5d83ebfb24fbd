// Package configprocessor provides shared configuration processing utilities.
package configprocessor

import "fmt"

// ModelInfo represents the cost model settings to check
type ModelInfo struct {
	InflationRate    float64
	MinimumMarkup    float64
	OptimalMarkup    float64
	ExcellentMargin  float64
	AcceptableMargin float64
	TierNames        []string
}

// DefaultsInfo represents the settings given to new practices
type DefaultsInfo struct {
	HourlyCost   float64
	ProfitMargin float64
	ExchangeRate float64
	AnnualHours  float64
}

// AuthInfo represents the session settings to check
type AuthInfo struct {
	JWTSecret         string
	MinPasswordLength int
	AdminUser         string
	AdminPassword     string
}

// Processor handles configuration processing and validation
type Processor struct{}

// NewProcessor creates a new configuration processor
func NewProcessor() *Processor {
	return &Processor{}
}

// ValidateConfiguration validates the configuration and returns warnings
func (p *Processor) ValidateConfiguration(model ModelInfo, defaults DefaultsInfo, auth AuthInfo) []string {
	var warnings []string
	warnings = append(warnings, p.validateModel(model)...)
	warnings = append(warnings, p.validateDefaults(defaults)...)
	warnings = append(warnings, p.validateAuth(auth)...)
	return warnings
}

func (p *Processor) validateModel(model ModelInfo) []string {
	var warnings []string
	if model.InflationRate < 0 {
		warnings = append(warnings, fmt.Sprintf("Inflation rate is negative (%.2f); equipment will be amortized below its price", model.InflationRate))
	}
	if model.OptimalMarkup < model.MinimumMarkup {
		warnings = append(warnings, fmt.Sprintf("Optimal markup (%.2f) is lower than minimum markup (%.2f)", model.OptimalMarkup, model.MinimumMarkup))
	}
	if model.AcceptableMargin > model.ExcellentMargin {
		warnings = append(warnings, fmt.Sprintf("Acceptable margin threshold (%.1f) is above excellent threshold (%.1f)", model.AcceptableMargin, model.ExcellentMargin))
	}
	seen := make(map[string]bool)
	for _, name := range model.TierNames {
		if name == "" {
			warnings = append(warnings, "Pricing tier without a name")
			continue
		}
		if seen[name] {
			warnings = append(warnings, "Pricing tier '"+name+"' is defined more than once")
		}
		seen[name] = true
	}
	return warnings
}

func (p *Processor) validateDefaults(defaults DefaultsInfo) []string {
	var warnings []string
	if defaults.AnnualHours <= 0 {
		warnings = append(warnings, "Default annual hours is not positive; hourly cost will be reported as 0")
	}
	if defaults.ExchangeRate <= 0 {
		warnings = append(warnings, "Default exchange rate is not positive; equipment costs will be ignored")
	}
	if defaults.ProfitMargin < 0 {
		warnings = append(warnings, "Default profit margin is negative")
	}
	return warnings
}

func (p *Processor) validateAuth(auth AuthInfo) []string {
	var warnings []string
	if auth.JWTSecret == "" {
		warnings = append(warnings, "JWT secret is empty; the API server will refuse to start")
	} else if len(auth.JWTSecret) < 32 {
		warnings = append(warnings, "JWT secret is shorter than 32 characters")
	}
	if auth.MinPasswordLength < 8 {
		warnings = append(warnings, fmt.Sprintf("Minimum password length %d is below 8", auth.MinPasswordLength))
	}
	if auth.AdminUser != "" && auth.AdminPassword == "" {
		warnings = append(warnings, "Admin user '"+auth.AdminUser+"' is configured without a password and will not be created")
	}
	return warnings
}
