// Package config defines the application configuration and loads it from a
// YAML file, an optional .env file and CONSULTORIO_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/iwvelando/consultorio/internal/costs"
	"github.com/iwvelando/consultorio/internal/records"
	"github.com/iwvelando/consultorio/pkg/configprocessor"
	"github.com/iwvelando/consultorio/pkg/constants"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for consultorio.
type Configuration struct {
	Logging  LoggingConfig    `mapstructure:"logging"`
	Output   OutputConfig     `mapstructure:"output"`
	Storage  StorageConfig    `mapstructure:"storage"`
	Auth     AuthConfig       `mapstructure:"auth"`
	Defaults DefaultsConfig   `mapstructure:"defaults"`
	Model    costs.Parameters `mapstructure:"model"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `mapstructure:"level"`      // debug, info, warn, error
	Format     string `mapstructure:"format"`     // json, console
	OutputFile string `mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `mapstructure:"format"` // pretty, csv
}

// StorageConfig locates the users file and the per-user documents.
type StorageConfig struct {
	DataDir      string `mapstructure:"dataDir"`
	UsersFile    string `mapstructure:"usersFile"`
	DocumentName string `mapstructure:"documentName"`
}

// AuthConfig holds session and account settings.
type AuthConfig struct {
	JWTSecret         string        `mapstructure:"jwtSecret"`
	TokenDuration     time.Duration `mapstructure:"tokenDuration"`
	MinPasswordLength int           `mapstructure:"minPasswordLength"`
	AdminUser         string        `mapstructure:"adminUser"`
	AdminPassword     string        `mapstructure:"adminPassword"`
}

// DefaultsConfig are the work parameters given to new practices and used
// for any field missing from a stored document.
type DefaultsConfig struct {
	HourlyCost   float64 `mapstructure:"hourlyCost"`
	ProfitMargin float64 `mapstructure:"profitMargin"`
	ExchangeRate float64 `mapstructure:"exchangeRate"`
	AnnualHours  float64 `mapstructure:"annualHours"`
	Region       string  `mapstructure:"region"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("output.format", constants.OutputFormatPretty)

	v.SetDefault("storage.dataDir", constants.DefaultDataDir)
	v.SetDefault("storage.usersFile", constants.DefaultUsersFile)
	v.SetDefault("storage.documentName", constants.DefaultDocumentName)

	v.SetDefault("auth.jwtSecret", "")
	v.SetDefault("auth.tokenDuration", constants.DefaultTokenDuration)
	v.SetDefault("auth.minPasswordLength", constants.DefaultMinPasswordLength)
	v.SetDefault("auth.adminUser", "")
	v.SetDefault("auth.adminPassword", "")

	v.SetDefault("defaults.hourlyCost", constants.DefaultHourlyCost)
	v.SetDefault("defaults.profitMargin", constants.DefaultProfitMargin)
	v.SetDefault("defaults.exchangeRate", constants.DefaultExchangeRate)
	v.SetDefault("defaults.annualHours", constants.DefaultAnnualHours)
	v.SetDefault("defaults.region", "")

	v.SetDefault("model.inflationRate", constants.DefaultInflationRate)
	v.SetDefault("model.minimumMarkup", constants.DefaultMinimumMarkup)
	v.SetDefault("model.optimalMarkup", constants.DefaultOptimalMarkup)
	v.SetDefault("model.excellentMargin", constants.DefaultExcellentMargin)
	v.SetDefault("model.acceptableMargin", constants.DefaultAcceptableMargin)
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("error loading %s: %w", path, err)
		}
	}
	return nil
}

// LoadConfiguration reads the YAML configuration at configPath. A missing
// file yields the built-in defaults; environment variables prefixed with
// CONSULTORIO_ override both (e.g. CONSULTORIO_AUTH_JWTSECRET).
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			v.SetConfigType("yml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error reading config file, %s", err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file, %s", err)
		}
	}

	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	if len(configuration.Model.Tiers) == 0 {
		configuration.Model.Tiers = costs.DefaultTiers()
	}
	return &configuration, nil
}

// Settings converts the defaults section into document settings.
func (c *Configuration) Settings() records.Settings {
	return records.Settings{
		HourlyCost:   c.Defaults.HourlyCost,
		ProfitMargin: c.Defaults.ProfitMargin,
		ExchangeRate: c.Defaults.ExchangeRate,
		AnnualHours:  c.Defaults.AnnualHours,
		Region:       c.Defaults.Region,
	}
}

// CostParameters returns the cost model parameters.
func (c *Configuration) CostParameters() costs.Parameters {
	return c.Model
}

// UsersPath returns the location of the users file. Relative names are
// resolved inside the data directory.
func (c *Configuration) UsersPath() string {
	if filepath.IsAbs(c.Storage.UsersFile) {
		return c.Storage.UsersFile
	}
	return filepath.Join(c.Storage.DataDir, c.Storage.UsersFile)
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	tierNames := make([]string, 0, len(c.Model.Tiers))
	for _, tier := range c.Model.Tiers {
		tierNames = append(tierNames, tier.Name)
	}

	processor := configprocessor.NewProcessor()
	warnings := processor.ValidateConfiguration(
		configprocessor.ModelInfo{
			InflationRate:    c.Model.InflationRate,
			MinimumMarkup:    c.Model.MinimumMarkup,
			OptimalMarkup:    c.Model.OptimalMarkup,
			ExcellentMargin:  c.Model.ExcellentMargin,
			AcceptableMargin: c.Model.AcceptableMargin,
			TierNames:        tierNames,
		},
		configprocessor.DefaultsInfo{
			HourlyCost:   c.Defaults.HourlyCost,
			ProfitMargin: c.Defaults.ProfitMargin,
			ExchangeRate: c.Defaults.ExchangeRate,
			AnnualHours:  c.Defaults.AnnualHours,
		},
		configprocessor.AuthInfo{
			JWTSecret:         c.Auth.JWTSecret,
			MinPasswordLength: c.Auth.MinPasswordLength,
			AdminUser:         c.Auth.AdminUser,
			AdminPassword:     c.Auth.AdminPassword,
		},
	)
	if c.Auth.TokenDuration <= 0 {
		warnings = append(warnings, "Token duration is not positive; sessions will expire immediately")
	}
	return warnings
}
