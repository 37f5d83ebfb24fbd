package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/consultorio/pkg/constants"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadConfigurationDefaults(t *testing.T) {
	tests := []struct {
		name       string
		configPath string
	}{
		{"No path", ""},
		{"Non-existent config file", filepath.Join(t.TempDir(), "nonexistent.yaml")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadConfiguration(tt.configPath)
			if err != nil {
				t.Fatalf("LoadConfiguration() error = %v", err)
			}
			if config.Storage.DocumentName != constants.DefaultDocumentName {
				t.Errorf("DocumentName = %q", config.Storage.DocumentName)
			}
			if config.Auth.TokenDuration != 24*time.Hour {
				t.Errorf("TokenDuration = %v", config.Auth.TokenDuration)
			}
			if config.Defaults.AnnualHours != constants.DefaultAnnualHours {
				t.Errorf("AnnualHours = %v", config.Defaults.AnnualHours)
			}
			if config.Model.InflationRate != constants.DefaultInflationRate {
				t.Errorf("InflationRate = %v", config.Model.InflationRate)
			}
			if len(config.Model.Tiers) != 4 {
				t.Errorf("expected default tiers, got %v", config.Model.Tiers)
			}
		})
	}
}

func TestLoadConfigurationFromFile(t *testing.T) {
	path := writeFile(t, "consultorio.yaml", `
logging:
  level: debug
storage:
  dataDir: /srv/consultorio
  usersFile: cuentas.json
auth:
  jwtSecret: file-secret
  tokenDuration: 2h
defaults:
  exchangeRate: 1500
  annualHours: 900
model:
  inflationRate: 0.1
  tiers:
    - name: simple
      markup: 0.3
    - name: completo
      markup: 0.9
`)

	config, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", config.Logging.Level)
	}
	if config.Auth.TokenDuration != 2*time.Hour {
		t.Errorf("TokenDuration = %v", config.Auth.TokenDuration)
	}
	if config.UsersPath() != filepath.Join("/srv/consultorio", "cuentas.json") {
		t.Errorf("UsersPath() = %q", config.UsersPath())
	}
	settings := config.Settings()
	if settings.ExchangeRate != 1500 || settings.AnnualHours != 900 {
		t.Errorf("Settings() = %+v", settings)
	}
	if settings.HourlyCost != constants.DefaultHourlyCost {
		t.Errorf("expected default hourly cost, got %v", settings.HourlyCost)
	}
	params := config.CostParameters()
	if params.InflationRate != 0.1 {
		t.Errorf("InflationRate = %v", params.InflationRate)
	}
	if len(params.Tiers) != 2 || params.Tiers[0].Name != "simple" || params.Tiers[1].Markup != 0.9 {
		t.Errorf("Tiers = %+v", params.Tiers)
	}
}

func TestLoadConfigurationEnvOverride(t *testing.T) {
	path := writeFile(t, "consultorio.yaml", "auth:\n  jwtSecret: file-secret\n")
	t.Setenv("CONSULTORIO_AUTH_JWTSECRET", "env-secret")
	t.Setenv("CONSULTORIO_DEFAULTS_ANNUALHOURS", "1200")

	config, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if config.Auth.JWTSecret != "env-secret" {
		t.Errorf("JWTSecret = %q", config.Auth.JWTSecret)
	}
	if config.Defaults.AnnualHours != 1200 {
		t.Errorf("AnnualHours = %v", config.Defaults.AnnualHours)
	}
}

func TestLoadConfigurationInvalidFile(t *testing.T) {
	path := writeFile(t, "consultorio.yaml", "auth: [unclosed\n")
	if _, err := LoadConfiguration(path); err == nil {
		t.Error("LoadConfiguration() expected error for malformed YAML")
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "CONSULTORIO_AUTH_ADMINUSER=admin\n")
	t.Setenv("CONSULTORIO_AUTH_ADMINUSER", "")
	os.Unsetenv("CONSULTORIO_AUTH_ADMINUSER")

	missing := filepath.Join(t.TempDir(), ".env")
	if err := LoadDotEnv(missing, path); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv("CONSULTORIO_AUTH_ADMINUSER"); got != "admin" {
		t.Errorf("CONSULTORIO_AUTH_ADMINUSER = %q", got)
	}

	config, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if config.Auth.AdminUser != "admin" {
		t.Errorf("AdminUser = %q", config.Auth.AdminUser)
	}
}

func TestValidateConfiguration(t *testing.T) {
	config, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	warnings := config.ValidateConfiguration()
	if len(warnings) != 1 || !strings.Contains(warnings[0], "JWT secret") {
		t.Errorf("expected only the missing secret warning, got %v", warnings)
	}

	config.Auth.JWTSecret = strings.Repeat("s", 40)
	config.Auth.TokenDuration = 0
	warnings = config.ValidateConfiguration()
	if len(warnings) != 1 || !strings.Contains(warnings[0], "Token duration") {
		t.Errorf("expected only the token duration warning, got %v", warnings)
	}
}
