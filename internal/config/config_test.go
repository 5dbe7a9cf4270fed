package config

import (
	"strings"
	"testing"
	"time"
)

func validBaseConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			Env:            "development",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{
			Host:      "localhost",
			Port:      "8000",
			Namespace: "mentora",
			Database:  "main",
		},
		Meeting: MeetingConfig{
			Provider:      "feishu",
			RetryAttempts: 3,
			RetryDelay:    time.Second,
		},
		Notifications: NotificationConfig{
			DispatchInterval: time.Minute,
			CleanupInterval:  24 * time.Hour,
		},
		Rates: RatesConfig{
			Currency:    "USD",
			HourlyRates: map[string]string{"mock_interview": "120"},
		},
	}
}

func TestConfig_Validate_ValidConfig(t *testing.T) {
	if err := validBaseConfig().Validate(); err != nil {
		t.Errorf("expected valid config, got error: %v", err)
	}
}

func TestConfig_Validate_InvalidServerEnv(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Server.Env = "invalid"

	err := cfg.Validate()
	if err == nil {
		t.Error("expected error for invalid SERVER_ENV")
	}
	if !strings.Contains(err.Error(), "SERVER_ENV") {
		t.Errorf("expected error to mention SERVER_ENV, got: %v", err)
	}
}

func TestConfig_Validate_MissingPort(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Server.Port = ""

	err := cfg.Validate()
	if err == nil {
		t.Error("expected error for missing SERVER_PORT")
	}
}

func TestConfig_Validate_MissingDatabaseFields(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Database.Host = ""
	cfg.Database.Namespace = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing database fields")
	}
	if !strings.Contains(err.Error(), "DB_HOST") {
		t.Errorf("expected error to mention DB_HOST, got: %v", err)
	}
	if !strings.Contains(err.Error(), "DB_NAMESPACE") {
		t.Errorf("expected error to mention DB_NAMESPACE, got: %v", err)
	}
}

func TestConfig_Validate_ProviderCredentialsRequiredInProduction(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Server.Env = "production"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing provider credentials in production")
	}
	if !strings.Contains(err.Error(), "MEETING_APP_ID") {
		t.Errorf("expected error to mention MEETING_APP_ID, got: %v", err)
	}

	cfg.Meeting.AppID = "app-id"
	cfg.Meeting.AppSecret = "app-secret"
	cfg.Email.WebhookURL = "https://mail.example/send"
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid production config, got: %v", err)
	}
}

func TestConfig_Validate_RetryBounds(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Meeting.RetryAttempts = 0

	err := cfg.Validate()
	if err == nil {
		t.Error("expected error for zero retry attempts")
	}
}

func TestConfig_Validate_InvalidCurrency(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Rates.Currency = "DOLLARS"

	err := cfg.Validate()
	if err == nil {
		t.Error("expected error for invalid currency code")
	}
}

func TestConfig_Load_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Meeting.RetryAttempts != 3 {
		t.Errorf("expected default 3 retry attempts, got %d", cfg.Meeting.RetryAttempts)
	}
	if _, ok := cfg.Rates.HourlyRates["mock_interview"]; !ok {
		t.Error("expected default rate for mock_interview")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got: %v", err)
	}
}

func TestParseRates(t *testing.T) {
	rates, err := parseRates("mock_interview=120, cv_review=80")
	if err != nil {
		t.Fatalf("parseRates failed: %v", err)
	}
	if rates["mock_interview"] != "120" || rates["cv_review"] != "80" {
		t.Errorf("unexpected rates: %v", rates)
	}

	if _, err := parseRates("mock_interview"); err == nil {
		t.Error("expected error for entry without '='")
	}
	if _, err := parseRates("mock_interview=abc"); err == nil {
		t.Error("expected error for non-numeric rate")
	}
}
