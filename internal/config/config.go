package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Meeting       MeetingConfig
	Calendar      CalendarConfig
	Email         EmailConfig
	Notifications NotificationConfig
	Rates         RatesConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           string
	Env            string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

// DatabaseConfig holds SurrealDB connection settings
type DatabaseConfig struct {
	Host      string
	Port      string
	Namespace string
	Database  string
	User      string
	Password  string
}

// MeetingConfig holds third-party meeting provider settings
type MeetingConfig struct {
	Provider      string
	BaseURL       string
	AppID         string
	AppSecret     string
	RetryAttempts int
	RetryDelay    time.Duration
}

// CalendarConfig holds provider calendar integration settings
type CalendarConfig struct {
	Enabled    bool
	CalendarID string
}

// EmailConfig holds transactional email delivery settings
type EmailConfig struct {
	WebhookURL string
	FromName   string
}

// NotificationConfig holds notification queue settings
type NotificationConfig struct {
	DispatchInterval time.Duration
	CleanupInterval  time.Duration
}

// RatesConfig holds mentor hourly rates keyed by session type code
type RatesConfig struct {
	Currency    string
	HourlyRates map[string]string
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	rates, err := parseRates(getEnv("MENTOR_HOURLY_RATES", "mock_interview=120,cv_review=80,regular_mentoring=100"))
	if err != nil {
		return nil, fmt.Errorf("MENTOR_HOURLY_RATES: %w", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			Env:            getEnv("SERVER_ENV", "development"),
			ReadTimeout:    getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
			AllowedOrigins: getSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Host:      getEnv("DB_HOST", "localhost"),
			Port:      getEnv("DB_PORT", "8000"),
			Namespace: getEnv("DB_NAMESPACE", "mentora"),
			Database:  getEnv("DB_DATABASE", "main"),
			User:      getEnv("DB_USER", "root"),
			Password:  getEnv("DB_PASSWORD", "root"),
		},
		Meeting: MeetingConfig{
			Provider:      getEnv("MEETING_PROVIDER", "feishu"),
			BaseURL:       getEnv("MEETING_BASE_URL", "https://open.feishu.cn"),
			AppID:         getEnv("MEETING_APP_ID", ""),
			AppSecret:     getEnv("MEETING_APP_SECRET", ""),
			RetryAttempts: getIntEnv("MEETING_RETRY_ATTEMPTS", 3),
			RetryDelay:    getDurationEnv("MEETING_RETRY_DELAY", time.Second),
		},
		Calendar: CalendarConfig{
			Enabled:    getBoolEnv("CALENDAR_ENABLED", false),
			CalendarID: getEnv("CALENDAR_ID", "primary"),
		},
		Email: EmailConfig{
			WebhookURL: getEnv("EMAIL_WEBHOOK_URL", ""),
			FromName:   getEnv("EMAIL_FROM_NAME", "Mentora"),
		},
		Notifications: NotificationConfig{
			DispatchInterval: getDurationEnv("NOTIFICATION_DISPATCH_INTERVAL", time.Minute),
			CleanupInterval:  getDurationEnv("NOTIFICATION_CLEANUP_INTERVAL", 24*time.Hour),
		},
		Rates: RatesConfig{
			Currency:    getEnv("MENTOR_RATE_CURRENCY", "USD"),
			HourlyRates: rates,
		},
	}, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	// Server validation
	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must have at least one origin"))
	}

	// Database validation
	if c.Database.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.Database.Port == "" {
		errs = append(errs, errors.New("DB_PORT is required"))
	}
	if c.Database.Namespace == "" {
		errs = append(errs, errors.New("DB_NAMESPACE is required"))
	}
	if c.Database.Database == "" {
		errs = append(errs, errors.New("DB_DATABASE is required"))
	}

	// Meeting provider validation - credentials are critical for production
	if c.Meeting.Provider == "" {
		errs = append(errs, errors.New("MEETING_PROVIDER is required"))
	}
	if c.IsProduction() {
		if c.Meeting.AppID == "" {
			errs = append(errs, errors.New("MEETING_APP_ID is required in production"))
		}
		if c.Meeting.AppSecret == "" {
			errs = append(errs, errors.New("MEETING_APP_SECRET is required in production"))
		}
	}
	if c.Calendar.Enabled && c.Calendar.CalendarID == "" {
		errs = append(errs, errors.New("CALENDAR_ID is required when CALENDAR_ENABLED is true"))
	}
	if c.IsProduction() && c.Email.WebhookURL == "" {
		errs = append(errs, errors.New("EMAIL_WEBHOOK_URL is required in production"))
	}
	if c.Meeting.RetryAttempts < 1 {
		errs = append(errs, errors.New("MEETING_RETRY_ATTEMPTS must be at least 1"))
	}
	if c.Meeting.RetryDelay <= 0 {
		errs = append(errs, errors.New("MEETING_RETRY_DELAY must be positive"))
	}

	// Notification validation
	if c.Notifications.DispatchInterval <= 0 {
		errs = append(errs, errors.New("NOTIFICATION_DISPATCH_INTERVAL must be positive"))
	}
	if c.Notifications.CleanupInterval <= 0 {
		errs = append(errs, errors.New("NOTIFICATION_CLEANUP_INTERVAL must be positive"))
	}

	// Rates validation
	if len(c.Rates.Currency) != 3 {
		errs = append(errs, fmt.Errorf("MENTOR_RATE_CURRENCY must be a 3-letter code, got '%s'", c.Rates.Currency))
	}
	if len(c.Rates.HourlyRates) == 0 {
		errs = append(errs, errors.New("MENTOR_HOURLY_RATES must define at least one session type"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// parseRates parses "session_type=rate" pairs separated by commas
func parseRates(raw string) (map[string]string, error) {
	rates := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" || value == "" {
			return nil, fmt.Errorf("invalid rate entry '%s', expected session_type=rate", pair)
		}
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return nil, fmt.Errorf("invalid rate '%s' for '%s'", value, key)
		}
		rates[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return rates, nil
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
