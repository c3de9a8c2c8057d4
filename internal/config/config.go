package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server  ServerConfig
	MongoDB MongoDBConfig
	Ledger  LedgerConfig
	Alerts  AlertsConfig
	Sheets  SheetsConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// MongoDBConfig holds settings for the shared MongoDB store.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// LedgerConfig controls when and in which reference zone the daily
// consumption job runs.
type LedgerConfig struct {
	CronSchedule string
	Timezone     string
}

// AlertsConfig configures the notification webhook and the dispatch
// cooldown. An empty WebhookURL disables outbound alerts entirely.
type AlertsConfig struct {
	WebhookURL   string
	WebhookToken string
	Cooldown     time.Duration
}

// SheetsConfig configures the optional Google Sheets consumption export.
// Both fields empty disables the export.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	cooldownMinutes, err := strconv.Atoi(getenvWithDefault("ALERT_COOLDOWN_MINUTES", "360"))
	if err != nil {
		return nil, fmt.Errorf("ALERT_COOLDOWN_MINUTES must be an integer: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "aviprod"),
		},
		Ledger: LedgerConfig{
			CronSchedule: getenvWithDefault("LEDGER_CRON_SCHEDULE", "0 6 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "Africa/Conakry"),
		},
		Alerts: AlertsConfig{
			WebhookURL:   os.Getenv("ALERT_WEBHOOK_URL"),
			WebhookToken: os.Getenv("ALERT_WEBHOOK_TOKEN"),
			Cooldown:     time.Duration(cooldownMinutes) * time.Minute,
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_EXPORT_ID"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch {
	case c.MongoDB.URI == "":
		return errors.New("MONGODB_URI must be provided")
	case c.MongoDB.DBName == "":
		return errors.New("MONGODB_DB_NAME must be provided")
	}

	if c.Ledger.CronSchedule == "" {
		return errors.New("LEDGER_CRON_SCHEDULE must be provided")
	}

	if c.Ledger.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}
	if _, err := time.LoadLocation(c.Ledger.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE is not a valid IANA zone: %w", err)
	}

	if c.Alerts.Cooldown < 0 {
		return errors.New("ALERT_COOLDOWN_MINUTES must not be negative")
	}

	// Sheets export is all-or-nothing: one field without the other is a
	// configuration mistake rather than an intentionally disabled export.
	if (c.Sheets.CredentialsPath != "") != (c.Sheets.SpreadsheetID != "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_EXPORT_ID must be set together")
	}

	return nil
}

// Location resolves the configured reference time zone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Ledger.Timezone)
}

// AlertsEnabled reports whether outbound alert dispatch is configured.
func (c *Config) AlertsEnabled() bool {
	return c.Alerts.WebhookURL != ""
}

// SheetsEnabled reports whether the consumption export is configured.
func (c *Config) SheetsEnabled() bool {
	return c.Sheets.CredentialsPath != "" && c.Sheets.SpreadsheetID != ""
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
