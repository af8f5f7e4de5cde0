package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/bidan/registry/internal/platform/middleware"
	"github.com/bidan/registry/internal/platform/reminder"
	"github.com/bidan/registry/internal/platform/webhook"
)

const (
	StoreSheets   = "sheets"
	StorePostgres = "postgres"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"ENV"`
	Store       string `mapstructure:"STORE"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`

	SheetsSpreadsheetID   string `mapstructure:"SHEETS_SPREADSHEET_ID"`
	SheetsSheetName       string `mapstructure:"SHEETS_SHEET_NAME"`
	SheetsSheetID         int64  `mapstructure:"SHEETS_SHEET_ID"`
	SheetsAPIKey          string `mapstructure:"SHEETS_API_KEY"`
	SheetsAccessToken     string `mapstructure:"SHEETS_ACCESS_TOKEN"`
	SheetsCredentialsFile string `mapstructure:"SHEETS_CREDENTIALS_FILE"`
	SheetsBaseURL         string `mapstructure:"SHEETS_BASE_URL"`
	SheetsPublicFallbacks bool   `mapstructure:"SHEETS_PUBLIC_FALLBACKS"`

	CacheTTL time.Duration `mapstructure:"CACHE_TTL"`
	Timezone string        `mapstructure:"TIMEZONE"`
	Locale   string        `mapstructure:"LOCALE"`

	AuthIssuer     string `mapstructure:"AUTH_ISSUER"`
	AuthAudience   string `mapstructure:"AUTH_AUDIENCE"`
	AuthJWKSURL    string `mapstructure:"AUTH_JWKS_URL"`
	AuthSigningKey string `mapstructure:"AUTH_SIGNING_KEY"`

	CORSOrigins      []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS     float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst   int           `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeout   time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	BodyLimit        string        `mapstructure:"BODY_LIMIT"`
	ReminderSchedule string        `mapstructure:"REMINDER_SCHEDULE"`

	ReminderWebhookURLs   []string `mapstructure:"REMINDER_WEBHOOK_URLS"`
	ReminderWebhookSecret string   `mapstructure:"REMINDER_WEBHOOK_SECRET"`
}

var keys = []string{
	"PORT", "ENV", "STORE", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"SHEETS_SPREADSHEET_ID", "SHEETS_SHEET_NAME", "SHEETS_SHEET_ID", "SHEETS_API_KEY",
	"SHEETS_ACCESS_TOKEN", "SHEETS_CREDENTIALS_FILE", "SHEETS_BASE_URL", "SHEETS_PUBLIC_FALLBACKS",
	"CACHE_TTL", "TIMEZONE", "LOCALE",
	"AUTH_ISSUER", "AUTH_AUDIENCE", "AUTH_JWKS_URL", "AUTH_SIGNING_KEY",
	"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "REQUEST_TIMEOUT", "BODY_LIMIT", "REMINDER_SCHEDULE",
	"REMINDER_WEBHOOK_URLS", "REMINDER_WEBHOOK_SECRET",
}

// Load reads the environment and an optional .env file in the working
// directory. An environment variable set to the empty string overrides
// its default, which is how REMINDER_SCHEDULE is switched off.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("STORE", StoreSheets)
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("SHEETS_SHEET_NAME", "Sheet1")
	v.SetDefault("SHEETS_PUBLIC_FALLBACKS", true)
	v.SetDefault("CACHE_TTL", "30s")
	v.SetDefault("TIMEZONE", "Asia/Jakarta")
	v.SetDefault("LOCALE", "id")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("BODY_LIMIT", middleware.DefaultBodyLimit)
	v.SetDefault("REMINDER_SCHEDULE", reminder.DefaultSchedule)

	// Bind explicitly so Unmarshal sees keys that only exist in the env.
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// .env is optional
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// viper splits lists on commas without trimming
	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))
	cfg.ReminderWebhookURLs = splitList(v.GetString("REMINDER_WEBHOOK_URLS"))
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	cfg.ReminderSchedule = strings.TrimSpace(cfg.ReminderSchedule)

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Location loads TIMEZONE, which decides the calendar day of "today".
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate checks cross-field rules. Outside development a JWT verifier
// (AUTH_JWKS_URL or AUTH_SIGNING_KEY) is required because the dev
// middleware grants every request admin.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreSheets:
		if c.SheetsSpreadsheetID == "" {
			return fmt.Errorf("SHEETS_SPREADSHEET_ID is required when STORE=%s", StoreSheets)
		}
		if c.SheetsSheetName == "" {
			return fmt.Errorf("SHEETS_SHEET_NAME must not be empty")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE=%s", StorePostgres)
		}
		if c.DBMinConns > c.DBMaxConns {
			return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
		}
	default:
		return fmt.Errorf("STORE must be %q or %q, got %q", StoreSheets, StorePostgres, c.Store)
	}

	if !c.IsDev() && c.AuthJWKSURL == "" && c.AuthSigningKey == "" {
		return fmt.Errorf("AUTH_JWKS_URL or AUTH_SIGNING_KEY must be set when ENV=%q", c.Env)
	}
	if c.IsProduction() && c.AuthSigningKey != "" && c.AuthJWKSURL == "" {
		return fmt.Errorf("AUTH_SIGNING_KEY is for development only; set AUTH_JWKS_URL in production")
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("CACHE_TTL must not be negative, got %s", c.CacheTTL)
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must not be negative")
	}
	if _, err := middleware.ParseSize(c.BodyLimit); err != nil {
		return fmt.Errorf("BODY_LIMIT: %w", err)
	}
	if err := reminder.ValidateSchedule(c.ReminderSchedule); err != nil {
		return fmt.Errorf("REMINDER_SCHEDULE: %w", err)
	}
	for _, u := range c.ReminderWebhookURLs {
		if err := webhook.ValidateURL(u); err != nil {
			return fmt.Errorf("REMINDER_WEBHOOK_URLS: %w", err)
		}
	}
	return nil
}
