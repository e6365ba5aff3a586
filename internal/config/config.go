package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/terraincognita07/cyclecast/internal/cycle"
)

const defaultConfigPath = "configs/config.yaml"

var (
	ErrSecretKeyMissing  = errors.New("SECRET_KEY is required")
	ErrSecretKeyInsecure = errors.New("SECRET_KEY uses an insecure placeholder")
	ErrSecretKeyTooShort = errors.New("SECRET_KEY must be at least 32 characters")
)

var insecureSecretKeys = map[string]struct{}{
	"change_me_in_production":                    {},
	"replace_with_at_least_32_random_characters": {},
}

// Config aggregates runtime settings for the server and the CLI.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Cycle     CycleConfig     `yaml:"cycle"`
	Reminders RemindersConfig `yaml:"reminders"`
	Logging   LoggingConfig   `yaml:"logging"`
	Timezone  string          `yaml:"timezone"`
	Language  string          `yaml:"defaultLanguage"`
}

type HTTPConfig struct {
	Port            string        `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type AuthConfig struct {
	SecretKey    string        `yaml:"secretKey"`
	CookieSecure bool          `yaml:"cookieSecure"`
	TokenTTL     time.Duration `yaml:"tokenTtl"`
}

type CycleConfig struct {
	// ForecastCount is how many cycles the overview projects, current one included.
	ForecastCount int `yaml:"forecastCount"`
}

type RemindersConfig struct {
	Enabled       bool   `yaml:"enabled"`
	CronSpec      string `yaml:"cron"`
	TelegramToken string `yaml:"telegramToken"`
	// TelegramPoll answers /start with the chat id to link.
	TelegramPoll       bool `yaml:"telegramPoll"`
	PeriodReminderDays int  `yaml:"periodReminderDays"`
	FertilityReminder  bool `yaml:"fertilityReminder"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Port:            "8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{Path: "data/cyclecast.db"},
		Auth: AuthConfig{
			TokenTTL: 7 * 24 * time.Hour,
		},
		Cycle: CycleConfig{ForecastCount: cycle.DefaultForecastCount},
		Reminders: RemindersConfig{
			CronSpec:           "0 9 * * *",
			PeriodReminderDays: 2,
			FertilityReminder:  true,
			TelegramPoll:       true,
		},
		Logging:  LoggingConfig{Level: "info"},
		Timezone: "UTC",
		Language: "en",
	}
}

// Load layers defaults, the YAML file, .env and the process environment, then validates.
func Load() (*Config, error) {
	return load((*Config).Validate)
}

// LoadOffline is Load for commands that never serve HTTP or sign tokens.
func LoadOffline() (*Config, error) {
	return load((*Config).ValidateOffline)
}

func load(validate func(*Config) error) (*Config, error) {
	cfg := Default()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		}
	}
	if path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	}

	// .env never overrides variables that are already set.
	_ = godotenv.Load()
	cfg.applyEnvOverrides()

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func (cfg *Config) applyEnvOverrides() {
	if v := os.Getenv("PORT"); v != "" {
		cfg.HTTP.Port = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("SECRET_KEY"); v != "" {
		cfg.Auth.SecretKey = v
	}
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		cfg.Auth.CookieSecure = parseBool(v)
	}
	if v := os.Getenv("TZ"); v != "" {
		cfg.Timezone = v
	}
	if v := os.Getenv("DEFAULT_LANGUAGE"); v != "" {
		cfg.Language = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("FORECAST_COUNT"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Cycle.ForecastCount = parsed
		}
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Reminders.TelegramToken = v
		cfg.Reminders.Enabled = true
	}
	if v := os.Getenv("REMINDERS_ENABLED"); v != "" {
		cfg.Reminders.Enabled = parseBool(v)
	}
	if v := os.Getenv("REMINDER_CRON"); v != "" {
		cfg.Reminders.CronSpec = v
	}
	if v := os.Getenv("TELEGRAM_PERIOD_REMINDER_DAYS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			cfg.Reminders.PeriodReminderDays = parsed
		}
	}
	if v := os.Getenv("TELEGRAM_POLL"); v != "" {
		cfg.Reminders.TelegramPoll = parseBool(v)
	}
	if v := os.Getenv("TELEGRAM_NOTIFY_FERTILITY"); v != "" {
		cfg.Reminders.FertilityReminder = parseBool(v)
	}
}

// Validate checks everything the server needs. CLI commands that never sign tokens call
// ValidateOffline instead.
func (cfg *Config) Validate() error {
	if err := cfg.ValidateOffline(); err != nil {
		return err
	}
	if err := validateSecretKey(cfg.Auth.SecretKey); err != nil {
		return err
	}
	port, err := strconv.Atoi(strings.TrimSpace(cfg.HTTP.Port))
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %q", cfg.HTTP.Port)
	}
	if cfg.Auth.TokenTTL <= 0 {
		return errors.New("token ttl must be positive")
	}
	if cfg.Reminders.Enabled {
		if strings.TrimSpace(cfg.Reminders.TelegramToken) == "" {
			return errors.New("reminders enabled without TELEGRAM_BOT_TOKEN")
		}
		if _, err := cron.ParseStandard(cfg.Reminders.CronSpec); err != nil {
			return fmt.Errorf("invalid reminder cron %q: %w", cfg.Reminders.CronSpec, err)
		}
	}
	return nil
}

func (cfg *Config) ValidateOffline() error {
	if strings.TrimSpace(cfg.Database.Path) == "" {
		return errors.New("database path is required")
	}
	if _, err := cfg.Location(); err != nil {
		return err
	}
	if cfg.Cycle.ForecastCount < 1 || cfg.Cycle.ForecastCount > cycle.MaxForecastCount {
		return fmt.Errorf("forecast count %d outside 1-%d", cfg.Cycle.ForecastCount, cycle.MaxForecastCount)
	}
	return nil
}

func (cfg *Config) Location() (*time.Location, error) {
	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	return location, nil
}

func validateSecretKey(secret string) error {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" {
		return ErrSecretKeyMissing
	}
	if _, insecure := insecureSecretKeys[strings.ToLower(trimmed)]; insecure {
		return ErrSecretKeyInsecure
	}
	if len(trimmed) < 32 {
		return ErrSecretKeyTooShort
	}
	return nil
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
