package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	apperrors "github.com/rajasatyajit/SasmexMonitor/internal/errors"
	"github.com/rajasatyajit/SasmexMonitor/internal/fetch"
	"github.com/rajasatyajit/SasmexMonitor/internal/sasmex"
	"github.com/rajasatyajit/SasmexMonitor/internal/settings"
	"github.com/rajasatyajit/SasmexMonitor/internal/usgs"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	SQLite   SQLiteConfig
	Redis    RedisConfig
	Feeds    FeedsConfig
	Pipeline PipelineConfig
	State    StateConfig
	Logging  LoggingConfig
	Metrics  MetricsConfig
	Admin    AdminConfig
	Telegram TelegramConfig
	Settings SettingsConfig
}

type ServerConfig struct {
	Host                    string
	Port                    int
	ReadTimeout             time.Duration
	WriteTimeout            time.Duration
	IdleTimeout             time.Duration
	GracefulShutdownTimeout time.Duration
	RateLimitPerMinute      int // per client IP; 0 disables
	AllowedOrigins          []string
}

type DatabaseConfig struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	URL string
}

type FeedsConfig struct {
	SasmexURL     string
	USGSBaseURL   string
	USGSFeed      string // empty follows the settings' initial period
	UserAgent     string
	Accept        string
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	USGSTimeout   time.Duration
	USGSRetries   int
	TimeZone      string
}

// Location resolves the zone used for naive feed timestamps
func (f FeedsConfig) Location() (*time.Location, error) {
	if f.TimeZone == "" || strings.EqualFold(f.TimeZone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(f.TimeZone)
}

// FetchConfig maps the feed settings onto the SASMEX fetcher
func (f FeedsConfig) FetchConfig() fetch.Config {
	return fetch.Config{
		UserAgent:  f.UserAgent,
		Accept:     f.Accept,
		Timeout:    f.Timeout,
		Attempts:   f.RetryAttempts,
		RetryDelay: f.RetryDelay,
	}
}

type PipelineConfig struct {
	RateLimit  float64
	RetryDelay time.Duration
}

type StateConfig struct {
	File string // used when Redis is not configured
}

type LoggingConfig struct {
	Level  string
	Format string // json or text
}

type MetricsConfig struct {
	Enabled bool
	Port    int
	Path    string
}

type AdminConfig struct {
	AdminSecret     string
	AdminSecretHash string // bcrypt; preferred over AdminSecret when set
}

// Enabled reports whether admin routes can be authorised at all
func (a AdminConfig) Enabled() bool {
	return a.AdminSecret != "" || a.AdminSecretHash != ""
}

type TelegramConfig struct {
	BotToken       string
	ChatID         int64
	CriticalChatID int64
}

// Enabled reports whether Telegram delivery is configured
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != 0
}

type SettingsConfig struct {
	Path string
}

// LoadEnvFile seeds the environment from a dotenv file. A missing file is not
// an error; variables already set win over the file.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// Load loads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	if err := LoadEnvFile(getEnv("ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	settingsPath := getEnv("SETTINGS_PATH", settings.DefaultPath())

	cfg := &Config{
		Server: ServerConfig{
			Host:                    getEnv("SERVER_HOST", "0.0.0.0"),
			Port:                    getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:             getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:            getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:             getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			GracefulShutdownTimeout: getEnvDuration("SERVER_GRACEFUL_SHUTDOWN_TIMEOUT", 30*time.Second),
			RateLimitPerMinute:      getEnvInt("API_RATE_LIMIT_PER_MINUTE", 120),
			AllowedOrigins:          getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvDuration("DB_MAX_CONN_LIFETIME", 1*time.Hour),
			MaxConnIdleTime: getEnvDuration("DB_MAX_CONN_IDLE_TIME", 30*time.Minute),
		},
		SQLite: SQLiteConfig{
			Path: getEnv("SQLITE_PATH", ""),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		Feeds: FeedsConfig{
			SasmexURL:     getEnv("SASMEX_FEED_URL", sasmex.DefaultFeedURL),
			USGSBaseURL:   getEnv("USGS_BASE_URL", usgs.DefaultBaseURL),
			USGSFeed:      getEnv("USGS_FEED", ""),
			UserAgent:     getEnv("FETCH_USER_AGENT", fetch.DefaultUserAgent),
			Accept:        getEnv("FETCH_ACCEPT", fetch.DefaultAccept),
			Timeout:       getEnvDuration("FETCH_TIMEOUT", 20*time.Second),
			RetryAttempts: getEnvInt("FETCH_RETRY_ATTEMPTS", 3),
			RetryDelay:    getEnvDuration("FETCH_RETRY_DELAY", 2*time.Second),
			USGSTimeout:   getEnvDuration("USGS_TIMEOUT", 30*time.Second),
			USGSRetries:   getEnvInt("USGS_RETRIES", 3),
			TimeZone:      getEnv("FEED_TIME_ZONE", "Local"),
		},
		Pipeline: PipelineConfig{
			RateLimit:  getEnvFloat("PIPELINE_RATE_LIMIT", 1.0),
			RetryDelay: getEnvDuration("PIPELINE_RETRY_DELAY", 5*time.Second),
		},
		State: StateConfig{
			File: getEnv("STATE_FILE", filepath.Join(filepath.Dir(settingsPath), "last_seen.json")),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Port:    getEnvInt("METRICS_PORT", 9090),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
		Admin: AdminConfig{
			AdminSecret:     getEnv("ADMIN_SECRET", ""),
			AdminSecretHash: getEnv("ADMIN_SECRET_HASH", ""),
		},
		Telegram: TelegramConfig{
			BotToken:       getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID:         getEnvInt64("TELEGRAM_CHAT_ID", 0),
			CriticalChatID: getEnvInt64("TELEGRAM_CRITICAL_CHAT_ID", 0),
		},
		Settings: SettingsConfig{
			Path: settingsPath,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs apperrors.MultiError

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs.Add(fmt.Errorf("invalid server port: %d", c.Server.Port))
	}
	if c.Database.MaxConns < 1 {
		errs.Add(fmt.Errorf("database max connections must be at least 1"))
	}
	if c.Pipeline.RateLimit <= 0 {
		errs.Add(fmt.Errorf("pipeline rate limit must be positive"))
	}
	if c.Feeds.RetryAttempts < 1 {
		errs.Add(fmt.Errorf("fetch retry attempts must be at least 1"))
	}
	if c.Feeds.Timeout <= 0 {
		errs.Add(fmt.Errorf("fetch timeout must be positive"))
	}
	if c.Feeds.USGSFeed != "" && !usgs.ValidFeed(c.Feeds.USGSFeed) {
		errs.Add(fmt.Errorf("unknown USGS feed %q", c.Feeds.USGSFeed))
	}
	if _, err := c.Feeds.Location(); err != nil {
		errs.Add(fmt.Errorf("invalid time zone %q: %w", c.Feeds.TimeZone, err))
	}
	if c.Metrics.Enabled && (c.Metrics.Port < 1 || c.Metrics.Port > 65535) {
		errs.Add(fmt.Errorf("invalid metrics port: %d", c.Metrics.Port))
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == 0 {
		errs.Add(fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set"))
	}

	return errs.ErrorOrNil()
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
