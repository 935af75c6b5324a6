package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the letter scheduler.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Notifier NotifierConfig `yaml:"notifier"`
	SES      SESConfig      `yaml:"ses"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Poller   PollerConfig   `yaml:"poller"`
	Display  DisplayConfig  `yaml:"display"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds the Postgres connection settings.
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	AutoMigrate  bool   `yaml:"auto_migrate"`
}

// NotifierConfig selects the outbound email transport.
type NotifierConfig struct {
	Provider  string `yaml:"provider"` // "ses" or "smtp"
	FromName  string `yaml:"from_name"`
	FromEmail string `yaml:"from_email"`
}

// SESConfig holds AWS SES API configuration.
type SESConfig struct {
	Region         string `yaml:"region"`
	AccessKey      string `yaml:"access_key"`
	SecretKey      string `yaml:"secret_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration.
func (c SESConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SMTPConfig holds SMTP submission settings (Gmail-style, STARTTLS).
type SMTPConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Addr returns the submission endpoint address.
func (c SMTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Timeout returns the configured timeout as a duration.
func (c SMTPConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PollerConfig holds delivery poller settings.
type PollerConfig struct {
	IntervalSeconds    int `yaml:"interval_seconds"`
	BatchSize          int `yaml:"batch_size"`
	SendTimeoutSeconds int `yaml:"send_timeout_seconds"`
}

// Interval returns the polling cadence as a duration.
func (c PollerConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// SendTimeout bounds a single delivery attempt so one hung send cannot
// starve the rest of a tick.
func (c PollerConfig) SendTimeout() time.Duration {
	return time.Duration(c.SendTimeoutSeconds) * time.Second
}

// DisplayConfig holds the render-only display timezone. Stored instants are
// always UTC; this offset is applied only in user-facing email text.
type DisplayConfig struct {
	ZoneName         string `yaml:"zone_name"`
	UTCOffsetMinutes int    `yaml:"utc_offset_minutes"`
}

// Load reads and parses the configuration file, applying defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Notifier.Provider == "" {
		cfg.Notifier.Provider = "smtp"
	}
	if cfg.Notifier.FromName == "" {
		cfg.Notifier.FromName = "FutureMe Bot"
	}
	if cfg.SES.Region == "" {
		cfg.SES.Region = "us-east-1"
	}
	if cfg.SES.TimeoutSeconds == 0 {
		cfg.SES.TimeoutSeconds = 30
	}
	if cfg.SMTP.Host == "" {
		cfg.SMTP.Host = "smtp.gmail.com"
	}
	if cfg.SMTP.Port == 0 {
		cfg.SMTP.Port = 587
	}
	if cfg.SMTP.TimeoutSeconds == 0 {
		cfg.SMTP.TimeoutSeconds = 30
	}
	if cfg.Poller.IntervalSeconds == 0 {
		cfg.Poller.IntervalSeconds = 60
	}
	if cfg.Poller.BatchSize == 0 {
		cfg.Poller.BatchSize = 100
	}
	if cfg.Poller.SendTimeoutSeconds == 0 {
		cfg.Poller.SendTimeoutSeconds = 20
	}
	if cfg.Display.ZoneName == "" {
		cfg.Display.ZoneName = "IST"
		cfg.Display.UTCOffsetMinutes = 330
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// A .env file (if present) is loaded first, so secrets can live in .env
// locally and in real env vars in production.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = nil
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.Server.AllowedOrigins = append(cfg.Server.AllowedOrigins, origin)
			}
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("NOTIFIER_PROVIDER"); v != "" {
		cfg.Notifier.Provider = v
	}
	if v := os.Getenv("NOTIFIER_FROM_EMAIL"); v != "" {
		cfg.Notifier.FromEmail = v
	}
	if v := os.Getenv("AWS_SES_ACCESS_KEY"); v != "" {
		cfg.SES.AccessKey = v
	}
	if v := os.Getenv("AWS_SES_SECRET_KEY"); v != "" {
		cfg.SES.SecretKey = v
	}
	if v := os.Getenv("AWS_SES_REGION"); v != "" {
		cfg.SES.Region = v
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		cfg.SMTP.Host = v
	}
	if v := os.Getenv("SMTP_USERNAME"); v != "" {
		cfg.SMTP.Username = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.SMTP.Password = v
	}

	return cfg, nil
}

// Validate checks the settings a running server cannot do without.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database.url (or DATABASE_URL) is required")
	}
	switch c.Notifier.Provider {
	case "ses", "smtp":
	default:
		return fmt.Errorf("notifier.provider must be \"ses\" or \"smtp\", got %q", c.Notifier.Provider)
	}
	if c.Notifier.FromEmail == "" {
		return fmt.Errorf("notifier.from_email is required")
	}
	return nil
}
