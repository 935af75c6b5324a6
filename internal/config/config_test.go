package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 0\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "smtp", cfg.Notifier.Provider)
	assert.Equal(t, "smtp.gmail.com", cfg.SMTP.Host)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, time.Minute, cfg.Poller.Interval())
	assert.Equal(t, 20*time.Second, cfg.Poller.SendTimeout())
	assert.Equal(t, 100, cfg.Poller.BatchSize)
	assert.Equal(t, "IST", cfg.Display.ZoneName)
	assert.Equal(t, 330, cfg.Display.UTCOffsetMinutes)
}

func TestLoadExplicitValues(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 0.0.0.0
  port: 8080
  allowed_origins:
    - https://futureme.example
database:
  url: postgres://app@localhost/futureme?sslmode=disable
notifier:
  provider: ses
  from_name: FutureMe Bot
  from_email: letters@futureme.example
ses:
  region: us-west-2
  timeout_seconds: 10
poller:
  interval_seconds: 30
  batch_size: 250
display:
  zone_name: UTC
  utc_offset_minutes: 0
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, []string{"https://futureme.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "ses", cfg.Notifier.Provider)
	assert.Equal(t, "us-west-2", cfg.SES.Region)
	assert.Equal(t, 10*time.Second, cfg.SES.Timeout())
	assert.Equal(t, 30*time.Second, cfg.Poller.Interval())
	assert.Equal(t, 250, cfg.Poller.BatchSize)
	assert.Equal(t, "UTC", cfg.Display.ZoneName)
	assert.Equal(t, 0, cfg.Display.UTCOffsetMinutes)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnvOverrides(t *testing.T) {
	path := writeConfig(t, "database:\n  url: postgres://file-value\n")

	t.Setenv("DATABASE_URL", "postgres://env-value")
	t.Setenv("NOTIFIER_PROVIDER", "ses")
	t.Setenv("AWS_SES_REGION", "eu-west-1")
	t.Setenv("SMTP_PASSWORD", "app-password")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://futureme.example, https://www.futureme.example")

	cfg, err := LoadFromEnv(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://env-value", cfg.Database.URL)
	assert.Equal(t, "ses", cfg.Notifier.Provider)
	assert.Equal(t, "eu-west-1", cfg.SES.Region)
	assert.Equal(t, "app-password", cfg.SMTP.Password)
	assert.Equal(t,
		[]string{"https://futureme.example", "https://www.futureme.example"},
		cfg.Server.AllowedOrigins)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing database url", func(c *Config) { c.Database.URL = "" }, true},
		{"unknown provider", func(c *Config) { c.Notifier.Provider = "carrier-pigeon" }, true},
		{"missing from email", func(c *Config) { c.Notifier.FromEmail = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			applyDefaults(cfg)
			cfg.Database.URL = "postgres://app@localhost/futureme"
			cfg.Notifier.FromEmail = "letters@futureme.example"
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
