package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Listen, cfg.Listen)
	assert.Equal(t, "sqlite", cfg.OrderStore.Backend)
	assert.Equal(t, 20, cfg.Query.DefaultPageSize)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(t, `
listen: 0.0.0.0:9000
db: /tmp/radar.db
log:
  level: debug
  format: json
scan:
  rate: 1
  burst: 3
reminders:
  interval: 30s
query:
  default_page_size: 5
`)
	t.Setenv("RADAR_DB", "/var/lib/radar.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.Listen)
	assert.Equal(t, "/var/lib/radar.db", cfg.DBPath)
	assert.Equal(t, 3, cfg.Scan.Burst)
	assert.Equal(t, 30*time.Second, cfg.Reminders.Interval)
	assert.Equal(t, 5, cfg.Query.DefaultPageSize)

	logger := cfg.NewLogger()
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("RADAR_JWT_SECRET=s3cret\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("RADAR_JWT_SECRET") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Auth.Secret)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"redis without url", func(c *Config) { c.OrderStore.Backend = "redis" }, true},
		{"redis with url", func(c *Config) {
			c.OrderStore.Backend = "redis"
			c.OrderStore.RedisURL = "redis://localhost:6379/0"
		}, false},
		{"unknown backend", func(c *Config) { c.OrderStore.Backend = "mongo" }, true},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, true},
		{"negative page size", func(c *Config) { c.Query.DefaultPageSize = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
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
