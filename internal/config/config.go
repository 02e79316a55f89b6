// Package config loads Radar settings from a YAML file, a .env file and
// RADAR_* environment variables, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config is the full daemon and CLI configuration.
type Config struct {
	Listen     string           `yaml:"listen"`
	DBPath     string           `yaml:"db"`
	Log        LogConfig        `yaml:"log"`
	Auth       AuthConfig       `yaml:"auth"`
	OrderStore OrderStoreConfig `yaml:"order_store"`
	Scan       ScanConfig       `yaml:"scan"`
	Reminders  ReminderConfig   `yaml:"reminders"`
	Reader     ReaderConfig     `yaml:"reader"`
	Query      QueryConfig      `yaml:"query"`
	StatsTTL   time.Duration    `yaml:"stats_ttl"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// AuthConfig enables bearer-token auth when Secret is set.
type AuthConfig struct {
	Secret   string        `yaml:"secret"`
	TokenTTL time.Duration `yaml:"token_ttl"`
}

type OrderStoreConfig struct {
	Backend  string `yaml:"backend"` // sqlite or redis
	RedisURL string `yaml:"redis_url"`
}

// ScanConfig limits bulk scans per user.
type ScanConfig struct {
	Rate  float64 `yaml:"rate"`
	Burst int     `yaml:"burst"`
}

type ReminderConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// ReaderConfig describes an external command that prints scanned tags.
type ReaderConfig struct {
	Command  string        `yaml:"command"`
	Args     []string      `yaml:"args"`
	Interval time.Duration `yaml:"interval"`
	User     string        `yaml:"user"`
	Location string        `yaml:"location"`
}

type QueryConfig struct {
	DefaultPageSize int `yaml:"default_page_size"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Listen: "127.0.0.1:7467",
		DBPath: filepath.Join(home, ".radar", "radar.db"),
		Log:    LogConfig{Level: "info", Format: "text"},
		Auth:   AuthConfig{TokenTTL: 30 * 24 * time.Hour},
		OrderStore: OrderStoreConfig{
			Backend: "sqlite",
		},
		Scan:      ScanConfig{Rate: 2, Burst: 5},
		Reminders: ReminderConfig{Enabled: true, Interval: time.Minute},
		Reader:    ReaderConfig{Interval: 10 * time.Second, User: "local"},
		Query:     QueryConfig{DefaultPageSize: 20},
		StatsTTL:  30 * time.Second,
	}
}

// DefaultPath is ~/.radar/config.yaml.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".radar", "config.yaml")
}

// Load reads path (missing file is fine), then .env in the working
// directory, then RADAR_* variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	// .env never overrides variables already set in the environment.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Listen = getEnv("RADAR_LISTEN", cfg.Listen)
	cfg.DBPath = getEnv("RADAR_DB", cfg.DBPath)
	cfg.Log.Level = getEnv("RADAR_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("RADAR_LOG_FORMAT", cfg.Log.Format)
	cfg.Auth.Secret = getEnv("RADAR_JWT_SECRET", cfg.Auth.Secret)
	cfg.Auth.TokenTTL = getDurationEnv("RADAR_TOKEN_TTL", cfg.Auth.TokenTTL)
	cfg.OrderStore.Backend = getEnv("RADAR_ORDER_STORE", cfg.OrderStore.Backend)
	cfg.OrderStore.RedisURL = getEnv("RADAR_REDIS_URL", cfg.OrderStore.RedisURL)
	cfg.Scan.Rate = getFloatEnv("RADAR_SCAN_RATE", cfg.Scan.Rate)
	cfg.Scan.Burst = getIntEnv("RADAR_SCAN_BURST", cfg.Scan.Burst)
	cfg.Reminders.Enabled = getBoolEnv("RADAR_REMINDERS", cfg.Reminders.Enabled)
	cfg.Reader.Command = getEnv("RADAR_READER_CMD", cfg.Reader.Command)
	cfg.Reader.Interval = getDurationEnv("RADAR_READER_INTERVAL", cfg.Reader.Interval)
	cfg.Query.DefaultPageSize = getIntEnv("RADAR_PAGE_SIZE", cfg.Query.DefaultPageSize)
}

// Validate rejects settings the daemon cannot start with.
func (c *Config) Validate() error {
	switch c.OrderStore.Backend {
	case "sqlite":
	case "redis":
		if c.OrderStore.RedisURL == "" {
			return fmt.Errorf("order_store.redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown order store backend %q", c.OrderStore.Backend)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	if c.Query.DefaultPageSize < 0 {
		return fmt.Errorf("query.default_page_size must not be negative")
	}
	if c.Scan.Burst < 1 {
		c.Scan.Burst = 1
	}
	return nil
}

// NewLogger builds the process logger from the log section.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if level, err := logrus.ParseLevel(c.Log.Level); err == nil {
		logger.SetLevel(level)
	}
	if strings.EqualFold(c.Log.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
