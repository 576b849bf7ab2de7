package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// BLE backends.
const (
	BackendGoBLE  = "go-ble"
	BackendTinyGo = "tinygo"
)

// Config holds application configuration
type Config struct {
	LogLevel             string        `yaml:"log_level" default:"info"`
	Backend              string        `yaml:"backend" default:"go-ble"`
	RequestTimeout       time.Duration `yaml:"request_timeout" default:"30s"`
	ConnectTimeout       time.Duration `yaml:"connect_timeout" default:"30s"`
	ScanTimeout          time.Duration `yaml:"scan_timeout" default:"10s"`
	NotificationInterval time.Duration `yaml:"notification_interval" default:"50ms"`
	EventBuffer          int           `yaml:"event_buffer" default:"128"`
	FrameTap             uint32        `yaml:"frame_tap" default:"0"`
	OutputFormat         string        `yaml:"output_format" default:"table"`
}

// DefaultConfig returns default configuration values
func DefaultConfig() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	return cfg
}

// DefaultConfigPath returns ~/.config/coral/config.yaml, or "" if the home
// directory is unknown.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "coral", "config.yaml")
}

// Load reads a YAML config file. Missing fields keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}

	switch c.Backend {
	case BackendGoBLE, BackendTinyGo:
	default:
		return fmt.Errorf("backend must be %q or %q, got %q", BackendGoBLE, BackendTinyGo, c.Backend)
	}

	for name, d := range map[string]time.Duration{
		"request_timeout":       c.RequestTimeout,
		"connect_timeout":       c.ConnectTimeout,
		"scan_timeout":          c.ScanTimeout,
		"notification_interval": c.NotificationInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be > 0, got %s", name, d)
		}
	}
	if c.NotificationInterval > time.Duration(^uint16(0))*time.Millisecond {
		return fmt.Errorf("notification_interval must fit in 16-bit milliseconds, got %s", c.NotificationInterval)
	}

	if c.EventBuffer <= 0 {
		return fmt.Errorf("event_buffer must be > 0")
	}

	switch c.OutputFormat {
	case "table", "json":
	default:
		return fmt.Errorf("output_format must be \"table\" or \"json\", got %q", c.OutputFormat)
	}
	return nil
}

// Level returns the parsed log level, falling back to info.
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// NewLogger creates a configured logger instance
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(c.Level())

	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	return logger
}
