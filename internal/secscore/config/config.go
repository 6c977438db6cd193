// Package config loads secscore settings from secscore.yaml and the
// environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "secscore.yaml"

// Environment variables that override file values.
const (
	EnvTenantID     = "SECSCORE_TENANT_ID"
	EnvClientID     = "SECSCORE_CLIENT_ID"
	EnvClientSecret = "SECSCORE_CLIENT_SECRET"
	EnvToken        = "SECSCORE_GRAPH_TOKEN"
	EnvCloud        = "SECSCORE_CLOUD"
	EnvMappings     = "SECSCORE_MAPPINGS"
	EnvOutputDir    = "SECSCORE_OUTPUT_DIR"
	EnvLogLevel     = "SECSCORE_LOG_LEVEL"
	EnvRateLimit    = "SECSCORE_RATE_LIMIT"
)

// Output formats.
const (
	FormatHTML    = "html"
	FormatCSV     = "csv"
	FormatJSON    = "json"
	FormatMetrics = "metrics"
)

var knownFormats = map[string]bool{
	FormatHTML:    true,
	FormatCSV:     true,
	FormatJSON:    true,
	FormatMetrics: true,
}

// Config represents secscore.yaml.
type Config struct {
	TenantID        string   `yaml:"tenant_id"`
	ClientID        string   `yaml:"client_id"`
	ClientSecretEnv string   `yaml:"client_secret_env,omitempty"`
	Cloud           string   `yaml:"cloud"`
	Mappings        string   `yaml:"mappings,omitempty"` // empty uses the built-in table
	OutputDir       string   `yaml:"output_dir"`
	ReportName      string   `yaml:"report_name,omitempty"`
	Formats         []string `yaml:"formats"`
	LogLevel        string   `yaml:"log_level"`
	RateLimit       float64  `yaml:"rate_limit"`

	// Secrets are never persisted.
	ClientSecret string `yaml:"-"`
	Token        string `yaml:"-"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		ClientSecretEnv: EnvClientSecret,
		Cloud:           "global",
		OutputDir:       ".",
		Formats:         []string{FormatHTML},
		LogLevel:        "info",
		RateLimit:       5,
	}
}

// Load reads path over the defaults. A missing file is not an error when
// optional is true.
func Load(path string, optional bool) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from SECSCORE_* variables and resolves the
// client secret and bearer token.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.TenantID, EnvTenantID)
	set(&c.ClientID, EnvClientID)
	set(&c.Cloud, EnvCloud)
	set(&c.Mappings, EnvMappings)
	set(&c.OutputDir, EnvOutputDir)
	set(&c.LogLevel, EnvLogLevel)

	if v := getenv(EnvRateLimit); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRateLimit, err)
		}
		c.RateLimit = f
	}

	secretEnv := c.ClientSecretEnv
	if secretEnv == "" {
		secretEnv = EnvClientSecret
	}
	if v := getenv(secretEnv); v != "" {
		c.ClientSecret = v
	}
	if v := getenv(EnvToken); v != "" {
		c.Token = v
	}
	return nil
}

// Save writes the config as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// HasFormat reports whether f is among the requested output formats.
func (c *Config) HasFormat(f string) bool {
	for _, have := range c.Formats {
		if strings.EqualFold(have, f) {
			return true
		}
	}
	return false
}

// SlogLevel maps LogLevel to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
