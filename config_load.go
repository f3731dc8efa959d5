package pgjwt

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

// Environment variables read by [LoadConfigFromEnv]. They override values from the file.
const (
	EnvConfigFile     = "PGJWT_CONFIG"
	EnvLogLevel       = "PGJWT_LOG_LEVEL"
	EnvLogFormat      = "PGJWT_LOG_FORMAT"
	EnvSecretFile     = "PGJWT_SECRET_FILE"
	EnvAuditEnabled   = "PGJWT_AUDIT_ENABLED"
	EnvAuditPath      = "PGJWT_AUDIT_PATH"
	EnvMetricsEnabled = "PGJWT_METRICS_ENABLED"
)

// LoadConfig reads a YAML configuration file on top of the defaults, applies environment
// overrides, and validates the result. An empty path skips the file.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.UnmarshalWithOptions(data, &cfg, yaml.Strict()); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfigFromEnv loads the file named by PGJWT_CONFIG, if any. The database server gives
// modules no other channel for settings beyond the secret itself.
func LoadConfigFromEnv() (Config, error) {
	return LoadConfig(os.Getenv(EnvConfigFile))
}

func applyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		cfg.Log.Level = v
	}
	if v, ok := os.LookupEnv(EnvLogFormat); ok && v != "" {
		cfg.Log.Format = v
	}
	if v, ok := os.LookupEnv(EnvSecretFile); ok && v != "" {
		cfg.Secret.File = v
	}
	if v, ok := os.LookupEnv(EnvAuditPath); ok && v != "" {
		cfg.Audit.Path = v
	}
	if v, ok := os.LookupEnv(EnvAuditEnabled); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, EnvAuditEnabled, err)
		}
		cfg.Audit.Enabled = b
	}
	if v, ok := os.LookupEnv(EnvMetricsEnabled); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, EnvMetricsEnabled, err)
		}
		cfg.Metrics.Enabled = b
		if !b {
			cfg.Metrics.EnableLatencyHistograms = false
		}
	}
	return nil
}
