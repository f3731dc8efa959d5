package pgjwt

import (
	"fmt"
	"strings"
)

// Config defines a public type used by pgjwt APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Secret  SecretConfig  `yaml:"secret"`
	Audit   AuditConfig   `yaml:"audit"`
	Metrics MetricsConfig `yaml:"metrics"`
}

/*
====================================
LOG CONFIG
====================================
*/

// LogConfig controls operator diagnostics.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console (default), json
}

/*
====================================
SECRET CONFIG
====================================
*/

// SecretConfig controls how the shared secret is sourced and checked.
//
// The host setting always takes precedence; File is only read when the host provides nothing.
type SecretConfig struct {
	File      string `yaml:"file"`
	MinLength int    `yaml:"min_length"`
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls emission of lifecycle and validation audit events.
//
// With BufferSize > 0 events are written by a background dispatcher; zero writes them inline
// on the validation path. DropIfFull discards events instead of blocking when the buffer is full.
type AuditConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Path       string `yaml:"path"`
	BufferSize int    `yaml:"buffer_size"`
	DropIfFull bool   `yaml:"drop_if_full"`
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled                 bool `yaml:"enabled"`
	EnableLatencyHistograms bool `yaml:"enable_latency_histograms"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Secret: SecretConfig{
			MinLength: 32,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log level %q must be one of debug, info, warn, error", ErrInvalidConfig, c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("%w: log format %q must be console or json", ErrInvalidConfig, c.Log.Format)
	}
	if c.Secret.MinLength < 0 {
		return fmt.Errorf("%w: secret min_length must be >= 0", ErrInvalidConfig)
	}
	if c.Audit.Enabled && strings.TrimSpace(c.Audit.Path) == "" {
		return fmt.Errorf("%w: audit path required when audit is enabled", ErrInvalidConfig)
	}
	if c.Audit.BufferSize < 0 {
		return fmt.Errorf("%w: audit buffer_size must be >= 0", ErrInvalidConfig)
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return fmt.Errorf("%w: latency histograms require metrics to be enabled", ErrInvalidConfig)
	}
	return nil
}

// LintWarning is a non-fatal configuration finding.
type LintWarning struct {
	Code    string
	Message string
}

// LintWarnings is the result of [Config.Lint].
type LintWarnings []LintWarning

// Codes returns the warning codes in order.
func (ws LintWarnings) Codes() []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Code)
	}
	return out
}

// Lint reports settings that are valid but risky.
func (c *Config) Lint() LintWarnings {
	var ws LintWarnings
	if c.Secret.MinLength < 32 {
		ws = append(ws, LintWarning{
			Code:    "secret_min_length_low",
			Message: fmt.Sprintf("secret min_length %d is below the 32 bytes recommended for HS256", c.Secret.MinLength),
		})
	}
	if strings.EqualFold(c.Log.Level, "debug") {
		ws = append(ws, LintWarning{
			Code:    "log_level_debug",
			Message: "debug logging emits one line per validation",
		})
	}
	if !c.Audit.Enabled {
		ws = append(ws, LintWarning{
			Code:    "audit_disabled",
			Message: "denials are only visible in the server log",
		})
	}
	if !c.Metrics.Enabled {
		ws = append(ws, LintWarning{
			Code:    "metrics_disabled",
			Message: "shutdown summaries will report zero counters",
		})
	}
	return ws
}
