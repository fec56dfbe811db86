// Package config defines the typed configuration for detekt-ls and its
// viper-backed loader.
package config

import (
	"errors"
	"path/filepath"
)

// Config is the top-level configuration struct for detekt-ls.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Lint          LintConfig          `mapstructure:"lint" yaml:"lint"`
	Observability ObservabilityConfig `mapstructure:"observability" yaml:"observability"`
}

// LintConfig holds the detekt invocation surface.
type LintConfig struct {
	// ConfigNames are the candidate config file names, searched upward
	// from the target file's directory, in order.
	ConfigNames []string `mapstructure:"config_names" yaml:"config_names"`

	// BaselineNames are the candidate baseline file names. Empty
	// disables the baseline search entirely.
	BaselineNames []string `mapstructure:"baseline_names" yaml:"baseline_names"`

	// BuildUponDefaultConfig adds --build-upon-default-config to the
	// invocation when true.
	BuildUponDefaultConfig bool `mapstructure:"build_upon_default_config" yaml:"build_upon_default_config"`

	// Executable is the detekt executable name or path.
	Executable string `mapstructure:"executable" yaml:"executable"`

	// TriggerFilePatterns are the glob patterns (matched against the
	// target's base name) that decide which files trigger a run.
	TriggerFilePatterns []string `mapstructure:"trigger_file_patterns" yaml:"trigger_file_patterns"`
}

// ObservabilityConfig holds telemetry knobs.
type ObservabilityConfig struct {
	// MetricsAddr is the listen address for /metrics, /healthz and
	// /readyz in serve and watch modes. Empty disables the endpoint.
	MetricsAddr string `mapstructure:"metrics_addr" yaml:"metrics_addr"`

	// OTLPEndpoint is the OTLP gRPC collector address. Empty disables
	// export; providers become no-op.
	OTLPEndpoint string `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`

	// OTLPInsecure disables TLS for the OTLP gRPC connection.
	OTLPInsecure bool `mapstructure:"otlp_insecure" yaml:"otlp_insecure"`

	// LogJSON enables JSON-formatted log output.
	LogJSON bool `mapstructure:"log_json" yaml:"log_json"`
}

// Sentinel errors for configuration validation.
var (
	// ErrNoConfigNames indicates the config candidate list is empty.
	ErrNoConfigNames = errors.New("lint.config_names must not be empty")
	// ErrNoExecutable indicates the executable name is empty.
	ErrNoExecutable = errors.New("lint.executable must not be empty")
	// ErrNoTriggerPatterns indicates the trigger pattern list is empty.
	ErrNoTriggerPatterns = errors.New("lint.trigger_file_patterns must not be empty")
	// ErrBadTriggerPattern indicates a trigger pattern is not a valid glob.
	ErrBadTriggerPattern = errors.New("lint.trigger_file_patterns contains an invalid glob")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if len(c.Lint.ConfigNames) == 0 {
		return ErrNoConfigNames
	}

	if c.Lint.Executable == "" {
		return ErrNoExecutable
	}

	if len(c.Lint.TriggerFilePatterns) == 0 {
		return ErrNoTriggerPatterns
	}

	for _, pattern := range c.Lint.TriggerFilePatterns {
		_, err := filepath.Match(pattern, "probe.kt")
		if err != nil {
			return ErrBadTriggerPattern
		}
	}

	return nil
}

// TriggerMatch reports whether the file at path matches any configured
// trigger pattern. Patterns match against the base name only.
func (c *Config) TriggerMatch(path string) bool {
	base := filepath.Base(path)

	for _, pattern := range c.Lint.TriggerFilePatterns {
		ok, err := filepath.Match(pattern, base)
		if err == nil && ok {
			return true
		}
	}

	return false
}
