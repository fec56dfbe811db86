// Package observability provides OpenTelemetry-based tracing, metrics,
// and structured logging for all detekt-ls execution modes.
package observability

import "log/slog"

// AppMode identifies the application execution mode.
type AppMode string

const (
	// ModeCLI is the one-shot CLI execution mode.
	ModeCLI AppMode = "cli"
	// ModeServe is the LSP stdio server mode.
	ModeServe AppMode = "serve"
	// ModeWatch is the filesystem watcher mode.
	ModeWatch AppMode = "watch"
)

const (
	// defaultServiceName is the default OTel service name.
	defaultServiceName = "detekt-ls"

	// defaultShutdownTimeoutSec is the default shutdown timeout in seconds.
	defaultShutdownTimeoutSec = 5
)

// Config holds all observability configuration.
type Config struct {
	// ServiceName is the OTel resource service name.
	ServiceName string

	// ServiceVersion is the semantic version of the running binary.
	ServiceVersion string

	// Mode identifies how the binary was launched.
	Mode AppMode

	// OTLPEndpoint is the OTLP gRPC collector address (e.g.
	// "localhost:4317"). Empty disables OTLP export.
	OTLPEndpoint string

	// OTLPInsecure disables TLS for the OTLP gRPC connection.
	OTLPInsecure bool

	// EnablePrometheus attaches a Prometheus reader to the meter
	// provider and exposes a /metrics handler on Providers.
	EnablePrometheus bool

	// LogLevel controls the minimum slog severity.
	LogLevel slog.Level

	// LogJSON enables JSON-formatted log output.
	LogJSON bool

	// ShutdownTimeoutSec is the maximum seconds to wait for flush on
	// shutdown.
	ShutdownTimeoutSec int
}

// DefaultConfig returns a Config with sensible defaults for
// zero-config startup.
func DefaultConfig() Config {
	return Config{
		ServiceName:        defaultServiceName,
		Mode:               ModeCLI,
		LogLevel:           slog.LevelInfo,
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}
