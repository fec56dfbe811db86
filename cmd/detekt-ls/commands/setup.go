// Package commands implements the detekt-ls subcommands.
package commands

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/nielsdekker/detekt-ls/internal/config"
	"github.com/nielsdekker/detekt-ls/internal/invoke"
	"github.com/nielsdekker/detekt-ls/internal/lint"
	"github.com/nielsdekker/detekt-ls/internal/observability"
	"github.com/nielsdekker/detekt-ls/internal/runner"
	"github.com/nielsdekker/detekt-ls/pkg/version"
)

// metricsReadHeaderTimeout bounds slow-header clients on the metrics
// listener.
const metricsReadHeaderTimeout = 5 * time.Second

// loadConfig loads the configuration honoring the root --config-file
// flag and layers the command's explicit overrides on top.
func loadConfig(cmd *cobra.Command, overrides config.Overrides) (*config.Config, error) {
	configFile := ""
	if flag := cmd.Flags().Lookup("config-file"); flag != nil {
		configFile = flag.Value.String()
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	overrides.Apply(cfg)

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, validateErr
	}

	return cfg, nil
}

// observabilityConfig derives the telemetry configuration for a mode
// from the loaded config and the root --verbose flag.
func observabilityConfig(cmd *cobra.Command, cfg *config.Config, mode observability.AppMode) observability.Config {
	obsCfg := observability.DefaultConfig()
	obsCfg.Mode = mode
	obsCfg.ServiceVersion = version.Version
	obsCfg.OTLPEndpoint = cfg.Observability.OTLPEndpoint
	obsCfg.OTLPInsecure = cfg.Observability.OTLPInsecure
	obsCfg.EnablePrometheus = cfg.Observability.MetricsAddr != ""
	obsCfg.LogJSON = cfg.Observability.LogJSON

	if flag := cmd.Flags().Lookup("quiet"); flag != nil && flag.Value.String() == "true" {
		obsCfg.LogLevel = slog.LevelWarn
	}

	// Verbose wins over quiet.
	if flag := cmd.Flags().Lookup("verbose"); flag != nil && flag.Value.String() == "true" {
		obsCfg.LogLevel = slog.LevelDebug
	}

	return obsCfg
}

// buildOrchestrator wires the resolution cache, process runner, and
// publisher into an orchestrator. Metrics and tracer may be nil.
func buildOrchestrator(
	cfg *config.Config,
	publisher lint.Publisher,
	logger *slog.Logger,
	metrics *observability.LintMetrics,
	tracer trace.Tracer,
) *lint.Orchestrator {
	builder := invoke.Builder{
		Executable:             cfg.Lint.Executable,
		BuildUponDefaultConfig: cfg.Lint.BuildUponDefaultConfig,
	}

	cache := invoke.NewCache(builder, cfg.Lint.ConfigNames, cfg.Lint.BaselineNames)

	return lint.New(lint.Deps{
		Cache:     cache,
		Runner:    runner.NewExecRunner(),
		Publisher: publisher,
		Logger:    logger,
		Metrics:   metrics,
		Tracer:    tracer,
	})
}

// serveMetrics starts the /metrics, /healthz and /readyz listener in
// the background and returns the server for shutdown.
func serveMetrics(addr string, promHandler http.Handler, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()

	if promHandler != nil {
		mux.Handle("/metrics", promHandler)
	}

	mux.Handle("/healthz", observability.HealthHandler())
	mux.Handle("/readyz", observability.ReadyHandler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: metricsReadHeaderTimeout,
	}

	go func() {
		serveErr := srv.ListenAndServe()
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", "addr", addr, "error", serveErr)
		}
	}()

	logger.Info("metrics listening", "addr", addr)

	return srv
}
