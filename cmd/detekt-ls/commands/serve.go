package commands

import (
	"context"
	"sync"

	"github.com/spf13/cobra"

	"github.com/nielsdekker/detekt-ls/internal/config"
	"github.com/nielsdekker/detekt-ls/internal/invoke"
	"github.com/nielsdekker/detekt-ls/internal/lint"
	"github.com/nielsdekker/detekt-ls/internal/lsp"
	"github.com/nielsdekker/detekt-ls/internal/observability"
	"github.com/nielsdekker/detekt-ls/internal/sarif"
)

// ServeCommand holds the flag state for the serve command.
type ServeCommand struct {
	metricsAddr  string
	otlpEndpoint string
	logJSON      bool
}

// NewServeCommand creates and configures the serve command.
func NewServeCommand() *cobra.Command {
	sc := &ServeCommand{}

	cobraCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the language server on stdio",
		Long: `Start the detekt-ls language server, speaking LSP over stdio.

Document open and save events trigger detekt runs; findings come back
as publishDiagnostics notifications. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: sc.run,
	}

	cobraCmd.Flags().StringVar(&sc.metricsAddr, "metrics-addr", "", "listen address for /metrics, /healthz and /readyz (empty disables)")
	cobraCmd.Flags().StringVar(&sc.otlpEndpoint, "otlp-endpoint", "", "OTLP gRPC collector address (empty disables export)")
	cobraCmd.Flags().BoolVar(&sc.logJSON, "log-json", false, "emit JSON-formatted logs")

	return cobraCmd
}

func (sc *ServeCommand) overrides(cobraCmd *cobra.Command) config.Overrides {
	var overrides config.Overrides

	if cobraCmd.Flags().Changed("metrics-addr") {
		overrides.MetricsAddr = &sc.metricsAddr
	}

	if cobraCmd.Flags().Changed("otlp-endpoint") {
		overrides.OTLPEndpoint = &sc.otlpEndpoint
	}

	if cobraCmd.Flags().Changed("log-json") {
		overrides.LogJSON = &sc.logJSON
	}

	return overrides
}

func (sc *ServeCommand) run(cobraCmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cobraCmd, sc.overrides(cobraCmd))
	if err != nil {
		return err
	}

	providers, err := observability.Init(observabilityConfig(cobraCmd, cfg, observability.ModeServe))
	if err != nil {
		return err
	}

	defer func() { _ = providers.Shutdown(context.Background()) }()

	metrics, err := observability.NewLintMetrics(providers.Meter)
	if err != nil {
		return err
	}

	// The LSP server is both the trigger source and the Publisher, so
	// it is wired to the orchestrator through a late-bound relay.
	relay := &relayPublisher{}
	orch := buildOrchestrator(cfg, relay, providers.Logger, metrics, providers.Tracer)
	srv := lsp.NewServer(orch, cfg, providers.Logger)
	relay.bind(srv)

	if cfg.Observability.MetricsAddr != "" {
		metricsSrv := serveMetrics(cfg.Observability.MetricsAddr, providers.PromHandler, providers.Logger)

		defer func() { _ = metricsSrv.Shutdown(context.Background()) }()
	}

	providers.Logger.Info("language server starting", "transport", "stdio")

	return srv.Run()
}

// relayPublisher forwards to a Publisher bound after construction.
// Publications before bind are dropped; the server cannot receive
// triggers before it exists.
type relayPublisher struct {
	mu       sync.Mutex
	delegate lint.Publisher
}

func (r *relayPublisher) bind(delegate lint.Publisher) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.delegate = delegate
}

func (r *relayPublisher) target() lint.Publisher {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.delegate
}

func (r *relayPublisher) PublishDiagnostics(id invoke.Identity, diags []sarif.Diagnostic) {
	if delegate := r.target(); delegate != nil {
		delegate.PublishDiagnostics(id, diags)
	}
}

func (r *relayPublisher) PublishWarning(id invoke.Identity, msg string) {
	if delegate := r.target(); delegate != nil {
		delegate.PublishWarning(id, msg)
	}
}

func (r *relayPublisher) PublishError(id invoke.Identity, err error) {
	if delegate := r.target(); delegate != nil {
		delegate.PublishError(id, err)
	}
}
