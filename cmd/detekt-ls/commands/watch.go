package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nielsdekker/detekt-ls/internal/config"
	"github.com/nielsdekker/detekt-ls/internal/observability"
	"github.com/nielsdekker/detekt-ls/internal/watch"
)

// WatchCommand holds the flag state for the watch command.
type WatchCommand struct {
	metricsAddr string
	noColor     bool
}

// NewWatchCommand creates and configures the watch command.
func NewWatchCommand() *cobra.Command {
	wc := &WatchCommand{}

	cobraCmd := &cobra.Command{
		Use:   "watch [directory]",
		Short: "Watch a directory tree and lint on change",
		Long: `Watch a directory tree recursively and run detekt on every settled
change to a matching Kotlin file. Findings print to stdout as they
arrive. Stops on SIGINT or SIGTERM.`,
		Args: cobra.MaximumNArgs(1),
		RunE: wc.run,
	}

	cobraCmd.Flags().StringVar(&wc.metricsAddr, "metrics-addr", "", "listen address for /metrics, /healthz and /readyz (empty disables)")
	cobraCmd.Flags().BoolVar(&wc.noColor, "no-color", false, "disable colored output")

	return cobraCmd
}

func (wc *WatchCommand) run(cobraCmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	var overrides config.Overrides
	if cobraCmd.Flags().Changed("metrics-addr") {
		overrides.MetricsAddr = &wc.metricsAddr
	}

	cfg, err := loadConfig(cobraCmd, overrides)
	if err != nil {
		return err
	}

	if wc.noColor {
		color.NoColor = true
	}

	providers, err := observability.Init(observabilityConfig(cobraCmd, cfg, observability.ModeWatch))
	if err != nil {
		return err
	}

	defer func() { _ = providers.Shutdown(context.Background()) }()

	metrics, err := observability.NewLintMetrics(providers.Meter)
	if err != nil {
		return err
	}

	publisher := newTerminalPublisher(cobraCmd.OutOrStdout())
	orch := buildOrchestrator(cfg, publisher, providers.Logger, metrics, providers.Tracer)
	watcher := watch.New(orch, cfg, providers.Logger)

	if cfg.Observability.MetricsAddr != "" {
		metricsSrv := serveMetrics(cfg.Observability.MetricsAddr, providers.PromHandler, providers.Logger)

		defer func() { _ = metricsSrv.Shutdown(context.Background()) }()
	}

	ctx, stop := signal.NotifyContext(cobraCmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watchErr := watcher.Run(ctx, root)
	if errors.Is(watchErr, context.Canceled) {
		return nil
	}

	return watchErr
}
