package commands

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nielsdekker/detekt-ls/internal/config"
	"github.com/nielsdekker/detekt-ls/internal/invoke"
	"github.com/nielsdekker/detekt-ls/internal/observability"
)

// ErrFindings is returned when a run reports at least one finding, so
// the process exits nonzero for CI use.
var ErrFindings = errors.New("detekt reported findings")

// RunCommand holds the flag state for the run command.
type RunCommand struct {
	executable    string
	configNames   []string
	baselineNames []string
	buildUpon     bool
	noColor       bool
}

// NewRunCommand creates and configures the run command.
func NewRunCommand() *cobra.Command {
	rc := &RunCommand{}

	cobraCmd := &cobra.Command{
		Use:   "run <file>...",
		Short: "Run detekt once and print diagnostics",
		Long: `Run detekt against the named Kotlin files and print the findings.

The detekt config is located by searching upward from each file's
directory for the configured candidate names (detekt.yaml, detekt.yml
by default). A file with no reachable config is a fatal error.`,
		Args: cobra.MinimumNArgs(1),
		RunE: rc.run,
	}

	cobraCmd.Flags().StringVar(&rc.executable, "executable", "", "detekt executable name or path")
	cobraCmd.Flags().StringSliceVar(&rc.configNames, "config-name", nil, "candidate detekt config file names, in search order")
	cobraCmd.Flags().StringSliceVar(&rc.baselineNames, "baseline-name", nil, "candidate detekt baseline file names")
	cobraCmd.Flags().BoolVar(&rc.buildUpon, "build-upon-default-config", config.DefaultBuildUponDefaultConfig,
		"pass --build-upon-default-config to detekt")
	cobraCmd.Flags().BoolVar(&rc.noColor, "no-color", false, "disable colored output")

	return cobraCmd
}

// overrides maps the explicitly-set flags onto config overrides; unset
// flags leave the loaded configuration untouched.
func (rc *RunCommand) overrides(cobraCmd *cobra.Command) config.Overrides {
	overrides := config.Overrides{
		ConfigNames:   rc.configNames,
		BaselineNames: rc.baselineNames,
	}

	if cobraCmd.Flags().Changed("executable") {
		overrides.Executable = &rc.executable
	}

	if cobraCmd.Flags().Changed("build-upon-default-config") {
		overrides.BuildUponDefaultConfig = &rc.buildUpon
	}

	return overrides
}

func (rc *RunCommand) run(cobraCmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cobraCmd, rc.overrides(cobraCmd))
	if err != nil {
		return err
	}

	if rc.noColor {
		color.NoColor = true
	}

	providers, err := observability.Init(observabilityConfig(cobraCmd, cfg, observability.ModeCLI))
	if err != nil {
		return err
	}

	defer func() { _ = providers.Shutdown(cobraCmd.Context()) }()

	out := cobraCmd.OutOrStdout()
	publisher := newTerminalPublisher(out)
	orch := buildOrchestrator(cfg, publisher, providers.Logger, nil, providers.Tracer)

	var (
		findings int
		linted   int
		runErr   error
	)

	for _, arg := range args {
		abs, absErr := filepath.Abs(arg)
		if absErr != nil {
			return fmt.Errorf("resolve %s: %w", arg, absErr)
		}

		id := invoke.Identity{URI: "file://" + abs, Path: abs}

		diags, warning, lintErr := orch.Run(cobraCmd.Context(), id)
		if warning != "" {
			publisher.PublishWarning(id, string(warning))
		}

		if lintErr != nil {
			publisher.PublishError(id, lintErr)
			runErr = lintErr

			continue
		}

		renderDiagnostics(out, abs, diags)

		findings += len(diags)
		linted++
	}

	renderSummary(out, findings, linted)

	if runErr != nil {
		return runErr
	}

	if findings > 0 {
		return ErrFindings
	}

	return nil
}
