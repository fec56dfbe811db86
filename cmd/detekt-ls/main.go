// Package main provides the entry point for the detekt-ls binary.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nielsdekker/detekt-ls/cmd/detekt-ls/commands"
	"github.com/nielsdekker/detekt-ls/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	rootCmd := &cobra.Command{
		Use:   "detekt-ls",
		Short: "detekt-ls - detekt runner and language server",
		Long: `detekt-ls runs the detekt static analyzer against Kotlin sources and
normalizes its SARIF report into editor diagnostics.

Commands:
  run     Lint files once and print diagnostics
  serve   Start the language server on stdio
  watch   Watch a directory tree and lint on change
  config  Print the effective configuration`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "only log warnings and errors")
	rootCmd.PersistentFlags().String("config-file", "", "detekt-ls config file path")

	// Add commands.
	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewWatchCommand())
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "detekt-ls %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
