package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nielsdekker/detekt-ls/internal/config"
)

// NewConfigCommand creates the config command, which prints the
// effective configuration after file, environment, and defaults merge.
func NewConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cobraCmd, config.Overrides{})
			if err != nil {
				return err
			}

			out, marshalErr := yaml.Marshal(cfg)
			if marshalErr != nil {
				return fmt.Errorf("marshal config: %w", marshalErr)
			}

			fmt.Fprint(cobraCmd.OutOrStdout(), string(out))

			return nil
		},
	}
}
