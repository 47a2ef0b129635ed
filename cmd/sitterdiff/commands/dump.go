package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/sitterdiff/pkg/config"
)

func newDumpConfigCommand(globals *globalOptions) *cobra.Command {
	var (
		format  string
		current bool
	)

	cmd := &cobra.Command{
		Use:   "dump-default-config",
		Short: "Print the default configuration",
		Long: `Print the default configuration as YAML or JSON. The output is a valid
config file and a starting point for customisation.

With --current the effective configuration (files, environment and defaults
merged) is printed instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !current {
				return config.Dump(cmd.OutOrStdout(), format) //nolint:wrapcheck // already wrapped
			}

			cfg, warning, err := loadConfig(globals)
			if err != nil {
				return err
			}

			if warning != nil {
				return warning
			}

			return cfg.Write(cmd.OutOrStdout(), format) //nolint:wrapcheck // already wrapped
		},
	}

	cmd.Flags().StringVar(&format, "format", config.FormatYAML, "output format: yaml, json")
	cmd.Flags().BoolVar(&current, "current", false, "print the effective configuration instead of the defaults")

	return cmd
}
