package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/sitterdiff/pkg/mcp"
	"github.com/Sumatoshi-tech/sitterdiff/pkg/observability"
)

func newMCPCommand(globals *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes structural diffs as tools that AI agents can discover
and invoke:
  - semantic_diff: Compare two versions of a source snippet by syntax tree
  - list_languages: Supported languages and file extensions

Logs go to stderr as JSON; stdout carries the protocol.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			globals.logJSON = true

			cfg, providers, cleanup, err := setup(cmd, globals, observability.ModeMCP, nil)
			if err != nil {
				return err
			}
			defer cleanup()

			eng, red, err := newServerEngine(cfg, providers)
			if err != nil {
				return err
			}

			srv := mcp.NewServer(mcp.ServerDeps{
				Engine:  eng,
				Logger:  providers.Logger,
				Metrics: red,
				Tracer:  providers.Tracer,
			})

			return srv.Run(cmd.Context()) //nolint:wrapcheck // already wrapped
		},
	}
}
