package commands

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/sitterdiff/pkg/render"
	"github.com/Sumatoshi-tech/sitterdiff/pkg/syntax"
)

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List supported languages and their file extensions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd.OutOrStdout())
		},
	}
}

func runList(w io.Writer) error {
	return render.Languages(w, syntax.SupportedLanguages()) //nolint:wrapcheck // already wrapped
}
