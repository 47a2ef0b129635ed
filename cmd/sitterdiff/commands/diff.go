package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/sitterdiff/pkg/engine"
	"github.com/Sumatoshi-tech/sitterdiff/pkg/observability"
	"github.com/Sumatoshi-tech/sitterdiff/pkg/render"
	"github.com/Sumatoshi-tech/sitterdiff/pkg/watch"
)

// clearScreen resets the terminal between watch iterations.
const clearScreen = "\x1b[H\x1b[2J"

func runDiff(cmd *cobra.Command, globals *globalOptions, opts *diffOptions, oldPath, newPath string) error {
	policy, err := render.ParseColorPolicy(opts.color)
	if err != nil {
		return err
	}

	mode := observability.ModeCLI
	if opts.watch {
		mode = observability.ModeWatch
	}

	cfg, providers, cleanup, err := setup(cmd, globals, mode, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	renderer, err := render.New(opts.format, cfg.Formatting, policy)
	if err != nil {
		return err
	}

	diffMetrics, err := observability.NewDiffMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("create diff metrics: %w", err)
	}

	eng := engine.New(cfg,
		engine.WithLogger(providers.Logger),
		engine.WithTracer(providers.Tracer),
		engine.WithMetrics(diffMetrics),
	)

	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	diffOnce := func(ctx context.Context) error {
		res, diffErr := eng.DiffFiles(ctx, oldPath, newPath, opts.filetype)
		if diffErr != nil {
			return diffErr //nolint:wrapcheck // engine errors name the file
		}

		return renderer.Render(out, res.RenderInput()) //nolint:wrapcheck // renderer errors are I/O errors
	}

	err = diffOnce(ctx)
	if !opts.watch {
		return err
	}

	if err != nil {
		reportWatchError(cmd.ErrOrStderr(), err)
	}

	providers.Logger.InfoContext(ctx, "watching for changes", "old", oldPath, "new", newPath)

	return watch.Watch(ctx, []string{oldPath, newPath}, 0, func(ctx context.Context) {
		if opts.format == render.FormatTerminal {
			fmt.Fprint(out, clearScreen)
		}

		iterErr := diffOnce(ctx)
		if iterErr != nil {
			reportWatchError(cmd.ErrOrStderr(), iterErr)
		}
	}, watch.WithLogger(providers.Logger))
}

// reportWatchError prints an error without ending the watch loop.
func reportWatchError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
}
