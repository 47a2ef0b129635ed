// Package commands implements CLI command handlers for sitterdiff.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric"

	"github.com/Sumatoshi-tech/sitterdiff/pkg/config"
	"github.com/Sumatoshi-tech/sitterdiff/pkg/engine"
	"github.com/Sumatoshi-tech/sitterdiff/pkg/observability"
	"github.com/Sumatoshi-tech/sitterdiff/pkg/version"
)

// envConfigPath selects the config file when --config is not given.
const envConfigPath = "SITTERDIFF_CONFIG"

// Legacy --cmd values.
const (
	legacyCmdList       = "list"
	legacyCmdDumpConfig = "dump_default_config"
)

var (
	// ErrArgCount is returned when the root command does not get exactly two files.
	ErrArgCount = errors.New("expected two files to compare: OLD NEW")
	// ErrUnknownCommand is returned for an unknown --cmd value.
	ErrUnknownCommand = errors.New("unknown command")
)

// globalOptions are the flags shared by every command.
type globalOptions struct {
	configPath string
	noConfig   bool
	debug      bool
	logJSON    bool
}

// diffOptions are the flags of the root diff command.
type diffOptions struct {
	filetype  string
	color     string
	format    string
	watch     bool
	legacyCmd string
}

// NewRootCommand builds the sitterdiff command tree.
func NewRootCommand() *cobra.Command {
	globals := &globalOptions{}
	opts := &diffOptions{}

	rootCmd := &cobra.Command{
		Use:   "sitterdiff [flags] OLD NEW",
		Short: "Structural diff of source files based on their syntax trees",
		Long: `sitterdiff compares two versions of a source file by parsing both with
tree-sitter and aligning their syntax nodes. Formatting-only edits produce no
output; real changes are shown as the nodes that were removed and added.

Commands:
  list                  Supported languages and extensions
  dump-default-config   Print the default configuration
  mcp                   Model Context Protocol server on stdio
  serve                 HTTP API server
  version               Show version information`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, globals, opts, args)
		},
	}

	persistent := rootCmd.PersistentFlags()
	persistent.StringVarP(&globals.configPath, "config", "c", "",
		"config file (default: search XDG config dir, ~/.sitterdiff.yaml, ./.sitterdiff.yaml; env "+envConfigPath+")")
	persistent.BoolVarP(&globals.noConfig, "no-config", "n", false, "ignore config files and use the defaults")
	persistent.BoolVarP(&globals.debug, "debug", "d", false, "enable debug logging to stderr")
	persistent.BoolVar(&globals.logJSON, "log-json", false, "write logs as JSON")

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.filetype, "filetype", "t", "", "language to parse both files with, overriding detection (see list)")
	flags.StringVar(&opts.color, "color", "auto", "color output: auto, on, off")
	flags.StringVar(&opts.format, "format", "terminal", "output format: terminal, json, summary")
	flags.BoolVarP(&opts.watch, "watch", "w", false, "re-run the diff whenever either file changes")
	flags.StringVar(&opts.legacyCmd, "cmd", "", "run a utility command: list, dump_default_config")

	rootCmd.AddCommand(
		newListCommand(),
		newDumpConfigCommand(globals),
		newMCPCommand(globals),
		newServeCommand(globals),
		newVersionCommand(),
	)

	return rootCmd
}

func runRoot(cmd *cobra.Command, globals *globalOptions, opts *diffOptions, args []string) error {
	switch opts.legacyCmd {
	case "":
	case legacyCmdList:
		return runList(cmd.OutOrStdout())
	case legacyCmdDumpConfig:
		return config.Dump(cmd.OutOrStdout(), config.FormatJSON)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, opts.legacyCmd)
	}

	if len(args) != 2 { //nolint:mnd // OLD and NEW
		return ErrArgCount
	}

	return runDiff(cmd, globals, opts, args[0], args[1])
}

// loadConfig resolves the configuration per the global flags. A missing
// explicit file is reported in the returned warning and the defaults are used.
func loadConfig(globals *globalOptions) (cfg *config.Config, warning error, err error) {
	if globals.noConfig {
		return config.Default(), nil, nil
	}

	path := globals.configPath
	if path == "" {
		path = os.Getenv(envConfigPath)
	}

	cfg, err = config.LoadConfig(path)
	if errors.Is(err, config.ErrConfigFileNotFound) {
		return config.Default(), err, nil
	}

	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil, nil
}

// initObservability starts logging and telemetry for mode. meterProvider may
// be nil; see observability.Init.
func initObservability(
	cfg *config.Config,
	globals *globalOptions,
	mode observability.AppMode,
	logOutput io.Writer,
	meterProvider metric.MeterProvider,
) (observability.Providers, error) {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Mode = mode
	obsCfg.LogOutput = logOutput
	obsCfg.LogJSON = cfg.Logging.JSON || globals.logJSON

	level, err := observability.ParseLogLevel(cfg.Logging.Level)
	if err != nil {
		return observability.Providers{}, fmt.Errorf("logging.level: %w", err)
	}

	obsCfg.LogLevel = level

	if globals.debug {
		obsCfg.LogLevel = slog.LevelDebug
	}

	providers, err := observability.Init(obsCfg, meterProvider)
	if err != nil {
		return observability.Providers{}, fmt.Errorf("init observability: %w", err)
	}

	return providers, nil
}

// setup loads the configuration and starts observability, logging the
// config warning once a logger exists. The returned cleanup flushes telemetry.
func setup(
	cmd *cobra.Command,
	globals *globalOptions,
	mode observability.AppMode,
	meterProvider metric.MeterProvider,
) (*config.Config, observability.Providers, func(), error) {
	cfg, warning, err := loadConfig(globals)
	if err != nil {
		return nil, observability.Providers{}, nil, err
	}

	providers, err := initObservability(cfg, globals, mode, cmd.ErrOrStderr(), meterProvider)
	if err != nil {
		return nil, observability.Providers{}, nil, err
	}

	if warning != nil {
		providers.Logger.Warn("using default configuration", "error", warning)
	}

	providers.Logger.Debug("configuration loaded", "source", cfg.Source,
		"max_edit_distance", cfg.Alignment.MaxEditDistance, "fallback", cfg.Alignment.Fallback)

	cleanup := func() {
		shutdownErr := providers.Shutdown(context.WithoutCancel(cmd.Context()))
		if shutdownErr != nil {
			providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
		}
	}

	return cfg, providers, cleanup, nil
}

// newServerEngine builds the engine shared by the long-running commands,
// with the result cache enabled, and the request metrics for their handlers.
func newServerEngine(cfg *config.Config, providers observability.Providers) (*engine.Engine, *observability.REDMetrics, error) {
	red, err := observability.NewREDMetrics(providers.Meter)
	if err != nil {
		return nil, nil, fmt.Errorf("create request metrics: %w", err)
	}

	diffMetrics, err := observability.NewDiffMetrics(providers.Meter)
	if err != nil {
		return nil, nil, fmt.Errorf("create diff metrics: %w", err)
	}

	cacheSize, err := cfg.CacheSizeBytes()
	if err != nil {
		return nil, nil, err //nolint:wrapcheck // names the setting
	}

	eng := engine.New(cfg,
		engine.WithLogger(providers.Logger),
		engine.WithTracer(providers.Tracer),
		engine.WithMetrics(diffMetrics),
		engine.WithResultCache(cacheSize),
	)

	return eng, red, nil
}
