package commands

import (
	"net/http"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric"

	"github.com/Sumatoshi-tech/sitterdiff/pkg/observability"
	"github.com/Sumatoshi-tech/sitterdiff/pkg/server"
)

// defaultAddr is the listen address of the serve command.
const defaultAddr = ":8080"

func newServeCommand(globals *globalOptions) *cobra.Command {
	var (
		addr    string
		metrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start an HTTP server exposing structural diffs as a JSON API.

Routes:
  POST /api/diff        {"old", "new", "language", "old_label", "new_label"}
  GET  /api/languages   supported languages
  GET  /healthz         liveness check
  GET  /metrics         Prometheus metrics (with --metrics)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				metricsHandler http.Handler
				meterProvider  metric.MeterProvider
			)

			if metrics {
				var err error

				metricsHandler, meterProvider, err = observability.PrometheusHandler()
				if err != nil {
					return err //nolint:wrapcheck // already wrapped
				}
			}

			cfg, providers, cleanup, err := setup(cmd, globals, observability.ModeServe, meterProvider)
			if err != nil {
				return err
			}
			defer cleanup()

			eng, red, err := newServerEngine(cfg, providers)
			if err != nil {
				return err
			}

			srv := server.New(server.Deps{
				Engine:         eng,
				Logger:         providers.Logger,
				Tracer:         providers.Tracer,
				Metrics:        red,
				MetricsHandler: metricsHandler,
			})

			return srv.ListenAndServe(cmd.Context(), addr) //nolint:wrapcheck // already wrapped
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listen address")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "serve Prometheus metrics on /metrics")

	return cmd
}
