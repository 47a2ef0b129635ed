// Package server exposes structural diffs over an HTTP JSON API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/sitterdiff/pkg/astdiff"
	"github.com/Sumatoshi-tech/sitterdiff/pkg/engine"
	"github.com/Sumatoshi-tech/sitterdiff/pkg/observability"
	"github.com/Sumatoshi-tech/sitterdiff/pkg/render"
	"github.com/Sumatoshi-tech/sitterdiff/pkg/syntax"
)

// Server timeout constants.
const (
	serverReadTimeout  = 30 * time.Second
	serverWriteTimeout = 60 * time.Second
	serverIdleTimeout  = 120 * time.Second
	shutdownTimeout    = 10 * time.Second
)

// maxBodyBytes bounds a diff request. Both documents travel in one body.
const maxBodyBytes = 8 << 20

// Default labels for request documents without a name.
const (
	defaultOldLabel = "old"
	defaultNewLabel = "new"
)

// DiffRequest is the body of POST /api/diff. Language may be empty when the
// labels carry file extensions.
type DiffRequest struct {
	Old      string `json:"old"`
	New      string `json:"new"`
	Language string `json:"language,omitempty"`
	OldLabel string `json:"old_label,omitempty"`
	NewLabel string `json:"new_label,omitempty"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Deps holds the server dependencies. Zero-value fields use defaults.
type Deps struct {
	// Engine runs the diffs. Nil uses an engine with the default configuration.
	Engine *engine.Engine
	// Logger is the request logger. Nil uses slog default.
	Logger *slog.Logger
	// Tracer creates one span per request. Nil disables tracing.
	Tracer trace.Tracer
	// Metrics records RED metrics per route. Nil disables them.
	Metrics *observability.REDMetrics
	// MetricsHandler, when set, is served on GET /metrics.
	MetricsHandler http.Handler
}

// Server routes the HTTP API.
type Server struct {
	engine *engine.Engine
	logger *slog.Logger
	router *mux.Router
}

// New builds the router with all routes registered.
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tracer := deps.Tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(observability.InstrumentationName)
	}

	eng := deps.Engine
	if eng == nil {
		eng = engine.New(nil, engine.WithLogger(logger), engine.WithTracer(tracer))
	}

	srv := &Server{engine: eng, logger: logger, router: mux.NewRouter()}

	api := srv.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/diff", srv.handleDiff).Methods(http.MethodPost)
	api.HandleFunc("/languages", srv.handleLanguages).Methods(http.MethodGet)

	srv.router.HandleFunc("/healthz", srv.handleHealth).Methods(http.MethodGet)

	if deps.MetricsHandler != nil {
		srv.router.Handle("/metrics", deps.MetricsHandler).Methods(http.MethodGet)
	}

	srv.router.Use(observability.HTTPMiddleware(tracer, deps.Metrics))

	return srv
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}

	errCh := make(chan error, 1)

	go func() {
		s.logger.InfoContext(ctx, "http server listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	err := httpServer.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	return nil
}

func (s *Server) handleDiff(rw http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var body DiffRequest

	decoder := json.NewDecoder(http.MaxBytesReader(rw, req.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()

	decodeErr := decoder.Decode(&body)
	if decodeErr != nil {
		status := http.StatusBadRequest

		var tooLarge *http.MaxBytesError
		if errors.As(decodeErr, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}

		s.writeError(ctx, rw, status, fmt.Errorf("invalid request body: %w", decodeErr))

		return
	}

	oldSrc := engine.Source{Label: labelOr(body.OldLabel, defaultOldLabel), Content: []byte(body.Old)}
	newSrc := engine.Source{Label: labelOr(body.NewLabel, defaultNewLabel), Content: []byte(body.New)}

	res, err := s.engine.DiffSources(ctx, oldSrc, newSrc, body.Language)
	if err != nil {
		s.writeError(ctx, rw, statusFor(err), err)

		return
	}

	s.writeJSON(ctx, rw, http.StatusOK, render.NewReport(res.RenderInput()))
}

func (s *Server) handleLanguages(rw http.ResponseWriter, req *http.Request) {
	s.writeJSON(req.Context(), rw, http.StatusOK, syntax.SupportedLanguages())
}

func (s *Server) handleHealth(rw http.ResponseWriter, req *http.Request) {
	s.writeJSON(req.Context(), rw, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps engine errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, syntax.ErrUnsupportedLanguage), errors.Is(err, engine.ErrLanguageMismatch):
		return http.StatusBadRequest
	case errors.Is(err, astdiff.ErrDiffTooLarge):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(ctx context.Context, rw http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(ctx, "diff request failed", "error", err)
	} else {
		s.logger.DebugContext(ctx, "diff request rejected", "status", status, "error", err)
	}

	s.writeJSON(ctx, rw, status, ErrorResponse{Error: err.Error()})
}

// writeJSON encodes the given value as JSON and writes it to the response writer.
func (s *Server) writeJSON(ctx context.Context, rw http.ResponseWriter, status int, value any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)

	encodeErr := json.NewEncoder(rw).Encode(value)
	if encodeErr != nil {
		s.logger.ErrorContext(ctx, "failed to encode JSON response", "error", encodeErr)
	}
}

func labelOr(label, fallback string) string {
	if label == "" {
		return fallback
	}

	return label
}
