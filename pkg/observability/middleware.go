package observability

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// httpStatusServerError is the threshold for HTTP server errors.
const httpStatusServerError = 500

// statusWriter wraps [http.ResponseWriter] to capture the status code.
type statusWriter struct {
	http.ResponseWriter

	statusCode int
}

// WriteHeader captures the status code before delegating to the wrapped writer.
func (sw *statusWriter) WriteHeader(code int) {
	if sw.statusCode == 0 {
		sw.statusCode = code
	}

	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(buf []byte) (int, error) {
	if sw.statusCode == 0 {
		sw.statusCode = http.StatusOK
	}

	return sw.ResponseWriter.Write(buf) //nolint:wrapcheck // transparent writer
}

// HTTPMiddleware returns a [mux.MiddlewareFunc] that creates a server span
// per request and records RED metrics when metrics is non-nil. Span and
// operation names use the matched route template, e.g. "POST /api/diff".
func HTTPMiddleware(tracer trace.Tracer, metrics *REDMetrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, hr *http.Request) {
			start := time.Now()
			op := hr.Method + " " + routeTemplate(hr)

			parentCtx := otel.GetTextMapPropagator().Extract(hr.Context(), propagation.HeaderCarrier(hr.Header))

			ctx, span := tracer.Start(parentCtx, op,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(hr.Method),
					semconv.HTTPRoute(routeTemplate(hr)),
				),
			)
			defer span.End()

			if metrics != nil {
				done := metrics.TrackInflight(ctx, op)
				defer done()
			}

			sw := &statusWriter{ResponseWriter: rw}
			next.ServeHTTP(sw, hr.WithContext(ctx))

			if sw.statusCode == 0 {
				sw.statusCode = http.StatusOK
			}

			span.SetAttributes(semconv.HTTPResponseStatusCode(sw.statusCode))

			status := StatusOK
			if sw.statusCode >= httpStatusServerError {
				span.SetStatus(codes.Error, http.StatusText(sw.statusCode))

				status = StatusError
			}

			if metrics != nil {
				metrics.RecordRequest(ctx, op, status, time.Since(start))
			}
		})
	}
}

// routeTemplate returns the template of the matched mux route, or the raw
// path when the request was not routed by mux.
func routeTemplate(hr *http.Request) string {
	if route := mux.CurrentRoute(hr); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}

	return hr.URL.Path
}
