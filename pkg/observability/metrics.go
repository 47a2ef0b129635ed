package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRequestsTotal    = "sitterdiff.requests.total"
	metricRequestDuration  = "sitterdiff.request.duration.seconds"
	metricErrorsTotal      = "sitterdiff.errors.total"
	metricInflightRequests = "sitterdiff.inflight.requests"

	metricDiffEntries   = "sitterdiff.diff.entries"
	metricDiffHunks     = "sitterdiff.diff.hunks.total"
	metricDiffFallbacks = "sitterdiff.diff.fallbacks.total"
	metricDiffTooLarge  = "sitterdiff.diff.too_large.total"

	attrOp       = "op"
	attrStatus   = "status"
	attrLanguage = "language"
	attrSide     = "side"

	// StatusOK marks a successful request.
	StatusOK = "ok"
	// StatusError marks a failed request.
	StatusError = "error"
)

// durationBucketBoundaries covers 1ms to 30s: most diffs finish in
// milliseconds, very large files take seconds.
var durationBucketBoundaries = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// entryBucketBoundaries covers projected vector sizes from tiny snippets to
// generated files.
var entryBucketBoundaries = []float64{10, 100, 1000, 5000, 10000, 50000, 100000, 500000}

// REDMetrics holds the OTel instruments for Rate, Error, Duration metrics.
type REDMetrics struct {
	requestsTotal    metric.Int64Counter
	requestDuration  metric.Float64Histogram
	errorsTotal      metric.Int64Counter
	inflightRequests metric.Int64UpDownCounter
}

// NewREDMetrics creates RED metric instruments from the given meter.
func NewREDMetrics(mt metric.Meter) (*REDMetrics, error) {
	reqTotal, err := mt.Int64Counter(metricRequestsTotal,
		metric.WithDescription("Total number of requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRequestsTotal, err)
	}

	reqDuration, err := mt.Float64Histogram(metricRequestDuration,
		metric.WithDescription("Request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRequestDuration, err)
	}

	errTotal, err := mt.Int64Counter(metricErrorsTotal,
		metric.WithDescription("Total number of errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricErrorsTotal, err)
	}

	inflight, err := mt.Int64UpDownCounter(metricInflightRequests,
		metric.WithDescription("Number of in-flight requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricInflightRequests, err)
	}

	return &REDMetrics{
		requestsTotal:    reqTotal,
		requestDuration:  reqDuration,
		errorsTotal:      errTotal,
		inflightRequests: inflight,
	}, nil
}

// RecordRequest records a completed request with its operation, status, and duration.
func (rm *REDMetrics) RecordRequest(ctx context.Context, op, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(attrOp, op),
		attribute.String(attrStatus, status),
	)

	rm.requestsTotal.Add(ctx, 1, attrs)
	rm.requestDuration.Record(ctx, duration.Seconds(), attrs)

	if status == StatusError {
		rm.errorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOp, op)))
	}
}

// TrackInflight increments the in-flight gauge and returns a function to decrement it.
func (rm *REDMetrics) TrackInflight(ctx context.Context, op string) func() {
	attrs := metric.WithAttributes(attribute.String(attrOp, op))
	rm.inflightRequests.Add(ctx, 1, attrs)

	return func() {
		rm.inflightRequests.Add(ctx, -1, attrs)
	}
}

// DiffStats describes one completed diff.
type DiffStats struct {
	Language   string
	OldEntries int
	NewEntries int
	OldHunks   int
	NewHunks   int
	Fallback   bool
}

// DiffMetrics holds instruments describing the diffs themselves.
type DiffMetrics struct {
	entries   metric.Int64Histogram
	hunks     metric.Int64Counter
	fallbacks metric.Int64Counter
	tooLarge  metric.Int64Counter
}

// NewDiffMetrics creates diff instruments from the given meter.
func NewDiffMetrics(mt metric.Meter) (*DiffMetrics, error) {
	entries, err := mt.Int64Histogram(metricDiffEntries,
		metric.WithDescription("Projected entries per document"),
		metric.WithUnit("{entry}"),
		metric.WithExplicitBucketBoundaries(entryBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricDiffEntries, err)
	}

	hunks, err := mt.Int64Counter(metricDiffHunks,
		metric.WithDescription("Hunks produced"),
		metric.WithUnit("{hunk}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricDiffHunks, err)
	}

	fallbacks, err := mt.Int64Counter(metricDiffFallbacks,
		metric.WithDescription("Diffs that fell back to a line diff"),
		metric.WithUnit("{diff}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricDiffFallbacks, err)
	}

	tooLarge, err := mt.Int64Counter(metricDiffTooLarge,
		metric.WithDescription("Alignments that exceeded their edit distance budget"),
		metric.WithUnit("{diff}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricDiffTooLarge, err)
	}

	return &DiffMetrics{entries: entries, hunks: hunks, fallbacks: fallbacks, tooLarge: tooLarge}, nil
}

// RecordDiff records a completed diff. A nil receiver records nothing.
func (dm *DiffMetrics) RecordDiff(ctx context.Context, stats DiffStats) {
	if dm == nil {
		return
	}

	lang := attribute.String(attrLanguage, stats.Language)
	oldSide := metric.WithAttributes(lang, attribute.String(attrSide, "old"))
	newSide := metric.WithAttributes(lang, attribute.String(attrSide, "new"))

	if !stats.Fallback {
		dm.entries.Record(ctx, int64(stats.OldEntries), oldSide)
		dm.entries.Record(ctx, int64(stats.NewEntries), newSide)
	}

	dm.hunks.Add(ctx, int64(stats.OldHunks), oldSide)
	dm.hunks.Add(ctx, int64(stats.NewHunks), newSide)

	if stats.Fallback {
		dm.fallbacks.Add(ctx, 1, metric.WithAttributes(lang))
	}
}

// RecordTooLarge counts an alignment that went over budget. A nil receiver records nothing.
func (dm *DiffMetrics) RecordTooLarge(ctx context.Context, language string) {
	if dm == nil {
		return
	}

	dm.tooLarge.Add(ctx, 1, metric.WithAttributes(attribute.String(attrLanguage, language)))
}
