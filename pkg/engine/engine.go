// Package engine runs a complete diff: it resolves the grammar, parses both
// documents, aligns them and applies the configured retry and fallback policy
// when the alignment is over budget.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/sitterdiff/pkg/astdiff"
	"github.com/Sumatoshi-tech/sitterdiff/pkg/cache"
	"github.com/Sumatoshi-tech/sitterdiff/pkg/config"
	"github.com/Sumatoshi-tech/sitterdiff/pkg/observability"
	"github.com/Sumatoshi-tech/sitterdiff/pkg/render"
	"github.com/Sumatoshi-tech/sitterdiff/pkg/syntax"
	"github.com/Sumatoshi-tech/sitterdiff/pkg/textdiff"
)

// ErrLanguageMismatch indicates that the two documents resolve to different grammars.
var ErrLanguageMismatch = errors.New("documents use different languages")

// Result is a completed diff.
type Result struct {
	Language string
	Old      render.Document
	New      render.Document
	// Fallback is set when the hunks come from a line diff.
	Fallback bool
	// Stats is empty for fallback results.
	Stats      astdiff.Stats
	OldEntries int
	NewEntries int
}

// RenderInput adapts the result for a renderer.
func (r *Result) RenderInput() render.Input {
	return render.Input{Language: r.Language, Fallback: r.Fallback, Old: r.Old, New: r.New}
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Nil is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithTracer sets the tracer. Nil is ignored.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

// WithMetrics records diff metrics.
func WithMetrics(metrics *observability.DiffMetrics) Option {
	return func(e *Engine) { e.metrics = metrics }
}

// WithResultCache keeps up to maxBytes of results and returns them for
// repeated requests. Zero disables the cache.
func WithResultCache(maxBytes uint64) Option {
	return func(e *Engine) {
		e.results = cache.New[resultKey, *Result](int64(min(maxBytes, math.MaxInt64)), resultSize) //nolint:gosec // clamped
	}
}

// Engine diffs documents according to a configuration. It is safe for concurrent use.
type Engine struct {
	cfg     *config.Config
	parser  *syntax.Parser
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *observability.DiffMetrics
	results *cache.Cache[resultKey, *Result]
}

// resultKey identifies a diff request. Labels are part of the key because
// they are part of the result.
type resultKey struct {
	language string
	oldLabel string
	newLabel string
	old      cache.Digest
	new      cache.Digest
}

// hunkOverhead approximates the memory of one hunk beyond the document text.
const hunkOverhead = 256

func resultSize(r *Result) int64 {
	hunks := len(r.Old.Hunks) + len(r.New.Hunks)

	return int64(len(r.Old.Text) + len(r.New.Text) + hunks*hunkOverhead)
}

// New creates an Engine. A nil cfg means config.Default().
func New(cfg *config.Config, opts ...Option) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}

	e := &Engine{
		cfg:    cfg,
		parser: syntax.NewParser(cfg.FileAssociations),
		logger: slog.Default(),
		tracer: nooptrace.NewTracerProvider().Tracer(observability.InstrumentationName),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Config returns the engine configuration.
func (e *Engine) Config() *config.Config { return e.cfg }

// CacheStats reports the result cache counters.
func (e *Engine) CacheStats() cache.Stats { return e.results.Stats() }

// Parser returns the parser used to resolve and parse documents.
func (e *Engine) Parser() *syntax.Parser { return e.parser }

// DiffFiles reads and diffs two files. language, when set, overrides detection.
func (e *Engine) DiffFiles(ctx context.Context, oldPath, newPath, language string) (*Result, error) {
	maxSize, err := e.cfg.MaxFileSizeBytes()
	if err != nil {
		return nil, err
	}

	oldSrc, err := ReadSource(oldPath, maxSize)
	if err != nil {
		return nil, &astdiff.SideError{Side: astdiff.SideOld, Label: oldPath, Err: err}
	}

	newSrc, err := ReadSource(newPath, maxSize)
	if err != nil {
		return nil, &astdiff.SideError{Side: astdiff.SideNew, Label: newPath, Err: err}
	}

	return e.DiffSources(ctx, oldSrc, newSrc, language)
}

// ResolveLanguage picks the grammar for a pair of documents. An override
// applies to both. Otherwise each label is resolved on its own; when only one
// resolves it is used for both, and when they disagree ErrLanguageMismatch is returned.
func (e *Engine) ResolveLanguage(oldSrc, newSrc Source, override string) (string, error) {
	if override != "" {
		return e.parser.ResolveLanguage(oldSrc.Label, override, nil) //nolint:wrapcheck // already descriptive
	}

	oldLang, oldErr := e.parser.ResolveLanguage(oldSrc.Label, "", oldSrc.Content)
	newLang, newErr := e.parser.ResolveLanguage(newSrc.Label, "", newSrc.Content)

	switch {
	case oldErr != nil && newErr != nil:
		return "", oldErr
	case oldErr != nil:
		return newLang, nil
	case newErr != nil:
		return oldLang, nil
	case oldLang != newLang:
		return "", fmt.Errorf("%w: %s is %s, %s is %s", ErrLanguageMismatch, oldSrc.Label, oldLang, newSrc.Label, newLang)
	default:
		return oldLang, nil
	}
}

// DiffSources diffs two in-memory documents.
func (e *Engine) DiffSources(ctx context.Context, oldSrc, newSrc Source, language string) (res *Result, err error) {
	ctx, span := e.tracer.Start(ctx, "engine.diff")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}

		span.End()
	}()

	lang, err := e.ResolveLanguage(oldSrc, newSrc, language)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("diff.language", lang))

	key := resultKey{
		language: lang,
		oldLabel: oldSrc.Label,
		newLabel: newSrc.Label,
		old:      cache.Sum(oldSrc.Content),
		new:      cache.Sum(newSrc.Content),
	}

	if cached, ok := e.results.Get(key); ok {
		span.SetAttributes(attribute.Bool("diff.cached", true))
		e.logger.DebugContext(ctx, "diff served from cache", "language", lang)

		return cached, nil
	}

	oldTree, newTree, err := e.parseBoth(ctx, lang, oldSrc, newSrc)
	if err != nil {
		return nil, err
	}

	defer oldTree.Close()
	defer newTree.Close()

	oldDoc := astdiff.Document{Tree: oldTree.Root(), Label: oldSrc.Label, Text: oldSrc.Content}
	newDoc := astdiff.Document{Tree: newTree.Root(), Label: newSrc.Label, Text: newSrc.Content}

	res, err = e.align(ctx, lang, oldDoc, newDoc)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.Bool("diff.fallback", res.Fallback),
		attribute.Int("diff.old_hunks", len(res.Old.Hunks)),
		attribute.Int("diff.new_hunks", len(res.New.Hunks)),
	)

	e.metrics.RecordDiff(ctx, observability.DiffStats{
		Language:   lang,
		OldEntries: res.OldEntries,
		NewEntries: res.NewEntries,
		OldHunks:   len(res.Old.Hunks),
		NewHunks:   len(res.New.Hunks),
		Fallback:   res.Fallback,
	})

	e.results.Put(key, res)

	return res, nil
}

// parseBoth parses the two documents concurrently.
func (e *Engine) parseBoth(ctx context.Context, lang string, oldSrc, newSrc Source) (oldTree, newTree *syntax.Tree, err error) {
	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		var parseErr error

		oldTree, parseErr = e.parse(gctx, lang, oldSrc)
		if parseErr != nil {
			return &astdiff.SideError{Side: astdiff.SideOld, Label: oldSrc.Label, Err: parseErr}
		}

		return nil
	})

	group.Go(func() error {
		var parseErr error

		newTree, parseErr = e.parse(gctx, lang, newSrc)
		if parseErr != nil {
			return &astdiff.SideError{Side: astdiff.SideNew, Label: newSrc.Label, Err: parseErr}
		}

		return nil
	})

	waitErr := group.Wait()
	if waitErr != nil {
		if oldTree != nil {
			oldTree.Close()
		}

		if newTree != nil {
			newTree.Close()
		}

		return nil, nil, waitErr //nolint:wrapcheck // SideError already names the document
	}

	return oldTree, newTree, nil
}

func (e *Engine) parse(ctx context.Context, lang string, src Source) (*syntax.Tree, error) {
	ctx, span := e.tracer.Start(ctx, "engine.parse", trace.WithAttributes(
		attribute.String("syntax.language", lang),
		attribute.Int("syntax.bytes", len(src.Content)),
	))
	defer span.End()

	tree, err := e.parser.Parse(ctx, lang, src.Content)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, fmt.Errorf("parse: %w", err)
	}

	return tree, nil
}

// align runs the structural diff with the configured budget, then the
// optional relaxed retry, then the optional line fallback.
func (e *Engine) align(ctx context.Context, lang string, oldDoc, newDoc astdiff.Document) (*Result, error) {
	budget := e.cfg.Alignment.MaxEditDistance

	diffRes, err := astdiff.NewDiffer(astdiff.WithMaxEditDistance(budget), astdiff.WithLogger(e.logger)).Diff(oldDoc, newDoc)
	if errors.Is(err, astdiff.ErrDiffTooLarge) {
		e.metrics.RecordTooLarge(ctx, lang)

		if retry := e.cfg.RetryBudget(); retry > budget {
			e.logger.InfoContext(ctx, "structural diff over budget, retrying with a larger budget",
				"budget", budget, "retry_budget", retry)

			diffRes, err = astdiff.NewDiffer(astdiff.WithMaxEditDistance(retry), astdiff.WithLogger(e.logger)).
				Diff(oldDoc, newDoc)
		}
	}

	if errors.Is(err, astdiff.ErrDiffTooLarge) && e.cfg.Alignment.Fallback == config.FallbackText {
		e.logger.WarnContext(ctx, "structural diff over budget, falling back to a line diff", "error", err)

		oldHunks, newHunks := textdiff.Lines(oldDoc.Text, newDoc.Text)

		return &Result{
			Language: lang,
			Old:      render.Document{Label: oldDoc.Label, Text: oldDoc.Text, Hunks: oldHunks},
			New:      render.Document{Label: newDoc.Label, Text: newDoc.Text, Hunks: newHunks},
			Fallback: true,
		}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}

	return &Result{
		Language:   lang,
		Old:        render.Document{Label: oldDoc.Label, Text: oldDoc.Text, Hunks: diffRes.Old},
		New:        render.Document{Label: newDoc.Label, Text: newDoc.Text, Hunks: diffRes.New},
		Stats:      diffRes.Stats,
		OldEntries: diffRes.OldLen,
		NewEntries: diffRes.NewLen,
	}, nil
}
