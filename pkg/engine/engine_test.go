package engine_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/sitterdiff/pkg/astdiff"
	"github.com/Sumatoshi-tech/sitterdiff/pkg/config"
	"github.com/Sumatoshi-tech/sitterdiff/pkg/engine"
	"github.com/Sumatoshi-tech/sitterdiff/pkg/syntax"
)

const (
	oldGo = "package p\n\nfunc f() int { return 1 }\n"
	newGo = "package p\n\nfunc f() int { return 2 }\n"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestDiffFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	oldPath := writeFile(t, dir, "a.go", oldGo)
	newPath := writeFile(t, dir, "b.go", newGo)

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	eng := engine.New(nil, engine.WithTracer(tp.Tracer("test")))

	res, err := eng.DiffFiles(context.Background(), oldPath, newPath, "")
	require.NoError(t, err)

	assert.Equal(t, "go", res.Language)
	assert.False(t, res.Fallback)
	require.Len(t, res.Old.Hunks, 1)
	require.Len(t, res.New.Hunks, 1)
	assert.Equal(t, "int_literal", res.Old.Hunks[0].Entries[0].Kind)
	assert.Equal(t, oldPath, res.Old.Label)
	assert.Equal(t, 1, res.Stats.Deletions)
	assert.Positive(t, res.OldEntries)

	in := res.RenderInput()
	assert.True(t, in.Changed())

	names := map[string]int{}
	for _, span := range exporter.GetSpans() {
		names[span.Name]++
	}

	assert.Equal(t, map[string]int{"engine.diff": 1, "engine.parse": 2}, names)
}

func TestDiffSources_FallbackAndRetry(t *testing.T) {
	t.Parallel()

	oldSrc := engine.Source{Label: "a.go", Content: []byte(oldGo)}
	newSrc := engine.Source{Label: "b.go", Content: []byte("package q\n\nvar x = []int{1, 2, 3}\n")}

	strict := config.Default()
	strict.Alignment.MaxEditDistance = 1

	_, err := engine.New(strict).DiffSources(context.Background(), oldSrc, newSrc, "")
	require.ErrorIs(t, err, astdiff.ErrDiffTooLarge)

	fallback := config.Default()
	fallback.Alignment.MaxEditDistance = 1
	fallback.Alignment.Fallback = config.FallbackText

	res, err := engine.New(fallback).DiffSources(context.Background(), oldSrc, newSrc, "")
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	require.NotEmpty(t, res.Old.Hunks)
	assert.Equal(t, "line", res.Old.Hunks[0].Entries[0].Kind)

	retry := config.Default()
	retry.Alignment.MaxEditDistance = 1
	retry.Alignment.RetryFactor = 1000
	retry.Alignment.Fallback = config.FallbackText

	res, err = engine.New(retry).DiffSources(context.Background(), oldSrc, newSrc, "")
	require.NoError(t, err)
	assert.False(t, res.Fallback, "the relaxed budget is enough")
}

func TestResolveLanguage(t *testing.T) {
	t.Parallel()

	eng := engine.New(nil)

	lang, err := eng.ResolveLanguage(engine.Source{Label: "a.py"}, engine.Source{Label: "b.py"}, "")
	require.NoError(t, err)
	assert.Equal(t, "python", lang)

	lang, err = eng.ResolveLanguage(engine.Source{Label: "a.py"}, engine.Source{Label: "tmpfile"}, "")
	require.NoError(t, err)
	assert.Equal(t, "python", lang, "a side without a known extension follows the other")

	_, err = eng.ResolveLanguage(engine.Source{Label: "a.py"}, engine.Source{Label: "b.rs"}, "")
	require.ErrorIs(t, err, engine.ErrLanguageMismatch)

	lang, err = eng.ResolveLanguage(engine.Source{Label: "a.py"}, engine.Source{Label: "b.rs"}, "rust")
	require.NoError(t, err)
	assert.Equal(t, "rust", lang)

	_, err = eng.ResolveLanguage(engine.Source{Label: "a.nope"}, engine.Source{Label: "b.nope"}, "")
	require.ErrorIs(t, err, syntax.ErrUnsupportedLanguage)
}

func TestDiffFiles_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	oldPath := writeFile(t, dir, "a.go", oldGo)
	bigPath := writeFile(t, dir, "big.go", "package p\n\n"+strings.Repeat("// filler\n", 100))

	eng := engine.New(nil)

	_, err := eng.DiffFiles(context.Background(), oldPath, filepath.Join(dir, "missing.go"), "")
	require.Error(t, err)

	var sideErr *astdiff.SideError
	require.True(t, errors.As(err, &sideErr))
	assert.Equal(t, astdiff.SideNew, sideErr.Side)

	_, err = eng.DiffFiles(context.Background(), dir, oldPath, "")
	require.ErrorIs(t, err, engine.ErrDirectoryPath)

	small := config.Default()
	small.Input.MaxFileSize = "100B"

	_, err = engine.New(small).DiffFiles(context.Background(), oldPath, bigPath, "")
	require.ErrorIs(t, err, engine.ErrFileTooLarge)
	assert.Contains(t, err.Error(), "limit is 100 B")
}

func TestReadSource(t *testing.T) {
	t.Parallel()

	_, err := engine.ReadSource("  ", 0)
	require.ErrorIs(t, err, engine.ErrEmptyPath)

	_, err = engine.ReadSource("a\x00b", 0)
	require.ErrorIs(t, err, engine.ErrPathContainsNUL)

	dir := t.TempDir()

	_, err = engine.ReadSource(writeFile(t, dir, "blob.go", "package x\x00\x01"), 0)
	require.ErrorIs(t, err, engine.ErrBinaryFile)

	path := writeFile(t, dir, "x.go", "package x\n")

	src, err := engine.ReadSource(path, 0)
	require.NoError(t, err)
	assert.Equal(t, path, src.Label)
	assert.Equal(t, "package x\n", string(src.Content))
}

func TestDiffSources_ResultCache(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	eng := engine.New(nil, engine.WithTracer(tp.Tracer("test")), engine.WithResultCache(1<<20))

	oldSrc := engine.Source{Label: "a.go", Content: []byte(oldGo)}
	newSrc := engine.Source{Label: "b.go", Content: []byte(newGo)}

	first, err := eng.DiffSources(context.Background(), oldSrc, newSrc, "")
	require.NoError(t, err)

	second, err := eng.DiffSources(context.Background(), oldSrc, newSrc, "")
	require.NoError(t, err)
	assert.Same(t, first, second)

	relabeled, err := eng.DiffSources(context.Background(), oldSrc, engine.Source{Label: "c.go", Content: []byte(newGo)}, "")
	require.NoError(t, err)
	assert.NotSame(t, first, relabeled)
	assert.Equal(t, "c.go", relabeled.New.Label)

	stats := eng.CacheStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)

	parses := 0
	for _, span := range exporter.GetSpans() {
		if span.Name == "engine.parse" {
			parses++
		}
	}

	assert.Equal(t, 4, parses, "the cached request is not parsed again")

	uncached := engine.New(nil)
	_, err = uncached.DiffSources(context.Background(), oldSrc, newSrc, "")
	require.NoError(t, err)
	assert.Zero(t, uncached.CacheStats())
}
