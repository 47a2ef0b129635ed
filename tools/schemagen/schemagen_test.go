package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"

	"github.com/Sumatoshi-tech/sitterdiff/pkg/engine"
	"github.com/Sumatoshi-tech/sitterdiff/pkg/render"
	"github.com/Sumatoshi-tech/sitterdiff/pkg/server"
	"github.com/Sumatoshi-tech/sitterdiff/pkg/syntax"
)

func validate(t *testing.T, schema *Schema, doc any) *gojsonschema.Result {
	t.Helper()

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(doc))
	require.NoError(t, err)

	return result
}

func TestReportSchema_ValidatesRealReport(t *testing.T) {
	t.Parallel()

	eng := engine.New(nil)
	res, err := eng.DiffSources(context.Background(),
		engine.Source{Label: "a.go", Content: []byte("package p\n\nvar x = 1\n")},
		engine.Source{Label: "b.go", Content: []byte("package p\n\nvar x = 2\n")},
		"")
	require.NoError(t, err)

	report := render.NewReport(res.RenderInput())
	require.NotEmpty(t, report.Old.Hunks)
	require.NotEmpty(t, report.New.Hunks)

	schema := generateSchema("report", "test", render.Report{})

	result := validate(t, schema, report)
	assert.True(t, result.Valid(), "%v", result.Errors())

	// A report with a hunk missing its entries must fail.
	broken := map[string]any{
		"fallback": false,
		"old":      map[string]any{"hunks": []any{map[string]any{"range": map[string]any{"start": 0, "end": 1}}}},
		"new":      map[string]any{"hunks": []any{}},
	}

	result = validate(t, schema, broken)
	assert.False(t, result.Valid())
}

func TestGenerateSchema_Required(t *testing.T) {
	t.Parallel()

	schema := generateSchema("diff-request", "body", server.DiffRequest{})

	assert.Equal(t, draft07, schema.Schema)
	assert.Equal(t, "object", schema.Type)
	assert.ElementsMatch(t, []string{"old", "new"}, schema.Required)
	assert.Contains(t, schema.Properties, "old_label")
	assert.Empty(t, schema.Definitions)

	assert.True(t, validate(t, schema, server.DiffRequest{Old: "a", New: "b", Language: "go"}).Valid())
	assert.False(t, validate(t, schema, map[string]any{"old": "a"}).Valid())
}

func TestGenerateSchema_Languages(t *testing.T) {
	t.Parallel()

	schema := generateSchema("languages", "list", []syntax.Language{})

	assert.Equal(t, "array", schema.Type)
	require.NotNil(t, schema.Items)
	assert.Equal(t, "#/definitions/Language", schema.Items.Ref)
	assert.Contains(t, schema.Definitions, "Language")

	result := validate(t, schema, syntax.SupportedLanguages())
	assert.True(t, result.Valid(), "%v", result.Errors())
}

func TestWriteSchema(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	for _, tgt := range targets() {
		require.NoError(t, writeSchema(dir, tgt.name, generateSchema(tgt.name, tgt.description, tgt.value)))
	}

	data, err := os.ReadFile(filepath.Join(dir, "report.json"))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "report", decoded["title"])
	assert.Contains(t, decoded["definitions"], "ReportHunk")
}
