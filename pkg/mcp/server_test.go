package mcp_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/sitterdiff/pkg/config"
	"github.com/Sumatoshi-tech/sitterdiff/pkg/engine"
	"github.com/Sumatoshi-tech/sitterdiff/pkg/mcp"
	"github.com/Sumatoshi-tech/sitterdiff/pkg/observability"
	"github.com/Sumatoshi-tech/sitterdiff/pkg/render"
	"github.com/Sumatoshi-tech/sitterdiff/pkg/syntax"
)

// connect runs srv on an in-memory transport and returns a client session.
func connect(t *testing.T, srv *mcp.Server) *mcpsdk.ClientSession {
	t.Helper()

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)

	serverDone := make(chan error, 1)

	go func() {
		serverDone <- srv.RunWithTransport(ctx, serverTransport)
	}()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = session.Close()

		cancel()
		<-serverDone
	})

	return session
}

func callTool(t *testing.T, session *mcpsdk.ClientSession, name string, args map[string]any) *mcpsdk.CallToolResult {
	t.Helper()

	result, err := session.CallTool(context.Background(), &mcpsdk.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)

	return result
}

func text(t *testing.T, result *mcpsdk.CallToolResult) string {
	t.Helper()

	content, ok := result.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok)

	return content.Text
}

func TestNewServer_ToolsRegistered(t *testing.T) {
	t.Parallel()

	srv := mcp.NewServer(mcp.ServerDeps{})
	assert.Equal(t, []string{"list_languages", "semantic_diff"}, srv.ListToolNames())
}

func TestServer_Run_CancelledContext(t *testing.T) {
	t.Parallel()

	srv := mcp.NewServer(mcp.ServerDeps{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, serverTransport := mcpsdk.NewInMemoryTransports()

	require.Error(t, srv.RunWithTransport(ctx, serverTransport))
}

func TestMCPServer_ToolsList(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.NewServer(mcp.ServerDeps{}))

	toolsResult, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make([]string, 0, len(toolsResult.Tools))
	for _, tool := range toolsResult.Tools {
		names = append(names, tool.Name)
		assert.NotNil(t, tool.InputSchema, "tool %s missing input schema", tool.Name)
	}

	assert.ElementsMatch(t, []string{"semantic_diff", "list_languages"}, names)
}

func TestMCPServer_SemanticDiff(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	reader := sdkmetric.NewManualReader()
	red, err := observability.NewREDMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
	require.NoError(t, err)

	session := connect(t, mcp.NewServer(mcp.ServerDeps{Tracer: tp.Tracer("test"), Metrics: red}))

	result := callTool(t, session, mcp.ToolNameDiff, map[string]any{
		"old_code": "package p\n\nfunc f() int {\n\treturn 1\n}\n",
		"new_code": "package p\n\nfunc f() int { return 2 }\n",
		"language": "go",
	})
	require.False(t, result.IsError, text(t, result))

	var report render.Report
	require.NoError(t, json.Unmarshal([]byte(text(t, result)), &report))

	assert.Equal(t, "go", report.Language)
	assert.Equal(t, "old", report.Old.Label)
	require.Len(t, report.Old.Hunks, 1)
	require.Len(t, report.New.Hunks, 1)
	assert.Equal(t, "1", report.Old.Hunks[0].Entries[0].Text)
	assert.Equal(t, 4, report.Old.Hunks[0].Start.Line)
	assert.Equal(t, "2", report.New.Hunks[0].Entries[0].Text)

	require.Len(t, result.Content, 2, "sampled spans append the trace id")
	assert.Contains(t, text(t, &mcpsdk.CallToolResult{Content: result.Content[1:]}), "trace_id=")

	var spanNames []string
	for _, span := range exporter.GetSpans() {
		spanNames = append(spanNames, span.Name)
	}

	assert.Contains(t, spanNames, "mcp.semantic_diff")
	assert.Contains(t, spanNames, "engine.diff")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.NotEmpty(t, rm.ScopeMetrics)
}

func TestMCPServer_SemanticDiff_Errors(t *testing.T) {
	t.Parallel()

	strict := config.Default()
	strict.Alignment.MaxEditDistance = 1

	session := connect(t, mcp.NewServer(mcp.ServerDeps{Engine: engine.New(strict)}))

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{
			name: "missing language",
			args: map[string]any{"old_code": "a", "new_code": "b", "language": ""},
			want: "language parameter is required",
		},
		{
			name: "unsupported language",
			args: map[string]any{"old_code": "a", "new_code": "b", "language": "cobol-85"},
			want: "unsupported language",
		},
		{
			name: "over budget",
			args: map[string]any{
				"old_code": "package p\n\nvar a = 1\n",
				"new_code": "package q\n\nfunc b() { return }\n",
				"language": "go",
			},
			want: "diff too large",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := callTool(t, session, mcp.ToolNameDiff, tt.args)
			assert.True(t, result.IsError)
			assert.Contains(t, text(t, result), tt.want)
		})
	}
}

func TestMCPServer_ListLanguages(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.NewServer(mcp.ServerDeps{}))

	result := callTool(t, session, mcp.ToolNameLanguages, map[string]any{})
	require.False(t, result.IsError)

	var langs []syntax.Language
	require.NoError(t, json.Unmarshal([]byte(text(t, result)), &langs))
	assert.Equal(t, syntax.SupportedLanguages(), langs)
}
