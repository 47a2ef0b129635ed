package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/sitterdiff/pkg/engine"
	"github.com/Sumatoshi-tech/sitterdiff/pkg/render"
	"github.com/Sumatoshi-tech/sitterdiff/pkg/syntax"
)

// handleSemanticDiff processes semantic_diff tool calls.
func (s *Server) handleSemanticDiff(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input DiffInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateDiffInput(input)
	if err != nil {
		return errorResult(err)
	}

	oldSrc := engine.Source{Label: labelOr(input.OldLabel, defaultOldLabel), Content: []byte(input.OldCode)}
	newSrc := engine.Source{Label: labelOr(input.NewLabel, defaultNewLabel), Content: []byte(input.NewCode)}

	res, err := s.engine.DiffSources(ctx, oldSrc, newSrc, input.Language)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(render.NewReport(res.RenderInput()))
}

// handleListLanguages processes list_languages tool calls.
func handleListLanguages(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	_ LanguagesInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return jsonResult(syntax.SupportedLanguages())
}
