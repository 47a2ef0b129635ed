package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool name constants.
const (
	ToolNameDiff      = "semantic_diff"
	ToolNameLanguages = "list_languages"
)

// Input size limits.
const (
	// MaxCodeInputBytes is the maximum allowed size for each inline document (1 MB).
	MaxCodeInputBytes = 1 << 20
)

// Default labels for inline documents.
const (
	defaultOldLabel = "old"
	defaultNewLabel = "new"
)

// Sentinel errors for tool input validation.
var (
	// ErrEmptyLanguage indicates the language parameter is empty.
	ErrEmptyLanguage = errors.New("language parameter is required and must not be empty")
	// ErrCodeTooLarge indicates a document exceeds the size limit.
	ErrCodeTooLarge = errors.New("code input exceeds maximum size")
)

// Input types (auto-generate JSON schemas via struct tags).

// DiffInput is the input schema for the semantic_diff tool.
type DiffInput struct {
	OldCode  string `json:"old_code"            jsonschema:"original version of the source"`
	NewCode  string `json:"new_code"            jsonschema:"changed version of the source"`
	Language string `json:"language"            jsonschema:"grammar name (e.g. go python rust), see list_languages"`
	OldLabel string `json:"old_label,omitempty" jsonschema:"optional name of the old document"`
	NewLabel string `json:"new_label,omitempty" jsonschema:"optional name of the new document"`
}

// LanguagesInput is the input schema for the list_languages tool.
type LanguagesInput struct{}

// Output type (used as structured output for generic AddTool).

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

func validateDiffInput(input DiffInput) error {
	if input.Language == "" {
		return ErrEmptyLanguage
	}

	for _, code := range []string{input.OldCode, input.NewCode} {
		if len(code) > MaxCodeInputBytes {
			return fmt.Errorf("%w: %d bytes (max %d)", ErrCodeTooLarge, len(code), MaxCodeInputBytes)
		}
	}

	return nil
}

func labelOr(label, fallback string) string {
	if label == "" {
		return fallback
	}

	return label
}
