package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/p-blackswan/google-ads-mcp/internal/adserr"
)

// ErrorDocsTool explains a classified error type.
type ErrorDocsTool struct {
	deps Deps
}

type errorDocsInput struct {
	ErrorType string `json:"error_type"`
}

func (t *ErrorDocsTool) Schema() Schema {
	return Schema{
		Name:        "get_error_documentation",
		Description: "Get the documentation link for a Google Ads error type such as quota_error.RESOURCE_EXHAUSTED, and whether it is retried automatically.",
		InputSchema: MustSchema(map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"error_type": map[string]interface{}{
					"type":        "string",
					"pattern":     `^[a-z_]+\.[A-Z0-9_]+$`,
					"description": "Error type as reported in the errors[].type field of a failed call",
				},
			},
			"required": []string{"error_type"},
		}),
	}
}

func (t *ErrorDocsTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	var inp errorDocsInput
	if err := json.Unmarshal(input, &inp); err != nil {
		return "", fmt.Errorf("get_error_documentation: unmarshal input: %w", err)
	}
	code, ok := adserr.ParseType(inp.ErrorType)
	if !ok {
		return "", fmt.Errorf("%w: unrecognised error type %q", adserr.ErrInvalidInput, inp.ErrorType)
	}
	e := &adserr.Error{Code: code}

	out := map[string]any{
		"success":      true,
		"error_type":   e.Type(),
		"is_retryable": e.Retryable(),
		"verified":     false,
	}
	if url, ok := e.DocumentationURL(); ok {
		out["documentation_url"] = url
	}
	if t.deps.Docs != nil {
		if blurb, ok := t.deps.Docs.Lookup(ctx, e); ok {
			out["documentation"] = blurb
			out["verified"] = true
		}
	}
	return jsonResult(out)
}
