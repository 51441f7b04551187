package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/p-blackswan/google-ads-mcp/internal/adserr"
	"github.com/p-blackswan/google-ads-mcp/internal/gaql"
)

const (
	defaultMaxRows = 1000
	maxRowsLimit   = 10000
)

// QueryTool runs an arbitrary GAQL query.
type QueryTool struct {
	deps Deps
}

type queryInput struct {
	CustomerID string `json:"customer_id"`
	Query      string `json:"query"`
	MaxRows    int    `json:"max_rows,omitempty"`
}

func (t *QueryTool) Schema() Schema {
	return Schema{
		Name:        "run_gaql_query",
		Description: "Run a Google Ads Query Language (GAQL) query and return the matching rows. See googleads://gaql-reference.",
		InputSchema: MustSchema(map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"customer_id": customerIDProperty,
				"query": map[string]interface{}{
					"type":        "string",
					"minLength":   1,
					"description": "GAQL statement, e.g. SELECT campaign.name FROM campaign",
				},
				"max_rows": map[string]interface{}{
					"type":        "integer",
					"minimum":     1,
					"maximum":     maxRowsLimit,
					"description": fmt.Sprintf("Maximum rows to return (default %d)", defaultMaxRows),
				},
			},
			"required": []string{"customer_id", "query"},
		}),
	}
}

func (t *QueryTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	var inp queryInput
	if err := json.Unmarshal(input, &inp); err != nil {
		return "", fmt.Errorf("run_gaql_query: unmarshal input: %w", err)
	}
	cid, err := gaql.CustomerID(inp.CustomerID)
	if err != nil {
		return "", err
	}
	query := gaql.Clean(inp.Query)
	if query == "" {
		return "", fmt.Errorf("%w: query is required", adserr.ErrInvalidInput)
	}
	if inp.MaxRows == 0 {
		inp.MaxRows = defaultMaxRows
	}
	c, err := t.deps.client()
	if err != nil {
		return "", err
	}

	rows, truncated, err := search(ctx, c, cid, query, inp.MaxRows)
	if err != nil {
		return "", fmt.Errorf("run_gaql_query: %w", err)
	}

	seen := make(map[string]struct{})
	for _, r := range rows {
		for k := range r {
			seen[k] = struct{}{}
		}
	}
	fields := make([]string, 0, len(seen))
	for k := range seen {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	return jsonResult(map[string]any{
		"success":   true,
		"query":     query,
		"rows":      rows,
		"row_count": len(rows),
		"fields":    fields,
		"truncated": truncated,
	})
}
