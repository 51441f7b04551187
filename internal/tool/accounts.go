package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/p-blackswan/google-ads-mcp/internal/gaql"
)

// ListAccountsTool lists the customers the credentials can reach.
type ListAccountsTool struct {
	deps Deps
}

type account struct {
	ID           string `json:"id"`
	FormattedID  string `json:"formatted_id"`
	ResourceName string `json:"resource_name"`
}

func (t *ListAccountsTool) Schema() Schema {
	return Schema{
		Name:        "list_accounts",
		Description: "List all accessible Google Ads accounts.",
		InputSchema: MustSchema(map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		}),
	}
}

func (t *ListAccountsTool) Execute(ctx context.Context, _ json.RawMessage) (string, error) {
	c, err := t.deps.client()
	if err != nil {
		return "", err
	}
	names, err := c.CustomerService().ListAccessibleCustomers(ctx)
	if err != nil {
		return "", fmt.Errorf("list_accounts: %w", err)
	}

	accounts := make([]account, 0, len(names))
	for _, n := range names {
		id := gaql.CustomerIDFromResourceName(n)
		accounts = append(accounts, account{ID: id, FormattedID: gaql.FormatCustomerID(id), ResourceName: n})
	}
	return jsonResult(map[string]any{
		"success":  true,
		"accounts": accounts,
		"count":    len(accounts),
	})
}

// AccountInfoTool returns the settings of one customer.
type AccountInfoTool struct {
	deps Deps
}

type customerInput struct {
	CustomerID string `json:"customer_id"`
}

var customerIDProperty = map[string]string{
	"type":        "string",
	"description": "Google Ads customer ID, with or without hyphens (e.g. 123-456-7890)",
}

func (t *AccountInfoTool) Schema() Schema {
	return Schema{
		Name:        "get_account_info",
		Description: "Get detailed information about a specific Google Ads account.",
		InputSchema: MustSchema(map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"customer_id": customerIDProperty,
			},
			"required": []string{"customer_id"},
		}),
	}
}

func (t *AccountInfoTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	var inp customerInput
	if err := json.Unmarshal(input, &inp); err != nil {
		return "", fmt.Errorf("get_account_info: unmarshal input: %w", err)
	}
	cid, err := gaql.CustomerID(inp.CustomerID)
	if err != nil {
		return "", err
	}
	c, err := t.deps.client()
	if err != nil {
		return "", err
	}

	q := gaql.Select(
		"customer.id",
		"customer.descriptive_name",
		"customer.currency_code",
		"customer.time_zone",
		"customer.auto_tagging_enabled",
		"customer.manager",
		"customer.test_account",
		"customer.optimization_score",
	).From("customer").Limit(1)

	rows, _, err := search(ctx, c, cid, q.String(), 1)
	if err != nil {
		return "", fmt.Errorf("get_account_info: %w", err)
	}
	if len(rows) == 0 {
		return jsonResult(map[string]any{"success": false, "error": "account not found"})
	}

	cust := rows[0]
	return jsonResult(map[string]any{
		"success": true,
		"account": map[string]any{
			"id":                   stringOf(field(cust, "customer", "id")),
			"formatted_id":         gaql.FormatCustomerID(stringOf(field(cust, "customer", "id"))),
			"name":                 stringOf(field(cust, "customer", "descriptiveName")),
			"currency_code":        stringOf(field(cust, "customer", "currencyCode")),
			"time_zone":            stringOf(field(cust, "customer", "timeZone")),
			"auto_tagging_enabled": field(cust, "customer", "autoTaggingEnabled") == true,
			"is_manager":           field(cust, "customer", "manager") == true,
			"is_test_account":      field(cust, "customer", "testAccount") == true,
			"optimization_score":   floatOf(field(cust, "customer", "optimizationScore")),
		},
	})
}
