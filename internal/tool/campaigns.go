package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/p-blackswan/google-ads-mcp/internal/gaql"
	"github.com/p-blackswan/google-ads-mcp/internal/googleads"
	"github.com/p-blackswan/google-ads-mcp/internal/response"
)

var campaignStatuses = []string{"ENABLED", "PAUSED", "REMOVED"}

// ListCampaignsTool lists campaigns with their budgets.
type ListCampaignsTool struct {
	deps Deps
}

type listCampaignsInput struct {
	CustomerID string `json:"customer_id"`
	Status     string `json:"status,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

type campaignSummary struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Status       string  `json:"status"`
	ChannelType  string  `json:"channel_type"`
	StartDate    string  `json:"start_date,omitempty"`
	EndDate      string  `json:"end_date,omitempty"`
	BudgetAmount float64 `json:"budget_amount"`
	BudgetMicros int64   `json:"budget_micros"`
	ResourceName string  `json:"resource_name"`
}

func (t *ListCampaignsTool) Schema() Schema {
	return Schema{
		Name:        "list_campaigns",
		Description: "List campaigns with status, channel type and daily budget.",
		InputSchema: MustSchema(map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"customer_id": customerIDProperty,
				"status": map[string]interface{}{
					"type":        "string",
					"enum":        campaignStatuses,
					"description": "Only return campaigns in this status",
				},
				"limit": map[string]interface{}{
					"type":    "integer",
					"minimum": 1,
					"maximum": maxRowsLimit,
				},
			},
			"required": []string{"customer_id"},
		}),
	}
}

func (t *ListCampaignsTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	var inp listCampaignsInput
	if err := json.Unmarshal(input, &inp); err != nil {
		return "", fmt.Errorf("list_campaigns: unmarshal input: %w", err)
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
		"campaign.id",
		"campaign.name",
		"campaign.status",
		"campaign.advertising_channel_type",
		"campaign.start_date",
		"campaign.end_date",
		"campaign_budget.amount_micros",
	).From("campaign").OrderBy("campaign.name", false)
	if inp.Status != "" {
		q.Where("campaign.status = " + gaql.Quote(inp.Status))
	} else {
		q.Where("campaign.status != 'REMOVED'")
	}
	if inp.Limit > 0 {
		q.Limit(inp.Limit)
	}

	rows, _, err := search(ctx, c, cid, q.String(), inp.Limit)
	if err != nil {
		return "", fmt.Errorf("list_campaigns: %w", err)
	}

	campaigns := make([]campaignSummary, 0, len(rows))
	for _, r := range rows {
		micros := int64Of(field(r, "campaignBudget", "amountMicros"))
		campaigns = append(campaigns, campaignSummary{
			ID:           stringOf(field(r, "campaign", "id")),
			Name:         stringOf(field(r, "campaign", "name")),
			Status:       stringOf(field(r, "campaign", "status")),
			ChannelType:  stringOf(field(r, "campaign", "advertisingChannelType")),
			StartDate:    stringOf(field(r, "campaign", "startDate")),
			EndDate:      stringOf(field(r, "campaign", "endDate")),
			BudgetMicros: micros,
			BudgetAmount: gaql.MicrosToCurrency(micros),
			ResourceName: stringOf(field(r, "campaign", "resourceName")),
		})
	}
	return jsonResult(map[string]any{
		"success":   true,
		"campaigns": campaigns,
		"count":     len(campaigns),
	})
}

// CampaignPerformanceTool reports campaign metrics over a date range.
type CampaignPerformanceTool struct {
	deps Deps
}

type performanceInput struct {
	CustomerID string `json:"customer_id"`
	CampaignID string `json:"campaign_id,omitempty"`
	DateRange  string `json:"date_range,omitempty"`
}

type campaignMetrics struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Status      string  `json:"status"`
	Clicks      int64   `json:"clicks"`
	Impressions int64   `json:"impressions"`
	Cost        float64 `json:"cost"`
	Conversions float64 `json:"conversions"`
	CTR         float64 `json:"ctr"`
	AverageCPC  float64 `json:"average_cpc"`
}

type performanceTotals struct {
	Clicks      int64   `json:"clicks"`
	Impressions int64   `json:"impressions"`
	Cost        float64 `json:"cost"`
	Conversions float64 `json:"conversions"`
}

func (t *CampaignPerformanceTool) Schema() Schema {
	return Schema{
		Name:        "get_campaign_performance",
		Description: "Get clicks, impressions, cost and conversions per campaign for a date range.",
		InputSchema: MustSchema(map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"customer_id": customerIDProperty,
				"campaign_id": map[string]interface{}{
					"type":    "string",
					"pattern": "^[0-9]+$",
				},
				"date_range": map[string]interface{}{
					"type":        "string",
					"description": "LAST_7_DAYS, LAST_30_DAYS, THIS_MONTH, LAST_YEAR, ... or YYYY-MM-DD,YYYY-MM-DD (default LAST_30_DAYS)",
				},
			},
			"required": []string{"customer_id"},
		}),
	}
}

func (t *CampaignPerformanceTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	var inp performanceInput
	if err := json.Unmarshal(input, &inp); err != nil {
		return "", fmt.Errorf("get_campaign_performance: unmarshal input: %w", err)
	}
	cid, err := gaql.CustomerID(inp.CustomerID)
	if err != nil {
		return "", err
	}
	if inp.DateRange == "" {
		inp.DateRange = "LAST_30_DAYS"
	}
	during, err := gaql.DateRangeClause(inp.DateRange, t.deps.now())
	if err != nil {
		return "", err
	}
	c, err := t.deps.client()
	if err != nil {
		return "", err
	}

	q := gaql.Select(
		"campaign.id",
		"campaign.name",
		"campaign.status",
		"metrics.clicks",
		"metrics.impressions",
		"metrics.cost_micros",
		"metrics.conversions",
		"metrics.ctr",
		"metrics.average_cpc",
	).From("campaign").Where(during).OrderBy("metrics.cost_micros", true)
	if inp.CampaignID != "" {
		q.Where("campaign.id = " + inp.CampaignID)
	}

	rows, _, err := search(ctx, c, cid, q.String(), 0)
	if err != nil {
		return "", fmt.Errorf("get_campaign_performance: %w", err)
	}

	var totals performanceTotals
	campaigns := make([]campaignMetrics, 0, len(rows))
	for _, r := range rows {
		m := campaignMetrics{
			ID:          stringOf(field(r, "campaign", "id")),
			Name:        stringOf(field(r, "campaign", "name")),
			Status:      stringOf(field(r, "campaign", "status")),
			Clicks:      int64Of(field(r, "metrics", "clicks")),
			Impressions: int64Of(field(r, "metrics", "impressions")),
			Cost:        gaql.MicrosToCurrency(int64Of(field(r, "metrics", "costMicros"))),
			Conversions: floatOf(field(r, "metrics", "conversions")),
			CTR:         floatOf(field(r, "metrics", "ctr")),
			AverageCPC:  gaql.MicrosToCurrency(int64(floatOf(field(r, "metrics", "averageCpc")))),
		}
		totals.Clicks += m.Clicks
		totals.Impressions += m.Impressions
		totals.Cost += m.Cost
		totals.Conversions += m.Conversions
		campaigns = append(campaigns, m)
	}
	return jsonResult(map[string]any{
		"success":    true,
		"date_range": inp.DateRange,
		"campaigns":  campaigns,
		"totals":     totals,
	})
}

// CampaignStatusTool sets the status of a batch of campaigns. Operations
// that fail are reported individually; the rest still apply.
type CampaignStatusTool struct {
	deps   Deps
	name   string
	status string
}

// NewCampaignStatusTool creates a tool that moves campaigns to status.
func NewCampaignStatusTool(d Deps, name, status string) *CampaignStatusTool {
	return &CampaignStatusTool{deps: d, name: name, status: status}
}

type campaignStatusInput struct {
	CustomerID   string   `json:"customer_id"`
	CampaignIDs  []string `json:"campaign_ids"`
	ValidateOnly bool     `json:"validate_only,omitempty"`
}

type campaignStatusResult struct {
	response.Partial[googleads.MutateResult]
	Status       string `json:"status"`
	ValidateOnly bool   `json:"validate_only"`
}

func (t *CampaignStatusTool) Schema() Schema {
	return Schema{
		Name:        t.name,
		Description: fmt.Sprintf("Set campaigns to %s. Campaigns that cannot be changed are reported individually without blocking the rest.", t.status),
		InputSchema: MustSchema(map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"customer_id": customerIDProperty,
				"campaign_ids": map[string]interface{}{
					"type":     "array",
					"minItems": 1,
					"items":    map[string]interface{}{"type": "string", "pattern": "^[0-9]+$"},
				},
				"validate_only": map[string]interface{}{
					"type":        "boolean",
					"description": "Validate the request without applying it",
				},
			},
			"required": []string{"customer_id", "campaign_ids"},
		}),
	}
}

func (t *CampaignStatusTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	var inp campaignStatusInput
	if err := json.Unmarshal(input, &inp); err != nil {
		return "", fmt.Errorf("%s: unmarshal input: %w", t.name, err)
	}
	cid, err := gaql.CustomerID(inp.CustomerID)
	if err != nil {
		return "", err
	}
	c, err := t.deps.client()
	if err != nil {
		return "", err
	}

	req := googleads.MutateCampaignsRequest{
		CustomerID:     cid,
		PartialFailure: true,
		ValidateOnly:   inp.ValidateOnly,
	}
	for _, id := range inp.CampaignIDs {
		req.Operations = append(req.Operations, googleads.CampaignOperation{
			Update: &googleads.Campaign{
				ResourceName: "customers/" + cid + "/campaigns/" + id,
				Status:       t.status,
			},
			UpdateMask: "status",
		})
	}

	resp, err := c.CampaignService().MutateCampaigns(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", t.name, err)
	}

	out := campaignStatusResult{
		Partial:      response.HandlePartialFailure[googleads.MutateResult](resp),
		Status:       t.status,
		ValidateOnly: inp.ValidateOnly,
	}
	if out.PartialFailure {
		t.deps.Logger.Warn().
			Str("tool", t.name).
			Int("failed", len(out.Failures)).
			Int("requested", len(req.Operations)).
			Msg("campaign status change partially failed")
	}
	return jsonResult(out)
}
