package tool

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/google-ads-mcp/internal/adserr"
	"github.com/p-blackswan/google-ads-mcp/internal/docs"
	"github.com/p-blackswan/google-ads-mcp/internal/googleads"
)

// Deps are shared by the Google Ads tools.
type Deps struct {
	// Client should already be wrapped with googleads.WithRetry.
	Client googleads.Client
	// Docs verifies documentation links; nil derives them without I/O.
	Docs   *docs.Lookup
	Now    func() time.Time
	Logger zerolog.Logger
}

func (d Deps) client() (googleads.Client, error) {
	if d.Client == nil {
		return nil, adserr.ErrNotConfigured
	}
	return d.Client, nil
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// RegisterAds registers every Google Ads tool on r.
func RegisterAds(r *Registry, d Deps) {
	r.Register(&ListAccountsTool{deps: d})
	r.Register(&AccountInfoTool{deps: d})
	r.Register(&QueryTool{deps: d})
	r.Register(&ListCampaignsTool{deps: d})
	r.Register(&CampaignPerformanceTool{deps: d})
	r.Register(NewCampaignStatusTool(d, "pause_campaigns", "PAUSED"))
	r.Register(NewCampaignStatusTool(d, "resume_campaigns", "ENABLED"))
	r.Register(&ErrorDocsTool{deps: d})
}

// search runs a query and collects up to maxRows rows across pages. The
// second result reports whether rows were left unread.
func search(ctx context.Context, c googleads.Client, customerID, query string, maxRows int) ([]googleads.Row, bool, error) {
	svc := c.GoogleAdsService()
	var rows []googleads.Row
	req := googleads.SearchRequest{CustomerID: customerID, Query: query}
	for {
		resp, err := svc.Search(ctx, req)
		if err != nil {
			return nil, false, err
		}
		rows = append(rows, resp.Results...)
		if maxRows > 0 && len(rows) >= maxRows {
			truncated := len(rows) > maxRows || resp.NextPageToken != ""
			return rows[:maxRows], truncated, nil
		}
		if resp.NextPageToken == "" {
			return rows, false, nil
		}
		req.PageToken = resp.NextPageToken
	}
}

// field walks the nested JSON objects of a row.
func field(row map[string]any, path ...string) any {
	var cur any = row
	for _, p := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[p]
	}
	return cur
}

func stringOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// int64Of reads an int64 field, which the REST API encodes as a string.
func int64Of(v any) int64 {
	switch t := v.(type) {
	case string:
		n, _ := strconv.ParseInt(t, 10, 64)
		return n
	case float64:
		return int64(t)
	}
	return 0
}

func floatOf(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, _ := strconv.ParseFloat(t, 64)
		return f
	}
	return 0
}
