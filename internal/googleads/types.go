package googleads

import (
	"encoding/json"
	"fmt"

	"github.com/p-blackswan/google-ads-mcp/internal/adserr"
)

// Row is one GoogleAdsRow in its REST JSON form.
type Row map[string]any

// SearchRequest is a single page of a GAQL query.
type SearchRequest struct {
	CustomerID string `json:"-"`
	Query      string `json:"query"`
	PageToken  string `json:"pageToken,omitempty"`
}

// SearchResponse is one page of results.
type SearchResponse struct {
	Results           []Row  `json:"results"`
	NextPageToken     string `json:"nextPageToken,omitempty"`
	FieldMask         string `json:"fieldMask,omitempty"`
	TotalResultsCount string `json:"totalResultsCount,omitempty"`
}

// Campaign carries the campaign fields this server mutates.
type Campaign struct {
	ResourceName string `json:"resourceName"`
	Name         string `json:"name,omitempty"`
	Status       string `json:"status,omitempty"`
}

// CampaignOperation is one entry of a campaigns:mutate batch.
type CampaignOperation struct {
	Update     *Campaign `json:"update,omitempty"`
	UpdateMask string    `json:"updateMask,omitempty"`
}

// MutateCampaignsRequest is a campaigns:mutate batch.
type MutateCampaignsRequest struct {
	CustomerID     string              `json:"-"`
	Operations     []CampaignOperation `json:"operations"`
	PartialFailure bool                `json:"partialFailure,omitempty"`
	ValidateOnly   bool                `json:"validateOnly,omitempty"`
}

// MutateResult identifies one mutated resource. It is empty for operations
// that failed under partial failure.
type MutateResult struct {
	ResourceName string `json:"resourceName,omitempty"`
}

// MutateResponse is a campaigns:mutate answer. PartialFailureError is set
// when partialFailure was requested and some operations failed.
type MutateResponse struct {
	Results             []MutateResult
	PartialFailureError *adserr.Failure
}

// BatchResults implements response.Batch.
func (r *MutateResponse) BatchResults() []MutateResult { return r.Results }

// PartialFailure implements response.Batch.
func (r *MutateResponse) PartialFailure() *adserr.Failure { return r.PartialFailureError }

// UnmarshalJSON decodes partialFailureError through the failure classifier.
func (r *MutateResponse) UnmarshalJSON(b []byte) error {
	var wire struct {
		Results             []MutateResult  `json:"results"`
		PartialFailureError json.RawMessage `json:"partialFailureError"`
	}
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}
	r.Results = wire.Results
	r.PartialFailureError = nil
	if len(wire.PartialFailureError) > 0 && string(wire.PartialFailureError) != "null" {
		f, err := adserr.DecodeStatus(wire.PartialFailureError)
		if err != nil {
			return fmt.Errorf("partial failure: %w", err)
		}
		r.PartialFailureError = f
	}
	return nil
}

type listAccessibleCustomersResponse struct {
	ResourceNames []string `json:"resourceNames"`
}
