// Package googleads is a small Google Ads REST client and the retrying
// wrapper every tool talks through.
package googleads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/google-ads-mcp/internal/adserr"
)

// Client is the remote API surface the tools use. Service getters return
// handles whose methods each perform one remote call.
type Client interface {
	GoogleAdsService() GoogleAdsService
	CustomerService() CustomerService
	CampaignService() CampaignService
	LoginCustomerID() string
}

// GoogleAdsService runs GAQL queries.
type GoogleAdsService interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// CustomerService lists the accounts the credentials can reach.
type CustomerService interface {
	ListAccessibleCustomers(ctx context.Context) ([]string, error)
}

// CampaignService mutates campaigns.
type CampaignService interface {
	MutateCampaigns(ctx context.Context, req MutateCampaignsRequest) (*MutateResponse, error)
}

// HTTPClient abstracts HTTP calls for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configure a RESTClient.
type Options struct {
	Endpoint        string
	Version         string
	DeveloperToken  string
	LoginCustomerID string
	// HTTPClient must attach credentials (an oauth2 client in production).
	HTTPClient HTTPClient
	Logger     zerolog.Logger
}

const maxResponseBytes = 32 << 20

// RESTClient talks to googleads.googleapis.com over HTTP/JSON.
type RESTClient struct {
	baseURL         string
	developerToken  string
	loginCustomerID string
	httpClient      HTTPClient
	logger          zerolog.Logger
}

// NewClient creates a REST client.
func NewClient(opts Options) *RESTClient {
	if opts.Endpoint == "" {
		opts.Endpoint = "https://googleads.googleapis.com"
	}
	if opts.Version == "" {
		opts.Version = "v20"
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &RESTClient{
		baseURL:         strings.TrimSuffix(opts.Endpoint, "/") + "/" + opts.Version,
		developerToken:  opts.DeveloperToken,
		loginCustomerID: opts.LoginCustomerID,
		httpClient:      opts.HTTPClient,
		logger:          opts.Logger.With().Str("component", "googleads").Logger(),
	}
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *RESTClient) SetHTTPClient(hc HTTPClient) {
	c.httpClient = hc
}

// LoginCustomerID returns the manager account requests are made through.
func (c *RESTClient) LoginCustomerID() string { return c.loginCustomerID }

func (c *RESTClient) GoogleAdsService() GoogleAdsService { return googleAdsService{c} }
func (c *RESTClient) CustomerService() CustomerService   { return customerService{c} }
func (c *RESTClient) CampaignService() CampaignService   { return campaignService{c} }

type googleAdsService struct{ c *RESTClient }

func (s googleAdsService) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	var out SearchResponse
	path := "/customers/" + req.CustomerID + "/googleAds:search"
	if err := s.c.do(ctx, "GoogleAdsService.Search", http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type customerService struct{ c *RESTClient }

func (s customerService) ListAccessibleCustomers(ctx context.Context) ([]string, error) {
	var out listAccessibleCustomersResponse
	if err := s.c.do(ctx, "CustomerService.ListAccessibleCustomers", http.MethodGet, "/customers:listAccessibleCustomers", nil, &out); err != nil {
		return nil, err
	}
	return out.ResourceNames, nil
}

type campaignService struct{ c *RESTClient }

func (s campaignService) MutateCampaigns(ctx context.Context, req MutateCampaignsRequest) (*MutateResponse, error) {
	var out MutateResponse
	path := "/customers/" + req.CustomerID + "/campaigns:mutate"
	if err := s.c.do(ctx, "CampaignService.MutateCampaigns", http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do executes one API request. Failures come back as *adserr.Failure when
// the API answered with an error body and *adserr.TransportError otherwise.
func (c *RESTClient) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encoding request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: creating request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.developerToken != "" {
		req.Header.Set("developer-token", c.developerToken)
	}
	if c.loginCustomerID != "" {
		req.Header.Set("login-customer-id", c.loginCustomerID)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &adserr.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &adserr.TransportError{Op: op, HTTPStatus: resp.StatusCode, Err: fmt.Errorf("reading body: %w", err)}
	}

	requestID := resp.Header.Get("request-id")
	c.logger.Debug().
		Str("op", op).
		Int("status", resp.StatusCode).
		Str("google_request_id", requestID).
		Dur("took", time.Since(start)).
		Msg("google ads call")

	if resp.StatusCode >= 400 {
		return decodeError(op, resp.StatusCode, respBody, requestID)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", op, err)
	}
	return nil
}

func decodeError(op string, status int, body []byte, requestID string) error {
	gateway := status == http.StatusBadGateway ||
		status == http.StatusServiceUnavailable ||
		status == http.StatusGatewayTimeout

	f, ok := adserr.DecodeFailure(status, body, requestID)
	switch {
	case ok && !(gateway && f.IsStatusOnly()):
		return f
	case gateway || status >= 500:
		return &adserr.TransportError{Op: op, HTTPStatus: status, Err: errors.New(snippet(body))}
	default:
		return adserr.FromHTTPStatus(status, snippet(body), requestID)
	}
}

func snippet(b []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(b))
	if len(s) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	if s == "" {
		s = "empty response body"
	}
	return s
}
