package googleads

import (
	"context"

	"github.com/p-blackswan/google-ads-mcp/internal/retry"
)

// WithRetry wraps c so that every service method obtained from it runs
// through r. Callers use the result exactly like c. Wrapping an already
// wrapped client returns it unchanged.
func WithRetry(c Client, r *retry.Retrier) Client {
	if rc, ok := c.(*retryingClient); ok {
		return rc
	}
	return &retryingClient{inner: c, r: r}
}

type retryingClient struct {
	inner Client
	r     *retry.Retrier
}

func (c *retryingClient) LoginCustomerID() string { return c.inner.LoginCustomerID() }

func (c *retryingClient) GoogleAdsService() GoogleAdsService {
	return &retryingGoogleAdsService{inner: c.inner.GoogleAdsService(), r: c.r}
}

func (c *retryingClient) CustomerService() CustomerService {
	return &retryingCustomerService{inner: c.inner.CustomerService(), r: c.r}
}

func (c *retryingClient) CampaignService() CampaignService {
	return &retryingCampaignService{inner: c.inner.CampaignService(), r: c.r}
}

type retryingGoogleAdsService struct {
	inner GoogleAdsService
	r     *retry.Retrier
}

func (s *retryingGoogleAdsService) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	return retry.Do(ctx, s.r, "GoogleAdsService.Search", func(ctx context.Context) (*SearchResponse, error) {
		return s.inner.Search(ctx, req)
	})
}

type retryingCustomerService struct {
	inner CustomerService
	r     *retry.Retrier
}

func (s *retryingCustomerService) ListAccessibleCustomers(ctx context.Context) ([]string, error) {
	return retry.Do(ctx, s.r, "CustomerService.ListAccessibleCustomers", s.inner.ListAccessibleCustomers)
}

type retryingCampaignService struct {
	inner CampaignService
	r     *retry.Retrier
}

// MutateCampaigns retries whole-request failures only. A partial failure is a
// successful response and is returned as is.
func (s *retryingCampaignService) MutateCampaigns(ctx context.Context, req MutateCampaignsRequest) (*MutateResponse, error) {
	return retry.Do(ctx, s.r, "CampaignService.MutateCampaigns", func(ctx context.Context) (*MutateResponse, error) {
		return s.inner.MutateCampaigns(ctx, req)
	})
}
