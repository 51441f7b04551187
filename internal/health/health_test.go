package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLivenessHandler(t *testing.T) {
	handler := LivenessHandler()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
}

func TestChecker_AllHealthy(t *testing.T) {
	c := NewChecker(0, zerolog.Nop())
	c.Register("credentials", func(ctx context.Context) Status { return StatusOK })
	c.Register("google_ads", func(ctx context.Context) Status { return StatusOK })

	assert.True(t, c.IsReady(context.Background()))
}

func TestChecker_OneDown(t *testing.T) {
	c := NewChecker(0, zerolog.Nop())
	c.Register("credentials", func(ctx context.Context) Status { return StatusOK })
	c.Register("google_ads", func(ctx context.Context) Status { return StatusDown })

	assert.False(t, c.IsReady(context.Background()))
}

func TestChecker_Degraded_StillReady(t *testing.T) {
	c := NewChecker(0, zerolog.Nop())
	c.Register("credentials", func(ctx context.Context) Status { return StatusDegraded })

	assert.True(t, c.IsReady(context.Background()))
}

func TestChecker_NoChecks(t *testing.T) {
	c := NewChecker(0, zerolog.Nop())
	assert.True(t, c.IsReady(context.Background()))
}

func TestChecker_CachesWithinTTL(t *testing.T) {
	var calls atomic.Int32
	now := time.Unix(1000, 0)
	c := NewChecker(time.Minute, zerolog.Nop())
	c.now = func() time.Time { return now }
	c.Register("google_ads", func(ctx context.Context) Status {
		calls.Add(1)
		return StatusOK
	})

	c.Results(context.Background())
	c.Results(context.Background())
	assert.Equal(t, int32(1), calls.Load())

	now = now.Add(2 * time.Minute)
	c.Results(context.Background())
	assert.Equal(t, int32(2), calls.Load())
}

func TestChecker_CheckTimeout(t *testing.T) {
	c := NewChecker(0, zerolog.Nop())
	c.timeout = 10 * time.Millisecond
	c.Register("slow", func(ctx context.Context) Status {
		<-ctx.Done()
		return StatusDown
	})

	assert.Equal(t, StatusDown, c.Results(context.Background())["slow"])
}

func TestReadinessHandler_Healthy(t *testing.T) {
	c := NewChecker(0, zerolog.Nop())
	c.Register("svc", func(ctx context.Context) Status { return StatusOK })

	handler := c.ReadinessHandler()
	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"ready"`)
}

func TestReadinessHandler_NotReady(t *testing.T) {
	c := NewChecker(0, zerolog.Nop())
	c.Register("svc", func(ctx context.Context) Status { return StatusDown })

	handler := c.ReadinessHandler()
	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "not_ready")
}
