// Package health serves liveness and readiness next to the metrics endpoint.
// Readiness reflects whether the server can reach Google Ads.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Status of one dependency.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

// CheckFunc reports a dependency's status.
type CheckFunc func(ctx context.Context) Status

// Checker runs registered checks and remembers the result for a while so
// probes do not spend API quota.
type Checker struct {
	mu      sync.Mutex
	checks  map[string]CheckFunc
	results map[string]Status
	checked time.Time
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time
	logger  zerolog.Logger
}

// NewChecker creates a Checker. Results are reused for ttl; zero disables
// caching.
func NewChecker(ttl time.Duration, logger zerolog.Logger) *Checker {
	return &Checker{
		checks:  make(map[string]CheckFunc),
		ttl:     ttl,
		timeout: 5 * time.Second,
		now:     time.Now,
		logger:  logger.With().Str("component", "health").Logger(),
	}
}

// Register adds a named check and drops any cached results.
func (c *Checker) Register(name string, fn CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = fn
	c.results = nil
}

// Results returns the status of every check, running them concurrently when
// the cached results have expired.
func (c *Checker) Results(ctx context.Context) map[string]Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.results != nil && c.ttl > 0 && c.now().Sub(c.checked) < c.ttl {
		return c.results
	}

	results := make(map[string]Status, len(c.checks))
	var wg sync.WaitGroup
	var mu sync.Mutex
	for name, fn := range c.checks {
		wg.Add(1)
		go func(n string, f CheckFunc) {
			defer wg.Done()
			checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()
			s := f(checkCtx)
			if s != StatusOK {
				c.logger.Warn().Str("check", n).Str("status", string(s)).Msg("health check not ok")
			}
			mu.Lock()
			results[n] = s
			mu.Unlock()
		}(name, fn)
	}
	wg.Wait()

	c.results = results
	c.checked = c.now()
	return results
}

// IsReady returns false if any check is down. Degraded counts as ready.
func (c *Checker) IsReady(ctx context.Context) bool {
	for _, s := range c.Results(ctx) {
		if s == StatusDown {
			return false
		}
	}
	return true
}

// LivenessHandler returns an HTTP handler for /health (liveness).
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ReadinessHandler returns an HTTP handler for /ready (readiness).
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results := c.Results(r.Context())
		resp := map[string]interface{}{"checks": results, "status": "ready"}
		code := http.StatusOK
		for _, s := range results {
			if s == StatusDown {
				resp["status"] = "not_ready"
				code = http.StatusServiceUnavailable
				break
			}
		}
		writeJSON(w, code, resp)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
