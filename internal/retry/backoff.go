package retry

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"
)

// Policy holds retry configuration. A Retrier never mutates it.
type Policy struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	JitterFraction float64
}

// DefaultPolicy returns the defaults used against the Google Ads API.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		BaseDelay:      5 * time.Second,
		MaxDelay:       60 * time.Second,
		JitterFraction: 0.1,
	}
}

// Validate checks the policy bounds.
func (p Policy) Validate() error {
	switch {
	case p.MaxAttempts < 1:
		return fmt.Errorf("retry: max attempts must be >= 1, got %d", p.MaxAttempts)
	case p.BaseDelay <= 0:
		return fmt.Errorf("retry: base delay must be > 0, got %s", p.BaseDelay)
	case p.JitterFraction < 0 || p.JitterFraction > 1:
		return fmt.Errorf("retry: jitter fraction must be within [0,1], got %g", p.JitterFraction)
	case p.MaxDelay < p.BaseDelay:
		return fmt.Errorf("retry: max delay %s is below base delay %s", p.MaxDelay, p.BaseDelay)
	}
	return nil
}

// Backoff computes exponential delays with additive jitter and a cap.
// It is safe for concurrent use.
type Backoff struct {
	policy Policy

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewBackoff creates a Backoff. A nil source seeds from the clock; pass a
// fixed source for reproducible delays.
func NewBackoff(p Policy, src rand.Source) *Backoff {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Backoff{policy: p, rnd: rand.New(src)}
}

// Delay returns the wait before the retry that follows the given attempt
// (1-based): base*2^(attempt-1), plus up to JitterFraction of that, capped at
// MaxDelay.
func (b *Backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := float64(b.policy.BaseDelay) * math.Pow(2, float64(attempt-1))

	if b.policy.JitterFraction > 0 {
		b.mu.Lock()
		delay += b.rnd.Float64() * delay * b.policy.JitterFraction
		b.mu.Unlock()
	}

	if ceiling := float64(b.policy.MaxDelay); b.policy.MaxDelay > 0 && delay > ceiling {
		delay = ceiling
	}
	return time.Duration(delay)
}
