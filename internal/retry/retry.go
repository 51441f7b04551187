// Package retry provides exponential backoff retry logic for Google Ads API calls.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/google-ads-mcp/internal/adserr"
	"github.com/p-blackswan/google-ads-mcp/internal/requestid"
)

// Outcomes passed to Recorder.
const (
	OutcomeSuccess      = "success"
	OutcomeRetry        = "retry"
	OutcomeNonRetryable = "non_retryable"
	OutcomeExhausted    = "exhausted"
	OutcomeCanceled     = "canceled"
)

// Recorder observes retry decisions, typically for metrics.
type Recorder interface {
	RecordAttempt(op, outcome string)
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Retrier runs operations under a fixed Policy.
type Retrier struct {
	policy   Policy
	backoff  *Backoff
	classify func(error) bool
	sleep    Sleeper
	recorder Recorder
	logger   zerolog.Logger
}

// Option configures a Retrier.
type Option func(*Retrier)

// WithLogger sets the logger used for retry decisions.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Retrier) { r.logger = l.With().Str("component", "retry").Logger() }
}

// WithClassifier replaces adserr.ShouldRetry.
func WithClassifier(fn func(error) bool) Option {
	return func(r *Retrier) { r.classify = fn }
}

// WithSleeper replaces the timer-based wait (tests).
func WithSleeper(s Sleeper) Option {
	return func(r *Retrier) { r.sleep = s }
}

// WithRandSource makes jitter reproducible.
func WithRandSource(src rand.Source) Option {
	return func(r *Retrier) { r.backoff = NewBackoff(r.policy, src) }
}

// WithRecorder attaches a decision recorder.
func WithRecorder(rec Recorder) Option {
	return func(r *Retrier) { r.recorder = rec }
}

// New creates a Retrier. The policy should already be validated.
func New(p Policy, opts ...Option) *Retrier {
	r := &Retrier{
		policy:   p,
		backoff:  NewBackoff(p, nil),
		classify: adserr.ShouldRetry,
		sleep:    sleepContext,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Policy returns the policy the Retrier was built with.
func (r *Retrier) Policy() Policy { return r.policy }

// Do executes fn with exponential backoff. Only retries if the error is
// retryable; the error returned is the last one fn produced, unwrapped.
func Do[T any](ctx context.Context, r *Retrier, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	log := r.logger.With().Str("op", op).Logger()
	if id, ok := requestid.Lookup(ctx); ok {
		log = log.With().Str("request_id", id).Logger()
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			r.record(op, OutcomeCanceled)
			return zero, cancelErr(err, lastErr)
		}

		result, err := fn(ctx)
		if err == nil {
			r.record(op, OutcomeSuccess)
			return result, nil
		}
		lastErr = err

		// The caller's own deadline or cancellation ends the loop; it is not
		// a remote failure worth waiting on.
		if ctxErr := ctx.Err(); ctxErr != nil {
			r.record(op, OutcomeCanceled)
			return zero, cancelErr(ctxErr, lastErr)
		}
		if !r.classify(err) {
			log.Error().Err(err).Int("attempt", attempt).Msg("non-retryable error encountered")
			r.record(op, OutcomeNonRetryable)
			return zero, err
		}
		if attempt >= r.policy.MaxAttempts {
			log.Error().Err(err).Int("attempts", attempt).Msg("max retries exceeded")
			r.record(op, OutcomeExhausted)
			return zero, err
		}

		delay := r.backoff.Delay(attempt)
		log.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", r.policy.MaxAttempts).
			Dur("delay", delay).
			Msg("retryable error, waiting before retry")
		r.record(op, OutcomeRetry)

		if err := r.sleep(ctx, delay); err != nil {
			r.record(op, OutcomeCanceled)
			return zero, cancelErr(err, lastErr)
		}
	}
}

// Run is Do for operations that only return an error.
func (r *Retrier) Run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	_, err := Do(ctx, r, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Wrap returns fn with retry applied on every call.
func Wrap[T any](r *Retrier, op string, fn func(ctx context.Context) (T, error)) func(ctx context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		return Do(ctx, r, op, fn)
	}
}

func (r *Retrier) record(op, outcome string) {
	if r.recorder != nil {
		r.recorder.RecordAttempt(op, outcome)
	}
}

// cancelErr keeps the last remote error inspectable next to the context error.
func cancelErr(ctxErr, lastErr error) error {
	if lastErr == nil {
		return ctxErr
	}
	return errors.Join(ctxErr, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
