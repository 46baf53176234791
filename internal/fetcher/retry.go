package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/IshaanNene/NewsHound/internal/config"
	"github.com/IshaanNene/NewsHound/internal/types"
)

// RetryPolicy bounds how a failed fetch is retried.
type RetryPolicy struct {
	// MaxRetries is the number of attempts after the first one.
	MaxRetries int

	// BaseDelay doubles after every failed attempt.
	BaseDelay time.Duration

	// MaxDelay caps a single wait. Zero means uncapped.
	MaxDelay time.Duration

	// Timeout bounds each attempt. Zero leaves the parent context alone.
	Timeout time.Duration

	// Jitter spreads waits by ±25% when true.
	Jitter bool
}

// RetryPolicyFromConfig derives a policy from fetcher settings.
func RetryPolicyFromConfig(cfg *config.FetcherConfig) RetryPolicy {
	return RetryPolicy{
		MaxRetries: cfg.MaxRetries,
		BaseDelay:  cfg.RetryBaseDelay,
		MaxDelay:   cfg.RetryMaxDelay,
		Timeout:    cfg.Timeout,
		Jitter:     true,
	}
}

// Backoff returns the wait before retry number attempt (0-based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	d := p.BaseDelay << attempt
	if d < 0 || (p.MaxDelay > 0 && d > p.MaxDelay) {
		d = p.MaxDelay
	}
	if p.Jitter {
		d = RandomDelay(d)
	}
	return d
}

// Retrying decorates a Fetcher with bounded exponential-backoff retries.
type Retrying struct {
	next   Fetcher
	policy RetryPolicy
	logger *slog.Logger
	sleep  func(context.Context, time.Duration) error
}

// NewRetrying wraps next with policy.
func NewRetrying(next Fetcher, policy RetryPolicy, logger *slog.Logger) *Retrying {
	return &Retrying{
		next:   next,
		policy: policy,
		logger: logger.With("component", "retry", "fetcher", next.Type()),
		sleep:  sleepContext,
	}
}

// Fetch tries the wrapped fetcher until it succeeds, a non-retryable error
// occurs, ctx ends, or the retry budget is spent. Exhaustion is reported
// as an error wrapping types.ErrMaxRetries.
func (r *Retrying) Fetch(ctx context.Context, rawURL string) (*types.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= r.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := r.policy.Backoff(attempt - 1)
			var fe *types.FetchError
			if errors.As(lastErr, &fe) && fe.RetryAfter > wait {
				wait = fe.RetryAfter
			}
			r.logger.Debug("retrying fetch", "url", rawURL, "attempt", attempt, "wait", wait, "error", lastErr)
			if err := r.sleep(ctx, wait); err != nil {
				return nil, err
			}
		}

		resp, err := r.attempt(ctx, rawURL)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !retryable(err) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w after %d attempts: %w", types.ErrMaxRetries, r.policy.MaxRetries+1, lastErr)
}

func (r *Retrying) attempt(ctx context.Context, rawURL string) (*types.Response, error) {
	if r.policy.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.policy.Timeout)
		defer cancel()
	}
	return r.next.Fetch(ctx, rawURL)
}

// Close closes the wrapped fetcher.
func (r *Retrying) Close() error {
	return r.next.Close()
}

// Type returns the wrapped fetcher's type.
func (r *Retrying) Type() string {
	return r.next.Type()
}

func retryable(err error) bool {
	var fe *types.FetchError
	if errors.As(err, &fe) {
		return fe.IsRetryable()
	}
	return isRetryableError(err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RandomDelay returns a random delay around the base duration (±25%).
func RandomDelay(base time.Duration) time.Duration {
	jitter := float64(base) * 0.25
	return base + time.Duration(rand.Float64()*2*jitter-jitter)
}
