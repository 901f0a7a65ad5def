// Package retry provides exponential backoff with jitter for provider calls.
// Transient failures (rate limits, timeouts, server errors) are retried;
// everything else propagates immediately.
package retry

import (
	"context"
	"log/slog"
	"math/rand"
	"time"
)

// Policy controls the backoff loop.
type Policy struct {
	// MaxRetries is the number of retry attempts after the first call.
	MaxRetries int
	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration
	// MaxDelay caps the delay between retries.
	MaxDelay time.Duration
	// Jitter scales each delay by a uniform factor in [0.5, 1.5).
	Jitter bool
	// OnRetry, when set, is invoked once per retry attempt before the
	// backoff sleep. Used to feed the retry counter metric.
	OnRetry func()
}

// DefaultPolicy matches the specialist call budget: 3 retries, 1s base, 30s cap.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
		Jitter:     true,
	}
}

// RouterPolicy is the smaller budget for routing calls, which degrade
// gracefully through the fallback capability instead of failing the request.
func RouterPolicy() Policy {
	p := DefaultPolicy()
	p.MaxRetries = 2
	return p
}

// delay computes the backoff for the given zero-based attempt.
func (p Policy) delay(attempt int) time.Duration {
	d := p.BaseDelay << uint(attempt)
	if d > p.MaxDelay || d <= 0 {
		d = p.MaxDelay
	}
	if p.Jitter {
		d = time.Duration(float64(d) * (0.5 + rand.Float64()))
	}
	return d
}

// Do executes op, retrying transient failures per the policy. The last
// observed error propagates unchanged when attempts are exhausted. A
// background context makes the backoff sleep purely blocking; a cancellable
// context aborts the sleep and returns the last failure.
func Do[T any](ctx context.Context, policy Policy, name string, op func(ctx context.Context) (T, error)) (T, error) {
	var lastErr error
	var zero T

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == policy.MaxRetries || !IsTransient(err) {
			return zero, lastErr
		}

		if policy.OnRetry != nil {
			policy.OnRetry()
		}

		d := policy.delay(attempt)
		slog.Warn("retry: transient failure, backing off",
			"op", name,
			"attempt", attempt+1,
			"max_retries", policy.MaxRetries,
			"delay_ms", d.Milliseconds(),
			"error", err)

		timer := time.NewTimer(d)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		}
	}

	return zero, lastErr
}
