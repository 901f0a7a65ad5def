package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(maxRetries int) Policy {
	return Policy{
		MaxRetries: maxRetries,
		BaseDelay:  time.Millisecond,
		MaxDelay:   10 * time.Millisecond,
	}
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), fastPolicy(3), "test", func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("rate limit exceeded")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
}

func TestDoDoesNotRetryPermanentErrors(t *testing.T) {
	permanent := errors.New("invalid api key")
	calls := 0
	_, err := Do(context.Background(), fastPolicy(3), "test", func(context.Context) (int, error) {
		calls++
		return 0, permanent
	})

	require.Error(t, err)
	assert.Equal(t, permanent, err)
	assert.Equal(t, 1, calls)
}

func TestDoExhaustsRetriesAndReturnsLastError(t *testing.T) {
	last := errors.New("503 service unavailable")
	calls := 0
	_, err := Do(context.Background(), fastPolicy(2), "test", func(context.Context) (int, error) {
		calls++
		return 0, last
	})

	require.Error(t, err)
	assert.Equal(t, last, err)
	assert.Equal(t, 3, calls) // first call + 2 retries
}

func TestDoZeroRetriesCallsOnce(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy(0), "test", func(context.Context) (int, error) {
		calls++
		return 0, errors.New("timeout")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoCancelledContextAbortsBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Do(ctx, Policy{MaxRetries: 3, BaseDelay: time.Hour, MaxDelay: time.Hour}, "test", func(context.Context) (int, error) {
		calls++
		return 0, errors.New("timeout")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoInvokesOnRetryPerRetryAttempt(t *testing.T) {
	p := fastPolicy(3)
	retries := 0
	p.OnRetry = func() { retries++ }

	calls := 0
	result, err := Do(context.Background(), p, "test", func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("rate limit exceeded")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 2, retries)
}

func TestDoSkipsOnRetryForPermanentErrors(t *testing.T) {
	p := fastPolicy(3)
	retries := 0
	p.OnRetry = func() { retries++ }

	_, err := Do(context.Background(), p, "test", func(context.Context) (int, error) {
		return 0, errors.New("invalid api key")
	})

	require.Error(t, err)
	assert.Zero(t, retries)
}

func TestDelayGrowsAndCaps(t *testing.T) {
	p := Policy{
		MaxRetries: 5,
		BaseDelay:  time.Second,
		MaxDelay:   4 * time.Second,
	}

	assert.Equal(t, time.Second, p.delay(0))
	assert.Equal(t, 2*time.Second, p.delay(1))
	assert.Equal(t, 4*time.Second, p.delay(2))
	assert.Equal(t, 4*time.Second, p.delay(3))
}

func TestDelayJitterStaysInRange(t *testing.T) {
	p := Policy{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
		Jitter:     true,
	}

	for i := 0; i < 100; i++ {
		d := p.delay(1)
		assert.GreaterOrEqual(t, d, time.Second)
		assert.Less(t, d, 3*time.Second)
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"api error 429", &openai.APIError{HTTPStatusCode: 429}, true},
		{"api error 529", &openai.APIError{HTTPStatusCode: 529}, true},
		{"api error 400", &openai.APIError{HTTPStatusCode: 400}, false},
		{"api error 401", &openai.APIError{HTTPStatusCode: 401}, false},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"rate limit substring", errors.New("Rate Limit reached for model"), true},
		{"timeout substring", errors.New("request timeout"), true},
		{"502 substring", errors.New("upstream returned 502"), true},
		{"permanent", errors.New("model not found"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestIsTransientPrefersStructuredStatusOverSubstring(t *testing.T) {
	// A 400 whose message happens to contain "timeout" is still permanent.
	err := &openai.APIError{HTTPStatusCode: 400, Message: "timeout parameter invalid"}
	assert.False(t, IsTransient(err))
}
