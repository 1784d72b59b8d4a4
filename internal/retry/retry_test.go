package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fast(maxRetries int) *Config {
	return &Config{
		MaxRetries:   maxRetries,
		InitialDelay: 5 * time.Millisecond,
		MaxDelay:     20 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func within(t *testing.T, got, want time.Duration) {
	t.Helper()
	tolerance := time.Duration(float64(want) * jitter)
	assert.GreaterOrEqual(t, got, want-tolerance)
	assert.LessOrEqual(t, got, want+tolerance)
}

func TestNewBackOffSchedule(t *testing.T) {
	c := &Config{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
	}
	b := c.NewBackOff()

	within(t, b.NextBackOff(), 100*time.Millisecond)
	within(t, b.NextBackOff(), 200*time.Millisecond)
	within(t, b.NextBackOff(), 400*time.Millisecond)
	within(t, b.NextBackOff(), 800*time.Millisecond)
	within(t, b.NextBackOff(), 1*time.Second) // capped
	within(t, b.NextBackOff(), 1*time.Second)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	attempts, err := Do(context.Background(), fast(3), func() error {
		calls++
		if calls < 3 {
			return &StatusError{Code: 503}
		}
		return nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoStopsOnPermanent(t *testing.T) {
	final := errors.New("rejected")
	attempts, err := Do(context.Background(), fast(3), func() error {
		return Permanent(final)
	}, nil)

	assert.ErrorIs(t, err, final)
	assert.Equal(t, 1, attempts)
}

func TestDoGivesUpAfterMaxRetries(t *testing.T) {
	var notified []time.Duration
	attempts, err := Do(context.Background(), fast(2), func() error {
		return &StatusError{Code: 502}
	}, func(_ error, next time.Duration) {
		notified = append(notified, next)
	})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 502, statusErr.Code)
	assert.Equal(t, 3, attempts)
	assert.Len(t, notified, 2)
}

func TestDoHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	slow := &Config{MaxRetries: 5, InitialDelay: time.Hour, Multiplier: 2}
	attempts, err := Do(ctx, slow, func() error { return &StatusError{Code: 503} }, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.LessOrEqual(t, attempts, 1)
}

func TestCheckStatus(t *testing.T) {
	assert.NoError(t, CheckStatus(200))
	assert.NoError(t, CheckStatus(204))

	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		err := CheckStatus(code)
		var permanent *backoff.PermanentError
		assert.False(t, errors.As(err, &permanent), "status %d should be retryable", code)
		assert.True(t, IsRetryableStatus(code))
	}

	for _, code := range []int{400, 401, 403, 404, 413} {
		err := CheckStatus(code)
		var permanent *backoff.PermanentError
		assert.True(t, errors.As(err, &permanent), "status %d should be final", code)
		assert.False(t, IsRetryableStatus(code))
	}
}
