// Package retry holds the HTTP retry policy shared by outbound clients.
package retry

import (
	"context"
	"fmt"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
)

// Config holds retry configuration
type Config struct {
	MaxRetries   int           // Maximum retry attempts (default: 3)
	InitialDelay time.Duration // Initial delay between retries (default: 1s)
	MaxDelay     time.Duration // Maximum delay (default: 30s)
	Multiplier   float64       // Backoff multiplier (default: 2.0)
}

// DefaultConfig returns default retry configuration
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// jitter is the randomization applied to every interval (±10%)
const jitter = 0.1

// NewBackOff builds the exponential schedule described by c, without a
// retry cap or deadline
func (c *Config) NewBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.InitialDelay
	b.RandomizationFactor = jitter
	b.Multiplier = c.Multiplier
	if b.Multiplier < 1 {
		b.Multiplier = 1
	}
	if c.MaxDelay > 0 {
		b.MaxInterval = c.MaxDelay
	}
	// The caller's context bounds the total time
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Do runs op until it succeeds, returns a Permanent error, MaxRetries
// retries are used up or ctx is done. It returns the number of attempts made
// and the last error, unwrapped from Permanent.
func Do(ctx context.Context, c *Config, op func() error, notify func(err error, next time.Duration)) (int, error) {
	if c == nil {
		c = DefaultConfig()
	}
	retries := c.MaxRetries
	if retries < 0 {
		retries = 0
	}

	attempts := 0
	b := backoff.WithContext(backoff.WithMaxRetries(c.NewBackOff(), uint64(retries)), ctx)
	err := backoff.RetryNotify(func() error {
		attempts++
		return op()
	}, b, notify)
	return attempts, err
}

// Permanent marks err as not worth retrying
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// StatusError is an unexpected HTTP response status
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d", e.Code)
}

// CheckStatus returns nil for 2xx, a retryable StatusError for codes in
// IsRetryableStatus and a Permanent StatusError otherwise
func CheckStatus(code int) error {
	if code >= 200 && code < 300 {
		return nil
	}
	err := &StatusError{Code: code}
	if IsRetryableStatus(code) {
		return err
	}
	return Permanent(err)
}

// IsRetryableStatus checks if an HTTP status code should trigger a retry
func IsRetryableStatus(code int) bool {
	switch code {
	case 408, // Request Timeout
		429, // Too Many Requests
		500, // Internal Server Error
		502, // Bad Gateway
		503, // Service Unavailable
		504: // Gateway Timeout
		return true
	default:
		return false
	}
}
