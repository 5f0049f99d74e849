package client

import (
	"context"
	"math/rand"
	"time"
)

// RetryConfig holds retry configuration.
type RetryConfig struct {
	MaxAttempts   int           // Maximum number of attempts, including the first
	InitialDelay  time.Duration // Delay before the second attempt
	MaxDelay      time.Duration // Upper bound for any delay
	BackoffFactor float64       // Exponential backoff multiplier
	Jitter        bool          // Randomize each delay by ±25%
}

// DefaultRetryConfig returns default retry configuration.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		Jitter:        true,
	}
}

// RetryOption customizes retry behavior.
type RetryOption func(*RetryConfig)

// WithMaxAttempts sets the maximum number of attempts.
func WithMaxAttempts(n int) RetryOption {
	return func(c *RetryConfig) {
		c.MaxAttempts = n
	}
}

// WithInitialDelay sets the initial retry delay.
func WithInitialDelay(d time.Duration) RetryOption {
	return func(c *RetryConfig) {
		c.InitialDelay = d
	}
}

// WithMaxDelay sets the maximum retry delay.
func WithMaxDelay(d time.Duration) RetryOption {
	return func(c *RetryConfig) {
		c.MaxDelay = d
	}
}

// WithBackoffFactor sets the exponential backoff factor.
func WithBackoffFactor(f float64) RetryOption {
	return func(c *RetryConfig) {
		c.BackoffFactor = f
	}
}

// WithJitter enables or disables delay jitter.
func WithJitter(enabled bool) RetryOption {
	return func(c *RetryConfig) {
		c.Jitter = enabled
	}
}

// Retry calls fn until it succeeds, fails with an error other than a
// ConnectivityError, or runs out of attempts. The query layer never retries
// on its own; this is the caller-side policy.
func Retry(ctx context.Context, fn func(ctx context.Context) error, opts ...RetryOption) error {
	config := DefaultRetryConfig()
	for _, opt := range opts {
		opt(config)
	}
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}

	delay := config.InitialDelay
	var err error
	for attempt := 1; ; attempt++ {
		err = fn(ctx)
		if err == nil || !IsConnectivity(err) || attempt >= config.MaxAttempts {
			return err
		}

		wait := delay
		if config.Jitter && delay >= 4 {
			spread := delay / 4
			wait = delay - spread + time.Duration(rand.Int63n(int64(spread)*2))
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}

		delay = time.Duration(float64(delay) * config.BackoffFactor)
		if config.MaxDelay > 0 && delay > config.MaxDelay {
			delay = config.MaxDelay
		}
	}
}
