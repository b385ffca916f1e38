// Package retry provides exponential backoff with jitter for network-bound
// ledger operations. Retryability is decided by the caller-supplied predicate;
// the engine passes classifiers built on its structured error taxonomy, never
// on raw error text.
package retry

import (
	"context"
	"math/rand"
	"time"
)

// Config controls retry behavior.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps the computed backoff delay.
	MaxDelay time.Duration

	// Multiplier is the exponential growth factor between retries.
	Multiplier float64

	// Jitter is the fraction of the computed delay added as random slack,
	// in [0, 1]. Zero disables jitter.
	Jitter float64
}

// DefaultConfig provides sensible defaults for RPC retries.
var DefaultConfig = Config{
	MaxAttempts:  4,
	InitialDelay: 250 * time.Millisecond,
	MaxDelay:     5 * time.Second,
	Multiplier:   2.0,
	Jitter:       0.2,
}

// DelayForAttempt computes the base backoff delay before the given retry
// attempt (1-based), without jitter. Delays grow by Multiplier and are
// non-decreasing up to MaxDelay. A Multiplier below 1 is clamped to 1 so a
// zero-valued config cannot collapse every delay to zero.
func (c Config) DelayForAttempt(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	multiplier := c.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}
	delay := float64(c.InitialDelay)
	for i := 1; i < attempt; i++ {
		delay *= multiplier
		if time.Duration(delay) >= c.MaxDelay {
			return c.MaxDelay
		}
	}
	if d := time.Duration(delay); d < c.MaxDelay {
		return d
	}
	return c.MaxDelay
}

// jittered adds random slack on top of the base delay.
func (c Config) jittered(base time.Duration) time.Duration {
	if c.Jitter <= 0 || base <= 0 {
		return base
	}
	slack := time.Duration(rand.Int63n(int64(float64(base)*c.Jitter) + 1))
	return base + slack
}

// WithRetry runs fn until it succeeds, fails permanently, exhausts
// MaxAttempts, or the context is cancelled. The retryable predicate decides
// whether an error is worth another attempt.
func WithRetry[T any](ctx context.Context, cfg Config, retryable func(error) bool, fn func() (T, error)) (T, error) {
	var zero T

	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !retryable(err) || attempt == attempts {
			break
		}

		delay := cfg.jittered(cfg.DelayForAttempt(attempt))
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	return zero, lastErr
}
