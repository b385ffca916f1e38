package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDelayForAttemptNonDecreasing(t *testing.T) {
	cfg := Config{
		MaxAttempts:  10,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2.0,
	}

	prev := time.Duration(0)
	for attempt := 1; attempt <= 10; attempt++ {
		delay := cfg.DelayForAttempt(attempt)
		if delay < prev {
			t.Fatalf("delay for attempt %d = %v decreased from %v", attempt, delay, prev)
		}
		if delay > cfg.MaxDelay {
			t.Fatalf("delay for attempt %d = %v exceeds cap %v", attempt, delay, cfg.MaxDelay)
		}
		prev = delay
	}

	if got := cfg.DelayForAttempt(10); got != cfg.MaxDelay {
		t.Errorf("delay for attempt 10 = %v; want cap %v", got, cfg.MaxDelay)
	}
}

func TestDelayForAttemptGrowth(t *testing.T) {
	cfg := Config{
		MaxAttempts:  5,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := cfg.DelayForAttempt(tt.attempt); got != tt.want {
			t.Errorf("DelayForAttempt(%d) = %v; want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestDelayForAttemptClampsMultiplier(t *testing.T) {
	// A zero-valued or sub-1 multiplier must not collapse delays to zero.
	for _, multiplier := range []float64{0, 0.5} {
		cfg := Config{
			MaxAttempts:  5,
			InitialDelay: 100 * time.Millisecond,
			MaxDelay:     time.Second,
			Multiplier:   multiplier,
		}
		for attempt := 1; attempt <= 5; attempt++ {
			if got := cfg.DelayForAttempt(attempt); got != 100*time.Millisecond {
				t.Errorf("Multiplier=%v DelayForAttempt(%d) = %v; want the initial delay",
					multiplier, attempt, got)
			}
		}
	}
}

var errTransient = errors.New("transient")
var errPermanent = errors.New("permanent")

func TestWithRetryRecoversAfterOneFailure(t *testing.T) {
	cfg := Config{
		MaxAttempts:  3,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     100 * time.Millisecond,
		Multiplier:   2.0,
	}

	calls := 0
	var gap time.Duration
	var lastCall time.Time

	result, err := WithRetry(context.Background(), cfg,
		func(err error) bool { return errors.Is(err, errTransient) },
		func() (string, error) {
			calls++
			now := time.Now()
			if !lastCall.IsZero() {
				gap = now.Sub(lastCall)
			}
			lastCall = now
			if calls == 1 {
				return "", errTransient
			}
			return "ok", nil
		})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" {
		t.Errorf("result = %q; want ok", result)
	}
	if calls != 2 {
		t.Errorf("calls = %d; want exactly 2 (one retry)", calls)
	}
	if gap <= 0 {
		t.Errorf("expected a positive backoff delay between attempts, got %v", gap)
	}
}

func TestWithRetryStopsOnPermanentError(t *testing.T) {
	cfg := Config{MaxAttempts: 5, InitialDelay: time.Millisecond, MaxDelay: time.Second, Multiplier: 2.0}

	calls := 0
	_, err := WithRetry(context.Background(), cfg,
		func(err error) bool { return errors.Is(err, errTransient) },
		func() (int, error) {
			calls++
			return 0, errPermanent
		})

	if !errors.Is(err, errPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d; want 1 (no retry on permanent errors)", calls)
	}
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	cfg := Config{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Second, Multiplier: 2.0}

	calls := 0
	_, err := WithRetry(context.Background(), cfg,
		func(error) bool { return true },
		func() (int, error) {
			calls++
			return 0, errTransient
		})

	if !errors.Is(err, errTransient) {
		t.Fatalf("expected transient error after exhaustion, got %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d; want 3", calls)
	}
}

func TestWithRetryHonorsCancellation(t *testing.T) {
	cfg := Config{MaxAttempts: 10, InitialDelay: 50 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2.0}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := WithRetry(ctx, cfg,
		func(error) bool { return true },
		func() (int, error) {
			calls++
			return 0, errTransient
		})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls < 1 {
		t.Errorf("expected at least one attempt before cancellation")
	}
}
