package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"

	blink402 "github.com/Blink402/blink402-mcp"
	"github.com/Blink402/blink402-mcp/internal/ledger"
)

// State is a confirmation waiter state.
type State int

const (
	// StateSearching means no signature has been located yet.
	StateSearching State = iota

	// StateFoundPending means a signature was located but has not reached
	// the target commitment.
	StateFoundPending

	// StateConfirmed means the signature reached the target commitment with
	// no execution error. Terminal success.
	StateConfirmed

	// StateFailed means the ledger recorded an execution error for the
	// signature. Terminal: a failed on-chain transaction never becomes valid.
	StateFailed

	// StateTimedOut means no signature was found before the deadline.
	// Terminal, but distinct from StateFailed: no payment attempt was
	// observed, so the caller may re-prompt rather than refund.
	StateTimedOut
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateSearching:
		return "SEARCHING"
	case StateFoundPending:
		return "FOUND_PENDING"
	case StateConfirmed:
		return "CONFIRMED"
	case StateFailed:
		return "FAILED"
	case StateTimedOut:
		return "TIMED_OUT"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether the state ends the wait.
func (s State) Terminal() bool {
	return s == StateConfirmed || s == StateFailed || s == StateTimedOut
}

// TransitionFunc observes waiter state transitions.
type TransitionFunc func(from, to State, ref blink402.PaymentReference, sig solana.Signature)

// Waiter advances a payment through the confirmation state machine:
// SEARCHING -> FOUND_PENDING -> {CONFIRMED, FAILED}, or SEARCHING ->
// TIMED_OUT when the locate deadline elapses first.
type Waiter struct {
	client       ledger.Client
	locator      *Locator
	target       blink402.Commitment
	interval     time.Duration
	log          *slog.Logger
	onTransition TransitionFunc
}

// NewWaiter creates a confirmation waiter targeting the given commitment.
func NewWaiter(client ledger.Client, locator *Locator, target blink402.Commitment, interval time.Duration, log *slog.Logger) *Waiter {
	if interval <= 0 {
		interval = 1500 * time.Millisecond
	}
	if log == nil {
		log = slog.Default()
	}
	return &Waiter{
		client:   client,
		locator:  locator,
		target:   target,
		interval: interval,
		log:      log,
	}
}

// OnTransition registers a state transition observer. Must be called before
// Wait; the waiter itself is not otherwise mutated during a wait, so one
// Waiter may serve concurrent flows.
func (w *Waiter) OnTransition(fn TransitionFunc) {
	w.onTransition = fn
}

func (w *Waiter) transition(from, to State, ref blink402.PaymentReference, sig solana.Signature) {
	w.log.Debug("confirmation state transition",
		"from", from.String(), "to", to.String(),
		"reference", ref.String(), "signature", sig.String())
	if w.onTransition != nil {
		w.onTransition(from, to, ref, sig)
	}
}

// Wait locates a signature for ref and advances it to the target commitment.
// locateCtx bounds the search phase; confirmCtx bounds the confirmation
// phase. The returned state is always terminal when err is nil or a
// terminal-failure error is returned.
func (w *Waiter) Wait(locateCtx, confirmCtx context.Context, ref blink402.PaymentReference) (solana.Signature, State, error) {
	state := StateSearching

	sig, err := w.locator.Locate(locateCtx, ref)
	if err != nil {
		if errors.Is(err, blink402.ErrTimeout) {
			w.transition(state, StateTimedOut, ref, solana.Signature{})
			return solana.Signature{}, StateTimedOut, err
		}
		return solana.Signature{}, state, err
	}

	w.transition(state, StateFoundPending, ref, sig)
	state = StateFoundPending

	status, err := w.Await(confirmCtx, ref, sig)
	if err != nil {
		if errors.Is(err, blink402.ErrExecutionFailed) {
			w.transition(state, StateFailed, ref, sig)
			return sig, StateFailed, err
		}
		return sig, state, err
	}

	w.transition(state, StateConfirmed, ref, sig)
	w.log.Info("payment confirmed",
		"reference", ref.String(), "signature", sig.String(),
		"slot", status.Slot, "commitment", status.Commitment.String())
	return sig, StateConfirmed, nil
}

// Await polls the signature's status until it reaches the target commitment
// or the ledger reports an execution error. An execution error is terminal
// and is never retried into success.
func (w *Waiter) Await(ctx context.Context, ref blink402.PaymentReference, sig solana.Signature) (*ledger.SignatureStatus, error) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		status, err := w.client.SignatureStatus(ctx, sig)
		switch {
		case err == nil && status.ExecutionErr != "":
			return nil, blink402.NewVerificationError(blink402.CodeExecutionFailed,
				"transaction rejected by the network: "+status.ExecutionErr, nil).
				WithReference(ref.String()).
				WithSignature(sig.String())
		case err == nil && status.Commitment.AtLeast(w.target):
			return status, nil
		case err != nil && !blink402.IsRetryable(err):
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, w.deadlineError(ctx, ref, sig)
			}
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, w.deadlineError(ctx, ref, sig)
		case <-ticker.C:
		}
	}
}

func (w *Waiter) deadlineError(ctx context.Context, ref blink402.PaymentReference, sig solana.Signature) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	return blink402.NewVerificationError(blink402.CodeTimeout,
		"signature did not reach "+w.target.String()+" before deadline", nil).
		WithReference(ref.String()).
		WithSignature(sig.String())
}
