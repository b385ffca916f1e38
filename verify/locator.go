// Package verify implements the payment verification pipeline: locating a
// transaction by its reference, waiting for ledger finality, and validating
// the transfer against the caller's expectation.
package verify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"

	blink402 "github.com/Blink402/blink402-mcp"
	"github.com/Blink402/blink402-mcp/internal/ledger"
)

// signatureHistoryLimit bounds each history poll. Resubmission noise rarely
// produces more than a handful of signatures per reference.
const signatureHistoryLimit = 10

// Locator polls the ledger's signature history for a reference address until
// a usable signature appears or the context deadline elapses.
type Locator struct {
	client   ledger.Client
	interval time.Duration
	log      *slog.Logger
}

// NewLocator creates a locator polling at the given interval.
func NewLocator(client ledger.Client, interval time.Duration, log *slog.Logger) *Locator {
	if interval <= 0 {
		interval = 1500 * time.Millisecond
	}
	if log == nil {
		log = slog.Default()
	}
	return &Locator{client: client, interval: interval, log: log}
}

// Locate polls until a signature referencing ref appears. When several
// signatures exist it returns the most recent successful one at or above
// confirmed, guarding against resubmission noise; if only weaker candidates
// exist it returns the most recent successful processed signature and leaves
// finality to the waiter. Failed processed entries are skipped entirely, so a
// failed first attempt never masks a successful resubmission. It never
// returns a signature below processed.
//
// The context must carry a deadline; expiry surfaces as Timeout. Cancelling
// simply abandons the local wait; re-polling the same reference later is
// always safe because references are single-use once matched.
func (l *Locator) Locate(ctx context.Context, ref blink402.PaymentReference) (solana.Signature, error) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		sig, err := l.poll(ctx, ref)
		if err == nil {
			return sig, nil
		}
		if !blink402.IsRetryable(err) {
			return solana.Signature{}, err
		}

		select {
		case <-ctx.Done():
			return solana.Signature{}, l.deadlineError(ctx, ref)
		case <-ticker.C:
		}
	}
}

// poll performs one history fetch and picks a candidate signature.
func (l *Locator) poll(ctx context.Context, ref blink402.PaymentReference) (solana.Signature, error) {
	infos, err := l.client.SignaturesForAddress(ctx, ref.Key(), signatureHistoryLimit)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return solana.Signature{}, l.deadlineError(ctx, ref)
		}
		if blink402.IsTransient(err) {
			l.log.Debug("signature history poll failed, will retry",
				"reference", ref.String(), "error", err)
		}
		return solana.Signature{}, err
	}

	// History is newest first. Prefer the newest successful entry at
	// >= confirmed; fall back to the newest successful processed entry.
	// Failed entries below confirmed are resubmission noise: a later
	// attempt may still land, so they never end the search. A failed
	// entry that reached confirmation is a genuine terminal failure and
	// is surfaced only when no successful candidate exists.
	var fallback *ledger.SignatureInfo
	var failedConfirmed *ledger.SignatureInfo
	for i := range infos {
		info := infos[i]
		if info.Commitment.AtLeast(blink402.CommitmentConfirmed) {
			if !info.Failed {
				l.log.Debug("signature located", "reference", ref.String(),
					"signature", info.Signature.String(), "memo", info.Memo)
				return info.Signature, nil
			}
			if failedConfirmed == nil {
				failedConfirmed = &info
			}
			continue
		}
		if !info.Failed && fallback == nil {
			fallback = &info
		}
	}
	if fallback != nil {
		return fallback.Signature, nil
	}
	if failedConfirmed != nil {
		return failedConfirmed.Signature, nil
	}

	return solana.Signature{}, blink402.NewVerificationError(blink402.CodeNotFoundYet,
		"no signatures for reference", nil).WithReference(ref.String())
}

// deadlineError renders a context expiry as the engine's Timeout error,
// preserving plain cancellation.
func (l *Locator) deadlineError(ctx context.Context, ref blink402.PaymentReference) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	return blink402.NewVerificationError(blink402.CodeTimeout,
		"no payment observed before deadline", nil).WithReference(ref.String())
}
