package verify

import (
	"context"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"

	blink402 "github.com/Blink402/blink402-mcp"
	"github.com/Blink402/blink402-mcp/internal/ledger"
	"github.com/Blink402/blink402-mcp/retry"
)

// ResultStore caches terminal verification results by reference so repeat
// queries are idempotent without touching the ledger. A nil store disables
// caching. Get returns (nil, nil) when no result is cached.
type ResultStore interface {
	Get(reference string) (*blink402.VerificationResult, error)
	Put(result *blink402.VerificationResult) error
}

// Verifier runs the full verification pipeline for transfer expectations.
// Construct one at process start and share it; independent verifications are
// fully independent tasks sharing only the underlying RPC client.
type Verifier struct {
	cfg       blink402.Config
	netcfg    blink402.NetworkConfig
	client    ledger.Client
	locator   *Locator
	waiter    *Waiter
	validator *Validator
	store     ResultStore
	retryCfg  retry.Config
	onEvent   blink402.EventHandler
	log       *slog.Logger
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithClient substitutes the ledger client, mainly for tests.
func WithClient(client ledger.Client) Option {
	return func(v *Verifier) { v.client = client }
}

// WithResultStore attaches a result cache for idempotent re-queries.
func WithResultStore(store ResultStore) Option {
	return func(v *Verifier) { v.store = store }
}

// WithEventHandler registers a lifecycle event consumer.
func WithEventHandler(fn blink402.EventHandler) Option {
	return func(v *Verifier) { v.onEvent = fn }
}

// WithRetryConfig overrides the RPC retry policy.
func WithRetryConfig(cfg retry.Config) Option {
	return func(v *Verifier) { v.retryCfg = cfg }
}

// WithNativeFeeTolerance overrides the lamport tolerance for native transfers.
func WithNativeFeeTolerance(lamports uint64) Option {
	return func(v *Verifier) { v.validator = NewValidator(lamports) }
}

// New creates a Verifier from the engine configuration.
func New(cfg blink402.Config, opts ...Option) (*Verifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	netcfg, err := cfg.NetworkConfig()
	if err != nil {
		return nil, err
	}

	v := &Verifier{
		cfg:       cfg,
		netcfg:    netcfg,
		validator: NewValidator(0),
		retryCfg:  retry.DefaultConfig,
		log:       cfg.Log(),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.client == nil {
		v.client = ledger.NewRPCClient(netcfg.RPCURL, cfg.Commitment, cfg.Timeouts.RequestTimeout)
	}
	v.locator = NewLocator(v.client, cfg.PollInterval, v.log)
	v.waiter = NewWaiter(v.client, v.locator, cfg.Commitment, cfg.PollInterval, v.log)
	v.waiter.OnTransition(func(from, to State, ref blink402.PaymentReference, sig solana.Signature) {
		if to != StateFoundPending {
			return
		}
		ev := blink402.NewEvent(blink402.EventLocated, cfg.Network, ref.String())
		ev.Signature = sig.String()
		v.emit(ev)
	})
	return v, nil
}

// Client exposes the underlying ledger client for sibling components
// (builder, tier lookup) so one process shares one connection pool.
func (v *Verifier) Client() ledger.Client {
	return v.client
}

// emit forwards a lifecycle event to the registered handler.
func (v *Verifier) emit(ev blink402.Event) {
	if v.onEvent != nil {
		v.onEvent(ev)
	}
}

// Verify locates, confirms, and validates the transfer described by exp,
// returning the terminal VerificationResult or a classified error.
//
// Verifying an already-matched reference returns the cached result unchanged;
// a reference is consumed at most once and never double counted. Both waits
// are deadline-bound: a caller context without a deadline falls back to the
// configured locate/confirm timeouts.
func (v *Verifier) Verify(ctx context.Context, exp blink402.TransferExpectation) (*blink402.VerificationResult, error) {
	if err := exp.Validate(); err != nil {
		return nil, err
	}

	ref := exp.Reference.String()

	if cached, err := v.cachedResult(ref); err != nil {
		return nil, err
	} else if cached != nil {
		v.log.Debug("verification served from cache", "reference", ref)
		return cached, nil
	}

	if bypassEnabled(v.cfg) {
		return v.bypassResult(exp), nil
	}

	attempt := blink402.NewEvent(blink402.EventAttempt, v.cfg.Network, ref)
	attempt.Amount = exp.Amount
	v.emit(attempt)

	locateCtx, cancelLocate := v.boundCtx(ctx, v.cfg.Timeouts.LocateTimeout)
	defer cancelLocate()
	confirmCtx, cancelConfirm := v.boundCtx(ctx, v.cfg.Timeouts.LocateTimeout+v.cfg.Timeouts.ConfirmTimeout)
	defer cancelConfirm()

	sig, state, err := v.waiter.Wait(locateCtx, confirmCtx, exp.Reference)
	if err != nil {
		v.emitFailure(exp, sig.String(), err)
		return nil, err
	}

	confirmed := blink402.NewEvent(blink402.EventConfirmed, v.cfg.Network, ref)
	confirmed.Signature = sig.String()
	confirmed.Amount = exp.Amount
	v.emit(confirmed)
	v.log.Debug("signature confirmed", "reference", ref,
		"signature", sig.String(), "state", state.String())

	tx, err := retry.WithRetry(ctx, v.retryCfg, blink402.IsRetryable, func() (*ledger.TransactionDetail, error) {
		return v.client.Transaction(ctx, sig)
	})
	if err != nil {
		v.emitFailure(exp, sig.String(), err)
		return nil, err
	}

	amount, err := v.validator.Validate(tx, exp)
	if err != nil {
		v.emitFailure(exp, sig.String(), err)
		return nil, err
	}

	result := &blink402.VerificationResult{
		Signature: sig,
		Reference: ref,
		Amount:    amount,
		Timestamp: time.Now().UTC(),
	}
	if v.store != nil {
		if err := v.store.Put(result); err != nil {
			// The verification itself succeeded; a cache write failure only
			// costs idempotent replay, so log and carry on.
			v.log.Warn("failed to cache verification result",
				"reference", ref, "error", err)
		}
	}

	validated := blink402.NewEvent(blink402.EventValidated, v.cfg.Network, ref)
	validated.Signature = sig.String()
	validated.Amount = amount
	v.emit(validated)
	v.log.Info("payment verified", "reference", ref,
		"signature", sig.String(), "amount", amount)

	return result, nil
}

// cachedResult consults the result store, tolerating a nil store.
func (v *Verifier) cachedResult(ref string) (*blink402.VerificationResult, error) {
	if v.store == nil {
		return nil, nil
	}
	return v.store.Get(ref)
}

// boundCtx derives a context with the configured fallback timeout when the
// caller supplied none. No verification wait is ever unbounded.
func (v *Verifier) boundCtx(ctx context.Context, fallback time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, fallback)
}

func (v *Verifier) emitFailure(exp blink402.TransferExpectation, sig string, err error) {
	ev := blink402.NewEvent(blink402.EventFailure, v.cfg.Network, exp.Reference.String())
	ev.Signature = sig
	ev.Amount = exp.Amount
	ev.Err = err
	v.emit(ev)
	v.log.Warn("payment verification failed",
		"reference", exp.Reference.String(), "signature", sig, "error", err)
}
