package txbuild

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gagliardetto/solana-go"

	blink402 "github.com/Blink402/blink402-mcp"
	"github.com/Blink402/blink402-mcp/internal/ledger"
	"github.com/Blink402/blink402-mcp/retry"
)

// Sender signs and submits reward/refund templates.
//
// Broadcasts from the same fee payer are serialized through a per-signer
// lock: interleaved blockhash binding and sequencing from one identity can
// otherwise produce conflicting or duplicate transfers. Reads elsewhere in
// the engine need no such exclusion; only broadcasting from a shared signing
// identity does.
type Sender struct {
	client   ledger.Client
	retryCfg retry.Config
	log      *slog.Logger

	mu    sync.Mutex
	locks map[solana.PublicKey]*sync.Mutex
}

// NewSender creates a sender over the shared ledger client.
func NewSender(client ledger.Client, log *slog.Logger) *Sender {
	if log == nil {
		log = slog.Default()
	}
	return &Sender{
		client:   client,
		retryCfg: retry.DefaultConfig,
		log:      log,
		locks:    make(map[solana.PublicKey]*sync.Mutex),
	}
}

// signerLock returns the mutex serializing broadcasts for a fee payer.
func (s *Sender) signerLock(feePayer solana.PublicKey) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[feePayer]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[feePayer] = lock
	}
	return lock
}

// SignAndSend signs the template with the provided keys and submits it.
// All required signers, including the fee payer, must be covered by keys.
// Transient submission failures are retried with backoff; deterministic
// failures (preflight rejection, insufficient funds) are not.
func (s *Sender) SignAndSend(ctx context.Context, tmpl *Template, keys ...solana.PrivateKey) (solana.Signature, error) {
	if tmpl == nil || tmpl.Tx == nil {
		return solana.Signature{}, blink402.NewVerificationError(blink402.CodeConfiguration,
			"nil template", nil)
	}

	keyByPub := make(map[solana.PublicKey]*solana.PrivateKey, len(keys))
	for i := range keys {
		keyByPub[keys[i].PublicKey()] = &keys[i]
	}

	lock := s.signerLock(tmpl.FeePayer)
	lock.Lock()
	defer lock.Unlock()

	if _, err := tmpl.Tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		return keyByPub[key]
	}); err != nil {
		return solana.Signature{}, fmt.Errorf("sign %s transaction: %w", tmpl.Kind, err)
	}

	sig, err := retry.WithRetry(ctx, s.retryCfg, blink402.IsTransient, func() (solana.Signature, error) {
		return s.client.SendTransaction(ctx, tmpl.Tx)
	})
	if err != nil {
		return solana.Signature{}, err
	}

	s.log.Info("transaction submitted",
		"kind", string(tmpl.Kind), "signature", sig.String(),
		"fee_payer", tmpl.FeePayer.String())
	return sig, nil
}
