// Package ledger wraps the Solana RPC client behind a narrow, typed interface.
//
// It is the single boundary where two kinds of rawness are tolerated and
// contained: RPC errors are classified into the engine's error taxonomy
// before crossing into the rest of the system, and nullable legacy response
// fields (blockTime, memo, confirmationStatus) are normalized into defaulted,
// non-pointer values. Nothing outside this package inspects raw RPC errors
// or optional response fields.
package ledger

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"

	blink402 "github.com/Blink402/blink402-mcp"
)

// SignatureInfo is a normalized entry from the ledger's signature history
// for an address.
type SignatureInfo struct {
	// Signature identifies the transaction.
	Signature solana.Signature

	// Slot is the slot the transaction was processed in.
	Slot uint64

	// BlockTime is the estimated block time; zero when the node omitted it.
	BlockTime time.Time

	// Commitment is the confirmation status reported for the signature.
	// Entries with an omitted status are treated as processed.
	Commitment blink402.Commitment

	// Failed reports whether the ledger recorded an execution error.
	Failed bool

	// Memo is the transaction memo, empty when absent.
	Memo string
}

// SignatureStatus is the normalized commitment status for a signature.
type SignatureStatus struct {
	// Slot is the slot the transaction was processed in.
	Slot uint64

	// Commitment is the finality level the cluster reports.
	Commitment blink402.Commitment

	// ExecutionErr holds a rendered execution error, empty on success.
	ExecutionErr string
}

// TokenBalance is a normalized pre/post token balance entry.
type TokenBalance struct {
	// AccountIndex is the index into the transaction's account keys.
	AccountIndex uint16

	// Mint is the token mint.
	Mint solana.PublicKey

	// Owner is the wallet owning the token account. Legacy responses may
	// omit it; such entries carry a zero key and are skipped by matchers.
	Owner solana.PublicKey

	// Amount is the balance in atomic units.
	Amount uint64
}

// TransactionDetail is the normalized, read-only view of a fetched
// transaction: account keys plus balance deltas, which is all the validator
// needs.
type TransactionDetail struct {
	Signature solana.Signature
	Slot      uint64
	BlockTime time.Time

	// AccountKeys are all accounts referenced by the transaction message.
	AccountKeys []solana.PublicKey

	// PreBalances and PostBalances are lamport balances indexed like AccountKeys.
	PreBalances  []uint64
	PostBalances []uint64

	// PreTokenBalances and PostTokenBalances are SPL token balances.
	PreTokenBalances  []TokenBalance
	PostTokenBalances []TokenBalance

	// Failed reports whether the ledger recorded an execution error.
	Failed bool

	// ExecutionErr holds the rendered execution error, empty on success.
	ExecutionErr string
}

// Client is the read/submit surface of the ledger this engine depends on.
// Implementations must return errors already classified into the
// blink402 taxonomy. The interface is deliberately small so tests can
// substitute deterministic fakes.
type Client interface {
	// SignaturesForAddress lists recent signature history for an address,
	// newest first.
	SignaturesForAddress(ctx context.Context, address solana.PublicKey, limit int) ([]SignatureInfo, error)

	// SignatureStatus returns the commitment status for a signature,
	// searching full transaction history.
	SignatureStatus(ctx context.Context, sig solana.Signature) (*SignatureStatus, error)

	// Transaction fetches a confirmed transaction with balance metadata.
	Transaction(ctx context.Context, sig solana.Signature) (*TransactionDetail, error)

	// LatestBlockhash fetches a fresh blockhash at the given commitment.
	LatestBlockhash(ctx context.Context, commitment blink402.Commitment) (solana.Hash, error)

	// AccountExists reports whether an account exists on the ledger.
	AccountExists(ctx context.Context, account solana.PublicKey) (bool, error)

	// TokenAccountBalance returns the atomic balance and decimals of a token
	// account. A missing account is reported as balance zero.
	TokenAccountBalance(ctx context.Context, account solana.PublicKey) (uint64, uint8, error)

	// Balance returns the lamport balance of an account.
	Balance(ctx context.Context, account solana.PublicKey) (uint64, error)

	// SendTransaction submits a fully signed transaction.
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}
