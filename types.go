// Package blink402 holds the core types of the Blink402 payment verification
// and settlement engine: transfer expectations, verification results, ledger
// commitment levels, and the error taxonomy shared by every subpackage.
//
// Amounts are always integers in the asset's smallest unit (lamports for
// native SOL, token atomic units for SPL assets). Floating point is never
// used for financial comparisons.
package blink402

import (
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Commitment is a ledger finality level: processed < confirmed < finalized.
type Commitment int

const (
	// CommitmentProcessed means the transaction was processed by a single node.
	CommitmentProcessed Commitment = iota

	// CommitmentConfirmed means a supermajority of the cluster voted on the block.
	CommitmentConfirmed

	// CommitmentFinalized means the block is rooted and cannot be rolled back.
	CommitmentFinalized
)

// ParseCommitment parses a target commitment level ("confirmed" or
// "finalized"). Processed is too weak to verify payments against and is
// rejected; it exists only as an observed status on in-flight signatures.
func ParseCommitment(s string) (Commitment, error) {
	switch s {
	case "confirmed":
		return CommitmentConfirmed, nil
	case "finalized":
		return CommitmentFinalized, nil
	default:
		return 0, NewVerificationError(CodeConfiguration,
			fmt.Sprintf("unsupported commitment level %q (use confirmed or finalized)", s), nil)
	}
}

// String returns the ledger-facing name of the commitment level.
func (c Commitment) String() string {
	switch c {
	case CommitmentProcessed:
		return "processed"
	case CommitmentConfirmed:
		return "confirmed"
	case CommitmentFinalized:
		return "finalized"
	default:
		return fmt.Sprintf("commitment(%d)", int(c))
	}
}

// AtLeast reports whether c satisfies the target commitment level.
func (c Commitment) AtLeast(target Commitment) bool {
	return c >= target
}

// ToRPC converts the commitment to its RPC representation.
func (c Commitment) ToRPC() rpc.CommitmentType {
	switch c {
	case CommitmentProcessed:
		return rpc.CommitmentProcessed
	case CommitmentFinalized:
		return rpc.CommitmentFinalized
	default:
		return rpc.CommitmentConfirmed
	}
}

// CommitmentFromStatus converts an RPC confirmation status string into a
// Commitment. Unknown or empty statuses map to processed, the weakest level.
func CommitmentFromStatus(status rpc.ConfirmationStatusType) Commitment {
	switch status {
	case rpc.ConfirmationStatusFinalized:
		return CommitmentFinalized
	case rpc.ConfirmationStatusConfirmed:
		return CommitmentConfirmed
	default:
		return CommitmentProcessed
	}
}

// TransferExpectation describes the exact transfer a caller is waiting for:
// recipient, amount in atomic units, asset, and the single-use reference that
// correlates the on-chain transaction with this expectation.
type TransferExpectation struct {
	// Recipient is the wallet that must receive the transfer.
	Recipient solana.PublicKey

	// Amount is the expected transfer amount in atomic units.
	Amount uint64

	// Mint is the SPL token mint of the asset. Nil means native SOL.
	Mint *solana.PublicKey

	// Reference is the single-use correlation key embedded in the transaction.
	Reference PaymentReference
}

// Validate checks the expectation before any network call is made.
func (e TransferExpectation) Validate() error {
	if e.Recipient.IsZero() {
		return NewVerificationError(CodeConfiguration, "expectation recipient is empty", nil)
	}
	if e.Amount == 0 {
		return NewVerificationError(CodeConfiguration, "expectation amount must be positive", nil)
	}
	if e.Mint != nil && e.Mint.IsZero() {
		return NewVerificationError(CodeConfiguration, "expectation mint is empty", nil)
	}
	if e.Reference.IsZero() {
		return NewVerificationError(CodeConfiguration, "expectation reference is empty", nil)
	}
	return nil
}

// IsNative reports whether the expected asset is native SOL.
func (e TransferExpectation) IsNative() bool {
	return e.Mint == nil
}

// TransactionRecord is the read-only view of a ledger transaction as this
// engine observes it. The ledger owns the record; this core only reads it.
type TransactionRecord struct {
	// Signature identifies the transaction.
	Signature solana.Signature

	// Slot is the slot the transaction landed in.
	Slot uint64

	// BlockTime is the estimated production time of the block, if known.
	BlockTime time.Time

	// Commitment is the finality level the ledger reported for the signature.
	Commitment Commitment

	// ExecutionErr holds the ledger's execution error, empty on success.
	ExecutionErr string
}

// Failed reports whether the ledger recorded an execution error.
func (r TransactionRecord) Failed() bool {
	return r.ExecutionErr != ""
}

// VerificationResult is the terminal artifact of a successful verification.
// It is immutable once issued and safe to cache by reference for idempotent
// re-queries.
type VerificationResult struct {
	// Signature is the transaction that satisfied the expectation.
	Signature solana.Signature `json:"signature"`

	// Reference is the base58 payment reference the transaction matched.
	Reference string `json:"reference"`

	// Amount is the validated transfer amount in atomic units.
	Amount uint64 `json:"amount"`

	// Timestamp is when verification completed.
	Timestamp time.Time `json:"timestamp"`
}
