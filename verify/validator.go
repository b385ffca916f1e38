package verify

import (
	"fmt"

	blink402 "github.com/Blink402/blink402-mcp"
	"github.com/Blink402/blink402-mcp/internal/ledger"
)

// DefaultNativeFeeTolerance is the fixed lamport tolerance applied to native
// transfers, absorbing fee and rent artifacts that shift the recipient's
// observed delta. Token transfers get no such allowance.
const DefaultNativeFeeTolerance uint64 = 10_000

// tokenRoundingTolerance is the maximum deviation accepted for SPL
// transfers, covering smallest-unit rounding only.
const tokenRoundingTolerance uint64 = 1

// Validator checks a confirmed transaction's balance deltas against a
// transfer expectation.
type Validator struct {
	nativeFeeTolerance uint64
}

// NewValidator creates a validator with the given native fee tolerance.
// Zero selects DefaultNativeFeeTolerance.
func NewValidator(nativeFeeTolerance uint64) *Validator {
	if nativeFeeTolerance == 0 {
		nativeFeeTolerance = DefaultNativeFeeTolerance
	}
	return &Validator{nativeFeeTolerance: nativeFeeTolerance}
}

// Validate confirms the transaction satisfies the expectation and returns the
// validated amount in atomic units.
//
// The reference account must appear among the transaction's account keys;
// its absence is an immediate mismatch regardless of any balance coincidence,
// so a payment for one expectation can never settle another. The recipient's
// balance delta for the expected asset is then compared to the expected
// amount: native deltas within the fee tolerance pass, token deltas must
// match to within one atomic unit, matched by owner and mint rather than raw
// account index.
func (v *Validator) Validate(tx *ledger.TransactionDetail, exp blink402.TransferExpectation) (uint64, error) {
	if tx.Failed {
		return 0, blink402.NewVerificationError(blink402.CodeExecutionFailed,
			"transaction failed on chain: "+tx.ExecutionErr, nil).
			WithReference(exp.Reference.String()).
			WithSignature(tx.Signature.String())
	}

	if !v.referencesKey(tx, exp) {
		return 0, blink402.NewVerificationError(blink402.CodeValidationMismatch,
			"transaction does not reference the payment key", nil).
			WithReference(exp.Reference.String()).
			WithSignature(tx.Signature.String()).
			WithAmounts(exp.Amount, 0)
	}

	var (
		actual   uint64
		deltaErr error
	)
	if exp.IsNative() {
		actual, deltaErr = v.nativeDelta(tx, exp)
	} else {
		actual, deltaErr = v.tokenDelta(tx, exp)
	}
	if deltaErr != nil {
		return 0, deltaErr
	}

	tolerance := tokenRoundingTolerance
	if exp.IsNative() {
		tolerance = v.nativeFeeTolerance
	}
	if diff(actual, exp.Amount) > tolerance {
		return 0, blink402.NewVerificationError(blink402.CodeValidationMismatch,
			fmt.Sprintf("transfer amount mismatch: expected %d, got %d", exp.Amount, actual), nil).
			WithReference(exp.Reference.String()).
			WithSignature(tx.Signature.String()).
			WithAmounts(exp.Amount, actual)
	}

	return actual, nil
}

// referencesKey reports whether the expectation's reference appears among the
// transaction's account keys.
func (v *Validator) referencesKey(tx *ledger.TransactionDetail, exp blink402.TransferExpectation) bool {
	refKey := exp.Reference.Key()
	for _, key := range tx.AccountKeys {
		if key.Equals(refKey) {
			return true
		}
	}
	return false
}

// nativeDelta computes the recipient's lamport balance change.
func (v *Validator) nativeDelta(tx *ledger.TransactionDetail, exp blink402.TransferExpectation) (uint64, error) {
	for i, key := range tx.AccountKeys {
		if !key.Equals(exp.Recipient) {
			continue
		}
		if i >= len(tx.PreBalances) || i >= len(tx.PostBalances) {
			break
		}
		pre, post := tx.PreBalances[i], tx.PostBalances[i]
		if post < pre {
			return 0, blink402.NewVerificationError(blink402.CodeValidationMismatch,
				"recipient balance decreased", nil).
				WithReference(exp.Reference.String()).
				WithSignature(tx.Signature.String()).
				WithAmounts(exp.Amount, 0)
		}
		return post - pre, nil
	}
	return 0, blink402.NewVerificationError(blink402.CodeValidationMismatch,
		"recipient not present in transaction", nil).
		WithReference(exp.Reference.String()).
		WithSignature(tx.Signature.String()).
		WithAmounts(exp.Amount, 0)
}

// tokenDelta computes the recipient's token balance change for the expected
// mint, matching entries by owner and mint. A missing pre entry means the
// token account was created by this transaction and counts as zero.
func (v *Validator) tokenDelta(tx *ledger.TransactionDetail, exp blink402.TransferExpectation) (uint64, error) {
	pre := sumTokenBalances(tx.PreTokenBalances, exp)
	post, found := sumTokenBalancesFound(tx.PostTokenBalances, exp)
	if !found {
		return 0, blink402.NewVerificationError(blink402.CodeValidationMismatch,
			"recipient holds no post-transaction balance for expected asset", nil).
			WithReference(exp.Reference.String()).
			WithSignature(tx.Signature.String()).
			WithAmounts(exp.Amount, 0)
	}
	if post < pre {
		return 0, blink402.NewVerificationError(blink402.CodeValidationMismatch,
			"recipient token balance decreased", nil).
			WithReference(exp.Reference.String()).
			WithSignature(tx.Signature.String()).
			WithAmounts(exp.Amount, 0)
	}
	return post - pre, nil
}

func sumTokenBalances(balances []ledger.TokenBalance, exp blink402.TransferExpectation) uint64 {
	total, _ := sumTokenBalancesFound(balances, exp)
	return total
}

func sumTokenBalancesFound(balances []ledger.TokenBalance, exp blink402.TransferExpectation) (uint64, bool) {
	var total uint64
	found := false
	for _, b := range balances {
		if b.Owner.IsZero() {
			continue
		}
		if b.Owner.Equals(exp.Recipient) && b.Mint.Equals(*exp.Mint) {
			total += b.Amount
			found = true
		}
	}
	return total, found
}

func diff(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}
