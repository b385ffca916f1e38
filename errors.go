package blink402

import "errors"

// Sentinel errors for payment verification and settlement operations.
var (
	// ErrNotFoundYet indicates no transaction has been observed for a reference yet.
	ErrNotFoundYet = errors.New("blink402: no transaction found for reference yet")

	// ErrRPCTransient indicates a retryable RPC failure (rate limit, 5xx, network).
	ErrRPCTransient = errors.New("blink402: transient rpc failure")

	// ErrExecutionFailed indicates the ledger recorded an execution error for the
	// transaction. This is terminal: a failed on-chain transaction never becomes valid.
	ErrExecutionFailed = errors.New("blink402: transaction failed on chain")

	// ErrValidationMismatch indicates a confirmed transaction does not match the
	// expectation. Terminal; treated as a misdirected-payment signal, not a retry.
	ErrValidationMismatch = errors.New("blink402: transaction does not match expectation")

	// ErrTimeout indicates the deadline elapsed before a matching transaction was found.
	ErrTimeout = errors.New("blink402: deadline elapsed before payment was observed")

	// ErrConfiguration indicates malformed configuration, address, asset, or amount.
	// Raised before any network call is made.
	ErrConfiguration = errors.New("blink402: invalid configuration")
)

// ErrorCode classifies verification errors for programmatic handling.
type ErrorCode string

const (
	// CodeNotFoundYet means no signature exists yet; retryable while under deadline.
	CodeNotFoundYet ErrorCode = "NOT_FOUND_YET"

	// CodeRPCTransient means the RPC node failed transiently; retryable with backoff.
	CodeRPCTransient ErrorCode = "RPC_TRANSIENT"

	// CodeExecutionFailed means the transaction was found but failed on chain; terminal.
	CodeExecutionFailed ErrorCode = "EXECUTION_FAILED"

	// CodeValidationMismatch means the transaction succeeded but does not satisfy
	// the expectation; terminal.
	CodeValidationMismatch ErrorCode = "VALIDATION_MISMATCH"

	// CodeTimeout means the deadline elapsed with no signature observed.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeConfiguration means an input was malformed before any network call.
	CodeConfiguration ErrorCode = "CONFIGURATION"
)

// sentinelFor maps each code to its sentinel so errors.Is works on wrapped errors.
var sentinelFor = map[ErrorCode]error{
	CodeNotFoundYet:        ErrNotFoundYet,
	CodeRPCTransient:       ErrRPCTransient,
	CodeExecutionFailed:    ErrExecutionFailed,
	CodeValidationMismatch: ErrValidationMismatch,
	CodeTimeout:            ErrTimeout,
	CodeConfiguration:      ErrConfiguration,
}

// VerificationError is the structured error surfaced by all payment operations.
// It carries enough context (reference, expected values, signature when known)
// to drive a refund decision without re-querying the ledger.
type VerificationError struct {
	// Code is the error classification.
	Code ErrorCode

	// Message is the human-readable error message.
	Message string

	// Reference is the payment reference involved, if known.
	Reference string

	// Signature is the transaction signature involved, if known.
	Signature string

	// ExpectedAmount and ActualAmount carry diagnostics for mismatches,
	// in atomic units.
	ExpectedAmount uint64
	ActualAmount   uint64

	// Err is the underlying error.
	Err error
}

// NewVerificationError creates a VerificationError for the given code.
// The matching sentinel is woven into the error chain so callers can use
// errors.Is against the package sentinels.
func NewVerificationError(code ErrorCode, message string, err error) *VerificationError {
	if err == nil {
		err = sentinelFor[code]
	}
	return &VerificationError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error implements the error interface.
func (e *VerificationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *VerificationError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's code.
func (e *VerificationError) Is(target error) bool {
	return target == sentinelFor[e.Code]
}

// Retryable reports whether the operation may be retried.
// Only missing-signature and transient RPC conditions are retryable;
// everything else is terminal.
func (e *VerificationError) Retryable() bool {
	return e.Code == CodeNotFoundYet || e.Code == CodeRPCTransient
}

// WithReference attaches the payment reference to the error.
func (e *VerificationError) WithReference(ref string) *VerificationError {
	e.Reference = ref
	return e
}

// WithSignature attaches the transaction signature to the error.
func (e *VerificationError) WithSignature(sig string) *VerificationError {
	e.Signature = sig
	return e
}

// WithAmounts attaches expected/actual atomic amounts for mismatch diagnostics.
func (e *VerificationError) WithAmounts(expected, actual uint64) *VerificationError {
	e.ExpectedAmount = expected
	e.ActualAmount = actual
	return e
}

// IsRetryable reports whether err is a retryable verification error.
// Non-VerificationError values are considered terminal: all raw RPC errors
// are classified into the taxonomy at the ledger boundary before they
// reach callers of this function.
func IsRetryable(err error) bool {
	var verr *VerificationError
	if errors.As(err, &verr) {
		return verr.Retryable()
	}
	return false
}

// IsTransient reports whether err is a transient RPC failure.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRPCTransient)
}
