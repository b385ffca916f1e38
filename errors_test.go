package blink402

import (
	"errors"
	"fmt"
	"testing"
)

func TestVerificationErrorSentinels(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		sentinel error
	}{
		{CodeNotFoundYet, ErrNotFoundYet},
		{CodeRPCTransient, ErrRPCTransient},
		{CodeExecutionFailed, ErrExecutionFailed},
		{CodeValidationMismatch, ErrValidationMismatch},
		{CodeTimeout, ErrTimeout},
		{CodeConfiguration, ErrConfiguration},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := NewVerificationError(tt.code, "boom", nil)
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("errors.Is(%s, sentinel) = false; want true", tt.code)
			}

			wrapped := fmt.Errorf("outer: %w", err)
			if !errors.Is(wrapped, tt.sentinel) {
				t.Errorf("wrapped errors.Is(%s, sentinel) = false; want true", tt.code)
			}

			var verr *VerificationError
			if !errors.As(wrapped, &verr) {
				t.Fatalf("errors.As failed for %s", tt.code)
			}
			if verr.Code != tt.code {
				t.Errorf("Code = %s; want %s", verr.Code, tt.code)
			}
		})
	}
}

func TestRetryablePartition(t *testing.T) {
	tests := []struct {
		code      ErrorCode
		retryable bool
	}{
		{CodeNotFoundYet, true},
		{CodeRPCTransient, true},
		{CodeExecutionFailed, false},
		{CodeValidationMismatch, false},
		{CodeTimeout, false},
		{CodeConfiguration, false},
	}

	for _, tt := range tests {
		err := NewVerificationError(tt.code, "x", nil)
		if got := err.Retryable(); got != tt.retryable {
			t.Errorf("%s.Retryable() = %v; want %v", tt.code, got, tt.retryable)
		}
		if got := IsRetryable(err); got != tt.retryable {
			t.Errorf("IsRetryable(%s) = %v; want %v", tt.code, got, tt.retryable)
		}
	}

	if IsRetryable(errors.New("unclassified")) {
		t.Error("unclassified errors must not be retryable")
	}
	if IsRetryable(nil) {
		t.Error("nil must not be retryable")
	}
}

func TestVerificationErrorDiagnostics(t *testing.T) {
	err := NewVerificationError(CodeValidationMismatch, "amount mismatch", nil).
		WithReference("ref123").
		WithSignature("sig456").
		WithAmounts(50000, 40000)

	if err.Reference != "ref123" {
		t.Errorf("Reference = %q; want ref123", err.Reference)
	}
	if err.Signature != "sig456" {
		t.Errorf("Signature = %q; want sig456", err.Signature)
	}
	if err.ExpectedAmount != 50000 || err.ActualAmount != 40000 {
		t.Errorf("amounts = %d/%d; want 50000/40000", err.ExpectedAmount, err.ActualAmount)
	}
}

func TestIsTransient(t *testing.T) {
	if !IsTransient(NewVerificationError(CodeRPCTransient, "x", nil)) {
		t.Error("RPC_TRANSIENT must be transient")
	}
	if IsTransient(NewVerificationError(CodeNotFoundYet, "x", nil)) {
		t.Error("NOT_FOUND_YET must not be transient")
	}
}
