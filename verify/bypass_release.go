//go:build !paymentbypass

package verify

import (
	blink402 "github.com/Blink402/blink402-mcp"
)

// bypassEnabled always reports false in release builds. The bypass can only
// exist in binaries compiled with the "paymentbypass" build tag, so no
// runtime configuration can disable verification in production.
func bypassEnabled(blink402.Config) bool {
	return false
}

// bypassResult is unreachable in release builds; it exists so the verifier
// compiles identically under both build tags.
func (v *Verifier) bypassResult(exp blink402.TransferExpectation) *blink402.VerificationResult {
	panic("verification bypass invoked in release build")
}
