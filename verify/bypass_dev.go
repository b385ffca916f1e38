//go:build paymentbypass

package verify

import (
	"time"

	blink402 "github.com/Blink402/blink402-mcp"
)

// bypassEnabled honors Config.SkipVerification. This file is only compiled
// under the "paymentbypass" build tag; release artifacts use
// bypass_release.go, which compiles the bypass path out entirely.
func bypassEnabled(cfg blink402.Config) bool {
	return cfg.SkipVerification
}

// bypassResult fabricates a successful result for local development against
// wallets that cannot sign.
func (v *Verifier) bypassResult(exp blink402.TransferExpectation) *blink402.VerificationResult {
	v.log.Warn("PAYMENT VERIFICATION BYPASSED - development build only",
		"reference", exp.Reference.String(), "amount", exp.Amount)
	return &blink402.VerificationResult{
		Reference: exp.Reference.String(),
		Amount:    exp.Amount,
		Timestamp: time.Now().UTC(),
	}
}
