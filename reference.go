package blink402

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// PaymentReference is a single-use, globally unique correlation key. It is a
// freshly generated ed25519 public key so it can be attached to a transaction
// as a read-only, non-signing account and later located through signature
// history for that address.
//
// A reference is created once per expected payment and consumed at most once.
// After a match it must never be reused for a new expectation. The engine
// holds no persistence for references; the caller stores the mapping to its
// own order or run record.
type PaymentReference struct {
	key solana.PublicKey
}

// NewReference generates a cryptographically random payment reference.
// The key carries 256 bits of entropy, so collisions are negligible.
func NewReference() (PaymentReference, error) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return PaymentReference{}, fmt.Errorf("generate reference key: %w", err)
	}
	return PaymentReference{key: solana.PublicKeyFromBytes(pub)}, nil
}

// MustNewReference is like NewReference but panics on entropy failure.
// Useful in tests and one-shot tooling.
func MustNewReference() PaymentReference {
	ref, err := NewReference()
	if err != nil {
		panic(err)
	}
	return ref
}

// ReferenceFromBase58 parses a previously issued reference from its base58 form.
func ReferenceFromBase58(s string) (PaymentReference, error) {
	key, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return PaymentReference{}, NewVerificationError(CodeConfiguration,
			fmt.Sprintf("invalid reference %q", s), err)
	}
	return PaymentReference{key: key}, nil
}

// ReferenceFromKey wraps an existing public key as a payment reference.
func ReferenceFromKey(key solana.PublicKey) PaymentReference {
	return PaymentReference{key: key}
}

// Key returns the reference as a ledger public key.
func (r PaymentReference) Key() solana.PublicKey {
	return r.key
}

// IsZero reports whether the reference is unset.
func (r PaymentReference) IsZero() bool {
	return r.key.IsZero()
}

// String returns the base58 form of the reference.
func (r PaymentReference) String() string {
	return r.key.String()
}
