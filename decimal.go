package blink402

import "math/big"

// AtomicFromDecimal converts a decimal amount string to atomic units.
// For example, "0.05" with 6 decimals becomes 50000.
// Returns ErrConfiguration if the amount is negative, malformed, or does not
// fit the asset's decimal precision.
func AtomicFromDecimal(amount string, decimals uint8) (uint64, error) {
	value := new(big.Rat)
	if _, ok := value.SetString(amount); !ok {
		return 0, NewVerificationError(CodeConfiguration, "invalid amount "+amount, nil)
	}
	if value.Sign() < 0 {
		return 0, NewVerificationError(CodeConfiguration, "amount cannot be negative: "+amount, nil)
	}

	scale := new(big.Rat).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	value.Mul(value, scale)

	if value.Denom().Cmp(big.NewInt(1)) != 0 {
		return 0, NewVerificationError(CodeConfiguration,
			"amount "+amount+" exceeds asset precision", nil)
	}
	if !value.Num().IsUint64() {
		return 0, NewVerificationError(CodeConfiguration, "amount "+amount+" overflows", nil)
	}
	return value.Num().Uint64(), nil
}

// DecimalFromAtomic converts atomic units to a decimal string.
// For example, 50000 with 6 decimals becomes "0.050000".
func DecimalFromAtomic(value uint64, decimals uint8) string {
	rat := new(big.Rat).SetInt(new(big.Int).SetUint64(value))
	scale := new(big.Rat).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	rat.Quo(rat, scale)
	return rat.FloatString(int(decimals))
}
