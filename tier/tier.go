// Package tier maps token holdings to discount tiers and price quotes.
//
// Tier and quote computation are total, pure functions with no I/O; the
// on-chain balance lookup that feeds them lives in BalanceSource and is a
// separate, retryable network operation.
package tier

import "fmt"

// Tier is a holder's discount tier. The enumeration is exhaustive and every
// tier has a compile-enforced discount mapping; no tier can fall through to
// an undefined benefit.
type Tier int

const (
	// TierNone means the holder qualifies for no discount.
	TierNone Tier = iota

	// TierBronze is reached at 1,000 tokens.
	TierBronze

	// TierSilver is reached at 10,000 tokens.
	TierSilver

	// TierGold is reached at 50,000 tokens.
	TierGold

	// TierDiamond is reached at 100,000 tokens.
	TierDiamond
)

// Balance thresholds in whole tokens, ascending.
const (
	BronzeThreshold  uint64 = 1_000
	SilverThreshold  uint64 = 10_000
	GoldThreshold    uint64 = 50_000
	DiamondThreshold uint64 = 100_000
)

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case TierNone:
		return "NONE"
	case TierBronze:
		return "BRONZE"
	case TierSilver:
		return "SILVER"
	case TierGold:
		return "GOLD"
	case TierDiamond:
		return "DIAMOND"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// DiscountPercent returns the tier's discount percentage. The switch is
// exhaustive over the enumeration.
func (t Tier) DiscountPercent() uint64 {
	switch t {
	case TierBronze:
		return 10
	case TierSilver:
		return 20
	case TierGold:
		return 30
	case TierDiamond:
		return 50
	default:
		return 0
	}
}

// ForBalance returns the tier for a whole-token balance. Monotonic
// non-decreasing in the balance.
func ForBalance(balance uint64) Tier {
	switch {
	case balance >= DiamondThreshold:
		return TierDiamond
	case balance >= GoldThreshold:
		return TierGold
	case balance >= SilverThreshold:
		return TierSilver
	case balance >= BronzeThreshold:
		return TierBronze
	default:
		return TierNone
	}
}

// ForAtomicBalance returns the tier for an atomic-unit balance with the
// given decimals. Fractional holdings below a whole token are truncated.
func ForAtomicBalance(atomic uint64, decimals uint8) Tier {
	divisor := uint64(1)
	for i := uint8(0); i < decimals; i++ {
		divisor *= 10
	}
	return ForBalance(atomic / divisor)
}

// Info pairs a holder's balance with its tier.
type Info struct {
	// Balance is the holding in whole tokens.
	Balance uint64 `json:"balance"`

	// Tier is the resulting discount tier.
	Tier Tier `json:"tier"`
}

// InfoForBalance computes tier info for a whole-token balance.
func InfoForBalance(balance uint64) Info {
	return Info{Balance: balance, Tier: ForBalance(balance)}
}

// Quote is a deterministic discount quote. All prices are integer atomic
// units and FinalPrice + Savings always equals BasePrice exactly.
type Quote struct {
	// BasePrice is the undiscounted price in atomic units.
	BasePrice uint64 `json:"basePrice"`

	// Tier is the tier the quote was computed for.
	Tier Tier `json:"tier"`

	// DiscountPercent is the applied percentage.
	DiscountPercent uint64 `json:"discountPercent"`

	// FinalPrice is the discounted price in atomic units.
	FinalPrice uint64 `json:"finalPrice"`

	// Savings is BasePrice - FinalPrice in atomic units.
	Savings uint64 `json:"savings"`
}

// QuoteFor computes the discount quote for a base price and tier using
// integer arithmetic only. Savings truncate toward zero, so rounding can
// only ever favor the marketplace, never the discount.
func QuoteFor(basePrice uint64, t Tier) Quote {
	percent := t.DiscountPercent()
	savings := basePrice * percent / 100
	return Quote{
		BasePrice:       basePrice,
		Tier:            t,
		DiscountPercent: percent,
		FinalPrice:      basePrice - savings,
		Savings:         savings,
	}
}
