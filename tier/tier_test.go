package tier

import "testing"

func TestForBalanceThresholds(t *testing.T) {
	tests := []struct {
		balance uint64
		want    Tier
	}{
		{0, TierNone},
		{999, TierNone},
		{1000, TierBronze},
		{9999, TierBronze},
		{10000, TierSilver},
		{15000, TierSilver},
		{49999, TierSilver},
		{50000, TierGold},
		{99999, TierGold},
		{100000, TierDiamond},
		{5000000, TierDiamond},
	}

	for _, tt := range tests {
		if got := ForBalance(tt.balance); got != tt.want {
			t.Errorf("ForBalance(%d) = %s; want %s", tt.balance, got, tt.want)
		}
	}
}

func TestForBalanceMonotonic(t *testing.T) {
	prev := ForBalance(0)
	for balance := uint64(0); balance <= 200_000; balance += 37 {
		got := ForBalance(balance)
		if got < prev {
			t.Fatalf("ForBalance(%d) = %s decreased from %s", balance, got, prev)
		}
		prev = got
	}
}

func TestForAtomicBalance(t *testing.T) {
	// 15,000 tokens at 6 decimals.
	if got := ForAtomicBalance(15_000_000_000, 6); got != TierSilver {
		t.Errorf("ForAtomicBalance(15000e6, 6) = %s; want SILVER", got)
	}
	// 999.999999 tokens truncates below the bronze threshold.
	if got := ForAtomicBalance(999_999_999, 6); got != TierNone {
		t.Errorf("ForAtomicBalance(999999999, 6) = %s; want NONE", got)
	}
}

func TestDiscountPercentTotal(t *testing.T) {
	want := map[Tier]uint64{
		TierNone:    0,
		TierBronze:  10,
		TierSilver:  20,
		TierGold:    30,
		TierDiamond: 50,
	}
	for tier, percent := range want {
		if got := tier.DiscountPercent(); got != percent {
			t.Errorf("%s.DiscountPercent() = %d; want %d", tier, got, percent)
		}
	}
}

func TestQuoteForExactness(t *testing.T) {
	tests := []struct {
		name      string
		basePrice uint64
		tier      Tier
		wantFinal uint64
		wantSave  uint64
	}{
		// 0.05 USDC base price at 6 decimals: silver takes it to 0.04.
		{"silver on 50000", 50_000, TierSilver, 40_000, 10_000},
		{"none on 50000", 50_000, TierNone, 50_000, 0},
		{"diamond on 1000000", 1_000_000, TierDiamond, 500_000, 500_000},
		{"bronze truncates", 55, TierBronze, 50, 5},
		{"gold on odd price", 101, TierGold, 71, 30},
		{"zero base", 0, TierDiamond, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := QuoteFor(tt.basePrice, tt.tier)
			if q.FinalPrice != tt.wantFinal {
				t.Errorf("FinalPrice = %d; want %d", q.FinalPrice, tt.wantFinal)
			}
			if q.Savings != tt.wantSave {
				t.Errorf("Savings = %d; want %d", q.Savings, tt.wantSave)
			}
			if q.FinalPrice+q.Savings != tt.basePrice {
				t.Errorf("FinalPrice + Savings = %d; want %d", q.FinalPrice+q.Savings, tt.basePrice)
			}
		})
	}
}

func TestQuoteSumInvariant(t *testing.T) {
	tiers := []Tier{TierNone, TierBronze, TierSilver, TierGold, TierDiamond}
	for base := uint64(0); base < 1000; base += 7 {
		for _, tier := range tiers {
			q := QuoteFor(base, tier)
			if q.FinalPrice+q.Savings != base {
				t.Fatalf("QuoteFor(%d, %s): final %d + savings %d != base %d",
					base, tier, q.FinalPrice, q.Savings, base)
			}
		}
	}
}

func TestInfoForBalance(t *testing.T) {
	info := InfoForBalance(15_000)
	if info.Tier != TierSilver {
		t.Errorf("Tier = %s; want SILVER", info.Tier)
	}
	if info.Balance != 15_000 {
		t.Errorf("Balance = %d; want 15000", info.Balance)
	}
}
