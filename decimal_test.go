package blink402

import (
	"errors"
	"testing"
)

func TestAtomicFromDecimal(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		decimals uint8
		want     uint64
		wantErr  bool
	}{
		{"nickel in usdc", "0.05", 6, 50_000, false},
		{"whole token", "1", 6, 1_000_000, false},
		{"fraction", "1.5", 6, 1_500_000, false},
		{"zero", "0", 6, 0, false},
		{"nine decimals", "0.000000001", 9, 1, false},
		{"too precise", "0.0000001", 6, 0, true},
		{"negative", "-1", 6, 0, true},
		{"garbage", "one", 6, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AtomicFromDecimal(tt.amount, tt.decimals)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, ErrConfiguration) {
					t.Fatalf("error = %v; want configuration error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("AtomicFromDecimal(%q, %d) = %d; want %d", tt.amount, tt.decimals, got, tt.want)
			}
		})
	}
}

func TestDecimalFromAtomic(t *testing.T) {
	tests := []struct {
		value    uint64
		decimals uint8
		want     string
	}{
		{50_000, 6, "0.050000"},
		{40_000, 6, "0.040000"},
		{1_500_000, 6, "1.500000"},
		{0, 6, "0.000000"},
		{42, 0, "42"},
	}

	for _, tt := range tests {
		if got := DecimalFromAtomic(tt.value, tt.decimals); got != tt.want {
			t.Errorf("DecimalFromAtomic(%d, %d) = %q; want %q", tt.value, tt.decimals, got, tt.want)
		}
	}
}

func TestDecimalRoundTrip(t *testing.T) {
	for _, atomic := range []uint64{0, 1, 999, 50_000, 1_000_000, 123_456_789} {
		s := DecimalFromAtomic(atomic, 6)
		back, err := AtomicFromDecimal(s, 6)
		if err != nil {
			t.Fatalf("round trip of %d failed: %v", atomic, err)
		}
		if back != atomic {
			t.Errorf("round trip of %d produced %d", atomic, back)
		}
	}
}
