package tier

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"

	blink402 "github.com/Blink402/blink402-mcp"
	"github.com/Blink402/blink402-mcp/internal/ledger"
)

// fakeClient implements ledger.Client with the two calls balance lookups use.
type fakeClient struct {
	exists   bool
	atomic   uint64
	decimals uint8
	err      error
	calls    int
}

func (f *fakeClient) AccountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	f.calls++
	if f.err != nil {
		err := f.err
		f.err = nil
		return false, err
	}
	return f.exists, nil
}

func (f *fakeClient) TokenAccountBalance(ctx context.Context, account solana.PublicKey) (uint64, uint8, error) {
	return f.atomic, f.decimals, nil
}

func (f *fakeClient) SignaturesForAddress(ctx context.Context, address solana.PublicKey, limit int) ([]ledger.SignatureInfo, error) {
	return nil, errors.New("not wired")
}

func (f *fakeClient) SignatureStatus(ctx context.Context, sig solana.Signature) (*ledger.SignatureStatus, error) {
	return nil, errors.New("not wired")
}

func (f *fakeClient) Transaction(ctx context.Context, sig solana.Signature) (*ledger.TransactionDetail, error) {
	return nil, errors.New("not wired")
}

func (f *fakeClient) LatestBlockhash(ctx context.Context, commitment blink402.Commitment) (solana.Hash, error) {
	return solana.Hash{}, errors.New("not wired")
}

func (f *fakeClient) Balance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	return 0, errors.New("not wired")
}

func (f *fakeClient) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	return solana.Signature{}, errors.New("not wired")
}

func testSource(client *fakeClient) *BalanceSource {
	return NewBalanceSource(client, blink402.DevnetConfig.USDCMint, 6, nil)
}

func TestInfoForDerivesTierFromBalance(t *testing.T) {
	// 10_000 whole tokens at 6 decimals.
	client := &fakeClient{exists: true, atomic: 10_000_000_000, decimals: 6}

	info, err := testSource(client).InfoFor(context.Background(), blink402.MustNewReference().Key())
	if err != nil {
		t.Fatalf("InfoFor() error = %v", err)
	}
	if info.Tier != TierSilver {
		t.Errorf("Tier = %s; want SILVER", info.Tier)
	}
	if info.Balance != 10_000 {
		t.Errorf("Balance = %d; want 10000 whole tokens", info.Balance)
	}
}

func TestInfoForMissingAccountIsTierNone(t *testing.T) {
	client := &fakeClient{exists: false}

	info, err := testSource(client).InfoFor(context.Background(), blink402.MustNewReference().Key())
	if err != nil {
		t.Fatalf("InfoFor() error = %v", err)
	}
	if info.Tier != TierNone {
		t.Errorf("Tier = %s; want NONE for a holder without a token account", info.Tier)
	}
	if info.Balance != 0 {
		t.Errorf("Balance = %d; want 0", info.Balance)
	}
}

func TestInfoForRetriesTransientFailure(t *testing.T) {
	client := &fakeClient{
		exists:   true,
		atomic:   100_000_000_000, // 100_000 whole tokens
		decimals: 6,
		err:      blink402.NewVerificationError(blink402.CodeRPCTransient, "node lagging", nil),
	}

	info, err := testSource(client).InfoFor(context.Background(), blink402.MustNewReference().Key())
	if err != nil {
		t.Fatalf("InfoFor() error = %v; one transient failure must be absorbed", err)
	}
	if info.Tier != TierDiamond {
		t.Errorf("Tier = %s; want DIAMOND", info.Tier)
	}
	if client.calls != 2 {
		t.Errorf("AccountExists calls = %d; want 2", client.calls)
	}
}

func TestInfoForRejectsEmptyHolder(t *testing.T) {
	_, err := testSource(&fakeClient{}).InfoFor(context.Background(), solana.PublicKey{})
	if !errors.Is(err, blink402.ErrConfiguration) {
		t.Fatalf("InfoFor() error = %v; want configuration error", err)
	}
}

func TestQuoteForAppliesFetchedTier(t *testing.T) {
	// 1_000 whole tokens: BRONZE, 10 percent off.
	client := &fakeClient{exists: true, atomic: 1_000_000_000, decimals: 6}

	quote, err := testSource(client).QuoteFor(context.Background(), blink402.MustNewReference().Key(), 50_000)
	if err != nil {
		t.Fatalf("QuoteFor() error = %v", err)
	}
	if quote.Tier != TierBronze {
		t.Errorf("Tier = %s; want BRONZE", quote.Tier)
	}
	if quote.FinalPrice != 45_000 || quote.Savings != 5_000 {
		t.Errorf("quote = %d final / %d savings; want 45000/5000", quote.FinalPrice, quote.Savings)
	}
}
