package tier

import (
	"context"
	"log/slog"

	"github.com/gagliardetto/solana-go"

	blink402 "github.com/Blink402/blink402-mcp"
	"github.com/Blink402/blink402-mcp/internal/ledger"
	"github.com/Blink402/blink402-mcp/retry"
)

// BalanceSource reads a holder's on-chain token balance and derives tier
// info from it. Lookups are retryable network operations; the tier math
// itself stays pure.
type BalanceSource struct {
	client   ledger.Client
	mint     solana.PublicKey
	decimals uint8
	retryCfg retry.Config
	log      *slog.Logger
}

// NewBalanceSource creates a balance source for the marketplace token mint.
func NewBalanceSource(client ledger.Client, mint solana.PublicKey, decimals uint8, log *slog.Logger) *BalanceSource {
	if log == nil {
		log = slog.Default()
	}
	return &BalanceSource{
		client:   client,
		mint:     mint,
		decimals: decimals,
		retryCfg: retry.DefaultConfig,
		log:      log,
	}
}

// InfoFor fetches the holder's balance and returns its tier info. A holder
// without a token account has a zero balance and TierNone.
func (s *BalanceSource) InfoFor(ctx context.Context, holder solana.PublicKey) (Info, error) {
	if holder.IsZero() {
		return Info{}, blink402.NewVerificationError(blink402.CodeConfiguration,
			"holder address is empty", nil)
	}

	ata, _, err := solana.FindAssociatedTokenAddress(holder, s.mint)
	if err != nil {
		return Info{}, blink402.NewVerificationError(blink402.CodeConfiguration,
			"derive token account for "+holder.String(), err)
	}

	type balance struct {
		atomic   uint64
		decimals uint8
	}
	b, err := retry.WithRetry(ctx, s.retryCfg, blink402.IsTransient, func() (balance, error) {
		exists, err := s.client.AccountExists(ctx, ata)
		if err != nil {
			return balance{}, err
		}
		if !exists {
			return balance{decimals: s.decimals}, nil
		}
		atomic, decimals, err := s.client.TokenAccountBalance(ctx, ata)
		if err != nil {
			return balance{}, err
		}
		return balance{atomic: atomic, decimals: decimals}, nil
	})
	if err != nil {
		return Info{}, err
	}

	decimals := b.decimals
	if decimals == 0 {
		decimals = s.decimals
	}
	divisor := uint64(1)
	for i := uint8(0); i < decimals; i++ {
		divisor *= 10
	}
	whole := b.atomic / divisor

	info := InfoForBalance(whole)
	s.log.Debug("tier lookup", "holder", holder.String(),
		"balance", whole, "tier", info.Tier.String())
	return info, nil
}

// QuoteFor fetches the holder's tier and quotes the discounted price for a
// base price in atomic units.
func (s *BalanceSource) QuoteFor(ctx context.Context, holder solana.PublicKey, basePrice uint64) (Quote, error) {
	info, err := s.InfoFor(ctx, holder)
	if err != nil {
		return Quote{}, err
	}
	return QuoteFor(basePrice, info.Tier), nil
}
