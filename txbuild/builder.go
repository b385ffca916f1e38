package txbuild

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"

	blink402 "github.com/Blink402/blink402-mcp"
	"github.com/Blink402/blink402-mcp/internal/ledger"
	"github.com/Blink402/blink402-mcp/retry"
)

// TemplateKind identifies the flow a template serves.
type TemplateKind string

const (
	// KindPayment is a user-pays-service transfer.
	KindPayment TemplateKind = "payment"

	// KindReward is a service-pays-counterparty transfer.
	KindReward TemplateKind = "reward"

	// KindRefund is a platform-pays-counterparty transfer tagged with the
	// original payment reference.
	KindRefund TemplateKind = "refund"
)

// Template is an unsigned, ordered instruction sequence with a designated
// fee payer. A template binds a freshly fetched blockhash at build time and
// is only valid within the ledger's blockhash-expiry window; after expiry it
// must be rebuilt, never reused.
type Template struct {
	// Kind identifies the flow the template serves.
	Kind TemplateKind

	// Instructions is the ordered instruction sequence.
	Instructions []solana.Instruction

	// FeePayer is the identity that pays network fees.
	FeePayer solana.PublicKey

	// Blockhash is the recent blockhash bound at build time.
	Blockhash solana.Hash

	// BuiltAt is when the template was constructed.
	BuiltAt time.Time

	// Tx is the compiled unsigned transaction.
	Tx *solana.Transaction
}

// Builder constructs unsigned transaction templates. It shares the process's
// single ledger client; it never holds keys.
type Builder struct {
	client           ledger.Client
	netcfg           blink402.NetworkConfig
	commitment       blink402.Commitment
	computeUnitPrice uint64
	retryCfg         retry.Config
	log              *slog.Logger
}

// NewBuilder creates a template builder from the engine configuration.
func NewBuilder(client ledger.Client, cfg blink402.Config) (*Builder, error) {
	netcfg, err := cfg.NetworkConfig()
	if err != nil {
		return nil, err
	}
	return &Builder{
		client:           client,
		netcfg:           netcfg,
		commitment:       cfg.Commitment,
		computeUnitPrice: DefaultComputeUnitPrice,
		retryCfg:         retry.DefaultConfig,
		log:              cfg.Log(),
	}, nil
}

// PaymentParams describe a user-pays-service transfer.
type PaymentParams struct {
	// Sender is the paying wallet.
	Sender solana.PublicKey

	// Recipient is the service wallet receiving the payment.
	Recipient solana.PublicKey

	// FeePayer pays network fees. It must be distinct from Sender.
	FeePayer solana.PublicKey

	// Amount is the transfer amount in atomic units.
	Amount uint64

	// Mint is the SPL asset. Nil means native SOL.
	Mint *solana.PublicKey

	// Decimals is the asset's decimal count. Resolved automatically for the
	// network's USDC mint.
	Decimals uint8

	// Reference is the single-use correlation key tagged onto the transfer.
	Reference blink402.PaymentReference
}

// RewardParams describe a service-pays-counterparty transfer.
type RewardParams struct {
	// Service is the service identity: both signer and fee payer.
	Service solana.PublicKey

	// Recipient is the counterparty wallet.
	Recipient solana.PublicKey

	// Amount is the transfer amount in atomic units.
	Amount uint64

	// Mint is the SPL asset. Nil means native SOL.
	Mint *solana.PublicKey

	// Decimals is the asset's decimal count.
	Decimals uint8

	// Memo is an optional human-readable tag included on chain.
	Memo string
}

// RefundParams describe a platform-pays-counterparty refund. Structurally a
// reward, but drawn from the platform-held balance and tagged with the
// original payment reference for auditability.
type RefundParams struct {
	// Platform is the platform identity: both signer and fee payer.
	Platform solana.PublicKey

	// Recipient is the counterparty being made whole.
	Recipient solana.PublicKey

	// Amount is the refund amount in atomic units.
	Amount uint64

	// Mint is the SPL asset. Nil means native SOL.
	Mint *solana.PublicKey

	// Decimals is the asset's decimal count.
	Decimals uint8

	// Reference is the original payment reference being refunded.
	Reference blink402.PaymentReference
}

// Payment builds a user-pays-service template.
//
// The template always carries exactly three instructions in fixed order:
// set-compute-limit, set-compute-price, transfer. The settlement facilitator
// matches this structure exactly, and a sender who is also fee payer trips
// wallet software into injecting extra protective instructions that break
// the match, so fee payer and sender must differ. Missing token accounts on
// either side fail the build rather than producing a template that would
// fail on submission.
func (b *Builder) Payment(ctx context.Context, p PaymentParams) (*Template, error) {
	if p.Sender.IsZero() || p.Recipient.IsZero() || p.FeePayer.IsZero() {
		return nil, blink402.NewVerificationError(blink402.CodeConfiguration,
			"payment template requires sender, recipient, and fee payer", nil)
	}
	if p.Amount == 0 {
		return nil, blink402.NewVerificationError(blink402.CodeConfiguration,
			"payment amount must be positive", nil)
	}
	if p.FeePayer.Equals(p.Sender) {
		return nil, blink402.NewVerificationError(blink402.CodeConfiguration,
			"fee payer must be distinct from sender", nil)
	}
	if p.Reference.IsZero() {
		return nil, blink402.NewVerificationError(blink402.CodeConfiguration,
			"payment template requires a reference", nil)
	}

	var transfer solana.Instruction
	if p.Mint == nil {
		transfer = nativeTransfer(p.Sender, p.Recipient, p.Amount)
	} else {
		decimals := b.resolveDecimals(p.Mint, p.Decimals)

		sourceATA, err := associatedTokenAddress(p.Sender, *p.Mint)
		if err != nil {
			return nil, err
		}
		destATA, err := associatedTokenAddress(p.Recipient, *p.Mint)
		if err != nil {
			return nil, err
		}
		if err := b.requireAccount(ctx, sourceATA, "sender token account"); err != nil {
			return nil, err
		}
		if err := b.requireAccount(ctx, destATA, "recipient token account"); err != nil {
			return nil, err
		}

		transfer = transferChecked(sourceATA, *p.Mint, destATA, p.Sender, p.Amount, decimals)
	}

	tagged, err := withReference(transfer, p.Reference)
	if err != nil {
		return nil, err
	}

	instructions := []solana.Instruction{
		setComputeUnitLimit(PaymentComputeUnits),
		setComputeUnitPrice(b.computeUnitPrice),
		tagged,
	}

	return b.compile(ctx, KindPayment, instructions, p.FeePayer)
}

// Reward builds a service-pays-counterparty template. The service identity
// signs and pays fees; the counterparty's token account is created
// idempotently when absent, and the compute budget is sized to cover
// worst-case creation plus transfer plus memo.
func (b *Builder) Reward(ctx context.Context, p RewardParams) (*Template, error) {
	if p.Service.IsZero() || p.Recipient.IsZero() {
		return nil, blink402.NewVerificationError(blink402.CodeConfiguration,
			"reward template requires service and recipient", nil)
	}
	if p.Amount == 0 {
		return nil, blink402.NewVerificationError(blink402.CodeConfiguration,
			"reward amount must be positive", nil)
	}

	instructions, err := b.payoutInstructions(p.Service, p.Recipient, p.Amount, p.Mint, p.Decimals, p.Memo, blink402.PaymentReference{})
	if err != nil {
		return nil, err
	}
	return b.compile(ctx, KindReward, instructions, p.Service)
}

// Refund builds a platform-pays-counterparty template tagged with the
// original payment reference.
func (b *Builder) Refund(ctx context.Context, p RefundParams) (*Template, error) {
	if p.Platform.IsZero() || p.Recipient.IsZero() {
		return nil, blink402.NewVerificationError(blink402.CodeConfiguration,
			"refund template requires platform and recipient", nil)
	}
	if p.Amount == 0 {
		return nil, blink402.NewVerificationError(blink402.CodeConfiguration,
			"refund amount must be positive", nil)
	}
	if p.Reference.IsZero() {
		return nil, blink402.NewVerificationError(blink402.CodeConfiguration,
			"refund template requires the original payment reference", nil)
	}

	memo := "blink402 refund " + p.Reference.String()
	instructions, err := b.payoutInstructions(p.Platform, p.Recipient, p.Amount, p.Mint, p.Decimals, memo, p.Reference)
	if err != nil {
		return nil, err
	}
	return b.compile(ctx, KindRefund, instructions, p.Platform)
}

// payoutInstructions assembles the shared reward/refund instruction sequence:
// compute budget, idempotent account creation, transfer (reference-tagged for
// refunds), optional memo.
func (b *Builder) payoutInstructions(payer, recipient solana.PublicKey, amount uint64, mint *solana.PublicKey, decimals uint8, memo string, ref blink402.PaymentReference) ([]solana.Instruction, error) {
	instructions := []solana.Instruction{
		setComputeUnitLimit(RewardComputeUnits),
		setComputeUnitPrice(b.computeUnitPrice),
	}

	var transfer solana.Instruction
	if mint == nil {
		transfer = nativeTransfer(payer, recipient, amount)
	} else {
		createATA, err := createIdempotentATA(payer, recipient, *mint)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, createATA)

		sourceATA, err := associatedTokenAddress(payer, *mint)
		if err != nil {
			return nil, err
		}
		destATA, err := associatedTokenAddress(recipient, *mint)
		if err != nil {
			return nil, err
		}
		transfer = transferChecked(sourceATA, *mint, destATA, payer, amount, b.resolveDecimals(mint, decimals))
	}

	if !ref.IsZero() {
		tagged, err := withReference(transfer, ref)
		if err != nil {
			return nil, err
		}
		transfer = tagged
	}
	instructions = append(instructions, transfer)

	if memo != "" {
		instructions = append(instructions, memoInstruction(memo, payer))
	}
	return instructions, nil
}

// compile fetches a fresh blockhash and assembles the unsigned transaction.
func (b *Builder) compile(ctx context.Context, kind TemplateKind, instructions []solana.Instruction, feePayer solana.PublicKey) (*Template, error) {
	blockhash, err := retry.WithRetry(ctx, b.retryCfg, blink402.IsTransient, func() (solana.Hash, error) {
		return b.client.LatestBlockhash(ctx, b.commitment)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(feePayer))
	if err != nil {
		return nil, fmt.Errorf("assemble %s transaction: %w", kind, err)
	}

	b.log.Debug("built transaction template",
		"kind", string(kind), "fee_payer", feePayer.String(),
		"instructions", len(instructions))

	return &Template{
		Kind:         kind,
		Instructions: instructions,
		FeePayer:     feePayer,
		Blockhash:    blockhash,
		BuiltAt:      time.Now().UTC(),
		Tx:           tx,
	}, nil
}

// requireAccount fails the build when an account the template depends on
// does not exist.
func (b *Builder) requireAccount(ctx context.Context, account solana.PublicKey, what string) error {
	exists, err := retry.WithRetry(ctx, b.retryCfg, blink402.IsTransient, func() (bool, error) {
		return b.client.AccountExists(ctx, account)
	})
	if err != nil {
		return err
	}
	if !exists {
		return blink402.NewVerificationError(blink402.CodeConfiguration,
			what+" "+account.String()+" does not exist", nil)
	}
	return nil
}

// resolveDecimals returns the decimal count for the asset, defaulting to the
// network's USDC decimals for its USDC mint.
func (b *Builder) resolveDecimals(mint *solana.PublicKey, decimals uint8) uint8 {
	if decimals == 0 && mint != nil && mint.Equals(b.netcfg.USDCMint) {
		return b.netcfg.USDCDecimals
	}
	return decimals
}
