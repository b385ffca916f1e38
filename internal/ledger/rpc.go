package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	blink402 "github.com/Blink402/blink402-mcp"
)

// RPCClient implements Client against a real Solana RPC endpoint.
type RPCClient struct {
	rpc            *rpc.Client
	commitment     blink402.Commitment
	requestTimeout time.Duration
}

var _ Client = (*RPCClient)(nil)

// NewRPCClient creates a ledger client for the given endpoint. The commitment
// is used as the default read commitment; requestTimeout bounds each RPC
// round trip.
func NewRPCClient(endpoint string, commitment blink402.Commitment, requestTimeout time.Duration) *RPCClient {
	return &RPCClient{
		rpc:            rpc.New(endpoint),
		commitment:     commitment,
		requestTimeout: requestTimeout,
	}
}

// callCtx bounds a single RPC round trip. The caller's deadline still wins
// when it is tighter.
func (c *RPCClient) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.requestTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.requestTimeout)
}

// SignaturesForAddress implements Client.
func (c *RPCClient) SignaturesForAddress(ctx context.Context, address solana.PublicKey, limit int) ([]SignatureInfo, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	opts := &rpc.GetSignaturesForAddressOpts{
		Commitment: c.commitment.ToRPC(),
	}
	if limit > 0 {
		opts.Limit = &limit
	}

	sigs, err := c.rpc.GetSignaturesForAddressWithOpts(ctx, address, opts)
	if err != nil {
		return nil, classify("getSignaturesForAddress", err)
	}

	infos := make([]SignatureInfo, 0, len(sigs))
	for _, sig := range sigs {
		if sig == nil {
			continue
		}
		info := SignatureInfo{
			Signature:  sig.Signature,
			Slot:       sig.Slot,
			Commitment: blink402.CommitmentFromStatus(sig.ConfirmationStatus),
			Failed:     sig.Err != nil,
		}
		// blockTime and memo are nullable on older ledger entries.
		if sig.BlockTime != nil {
			info.BlockTime = sig.BlockTime.Time()
		}
		if sig.Memo != nil {
			info.Memo = *sig.Memo
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// SignatureStatus implements Client.
func (c *RPCClient) SignatureStatus(ctx context.Context, sig solana.Signature) (*SignatureStatus, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	res, err := c.rpc.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return nil, classify("getSignatureStatuses", err)
	}
	if res == nil || len(res.Value) == 0 || res.Value[0] == nil {
		return nil, blink402.NewVerificationError(blink402.CodeNotFoundYet,
			"signature status not available", nil).WithSignature(sig.String())
	}

	status := res.Value[0]
	out := &SignatureStatus{
		Slot:       status.Slot,
		Commitment: blink402.CommitmentFromStatus(status.ConfirmationStatus),
	}
	if status.Err != nil {
		out.ExecutionErr = fmt.Sprintf("%v", status.Err)
	}
	return out, nil
}

// maxTxVersion opts the fetch into versioned transactions; legacy
// transactions are still returned.
var maxTxVersion = uint64(0)

// Transaction implements Client.
func (c *RPCClient) Transaction(ctx context.Context, sig solana.Signature) (*TransactionDetail, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	res, err := c.rpc.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     c.commitment.ToRPC(),
		MaxSupportedTransactionVersion: &maxTxVersion,
	})
	if err != nil {
		return nil, classify("getTransaction", err)
	}
	if res == nil || res.Transaction == nil || res.Meta == nil {
		return nil, blink402.NewVerificationError(blink402.CodeNotFoundYet,
			"transaction not available", nil).WithSignature(sig.String())
	}

	tx, err := res.Transaction.GetTransaction()
	if err != nil {
		return nil, blink402.NewVerificationError(blink402.CodeRPCTransient,
			"decode transaction", err).WithSignature(sig.String())
	}

	detail := &TransactionDetail{
		Signature:    sig,
		Slot:         res.Slot,
		AccountKeys:  make([]solana.PublicKey, 0, len(tx.Message.AccountKeys)),
		PreBalances:  res.Meta.PreBalances,
		PostBalances: res.Meta.PostBalances,
		Failed:       res.Meta.Err != nil,
	}
	if res.BlockTime != nil {
		detail.BlockTime = res.BlockTime.Time()
	}
	if res.Meta.Err != nil {
		detail.ExecutionErr = fmt.Sprintf("%v", res.Meta.Err)
	}

	// Balance arrays index static keys first, then loaded writable and
	// read-only addresses, in that order.
	detail.AccountKeys = append(detail.AccountKeys, tx.Message.AccountKeys...)
	detail.AccountKeys = append(detail.AccountKeys, res.Meta.LoadedAddresses.Writable...)
	detail.AccountKeys = append(detail.AccountKeys, res.Meta.LoadedAddresses.ReadOnly...)

	detail.PreTokenBalances = normalizeTokenBalances(res.Meta.PreTokenBalances)
	detail.PostTokenBalances = normalizeTokenBalances(res.Meta.PostTokenBalances)

	return detail, nil
}

// normalizeTokenBalances converts RPC token balance entries into defaulted,
// non-pointer form. Entries without a parseable amount are dropped; entries
// without an owner (legacy responses) keep a zero owner key.
func normalizeTokenBalances(balances []rpc.TokenBalance) []TokenBalance {
	out := make([]TokenBalance, 0, len(balances))
	for _, b := range balances {
		if b.UiTokenAmount == nil {
			continue
		}
		amount, err := strconv.ParseUint(b.UiTokenAmount.Amount, 10, 64)
		if err != nil {
			continue
		}
		tb := TokenBalance{
			AccountIndex: b.AccountIndex,
			Mint:         b.Mint,
			Amount:       amount,
		}
		if b.Owner != nil {
			tb.Owner = *b.Owner
		}
		out = append(out, tb)
	}
	return out
}

// LatestBlockhash implements Client.
func (c *RPCClient) LatestBlockhash(ctx context.Context, commitment blink402.Commitment) (solana.Hash, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	res, err := c.rpc.GetLatestBlockhash(ctx, commitment.ToRPC())
	if err != nil {
		return solana.Hash{}, classify("getLatestBlockhash", err)
	}
	if res == nil || res.Value == nil {
		return solana.Hash{}, blink402.NewVerificationError(blink402.CodeRPCTransient,
			"empty blockhash response", nil)
	}
	return res.Value.Blockhash, nil
}

// AccountExists implements Client.
func (c *RPCClient) AccountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	res, err := c.rpc.GetAccountInfo(ctx, account)
	if err != nil {
		classified := classify("getAccountInfo", err)
		if errors.Is(classified, blink402.ErrNotFoundYet) {
			return false, nil
		}
		return false, classified
	}
	return res != nil && res.Value != nil, nil
}

// TokenAccountBalance implements Client.
func (c *RPCClient) TokenAccountBalance(ctx context.Context, account solana.PublicKey) (uint64, uint8, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	res, err := c.rpc.GetTokenAccountBalance(ctx, account, c.commitment.ToRPC())
	if err != nil {
		classified := classify("getTokenAccountBalance", err)
		if errors.Is(classified, blink402.ErrNotFoundYet) {
			// Missing token account means zero balance, not an error.
			return 0, 0, nil
		}
		return 0, 0, classified
	}
	if res == nil || res.Value == nil {
		return 0, 0, nil
	}
	amount, err := strconv.ParseUint(res.Value.Amount, 10, 64)
	if err != nil {
		return 0, 0, blink402.NewVerificationError(blink402.CodeRPCTransient,
			"unparseable token balance", err)
	}
	return amount, res.Value.Decimals, nil
}

// Balance implements Client.
func (c *RPCClient) Balance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	res, err := c.rpc.GetBalance(ctx, account, c.commitment.ToRPC())
	if err != nil {
		return 0, classify("getBalance", err)
	}
	if res == nil {
		return 0, blink402.NewVerificationError(blink402.CodeRPCTransient,
			"empty balance response", nil)
	}
	return res.Value, nil
}

// SendTransaction implements Client.
func (c *RPCClient) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()

	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: c.commitment.ToRPC(),
	})
	if err != nil {
		return solana.Signature{}, classify("sendTransaction", err)
	}
	return sig, nil
}
