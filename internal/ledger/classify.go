package ledger

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"

	blink402 "github.com/Blink402/blink402-mcp"
)

// JSON-RPC error codes the Solana cluster is known to return.
// Reference: solana-labs rpc custom error definitions.
const (
	rpcCodeSendTransactionPreflightFailure = -32002
	rpcCodeBlockCleanedUp                  = -32001
	rpcCodeBlockNotAvailable               = -32004
	rpcCodeNodeUnhealthy                   = -32005
	rpcCodeTransactionHistoryNotAvailable  = -32011
	rpcCodeSlotSkipped                     = -32007
	rpcCodeBlockStatusNotYetAvailable      = -32014
	rpcCodeMinContextSlotNotReached        = -32016
	rpcCodeInvalidParams                   = -32602
)

// classify maps a raw RPC/transport error into the engine's taxonomy.
// This is the only place in the module that inspects raw ledger errors;
// downstream code branches on error codes, never on message text.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	// Context errors pass through untouched; the caller owns deadline
	// semantics (a locate deadline becomes Timeout, a user cancel stays
	// a cancel).
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	if errors.Is(err, rpc.ErrNotFound) {
		return blink402.NewVerificationError(blink402.CodeNotFoundYet,
			op+": not found", err)
	}

	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		switch rpcErr.Code {
		case rpcCodeSendTransactionPreflightFailure:
			// Preflight simulation failures (including insufficient funds)
			// are deterministic; retrying cannot make them succeed.
			return blink402.NewVerificationError(blink402.CodeExecutionFailed,
				fmt.Sprintf("%s: preflight failure (code %d)", op, rpcErr.Code), err)
		case rpcCodeNodeUnhealthy, rpcCodeBlockNotAvailable, rpcCodeSlotSkipped,
			rpcCodeBlockStatusNotYetAvailable, rpcCodeMinContextSlotNotReached,
			rpcCodeBlockCleanedUp, rpcCodeTransactionHistoryNotAvailable:
			// Lagging or unhealthy node symptoms; another attempt may hit
			// a caught-up node.
			return blink402.NewVerificationError(blink402.CodeRPCTransient,
				fmt.Sprintf("%s: node lagging (code %d)", op, rpcErr.Code), err)
		case rpcCodeInvalidParams:
			return blink402.NewVerificationError(blink402.CodeConfiguration,
				fmt.Sprintf("%s: invalid rpc params (code %d)", op, rpcErr.Code), err)
		default:
			return blink402.NewVerificationError(blink402.CodeRPCTransient,
				fmt.Sprintf("%s: rpc error (code %d)", op, rpcErr.Code), err)
		}
	}

	var httpErr *jsonrpc.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Code == 429 || httpErr.Code >= 500 {
			return blink402.NewVerificationError(blink402.CodeRPCTransient,
				fmt.Sprintf("%s: http %d from rpc node", op, httpErr.Code), err)
		}
		return blink402.NewVerificationError(blink402.CodeConfiguration,
			fmt.Sprintf("%s: http %d from rpc node", op, httpErr.Code), err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return blink402.NewVerificationError(blink402.CodeRPCTransient,
			op+": network failure", err)
	}

	// Anything else from the transport is treated as transient; permanent
	// conditions surface through typed RPC errors handled above.
	return blink402.NewVerificationError(blink402.CodeRPCTransient,
		op+": rpc call failed", err)
}
