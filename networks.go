package blink402

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Network identifies a Solana cluster.
type Network string

const (
	// NetworkMainnet is Solana mainnet-beta.
	NetworkMainnet Network = "mainnet"

	// NetworkDevnet is the Solana devnet cluster.
	NetworkDevnet Network = "devnet"
)

// ParseNetwork parses a network selection string.
func ParseNetwork(s string) (Network, error) {
	switch s {
	case "mainnet", "mainnet-beta":
		return NetworkMainnet, nil
	case "devnet":
		return NetworkDevnet, nil
	default:
		return "", NewVerificationError(CodeConfiguration,
			fmt.Sprintf("unknown network %q", s), nil)
	}
}

// NetworkConfig holds per-cluster constants.
type NetworkConfig struct {
	// Network is the cluster identifier.
	Network Network

	// RPCURL is the default public RPC endpoint for the cluster.
	RPCURL string

	// USDCMint is the official Circle USDC mint on the cluster.
	USDCMint solana.PublicKey

	// USDCDecimals is the decimal count of USDC (always 6).
	USDCDecimals uint8
}

var (
	// MainnetConfig is the configuration for Solana mainnet-beta.
	// USDC mint verified against Circle's published addresses.
	MainnetConfig = NetworkConfig{
		Network:      NetworkMainnet,
		RPCURL:       rpc.MainNetBeta_RPC,
		USDCMint:     solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"),
		USDCDecimals: 6,
	}

	// DevnetConfig is the configuration for Solana devnet.
	DevnetConfig = NetworkConfig{
		Network:      NetworkDevnet,
		RPCURL:       rpc.DevNet_RPC,
		USDCMint:     solana.MustPublicKeyFromBase58("4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU"),
		USDCDecimals: 6,
	}
)

var networkConfigs = map[Network]NetworkConfig{
	NetworkMainnet: MainnetConfig,
	NetworkDevnet:  DevnetConfig,
}

// GetNetworkConfig returns the configuration for a network.
func GetNetworkConfig(network Network) (NetworkConfig, error) {
	cfg, ok := networkConfigs[network]
	if !ok {
		return NetworkConfig{}, NewVerificationError(CodeConfiguration,
			fmt.Sprintf("unknown network %q", network), nil)
	}
	return cfg, nil
}
