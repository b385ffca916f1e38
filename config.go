package blink402

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
)

// TimeoutConfig holds the deadlines governing network waits. Every network
// operation in the engine is bounded by one of these or by a caller-supplied
// context deadline, whichever is tighter.
type TimeoutConfig struct {
	// LocateTimeout is the maximum time to poll for a signature matching a reference.
	LocateTimeout time.Duration

	// ConfirmTimeout is the maximum time to wait for a located signature to
	// reach the target commitment.
	ConfirmTimeout time.Duration

	// RequestTimeout bounds a single RPC round trip.
	RequestTimeout time.Duration
}

// DefaultTimeouts provides sensible defaults for verification operations.
var DefaultTimeouts = TimeoutConfig{
	LocateTimeout:  60 * time.Second,
	ConfirmTimeout: 30 * time.Second,
	RequestTimeout: 15 * time.Second,
}

// WithLocateTimeout returns a new TimeoutConfig with updated locate timeout.
func (tc TimeoutConfig) WithLocateTimeout(d time.Duration) TimeoutConfig {
	tc.LocateTimeout = d
	return tc
}

// WithConfirmTimeout returns a new TimeoutConfig with updated confirm timeout.
func (tc TimeoutConfig) WithConfirmTimeout(d time.Duration) TimeoutConfig {
	tc.ConfirmTimeout = d
	return tc
}

// WithRequestTimeout returns a new TimeoutConfig with updated request timeout.
func (tc TimeoutConfig) WithRequestTimeout(d time.Duration) TimeoutConfig {
	tc.RequestTimeout = d
	return tc
}

// Validate ensures timeout values are reasonable.
func (tc TimeoutConfig) Validate() error {
	if tc.LocateTimeout <= 0 {
		return fmt.Errorf("locate timeout must be positive, got %v", tc.LocateTimeout)
	}
	if tc.ConfirmTimeout <= 0 {
		return fmt.Errorf("confirm timeout must be positive, got %v", tc.ConfirmTimeout)
	}
	if tc.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %v", tc.RequestTimeout)
	}
	return nil
}

// Config is the engine's explicit context object. It is constructed once at
// process start and passed into every verification or build call; there is no
// module-level cached connection or hidden global state.
type Config struct {
	// Network selects the Solana cluster.
	Network Network

	// RPCURL overrides the cluster's default RPC endpoint when non-empty.
	RPCURL string

	// Commitment is the target finality level for verification.
	Commitment Commitment

	// MintOverride replaces the cluster's default USDC mint when non-nil.
	MintOverride *solana.PublicKey

	// Timeouts are the deadlines for network waits.
	Timeouts TimeoutConfig

	// PollInterval is the delay between ledger polls while locating or
	// awaiting confirmation.
	PollInterval time.Duration

	// SkipVerification requests the verification bypass. It only takes
	// effect in binaries compiled with the "paymentbypass" build tag;
	// release builds do not contain the bypass path at all.
	SkipVerification bool

	// Logger receives structured engine logs. Defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns a devnet configuration with confirmed commitment.
func DefaultConfig() Config {
	return Config{
		Network:      NetworkDevnet,
		Commitment:   CommitmentConfirmed,
		Timeouts:     DefaultTimeouts,
		PollInterval: 1500 * time.Millisecond,
	}
}

// NetworkConfig resolves the cluster constants for the configured network,
// applying the RPC and mint overrides.
func (c Config) NetworkConfig() (NetworkConfig, error) {
	nc, err := GetNetworkConfig(c.Network)
	if err != nil {
		return NetworkConfig{}, err
	}
	if c.RPCURL != "" {
		nc.RPCURL = c.RPCURL
	}
	if c.MintOverride != nil {
		nc.USDCMint = *c.MintOverride
	}
	return nc, nil
}

// Log returns the configured logger, defaulting to slog.Default().
func (c Config) Log() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// Validate checks the configuration before any network call.
func (c Config) Validate() error {
	if _, err := GetNetworkConfig(c.Network); err != nil {
		return err
	}
	if c.Commitment < CommitmentConfirmed || c.Commitment > CommitmentFinalized {
		return NewVerificationError(CodeConfiguration,
			fmt.Sprintf("commitment %q cannot be a verification target", c.Commitment), nil)
	}
	if c.MintOverride != nil && c.MintOverride.IsZero() {
		return NewVerificationError(CodeConfiguration, "mint override is empty", nil)
	}
	if c.PollInterval <= 0 {
		return NewVerificationError(CodeConfiguration,
			fmt.Sprintf("poll interval must be positive, got %v", c.PollInterval), nil)
	}
	if err := c.Timeouts.Validate(); err != nil {
		return NewVerificationError(CodeConfiguration, "invalid timeouts", err)
	}
	return nil
}
