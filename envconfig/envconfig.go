// Package envconfig loads the engine configuration from environment
// variables, with an optional .env file for local development. It produces
// the typed blink402.Config that is constructed once at process start and
// passed into every verification or build call.
package envconfig

import (
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	blink402 "github.com/Blink402/blink402-mcp"
)

// rawConfig mirrors the environment variable surface.
type rawConfig struct {
	Network          string `mapstructure:"BLINK402_NETWORK"`
	RPCURL           string `mapstructure:"BLINK402_RPC_URL"`
	Commitment       string `mapstructure:"BLINK402_COMMITMENT"`
	MintOverride     string `mapstructure:"BLINK402_MINT_OVERRIDE"`
	PollIntervalMS   int    `mapstructure:"BLINK402_POLL_INTERVAL_MS"`
	LocateTimeoutS   int    `mapstructure:"BLINK402_LOCATE_TIMEOUT_SECONDS"`
	ConfirmTimeoutS  int    `mapstructure:"BLINK402_CONFIRM_TIMEOUT_SECONDS"`
	RequestTimeoutS  int    `mapstructure:"BLINK402_REQUEST_TIMEOUT_SECONDS"`
	SkipVerification bool   `mapstructure:"BLINK402_SKIP_VERIFICATION"`
}

// Load reads configuration from the environment. A .env file in the working
// directory is honored when present but never required. The returned config
// is validated.
//
// BLINK402_SKIP_VERIFICATION is read here but only ever takes effect in
// binaries compiled with the "paymentbypass" build tag; release artifacts do
// not contain the bypass code path.
func Load() (blink402.Config, error) {
	// Best effort: absence of a .env file is the normal production case.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("BLINK402_NETWORK", string(blink402.NetworkDevnet))
	v.SetDefault("BLINK402_COMMITMENT", blink402.CommitmentConfirmed.String())
	v.SetDefault("BLINK402_POLL_INTERVAL_MS", 1500)
	v.SetDefault("BLINK402_LOCATE_TIMEOUT_SECONDS", 60)
	v.SetDefault("BLINK402_CONFIRM_TIMEOUT_SECONDS", 30)
	v.SetDefault("BLINK402_REQUEST_TIMEOUT_SECONDS", 15)
	v.SetDefault("BLINK402_SKIP_VERIFICATION", false)

	keys := []string{
		"BLINK402_NETWORK", "BLINK402_RPC_URL", "BLINK402_COMMITMENT",
		"BLINK402_MINT_OVERRIDE", "BLINK402_POLL_INTERVAL_MS",
		"BLINK402_LOCATE_TIMEOUT_SECONDS", "BLINK402_CONFIRM_TIMEOUT_SECONDS",
		"BLINK402_REQUEST_TIMEOUT_SECONDS", "BLINK402_SKIP_VERIFICATION",
	}
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return blink402.Config{}, blink402.NewVerificationError(
				blink402.CodeConfiguration, "bind environment", err)
		}
	}

	var raw rawConfig
	if err := v.Unmarshal(&raw); err != nil {
		return blink402.Config{}, blink402.NewVerificationError(
			blink402.CodeConfiguration, "unmarshal environment", err)
	}

	return fromRaw(raw)
}

// fromRaw converts the raw environment surface into a validated Config.
func fromRaw(raw rawConfig) (blink402.Config, error) {
	network, err := blink402.ParseNetwork(raw.Network)
	if err != nil {
		return blink402.Config{}, err
	}
	commitment, err := blink402.ParseCommitment(raw.Commitment)
	if err != nil {
		return blink402.Config{}, err
	}

	cfg := blink402.Config{
		Network:    network,
		RPCURL:     raw.RPCURL,
		Commitment: commitment,
		Timeouts: blink402.TimeoutConfig{
			LocateTimeout:  time.Duration(raw.LocateTimeoutS) * time.Second,
			ConfirmTimeout: time.Duration(raw.ConfirmTimeoutS) * time.Second,
			RequestTimeout: time.Duration(raw.RequestTimeoutS) * time.Second,
		},
		PollInterval:     time.Duration(raw.PollIntervalMS) * time.Millisecond,
		SkipVerification: raw.SkipVerification,
	}

	if raw.MintOverride != "" {
		mint, err := solana.PublicKeyFromBase58(raw.MintOverride)
		if err != nil {
			return blink402.Config{}, blink402.NewVerificationError(
				blink402.CodeConfiguration, "invalid mint override "+raw.MintOverride, err)
		}
		cfg.MintOverride = &mint
	}

	if err := cfg.Validate(); err != nil {
		return blink402.Config{}, err
	}
	return cfg, nil
}
