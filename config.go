// Package spraay implements the quote-and-compose engine behind the spraay
// payment gateway: it resolves human-friendly token identifiers to canonical
// on-chain metadata, computes exact fee and transfer amounts in integer base
// units, discovers the best swap route against an on-chain quoting contract,
// and deterministically encodes batch-payment intents into contract calls a
// wallet can sign and submit unmodified.
//
// The engine never holds funds, never submits transactions and keeps no state
// beyond the immutable configuration built at startup.
package spraay

import (
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML configs can use values like "750ms".
type Duration time.Duration

// Std returns the wrapped standard-library duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalYAML accepts Go duration strings.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// TokenConfig is one row of the static token table.
type TokenConfig struct {
	// Address is the token contract address.
	Address string `yaml:"address"`

	// Symbol is the display symbol used for lookups (case-insensitive).
	Symbol string `yaml:"symbol"`

	// Decimals is the token's decimal precision.
	Decimals uint8 `yaml:"decimals"`

	// FeeOverrideBps replaces the default protocol fee for this token when set.
	FeeOverrideBps *uint32 `yaml:"fee_override_bps,omitempty"`
}

// Config is the immutable configuration surface of the engine. It is
// constructed once at process start and passed by reference into each
// component constructor; nothing mutates it afterwards.
type Config struct {
	// ChainID identifies the target chain (informational; the engine never signs).
	ChainID int64 `yaml:"chain_id"`

	// RPCURL is the read-only RPC endpoint used by the quote router's probes.
	RPCURL string `yaml:"rpc_url"`

	// NativeSymbol is the keyword that resolves to the native-asset sentinel.
	NativeSymbol string `yaml:"native_symbol"`

	// NativeDecimals is the native asset's decimal precision (18 on EVM chains).
	NativeDecimals uint8 `yaml:"native_decimals"`

	// QuoterAddress is the venue's read-only quoting contract (QuoterV2 shape).
	QuoterAddress string `yaml:"quoter_address"`

	// BridgeToken is the high-liquidity intermediate asset for two-hop routing.
	BridgeToken string `yaml:"bridge_token"`

	// WrappedNative substitutes for the native sentinel in quote requests,
	// since the venue only quotes token pairs.
	WrappedNative string `yaml:"wrapped_native"`

	// FeeTiers is the fixed ordered probe set, in the venue's hundredths-of-a-bip
	// units (500 = 0.05%, 3000 = 0.30%, 10000 = 1.00%).
	FeeTiers []uint32 `yaml:"fee_tiers"`

	// DefaultFeeBps is the process-wide protocol fee in basis points, applied
	// to any token without a per-token override.
	DefaultFeeBps uint32 `yaml:"default_fee_bps"`

	// SprayContracts maps each supported contract version to its deployment.
	SprayContracts map[ContractVersion]string `yaml:"spray_contracts"`

	// Tokens is the static token table loaded at process start.
	Tokens []TokenConfig `yaml:"tokens"`

	// ProbeTimeout bounds each individual quote probe. A timed-out probe is
	// skipped, not fatal.
	ProbeTimeout Duration `yaml:"probe_timeout"`

	// QuoteTTL bounds the in-memory quote cache. Zero disables caching.
	QuoteTTL Duration `yaml:"quote_ttl"`
}

// DefaultConfig returns the compiled-in Base mainnet configuration.
// Token and venue addresses verified on-chain 2026-07-14.
func DefaultConfig() *Config {
	return &Config{
		ChainID:        8453,
		RPCURL:         "https://mainnet.base.org",
		NativeSymbol:   "ETH",
		NativeDecimals: 18,
		QuoterAddress:  "0x3d4e44Eb1374240CE5F1B871ab261CD16335B76a",
		BridgeToken:    "0x4200000000000000000000000000000000000006",
		WrappedNative:  "0x4200000000000000000000000000000000000006",
		FeeTiers:       []uint32{500, 3000, 10000},
		DefaultFeeBps:  30,
		SprayContracts: map[ContractVersion]string{
			ContractV2: "0x8c3f9a21E791009e1f2cf55343bb8C7bf4f6e4a2",
			ContractV3: "0x6Bd01e9CE59ba785Ec7d11D2D19F7a4dD6F02a8C",
		},
		Tokens: []TokenConfig{
			{Address: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", Symbol: "USDC", Decimals: 6},
			{Address: "0x4200000000000000000000000000000000000006", Symbol: "WETH", Decimals: 18},
			{Address: "0x50c5725949A6F0c72E6C4a641F24049A917DB0Cb", Symbol: "DAI", Decimals: 18},
			{Address: "0xcbB7C0000aB88B473b1f5aFd9ef808440eed33Bf", Symbol: "CBBTC", Decimals: 8},
		},
		ProbeTimeout: Duration(3 * time.Second),
		QuoteTTL:     Duration(5 * time.Second),
	}
}

// LoadConfig reads a YAML configuration file over the compiled-in defaults.
// Fields absent from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the invariants the engine relies on.
func (c *Config) Validate() error {
	if c.NativeSymbol == "" {
		return fmt.Errorf("config: native_symbol cannot be empty")
	}
	if !common.IsHexAddress(c.QuoterAddress) {
		return fmt.Errorf("config: quoter_address %q is not a valid address", c.QuoterAddress)
	}
	if !common.IsHexAddress(c.BridgeToken) {
		return fmt.Errorf("config: bridge_token %q is not a valid address", c.BridgeToken)
	}
	if !common.IsHexAddress(c.WrappedNative) {
		return fmt.Errorf("config: wrapped_native %q is not a valid address", c.WrappedNative)
	}
	if len(c.FeeTiers) == 0 {
		return fmt.Errorf("config: fee_tiers cannot be empty")
	}
	for _, version := range []ContractVersion{ContractV2, ContractV3} {
		addr, ok := c.SprayContracts[version]
		if !ok {
			return fmt.Errorf("config: no spray contract configured for version %s", version)
		}
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("config: spray contract %q for version %s is not a valid address", addr, version)
		}
	}
	for _, token := range c.Tokens {
		if !common.IsHexAddress(token.Address) {
			return fmt.Errorf("config: token %s address %q is not a valid address", token.Symbol, token.Address)
		}
		if token.Symbol == "" {
			return fmt.Errorf("config: token %s has an empty symbol", token.Address)
		}
	}
	return nil
}

// Quoter returns the parsed quoting contract address.
func (c *Config) Quoter() common.Address {
	return common.HexToAddress(c.QuoterAddress)
}

// Bridge returns the parsed bridge asset address.
func (c *Config) Bridge() common.Address {
	return common.HexToAddress(c.BridgeToken)
}

// WrappedNativeToken returns the parsed wrapped-native token address.
func (c *Config) WrappedNativeToken() common.Address {
	return common.HexToAddress(c.WrappedNative)
}

// SprayContract returns the parsed spray contract address for a version.
func (c *Config) SprayContract(version ContractVersion) (common.Address, bool) {
	raw, ok := c.SprayContracts[version]
	if !ok {
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}
