package spraay

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// UnknownSymbol is the display symbol for tokens absent from the static table.
const UnknownSymbol = "UNKNOWN"

// unknownDecimals is the decimal precision assumed for tokens absent from the
// table. 18 matches the overwhelming majority of deployed ERC-20 contracts.
const unknownDecimals = 18

// Registry maps symbols and addresses to canonical token descriptors. It is
// built once from the static token table and is immutable afterwards, so it is
// safe for concurrent use without locking.
type Registry struct {
	native    TokenDescriptor
	bySymbol  map[string]TokenDescriptor
	byAddress map[common.Address]TokenDescriptor
}

// NewRegistry builds a registry from the configuration's token table.
func NewRegistry(cfg *Config) *Registry {
	r := &Registry{
		native: TokenDescriptor{
			Symbol:   cfg.NativeSymbol,
			Decimals: cfg.NativeDecimals,
		},
		bySymbol:  make(map[string]TokenDescriptor, len(cfg.Tokens)+1),
		byAddress: make(map[common.Address]TokenDescriptor, len(cfg.Tokens)),
	}
	r.bySymbol[strings.ToLower(cfg.NativeSymbol)] = r.native

	for _, tc := range cfg.Tokens {
		desc := TokenDescriptor{
			Address:        common.HexToAddress(tc.Address),
			Symbol:         tc.Symbol,
			Decimals:       tc.Decimals,
			FeeOverrideBps: tc.FeeOverrideBps,
		}
		r.bySymbol[strings.ToLower(tc.Symbol)] = desc
		// First symbol for an address wins the reverse lookup.
		if _, exists := r.byAddress[desc.Address]; !exists {
			r.byAddress[desc.Address] = desc
		}
	}
	return r
}

// Resolve maps an input string to a token descriptor. It accepts the native
// asset keyword, a known symbol (case-insensitive) or any syntactically valid
// 20-byte address. Addresses absent from the table resolve to a synthetic
// descriptor with 18 decimals and the UNKNOWN symbol rather than failing,
// since arbitrary ERC-20 contracts are legitimately supported.
func (r *Registry) Resolve(input string) (TokenDescriptor, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return TokenDescriptor{}, NewEngineError(ErrCodeUnresolvableToken,
			"empty token identifier", ErrUnresolvableToken)
	}

	if desc, ok := r.bySymbol[strings.ToLower(trimmed)]; ok {
		return desc, nil
	}

	if common.IsHexAddress(trimmed) {
		addr := common.HexToAddress(trimmed)
		if desc, ok := r.byAddress[addr]; ok {
			return desc, nil
		}
		return TokenDescriptor{
			Address:  addr,
			Symbol:   UnknownSymbol,
			Decimals: unknownDecimals,
		}, nil
	}

	return TokenDescriptor{}, NewEngineError(ErrCodeUnresolvableToken,
		"token is neither a known symbol nor a valid address", ErrUnresolvableToken).
		WithDetails("input", trimmed)
}

// ReverseLookup returns the display symbol for an address, if the address is
// in the static table. It is a display-only helper and never affects amount
// computation.
func (r *Registry) ReverseLookup(addr common.Address) (string, bool) {
	if addr == (common.Address{}) {
		return r.native.Symbol, true
	}
	desc, ok := r.byAddress[addr]
	if !ok {
		return "", false
	}
	return desc.Symbol, true
}

// Native returns the native-asset descriptor.
func (r *Registry) Native() TokenDescriptor {
	return r.native
}
