package quote

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// quoterV2ABI is the read-only quoting interface of the venue (Uniswap V3
// QuoterV2 shape). quoteExactInputSingle is declared nonpayable rather than
// view because the quoter simulates the swap and reverts to return state, but
// it is only ever invoked via eth_call.
const quoterV2ABI = `[
  {
    "type": "function",
    "name": "quoteExactInputSingle",
    "stateMutability": "nonpayable",
    "inputs": [
      {"name": "params", "type": "tuple", "components": [
        {"name": "tokenIn", "type": "address"},
        {"name": "tokenOut", "type": "address"},
        {"name": "amountIn", "type": "uint256"},
        {"name": "fee", "type": "uint24"},
        {"name": "sqrtPriceLimitX96", "type": "uint160"}
      ]}
    ],
    "outputs": [
      {"name": "amountOut", "type": "uint256"},
      {"name": "sqrtPriceX96After", "type": "uint160"},
      {"name": "initializedTicksCrossed", "type": "uint32"},
      {"name": "gasEstimate", "type": "uint256"}
    ]
  }
]`

var quoterABI = mustParseABI(quoterV2ABI)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("quote: invalid embedded ABI: %v", err))
	}
	return parsed
}

// quoteSingleParams mirrors the quoteExactInputSingle tuple argument.
type quoteSingleParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	AmountIn          *big.Int
	Fee               *big.Int
	SqrtPriceLimitX96 *big.Int
}

// encodeQuoteSingle builds the calldata for one direct-swap probe.
func encodeQuoteSingle(tokenIn, tokenOut common.Address, amountIn *big.Int, feeTier uint32) ([]byte, error) {
	return quoterABI.Pack("quoteExactInputSingle", quoteSingleParams{
		TokenIn:           tokenIn,
		TokenOut:          tokenOut,
		AmountIn:          amountIn,
		Fee:               new(big.Int).SetUint64(uint64(feeTier)),
		SqrtPriceLimitX96: new(big.Int),
	})
}

// decodeQuoteSingle extracts (amountOut, gasEstimate) from a probe's return data.
func decodeQuoteSingle(data []byte) (*big.Int, uint64, error) {
	values, err := quoterABI.Unpack("quoteExactInputSingle", data)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode quoter return data: %w", err)
	}
	amountOut, ok := values[0].(*big.Int)
	if !ok {
		return nil, 0, fmt.Errorf("unexpected amountOut type %T", values[0])
	}
	gasEstimate, ok := values[3].(*big.Int)
	if !ok {
		return nil, 0, fmt.Errorf("unexpected gasEstimate type %T", values[3])
	}
	return amountOut, gasEstimate.Uint64(), nil
}
