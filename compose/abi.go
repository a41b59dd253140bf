package compose

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// erc20ApproveABI is the standard EIP-20 approve function
// (selector 0x095ea7b3).
const erc20ApproveABI = `[
  {
    "type": "function",
    "name": "approve",
    "stateMutability": "nonpayable",
    "inputs": [
      {"name": "spender", "type": "address"},
      {"name": "value", "type": "uint256"}
    ],
    "outputs": [{"name": "", "type": "bool"}]
  }
]`

// sprayV2ABI is the legacy spray contract: a single payable entrypoint taking
// the token (zero address for native batches) and the recipient/amount rows.
const sprayV2ABI = `[
  {
    "type": "function",
    "name": "spray",
    "stateMutability": "payable",
    "inputs": [
      {"name": "token", "type": "address"},
      {"name": "recipients", "type": "address[]"},
      {"name": "amounts", "type": "uint256[]"}
    ],
    "outputs": []
  }
]`

// sprayV3ABI is the current spray contract. The with-metadata variant carries
// a memo and agent identifier; the plain variant has lower encoding and gas
// overhead and is used whenever no metadata is present.
const sprayV3ABI = `[
  {
    "type": "function",
    "name": "spray",
    "stateMutability": "payable",
    "inputs": [
      {"name": "token", "type": "address"},
      {"name": "recipients", "type": "address[]"},
      {"name": "amounts", "type": "uint256[]"}
    ],
    "outputs": []
  },
  {
    "type": "function",
    "name": "sprayWithMeta",
    "stateMutability": "payable",
    "inputs": [
      {"name": "token", "type": "address"},
      {"name": "recipients", "type": "address[]"},
      {"name": "amounts", "type": "uint256[]"},
      {"name": "memo", "type": "string"},
      {"name": "agentId", "type": "uint256"}
    ],
    "outputs": []
  }
]`

var (
	erc20ABI = mustParseABI(erc20ApproveABI)
	v2ABI    = mustParseABI(sprayV2ABI)
	v3ABI    = mustParseABI(sprayV3ABI)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("compose: invalid embedded ABI: %v", err))
	}
	return parsed
}

// encodeApprove builds approve(spender, value) calldata.
func encodeApprove(spender common.Address, value *big.Int) ([]byte, error) {
	return erc20ABI.Pack("approve", spender, value)
}

// encodeSprayV2 builds the V2 spray(token, recipients, amounts) calldata.
func encodeSprayV2(token common.Address, recipients []common.Address, amounts []*big.Int) ([]byte, error) {
	return v2ABI.Pack("spray", token, recipients, amounts)
}

// encodeSprayV3 builds the plain V3 spray calldata.
func encodeSprayV3(token common.Address, recipients []common.Address, amounts []*big.Int) ([]byte, error) {
	return v3ABI.Pack("spray", token, recipients, amounts)
}

// encodeSprayV3WithMeta builds the V3 with-metadata calldata.
func encodeSprayV3WithMeta(token common.Address, recipients []common.Address, amounts []*big.Int, memo string, agentID uint64) ([]byte, error) {
	return v3ABI.Pack("sprayWithMeta", token, recipients, amounts, memo, new(big.Int).SetUint64(agentID))
}
