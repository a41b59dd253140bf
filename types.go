package spraay

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ContractVersion selects the spray contract call shape.
type ContractVersion string

const (
	// ContractV2 is the legacy spray contract: (token, recipients, amounts).
	ContractV2 ContractVersion = "v2"
	// ContractV3 is the current spray contract, which additionally supports an
	// optional memo and agent identifier via a with-metadata call variant.
	ContractV3 ContractVersion = "v3"
)

// MaxBatchRecipients is the hard upper bound on recipients per batch. The spray
// contracts only support bounded batches before gas and row limits apply.
const MaxBatchRecipients = 200

// TokenDescriptor is the canonical on-chain identity of a token.
// The zero address is the native-asset sentinel.
type TokenDescriptor struct {
	// Address is the token contract address, or the zero address for the native asset.
	Address common.Address `json:"address"`

	// Symbol is the display symbol (e.g., "USDC"). Unknown tokens carry "UNKNOWN".
	Symbol string `json:"symbol"`

	// Decimals determines the integer scale for all amount conversions for this token.
	Decimals uint8 `json:"decimals"`

	// FeeOverrideBps, when set, replaces the process-wide default protocol fee rate.
	FeeOverrideBps *uint32 `json:"feeOverrideBps,omitempty"`
}

// IsNative reports whether the descriptor refers to the chain's native asset.
func (t TokenDescriptor) IsNative() bool {
	return t.Address == (common.Address{})
}

// RecipientEntry is a single (recipient, human amount) row of a batch.
type RecipientEntry struct {
	// Address is the recipient's 20-byte address as a hex string.
	Address string `json:"address"`

	// Amount is the human-readable decimal amount (e.g., "25.50").
	Amount string `json:"amount"`
}

// BatchIntent describes a batch payment to be composed into contract calls.
type BatchIntent struct {
	// Token is the resolved token every recipient is paid in.
	Token TokenDescriptor

	// Recipients is the ordered list of payees, 1 to MaxBatchRecipients entries.
	Recipients []RecipientEntry

	// Memo is an optional note carried on-chain (V3 with-metadata variant only).
	Memo string

	// AgentID is an optional non-zero agent identifier (V3 with-metadata variant only).
	AgentID uint64

	// Version selects the spray contract call shape. Empty defaults to ContractV3.
	Version ContractVersion
}

// BatchTotals holds the exact integer amounts derived from a batch.
// All values are in base units of the batch token.
type BatchTotals struct {
	// Amounts holds the per-recipient base-unit amounts, converted exactly once
	// from the human strings before any summation.
	Amounts []*big.Int

	// Gross is the sum of Amounts.
	Gross *big.Int

	// Fee is floor(Gross * feeBps / 10000).
	Fee *big.Int

	// Total is Gross + Fee, the amount the payer must approve or attach.
	Total *big.Int
}

// QuoteRequest asks for the best available output of swapping AmountIn of
// TokenIn into TokenOut.
type QuoteRequest struct {
	TokenIn  TokenDescriptor
	TokenOut TokenDescriptor

	// AmountIn is in base units of TokenIn.
	AmountIn *big.Int
}

// QuoteResult is the best (fee tier, route) combination found by the router.
type QuoteResult struct {
	// AmountOut is the quoted output in base units of the output token.
	AmountOut *big.Int `json:"amountOut"`

	// Route is the ordered token path: two addresses for a direct swap, three
	// when routed through the bridge asset.
	Route []common.Address `json:"route"`

	// FeeTiers holds the pool fee tier per hop, in the venue's hundredths-of-a-bip units.
	FeeTiers []uint32 `json:"feeTiers"`

	// GasEstimate is the venue's aggregate gas estimate across the hops.
	GasEstimate uint64 `json:"gasEstimate"`

	// MultiHop reports whether the route passes through the bridge asset.
	MultiHop bool `json:"multiHop"`
}

// Call is a single contract invocation a wallet can sign and submit unmodified.
type Call struct {
	// To is the target contract address.
	To common.Address `json:"to"`

	// Data is the ABI-encoded calldata.
	Data []byte `json:"data"`

	// Value is the native-asset amount attached to the call, or nil for none.
	Value *big.Int `json:"value,omitempty"`
}

// BatchSummary is the human-readable accounting of a composed batch.
type BatchSummary struct {
	RecipientCount int    `json:"recipientCount"`
	Symbol         string `json:"symbol"`
	FeeBps         uint32 `json:"feeBps"`

	// Base-unit amounts as decimal strings.
	GrossAmount  string `json:"grossAmount"`
	FeeAmount    string `json:"feeAmount"`
	TotalWithFee string `json:"totalWithFee"`

	// The same amounts formatted at the token's decimals.
	GrossFormatted string `json:"grossFormatted"`
	FeeFormatted   string `json:"feeFormatted"`
	TotalFormatted string `json:"totalFormatted"`
}

// ComposedBatch is the ordered call sequence plus its summary.
type ComposedBatch struct {
	// Calls is [approval, spray] for ERC-20 batches and [spray] for native batches.
	Calls []Call `json:"calls"`

	Summary BatchSummary `json:"summary"`
}
