// Package compose builds the ordered contract-call sequence that executes a
// batch payment: an ERC-20 approval for the gross total plus protocol fee,
// followed by the version-appropriate spray call. Composition is a pure
// function of the intent and the static configuration; it never touches the
// network and never calls the quote router.
package compose

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/plagtech/spraay-x402-gateway"
)

// Composer encodes batch intents against the configured spray contracts.
type Composer struct {
	registry *spraay.Registry
	cfg      *spraay.Config
}

// NewComposer creates a composer over the static registry and configuration.
func NewComposer(registry *spraay.Registry, cfg *spraay.Config) *Composer {
	return &Composer{registry: registry, cfg: cfg}
}

// Compose validates the intent and returns the ordered calls a wallet must
// sign: [approval, spray] for ERC-20 batches, [spray] with attached value for
// native-asset batches. The human-amount conversion happens exactly once per
// recipient, before summation, so fee math carries no rounding drift.
func (c *Composer) Compose(intent spraay.BatchIntent) (spraay.ComposedBatch, error) {
	recipients, err := parseRecipients(intent.Recipients)
	if err != nil {
		return spraay.ComposedBatch{}, err
	}

	feeBps := spraay.EffectiveFeeBps(intent.Token, c.cfg.DefaultFeeBps)
	totals, err := spraay.ComputeBatch(intent.Recipients, intent.Token.Decimals, feeBps)
	if err != nil {
		return spraay.ComposedBatch{}, err
	}

	version := intent.Version
	if version == "" {
		version = spraay.ContractV3
	}
	sprayContract, ok := c.cfg.SprayContract(version)
	if !ok {
		return spraay.ComposedBatch{}, fmt.Errorf("spraay: no spray contract configured for version %s", version)
	}

	data, err := c.encodeSpray(version, intent, recipients, totals.Amounts)
	if err != nil {
		return spraay.ComposedBatch{}, fmt.Errorf("failed to encode spray call: %w", err)
	}

	var calls []spraay.Call
	if intent.Token.IsNative() {
		// Native batches carry the total as attached value and need no approval.
		calls = []spraay.Call{{To: sprayContract, Data: data, Value: new(big.Int).Set(totals.Total)}}
	} else {
		approveData, err := encodeApprove(sprayContract, totals.Total)
		if err != nil {
			return spraay.ComposedBatch{}, fmt.Errorf("failed to encode approval call: %w", err)
		}
		calls = []spraay.Call{
			{To: intent.Token.Address, Data: approveData},
			{To: sprayContract, Data: data},
		}
	}

	return spraay.ComposedBatch{
		Calls:   calls,
		Summary: buildSummary(intent.Token, feeBps, len(recipients), totals),
	}, nil
}

// encodeSpray selects the contract-version-appropriate call shape. The V3
// with-metadata variant is used only when a memo or non-zero agent identifier
// is present; the plain shape is cheaper to encode and execute.
func (c *Composer) encodeSpray(version spraay.ContractVersion, intent spraay.BatchIntent, recipients []common.Address, amounts []*big.Int) ([]byte, error) {
	token := intent.Token.Address // zero address for native batches

	switch version {
	case spraay.ContractV2:
		return encodeSprayV2(token, recipients, amounts)
	case spraay.ContractV3:
		if intent.Memo != "" || intent.AgentID != 0 {
			return encodeSprayV3WithMeta(token, recipients, amounts, intent.Memo, intent.AgentID)
		}
		return encodeSprayV3(token, recipients, amounts)
	default:
		return nil, fmt.Errorf("spraay: unsupported contract version %q", version)
	}
}

// parseRecipients validates batch cardinality and address shape up front,
// before any amount work.
func parseRecipients(entries []spraay.RecipientEntry) ([]common.Address, error) {
	if len(entries) == 0 {
		return nil, spraay.NewEngineError(spraay.ErrCodeEmptyRecipients,
			"batch has no recipients", spraay.ErrEmptyRecipients)
	}
	if len(entries) > spraay.MaxBatchRecipients {
		return nil, spraay.NewEngineError(spraay.ErrCodeTooManyRecipients,
			"batch exceeds the recipient limit", spraay.ErrTooManyRecipients).
			WithDetails("count", len(entries)).
			WithDetails("limit", spraay.MaxBatchRecipients)
	}

	recipients := make([]common.Address, len(entries))
	for i, entry := range entries {
		if !common.IsHexAddress(entry.Address) {
			return nil, spraay.NewEngineError(spraay.ErrCodeInvalidRecipientAddress,
				"recipient address is not a valid 20-byte identifier", spraay.ErrInvalidRecipientAddress).
				WithDetails("index", i).
				WithDetails("address", entry.Address)
		}
		recipients[i] = common.HexToAddress(entry.Address)
	}
	return recipients, nil
}

func buildSummary(token spraay.TokenDescriptor, feeBps uint32, count int, totals spraay.BatchTotals) spraay.BatchSummary {
	return spraay.BatchSummary{
		RecipientCount: count,
		Symbol:         token.Symbol,
		FeeBps:         feeBps,
		GrossAmount:    totals.Gross.String(),
		FeeAmount:      totals.Fee.String(),
		TotalWithFee:   totals.Total.String(),
		GrossFormatted: spraay.FormatBaseUnits(totals.Gross, token.Decimals),
		FeeFormatted:   spraay.FormatBaseUnits(totals.Fee, token.Decimals),
		TotalFormatted: spraay.FormatBaseUnits(totals.Total, token.Decimals),
	}
}
