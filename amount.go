package spraay

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// feeDenominator converts basis points to a fraction: fee = gross * bps / 10000.
var feeDenominator = big.NewInt(10000)

// ToBaseUnits converts a human-readable decimal amount to integer base units
// at the given decimal precision. The conversion is exact: there is no binary
// floating point anywhere, and an amount with more fractional digits than the
// precision allows fails with ErrPrecisionExceeded rather than truncating.
func ToBaseUnits(amount string, decimals uint8) (*big.Int, error) {
	trimmed := strings.TrimSpace(amount)
	if trimmed == "" {
		return nil, NewEngineError(ErrCodeInvalidAmount, "empty amount", ErrInvalidAmount)
	}

	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return nil, NewEngineError(ErrCodeInvalidAmount, "unparseable amount", ErrInvalidAmount).
			WithDetails("amount", trimmed)
	}
	if d.IsNegative() {
		return nil, NewEngineError(ErrCodeInvalidAmount, "negative amount", ErrInvalidAmount).
			WithDetails("amount", trimmed)
	}
	// The exponent is the negated count of supplied fractional digits, so
	// "1.230" fails at 2 decimals even though its value would fit.
	if d.Exponent() < -int32(decimals) {
		return nil, NewEngineError(ErrCodePrecisionExceeded, "amount precision exceeds token decimals", ErrPrecisionExceeded).
			WithDetails("amount", trimmed).
			WithDetails("decimals", decimals)
	}

	return d.Shift(int32(decimals)).BigInt(), nil
}

// FormatBaseUnits renders a base-unit amount as a decimal string at the
// token's full precision (e.g., 35606500 at 6 decimals is "35.606500").
func FormatBaseUnits(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}
	return decimal.NewFromBigInt(value, -int32(decimals)).StringFixed(int32(decimals))
}

// EffectiveFeeBps returns the token's fee override when present, otherwise the
// process-wide default.
func EffectiveFeeBps(token TokenDescriptor, defaultBps uint32) uint32 {
	if token.FeeOverrideBps != nil {
		return *token.FeeOverrideBps
	}
	return defaultBps
}

// ComputeBatch converts every recipient amount to base units exactly once,
// sums them, and derives the protocol fee and gross total:
//
//	fee   = floor(gross * feeBps / 10000)
//	total = gross + fee
//
// Every entry must be a positive decimal parseable at the given precision.
// All arithmetic is unbounded-precision; grossAmount and totalWithFee exceed
// 64-bit range once amounts and recipient counts scale.
func ComputeBatch(entries []RecipientEntry, decimals uint8, feeBps uint32) (BatchTotals, error) {
	amounts := make([]*big.Int, 0, len(entries))
	gross := new(big.Int)

	for i, entry := range entries {
		value, err := ToBaseUnits(entry.Amount, decimals)
		if err != nil {
			return BatchTotals{}, err
		}
		if value.Sign() <= 0 {
			return BatchTotals{}, NewEngineError(ErrCodeInvalidAmount, "recipient amount must be positive", ErrInvalidAmount).
				WithDetails("index", i).
				WithDetails("amount", entry.Amount)
		}
		amounts = append(amounts, value)
		gross.Add(gross, value)
	}

	fee := new(big.Int).Mul(gross, big.NewInt(int64(feeBps)))
	fee.Quo(fee, feeDenominator)

	return BatchTotals{
		Amounts: amounts,
		Gross:   gross,
		Fee:     fee,
		Total:   new(big.Int).Add(gross, fee),
	}, nil
}
