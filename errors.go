package spraay

import (
	"errors"
	"fmt"
)

// Engine error definitions. Every failure leaving the engine wraps exactly one
// of these sentinels so the request layer can map it to a client-facing signal.

var (
	// ErrUnresolvableToken indicates the input is neither a known symbol nor a valid address.
	ErrUnresolvableToken = errors.New("spraay: unresolvable token")

	// ErrPrecisionExceeded indicates an amount has more fractional digits than the token's decimals.
	ErrPrecisionExceeded = errors.New("spraay: amount precision exceeds token decimals")

	// ErrInvalidAmount indicates a non-positive or unparseable amount.
	ErrInvalidAmount = errors.New("spraay: invalid amount")

	// ErrTooManyRecipients indicates a batch above the supported recipient limit.
	ErrTooManyRecipients = errors.New("spraay: too many recipients")

	// ErrEmptyRecipients indicates a batch with no recipients.
	ErrEmptyRecipients = errors.New("spraay: empty recipient list")

	// ErrInvalidRecipientAddress indicates a recipient address that is not a valid 20-byte identifier.
	ErrInvalidRecipientAddress = errors.New("spraay: invalid recipient address")

	// ErrInvalidPair indicates a quote request with identical input and output tokens.
	ErrInvalidPair = errors.New("spraay: identical input and output token")

	// ErrNoLiquidity indicates no probed route produced any output.
	ErrNoLiquidity = errors.New("spraay: no route with liquidity")

	// ErrQuoteProviderUnavailable indicates every probe failed at the transport level.
	ErrQuoteProviderUnavailable = errors.New("spraay: quote provider unavailable")
)

// ErrorCode identifies an engine failure kind in a transport-independent way.
type ErrorCode string

const (
	ErrCodeUnresolvableToken        ErrorCode = "UNRESOLVABLE_TOKEN"
	ErrCodePrecisionExceeded        ErrorCode = "PRECISION_EXCEEDED"
	ErrCodeInvalidAmount            ErrorCode = "INVALID_AMOUNT"
	ErrCodeTooManyRecipients        ErrorCode = "TOO_MANY_RECIPIENTS"
	ErrCodeEmptyRecipients          ErrorCode = "EMPTY_RECIPIENTS"
	ErrCodeInvalidRecipientAddress  ErrorCode = "INVALID_RECIPIENT_ADDRESS"
	ErrCodeInvalidPair              ErrorCode = "INVALID_PAIR"
	ErrCodeNoLiquidity              ErrorCode = "NO_LIQUIDITY"
	ErrCodeQuoteProviderUnavailable ErrorCode = "QUOTE_PROVIDER_UNAVAILABLE"
)

// EngineError is a structured engine failure with a stable code and optional context.
type EngineError struct {
	Code    ErrorCode
	Message string
	Err     error
	Details map[string]interface{}
}

// NewEngineError creates an EngineError wrapping an underlying sentinel or cause.
func NewEngineError(code ErrorCode, message string, err error) *EngineError {
	return &EngineError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// WithDetails attaches a key/value pair to the error and returns it for chaining.
func (e *EngineError) WithDetails(key string, value interface{}) *EngineError {
	e.Details[key] = value
	return e
}

// sentinelCodes maps each sentinel to its code for errors that were wrapped
// with plain fmt.Errorf rather than NewEngineError.
var sentinelCodes = []struct {
	err  error
	code ErrorCode
}{
	{ErrUnresolvableToken, ErrCodeUnresolvableToken},
	{ErrPrecisionExceeded, ErrCodePrecisionExceeded},
	{ErrInvalidAmount, ErrCodeInvalidAmount},
	{ErrTooManyRecipients, ErrCodeTooManyRecipients},
	{ErrEmptyRecipients, ErrCodeEmptyRecipients},
	{ErrInvalidRecipientAddress, ErrCodeInvalidRecipientAddress},
	{ErrInvalidPair, ErrCodeInvalidPair},
	{ErrNoLiquidity, ErrCodeNoLiquidity},
	{ErrQuoteProviderUnavailable, ErrCodeQuoteProviderUnavailable},
}

// CodeForError reports the engine code carried by err, if any.
func CodeForError(err error) (ErrorCode, bool) {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr.Code, true
	}
	for _, sc := range sentinelCodes {
		if errors.Is(err, sc.err) {
			return sc.code, true
		}
	}
	return "", false
}
