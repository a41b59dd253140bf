package spraay

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorDefinitions(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"UnresolvableToken", ErrUnresolvableToken, "spraay: unresolvable token"},
		{"PrecisionExceeded", ErrPrecisionExceeded, "spraay: amount precision exceeds token decimals"},
		{"InvalidAmount", ErrInvalidAmount, "spraay: invalid amount"},
		{"TooManyRecipients", ErrTooManyRecipients, "spraay: too many recipients"},
		{"EmptyRecipients", ErrEmptyRecipients, "spraay: empty recipient list"},
		{"InvalidRecipientAddress", ErrInvalidRecipientAddress, "spraay: invalid recipient address"},
		{"InvalidPair", ErrInvalidPair, "spraay: identical input and output token"},
		{"NoLiquidity", ErrNoLiquidity, "spraay: no route with liquidity"},
		{"QuoteProviderUnavailable", ErrQuoteProviderUnavailable, "spraay: quote provider unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.want {
				t.Errorf("Error message mismatch: got %q, want %q", tt.err.Error(), tt.want)
			}
		})
	}
}

func TestEngineError_Creation(t *testing.T) {
	err := NewEngineError(ErrCodeNoLiquidity, "no probed route produced any output", ErrNoLiquidity)

	if err.Code != ErrCodeNoLiquidity {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeNoLiquidity)
	}
	if err.Details == nil {
		t.Error("Details map should be initialized")
	}
	if !errors.Is(err, ErrNoLiquidity) {
		t.Error("errors.Is should match the wrapped sentinel")
	}
	if !strings.Contains(err.Error(), "no probed route produced any output") {
		t.Errorf("Error() = %q, want it to contain the message", err.Error())
	}
}

func TestEngineError_WithDetails(t *testing.T) {
	err := NewEngineError(ErrCodeTooManyRecipients, "batch exceeds the recipient limit", ErrTooManyRecipients).
		WithDetails("count", 201).
		WithDetails("limit", MaxBatchRecipients)

	if len(err.Details) != 2 {
		t.Fatalf("Details length = %d, want 2", len(err.Details))
	}
	if err.Details["count"] != 201 {
		t.Errorf("Details[count] = %v, want 201", err.Details["count"])
	}
	if err.Details["limit"] != MaxBatchRecipients {
		t.Errorf("Details[limit] = %v, want %d", err.Details["limit"], MaxBatchRecipients)
	}
}

func TestEngineError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := NewEngineError(ErrCodeQuoteProviderUnavailable, "every quote probe failed", cause)
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the underlying cause")
	}

	bare := NewEngineError(ErrCodeInvalidPair, "identical tokens", nil)
	if bare.Unwrap() != nil {
		t.Errorf("Unwrap() = %v, want nil", bare.Unwrap())
	}
	if bare.Error() != "identical tokens" {
		t.Errorf("Error() = %q, want message only", bare.Error())
	}
}

func TestCodeForError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode ErrorCode
		wantOK   bool
	}{
		{
			name:     "engine error",
			err:      NewEngineError(ErrCodeInvalidPair, "identical tokens", ErrInvalidPair),
			wantCode: ErrCodeInvalidPair,
			wantOK:   true,
		},
		{
			name:     "wrapped engine error",
			err:      fmt.Errorf("request layer: %w", NewEngineError(ErrCodeNoLiquidity, "nothing", ErrNoLiquidity)),
			wantCode: ErrCodeNoLiquidity,
			wantOK:   true,
		},
		{
			name:     "bare sentinel",
			err:      ErrPrecisionExceeded,
			wantCode: ErrCodePrecisionExceeded,
			wantOK:   true,
		},
		{
			name:     "fmt-wrapped sentinel",
			err:      fmt.Errorf("entry 3: %w", ErrInvalidRecipientAddress),
			wantCode: ErrCodeInvalidRecipientAddress,
			wantOK:   true,
		},
		{
			name:   "unrelated error",
			err:    errors.New("boom"),
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok := CodeForError(tt.err)
			if ok != tt.wantOK {
				t.Fatalf("CodeForError ok = %v, want %v", ok, tt.wantOK)
			}
			if code != tt.wantCode {
				t.Errorf("CodeForError code = %v, want %v", code, tt.wantCode)
			}
		})
	}
}
