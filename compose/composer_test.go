package compose

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/plagtech/spraay-x402-gateway"
)

var (
	usdcAddr = common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913")
	recip1   = common.HexToAddress("0x1111111111111111111111111111111111111111")
	recip2   = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func testComposer(t *testing.T) (*Composer, *spraay.Config) {
	t.Helper()
	cfg := spraay.DefaultConfig()
	return NewComposer(spraay.NewRegistry(cfg), cfg), cfg
}

func usdcToken() spraay.TokenDescriptor {
	return spraay.TokenDescriptor{Address: usdcAddr, Symbol: "USDC", Decimals: 6}
}

func nativeToken() spraay.TokenDescriptor {
	return spraay.TokenDescriptor{Symbol: "ETH", Decimals: 18}
}

func TestComposer_Compose_ERC20(t *testing.T) {
	composer, cfg := testComposer(t)

	intent := spraay.BatchIntent{
		Token: usdcToken(),
		Recipients: []spraay.RecipientEntry{
			{Address: recip1.Hex(), Amount: "10.00"},
			{Address: recip2.Hex(), Amount: "25.50"},
		},
	}
	batch, err := composer.Compose(intent)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	if len(batch.Calls) != 2 {
		t.Fatalf("Calls length = %d, want 2 (approve, spray)", len(batch.Calls))
	}
	sprayContract, _ := cfg.SprayContract(spraay.ContractV3)

	approve := batch.Calls[0]
	if approve.To != usdcAddr {
		t.Errorf("approve target = %s, want the token contract", approve.To.Hex())
	}
	if approve.Value != nil && approve.Value.Sign() != 0 {
		t.Errorf("approve Value = %s, want no attached value", approve.Value)
	}
	if !bytes.Equal(approve.Data[:4], erc20ABI.Methods["approve"].ID) {
		t.Errorf("approve selector = %x, want %x", approve.Data[:4], erc20ABI.Methods["approve"].ID)
	}
	values, err := erc20ABI.Methods["approve"].Inputs.Unpack(approve.Data[4:])
	if err != nil {
		t.Fatalf("decode approve args: %v", err)
	}
	if spender := values[0].(common.Address); spender != sprayContract {
		t.Errorf("approve spender = %s, want spray contract %s", spender.Hex(), sprayContract.Hex())
	}
	if allowance := values[1].(*big.Int); allowance.String() != "35606500" {
		t.Errorf("approve value = %s, want 35606500 (gross plus fee)", allowance)
	}

	spray := batch.Calls[1]
	if spray.To != sprayContract {
		t.Errorf("spray target = %s, want %s", spray.To.Hex(), sprayContract.Hex())
	}
	if !bytes.Equal(spray.Data[:4], v3ABI.Methods["spray"].ID) {
		t.Errorf("spray selector = %x, want plain spray", spray.Data[:4])
	}
	sprayArgs, err := v3ABI.Methods["spray"].Inputs.Unpack(spray.Data[4:])
	if err != nil {
		t.Fatalf("decode spray args: %v", err)
	}
	if tokenArg := sprayArgs[0].(common.Address); tokenArg != usdcAddr {
		t.Errorf("spray token = %s, want %s", tokenArg.Hex(), usdcAddr.Hex())
	}
	recipients := sprayArgs[1].([]common.Address)
	if len(recipients) != 2 || recipients[0] != recip1 || recipients[1] != recip2 {
		t.Errorf("spray recipients = %v, want [%s %s]", recipients, recip1.Hex(), recip2.Hex())
	}
	amounts := sprayArgs[2].([]*big.Int)
	if len(amounts) != 2 || amounts[0].String() != "10000000" || amounts[1].String() != "25500000" {
		t.Errorf("spray amounts = %v, want [10000000 25500000]", amounts)
	}

	summary := batch.Summary
	if summary.RecipientCount != 2 {
		t.Errorf("RecipientCount = %d, want 2", summary.RecipientCount)
	}
	if summary.FeeBps != 30 {
		t.Errorf("FeeBps = %d, want 30", summary.FeeBps)
	}
	if summary.GrossAmount != "35500000" || summary.FeeAmount != "106500" || summary.TotalWithFee != "35606500" {
		t.Errorf("summary base units = %s/%s/%s, want 35500000/106500/35606500",
			summary.GrossAmount, summary.FeeAmount, summary.TotalWithFee)
	}
	if summary.TotalFormatted != "35.606500" {
		t.Errorf("TotalFormatted = %q, want \"35.606500\"", summary.TotalFormatted)
	}
}

func TestComposer_Compose_Native(t *testing.T) {
	composer, cfg := testComposer(t)

	intent := spraay.BatchIntent{
		Token: nativeToken(),
		Recipients: []spraay.RecipientEntry{
			{Address: recip1.Hex(), Amount: "1.5"},
		},
	}
	batch, err := composer.Compose(intent)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	if len(batch.Calls) != 1 {
		t.Fatalf("Calls length = %d, want 1 (no approval for native)", len(batch.Calls))
	}
	call := batch.Calls[0]
	sprayContract, _ := cfg.SprayContract(spraay.ContractV3)
	if call.To != sprayContract {
		t.Errorf("spray target = %s, want %s", call.To.Hex(), sprayContract.Hex())
	}

	// 1.5 ETH gross plus 30 bps fee, all attached as value.
	wantValue := "1504500000000000000"
	if call.Value == nil || call.Value.String() != wantValue {
		t.Errorf("attached Value = %v, want %s", call.Value, wantValue)
	}

	sprayArgs, err := v3ABI.Methods["spray"].Inputs.Unpack(call.Data[4:])
	if err != nil {
		t.Fatalf("decode spray args: %v", err)
	}
	if tokenArg := sprayArgs[0].(common.Address); tokenArg != (common.Address{}) {
		t.Errorf("spray token = %s, want the zero address", tokenArg.Hex())
	}
}

func TestComposer_Compose_V3WithMetadata(t *testing.T) {
	composer, _ := testComposer(t)

	intent := spraay.BatchIntent{
		Token: usdcToken(),
		Recipients: []spraay.RecipientEntry{
			{Address: recip1.Hex(), Amount: "10.00"},
		},
		Memo:    "payroll june",
		AgentID: 42,
	}
	batch, err := composer.Compose(intent)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	spray := batch.Calls[1]
	if !bytes.Equal(spray.Data[:4], v3ABI.Methods["sprayWithMeta"].ID) {
		t.Fatalf("selector = %x, want sprayWithMeta", spray.Data[:4])
	}
	args, err := v3ABI.Methods["sprayWithMeta"].Inputs.Unpack(spray.Data[4:])
	if err != nil {
		t.Fatalf("decode sprayWithMeta args: %v", err)
	}
	if memo := args[3].(string); memo != "payroll june" {
		t.Errorf("memo = %q, want \"payroll june\"", memo)
	}
	if agentID := args[4].(*big.Int); agentID.Uint64() != 42 {
		t.Errorf("agentId = %s, want 42", agentID)
	}
}

func TestComposer_Compose_V2(t *testing.T) {
	composer, cfg := testComposer(t)

	intent := spraay.BatchIntent{
		Token: usdcToken(),
		Recipients: []spraay.RecipientEntry{
			{Address: recip1.Hex(), Amount: "10.00"},
		},
		// The legacy contract has no metadata surface; the memo is dropped.
		Memo:    "ignored",
		Version: spraay.ContractV2,
	}
	batch, err := composer.Compose(intent)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	v2Contract, _ := cfg.SprayContract(spraay.ContractV2)
	spray := batch.Calls[1]
	if spray.To != v2Contract {
		t.Errorf("spray target = %s, want the V2 contract %s", spray.To.Hex(), v2Contract.Hex())
	}
	if !bytes.Equal(spray.Data[:4], v2ABI.Methods["spray"].ID) {
		t.Errorf("selector = %x, want the V2 spray shape", spray.Data[:4])
	}
}

func TestComposer_Compose_UnsupportedVersion(t *testing.T) {
	composer, _ := testComposer(t)

	intent := spraay.BatchIntent{
		Token:      usdcToken(),
		Recipients: []spraay.RecipientEntry{{Address: recip1.Hex(), Amount: "10.00"}},
		Version:    spraay.ContractVersion("v9"),
	}
	if _, err := composer.Compose(intent); err == nil {
		t.Error("Compose = nil error, want unsupported-version failure")
	}
}

func TestComposer_Compose_ValidationErrors(t *testing.T) {
	composer, _ := testComposer(t)

	overLimit := make([]spraay.RecipientEntry, spraay.MaxBatchRecipients+1)
	for i := range overLimit {
		overLimit[i] = spraay.RecipientEntry{Address: recip1.Hex(), Amount: "1"}
	}

	tests := []struct {
		name       string
		recipients []spraay.RecipientEntry
		wantErr    error
	}{
		{"empty batch", nil, spraay.ErrEmptyRecipients},
		{"over the recipient limit", overLimit, spraay.ErrTooManyRecipients},
		{
			"invalid address",
			[]spraay.RecipientEntry{{Address: "0xnot-an-address", Amount: "1"}},
			spraay.ErrInvalidRecipientAddress,
		},
		{
			"invalid amount",
			[]spraay.RecipientEntry{{Address: recip1.Hex(), Amount: "-1"}},
			spraay.ErrInvalidAmount,
		},
		{
			"precision exceeded",
			[]spraay.RecipientEntry{{Address: recip1.Hex(), Amount: "1.2345678"}},
			spraay.ErrPrecisionExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := spraay.BatchIntent{Token: usdcToken(), Recipients: tt.recipients}
			if _, err := composer.Compose(intent); !errors.Is(err, tt.wantErr) {
				t.Errorf("Compose error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestComposer_Compose_InvalidAddressReportsIndex(t *testing.T) {
	composer, _ := testComposer(t)

	intent := spraay.BatchIntent{
		Token: usdcToken(),
		Recipients: []spraay.RecipientEntry{
			{Address: recip1.Hex(), Amount: "1"},
			{Address: "bogus", Amount: "1"},
		},
	}
	_, err := composer.Compose(intent)

	var engineErr *spraay.EngineError
	if !errors.As(err, &engineErr) {
		t.Fatalf("error %v is not an EngineError", err)
	}
	if engineErr.Details["index"] != 1 {
		t.Errorf("Details[index] = %v, want 1", engineErr.Details["index"])
	}
}

func TestComposer_Compose_FeeOverride(t *testing.T) {
	composer, _ := testComposer(t)

	zeroFee := uint32(0)
	token := usdcToken()
	token.FeeOverrideBps = &zeroFee

	intent := spraay.BatchIntent{
		Token:      token,
		Recipients: []spraay.RecipientEntry{{Address: recip1.Hex(), Amount: "100"}},
	}
	batch, err := composer.Compose(intent)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	if batch.Summary.FeeBps != 0 {
		t.Errorf("FeeBps = %d, want 0 (override)", batch.Summary.FeeBps)
	}
	if batch.Summary.FeeAmount != "0" {
		t.Errorf("FeeAmount = %s, want 0", batch.Summary.FeeAmount)
	}
	if batch.Summary.TotalWithFee != batch.Summary.GrossAmount {
		t.Errorf("TotalWithFee = %s, want gross %s", batch.Summary.TotalWithFee, batch.Summary.GrossAmount)
	}

	values, err := erc20ABI.Methods["approve"].Inputs.Unpack(batch.Calls[0].Data[4:])
	if err != nil {
		t.Fatalf("decode approve args: %v", err)
	}
	if allowance := values[1].(*big.Int); allowance.String() != "100000000" {
		t.Errorf("approve value = %s, want the gross 100000000", allowance)
	}
}

func TestComposer_Compose_MaxRecipients(t *testing.T) {
	composer, _ := testComposer(t)

	entries := make([]spraay.RecipientEntry, spraay.MaxBatchRecipients)
	for i := range entries {
		entries[i] = spraay.RecipientEntry{
			Address: fmt.Sprintf("0x%040x", i+1),
			Amount:  "0.01",
		}
	}
	batch, err := composer.Compose(spraay.BatchIntent{Token: usdcToken(), Recipients: entries})
	if err != nil {
		t.Fatalf("Compose at the limit: %v", err)
	}
	if batch.Summary.RecipientCount != spraay.MaxBatchRecipients {
		t.Errorf("RecipientCount = %d, want %d", batch.Summary.RecipientCount, spraay.MaxBatchRecipients)
	}
}
