// Package evm provides the read-only chain query surface the quote router
// probes through: a thin wrapper over go-ethereum's RPC client that executes
// eth_call against the venue's quoting contract. The underlying connection is
// pooled and safe for concurrent probes; nothing in this package ever signs
// or submits a transaction.
package evm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// Caller executes read-only contract calls over a shared RPC connection.
type Caller struct {
	rpc *rpc.Client
	eth *ethclient.Client
}

// Dial connects to an RPC endpoint and returns a ready-to-use caller.
func Dial(ctx context.Context, rawurl string) (*Caller, error) {
	if rawurl == "" {
		return nil, fmt.Errorf("evm: rpc url cannot be empty")
	}
	client, err := rpc.DialContext(ctx, rawurl)
	if err != nil {
		return nil, fmt.Errorf("evm: failed to dial rpc endpoint: %w", err)
	}
	return &Caller{rpc: client, eth: ethclient.NewClient(client)}, nil
}

// Call executes a read-only contract call at the latest block and returns the
// raw return data. Errors are returned as-is; classification of revert versus
// transport failures is the caller's concern.
func (c *Caller) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	msg := ethereum.CallMsg{To: &to, Data: data}
	return c.eth.CallContract(ctx, msg, nil)
}

// ChainID reports the connected chain's identifier.
func (c *Caller) ChainID(ctx context.Context) (*big.Int, error) {
	return c.eth.ChainID(ctx)
}

// Close releases the underlying RPC connection.
func (c *Caller) Close() {
	c.eth.Close()
}
