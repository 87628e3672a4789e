// Package eth is an account-level Ethereum client layered on the JSON-RPC
// provider. It adds chain id discovery, tiered gas prices, local nonce
// tracking, balances, and value transfers.
package eth

import (
	"context"
	"math/big"
	"sync"

	"github.com/mrz1836/seqeth/internal/chain"
	"github.com/mrz1836/seqeth/internal/chain/eth/rpc"
	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

// ErrProviderRequired is returned by NewClient without a provider.
//
//nolint:gochecknoglobals // sentinel
var ErrProviderRequired = &seqerr.SequenceError{
	Kind:     seqerr.KindInvalidInput,
	Message:  "an RPC provider is required",
	ExitCode: seqerr.ExitInput,
}

// ClientOptions contains optional configuration for the client.
type ClientOptions struct {
	// ChainID skips chain id discovery when set.
	ChainID *big.Int
	// Nonces shares a nonce tracker between clients of the same node.
	Nonces *NonceManager
}

// Client provides account operations over a Provider.
type Client struct {
	provider *rpc.Provider
	nonces   *NonceManager

	mu      sync.Mutex
	chainID *big.Int
}

// NewClient creates a client over provider.
func NewClient(provider *rpc.Provider, opts *ClientOptions) (*Client, error) {
	if provider == nil {
		return nil, ErrProviderRequired
	}

	c := &Client{provider: provider}
	if opts != nil {
		if opts.ChainID != nil {
			if opts.ChainID.Sign() <= 0 {
				return nil, seqerr.New(seqerr.KindInvalidInput, "chain id must be positive")
			}
			c.chainID = new(big.Int).Set(opts.ChainID)
		}
		c.nonces = opts.Nonces
	}
	if c.nonces == nil {
		c.nonces = NewNonceManager()
	}
	return c, nil
}

// Provider returns the underlying provider.
func (c *Client) Provider() *rpc.Provider { return c.provider }

// ChainID returns the configured chain id, asking the node once when none
// was configured. A failed lookup is retried on the next call.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.chainID == nil {
		id, err := c.provider.ChainID(ctx)
		if err != nil {
			return nil, seqerr.Wrap(err, "getting chain id")
		}
		if id == 0 {
			return nil, seqerr.New(seqerr.KindResponseParseError, "node reported chain id 0")
		}
		c.chainID = new(big.Int).SetUint64(id)
	}
	return new(big.Int).Set(c.chainID), nil
}

// FormatAmount renders wei as ether, e.g. "1.5".
func FormatAmount(wei *big.Int) string {
	return chain.FormatDecimalAmount(wei, chain.Ether.Decimals)
}

// ParseAmount parses an ether amount into wei.
func ParseAmount(ether string) (*big.Int, error) {
	return chain.ParseDecimalAmount(ether, chain.Ether.Decimals)
}
