package eth

import (
	"context"
	"sync"

	ethtypes "github.com/mrz1836/seqeth/internal/chain/eth/types"
)

// NonceManager tracks the next nonce per sender so that transactions sent
// in quick succession do not reuse a nonce the node has not seen yet.
type NonceManager struct {
	mu     sync.Mutex
	nonces map[ethtypes.Address]uint64 // one past the highest nonce handed out
}

// NewNonceManager creates an empty NonceManager.
func NewNonceManager() *NonceManager {
	return &NonceManager{nonces: make(map[ethtypes.Address]uint64)}
}

// Next returns the higher of the node's pending nonce and the locally
// tracked one, and reserves it.
func (nm *NonceManager) Next(addr ethtypes.Address, nodeNonce uint64) uint64 {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	nonce := nodeNonce
	if local, ok := nm.nonces[addr]; ok && local > nodeNonce {
		nonce = local
	}
	nm.nonces[addr] = nonce + 1
	return nonce
}

// Reset forgets the local state for addr, e.g. after a failed broadcast.
func (nm *NonceManager) Reset(addr ethtypes.Address) {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	delete(nm.nonces, addr)
}

// NextNonce reserves the nonce for the next transaction from addr, based
// on the node's pending transaction count.
func (c *Client) NextNonce(ctx context.Context, addr ethtypes.Address) (uint64, error) {
	pending, err := c.provider.TransactionCount(ctx, addr, ethtypes.Pending)
	if err != nil {
		return 0, err
	}
	return c.nonces.Next(addr, pending), nil
}
