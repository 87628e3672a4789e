package rpc

import (
	"context"

	"github.com/mrz1836/seqeth/internal/chain"
	ethtypes "github.com/mrz1836/seqeth/internal/chain/eth/types"
	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

// WaitForReceipt polls for the receipt of hash until it is mined, backing
// off per cfg. A receipt that is still missing after the last attempt is
// reported as EmptyResponse; other failures stop polling immediately.
func (p *Provider) WaitForReceipt(ctx context.Context, hash ethtypes.Hash256, cfg chain.RetryConfig) (*ethtypes.Receipt, error) {
	attempt := 0
	return chain.RetryWithConfig(ctx, cfg, func() (*ethtypes.Receipt, error) {
		attempt++
		r, err := p.TransactionReceipt(ctx, hash)
		if seqerr.KindOf(err) == seqerr.KindEmptyResponse {
			p.logger.Debug().Str("tx", hash.Hex()).Int("attempt", attempt).Msg("receipt not available yet")
			return nil, chain.WrapRetryable(err)
		}
		return r, err
	})
}
