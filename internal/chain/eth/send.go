package eth

import (
	"context"
	"math/big"

	"github.com/mrz1836/seqeth/internal/chain/eth/abi"
	ethcrypto "github.com/mrz1836/seqeth/internal/chain/eth/crypto"
	"github.com/mrz1836/seqeth/internal/chain/eth/rpc"
	ethtypes "github.com/mrz1836/seqeth/internal/chain/eth/types"
	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

//nolint:gochecknoglobals // parsed once
var transferSig = abi.MustParseSignature("transfer(address,uint256)")

// SendRequest describes a transaction to sign and broadcast. A nil To
// deploys Data as contract bytecode. A nil GasLimit asks the node.
type SendRequest struct {
	Key      ethtypes.PrivateKey
	To       *ethtypes.Address
	Value    *big.Int
	Data     ethtypes.UnsizedData
	Speed    GasSpeed
	GasLimit *uint64
	Observer rpc.StageObserver
}

// Send resolves the chain id, a locally tracked nonce, and a gas price
// for req.Speed, then runs the provider's transaction pipeline. A failed
// pipeline releases the nonce reservation.
func (c *Client) Send(ctx context.Context, req SendRequest) (*rpc.Submission, error) {
	from, err := ethcrypto.PrivateKeyToAddress(req.Key)
	if err != nil {
		return nil, err
	}
	chainID, err := c.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	price, err := c.GasPrice(ctx, req.Speed)
	if err != nil {
		return nil, err
	}
	nonce, err := c.NextNonce(ctx, from)
	if err != nil {
		return nil, seqerr.Wrap(err, "getting nonce")
	}

	sub, err := c.provider.Transact(ctx, rpc.TransactRequest{
		Key:      req.Key,
		ChainID:  chainID,
		To:       req.To,
		Value:    req.Value,
		Data:     req.Data,
		Nonce:    &nonce,
		GasPrice: price,
		GasLimit: req.GasLimit,
		Observer: req.Observer,
	})
	if err != nil {
		c.nonces.Reset(from)
		return nil, err
	}
	return sub, nil
}

// Deploy broadcasts a contract creation. The returned submission carries
// the address the contract will have once mined.
func (c *Client) Deploy(ctx context.Context, key ethtypes.PrivateKey, bytecode ethtypes.UnsizedData, speed GasSpeed) (*rpc.Submission, error) {
	if len(bytecode) == 0 {
		return nil, seqerr.New(seqerr.KindInvalidInput, "bytecode is empty")
	}
	return c.Send(ctx, SendRequest{Key: key, Data: bytecode, Speed: speed})
}

// TransferToken sends amount of an ERC-20 token to recipient.
func (c *Client) TransferToken(ctx context.Context, key ethtypes.PrivateKey, token, recipient ethtypes.Address, amount *big.Int, speed GasSpeed) (*rpc.Submission, error) {
	data, err := TokenTransferData(recipient, amount)
	if err != nil {
		return nil, err
	}
	return c.Send(ctx, SendRequest{Key: key, To: &token, Data: data, Speed: speed})
}

// TokenTransferData builds calldata for transfer(address,uint256).
func TokenTransferData(recipient ethtypes.Address, amount *big.Int) (ethtypes.UnsizedData, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, seqerr.New(seqerr.KindInvalidInput, "token amount must be non-negative")
	}
	return transferSig.Encode(abi.Address(recipient), abi.UInt(amount))
}
