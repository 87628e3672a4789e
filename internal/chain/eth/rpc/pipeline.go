package rpc

import (
	"context"
	"math/big"

	ethcrypto "github.com/mrz1836/seqeth/internal/chain/eth/crypto"
	ethtx "github.com/mrz1836/seqeth/internal/chain/eth/tx"
	ethtypes "github.com/mrz1836/seqeth/internal/chain/eth/types"
	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

// Stage is a step of the sign-and-broadcast pipeline.
type Stage int

// Pipeline stages in execution order.
const (
	StageFetchingNonce Stage = iota
	StageFetchingGasPrice
	StageEstimatingGas
	StageSigning
	StageBroadcasting
	StageDone
)

//nolint:gochecknoglobals // fixed lookup table
var stageNames = [...]string{
	StageFetchingNonce:    "fetching_nonce",
	StageFetchingGasPrice: "fetching_gas_price",
	StageEstimatingGas:    "estimating_gas",
	StageSigning:          "signing",
	StageBroadcasting:     "broadcasting",
	StageDone:             "done",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// StageObserver is told when the pipeline enters each stage.
type StageObserver func(Stage)

// TransactRequest describes a transaction to build, sign, and broadcast.
// A nil To deploys Data as contract bytecode. Nonce, GasPrice, and GasLimit
// are fetched from the node when nil.
type TransactRequest struct {
	Key      ethtypes.PrivateKey
	ChainID  *big.Int
	To       *ethtypes.Address
	Value    *big.Int
	Data     ethtypes.UnsizedData
	Nonce    *uint64
	GasPrice *big.Int
	GasLimit *uint64
	Observer StageObserver
}

// Submission is the outcome of a broadcast. ContractAddress is set for
// deployments. The transaction is not yet mined.
type Submission struct {
	From            ethtypes.Address
	Nonce           uint64
	GasPrice        ethtypes.UnsizedData
	GasLimit        ethtypes.UnsizedData
	ContractAddress *ethtypes.Address
	Transaction     ethtx.SignedTransaction
	TxHash          ethtypes.Hash256
}

// pipeline carries state between stages.
type pipeline struct {
	p    *Provider
	req  TransactRequest
	from ethtypes.Address
	sub  Submission
	tx   ethtx.EthTransaction
}

// Transact runs FetchingNonce, FetchingGasPrice, EstimatingGas, Signing,
// and Broadcasting in order. A deployment's contract address is derived
// from the nonce fetched at the latest block. The first failure stops the
// pipeline and is returned as is; nothing is broadcast before the final stage.
func (p *Provider) Transact(ctx context.Context, req TransactRequest) (*Submission, error) {
	from, err := ethcrypto.PrivateKeyToAddress(req.Key)
	if err != nil {
		return nil, err
	}
	if req.ChainID == nil || req.ChainID.Sign() <= 0 {
		return nil, seqerr.New(seqerr.KindEncodingError, "chain id must be positive")
	}

	pl := &pipeline{p: p, req: req, from: from}
	pl.sub.From = from
	component := "transact"
	if req.To == nil {
		component = "deploy"
	}
	log := p.logger.With().Str("component", component).Str("from", from.Hex()).Logger()

	for stage := StageFetchingNonce; stage < StageDone; stage++ {
		if err := ctx.Err(); err != nil {
			return nil, seqerr.WrapAs(seqerr.KindTransportError, err, "canceled before %s", stage)
		}
		if req.Observer != nil {
			req.Observer(stage)
		}
		log.Debug().Str("stage", stage.String()).Msg("entering stage")
		if err := pl.run(ctx, stage); err != nil {
			log.Debug().Str("stage", stage.String()).Str("kind", seqerr.KindOf(err)).Err(err).Msg("stage failed")
			return nil, err
		}
	}

	if req.Observer != nil {
		req.Observer(StageDone)
	}
	ev := log.Info().Str("tx", pl.sub.TxHash.Hex()).Uint64("nonce", pl.sub.Nonce)
	if pl.sub.ContractAddress != nil {
		ev = ev.Str("contract", pl.sub.ContractAddress.Hex())
	}
	ev.Msg("transaction broadcast")
	return &pl.sub, nil
}

func (pl *pipeline) run(ctx context.Context, stage Stage) error {
	switch stage {
	case StageFetchingNonce:
		if pl.req.Nonce != nil {
			pl.sub.Nonce = *pl.req.Nonce
			return nil
		}
		nonce, err := pl.p.TransactionCount(ctx, pl.from, ethtypes.Latest)
		if err != nil {
			return err
		}
		pl.sub.Nonce = nonce
		return nil

	case StageFetchingGasPrice:
		if pl.req.GasPrice != nil {
			pl.sub.GasPrice = ethtypes.UnsizedFromBig(pl.req.GasPrice)
			return nil
		}
		price, err := pl.p.GasPrice(ctx)
		if err != nil {
			return err
		}
		pl.sub.GasPrice = price
		return nil

	case StageEstimatingGas:
		if pl.req.GasLimit != nil {
			pl.sub.GasLimit = ethtypes.UnsizedFromUint64(*pl.req.GasLimit)
			return nil
		}
		var limit ethtypes.UnsizedData
		var err error
		if pl.req.To == nil && pl.req.Value == nil {
			limit, err = pl.p.EstimateDeploymentGas(ctx, pl.from, pl.req.Data)
		} else {
			from := pl.from
			limit, err = pl.p.EstimateContractCallGas(ctx, ethtypes.ContractCall{
				From:  &from,
				To:    pl.req.To,
				Value: pl.req.Value,
				Data:  pl.req.Data,
			})
		}
		if err != nil {
			return err
		}
		pl.sub.GasLimit = limit
		return nil

	case StageSigning:
		pl.tx = ethtx.EthTransaction{
			Nonce:    ethtypes.UnsizedFromUint64(pl.sub.Nonce),
			GasPrice: pl.sub.GasPrice,
			GasLimit: pl.sub.GasLimit,
			To:       pl.req.To,
			Value:    ethtypes.UnsizedFromBig(pl.req.Value),
			Data:     pl.req.Data.Clone(),
		}
		if pl.tx.IsContractCreation() {
			addr := ethcrypto.ContractAddress(pl.from, pl.sub.Nonce)
			pl.sub.ContractAddress = &addr
		}
		signed, err := pl.tx.Sign(pl.req.Key, pl.req.ChainID)
		if err != nil {
			return err
		}
		pl.sub.Transaction = signed
		return nil

	case StageBroadcasting:
		hash, err := pl.p.SendRawTransaction(ctx, pl.sub.Transaction.Bytes())
		if err != nil {
			return err
		}
		pl.sub.TxHash = hash
		return nil

	default:
		return nil
	}
}

// DeployContract deploys bytecode and returns the address the contract
// will have once mined. Poll TransactionReceipt to confirm.
func (p *Provider) DeployContract(ctx context.Context, bytecode ethtypes.UnsizedData, key ethtypes.PrivateKey, chainID *big.Int) (ethtypes.Address, error) {
	addr, _, err := p.DeployContractWithHash(ctx, bytecode, key, chainID)
	return addr, err
}

// DeployContractWithHash is DeployContract that also returns the
// transaction hash.
func (p *Provider) DeployContractWithHash(ctx context.Context, bytecode ethtypes.UnsizedData, key ethtypes.PrivateKey, chainID *big.Int) (ethtypes.Address, ethtypes.Hash256, error) {
	sub, err := p.Transact(ctx, TransactRequest{Key: key, ChainID: chainID, Data: bytecode})
	if err != nil {
		return ethtypes.Address{}, ethtypes.Hash256{}, err
	}
	return *sub.ContractAddress, sub.TxHash, nil
}
