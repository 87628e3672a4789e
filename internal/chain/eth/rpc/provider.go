// Package rpc is a JSON-RPC 2.0 provider for Ethereum nodes: it builds
// request envelopes, posts them through a pluggable transport, and turns
// raw responses into typed results or classified errors.
package rpc

import (
	"context"
	"math/big"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	ethtx "github.com/mrz1836/seqeth/internal/chain/eth/tx"
	ethtypes "github.com/mrz1836/seqeth/internal/chain/eth/types"
	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

// Limiter throttles outgoing requests per endpoint.
type Limiter interface {
	Wait(ctx context.Context, endpoint string) error
}

// Recorder observes completed calls.
type Recorder interface {
	RecordRPCCall(method string, d time.Duration, err error)
}

// Provider issues JSON-RPC calls against one endpoint. It is immutable
// after construction and safe for concurrent use.
type Provider struct {
	url       string
	transport Transport
	logger    zerolog.Logger
	limiter   Limiter
	recorder  Recorder
}

// Option configures a Provider.
type Option func(*Provider)

// WithTransport replaces the default HTTP transport.
func WithTransport(t Transport) Option {
	return func(p *Provider) { p.transport = t }
}

// WithLogger sets the logger used for per-call debug events.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

// WithLimiter throttles calls before they reach the transport.
func WithLimiter(l Limiter) Option {
	return func(p *Provider) { p.limiter = l }
}

// WithRecorder reports every completed call to r.
func WithRecorder(r Recorder) Option {
	return func(p *Provider) { p.recorder = r }
}

// NewProvider returns a provider for url.
func NewProvider(url string, opts ...Option) *Provider {
	p := &Provider{
		url:       url,
		transport: NewHTTPTransport(0),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// With returns a copy of p with opts applied.
func (p *Provider) With(opts ...Option) *Provider {
	clone := *p
	for _, opt := range opts {
		opt(&clone)
	}
	return &clone
}

// URL returns the endpoint.
func (p *Provider) URL() string { return p.url }

//nolint:gochecknoglobals // fixed request headers
var jsonHeaders = map[string]string{"Content-type": "application/json"}

// Send posts a prepared request and returns the raw response body.
func (p *Provider) Send(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	raw, err := p.send(ctx, req)
	elapsed := time.Since(start)

	if p.recorder != nil {
		p.recorder.RecordRPCCall(req.Method, elapsed, err)
	}
	ev := p.logger.Debug().Str("method", req.Method).Dur("duration", elapsed)
	if err != nil {
		ev = ev.Str("kind", seqerr.KindOf(err)).Err(err)
	}
	ev.Msg("rpc call")
	return raw, err
}

func (p *Provider) send(ctx context.Context, req Request) (string, error) {
	body, err := req.Marshal()
	if err != nil {
		return "", seqerr.WrapAs(seqerr.KindEncodingError, err, "encoding %s request", req.Method)
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx, p.url); err != nil {
			return "", seqerr.WrapAs(seqerr.KindTransportError, err, "%s: rate limiter", req.Method)
		}
	}

	resp, err := p.transport.Post(ctx, p.url, jsonHeaders, body)
	if err != nil {
		return "", seqerr.WithSuggestion(
			seqerr.WrapAs(seqerr.KindTransportError, err, "%s: request failed", req.Method),
			"check that the node at "+p.url+" is reachable",
		)
	}
	if resp.Status < 200 || resp.Status > 299 {
		return "", seqerr.WithDetails(
			seqerr.Newf(seqerr.KindRequestFail, "%s: node answered HTTP %d", req.Method, resp.Status),
			map[string]string{"status": strconv.Itoa(resp.Status), "body": abbreviate(string(resp.Body))},
		)
	}
	return string(resp.Body), nil
}

// Invoke calls method and returns the raw response body.
func (p *Provider) Invoke(ctx context.Context, method string, params ...any) (string, error) {
	return p.Send(ctx, NewRequest(method, params...))
}

func abbreviate(s string) string {
	const limit = 200
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}

func (p *Provider) block(ctx context.Context, method string, param any) (*ethtypes.Block, error) {
	raw, err := p.Invoke(ctx, method, param, true)
	if err != nil {
		return nil, err
	}
	var b ethtypes.Block
	if err := decodeObject(raw, &b); err != nil {
		return nil, seqerr.Wrap(err, "%s", method)
	}
	b.Raw, _ = ExtractJSONObjectResult(raw)
	return &b, nil
}

// BlockByNumber fetches a block, with full transactions, by height.
func (p *Provider) BlockByNumber(ctx context.Context, number uint64) (*ethtypes.Block, error) {
	return p.block(ctx, "eth_getBlockByNumber", ethtypes.BlockNumber(number).Param())
}

// BlockByTag fetches a block by symbolic tag.
func (p *Provider) BlockByTag(ctx context.Context, tag ethtypes.BlockTag) (*ethtypes.Block, error) {
	return p.block(ctx, "eth_getBlockByNumber", tag.Param())
}

// BlockByRef fetches a block by number or tag.
func (p *Provider) BlockByRef(ctx context.Context, ref ethtypes.BlockRef) (*ethtypes.Block, error) {
	return p.block(ctx, "eth_getBlockByNumber", ref.Param())
}

// BlockByHash fetches a block by hash.
func (p *Provider) BlockByHash(ctx context.Context, hash ethtypes.Hash256) (*ethtypes.Block, error) {
	return p.block(ctx, "eth_getBlockByHash", hash.Hex())
}

// HeaderByNumber fetches the header of the block at number.
func (p *Provider) HeaderByNumber(ctx context.Context, number uint64) (*ethtypes.Header, error) {
	return headerOf(p.BlockByNumber(ctx, number))
}

// HeaderByTag fetches the header of the tagged block.
func (p *Provider) HeaderByTag(ctx context.Context, tag ethtypes.BlockTag) (*ethtypes.Header, error) {
	return headerOf(p.BlockByTag(ctx, tag))
}

// HeaderByHash fetches the header of the block with hash.
func (p *Provider) HeaderByHash(ctx context.Context, hash ethtypes.Hash256) (*ethtypes.Header, error) {
	return headerOf(p.BlockByHash(ctx, hash))
}

func headerOf(b *ethtypes.Block, err error) (*ethtypes.Header, error) {
	if err != nil {
		return nil, err
	}
	h := b.Header
	return &h, nil
}

// BlockNumber returns the height of the latest block.
func (p *Provider) BlockNumber(ctx context.Context) (uint64, error) {
	raw, err := p.Invoke(ctx, "eth_blockNumber")
	if err != nil {
		return 0, err
	}
	return ExtractUIntResult(raw)
}

// NonceAt returns the proof-of-work nonce stored in the header of the
// referenced block. Post-merge blocks report zero.
func (p *Provider) NonceAt(ctx context.Context, ref ethtypes.BlockRef) (ethtypes.BlockNonce, error) {
	b, err := p.BlockByRef(ctx, ref)
	if err != nil {
		return ethtypes.BlockNonce{}, err
	}
	return b.Nonce, nil
}

// TransactionByHash fetches a transaction.
func (p *Provider) TransactionByHash(ctx context.Context, hash ethtypes.Hash256) (*ethtypes.RPCTransaction, error) {
	raw, err := p.Invoke(ctx, "eth_getTransactionByHash", hash.Hex())
	if err != nil {
		return nil, err
	}
	var tx ethtypes.RPCTransaction
	if err := decodeObject(raw, &tx); err != nil {
		return nil, seqerr.Wrap(err, "eth_getTransactionByHash")
	}
	return &tx, nil
}

// TransactionCount returns the number of transactions sent from addr as of
// ref, which is the account nonce for the next transaction.
func (p *Provider) TransactionCount(ctx context.Context, addr ethtypes.Address, ref ethtypes.BlockRef) (uint64, error) {
	raw, err := p.Invoke(ctx, "eth_getTransactionCount", addr.Hex(), ref.Param())
	if err != nil {
		return 0, err
	}
	return ExtractUIntResult(raw)
}

// Balance returns the wei balance of addr as of ref.
func (p *Provider) Balance(ctx context.Context, addr ethtypes.Address, ref ethtypes.BlockRef) (*big.Int, error) {
	raw, err := p.Invoke(ctx, "eth_getBalance", addr.Hex(), ref.Param())
	if err != nil {
		return nil, err
	}
	return ExtractBigResult(raw)
}

// GasPrice returns the node's suggested gas price in wei.
func (p *Provider) GasPrice(ctx context.Context) (ethtypes.UnsizedData, error) {
	raw, err := p.Invoke(ctx, "eth_gasPrice")
	if err != nil {
		return nil, err
	}
	return ExtractDataResult(raw)
}

// EstimateContractCallGas estimates the gas used by call.
func (p *Provider) EstimateContractCallGas(ctx context.Context, call ethtypes.ContractCall) (ethtypes.UnsizedData, error) {
	raw, err := p.Invoke(ctx, "eth_estimateGas", call)
	if err != nil {
		return nil, err
	}
	return ExtractDataResult(raw)
}

// EstimateDeploymentGas estimates the gas used to deploy bytecode from.
func (p *Provider) EstimateDeploymentGas(ctx context.Context, from ethtypes.Address, bytecode ethtypes.UnsizedData) (ethtypes.UnsizedData, error) {
	return p.EstimateContractCallGas(ctx, ethtypes.ContractCall{From: &from, Data: bytecode})
}

// SendRawTransaction broadcasts a signed transaction and returns its hash.
func (p *Provider) SendRawTransaction(ctx context.Context, raw ethtypes.UnsizedData) (ethtypes.Hash256, error) {
	body, err := p.Invoke(ctx, "eth_sendRawTransaction", raw.Hex())
	if err != nil {
		return ethtypes.Hash256{}, err
	}
	return ExtractHashResult(body)
}

// ChainID returns the chain id used for EIP-155 signing.
func (p *Provider) ChainID(ctx context.Context) (uint64, error) {
	raw, err := p.Invoke(ctx, "eth_chainId")
	if err != nil {
		return 0, err
	}
	return ExtractUIntResult(raw)
}

// ClientVersion returns the node's web3_clientVersion string, e.g.
// "Geth/v1.13.5-stable/linux-amd64/go1.21.4".
func (p *Provider) ClientVersion(ctx context.Context) (string, error) {
	raw, err := p.Invoke(ctx, "web3_clientVersion")
	if err != nil {
		return "", err
	}
	return ExtractStringResult(raw)
}

// Call executes a read-only contract call against the state at ref.
func (p *Provider) Call(ctx context.Context, call ethtypes.ContractCall, ref ethtypes.BlockRef) (ethtypes.UnsizedData, error) {
	raw, err := p.Invoke(ctx, "eth_call", call, ref.Param())
	if err != nil {
		return nil, err
	}
	return ExtractDataResult(raw)
}

// NonViewCall signs tx for chainID and broadcasts it, returning the hash.
func (p *Provider) NonViewCall(ctx context.Context, tx ethtx.EthTransaction, key ethtypes.PrivateKey, chainID *big.Int) (ethtypes.Hash256, error) {
	signed, err := tx.Sign(key, chainID)
	if err != nil {
		return ethtypes.Hash256{}, err
	}
	return p.SendRawTransaction(ctx, signed.Bytes())
}

// TransactionReceipt fetches the receipt of a mined transaction. A pending
// or unknown transaction yields EmptyResponse.
func (p *Provider) TransactionReceipt(ctx context.Context, hash ethtypes.Hash256) (*ethtypes.Receipt, error) {
	raw, err := p.Invoke(ctx, "eth_getTransactionReceipt", hash.Hex())
	if err != nil {
		return nil, err
	}
	var r ethtypes.Receipt
	if err := decodeObject(raw, &r); err != nil {
		return nil, seqerr.Wrap(err, "eth_getTransactionReceipt")
	}
	return &r, nil
}
