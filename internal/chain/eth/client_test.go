package eth_test

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/seqeth/internal/chain/eth"
	"github.com/mrz1836/seqeth/internal/chain/eth/abi"
	ethcrypto "github.com/mrz1836/seqeth/internal/chain/eth/crypto"
	"github.com/mrz1836/seqeth/internal/chain/eth/hexutil"
	"github.com/mrz1836/seqeth/internal/chain/eth/rpc"
	ethtx "github.com/mrz1836/seqeth/internal/chain/eth/tx"
	ethtypes "github.com/mrz1836/seqeth/internal/chain/eth/types"
	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

const testKeyHex = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318" // gitleaks:allow

//nolint:gochecknoglobals // test fixtures
var (
	recipient = ethtypes.MustParseAddress("0x6ac7ea33f8831ea9dcc53393aaa88b25a785dbf0")
	tokenAddr = ethtypes.MustParseAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
)

// node is a minimal JSON-RPC endpoint answering from per-method functions.
type node struct {
	mu       sync.Mutex
	calls    map[string]int
	params   map[string][][]json.RawMessage
	handlers map[string]func(params []json.RawMessage) any
}

func newNode(t *testing.T) (*node, *rpc.Provider) {
	t.Helper()
	n := &node{
		calls:    make(map[string]int),
		params:   make(map[string][][]json.RawMessage),
		handlers: make(map[string]func([]json.RawMessage) any),
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		n.mu.Lock()
		n.calls[req.Method]++
		n.params[req.Method] = append(n.params[req.Method], req.Params)
		h := n.handlers[req.Method]
		n.mu.Unlock()

		resp := map[string]any{"jsonrpc": "2.0", "id": 1}
		if h == nil {
			resp["error"] = map[string]any{"code": -32601, "message": "method not found"}
		} else {
			resp["result"] = h(req.Params)
		}
		assert.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)
	return n, rpc.NewProvider(srv.URL)
}

func (n *node) on(method string, h func([]json.RawMessage) any) *node {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[method] = h
	return n
}

func (n *node) result(method string, v any) *node {
	return n.on(method, func([]json.RawMessage) any { return v })
}

func (n *node) count(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[method]
}

func (n *node) paramString(t *testing.T, method string, call, index int) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.Greater(t, len(n.params[method]), call)
	var s string
	require.NoError(t, json.Unmarshal(n.params[method][call][index], &s))
	return s
}

func word(n int64) string {
	return hexutil.EncodePrefixed(hexutil.PadLeft(big.NewInt(n).Bytes(), 32))
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	_, err := eth.NewClient(nil, nil)
	require.ErrorIs(t, err, eth.ErrProviderRequired)

	_, p := newNode(t)
	_, err = eth.NewClient(p, &eth.ClientOptions{ChainID: big.NewInt(0)})
	require.ErrorIs(t, err, seqerr.ErrInvalidInput)

	c, err := eth.NewClient(p, nil)
	require.NoError(t, err)
	assert.Same(t, p, c.Provider())
}

func TestChainIDIsCached(t *testing.T) {
	t.Parallel()

	n, p := newNode(t)
	n.result("eth_chainId", "0x539")
	c, err := eth.NewClient(p, nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		id, err := c.ChainID(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(1337), id.Int64())
	}
	assert.Equal(t, 1, n.count("eth_chainId"))

	configured, err := eth.NewClient(p, &eth.ClientOptions{ChainID: big.NewInt(5)})
	require.NoError(t, err)
	id, err := configured.ChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), id.Int64())
	assert.Equal(t, 1, n.count("eth_chainId"))
}

func TestChainIDFailureIsRetried(t *testing.T) {
	t.Parallel()

	n, p := newNode(t)
	c, err := eth.NewClient(p, nil)
	require.NoError(t, err)

	_, err = c.ChainID(context.Background())
	require.ErrorIs(t, err, seqerr.ErrRPC)

	n.result("eth_chainId", "0x1")
	id, err := c.ChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), id.Int64())
}

func TestGasPrices(t *testing.T) {
	t.Parallel()

	n, p := newNode(t)
	n.result("eth_gasPrice", "0x4a817c800") // 20 gwei
	c, err := eth.NewClient(p, nil)
	require.NoError(t, err)

	prices, err := c.GasPrices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "16000000000", prices.Slow.String())
	assert.Equal(t, "20000000000", prices.Medium.String())
	assert.Equal(t, "24000000000", prices.Fast.String())
	assert.Equal(t, prices.Medium, prices.For("turbo"))

	fast, err := c.GasPrice(context.Background(), eth.GasSpeedFast)
	require.NoError(t, err)
	assert.Equal(t, "24 gwei", eth.FormatGasPrice(fast))
}

func TestEstimateGas(t *testing.T) {
	t.Parallel()

	n, p := newNode(t)
	n.result("eth_gasPrice", "0x3b9aca00").result("eth_estimateGas", "0x5208")
	c, err := eth.NewClient(p, nil)
	require.NoError(t, err)

	est, err := c.EstimateGas(context.Background(), ethtypes.ContractCall{To: &recipient, Value: big.NewInt(1)}, eth.GasSpeedMedium)
	require.NoError(t, err)
	assert.Equal(t, eth.GasLimitETHTransfer, est.GasLimit)
	assert.Equal(t, "21000000000000", est.Total.String())
}

func TestParseGasSpeed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want eth.GasSpeed
	}{
		{"slow", eth.GasSpeedSlow},
		{"", eth.GasSpeedMedium},
		{"medium", eth.GasSpeedMedium},
		{"fast", eth.GasSpeedFast},
	}
	for _, tc := range tests {
		got, err := eth.ParseGasSpeed(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}

	_, err := eth.ParseGasSpeed("FAST")
	require.ErrorIs(t, err, seqerr.ErrInvalidInput)
}

func TestNativeBalance(t *testing.T) {
	t.Parallel()

	n, p := newNode(t)
	n.on("eth_getBalance", func(params []json.RawMessage) any {
		var tag string
		_ = json.Unmarshal(params[1], &tag)
		if tag == "pending" {
			return "0xd02ab486cedc0000" // 15 ether
		}
		return "0xde0b6b3a7640000" // 1 ether
	})
	c, err := eth.NewClient(p, nil)
	require.NoError(t, err)

	bal, err := c.NativeBalance(context.Background(), recipient)
	require.NoError(t, err)
	assert.Equal(t, "1", eth.FormatAmount(bal.Amount))
	assert.Equal(t, "14", eth.FormatAmount(bal.Unconfirmed))
	assert.Equal(t, "ETH", bal.Symbol)
	assert.Nil(t, bal.Token)
}

func TestNativeBalanceWithoutPendingDelta(t *testing.T) {
	t.Parallel()

	n, p := newNode(t)
	n.result("eth_getBalance", "0x1")
	c, err := eth.NewClient(p, nil)
	require.NoError(t, err)

	bal, err := c.NativeBalance(context.Background(), recipient)
	require.NoError(t, err)
	assert.Nil(t, bal.Unconfirmed)
}

func TestTokenBalance(t *testing.T) {
	t.Parallel()

	symbol, err := abi.EncodeArgs(abi.String("USDC"))
	require.NoError(t, err)

	n, p := newNode(t)
	n.on("eth_call", func(params []json.RawMessage) any {
		var call map[string]string
		_ = json.Unmarshal(params[0], &call)
		switch call["data"][:10] {
		case "0x70a08231":
			return word(2_500_000)
		case "0x313ce567":
			return word(6)
		case "0x95d89b41":
			return hexutil.EncodePrefixed(symbol)
		}
		return "0x"
	})
	c, err := eth.NewClient(p, nil)
	require.NoError(t, err)

	bal, err := c.TokenBalance(context.Background(), recipient, tokenAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(2_500_000), bal.Amount.Int64())
	assert.Equal(t, "USDC", bal.Symbol)
	assert.Equal(t, 6, bal.Decimals)
	require.NotNil(t, bal.Token)
	assert.Equal(t, tokenAddr, *bal.Token)
	assert.Equal(t, 3, n.count("eth_call"))
}

func TestTokenTransferData(t *testing.T) {
	t.Parallel()

	data, err := eth.TokenTransferData(recipient, big.NewInt(1_000_000))
	require.NoError(t, err)
	assert.Equal(t,
		"a9059cbb"+
			"0000000000000000000000006ac7ea33f8831ea9dcc53393aaa88b25a785dbf0"+
			"00000000000000000000000000000000000000000000000000000000000f4240",
		hex.EncodeToString(data))

	_, err = eth.TokenTransferData(recipient, big.NewInt(-1))
	require.ErrorIs(t, err, seqerr.ErrInvalidInput)
}

func sendNode(t *testing.T) (*node, *rpc.Provider) {
	t.Helper()
	n, p := newNode(t)
	n.result("eth_chainId", "0x539").
		result("eth_gasPrice", "0x3b9aca00").
		result("eth_getTransactionCount", "0x4").
		result("eth_estimateGas", "0x5208")
	n.on("eth_sendRawTransaction", func(params []json.RawMessage) any {
		var raw string
		_ = json.Unmarshal(params[0], &raw)
		b, _ := hexutil.Decode(raw)
		return ethcrypto.Keccak256Hash(b).Hex()
	})
	return n, p
}

func TestSendTracksNoncesLocally(t *testing.T) {
	t.Parallel()

	key, err := ethtypes.ParsePrivateKey(testKeyHex)
	require.NoError(t, err)
	n, p := sendNode(t)
	c, err := eth.NewClient(p, nil)
	require.NoError(t, err)

	first, err := c.Send(context.Background(), eth.SendRequest{Key: key, To: &recipient, Value: big.NewInt(1), Speed: eth.GasSpeedFast})
	require.NoError(t, err)
	second, err := c.Send(context.Background(), eth.SendRequest{Key: key, To: &recipient, Value: big.NewInt(1)})
	require.NoError(t, err)

	assert.Equal(t, uint64(4), first.Nonce)
	assert.Equal(t, uint64(5), second.Nonce, "node still reports 4 pending")
	assert.Equal(t, "1200000000", first.GasPrice.BigInt().String())
	assert.Equal(t, "1000000000", second.GasPrice.BigInt().String())
	assert.Equal(t, "pending", n.paramString(t, "eth_getTransactionCount", 0, 1))

	decoded, err := ethtx.DecodeSigned(first.Transaction.Bytes())
	require.NoError(t, err)
	assert.Equal(t, int64(1337), decoded.ChainID().Int64())
}

func TestSendReleasesNonceOnFailure(t *testing.T) {
	t.Parallel()

	key, err := ethtypes.ParsePrivateKey(testKeyHex)
	require.NoError(t, err)
	n, p := sendNode(t)
	n.on("eth_sendRawTransaction", func([]json.RawMessage) any { return nil })
	c, err := eth.NewClient(p, nil)
	require.NoError(t, err)

	_, err = c.Send(context.Background(), eth.SendRequest{Key: key, To: &recipient})
	require.ErrorIs(t, err, seqerr.ErrEmptyResponse)

	accept := func([]json.RawMessage) any { return "0x" + hex.EncodeToString(make([]byte, 32)) }
	n.on("eth_sendRawTransaction", accept)
	sub, err := c.Send(context.Background(), eth.SendRequest{Key: key, To: &recipient})
	require.NoError(t, err)
	assert.Equal(t, uint64(4), sub.Nonce)
}

func TestDeploy(t *testing.T) {
	t.Parallel()

	key, err := ethtypes.ParsePrivateKey(testKeyHex)
	require.NoError(t, err)
	from, err := ethcrypto.PrivateKeyToAddress(key)
	require.NoError(t, err)
	_, p := sendNode(t)
	c, err := eth.NewClient(p, nil)
	require.NoError(t, err)

	code, err := ethtypes.ParseUnsizedData("0x600180600b6000396000f3")
	require.NoError(t, err)
	sub, err := c.Deploy(context.Background(), key, code, eth.GasSpeedMedium)
	require.NoError(t, err)
	require.NotNil(t, sub.ContractAddress)
	assert.Equal(t, ethcrypto.ContractAddress(from, 4), *sub.ContractAddress)

	_, err = c.Deploy(context.Background(), key, nil, eth.GasSpeedMedium)
	require.ErrorIs(t, err, seqerr.ErrInvalidInput)
}

func TestAmounts(t *testing.T) {
	t.Parallel()

	wei, err := eth.ParseAmount("0.25")
	require.NoError(t, err)
	assert.Equal(t, "250000000000000000", wei.String())
	assert.Equal(t, "0.25", eth.FormatAmount(wei))

	_, err = eth.ParseAmount("1e18")
	require.ErrorIs(t, err, seqerr.ErrInvalidInput)
}
