package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/seqeth/internal/chain/eth/rpc"
)

func TestStatus(t *testing.T) {
	node := devNode(t)
	home := t.TempDir()

	var res StatusResult
	decodeJSON(t, runOK(t, home, "--rpc", node.URL(), "status"), &res)

	assert.Equal(t, node.URL(), res.RPC)
	assert.Equal(t, "anvil 0.2.0", res.Client)
	assert.Equal(t, uint64(1337), res.ChainID)
	assert.Equal(t, uint64(436), res.BlockNumber)
	assert.Equal(t, "1 gwei", res.GasMedium)
	assert.NotEmpty(t, res.GasSlow)
	assert.NotEmpty(t, res.GasFast)
}

func TestStatus_ClientVersionOptional(t *testing.T) {
	node := devNode(t).handle("web3_clientVersion", func([]json.RawMessage) (any, *rpc.Error) {
		return nil, &rpc.Error{Code: -32601, Message: "method not found"}
	})

	var res StatusResult
	decodeJSON(t, runOK(t, t.TempDir(), "--rpc", node.URL(), "status"), &res)
	assert.Empty(t, res.Client)
	assert.Equal(t, uint64(1337), res.ChainID)
}

func TestStatus_ConfiguredChainIDSkipsDiscovery(t *testing.T) {
	node := devNode(t)
	var res StatusResult
	decodeJSON(t, runOK(t, t.TempDir(), "--rpc", node.URL(), "--chain-id", "31337", "status"), &res)

	assert.Equal(t, uint64(31337), res.ChainID)
	assert.Zero(t, node.count("eth_chainId"))
}

func TestStatus_Text(t *testing.T) {
	node := devNode(t)
	out := runOK(t, t.TempDir(), "--rpc", node.URL(), "-o", "text", "status")
	assert.Contains(t, out, "Chain ID")
	assert.Contains(t, out, "1337")
	assert.Contains(t, out, "anvil 0.2.0")
}

func TestBlock(t *testing.T) {
	node := devNode(t)
	home := t.TempDir()

	t.Run("latest by default", func(t *testing.T) {
		var block map[string]any
		decodeJSON(t, runOK(t, home, "--rpc", node.URL(), "block"), &block)
		assert.Equal(t, "0x1b4", block["number"])
		assert.Equal(t, "0x219", block["size"])

		params := node.lastParams("eth_getBlockByNumber")
		require.Len(t, params, 2)
		assert.JSONEq(t, `"latest"`, string(params[0]))
	})

	t.Run("by number", func(t *testing.T) {
		runOK(t, home, "--rpc", node.URL(), "block", "436")
		params := node.lastParams("eth_getBlockByNumber")
		require.Len(t, params, 2)
		assert.JSONEq(t, `"0x1b4"`, string(params[0]))
	})

	t.Run("by hash", func(t *testing.T) {
		runOK(t, home, "--rpc", node.URL(), "block", testTxHash)
		assert.Equal(t, 1, node.count("eth_getBlockByHash"))
	})

	t.Run("text", func(t *testing.T) {
		out := runOK(t, home, "--rpc", node.URL(), "-o", "text", "block", "latest")
		assert.Contains(t, out, "Number")
		assert.Contains(t, out, "436")
		assert.Contains(t, out, "Transactions")
	})

	t.Run("invalid block", func(t *testing.T) {
		res := run(t, home, "--rpc", node.URL(), "block", "soon")
		errOut := errorOutput(t, res)
		assert.InDelta(t, 2, errOut["exit_code"], 0)
		assert.Equal(t, 2, ExitCode(res.err))
	})
}

func TestBlock_NotFound(t *testing.T) {
	node := devNode(t).result("eth_getBlockByNumber", nil)
	res := run(t, t.TempDir(), "--rpc", node.URL(), "block", "999999")
	errOut := errorOutput(t, res)
	assert.Equal(t, "EMPTY_RESPONSE", errOut["kind"])
	assert.Equal(t, 4, ExitCode(res.err))
}

func TestHeader(t *testing.T) {
	node := devNode(t)
	home := t.TempDir()

	var header map[string]any
	decodeJSON(t, runOK(t, home, "--rpc", node.URL(), "header"), &header)
	assert.Equal(t, "0x1b4", header["number"])
	assert.Equal(t, "0x0000000000000042", header["nonce"])

	out := runOK(t, home, "--rpc", node.URL(), "-o", "text", "header")
	assert.Contains(t, out, "Parent")
	assert.Contains(t, out, "Miner")
}

func TestNonce(t *testing.T) {
	node := devNode(t).result("eth_getTransactionCount", "0x5")
	home := t.TempDir()

	var res NonceResult
	decodeJSON(t, runOK(t, home, "--rpc", node.URL(), "nonce", testAddress), &res)
	assert.Equal(t, NonceResult{Address: testAddress, Block: "latest", Nonce: 5}, res)

	out := runOK(t, home, "--rpc", node.URL(), "-o", "text", "nonce", testAddress, "--block", "pending")
	assert.Equal(t, "5\n", out)
	params := node.lastParams("eth_getTransactionCount")
	require.Len(t, params, 2)
	assert.JSONEq(t, `"pending"`, string(params[1]))
}

func TestNonce_InvalidAddress(t *testing.T) {
	node := devNode(t)
	res := run(t, t.TempDir(), "--rpc", node.URL(), "nonce", "not-an-address")

	errOut := errorOutput(t, res)
	assert.Equal(t, "PARSE_ERROR", errOut["kind"])
	assert.NotEmpty(t, errOut["suggestion"])
	assert.Equal(t, 2, ExitCode(res.err))
	assert.Zero(t, node.count("eth_getTransactionCount"))
	assert.Empty(t, res.stdout)
}

func TestTx(t *testing.T) {
	tx := map[string]any{
		"hash":             testTxHash,
		"nonce":            "0x3",
		"blockHash":        zeroHash,
		"blockNumber":      "0x7",
		"transactionIndex": "0x0",
		"from":             testAddress,
		"to":               testTo,
		"value":            "0xde0b6b3a7640000",
		"gasPrice":         "0x3b9aca00",
		"gas":              "0x5208",
		"input":            "0x",
		"v":                "0xa95",
		"r":                "0x1",
		"s":                "0x2",
	}
	node := devNode(t).result("eth_getTransactionByHash", tx)
	home := t.TempDir()

	var got map[string]any
	decodeJSON(t, runOK(t, home, "--rpc", node.URL(), "tx", testTxHash), &got)
	assert.Equal(t, testTxHash, got["hash"])
	assert.Equal(t, "0x3", got["nonce"])

	out := runOK(t, home, "--rpc", node.URL(), "-o", "text", "tx", testTxHash)
	assert.Contains(t, out, testTo)
	assert.Contains(t, out, "1 gwei")
}

func TestRPCErrorExitCode(t *testing.T) {
	node := newTestNode(t).handle("eth_getTransactionCount", func([]json.RawMessage) (any, *rpc.Error) {
		return nil, &rpc.Error{Code: -32000, Message: "header not found"}
	})
	res := run(t, t.TempDir(), "--rpc", node.URL(), "nonce", testAddress)

	errOut := errorOutput(t, res)
	assert.Equal(t, "RPC_ERROR", errOut["kind"])
	assert.Contains(t, errOut["message"], "header not found")
	assert.Equal(t, 4, ExitCode(res.err))
}

func TestErrorOutput_Text(t *testing.T) {
	res := run(t, t.TempDir(), "-o", "text", "nonce", "0x1234")
	require.Error(t, res.err)
	assert.Contains(t, res.stderr, "Error [PARSE_ERROR]")
	assert.Contains(t, res.stderr, "Suggestion:")
}
