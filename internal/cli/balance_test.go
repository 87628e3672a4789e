package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/seqeth/internal/chain/eth/rpc"
	"github.com/mrz1836/seqeth/internal/metrics"
)

const usdcAddress = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"

// tokenContract answers balanceOf, symbol, and decimals for a token
// holding 2.5 units with 6 decimals.
func tokenContract(t *testing.T) nodeHandler {
	t.Helper()
	return func(params []json.RawMessage) (any, *rpc.Error) {
		var call struct {
			Data string `json:"data"`
		}
		if !assert.NoError(t, json.Unmarshal(params[0], &call)) {
			return nil, &rpc.Error{Code: -32602, Message: "invalid params"}
		}
		switch {
		case strings.HasPrefix(call.Data, "0x70a08231"):
			return "0x00000000000000000000000000000000000000000000000000000000002625a0", nil
		case strings.HasPrefix(call.Data, "0x95d89b41"):
			return "0x" +
				"0000000000000000000000000000000000000000000000000000000000000020" +
				"0000000000000000000000000000000000000000000000000000000000000004" +
				"5553444300000000000000000000000000000000000000000000000000000000", nil
		case strings.HasPrefix(call.Data, "0x313ce567"):
			return "0x0000000000000000000000000000000000000000000000000000000000000006", nil
		default:
			return nil, &rpc.Error{Code: 3, Message: "execution reverted"}
		}
	}
}

func TestBalance_Native(t *testing.T) {
	node := devNode(t)
	home := t.TempDir()

	var res BalanceResult
	decodeJSON(t, runOK(t, home, "--rpc", node.URL(), "balance", testAddress), &res)
	assert.Equal(t, BalanceResult{
		Address:   testAddress,
		Symbol:    "ETH",
		Decimals:  18,
		Balance:   "1000000000000000000",
		Formatted: "1",
	}, res)
	assert.Equal(t, 2, node.count("eth_getBalance"), "latest and pending")

	out := runOK(t, home, "--rpc", node.URL(), "-o", "text", "balance", testAddress)
	assert.Contains(t, out, "1 ETH")
}

func TestBalance_Pending(t *testing.T) {
	node := devNode(t).handle("eth_getBalance", func(params []json.RawMessage) (any, *rpc.Error) {
		if string(params[1]) == `"pending"` {
			return "0x1bc16d674ec80000", nil
		}
		return "0xde0b6b3a7640000", nil
	})

	var res BalanceResult
	decodeJSON(t, runOK(t, t.TempDir(), "--rpc", node.URL(), "balance", testAddress), &res)
	assert.Equal(t, "1000000000000000000", res.Unconfirmed)
}

func TestBalance_Cached(t *testing.T) {
	node := devNode(t)
	home := t.TempDir()

	runOK(t, home, "--rpc", node.URL(), "balance", testAddress)
	calls := node.count("eth_getBalance")

	var res BalanceResult
	decodeJSON(t, runOK(t, home, "--rpc", node.URL(), "balance", testAddress, "--cached"), &res)
	assert.True(t, res.Cached)
	assert.Equal(t, "1000000000000000000", res.Balance)
	assert.Equal(t, calls, node.count("eth_getBalance"))
	assert.Equal(t, int64(1), metrics.Global.Snapshot().CacheHits)

	t.Run("stale entries are refreshed", func(t *testing.T) {
		var fresh BalanceResult
		decodeJSON(t, runOK(t, home, "--rpc", node.URL(), "balance", testAddress, "--cached", "--max-age", "1ns"), &fresh)
		assert.False(t, fresh.Cached)
		assert.Greater(t, node.count("eth_getBalance"), calls)
	})

	t.Run("entries are per endpoint", func(t *testing.T) {
		other := devNode(t)
		var fresh BalanceResult
		decodeJSON(t, runOK(t, home, "--rpc", other.URL(), "balance", testAddress, "--cached"), &fresh)
		assert.False(t, fresh.Cached)
		assert.Equal(t, 2, other.count("eth_getBalance"))
	})
}

func TestBalance_Token(t *testing.T) {
	node := devNode(t).handle("eth_call", tokenContract(t))
	home := t.TempDir()

	var res BalanceResult
	decodeJSON(t, runOK(t, home, "--rpc", node.URL(), "balance", testAddress, "--token", "usdc"), &res)
	assert.Equal(t, usdcAddress, res.Token)
	assert.Equal(t, "USDC", res.Symbol)
	assert.Equal(t, 6, res.Decimals)
	assert.Equal(t, "2500000", res.Balance)
	assert.Equal(t, "2.5", res.Formatted)
	assert.Equal(t, 3, node.count("eth_call"))

	r := run(t, home, "--rpc", node.URL(), "balance", testAddress, "--token", "DOGE")
	errOut := errorOutput(t, r)
	assert.Equal(t, "INVALID_INPUT", errOut["kind"])
	assert.Contains(t, errOut["suggestion"], "tokens")
}

func TestSend_Token(t *testing.T) {
	node := devNode(t).handle("eth_call", tokenContract(t))
	home := t.TempDir()

	var res SubmissionResult
	decodeJSON(t, runOK(t, home, "--rpc", node.URL(), "send", testTo, "--token", "USDC", "--value", "12.5", "--private-key", testKeyHex), &res)
	assert.Equal(t, usdcAddress, res.To)
	assert.Empty(t, res.Value, "no ether is sent")

	params := node.lastParams("eth_estimateGas")
	require.Len(t, params, 1)
	var call map[string]any
	require.NoError(t, json.Unmarshal(params[0], &call))
	assert.Equal(t, strings.ToLower(usdcAddress), call["to"])
	assert.Equal(t, "0xa9059cbb"+
		"00000000000000000000000070997970c51812dc3a010c7d01b50e0d17dc79c8"+
		"0000000000000000000000000000000000000000000000000000000000bebc20", call["data"])

	var list JournalList
	decodeJSON(t, runOK(t, home, "deployments", "--kind", "call"), &list)
	require.Len(t, list.Entries, 1)

	r := run(t, home, "--rpc", node.URL(), "send", testTo, "--token", "USDC", "--private-key", testKeyHex)
	assert.Contains(t, errorOutput(t, r)["message"], "--value is required")
}
