package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/seqeth/internal/chain/eth/hexutil"
	"github.com/mrz1836/seqeth/internal/chain/eth/rpc"
	"github.com/mrz1836/seqeth/internal/metrics"
)

const (
	// Hardhat account #0 and its mnemonic.
	testKeyHex   = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80" // gitleaks:allow
	testMnemonic = "test test test test test test test test test test test junk"
	testAddress  = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	testTo       = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
	// first contract created by testAddress
	testContract = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	testTxHash   = "0x88e96d4537bea4d9c05d12549907b32561d3bf31f45aae734cdc119f13406cb6"
	zeroHash     = "0x0000000000000000000000000000000000000000000000000000000000000000"
)

// nodeHandler answers one JSON-RPC method.
type nodeHandler func(params []json.RawMessage) (any, *rpc.Error)

// testNode is an httptest JSON-RPC endpoint with per-method handlers.
type testNode struct {
	t        *testing.T
	server   *httptest.Server
	mu       sync.Mutex
	calls    []string
	params   map[string][]json.RawMessage
	handlers map[string]nodeHandler
}

func newTestNode(t *testing.T) *testNode {
	t.Helper()
	n := &testNode{
		t:        t,
		params:   make(map[string][]json.RawMessage),
		handlers: make(map[string]nodeHandler),
	}
	n.server = httptest.NewServer(http.HandlerFunc(n.serve))
	t.Cleanup(n.server.Close)
	return n
}

// devNode answers the methods a local development chain (id 1337) would.
func devNode(t *testing.T) *testNode {
	t.Helper()
	return newTestNode(t).
		result("eth_chainId", "0x539").
		result("eth_blockNumber", "0x1b4").
		result("eth_gasPrice", "0x3b9aca00").
		result("eth_getTransactionCount", "0x0").
		result("eth_estimateGas", "0x5208").
		result("eth_getBalance", "0xde0b6b3a7640000").
		result("eth_sendRawTransaction", testTxHash).
		result("eth_getBlockByNumber", testBlock(436)).
		result("eth_getBlockByHash", testBlock(436)).
		result("eth_getTransactionReceipt", testReceipt(nil)).
		result("web3_clientVersion", "anvil/v0.2.0/linux-amd64")
}

func (n *testNode) URL() string { return n.server.URL }

func (n *testNode) handle(method string, h nodeHandler) *testNode {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[method] = h
	return n
}

func (n *testNode) result(method string, v any) *testNode {
	return n.handle(method, func([]json.RawMessage) (any, *rpc.Error) { return v, nil })
}

// count returns how many times method was called.
func (n *testNode) count(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, m := range n.calls {
		if m == method {
			c++
		}
	}
	return c
}

// lastParams returns the parameters of the latest call to method.
func (n *testNode) lastParams(method string) []json.RawMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.params[method]
}

func (n *testNode) serve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}
	if !assert.NoError(n.t, json.NewDecoder(r.Body).Decode(&req)) {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	n.mu.Lock()
	n.calls = append(n.calls, req.Method)
	n.params[req.Method] = req.Params
	h, ok := n.handlers[req.Method]
	n.mu.Unlock()

	resp := map[string]any{"jsonrpc": rpc.Version, "id": 1}
	if !ok {
		resp["error"] = &rpc.Error{Code: -32601, Message: "the method " + req.Method + " does not exist"}
	} else if res, rpcErr := h(req.Params); rpcErr != nil {
		resp["error"] = rpcErr
	} else {
		resp["result"] = res
	}
	w.Header().Set("Content-Type", "application/json")
	assert.NoError(n.t, json.NewEncoder(w).Encode(resp))
}

func testBlock(number uint64) map[string]any {
	return map[string]any{
		"number":       hexutil.EncodeUint64Quantity(number),
		"hash":         testTxHash,
		"parentHash":   zeroHash,
		"miner":        "0x05a56e2d52c817161883f50c441c3228cfe54d9f",
		"nonce":        "0x0000000000000042",
		"gasLimit":     "0x1388",
		"gasUsed":      "0x0",
		"timestamp":    "0x55ba4224",
		"difficulty":   "0x3ff800000",
		"size":         "0x219",
		"transactions": []any{},
		"uncles":       []any{},
	}
}

// testReceipt is a successful receipt for testTxHash. A non-nil contract
// makes it a deployment receipt.
func testReceipt(contract *string) map[string]any {
	r := map[string]any{
		"transactionHash":   testTxHash,
		"transactionIndex":  "0x0",
		"blockHash":         zeroHash,
		"blockNumber":       "0x7",
		"from":              testAddress,
		"to":                testTo,
		"cumulativeGasUsed": "0x5208",
		"gasUsed":           "0x5208",
		"effectiveGasPrice": "0x3b9aca00",
		"contractAddress":   nil,
		"logs":              []any{},
		"logsBloom":         "0x",
		"type":              "0x0",
		"status":            "0x1",
	}
	if contract != nil {
		r["to"] = nil
		r["contractAddress"] = *contract
	}
	return r
}

// resetCommandState restores flag values and command contexts left by a
// previous execution. Cobra keeps both on the package-level commands.
func resetCommandState(t *testing.T) {
	t.Helper()
	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		for _, fs := range []*pflag.FlagSet{c.Flags(), c.PersistentFlags()} {
			fs.VisitAll(func(f *pflag.Flag) {
				if sv, ok := f.Value.(pflag.SliceValue); ok {
					require.NoError(t, sv.Replace(nil))
				} else {
					require.NoError(t, f.Value.Set(f.DefValue))
				}
				f.Changed = false
			})
		}
		c.SetContext(nil) //nolint:staticcheck // cobra only inherits the root context into a nil one
		for _, sub := range c.Commands() {
			walk(sub)
		}
	}
	walk(rootCmd)
	active = nil
	metrics.Global.Reset()
}

// execResult is the captured outcome of one seqeth invocation.
type execResult struct {
	stdout string
	stderr string
	err    error
}

// run executes seqeth with home as the data directory. Output is not a
// terminal, so it is JSON unless -o is given.
func run(t *testing.T, home string, args ...string) execResult {
	t.Helper()
	resetCommandState(t)
	t.Cleanup(func() { resetCommandState(t) })

	var stdout, stderr bytes.Buffer
	err := ExecuteArgs(context.Background(), append([]string{"--home", home}, args...), &stdout, &stderr)
	return execResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// runOK runs seqeth and requires success.
func runOK(t *testing.T, home string, args ...string) string {
	t.Helper()
	res := run(t, home, args...)
	require.NoError(t, res.err, "stderr: %s", res.stderr)
	return res.stdout
}

// decodeJSON unmarshals command output into v.
func decodeJSON(t *testing.T, out string, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(out), v), out)
}

// errorOutput decodes the JSON error written to stderr.
func errorOutput(t *testing.T, res execResult) map[string]any {
	t.Helper()
	require.Error(t, res.err)
	var body struct {
		Error map[string]any `json:"error"`
	}
	decodeJSON(t, res.stderr, &body)
	require.NotNil(t, body.Error, res.stderr)
	return body.Error
}

// withMockPrompts replaces the password prompts and restores them on cleanup.
func withMockPrompts(t *testing.T, password string) {
	t.Helper()
	origPW := promptPasswordFn
	origNewPW := promptNewPasswordFn
	t.Cleanup(func() {
		promptPasswordFn = origPW
		promptNewPasswordFn = origNewPW
	})
	promptPasswordFn = func(string) (string, error) { return password, nil }
	promptNewPasswordFn = func() (string, error) { return password, nil }
}
