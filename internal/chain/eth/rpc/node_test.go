package rpc_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/seqeth/internal/chain/eth/rpc"
)

// handler answers one JSON-RPC method. Returning a non-nil *rpc.Error
// sends an error object instead of a result.
type handler func(params []json.RawMessage) (any, *rpc.Error)

// call is one request seen by fakeNode.
type call struct {
	Method string
	Params []json.RawMessage
}

// fakeNode is an httptest JSON-RPC endpoint with per-method handlers.
type fakeNode struct {
	t        *testing.T
	server   *httptest.Server
	mu       sync.Mutex
	calls    []call
	handlers map[string]handler
}

func newFakeNode(t *testing.T) *fakeNode {
	t.Helper()
	n := &fakeNode{t: t, handlers: make(map[string]handler)}
	n.server = httptest.NewServer(http.HandlerFunc(n.serve))
	t.Cleanup(n.server.Close)
	return n
}

func (n *fakeNode) handle(method string, h handler) *fakeNode {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[method] = h
	return n
}

// result registers a handler that always returns v.
func (n *fakeNode) result(method string, v any) *fakeNode {
	return n.handle(method, func([]json.RawMessage) (any, *rpc.Error) { return v, nil })
}

func (n *fakeNode) provider(opts ...rpc.Option) *rpc.Provider {
	return rpc.NewProvider(n.server.URL, opts...)
}

func (n *fakeNode) methods() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.calls))
	for _, c := range n.calls {
		out = append(out, c.Method)
	}
	return out
}

func (n *fakeNode) lastCall() call {
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(n.t, n.calls)
	return n.calls[len(n.calls)-1]
}

func (n *fakeNode) serve(w http.ResponseWriter, r *http.Request) {
	assert.Equal(n.t, http.MethodPost, r.Method)
	assert.Equal(n.t, "application/json", r.Header.Get("Content-Type"))

	var req struct {
		JSONRPC string            `json:"jsonrpc"`
		ID      json.RawMessage   `json:"id"`
		Method  string            `json:"method"`
		Params  []json.RawMessage `json:"params"`
	}
	if !assert.NoError(n.t, json.NewDecoder(r.Body).Decode(&req)) {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	assert.Equal(n.t, rpc.Version, req.JSONRPC)
	assert.JSONEq(n.t, "1", string(req.ID))

	n.mu.Lock()
	n.calls = append(n.calls, call{Method: req.Method, Params: req.Params})
	h, ok := n.handlers[req.Method]
	n.mu.Unlock()

	resp := map[string]any{"jsonrpc": rpc.Version, "id": 1}
	if !ok {
		resp["error"] = &rpc.Error{Code: -32601, Message: "the method " + req.Method + " does not exist"}
	} else if result, rpcErr := h(req.Params); rpcErr != nil {
		resp["error"] = rpcErr
	} else {
		resp["result"] = result
	}
	w.Header().Set("Content-Type", "application/json")
	assert.NoError(n.t, json.NewEncoder(w).Encode(resp))
}

// param decodes the i-th parameter of c into a string.
func (c call) param(t *testing.T, i int) string {
	t.Helper()
	require.Greater(t, len(c.Params), i)
	var s string
	require.NoError(t, json.Unmarshal(c.Params[i], &s))
	return s
}

// staticBody returns a transport that answers every request with body.
func staticBody(status int, body string) rpc.Transport {
	return rpc.TransportFunc(func(_ context.Context, _ string, _ map[string]string, _ []byte) (*rpc.Response, error) {
		return &rpc.Response{Status: status, Body: []byte(body)}, nil
	})
}

// paramsOf returns the parameters of the first call to method.
func (n *fakeNode) paramsOf(method string) []json.RawMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, c := range n.calls {
		if c.Method == method {
			return c.Params
		}
	}
	n.t.Errorf("no call to %s", method)
	return nil
}
