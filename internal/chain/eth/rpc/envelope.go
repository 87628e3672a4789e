package rpc

import (
	"encoding/json"
	"fmt"
)

// Version is the JSON-RPC protocol version sent with every request.
const Version = "2.0"

// Request is a JSON-RPC 2.0 request envelope.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

// NewRequest builds an envelope for method. Every request carries id 1;
// one HTTP exchange carries exactly one call, so ids never need matching.
func NewRequest(method string, params ...any) Request {
	if params == nil {
		params = []any{}
	}
	return Request{JSONRPC: Version, ID: 1, Method: method, Params: params}
}

// Marshal renders the request body.
func (r Request) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// Error is a JSON-RPC error object returned by the node.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// envelope is the decoded shape of a response body.
type envelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *Error          `json:"error,omitempty"`
}
