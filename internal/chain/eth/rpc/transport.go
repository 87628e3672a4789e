package rpc

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"
)

// maxResponseBytes caps how much of a node response is read.
const maxResponseBytes = 32 << 20

// Response is the raw outcome of one HTTP exchange.
type Response struct {
	Status int
	Body   []byte
}

// Transport posts a request body to a URL. Implementations resolve the
// exchange exactly once: either a Response or an error. Timeouts and
// cancellation belong to the transport and the caller's context.
type Transport interface {
	Post(ctx context.Context, url string, headers map[string]string, body []byte) (*Response, error)
}

// HTTPTransport is the default Transport over net/http.
type HTTPTransport struct {
	Client *http.Client
}

// NewHTTPTransport returns a transport with the given per-request timeout.
// A zero timeout leaves the deadline to the caller's context.
func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{Client: &http.Client{Timeout: timeout}}
}

// Post implements Transport.
func (t *HTTPTransport) Post(ctx context.Context, url string, headers map[string]string, body []byte) (*Response, error) {
	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	// Body.Close only fails on an already broken connection.
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}
	return &Response{Status: resp.StatusCode, Body: data}, nil
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, url string, headers map[string]string, body []byte) (*Response, error)

// Post implements Transport.
func (f TransportFunc) Post(ctx context.Context, url string, headers map[string]string, body []byte) (*Response, error) {
	return f(ctx, url, headers, body)
}
