package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"clean URL", "https://rpc.example.org/v1/abc", "https://rpc.example.org/v1/abc"},
		{"surrounding spaces", "  http://127.0.0.1:8545  ", "http://127.0.0.1:8545"},
		{"pasted newline", "https://rpc.example.org\n", "https://rpc.example.org"},
		{"embedded tab", "https://rpc.\texample.org", "https://rpc.example.org"},
		{"control characters", "https://rpc.example.org\x00\x1b", "https://rpc.example.org"},
		{"websocket", "wss://rpc.example.org/ws", "wss://rpc.example.org/ws"},
		{"query string", "https://rpc.example.org/?key=a1&v=2", "https://rpc.example.org/?key=a1&v=2"},
		{"empty", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, SanitizeURL(tc.input))
		})
	}
}

//nolint:paralleltest // mutates process environment
func TestApplyEnvironment(t *testing.T) {
	t.Setenv(EnvHome, "/data/seqeth")
	t.Setenv(EnvRPCURL, " https://rpc.example.org \n")
	t.Setenv(EnvChainID, "11155111")
	t.Setenv(EnvLogLevel, "DEBUG")
	t.Setenv(EnvOutputFormat, "JSON")
	t.Setenv(EnvGasSpeed, "Fast")
	t.Setenv(EnvNoColor, "")

	cfg := Defaults()
	ApplyEnvironment(cfg)

	assert.Equal(t, "/data/seqeth", cfg.Home)
	assert.Equal(t, "https://rpc.example.org", cfg.Network.RPC)
	assert.Equal(t, uint64(11155111), cfg.Network.ChainID)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Output.DefaultFormat)
	assert.Equal(t, "fast", cfg.Gas.Speed)
	assert.Equal(t, "never", cfg.Output.Color)
}

//nolint:paralleltest // mutates process environment
func TestApplyEnvironment_IgnoresMalformedChainID(t *testing.T) {
	t.Setenv(EnvChainID, "mainnet")

	cfg := Defaults()
	cfg.Network.ChainID = 5
	ApplyEnvironment(cfg)

	assert.Equal(t, uint64(5), cfg.Network.ChainID)
}

//nolint:paralleltest // mutates process environment
func TestApplyEnvironment_Unset(t *testing.T) {
	t.Setenv(EnvRPCURL, "")

	cfg := Defaults()
	ApplyEnvironment(cfg)

	assert.Equal(t, DefaultRPCURL, cfg.Network.RPC)
}
