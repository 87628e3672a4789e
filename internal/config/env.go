package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/mrz1836/go-sanitize"
)

// Environment variable names.
const (
	EnvHome         = "SEQETH_HOME"
	EnvRPCURL       = "SEQETH_RPC_URL"
	EnvChainID      = "SEQETH_CHAIN_ID"
	EnvLogLevel     = "SEQETH_LOG_LEVEL"
	EnvOutputFormat = "SEQETH_OUTPUT_FORMAT"
	EnvGasSpeed     = "SEQETH_GAS_SPEED"
	EnvPrivateKey   = "SEQETH_PRIVATE_KEY"  // #nosec G101 -- variable name, not a credential
	EnvMnemonic     = "SEQETH_MNEMONIC"     // #nosec G101 -- variable name, not a credential
	EnvKeyPassword  = "SEQETH_KEY_PASSWORD" // #nosec G101 -- variable name, not a credential
	EnvNoColor      = "NO_COLOR"
)

// ApplyEnvironment applies environment variable overrides to the configuration.
// Malformed numeric values are ignored.
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = v
	}

	if v := os.Getenv(EnvRPCURL); v != "" {
		cfg.Network.RPC = SanitizeURL(v)
	}

	if v := os.Getenv(EnvChainID); v != "" {
		if id, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64); err == nil {
			cfg.Network.ChainID = id
		}
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	if v := os.Getenv(EnvOutputFormat); v != "" {
		cfg.Output.DefaultFormat = strings.ToLower(v)
	}

	if v := os.Getenv(EnvGasSpeed); v != "" {
		cfg.Gas.Speed = strings.ToLower(v)
	}

	// NO_COLOR disables colored output
	if _, ok := os.LookupEnv(EnvNoColor); ok {
		cfg.Output.Color = "never"
	}
}

// SanitizeURL trims a user-provided URL and strips characters that cannot
// belong in it, such as pasted newlines and control bytes.
func SanitizeURL(url string) string {
	return sanitize.URL(strings.TrimSpace(url))
}
