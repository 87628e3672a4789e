package config

// DefaultRPCURL is the default node endpoint, a local development node.
const DefaultRPCURL = "http://127.0.0.1:8545"

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.seqeth",
		Network: NetworkConfig{
			RPC:            DefaultRPCURL,
			ChainID:        0,
			TimeoutSeconds: 30,
			RateLimit: RateLimitConfig{
				RequestsPerSecond: 10,
				Burst:             20,
			},
		},
		Receipts: ReceiptsConfig{
			PollAttempts:    30,
			PollBaseDelayMs: 500,
			PollMaxDelayMs:  4000,
		},
		Gas: GasConfig{
			Speed: "medium",
		},
		Tokens: []TokenConfig{
			{Symbol: "USDC", Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"},
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Color:         "auto",
		},
		Logging: LoggingConfig{
			Level: "error",
			File:  "",
		},
	}
}
