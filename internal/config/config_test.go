package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/seqeth/internal/config"
	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

func TestLoadSave_RoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := config.Defaults()
	cfg.Network.RPC = "https://rpc.example.org"
	cfg.Network.ChainID = 11155111
	cfg.Receipts.PollAttempts = 7

	require.NoError(t, config.Save(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("network:\n  chain_id: 1337\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(1337), cfg.Network.ChainID)
	assert.Equal(t, config.DefaultRPCURL, cfg.Network.RPC)
	assert.Equal(t, 30, cfg.Receipts.PollAttempts)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	_, err := config.Load(filepath.Join(dir, "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("network: [unclosed"), 0o600))
	_, err = config.Load(bad)
	require.ErrorIs(t, err, seqerr.ErrInvalidInput)
}

func TestLoadOrDefault(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadOrDefault(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Defaults(), cfg)
}

func TestDefaults(t *testing.T) {
	t.Parallel()
	cfg := config.Defaults()

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "~/.seqeth", cfg.Home)
	assert.Equal(t, config.DefaultRPCURL, cfg.Network.RPC)
	assert.Equal(t, uint64(0), cfg.Network.ChainID)
	assert.Equal(t, 30*time.Second, cfg.Timeout())
	assert.Equal(t, "medium", cfg.Gas.Speed)
	assert.Equal(t, "auto", cfg.Output.DefaultFormat)
	assert.Equal(t, "error", cfg.Logging.Level)
	require.NoError(t, cfg.Validate())
}

func TestReceiptRetry(t *testing.T) {
	t.Parallel()
	cfg := config.Defaults()

	r := cfg.ReceiptRetry()
	assert.Equal(t, 30, r.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, r.BaseDelay)
	assert.Equal(t, 4*time.Second, r.MaxDelay)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config.Config)
		field  string
	}{
		{"missing rpc", func(c *config.Config) { c.Network.RPC = "" }, "Config.network.rpc"},
		{"rpc not a url", func(c *config.Config) { c.Network.RPC = "localhost" }, "Config.network.rpc"},
		{"zero timeout", func(c *config.Config) { c.Network.TimeoutSeconds = 0 }, "Config.network.timeout_seconds"},
		{"negative rate", func(c *config.Config) { c.Network.RateLimit.RequestsPerSecond = -1 }, "Config.network.rate_limit.requests_per_second"},
		{"zero burst", func(c *config.Config) { c.Network.RateLimit.Burst = 0 }, "Config.network.rate_limit.burst"},
		{"max below base", func(c *config.Config) { c.Receipts.PollMaxDelayMs = 10 }, "Config.receipts.poll_max_delay_ms"},
		{"unknown speed", func(c *config.Config) { c.Gas.Speed = "ludicrous" }, "Config.gas.speed"},
		{"unknown format", func(c *config.Config) { c.Output.DefaultFormat = "xml" }, "Config.output.default_format"},
		{"bad token address", func(c *config.Config) { c.Tokens[0].Address = "0x1234" }, "Config.tokens[0].address"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := config.Defaults()
			tc.mutate(cfg)

			err := cfg.Validate()
			require.ErrorIs(t, err, seqerr.ErrInvalidInput)

			var se *seqerr.SequenceError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tc.field, se.Details["field"])
			assert.NotEmpty(t, seqerr.SuggestionOf(err))
		})
	}
}

func TestJournalPath(t *testing.T) {
	t.Parallel()

	cfg := config.Defaults()
	cfg.Home = "/srv/seqeth"
	assert.Equal(t, filepath.Join("/srv/seqeth", "journal.db"), cfg.JournalPath())

	cfg.Journal.Path = "/tmp/j.db"
	assert.Equal(t, "/tmp/j.db", cfg.JournalPath())
}

func TestLogPath(t *testing.T) {
	t.Parallel()

	cfg := config.Defaults()
	cfg.Home = "/srv/seqeth"
	assert.Equal(t, filepath.Join("/srv/seqeth", "seqeth.log"), cfg.LogPath())

	cfg.Logging.File = "/var/log/seqeth.log"
	assert.Equal(t, "/var/log/seqeth.log", cfg.LogPath())
}

func TestToken(t *testing.T) {
	t.Parallel()
	cfg := config.Defaults()

	tok, ok := cfg.Token("usdc")
	require.True(t, ok)
	assert.Equal(t, "USDC", tok.Symbol)

	_, ok = cfg.Token("DAI")
	assert.False(t, ok)
}

func TestExpandPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/abs/path", config.ExpandPath("/abs/path"))
	assert.Equal(t, "relative", config.ExpandPath("relative"))

	home, err := os.UserHomeDir()
	if err == nil {
		assert.Equal(t, filepath.Join(home, "x", "y"), config.ExpandPath("~/x/y"))
	}
}

func TestPath(t *testing.T) {
	t.Parallel()
	assert.Equal(t, filepath.Join("/home/u/.seqeth", "config.yaml"), config.Path("/home/u/.seqeth"))
}
