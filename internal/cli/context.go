package cli

import (
	"context"
	"math/big"

	"github.com/spf13/cobra"

	"github.com/mrz1836/seqeth/internal/chain/eth"
	"github.com/mrz1836/seqeth/internal/chain/eth/rpc"
	"github.com/mrz1836/seqeth/internal/config"
	"github.com/mrz1836/seqeth/internal/journal"
	"github.com/mrz1836/seqeth/internal/metrics"
	"github.com/mrz1836/seqeth/internal/output"
)

type cmdContextKey struct{}

// CommandContext holds dependencies for CLI commands.
type CommandContext struct {
	Cfg     *config.Config
	Log     *config.Logger
	Fmt     *output.Formatter
	Metrics *metrics.Metrics

	journal *journal.Journal
}

// NewCommandContext creates a context with the given dependencies.
func NewCommandContext(cfg *config.Config, logger *config.Logger, formatter *output.Formatter) *CommandContext {
	return &CommandContext{Cfg: cfg, Log: logger, Fmt: formatter}
}

// WithMetrics sets the metrics sink for RPC calls and cache lookups.
func (c *CommandContext) WithMetrics(m *metrics.Metrics) *CommandContext {
	c.Metrics = m
	return c
}

// SetCmdContext attaches cc to cmd's context.
func SetCmdContext(cmd *cobra.Command, cc *CommandContext) {
	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	cmd.SetContext(context.WithValue(base, cmdContextKey{}, cc))
}

// GetCmdContext returns the context attached by SetCmdContext, or nil.
func GetCmdContext(cmd *cobra.Command) *CommandContext {
	ctx := cmd.Context()
	if ctx == nil {
		return nil
	}
	cc, _ := ctx.Value(cmdContextKey{}).(*CommandContext)
	return cc
}

// Provider builds a provider for the configured endpoint with the
// configured timeout, rate limit, logger, and metrics.
func (c *CommandContext) Provider() *rpc.Provider {
	opts := []rpc.Option{
		rpc.WithTransport(rpc.NewHTTPTransport(c.Cfg.Timeout())),
		rpc.WithLimiter(c.Cfg.RateLimiter()),
	}
	if c.Log != nil {
		opts = append(opts, rpc.WithLogger(c.Log.Component("rpc")))
	}
	if c.Metrics != nil {
		opts = append(opts, rpc.WithRecorder(c.Metrics))
	}
	return rpc.NewProvider(c.Cfg.Network.RPC, opts...)
}

// Client builds an account client over Provider. A configured chain id
// skips discovery.
func (c *CommandContext) Client() (*eth.Client, error) {
	var opts eth.ClientOptions
	if c.Cfg.Network.ChainID != 0 {
		opts.ChainID = new(big.Int).SetUint64(c.Cfg.Network.ChainID)
	}
	return eth.NewClient(c.Provider(), &opts)
}

// Journal opens the transaction journal on first use.
func (c *CommandContext) Journal() (*journal.Journal, error) {
	if c.journal != nil {
		return c.journal, nil
	}
	j, err := journal.Open(c.Cfg.JournalPath(), c.Log.Zerolog())
	if err != nil {
		return nil, err
	}
	c.journal = j
	return j, nil
}

// Close releases the journal and logger, logging a metrics summary first.
func (c *CommandContext) Close() {
	if c.journal != nil {
		if err := c.journal.Close(); err != nil {
			c.Log.Error("closing journal: %v", err)
		}
		c.journal = nil
	}
	if c.Metrics != nil && c.Log != nil {
		snap := c.Metrics.Snapshot()
		if snap.RPCCallsTotal > 0 {
			c.Log.Debug("rpc calls=%d errors=%d receipt_polls=%d avg=%.1fms", snap.RPCCallsTotal, snap.RPCErrorsTotal, snap.ReceiptPolls, c.Metrics.RPCLatencyAvgMs())
		}
		if snap.CacheHits+snap.CacheMisses > 0 {
			c.Log.Debug("balance cache hit rate %.0f%%", c.Metrics.CacheHitRate())
		}
	}
	if c.Log != nil {
		_ = c.Log.Close()
	}
}
