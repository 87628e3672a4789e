// Package cli implements the seqeth command-line interface.
//
// Commands are package-level cobra values registered in init, which is
// the standard cobra layout. Shared dependencies are built once per
// execution in PersistentPreRunE and travel on the command context as a
// *CommandContext.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
package cli

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/seqeth/internal/config"
	"github.com/mrz1836/seqeth/internal/metrics"
	"github.com/mrz1836/seqeth/internal/output"
	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

var (
	// Global flags
	homeDir      string
	rpcURL       string
	chainIDFlag  uint64
	outputFormat string
	verbose      bool

	// active is the context of the running execution, closed by ExecuteArgs.
	active *CommandContext
)

// annotationSkipValidate marks commands that must run with an invalid
// config file, such as config init --force.
const annotationSkipValidate = "seqeth/skip-validate"

var rootCmd = &cobra.Command{
	Use:   "seqeth",
	Short: "Ethereum JSON-RPC, ABI, RLP, and signing toolkit",
	Long: `seqeth talks to an Ethereum node over JSON-RPC and exposes the codecs
underneath: ABI encoding and decoding, RLP, and EIP-155 transaction signing.

Reads (block, header, nonce, balance, tx, receipt, call) need only an RPC
endpoint. Writes (send, deploy) also need a signing key from --private-key,
--key-file, --mnemonic, or the SEQETH_PRIVATE_KEY / SEQETH_MNEMONIC
environment variables. Every broadcast is recorded in a local journal.`,
	Example: `  seqeth status --rpc http://127.0.0.1:8545
  seqeth balance 0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266
  seqeth call 0xA0b8...eB48 "balanceOf(address)" 0xf39F...2266 --returns uint256
  seqeth deploy ./Counter.bin --wait
  seqeth abi encode "transfer(address,uint256)" 0x70997970C51812dc3A010C7d01b50e0d17dc79C8 1000`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cc, err := initCommandContext(cmd)
		if err != nil {
			return err
		}
		active = cc
		SetCmdContext(cmd, cc)
		return nil
	},
}

// Execute runs seqeth with the process arguments.
func Execute() error {
	return ExecuteArgs(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
}

// ExecuteArgs runs seqeth with args, writing results to stdout and
// errors to stderr in the selected output format.
func ExecuteArgs(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)

	format := output.DetectFormat(stderr, output.ParseFormat(outputFormat))
	if active != nil {
		format = active.Fmt.Format()
		active.Close()
		active = nil
	}
	if err != nil {
		_ = output.FormatError(stderr, err, format)
	}
	return err
}

// ExitCode returns the process exit code for err.
func ExitCode(err error) int {
	return seqerr.ExitCode(err)
}

// initCommandContext loads config, applies environment and flag
// overrides, validates, and builds the logger and formatter.
func initCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	home := homeDir
	if home == "" {
		home = os.Getenv(config.EnvHome)
	}
	if home == "" {
		home = config.DefaultHome()
	}

	cfg, err := config.LoadOrDefault(config.Path(home))
	if err != nil {
		return nil, err
	}
	cfg.Home = home
	config.ApplyEnvironment(cfg)

	if homeDir != "" {
		cfg.Home = homeDir
	}
	if rpcURL != "" {
		cfg.Network.RPC = config.SanitizeURL(rpcURL)
	}
	if chainIDFlag != 0 {
		cfg.Network.ChainID = chainIDFlag
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if outputFormat != "" && outputFormat != string(output.FormatAuto) {
		cfg.Output.DefaultFormat = outputFormat
	}

	fmtr := output.NewFormatter(output.ParseFormat(cfg.Output.DefaultFormat), cmd.OutOrStdout())
	if err := cfg.Validate(); err != nil && cmd.Annotations[annotationSkipValidate] == "" {
		// errors are still printed in the requested format
		active = &CommandContext{Fmt: fmtr, Log: config.NullLogger()}
		return nil, err
	}

	logger, err := config.NewLogger(config.ParseLogLevel(cfg.Logging.Level), cfg.LogPath())
	if err != nil {
		logger = config.NullLogger()
	}
	logger.Debug("seqeth %s: rpc=%s home=%s", cmd.CommandPath(), cfg.Network.RPC, cfg.GetHome())

	return NewCommandContext(cfg, logger, fmtr).WithMetrics(metrics.Global), nil
}

// contextWithTimeout bounds a network operation by the configured timeout.
func contextWithTimeout(cmd *cobra.Command, d time.Duration) (context.Context, context.CancelFunc) {
	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	return context.WithTimeout(base, d)
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "seqeth data directory (default: ~/.seqeth)")
	rootCmd.PersistentFlags().StringVar(&rpcURL, "rpc", "", "JSON-RPC endpoint (default from config or "+config.EnvRPCURL+")")
	rootCmd.PersistentFlags().Uint64Var(&chainIDFlag, "chain-id", 0, "chain id for signing (default: ask the node)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "auto", "output format: text, json, auto")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "write debug logs")

	rootCmd.AddGroup(
		&cobra.Group{ID: "chain", Title: "Chain Queries:"},
		&cobra.Group{ID: "tx", Title: "Transactions:"},
		&cobra.Group{ID: "codec", Title: "Codecs:"},
	)
}
