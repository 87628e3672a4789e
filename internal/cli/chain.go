package cli

import (
	"context"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/seqeth/internal/chain/eth"
	"github.com/mrz1836/seqeth/internal/chain/eth/hexutil"
	"github.com/mrz1836/seqeth/internal/chain/eth/rpc"
	ethtypes "github.com/mrz1836/seqeth/internal/chain/eth/types"
	"github.com/mrz1836/seqeth/internal/output"
	"github.com/mrz1836/seqeth/internal/version"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	blockFullTxs bool
	nonceBlock   string
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var (
	statusCmd = &cobra.Command{
		Use:     "status",
		Short:   "Show chain id, head block, and gas prices",
		GroupID: "chain",
		Args:    cobra.NoArgs,
		RunE:    runStatus,
	}

	blockCmd = &cobra.Command{
		Use:   "block [number|tag|hash]",
		Short: "Show a block",
		Long: `Show a block by height, tag (latest, earliest, pending, safe, finalized),
or 32-byte hash. Defaults to latest.`,
		Example: `  seqeth block
  seqeth block 19000000
  seqeth block finalized --txs -o json`,
		GroupID: "chain",
		Args:    cobra.MaximumNArgs(1),
		RunE:    runBlock,
	}

	headerCmd = &cobra.Command{
		Use:     "header [number|tag|hash]",
		Short:   "Show a block header",
		GroupID: "chain",
		Args:    cobra.MaximumNArgs(1),
		RunE:    runHeader,
	}

	nonceCmd = &cobra.Command{
		Use:     "nonce <address>",
		Short:   "Show an account's transaction count",
		GroupID: "chain",
		Args:    cobra.ExactArgs(1),
		RunE:    runNonce,
	}

	txCmd = &cobra.Command{
		Use:     "tx <hash>",
		Short:   "Show a transaction",
		GroupID: "chain",
		Args:    cobra.ExactArgs(1),
		RunE:    runTx,
	}
)

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(statusCmd, blockCmd, headerCmd, nonceCmd, txCmd)

	blockCmd.Flags().BoolVar(&blockFullTxs, "txs", false, "list the block's transactions")
	nonceCmd.Flags().StringVar(&nonceBlock, "block", "latest", "block number or tag")
}

// StatusResult is the output of status.
type StatusResult struct {
	RPC         string `json:"rpc"`
	Client      string `json:"client,omitempty"`
	ChainID     uint64 `json:"chain_id"`
	BlockNumber uint64 `json:"block_number"`
	BlockTime   uint64 `json:"block_time"`
	GasSlow     string `json:"gas_price_slow"`
	GasMedium   string `json:"gas_price_medium"`
	GasFast     string `json:"gas_price_fast"`
	LatencyMs   int64  `json:"latency_ms"`
}

// RenderText implements output.TextRenderer.
func (r StatusResult) RenderText(w io.Writer) error {
	kv := &output.KV{}
	kv.Add("RPC", r.RPC).
		Add("Client", r.Client).
		Add("Chain ID", strconv.FormatUint(r.ChainID, 10)).
		Add("Block", output.Count(r.BlockNumber)+" ("+output.Ago(r.BlockTime)+")").
		Add("Gas (slow)", r.GasSlow).
		Add("Gas (medium)", r.GasMedium).
		Add("Gas (fast)", r.GasFast).
		Add("Latency", strconv.FormatInt(r.LatencyMs, 10)+"ms")
	return kv.RenderText(w)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	client, err := cc.Client()
	if err != nil {
		return err
	}
	ctx, cancel := contextWithTimeout(cmd, cc.Cfg.Timeout())
	defer cancel()

	res := StatusResult{RPC: cc.Cfg.Network.RPC}
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		id, err := client.ChainID(gctx)
		if err != nil {
			return err
		}
		res.ChainID = id.Uint64()
		return nil
	})
	g.Go(func() error {
		h, err := client.Provider().HeaderByTag(gctx, ethtypes.Latest)
		if err != nil {
			return err
		}
		res.BlockNumber, res.BlockTime = uint64(h.Number), uint64(h.Time)
		return nil
	})
	g.Go(func() error {
		prices, err := client.GasPrices(gctx)
		if err != nil {
			return err
		}
		res.GasSlow = eth.FormatGasPrice(prices.Slow)
		res.GasMedium = eth.FormatGasPrice(prices.Medium)
		res.GasFast = eth.FormatGasPrice(prices.Fast)
		return nil
	})
	g.Go(func() error {
		// optional on many nodes
		raw, err := client.Provider().ClientVersion(gctx)
		if err != nil {
			cc.Log.Debug("web3_clientVersion: %v", err)
			return nil
		}
		c := version.ParseClient(raw)
		res.Client = strings.TrimSpace(c.Name + " " + c.Version)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	res.LatencyMs = time.Since(start).Milliseconds()
	return cc.Fmt.Print(res)
}

// blockArg resolves a block argument to a hash or a BlockRef.
func blockArg(args []string) (*ethtypes.Hash256, ethtypes.BlockRef, error) {
	if len(args) == 0 {
		return nil, ethtypes.Latest, nil
	}
	if hexutil.Has0xPrefix(args[0]) && len(args[0]) == 2+2*ethtypes.HashLength {
		h, err := ethtypes.ParseHash256(args[0])
		if err != nil {
			return nil, nil, err
		}
		return &h, nil, nil
	}
	ref, err := ethtypes.ParseBlockRef(args[0])
	return nil, ref, err
}

func fetchBlock(ctx context.Context, p *rpc.Provider, args []string) (*ethtypes.Block, error) {
	hash, ref, err := blockArg(args)
	if err != nil {
		return nil, err
	}
	if hash != nil {
		return p.BlockByHash(ctx, *hash)
	}
	return p.BlockByRef(ctx, ref)
}

// headerView renders a header as text and node JSON.
type headerView struct {
	*ethtypes.Header
	hash *ethtypes.Hash256
}

func (v headerView) kv() *output.KV {
	kv := &output.KV{}
	kv.Add("Number", output.Count(uint64(v.Number)))
	if v.hash != nil {
		kv.Add("Hash", v.hash.Hex())
	}
	kv.Add("Parent", v.ParentHash.Hex()).
		Add("Time", time.Unix(int64(v.Time), 0).UTC().Format(time.RFC3339)+" ("+output.Ago(uint64(v.Time))+")"). //nolint:gosec // G115: block time fits
		Add("Miner", v.Coinbase.String()).
		Add("Gas used", output.Count(uint64(v.GasUsed))+" / "+output.Count(uint64(v.GasLimit))).
		Add("State root", v.Root.Hex()).
		Add("Nonce", v.Nonce.Hex())
	if v.BaseFee != nil {
		kv.Add("Base fee", eth.FormatGasPrice(v.BaseFee.Int()))
	}
	return kv
}

// RenderText implements output.TextRenderer.
func (v headerView) RenderText(w io.Writer) error { return v.kv().RenderText(w) }

// blockView adds the transaction list to headerView.
type blockView struct {
	block *ethtypes.Block
	txs   []ethtypes.RPCTransaction
}

// MarshalJSON prints the node's block object unchanged.
func (v blockView) MarshalJSON() ([]byte, error) {
	if len(v.block.Raw) > 0 {
		return v.block.Raw, nil
	}
	type plain ethtypes.Block
	return json.Marshal((*plain)(v.block))
}

// RenderText implements output.TextRenderer.
func (v blockView) RenderText(w io.Writer) error {
	kv := headerView{Header: &v.block.Header, hash: &v.block.Hash}.kv()
	kv.Add("Size", output.Size(int(v.block.Size))).
		Add("Transactions", strconv.Itoa(len(v.block.Transactions)))
	if err := kv.RenderText(w); err != nil {
		return err
	}
	if len(v.txs) == 0 {
		return nil
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	tbl := output.NewTable("HASH", "FROM", "TO", "VALUE (ETH)").AlignRight(3)
	for _, tx := range v.txs {
		to := "(create)"
		if tx.To != nil {
			to = tx.To.String()
		}
		tbl.AddRow(tx.Hash.Hex(), tx.From.String(), to, eth.FormatAmount(tx.Value.Int()))
	}
	return tbl.RenderText(w)
}

func runBlock(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	ctx, cancel := contextWithTimeout(cmd, cc.Cfg.Timeout())
	defer cancel()

	block, err := fetchBlock(ctx, cc.Provider(), args)
	if err != nil {
		return err
	}
	view := blockView{block: block}
	if blockFullTxs {
		if view.txs, err = block.DecodeTransactions(); err != nil {
			return err
		}
	}
	return cc.Fmt.Print(view)
}

func runHeader(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	ctx, cancel := contextWithTimeout(cmd, cc.Cfg.Timeout())
	defer cancel()

	block, err := fetchBlock(ctx, cc.Provider(), args)
	if err != nil {
		return err
	}
	if cc.Fmt.IsJSON() {
		return cc.Fmt.Print(block.Header)
	}
	return cc.Fmt.Print(headerView{Header: &block.Header, hash: &block.Hash})
}

// NonceResult is the output of nonce.
type NonceResult struct {
	Address string `json:"address"`
	Block   string `json:"block"`
	Nonce   uint64 `json:"nonce"`
}

// String implements fmt.Stringer for text output.
func (r NonceResult) String() string { return strconv.FormatUint(r.Nonce, 10) }

func runNonce(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	addr, err := ethtypes.ParseAddress(args[0])
	if err != nil {
		return err
	}
	ref, err := ethtypes.ParseBlockRef(nonceBlock)
	if err != nil {
		return err
	}
	ctx, cancel := contextWithTimeout(cmd, cc.Cfg.Timeout())
	defer cancel()

	n, err := cc.Provider().TransactionCount(ctx, addr, ref)
	if err != nil {
		return err
	}
	return cc.Fmt.Print(NonceResult{Address: addr.String(), Block: ref.Param(), Nonce: n})
}

// txView renders a transaction.
type txView struct {
	*ethtypes.RPCTransaction
}

// RenderText implements output.TextRenderer.
func (v txView) RenderText(w io.Writer) error {
	kv := &output.KV{}
	kv.Add("Hash", v.Hash.Hex()).
		Add("From", v.From.String())
	if v.To != nil {
		kv.Add("To", v.To.String())
	} else {
		kv.Add("To", "(contract creation)")
	}
	kv.Add("Nonce", strconv.FormatUint(uint64(v.Nonce), 10)).
		Add("Value", output.Wei(v.Value.Int())).
		Add("Gas limit", output.Count(uint64(v.Gas)))
	if v.GasPrice != nil {
		kv.Add("Gas price", eth.FormatGasPrice(v.GasPrice.Int()))
	}
	if v.Pending() {
		kv.Add("Block", "pending")
	} else if v.BlockNumber != nil {
		kv.Add("Block", output.Count(uint64(*v.BlockNumber)))
	}
	if len(v.Input) > 0 {
		kv.Add("Input", abbreviateHex(v.Input.Hex()))
	}
	return kv.RenderText(w)
}

func runTx(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	hash, err := ethtypes.ParseHash256(args[0])
	if err != nil {
		return err
	}
	ctx, cancel := contextWithTimeout(cmd, cc.Cfg.Timeout())
	defer cancel()

	tx, err := cc.Provider().TransactionByHash(ctx, hash)
	if err != nil {
		return err
	}
	if cc.Fmt.IsJSON() {
		return cc.Fmt.Print(tx)
	}
	return cc.Fmt.Print(txView{tx})
}

// abbreviateHex shortens long calldata for text output.
func abbreviateHex(s string) string {
	const keep = 74 // selector plus two words
	if len(s) <= keep {
		return s
	}
	return s[:keep] + "... (" + output.Size((len(s)-2)/2) + ")"
}
