package cli

import (
	"io"
	"math/big"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/seqeth/internal/cache"
	"github.com/mrz1836/seqeth/internal/chain"
	"github.com/mrz1836/seqeth/internal/chain/eth"
	ethtypes "github.com/mrz1836/seqeth/internal/chain/eth/types"
	"github.com/mrz1836/seqeth/internal/output"
	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	balanceToken  string
	balanceCached bool
	balanceMaxAge time.Duration
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
// cacheRetention bounds how long unread balances stay in the cache file.
const cacheRetention = 7 * 24 * time.Hour

var balanceCmd = &cobra.Command{
	Use:   "balance <address>",
	Short: "Show an ether or ERC-20 balance",
	Long: `Show the ether balance of an address, or an ERC-20 balance with --token.
--token takes a symbol from the config tokens list or a contract address.

Every fetched balance is cached under the seqeth home. With --cached, a
cached balance younger than --max-age is shown without asking the node.`,
	Example: `  seqeth balance 0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266
  seqeth balance 0xf39F...2266 --token USDC
  seqeth balance 0xf39F...2266 --cached --max-age 1m`,
	GroupID: "chain",
	Args:    cobra.ExactArgs(1),
	RunE:    runBalance,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(balanceCmd)

	balanceCmd.Flags().StringVar(&balanceToken, "token", "", "ERC-20 token symbol or contract address")
	balanceCmd.Flags().BoolVar(&balanceCached, "cached", false, "use a fresh cached balance when available")
	balanceCmd.Flags().DurationVar(&balanceMaxAge, "max-age", cache.DefaultStaleness, "maximum age of a cached balance")
}

// BalanceResult is the output of balance. Amounts are in the token's
// smallest unit; Formatted is scaled by Decimals.
type BalanceResult struct {
	Address     string `json:"address"`
	Token       string `json:"token,omitempty"`
	Symbol      string `json:"symbol"`
	Decimals    int    `json:"decimals"`
	Balance     string `json:"balance"`
	Formatted   string `json:"formatted"`
	Unconfirmed string `json:"unconfirmed,omitempty"`
	Cached      bool   `json:"cached,omitempty"`
	CacheAge    string `json:"cache_age,omitempty"`
}

// RenderText implements output.TextRenderer.
func (r BalanceResult) RenderText(w io.Writer) error {
	kv := &output.KV{}
	kv.Add("Address", r.Address).
		Add("Token", r.Token).
		Add("Balance", r.Formatted+" "+r.Symbol)
	if r.Unconfirmed != "" {
		if u, ok := new(big.Int).SetString(r.Unconfirmed, 10); ok {
			kv.Add("Pending", chain.FormatDecimalAmount(u, r.Decimals)+" "+r.Symbol)
		}
	}
	if r.Cached {
		kv.Add("Cached", r.CacheAge+" ago")
	}
	return kv.RenderText(w)
}

func resultFromEntry(e cache.Entry) BalanceResult {
	r := BalanceResult{
		Address:     e.Address,
		Token:       e.Token,
		Symbol:      e.Symbol,
		Decimals:    e.Decimals,
		Balance:     e.Balance,
		Unconfirmed: e.Unconfirmed,
	}
	if amount, ok := new(big.Int).SetString(e.Balance, 10); ok {
		r.Formatted = chain.FormatDecimalAmount(amount, e.Decimals)
	}
	return r
}

// resolveToken maps --token to a contract address.
func resolveToken(cc *CommandContext, token string) (*ethtypes.Address, error) {
	if token == "" {
		return nil, nil //nolint:nilnil // no token means ether
	}
	if t, ok := cc.Cfg.Token(token); ok {
		token = t.Address
	}
	addr, err := ethtypes.ParseAddress(token)
	if err != nil {
		return nil, seqerr.WithSuggestion(
			seqerr.WithDetails(seqerr.New(seqerr.KindInvalidInput, "unknown token"), map[string]string{"token": token}),
			"use a contract address or add the symbol to the tokens list in config.yaml",
		)
	}
	return &addr, nil
}

func runBalance(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	addr, err := ethtypes.ParseAddress(args[0])
	if err != nil {
		return err
	}
	token, err := resolveToken(cc, balanceToken)
	if err != nil {
		return err
	}
	tokenKey := ""
	if token != nil {
		tokenKey = token.String()
	}

	storage := cache.NewFileStorage(filepath.Join(cc.Cfg.GetHome(), "cache", "balances.json"))
	balances, err := storage.Load()
	if err != nil {
		cc.Log.Error("loading balance cache: %v", err)
	}
	if balances == nil {
		balances = cache.NewBalanceCache()
	}
	if cc.Metrics != nil {
		balances.SetRecorder(cc.Metrics)
	}

	endpoint := cc.Cfg.Network.RPC
	if balanceCached {
		if e, ok := balances.Lookup(endpoint, addr.String(), tokenKey, balanceMaxAge); ok {
			res := resultFromEntry(*e)
			res.Cached = true
			res.CacheAge = time.Since(e.UpdatedAt).Round(time.Second).String()
			return cc.Fmt.Print(res)
		}
	}

	client, err := cc.Client()
	if err != nil {
		return err
	}
	ctx, cancel := contextWithTimeout(cmd, cc.Cfg.Timeout())
	defer cancel()

	var bal *eth.Balance
	if token != nil {
		bal, err = client.TokenBalance(ctx, addr, *token)
	} else {
		bal, err = client.NativeBalance(ctx, addr)
	}
	if err != nil {
		return err
	}

	entry := cache.Entry{
		Endpoint: endpoint,
		Address:  addr.String(),
		Token:    tokenKey,
		Symbol:   bal.Symbol,
		Decimals: bal.Decimals,
		Balance:  bal.Amount.String(),
	}
	if bal.Unconfirmed != nil {
		entry.Unconfirmed = bal.Unconfirmed.String()
	}
	balances.Set(entry)
	if n := balances.Prune(cacheRetention); n > 0 {
		cc.Log.Debug("pruned %d stale balance cache entries", n)
	}
	if err := storage.Save(balances); err != nil {
		cc.Log.Error("saving balance cache: %v", err)
	}

	return cc.Fmt.Print(resultFromEntry(entry))
}
