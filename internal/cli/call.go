package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/seqeth/internal/chain/eth/abi"
	ethtypes "github.com/mrz1836/seqeth/internal/chain/eth/types"
	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	callReturns string
	callFrom    string
	callBlock   string
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var callCmd = &cobra.Command{
	Use:   "call <to> <signature> [args...]",
	Short: "Run a read-only contract call",
	Long: `Encode a method call, run it with eth_call, and decode the result.

Without --returns the raw return data is printed as hex.`,
	Example: `  seqeth call 0xA0b8...eB48 "balanceOf(address)" 0xd8dA...6045 --returns uint256
  seqeth call 0xA0b8...eB48 "symbol()" --returns string --block finalized`,
	GroupID: "tx",
	Args:    cobra.MinimumNArgs(2),
	RunE:    runCall,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(callCmd)

	callCmd.Flags().StringVar(&callReturns, "returns", "", `comma-separated return types, e.g. "uint256,bool"`)
	callCmd.Flags().StringVar(&callFrom, "from", "", "caller address")
	callCmd.Flags().StringVar(&callBlock, "block", "latest", "block number or tag")
}

// CallResult is the outcome of a read-only call.
type CallResult struct {
	To        string `json:"to"`
	Signature string `json:"signature"`
	Data      string `json:"data"`
	Values    []any  `json:"values,omitempty"`
}

// RenderText implements output.TextRenderer.
func (r CallResult) RenderText(w io.Writer) error {
	if r.Values == nil {
		_, err := fmt.Fprintln(w, r.Data)
		return err
	}
	for _, v := range r.Values {
		if _, err := fmt.Fprintln(w, formatValue(v)); err != nil {
			return err
		}
	}
	return nil
}

// formatValue prints nested arrays as [a, b].
func formatValue(v any) string {
	items, ok := v.([]any)
	if !ok {
		return fmt.Sprint(v)
	}
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = formatValue(item)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// parseTypeList parses "uint256, address[]" into ABI types.
func parseTypeList(s string) ([]abi.Type, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	var out []abi.Type
	for _, name := range strings.Split(s, ",") {
		t, err := abi.ParseType(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func propertyValues(props []abi.Property) []any {
	out := make([]any, len(props))
	for i, p := range props {
		out[i] = p.Value()
	}
	return out
}

func runCall(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	to, err := ethtypes.ParseAddress(args[0])
	if err != nil {
		return err
	}
	sig, err := abi.ParseSignature(args[1])
	if err != nil {
		return err
	}
	values, err := abi.ParseValues(sig, args[2:])
	if err != nil {
		return err
	}
	data, err := sig.Encode(values...)
	if err != nil {
		return err
	}
	returns, err := parseTypeList(callReturns)
	if err != nil {
		return err
	}
	ref, err := ethtypes.ParseBlockRef(callBlock)
	if err != nil {
		return err
	}

	call := ethtypes.ContractCall{To: &to, Data: data}
	if callFrom != "" {
		from, err := ethtypes.ParseAddress(callFrom)
		if err != nil {
			return err
		}
		call.From = &from
	}

	ctx, cancel := contextWithTimeout(cmd, cc.Cfg.Timeout())
	defer cancel()
	out, err := cc.Provider().Call(ctx, call, ref)
	if err != nil {
		return err
	}

	res := CallResult{To: to.String(), Signature: sig.Canonical(), Data: out.Hex()}
	if len(returns) > 0 {
		if len(out) == 0 {
			return seqerr.WithSuggestion(
				seqerr.WithDetails(
					seqerr.New(seqerr.KindEmptyResponse, "call returned no data"),
					map[string]string{"to": to.String(), "signature": sig.Canonical()},
				),
				"check that the address is a contract on this chain",
			)
		}
		props, err := abi.Decode(returns, out)
		if err != nil {
			return err
		}
		res.Values = propertyValues(props)
	}
	return cc.Fmt.Print(res)
}
