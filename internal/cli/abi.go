package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/seqeth/internal/chain/eth/abi"
	"github.com/mrz1836/seqeth/internal/chain/eth/hexutil"
	ethtypes "github.com/mrz1836/seqeth/internal/chain/eth/types"
	"github.com/mrz1836/seqeth/internal/output"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	abiArgsOnly bool
	abiCallSig  string
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var (
	abiCmd = &cobra.Command{
		Use:     "abi",
		Short:   "Encode and decode contract ABI data",
		GroupID: "codec",
	}

	abiEncodeCmd = &cobra.Command{
		Use:   "encode <signature> [args...]",
		Short: "Encode a method call",
		Long: `Encode arguments against a method signature. Integers are decimal or 0x hex,
bytes are hex, and arrays are JSON arrays.`,
		Example: `  seqeth abi encode "transfer(address,uint256)" 0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045 1000
  seqeth abi encode "constructor(uint256[])" "[1,2,3]" --args-only`,
		Args: cobra.MinimumNArgs(1),
		RunE: runABIEncode,
	}

	abiDecodeCmd = &cobra.Command{
		Use:   "decode [types] <hex>",
		Short: "Decode ABI data",
		Long: `Decode return data against a comma-separated type list, or call data
against a method signature with --call.`,
		Example: `  seqeth abi decode "uint256,bool" 0x...
  seqeth abi decode --call "transfer(address,uint256)" 0xa9059cbb...`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runABIDecode,
	}

	abiSelectorCmd = &cobra.Command{
		Use:   "selector <signature>",
		Short: "Print a method selector",
		Args:  cobra.ExactArgs(1),
		RunE:  runABISelector,
	}
)

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(abiCmd)
	abiCmd.AddCommand(abiEncodeCmd, abiDecodeCmd, abiSelectorCmd)

	abiEncodeCmd.Flags().BoolVar(&abiArgsOnly, "args-only", false, "omit the selector")
	abiDecodeCmd.Flags().StringVar(&abiCallSig, "call", "", "decode call data for this method signature")
}

// EncodeResult is encoded call data.
type EncodeResult struct {
	Signature string `json:"signature"`
	Selector  string `json:"selector,omitempty"`
	Data      string `json:"data"`
}

// String implements fmt.Stringer.
func (r EncodeResult) String() string { return r.Data }

// DecodeResult lists decoded values with their types.
type DecodeResult struct {
	Types  []string `json:"types"`
	Values []any    `json:"values"`
}

// RenderText implements output.TextRenderer.
func (r DecodeResult) RenderText(w io.Writer) error {
	t := output.NewTable("#", "TYPE", "VALUE").AlignRight(0)
	for i, v := range r.Values {
		t.AddRow(fmt.Sprint(i), r.Types[i], formatValue(v))
	}
	return t.RenderText(w)
}

func runABIEncode(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	sig, err := abi.ParseSignature(args[0])
	if err != nil {
		return err
	}
	values, err := abi.ParseValues(sig, args[1:])
	if err != nil {
		return err
	}

	res := EncodeResult{Signature: sig.Canonical()}
	var data []byte
	if abiArgsOnly {
		data, err = abi.EncodeArgs(values...)
	} else {
		sel := sig.Selector()
		res.Selector = hexutil.EncodePrefixed(sel[:])
		data, err = sig.Encode(values...)
	}
	if err != nil {
		return err
	}
	res.Data = hexutil.EncodePrefixed(data)
	return cc.Fmt.Print(res)
}

func runABIDecode(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	var (
		types []abi.Type
		props []abi.Property
		err   error
	)
	if abiCallSig != "" {
		if len(args) != 1 {
			return cobra.ExactArgs(1)(cmd, args)
		}
		data, derr := ethtypes.ParseUnsizedData(args[0])
		if derr != nil {
			return derr
		}
		sig, serr := abi.ParseSignature(abiCallSig)
		if serr != nil {
			return serr
		}
		types = sig.Inputs
		props, err = abi.DecodeCall(abiCallSig, data)
	} else {
		if len(args) != 2 {
			return cobra.ExactArgs(2)(cmd, args)
		}
		data, derr := ethtypes.ParseUnsizedData(args[1])
		if derr != nil {
			return derr
		}
		if types, err = parseTypeList(args[0]); err != nil {
			return err
		}
		props, err = abi.Decode(types, data)
	}
	if err != nil {
		return err
	}

	res := DecodeResult{Types: make([]string, len(types)), Values: propertyValues(props)}
	for i, t := range types {
		res.Types[i] = t.String()
	}
	return cc.Fmt.Print(res)
}

func runABISelector(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	sig, err := abi.ParseSignature(args[0])
	if err != nil {
		return err
	}
	sel := sig.Selector()
	return cc.Fmt.Print(EncodeResult{
		Signature: sig.Canonical(),
		Selector:  hexutil.EncodePrefixed(sel[:]),
		Data:      hexutil.EncodePrefixed(sel[:]),
	})
}
