package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/seqeth/internal/chain/eth/hexutil"
	"github.com/mrz1836/seqeth/internal/chain/eth/rlp"
	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var (
	rlpCmd = &cobra.Command{
		Use:     "rlp",
		Short:   "Encode and decode RLP",
		GroupID: "codec",
	}

	rlpEncodeCmd = &cobra.Command{
		Use:   "encode <json>",
		Short: "Encode a JSON tree as RLP",
		Long: `Encode a JSON value as RLP. Arrays become lists, 0x strings are raw bytes,
other strings are UTF-8, and non-negative integers use their minimal
big-endian form.`,
		Example: `  seqeth rlp encode '["0x01", 1024, ["cat", "dog"]]'
  seqeth rlp encode '[]'`,
		Args: cobra.ExactArgs(1),
		RunE: runRLPEncode,
	}

	rlpDecodeCmd = &cobra.Command{
		Use:   "decode <hex>",
		Short: "Decode RLP into a JSON tree of hex strings",
		Args:  cobra.ExactArgs(1),
		RunE:  runRLPDecode,
	}
)

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(rlpCmd)
	rlpCmd.AddCommand(rlpEncodeCmd, rlpDecodeCmd)
}

// RLPEncodeResult is an encoded RLP payload.
type RLPEncodeResult struct {
	Data string `json:"data"`
	Size int    `json:"size"`
}

// String implements fmt.Stringer.
func (r RLPEncodeResult) String() string { return r.Data }

// RLPDecodeResult is a decoded RLP tree: hex strings and nested arrays.
type RLPDecodeResult struct {
	Tree any `json:"tree"`
}

// RenderText implements output.TextRenderer.
func (r RLPDecodeResult) RenderText(w io.Writer) error {
	return renderTree(w, r.Tree, 0)
}

func renderTree(w io.Writer, node any, depth int) error {
	indent := strings.Repeat("  ", depth)
	items, ok := node.([]any)
	if !ok {
		_, err := fmt.Fprintf(w, "%s%v\n", indent, node)
		return err
	}
	if _, err := fmt.Fprintf(w, "%slist (%d)\n", indent, len(items)); err != nil {
		return err
	}
	for _, item := range items {
		if err := renderTree(w, item, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// jsonToItem converts a decoded JSON value into an RLP item.
func jsonToItem(v any) (rlp.Item, error) {
	switch val := v.(type) {
	case []any:
		items := make([]rlp.Item, len(val))
		for i, child := range val {
			it, err := jsonToItem(child)
			if err != nil {
				return rlp.Item{}, err
			}
			items[i] = it
		}
		return rlp.List(items...), nil
	case string:
		if hexutil.Has0xPrefix(val) {
			b, err := hexutil.Decode(val)
			if err != nil {
				return rlp.Item{}, err
			}
			return rlp.String(b), nil
		}
		return rlp.String([]byte(val)), nil
	case json.Number:
		n, ok := new(big.Int).SetString(val.String(), 10)
		if !ok || n.Sign() < 0 {
			return rlp.Item{}, seqerr.WithDetails(
				seqerr.New(seqerr.KindEncodingError, "rlp: integers must be non-negative whole numbers"),
				map[string]string{"value": val.String()},
			)
		}
		return rlp.Big(n), nil
	default:
		return rlp.Item{}, seqerr.Newf(seqerr.KindEncodingError, "rlp: unsupported JSON value %T", v)
	}
}

// itemToJSON converts an RLP item into hex strings and nested arrays.
func itemToJSON(it rlp.Item) any {
	if !it.IsList() {
		return hexutil.EncodePrefixed(it.Bytes())
	}
	children := it.Items()
	out := make([]any, len(children))
	for i, child := range children {
		out[i] = itemToJSON(child)
	}
	return out
}

func runRLPEncode(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	dec := json.NewDecoder(bytes.NewReader([]byte(args[0])))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return seqerr.WithSuggestion(
			seqerr.WrapAs(seqerr.KindInvalidInput, err, "parsing JSON input"),
			`quote the value, e.g. '["0x01", ["0x02"]]'`,
		)
	}
	item, err := jsonToItem(v)
	if err != nil {
		return err
	}
	data := rlp.EncodeItem(item)
	return cc.Fmt.Print(RLPEncodeResult{Data: hexutil.EncodePrefixed(data), Size: len(data)})
}

func runRLPDecode(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	data, err := hexutil.Decode(args[0])
	if err != nil {
		return err
	}
	item, err := rlp.Decode(data)
	if err != nil {
		return err
	}
	return cc.Fmt.Print(RLPDecodeResult{Tree: itemToJSON(item)})
}
