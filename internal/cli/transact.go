package cli

import (
	"context"
	"io"
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/seqeth/internal/chain"
	"github.com/mrz1836/seqeth/internal/chain/eth"
	"github.com/mrz1836/seqeth/internal/chain/eth/abi"
	"github.com/mrz1836/seqeth/internal/chain/eth/rpc"
	ethtypes "github.com/mrz1836/seqeth/internal/chain/eth/types"
	"github.com/mrz1836/seqeth/internal/journal"
	"github.com/mrz1836/seqeth/internal/output"
	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	txValue    string
	txData     string
	txSig      string
	txToken    string
	txGasLimit uint64
	txSpeed    string
	txWait     bool
	txLabel    string
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var (
	sendCmd = &cobra.Command{
		Use:   "send <to> [args...]",
		Short: "Sign and broadcast a transaction",
		Long: `Sign and broadcast a transaction to an address.

Send ether with --value, raw calldata with --data, or call a contract
method with --sig and its arguments. With --token, --value is a token
amount and an ERC-20 transfer is sent instead.

The nonce is taken from the node's pending count and tracked locally, the
gas price from --speed, and the gas limit from eth_estimateGas unless
--gas-limit is set. The transaction is recorded in the journal.`,
		Example: `  seqeth send 0x7099...79C8 --value 0.5ether
  seqeth send 0x5FbD...0aa3 --sig "setNumber(uint256)" 42 --wait
  seqeth send 0x7099...79C8 --token USDC --value 12.5`,
		GroupID: "tx",
		Args:    cobra.MinimumNArgs(1),
		RunE:    runSend,
	}

	deployCmd = &cobra.Command{
		Use:   "deploy <bytecode|@file> [constructor args...]",
		Short: "Deploy a contract",
		Long: `Deploy contract bytecode given as hex or read from a file with @path.
Constructor arguments are ABI-encoded after the bytecode when --sig names
the constructor parameters, e.g. --sig "constructor(uint256,address)".

The contract address is computed from the sender and nonce before the
transaction is broadcast and is recorded in the journal.`,
		Example: `  seqeth deploy @Counter.bin
  seqeth deploy @Token.bin --sig "constructor(string,uint8)" Test 18 --wait`,
		GroupID: "tx",
		Args:    cobra.MinimumNArgs(1),
		RunE:    runDeploy,
	}
)

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(sendCmd, deployCmd)

	sendCmd.Flags().StringVar(&txValue, "value", "", "amount to send, e.g. 1.5ether, 20gwei, 1000 (wei)")
	sendCmd.Flags().StringVar(&txData, "data", "", "raw calldata as hex")
	sendCmd.Flags().StringVar(&txToken, "token", "", "send an ERC-20 transfer of this token symbol or address")

	for _, c := range []*cobra.Command{sendCmd, deployCmd} {
		c.Flags().StringVar(&txSig, "sig", "", "method or constructor signature for the positional arguments")
		c.Flags().Uint64Var(&txGasLimit, "gas-limit", 0, "gas limit (default: estimate)")
		c.Flags().StringVar(&txSpeed, "speed", "", "gas price tier: slow, medium, fast (default from config)")
		c.Flags().BoolVar(&txWait, "wait", false, "wait for the receipt")
		c.Flags().StringVar(&txLabel, "label", "", "note stored with the journal entry")
		addKeyFlags(c)
	}

	sendCmd.MarkFlagsMutuallyExclusive("data", "sig")
	sendCmd.MarkFlagsMutuallyExclusive("token", "sig")
	sendCmd.MarkFlagsMutuallyExclusive("token", "data")
}

// SubmissionResult is the output of send and deploy.
type SubmissionResult struct {
	TxHash          string         `json:"tx_hash"`
	From            string         `json:"from"`
	To              string         `json:"to,omitempty"`
	ContractAddress string         `json:"contract_address,omitempty"`
	Nonce           uint64         `json:"nonce"`
	GasPrice        string         `json:"gas_price"`
	GasLimit        uint64         `json:"gas_limit"`
	Value           string         `json:"value,omitempty"`
	JournalSeq      uint64         `json:"journal_seq,omitempty"`
	Receipt         *ReceiptResult `json:"receipt,omitempty"`
}

// RenderText implements output.TextRenderer.
func (r SubmissionResult) RenderText(w io.Writer) error {
	kv := &output.KV{}
	kv.Add("Tx hash", r.TxHash).
		Add("From", r.From).
		Add("To", r.To).
		Add("Contract", r.ContractAddress).
		Add("Nonce", strconv.FormatUint(r.Nonce, 10)).
		Add("Gas price", r.GasPrice+" wei").
		Add("Gas limit", output.Count(r.GasLimit))
	if r.Value != "" {
		if v, ok := new(big.Int).SetString(r.Value, 10); ok {
			kv.Add("Value", output.Wei(v))
		}
	}
	if r.JournalSeq != 0 {
		kv.Add("Journal", "#"+strconv.FormatUint(r.JournalSeq, 10))
	}
	if err := kv.RenderText(w); err != nil {
		return err
	}
	if r.Receipt == nil {
		return nil
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	return r.Receipt.RenderText(w)
}

// gasSpeed returns --speed or the configured default.
func gasSpeed(cc *CommandContext) (eth.GasSpeed, error) {
	if txSpeed != "" {
		return eth.ParseGasSpeed(txSpeed)
	}
	return eth.ParseGasSpeed(cc.Cfg.Gas.Speed)
}

// callData builds calldata from --data or --sig and positional arguments.
func callData(args []string) (ethtypes.UnsizedData, error) {
	switch {
	case txSig != "":
		sig, err := abi.ParseSignature(txSig)
		if err != nil {
			return nil, err
		}
		values, err := abi.ParseValues(sig, args)
		if err != nil {
			return nil, err
		}
		return sig.Encode(values...)
	case len(args) > 0:
		return nil, seqerr.WithSuggestion(
			seqerr.New(seqerr.KindInvalidInput, "arguments given without --sig"),
			`name the method, e.g. --sig "transfer(address,uint256)"`,
		)
	case txData != "":
		return ethtypes.ParseUnsizedData(txData)
	default:
		return nil, nil
	}
}

func runSend(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	to, err := ethtypes.ParseAddress(args[0])
	if err != nil {
		return err
	}
	speed, err := gasSpeed(cc)
	if err != nil {
		return err
	}
	data, err := callData(args[1:])
	if err != nil {
		return err
	}
	client, err := cc.Client()
	if err != nil {
		return err
	}
	key, err := signingKey(cmd, cc.Cfg)
	if err != nil {
		return err
	}
	defer key.Zero()

	ctx, cancel := contextWithTimeout(cmd, cc.Cfg.Timeout())
	defer cancel()

	req := eth.SendRequest{Key: key, To: &to, Data: data, Speed: speed, Observer: stageObserver(cmd, cc)}
	kind := journal.KindTransfer
	if len(data) > 0 {
		kind = journal.KindCall
	}

	if txToken != "" {
		token, err := resolveToken(cc, txToken)
		if err != nil {
			return err
		}
		amount, err := tokenAmount(ctx, client, *token)
		if err != nil {
			return err
		}
		if req.Data, err = eth.TokenTransferData(to, amount); err != nil {
			return err
		}
		req.To, kind = token, journal.KindCall
	} else if txValue != "" {
		if req.Value, err = chain.ParseValue(txValue); err != nil {
			return err
		}
	}
	if txGasLimit != 0 {
		req.GasLimit = &txGasLimit
	}

	sub, err := client.Send(ctx, req)
	cc.recordSubmission(err)
	if err != nil {
		return err
	}
	return finishSubmission(cmd, cc, client, kind, req.Value, sub)
}

// tokenAmount scales --value by the token's decimals.
func tokenAmount(ctx context.Context, client *eth.Client, token ethtypes.Address) (*big.Int, error) {
	if txValue == "" {
		return nil, seqerr.New(seqerr.KindInvalidInput, "--value is required with --token")
	}
	info, err := client.TokenBalance(ctx, ethtypes.Address{}, token)
	if err != nil {
		return nil, seqerr.Wrap(err, "reading token decimals")
	}
	return chain.ParseDecimalAmount(txValue, info.Decimals)
}

func runDeploy(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	bytecode, err := readBytecode(args[0])
	if err != nil {
		return err
	}
	ctorArgs, err := constructorArgs(args[1:])
	if err != nil {
		return err
	}
	bytecode = append(bytecode, ctorArgs...)

	speed, err := gasSpeed(cc)
	if err != nil {
		return err
	}
	client, err := cc.Client()
	if err != nil {
		return err
	}
	key, err := signingKey(cmd, cc.Cfg)
	if err != nil {
		return err
	}
	defer key.Zero()

	ctx, cancel := contextWithTimeout(cmd, cc.Cfg.Timeout())
	defer cancel()

	req := eth.SendRequest{Key: key, Data: bytecode, Speed: speed, Observer: stageObserver(cmd, cc)}
	if txGasLimit != 0 {
		req.GasLimit = &txGasLimit
	}
	sub, err := client.Send(ctx, req)
	cc.recordSubmission(err)
	if err != nil {
		return err
	}
	return finishSubmission(cmd, cc, client, journal.KindDeploy, nil, sub)
}

// readBytecode parses hex bytecode, reading it from a file for "@path".
func readBytecode(arg string) (ethtypes.UnsizedData, error) {
	src := arg
	if path, ok := strings.CutPrefix(arg, "@"); ok {
		data, err := os.ReadFile(path) //nolint:gosec // G304: path chosen by the user
		if err != nil {
			return nil, seqerr.WrapAs(seqerr.KindInvalidInput, err, "reading bytecode")
		}
		src = strings.TrimSpace(string(data))
	}
	code, err := ethtypes.ParseUnsizedData(src)
	if err != nil {
		return nil, err
	}
	if len(code) == 0 {
		return nil, seqerr.New(seqerr.KindInvalidInput, "bytecode is empty")
	}
	return code, nil
}

// constructorArgs encodes positional arguments against --sig.
func constructorArgs(args []string) ([]byte, error) {
	if txSig == "" {
		if len(args) > 0 {
			return nil, seqerr.WithSuggestion(
				seqerr.New(seqerr.KindInvalidInput, "constructor arguments given without --sig"),
				`describe them, e.g. --sig "constructor(uint256)"`,
			)
		}
		return nil, nil
	}
	sig, err := abi.ParseSignature(txSig)
	if err != nil {
		return nil, err
	}
	values, err := abi.ParseValues(sig, args)
	if err != nil {
		return nil, err
	}
	return abi.EncodeArgs(values...)
}

// stageObserver reports pipeline progress on stderr for text output.
func stageObserver(cmd *cobra.Command, cc *CommandContext) rpc.StageObserver {
	log := cc.Log.Component("deploy")
	return func(s rpc.Stage) {
		log.Debug().Str("stage", s.String()).Msg("pipeline stage")
		if !cc.Fmt.IsJSON() && s != rpc.StageDone {
			output.Infof(cmd.ErrOrStderr(), "%s", strings.ReplaceAll(s.String(), "_", " "))
		}
	}
}

func (c *CommandContext) recordSubmission(err error) {
	if c.Metrics != nil {
		c.Metrics.RecordSubmission(err)
	}
}

// finishSubmission journals sub, optionally waits for its receipt, and
// prints the result.
func finishSubmission(cmd *cobra.Command, cc *CommandContext, client *eth.Client, kind journal.Kind, value *big.Int, sub *rpc.Submission) error {
	chainID, err := client.ChainID(cmd.Context())
	if err != nil {
		return err
	}
	gasLimit, _ := sub.GasLimit.Uint64()

	res := SubmissionResult{
		TxHash:   sub.TxHash.Hex(),
		From:     sub.From.String(),
		Nonce:    sub.Nonce,
		GasPrice: sub.GasPrice.BigInt().String(),
		GasLimit: gasLimit,
	}
	entry := journal.Entry{
		Kind:     kind,
		ChainID:  chainID.Uint64(),
		RPC:      cc.Cfg.Network.RPC,
		From:     sub.From,
		Nonce:    sub.Nonce,
		TxHash:   sub.TxHash,
		GasPrice: res.GasPrice,
		GasLimit: gasLimit,
		Label:    txLabel,
	}
	if sub.Transaction.To != nil {
		to := *sub.Transaction.To
		entry.To = &to
		res.To = to.String()
	}
	if sub.ContractAddress != nil {
		entry.ContractAddress = sub.ContractAddress
		res.ContractAddress = sub.ContractAddress.String()
	}
	if value != nil && value.Sign() > 0 {
		entry.Value = value.String()
		res.Value = entry.Value
	}

	j, err := cc.Journal()
	if err != nil {
		cc.Log.Error("opening journal: %v", err)
	} else if recorded, err := j.Record(entry); err != nil {
		cc.Log.Error("journaling %s: %v", sub.TxHash.Hex(), err)
	} else {
		res.JournalSeq = recorded.Seq
	}

	if txWait {
		receipt, err := waitForReceipt(cmd, cc, client.Provider(), sub.TxHash)
		if err != nil {
			return err
		}
		rr := newReceiptResult(receipt)
		res.Receipt = &rr
	}
	return cc.Fmt.Print(res)
}
