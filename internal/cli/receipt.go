package cli

import (
	"errors"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mrz1836/seqeth/internal/chain/eth/rpc"
	ethtypes "github.com/mrz1836/seqeth/internal/chain/eth/types"
	"github.com/mrz1836/seqeth/internal/journal"
	"github.com/mrz1836/seqeth/internal/output"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var receiptWait bool

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var receiptCmd = &cobra.Command{
	Use:   "receipt <hash>",
	Short: "Show a transaction receipt",
	Long: `Show the receipt of a mined transaction. With --wait, poll until it is
mined using the receipts section of the config for the schedule.

Receipts of journaled transactions update their journal entry.`,
	GroupID: "tx",
	Args:    cobra.ExactArgs(1),
	RunE:    runReceipt,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(receiptCmd)
	receiptCmd.Flags().BoolVar(&receiptWait, "wait", false, "poll until the transaction is mined")
}

// ReceiptResult is a receipt summary.
type ReceiptResult struct {
	TxHash          string `json:"tx_hash"`
	Status          string `json:"status"`
	BlockNumber     uint64 `json:"block_number"`
	BlockHash       string `json:"block_hash"`
	GasUsed         uint64 `json:"gas_used"`
	GasPrice        string `json:"effective_gas_price,omitempty"`
	ContractAddress string `json:"contract_address,omitempty"`
	Logs            int    `json:"logs"`
}

func newReceiptResult(r *ethtypes.Receipt) ReceiptResult {
	res := ReceiptResult{
		TxHash:      r.TransactionHash.Hex(),
		Status:      string(journal.StatusFailed),
		BlockNumber: uint64(r.BlockNumber),
		BlockHash:   r.BlockHash.Hex(),
		GasUsed:     uint64(r.GasUsed),
		Logs:        len(r.Logs),
	}
	if r.Succeeded() {
		res.Status = "success"
	}
	if r.EffectiveGasPrice != nil {
		res.GasPrice = r.EffectiveGasPrice.Int().String()
	}
	if r.ContractAddress != nil {
		res.ContractAddress = r.ContractAddress.String()
	}
	return res
}

// RenderText implements output.TextRenderer.
func (r ReceiptResult) RenderText(w io.Writer) error {
	kv := &output.KV{}
	kv.Add("Tx hash", r.TxHash).
		Add("Status", r.Status).
		Add("Block", output.Count(r.BlockNumber)).
		Add("Gas used", output.Count(r.GasUsed)).
		Add("Contract", r.ContractAddress).
		Add("Logs", strconv.Itoa(r.Logs))
	return kv.RenderText(w)
}

func runReceipt(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	hash, err := ethtypes.ParseHash256(args[0])
	if err != nil {
		return err
	}
	p := cc.Provider()

	var receipt *ethtypes.Receipt
	if receiptWait {
		receipt, err = waitForReceipt(cmd, cc, p, hash)
	} else {
		ctx, cancel := contextWithTimeout(cmd, cc.Cfg.Timeout())
		defer cancel()
		receipt, err = p.TransactionReceipt(ctx, hash)
		if err == nil {
			markJournal(cc, hash, receipt)
		}
	}
	if err != nil {
		return err
	}
	return cc.Fmt.Print(newReceiptResult(receipt))
}

// waitForReceipt polls for hash per the config and updates the journal.
func waitForReceipt(cmd *cobra.Command, cc *CommandContext, p *rpc.Provider, hash ethtypes.Hash256) (*ethtypes.Receipt, error) {
	if !cc.Fmt.IsJSON() {
		output.Infof(cmd.ErrOrStderr(), "waiting for %s", hash.Hex())
	}
	receipt, err := p.WaitForReceipt(cmd.Context(), hash, cc.Cfg.ReceiptRetry())
	if err != nil {
		return nil, err
	}
	markJournal(cc, hash, receipt)
	if !receipt.Succeeded() && !cc.Fmt.IsJSON() {
		output.Warnf(cmd.ErrOrStderr(), "transaction reverted in block %d", uint64(receipt.BlockNumber))
	}
	return receipt, nil
}

// markJournal records the receipt on a journaled transaction. Unknown
// hashes are ignored.
func markJournal(cc *CommandContext, hash ethtypes.Hash256, r *ethtypes.Receipt) {
	j, err := cc.Journal()
	if err != nil {
		cc.Log.Error("opening journal: %v", err)
		return
	}
	if _, err := j.MarkReceipt(hash, r); err != nil && !errors.Is(err, journal.ErrNotFound) {
		cc.Log.Error("updating journal for %s: %v", hash.Hex(), err)
	}
}

