package cli

import (
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mrz1836/seqeth/internal/journal"
	"github.com/mrz1836/seqeth/internal/output"
	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	listKind   string
	listStatus string
	listLimit  int
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var deploymentsCmd = &cobra.Command{
	Use:     "deployments",
	Aliases: []string{"journal", "history"},
	Short:   "List journaled transactions",
	Long: `List transactions broadcast by send and deploy, newest first.

When a chain id is configured only that chain's entries are shown.`,
	Example: `  seqeth deployments
  seqeth deployments --kind transfer --status pending --limit 5`,
	GroupID: "tx",
	Args:    cobra.NoArgs,
	RunE:    runDeployments,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(deploymentsCmd)

	deploymentsCmd.Flags().StringVar(&listKind, "kind", "deploy", "entry kind: deploy, transfer, call, or all")
	deploymentsCmd.Flags().StringVar(&listStatus, "status", "", "entry status: pending, mined, failed")
	deploymentsCmd.Flags().IntVar(&listLimit, "limit", 20, "maximum entries, 0 for no limit")
}

// JournalList is the printable form of journal entries.
type JournalList struct {
	Entries []journal.Entry `json:"entries"`
}

// RenderText implements output.TextRenderer.
func (l JournalList) RenderText(w io.Writer) error {
	if len(l.Entries) == 0 {
		output.Infof(w, "no journal entries")
		return nil
	}
	t := output.NewTable("SEQ", "KIND", "STATUS", "NONCE", "TX", "ADDRESS", "LABEL").AlignRight(0, 3)
	for _, e := range l.Entries {
		addr := ""
		switch {
		case e.ContractAddress != nil:
			addr = e.ContractAddress.String()
		case e.To != nil:
			addr = e.To.String()
		}
		t.AddRow(
			strconv.FormatUint(e.Seq, 10),
			string(e.Kind),
			string(e.Status),
			strconv.FormatUint(e.Nonce, 10),
			abbreviateHex(e.TxHash.Hex()),
			addr,
			e.Label,
		)
	}
	return t.RenderText(w)
}

func parseFilter(chainID uint64) (journal.Filter, error) {
	f := journal.Filter{ChainID: chainID, Limit: listLimit}
	switch k := journal.Kind(listKind); k {
	case journal.KindDeploy, journal.KindTransfer, journal.KindCall:
		f.Kind = k
	case "all", "":
	default:
		return f, seqerr.WithDetails(
			seqerr.New(seqerr.KindInvalidInput, "unknown entry kind"),
			map[string]string{"kind": listKind},
		)
	}
	switch s := journal.Status(listStatus); s {
	case journal.StatusPending, journal.StatusMined, journal.StatusFailed:
		f.Status = s
	case "":
	default:
		return f, seqerr.WithDetails(
			seqerr.New(seqerr.KindInvalidInput, "unknown entry status"),
			map[string]string{"status": listStatus},
		)
	}
	if listLimit < 0 {
		return f, seqerr.New(seqerr.KindInvalidInput, "--limit must not be negative")
	}
	return f, nil
}

func runDeployments(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	filter, err := parseFilter(cc.Cfg.Network.ChainID)
	if err != nil {
		return err
	}
	j, err := cc.Journal()
	if err != nil {
		return err
	}
	entries, err := j.List(filter)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	return cc.Fmt.Print(JournalList{Entries: entries})
}
