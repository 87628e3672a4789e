package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/seqeth/internal/output"
	"github.com/mrz1836/seqeth/internal/version"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var versionNode bool

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print version information",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationSkipValidate: "true"},
	RunE:        runVersion,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&versionNode, "node", false, "also query the node's client version")
}

// VersionResult is the binary's build info and optionally the node's.
type VersionResult struct {
	version.Info

	Node *version.Client `json:"node,omitempty"`
}

// RenderText implements output.TextRenderer.
func (r VersionResult) RenderText(w io.Writer) error {
	v := r.Version
	if version.IsDev(v) {
		v += " (development build)"
	}
	kv := &output.KV{}
	kv.Add("seqeth", v).
		Add("Commit", r.Commit).
		Add("Built", r.Date).
		Add("Go", r.GoVersion).
		Add("Platform", r.Platform)
	if r.Node != nil {
		kv.Add("Node", r.Node.Raw)
	}
	return kv.RenderText(w)
}

func runVersion(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	res := VersionResult{Info: version.Get()}
	if versionNode {
		ctx, cancel := contextWithTimeout(cmd, cc.Cfg.Timeout())
		defer cancel()
		raw, err := cc.Provider().ClientVersion(ctx)
		if err != nil {
			return err
		}
		node := version.ParseClient(raw)
		res.Node = &node
	}
	return cc.Fmt.Print(res)
}
