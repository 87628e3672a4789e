package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/seqeth/internal/config"
	"github.com/mrz1836/seqeth/internal/output"
	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var configForce bool

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var (
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
		Long: `Manage ~/.seqeth/config.yaml. Values are layered: defaults, then the
file, then SEQETH_* environment variables, then flags.`,
	}

	configInitCmd = &cobra.Command{
		Use:         "init",
		Short:       "Write a default config file",
		Example:     `  seqeth config init --rpc https://sepolia.example.org --chain-id 11155111`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationSkipValidate: "true"},
		RunE:        runConfigInit,
	}

	configShowCmd = &cobra.Command{
		Use:         "show",
		Short:       "Print the effective configuration",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationSkipValidate: "true"},
		RunE:        runConfigShow,
	}

	configGetCmd = &cobra.Command{
		Use:         "get <key>",
		Short:       "Print one effective config value",
		Example:     `  seqeth config get network.rpc`,
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{annotationSkipValidate: "true"},
		RunE:        runConfigGet,
	}

	configSetCmd = &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Update one value in the config file",
		Example: `  seqeth config set network.chain_id 11155111
  seqeth config set gas.speed fast`,
		Args:        cobra.ExactArgs(2),
		Annotations: map[string]string{annotationSkipValidate: "true"},
		RunE:        runConfigSet,
	}

	configPathCmd = &cobra.Command{
		Use:         "path",
		Short:       "Print the config file location",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationSkipValidate: "true"},
		RunE:        runConfigPath,
	}
)

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd, configGetCmd, configSetCmd, configPathCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")
}

// ConfigView is the effective configuration.
type ConfigView struct {
	Path   string
	Config *config.Config
	Err    error
}

// RenderText implements output.TextRenderer.
func (v ConfigView) RenderText(w io.Writer) error {
	data, err := yaml.Marshal(v.Config)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "# %s\n%s", v.Path, data); err != nil {
		return err
	}
	if v.Err != nil {
		output.Warnf(w, "%s", output.DescribeError(v.Err).Message)
	}
	return nil
}

// MarshalJSON emits the config under its YAML key names.
func (v ConfigView) MarshalJSON() ([]byte, error) {
	data, err := yaml.Marshal(v.Config)
	if err != nil {
		return nil, err
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	out := map[string]any{"path": v.Path, "config": tree, "valid": v.Err == nil}
	if v.Err != nil {
		out["error"] = output.DescribeError(v.Err)
	}
	return json.Marshal(out)
}

// ValueResult is a single config value.
type ValueResult struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// String implements fmt.Stringer.
func (r ValueResult) String() string { return r.Value }

// PathResult is a single file location.
type PathResult struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
}

// String implements fmt.Stringer.
func (r PathResult) String() string { return r.Path }

func runConfigInit(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	path := config.Path(cc.Cfg.GetHome())

	if _, err := os.Stat(path); err == nil && !configForce {
		return seqerr.WithSuggestion(
			seqerr.WithDetails(
				seqerr.New(seqerr.KindInvalidInput, "config file already exists"),
				map[string]string{"path": path},
			),
			"pass --force to overwrite it",
		)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return seqerr.WrapAs(seqerr.KindGeneral, err, "checking config file")
	}

	cfg := config.Defaults()
	config.ApplyEnvironment(cfg)
	if rpcURL != "" {
		cfg.Network.RPC = config.SanitizeURL(rpcURL)
	}
	if chainIDFlag != 0 {
		cfg.Network.ChainID = chainIDFlag
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg.Home = ""

	if err := config.Save(cfg, path); err != nil {
		return seqerr.WrapAs(seqerr.KindGeneral, err, "writing config")
	}
	cc.Log.Debug("config written to %s", path)
	if !cc.Fmt.IsJSON() {
		output.Successf(cmd.ErrOrStderr(), "config written to %s", path)
	}
	return cc.Fmt.Print(PathResult{Path: path, Exists: true})
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	return cc.Fmt.Print(ConfigView{
		Path:   config.Path(cc.Cfg.GetHome()),
		Config: cc.Cfg,
		Err:    cc.Cfg.Validate(),
	})
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	path := config.Path(cc.Cfg.GetHome())
	_, err := os.Stat(path)
	return cc.Fmt.Print(PathResult{Path: path, Exists: err == nil})
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	v, err := cc.Cfg.Get(args[0])
	if err != nil {
		return err
	}
	return cc.Fmt.Print(ValueResult{Key: args[0], Value: v})
}

// runConfigSet edits the file rather than the effective config, so
// environment and flag overrides are not persisted.
func runConfigSet(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	path := config.Path(cc.Cfg.GetHome())
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return err
	}
	cfg.Home = ""
	if err := cfg.Set(args[0], args[1]); err != nil {
		return err
	}
	if err := config.Save(cfg, path); err != nil {
		return seqerr.WrapAs(seqerr.KindGeneral, err, "writing config")
	}
	cc.Log.Debug("config %s set in %s", args[0], path)
	if !cc.Fmt.IsJSON() {
		output.Successf(cmd.ErrOrStderr(), "set %s = %s", args[0], args[1])
	}
	v, err := cfg.Get(args[0])
	if err != nil {
		return err
	}
	return cc.Fmt.Print(ValueResult{Key: args[0], Value: v})
}
