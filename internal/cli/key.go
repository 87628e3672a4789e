package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	ethcrypto "github.com/mrz1836/seqeth/internal/chain/eth/crypto"
	ethtypes "github.com/mrz1836/seqeth/internal/chain/eth/types"
	"github.com/mrz1836/seqeth/internal/config"
	"github.com/mrz1836/seqeth/internal/keys"
	"github.com/mrz1836/seqeth/internal/output"
	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	keyWords  int
	keyOut    string
	keyReveal bool
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var (
	keyCmd = &cobra.Command{
		Use:     "key",
		Short:   "Manage signing keys",
		GroupID: "tx",
	}

	keyAddressCmd = &cobra.Command{
		Use:   "address",
		Short: "Print the address of the configured signing key",
		Args:  cobra.NoArgs,
		RunE:  runKeyAddress,
	}

	keyNewCmd = &cobra.Command{
		Use:   "new",
		Short: "Generate a BIP-39 mnemonic",
		Long: `Generate a new BIP-39 mnemonic and print the address at the chosen index.

The mnemonic is printed once. Store it offline.`,
		Args: cobra.NoArgs,
		RunE: runKeyNew,
	}

	keyEncryptCmd = &cobra.Command{
		Use:   "encrypt",
		Short: "Save the signing key to an age-encrypted file",
		Long: `Encrypt the resolved signing key with a password and write it to --out.
Existing files are never overwritten.

The password comes from ` + config.EnvKeyPassword + ` or an interactive prompt.`,
		Example: `  seqeth key encrypt --mnemonic "..." --index 2 --out ~/.seqeth/keys/deployer.age`,
		Args:    cobra.NoArgs,
		RunE:    runKeyEncrypt,
	}
)

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(keyCmd)
	keyCmd.AddCommand(keyAddressCmd, keyNewCmd, keyEncryptCmd)

	addKeyFlags(keyAddressCmd)
	addKeyFlags(keyEncryptCmd)
	keyEncryptCmd.Flags().StringVar(&keyOut, "out", "", "output file")
	_ = keyEncryptCmd.MarkFlagRequired("out")

	keyNewCmd.Flags().IntVar(&keyWords, "words", 12, "mnemonic length: 12 or 24")
	keyNewCmd.Flags().Uint32Var(&keyIndex, "index", 0, "account index to derive")
	keyNewCmd.Flags().BoolVar(&keyReveal, "show", true, "print the mnemonic")
}

// KeyResult describes a signing key without revealing it.
type KeyResult struct {
	Address  string `json:"address"`
	Source   string `json:"source,omitempty"`
	Path     string `json:"derivation_path,omitempty"`
	File     string `json:"file,omitempty"`
	Mnemonic string `json:"mnemonic,omitempty"`
}

// RenderText implements output.TextRenderer.
func (r KeyResult) RenderText(w io.Writer) error {
	kv := &output.KV{}
	kv.Add("Address", r.Address).
		Add("Source", r.Source).
		Add("Path", r.Path).
		Add("File", r.File).
		Add("Mnemonic", r.Mnemonic)
	return kv.RenderText(w)
}

// resolveKey resolves the key flags. Callers must zero the key.
func resolveKey(cmd *cobra.Command, cc *CommandContext) (KeyResult, ethtypes.PrivateKey, error) {
	src := keySource(cmd, cc.Cfg)
	key, err := signingKeyFrom(src)
	if err != nil {
		return KeyResult{}, key, err
	}
	addr, err := ethcrypto.PrivateKeyToAddress(key)
	if err != nil {
		key.Zero()
		return KeyResult{}, key, err
	}

	res := KeyResult{Address: addr.String(), Source: string(src.Kind())}
	switch src.Kind() {
	case keys.KindMnemonic:
		res.Path = keys.DerivationPath(src.Index)
	case keys.KindFile:
		res.File = src.File
	case keys.KindHex:
	}
	return res, key, nil
}

func runKeyAddress(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	res, key, err := resolveKey(cmd, cc)
	if err != nil {
		return err
	}
	key.Zero()
	return cc.Fmt.Print(res)
}

func runKeyNew(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	mnemonic, err := keys.GenerateMnemonic(keyWords)
	if err != nil {
		return err
	}
	sb, err := keys.DeriveKey(mnemonic, "", keyIndex)
	if err != nil {
		return err
	}
	defer sb.Destroy()
	key, err := sb.PrivateKey()
	if err != nil {
		return err
	}
	defer key.Zero()
	addr, err := ethcrypto.PrivateKeyToAddress(key)
	if err != nil {
		return err
	}

	res := KeyResult{
		Address: addr.String(),
		Source:  string(keys.KindMnemonic),
		Path:    keys.DerivationPath(keyIndex),
	}
	if keyReveal {
		res.Mnemonic = mnemonic
	}
	if !cc.Fmt.IsJSON() && keyReveal {
		output.Warnf(cmd.ErrOrStderr(), "write the mnemonic down and keep it offline; it is not saved")
	}
	return cc.Fmt.Print(res)
}

func runKeyEncrypt(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	out := config.ExpandPath(keyOut)
	if src := keySource(cmd, cc.Cfg); src.Kind() == keys.KindFile && src.File == out {
		return seqerr.New(seqerr.KindInvalidInput, "--out is the key file being read")
	}
	res, key, err := resolveKey(cmd, cc)
	if err != nil {
		return err
	}
	defer key.Zero()

	password := os.Getenv(config.EnvKeyPassword)
	if password == "" {
		if password, err = promptNewPasswordFn(); err != nil {
			return err
		}
	}

	if err := keys.SaveKeyFile(out, key, password); err != nil {
		return err
	}
	cc.Log.Debug("key for %s saved to %s", res.Address, out)
	res.File = out
	if !cc.Fmt.IsJSON() {
		output.Successf(cmd.ErrOrStderr(), "key saved to %s", out)
	}
	return cc.Fmt.Print(res)
}
