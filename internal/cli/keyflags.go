package cli

import (
	"os"

	"github.com/spf13/cobra"

	ethtypes "github.com/mrz1836/seqeth/internal/chain/eth/types"
	"github.com/mrz1836/seqeth/internal/config"
	"github.com/mrz1836/seqeth/internal/keys"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	keyHex        string
	keyFile       string
	keyMnemonic   string
	keyPassphrase string
	keyIndex      uint32
)

// addKeyFlags registers the signing key flags on cmd.
func addKeyFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&keyHex, "private-key", "", "hex private key (or "+config.EnvPrivateKey+")")
	cmd.Flags().StringVar(&keyFile, "key-file", "", "age-encrypted key file (default from config keys.file)")
	cmd.Flags().StringVar(&keyMnemonic, "mnemonic", "", "BIP-39 mnemonic (or "+config.EnvMnemonic+")")
	cmd.Flags().StringVar(&keyPassphrase, "passphrase", "", "BIP-39 passphrase for --mnemonic")
	cmd.Flags().Uint32Var(&keyIndex, "index", 0, "account index on m/44'/60'/0'/0 (default from config)")
}

// keySource merges key flags, environment, and config in that order.
func keySource(cmd *cobra.Command, cfg *config.Config) keys.Source {
	src := keys.Source{
		Hex:        keyHex,
		File:       keyFile,
		Mnemonic:   keyMnemonic,
		Passphrase: keyPassphrase,
		Index:      keyIndex,
		Password:   os.Getenv(config.EnvKeyPassword),
		Prompt: func() (string, error) {
			return promptPasswordFn("Key file password: ")
		},
	}
	if src.Hex == "" {
		src.Hex = os.Getenv(config.EnvPrivateKey)
	}
	if src.Mnemonic == "" {
		src.Mnemonic = os.Getenv(config.EnvMnemonic)
	}
	if src.File == "" && src.Hex == "" && src.Mnemonic == "" && cfg.Keys.File != "" {
		src.File = config.ExpandPath(cfg.Keys.File)
	}
	if !cmd.Flags().Changed("index") {
		src.Index = cfg.Keys.DerivationIndex
	}
	return src
}

// signingKey resolves the key for a write command. Callers must zero it.
func signingKey(cmd *cobra.Command, cfg *config.Config) (ethtypes.PrivateKey, error) {
	return signingKeyFrom(keySource(cmd, cfg))
}

func signingKeyFrom(src keys.Source) (ethtypes.PrivateKey, error) {
	sb, err := src.Resolve()
	if err != nil {
		return ethtypes.PrivateKey{}, err
	}
	defer sb.Destroy()
	return sb.PrivateKey()
}
