package keys

import (
	"strings"

	ethtypes "github.com/mrz1836/seqeth/internal/chain/eth/types"
	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

// Kind names where a key came from.
type Kind string

// Key sources in the order Resolve tries them.
const (
	KindHex      Kind = "hex"
	KindFile     Kind = "file"
	KindMnemonic Kind = "mnemonic"
)

// ErrNoKey is returned when no key source is configured.
//
//nolint:gochecknoglobals // sentinel
var ErrNoKey = &seqerr.SequenceError{
	Kind:       seqerr.KindInvalidKey,
	Message:    "no signing key configured",
	Suggestion: "pass --private-key, --key-file, or --mnemonic, or set SEQETH_PRIVATE_KEY",
	ExitCode:   seqerr.ExitKey,
}

// Source describes the candidate key inputs. The first non-empty of Hex,
// File, and Mnemonic wins.
type Source struct {
	Hex        string
	File       string
	Password   string
	Mnemonic   string
	Passphrase string
	Index      uint32

	// Prompt supplies the key file password when Password is empty.
	Prompt func() (string, error)
}

// Kind reports which input Resolve will use, or "" when none is set.
func (s Source) Kind() Kind {
	switch {
	case strings.TrimSpace(s.Hex) != "":
		return KindHex
	case s.File != "":
		return KindFile
	case strings.TrimSpace(s.Mnemonic) != "":
		return KindMnemonic
	default:
		return ""
	}
}

// Resolve loads the key into locked memory. Call Destroy on the result.
func (s Source) Resolve() (*SecureBytes, error) {
	switch s.Kind() {
	case KindHex:
		key, err := ethtypes.ParsePrivateKey(s.Hex)
		if err != nil {
			return nil, err
		}
		defer key.Zero()
		return NewSecureBytes(key[:]), nil

	case KindFile:
		password := s.Password
		if password == "" && s.Prompt != nil {
			p, err := s.Prompt()
			if err != nil {
				return nil, err
			}
			password = p
		}
		return LoadKeyFile(s.File, password)

	case KindMnemonic:
		return DeriveKey(s.Mnemonic, s.Passphrase, s.Index)

	default:
		return nil, ErrNoKey
	}
}
