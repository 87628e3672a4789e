package keys

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"
	"filippo.io/age/armor"

	ethcrypto "github.com/mrz1836/seqeth/internal/chain/eth/crypto"
	ethtypes "github.com/mrz1836/seqeth/internal/chain/eth/types"
	"github.com/mrz1836/seqeth/internal/fileutil"
	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

// keyFilePerm keeps key files private to the owner.
const keyFilePerm = 0o600

// Encrypt seals plaintext to an armored age file keyed by password.
func Encrypt(plaintext []byte, password string) ([]byte, error) {
	if password == "" {
		return nil, seqerr.New(seqerr.KindInvalidInput, "password must not be empty")
	}
	recipient, err := age.NewScryptRecipient(password)
	if err != nil {
		return nil, seqerr.WrapAs(seqerr.KindEncodingError, err, "creating scrypt recipient")
	}

	buf := &bytes.Buffer{}
	aw := armor.NewWriter(buf)
	w, err := age.Encrypt(aw, recipient)
	if err != nil {
		return nil, seqerr.WrapAs(seqerr.KindEncodingError, err, "initializing encryption")
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, seqerr.WrapAs(seqerr.KindEncodingError, err, "writing encrypted data")
	}
	if err := w.Close(); err != nil {
		return nil, seqerr.WrapAs(seqerr.KindEncodingError, err, "finalizing encryption")
	}
	if err := aw.Close(); err != nil {
		return nil, seqerr.WrapAs(seqerr.KindEncodingError, err, "finalizing armor")
	}
	return buf.Bytes(), nil
}

// Decrypt opens an age file, armored or binary, with password. A wrong
// password is an INVALID_KEY error.
func Decrypt(ciphertext []byte, password string) (*SecureBytes, error) {
	identity, err := age.NewScryptIdentity(password)
	if err != nil {
		return nil, seqerr.WrapAs(seqerr.KindInvalidInput, err, "creating scrypt identity")
	}

	var src io.Reader = bytes.NewReader(ciphertext)
	if bytes.HasPrefix(bytes.TrimSpace(ciphertext), []byte(armor.Header)) {
		src = armor.NewReader(bytes.NewReader(ciphertext))
	}

	r, err := age.Decrypt(src, identity)
	if err != nil {
		var noMatch *age.NoIdentityMatchError
		if errors.As(err, &noMatch) {
			return nil, seqerr.WithSuggestion(
				seqerr.New(seqerr.KindInvalidKey, "wrong password for key file"),
				"check the password or SEQETH_KEY_PASSWORD",
			)
		}
		return nil, seqerr.WrapAs(seqerr.KindInvalidKey, err, "decrypting key file")
	}

	plaintext, err := io.ReadAll(r)
	defer clear(plaintext)
	if err != nil {
		return nil, seqerr.WrapAs(seqerr.KindInvalidKey, err, "reading decrypted data")
	}
	return NewSecureBytes(plaintext), nil
}

// SaveKeyFile encrypts key to path. Existing files are never overwritten.
func SaveKeyFile(path string, key ethtypes.PrivateKey, password string) error {
	if err := ethcrypto.ValidatePrivateKey(key); err != nil {
		return err
	}
	plaintext := []byte(strings.TrimPrefix(key.Hex(), "0x"))
	defer clear(plaintext)

	sealed, err := Encrypt(plaintext, password)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return seqerr.WrapAs(seqerr.KindGeneral, err, "creating key directory")
	}
	if err := fileutil.WriteExclusive(path, sealed, keyFilePerm); err != nil {
		return seqerr.Wrap(err, "writing key file")
	}
	return nil
}

// LoadKeyFile decrypts the key stored at path.
func LoadKeyFile(path, password string) (*SecureBytes, error) {
	// #nosec G304 -- key file path is chosen by the user
	sealed, err := os.ReadFile(path)
	if err != nil {
		return nil, seqerr.WithDetails(
			seqerr.WrapAs(seqerr.KindInvalidInput, err, "reading key file"),
			map[string]string{"path": path},
		)
	}

	hexKey, err := Decrypt(sealed, password)
	if err != nil {
		return nil, err
	}
	defer hexKey.Destroy()

	var out *SecureBytes
	err = hexKey.Use(func(b []byte) error {
		key, err := ethtypes.ParsePrivateKey(string(bytes.TrimSpace(b)))
		if err != nil {
			return seqerr.WithDetails(err, map[string]string{"path": path})
		}
		defer key.Zero()
		out = NewSecureBytes(key[:])
		return nil
	})
	return out, err
}
