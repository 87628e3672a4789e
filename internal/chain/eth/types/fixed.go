// Package ethtypes holds the value types shared by the codec, signing, and
// provider layers: fixed-width byte arrays, quantities, block references,
// and the JSON shapes returned by Ethereum nodes.
package ethtypes

import (
	"bytes"
	"encoding/json"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/mrz1836/seqeth/internal/chain/eth/hexutil"
	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

// Byte widths of the fixed types.
const (
	HashLength       = 32
	AddressLength    = 20
	BlockNonceLength = 8
	PrivateKeyLength = 32
	PublicKeyLength  = 64
)

// Hash256 is a 32-byte digest such as a block or transaction hash.
type Hash256 [HashLength]byte

// Address is a 20-byte account or contract address.
type Address [AddressLength]byte

// BlockNonce is the 8-byte proof-of-work nonce carried in block headers.
type BlockNonce [BlockNonceLength]byte

// PrivateKey is a raw secp256k1 scalar.
type PrivateKey [PrivateKeyLength]byte

// PublicKey is an uncompressed secp256k1 point without the 0x04 format byte.
type PublicKey [PublicKeyLength]byte

// ParseHash256 parses a hex hash with an optional 0x prefix.
func ParseHash256(s string) (Hash256, error) {
	var h Hash256
	b, err := hexutil.DecodeFixed(s, HashLength)
	if err != nil {
		return h, seqerr.Wrap(err, "hash")
	}
	copy(h[:], b)
	return h, nil
}

// Hash256FromBytes copies b into a Hash256. b must be exactly 32 bytes.
func Hash256FromBytes(b []byte) (Hash256, error) {
	var h Hash256
	if len(b) != HashLength {
		return h, seqerr.Newf(seqerr.KindParseError, "hash: expected %d bytes, got %d", HashLength, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// Bytes returns a copy of the hash bytes.
func (h Hash256) Bytes() []byte { return bytes.Clone(h[:]) }

// Hex returns the 0x-prefixed lowercase hex form.
func (h Hash256) Hex() string { return hexutil.EncodePrefixed(h[:]) }

// String implements fmt.Stringer.
func (h Hash256) String() string { return h.Hex() }

// IsZero reports whether every byte is zero.
func (h Hash256) IsZero() bool { return h == Hash256{} }

// MarshalText implements encoding.TextMarshaler.
func (h Hash256) MarshalText() ([]byte, error) { return []byte(h.Hex()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash256) UnmarshalText(text []byte) error {
	parsed, err := ParseHash256(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseAddress parses a hex address with an optional 0x prefix. Mixed-case
// input is accepted without checksum validation; use ParseChecksumAddress
// to enforce EIP-55.
func ParseAddress(s string) (Address, error) {
	var a Address
	b, err := hexutil.DecodeFixed(s, AddressLength)
	if err != nil {
		return a, seqerr.WithSuggestion(
			seqerr.Wrap(err, "address"),
			"addresses are 40 hex characters, optionally prefixed with 0x",
		)
	}
	copy(a[:], b)
	return a, nil
}

// ParseChecksumAddress parses s and, when it is mixed case, verifies the
// EIP-55 checksum. All-lowercase and all-uppercase input carry no checksum.
func ParseChecksumAddress(s string) (Address, error) {
	a, err := ParseAddress(s)
	if err != nil {
		return a, err
	}
	raw := hexutil.Strip0x(s)
	if raw == strings.ToLower(raw) || raw == strings.ToUpper(raw) {
		return a, nil
	}
	if hexutil.Strip0x(a.String()) != raw {
		return Address{}, seqerr.WithDetails(
			seqerr.New(seqerr.KindParseError, "address checksum mismatch"),
			map[string]string{"expected": a.String()},
		)
	}
	return a, nil
}

// MustParseAddress parses s and panics on failure.
// Only use with known-good constants.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AddressFromBytes copies b into an Address. b must be exactly 20 bytes.
func AddressFromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != AddressLength {
		return a, seqerr.Newf(seqerr.KindParseError, "address: expected %d bytes, got %d", AddressLength, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// Bytes returns a copy of the address bytes.
func (a Address) Bytes() []byte { return bytes.Clone(a[:]) }

// Hex returns the 0x-prefixed lowercase hex form.
func (a Address) Hex() string { return hexutil.EncodePrefixed(a[:]) }

// String returns the EIP-55 checksummed form.
func (a Address) String() string { return checksum(hexutil.Encode(a[:])) }

// IsZero reports whether every byte is zero.
func (a Address) IsZero() bool { return a == Address{} }

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) { return []byte(a.Hex()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// checksum applies EIP-55 casing to a 40-character lowercase hex address.
func checksum(lower string) string {
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write([]byte(lower))
	digest := hexutil.Encode(h.Sum(nil))

	out := make([]byte, 0, 2+len(lower))
	out = append(out, '0', 'x')
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		if c >= 'a' && c <= 'f' && digest[i] >= '8' {
			c -= 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}

// ParseBlockNonce parses a hex block nonce.
func ParseBlockNonce(s string) (BlockNonce, error) {
	var n BlockNonce
	b, err := hexutil.DecodeFixed(s, BlockNonceLength)
	if err != nil {
		return n, seqerr.Wrap(err, "block nonce")
	}
	copy(n[:], b)
	return n, nil
}

// Hex returns the 0x-prefixed lowercase hex form.
func (n BlockNonce) Hex() string { return hexutil.EncodePrefixed(n[:]) }

// Uint64 returns the nonce as an integer.
func (n BlockNonce) Uint64() uint64 {
	v, _ := hexutil.BytesToUint(n[:])
	return v
}

// MarshalText implements encoding.TextMarshaler.
func (n BlockNonce) MarshalText() ([]byte, error) { return []byte(n.Hex()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *BlockNonce) UnmarshalText(text []byte) error {
	parsed, err := ParseBlockNonce(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// ParsePrivateKey parses a 32-byte hex private key. Range checking
// against the curve order happens in the crypto package.
func ParsePrivateKey(s string) (PrivateKey, error) {
	var k PrivateKey
	b, err := hexutil.DecodeFixed(strings.TrimSpace(s), PrivateKeyLength)
	if err != nil {
		// never echo key material back in details
		return k, seqerr.New(seqerr.KindInvalidKey, "private key must be 32 bytes of hex")
	}
	copy(k[:], b)
	return k, nil
}

// PrivateKeyFromBytes copies b into a PrivateKey.
func PrivateKeyFromBytes(b []byte) (PrivateKey, error) {
	var k PrivateKey
	if len(b) != PrivateKeyLength {
		return k, seqerr.Newf(seqerr.KindInvalidKey, "private key must be %d bytes, got %d", PrivateKeyLength, len(b))
	}
	copy(k[:], b)
	return k, nil
}

// Bytes returns a copy of the key bytes.
func (k PrivateKey) Bytes() []byte { return bytes.Clone(k[:]) }

// Hex returns the 0x-prefixed hex form.
func (k PrivateKey) Hex() string { return hexutil.EncodePrefixed(k[:]) }

// String redacts the key so it never lands in logs by accident.
func (k PrivateKey) String() string { return "PrivateKey(redacted)" }

// Zero overwrites the key in place.
func (k *PrivateKey) Zero() {
	for i := range k {
		k[i] = 0
	}
}

// ParsePublicKey parses a hex public key of 64 bytes, or 65 bytes with a leading 0x04.
func ParsePublicKey(s string) (PublicKey, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return PublicKey{}, seqerr.Wrap(err, "public key")
	}
	return PublicKeyFromBytes(b)
}

// PublicKeyFromBytes accepts 64 raw coordinate bytes or a 65-byte uncompressed encoding.
func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	var p PublicKey
	switch {
	case len(b) == PublicKeyLength:
		copy(p[:], b)
	case len(b) == PublicKeyLength+1 && b[0] == 0x04:
		copy(p[:], b[1:])
	default:
		return p, seqerr.Newf(seqerr.KindParseError, "public key: expected 64 bytes or 65 with 0x04 prefix, got %d", len(b))
	}
	return p, nil
}

// Bytes returns a copy of the 64 coordinate bytes.
func (p PublicKey) Bytes() []byte { return bytes.Clone(p[:]) }

// Uncompressed returns the 65-byte 0x04-prefixed encoding.
func (p PublicKey) Uncompressed() []byte {
	out := make([]byte, 0, PublicKeyLength+1)
	out = append(out, 0x04)
	return append(out, p[:]...)
}

// Hex returns the 0x-prefixed hex form of the 64 coordinate bytes.
func (p PublicKey) Hex() string { return hexutil.EncodePrefixed(p[:]) }

// MarshalJSON encodes the key as a hex string.
func (p PublicKey) MarshalJSON() ([]byte, error) { return json.Marshal(p.Hex()) }
