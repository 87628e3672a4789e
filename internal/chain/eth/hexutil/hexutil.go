// Package hexutil converts between byte buffers, integers, and the hex
// strings used on the Ethereum JSON-RPC wire.
//
// Byte strings are always emitted lowercase. Input is accepted with or
// without a 0x/0X prefix and in either case.
package hexutil

import (
	"encoding/hex"
	"math/big"
	"strconv"
	"strings"

	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

// Prefix is the hex prefix used on the wire.
const Prefix = "0x"

// Encode returns the lowercase hex encoding of b without a prefix.
func Encode(b []byte) string {
	return hex.EncodeToString(b)
}

// EncodePrefixed returns the lowercase hex encoding of b with a 0x prefix.
func EncodePrefixed(b []byte) string {
	return Prefix + hex.EncodeToString(b)
}

// Has0xPrefix reports whether s starts with 0x or 0X.
func Has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

// Strip0x removes an optional 0x/0X prefix.
func Strip0x(s string) string {
	if Has0xPrefix(s) {
		return s[2:]
	}
	return s
}

// Decode parses a hex byte string. The digit count must be even.
func Decode(s string) ([]byte, error) {
	raw := Strip0x(s)
	if len(raw)%2 != 0 {
		return nil, seqerr.WithDetails(
			seqerr.New(seqerr.KindParseError, "hex string has odd length"),
			map[string]string{"input": abbreviate(s)},
		)
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return nil, seqerr.WithDetails(
			seqerr.New(seqerr.KindParseError, "invalid hex character"),
			map[string]string{"input": abbreviate(s)},
		)
	}
	return b, nil
}

// DecodeFixed parses a hex string that must decode to exactly size bytes.
func DecodeFixed(s string, size int) ([]byte, error) {
	b, err := Decode(s)
	if err != nil {
		return nil, err
	}
	if len(b) != size {
		return nil, seqerr.WithDetails(
			seqerr.Newf(seqerr.KindParseError, "expected %d bytes, got %d", size, len(b)),
			map[string]string{"input": abbreviate(s)},
		)
	}
	return b, nil
}

// DecodeQuantity parses a JSON-RPC quantity ("0x1", "0x0400") into bytes.
// An odd nibble count is allowed. The result is minimal big-endian.
func DecodeQuantity(s string) ([]byte, error) {
	n, err := DecodeBig(s)
	if err != nil {
		return nil, err
	}
	return n.Bytes(), nil
}

// errEmptyQuantity rejects "" and "0x"; zero is spelled "0x0".
func errEmptyQuantity(s string) error {
	return seqerr.WithDetails(
		seqerr.New(seqerr.KindParseError, "empty hex quantity"),
		map[string]string{"input": s},
	)
}

// DecodeBig parses a hex quantity into a non-negative big integer.
func DecodeBig(s string) (*big.Int, error) {
	raw := Strip0x(s)
	if raw == "" {
		return nil, errEmptyQuantity(s)
	}
	n, ok := new(big.Int).SetString(raw, 16)
	if !ok || n.Sign() < 0 || strings.ContainsAny(raw, "+-_") {
		return nil, seqerr.WithDetails(
			seqerr.New(seqerr.KindParseError, "invalid hex quantity"),
			map[string]string{"input": abbreviate(s)},
		)
	}
	return n, nil
}

// DecodeUint64Quantity parses a hex quantity that must fit in 64 bits.
func DecodeUint64Quantity(s string) (uint64, error) {
	raw := Strip0x(s)
	if raw == "" {
		return 0, errEmptyQuantity(s)
	}
	if len(raw) > 16 {
		return 0, seqerr.WithDetails(
			seqerr.New(seqerr.KindParseError, "hex quantity exceeds 64 bits"),
			map[string]string{"input": abbreviate(s)},
		)
	}
	v, err := strconv.ParseUint(raw, 16, 64)
	if err != nil {
		return 0, seqerr.WithDetails(
			seqerr.New(seqerr.KindParseError, "invalid hex quantity"),
			map[string]string{"input": abbreviate(s)},
		)
	}
	return v, nil
}

// EncodeUint64Quantity formats v as a JSON-RPC quantity ("0x0", "0x400").
func EncodeUint64Quantity(v uint64) string {
	return Prefix + strconv.FormatUint(v, 16)
}

// EncodeBigQuantity formats a non-negative n as a JSON-RPC quantity.
// A nil value is treated as zero.
func EncodeBigQuantity(n *big.Int) string {
	if n == nil || n.Sign() == 0 {
		return "0x0"
	}
	return Prefix + n.Text(16)
}

// EncodeBytesQuantity formats a big-endian unsigned byte string as a quantity.
func EncodeBytesQuantity(b []byte) string {
	return EncodeBigQuantity(new(big.Int).SetBytes(b))
}

// UintToBytes returns the minimal big-endian encoding of v.
// Zero encodes as the empty slice.
func UintToBytes(v uint64) []byte {
	if v == 0 {
		return []byte{}
	}
	var buf [8]byte
	n := 8
	for v > 0 {
		n--
		buf[n] = byte(v)
		v >>= 8
	}
	out := make([]byte, 8-n)
	copy(out, buf[n:])
	return out
}

// BytesToUint interprets b as a big-endian unsigned integer. Leading zero
// bytes are ignored; more than 8 significant bytes is an error.
func BytesToUint(b []byte) (uint64, error) {
	b = TrimLeadingZeros(b)
	if len(b) > 8 {
		return 0, seqerr.Newf(seqerr.KindParseError, "value of %d bytes overflows uint64", len(b))
	}
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v, nil
}

// BigToBytes returns the minimal big-endian encoding of a non-negative n.
func BigToBytes(n *big.Int) []byte {
	if n == nil {
		return []byte{}
	}
	return n.Bytes()
}

// BytesToBig interprets b as a big-endian unsigned integer.
func BytesToBig(b []byte) *big.Int {
	return new(big.Int).SetBytes(b)
}

// PadLeft left-pads b with zero bytes to size. Longer input is returned unchanged.
func PadLeft(b []byte, size int) []byte {
	if len(b) >= size {
		return b
	}
	out := make([]byte, size)
	copy(out[size-len(b):], b)
	return out
}

// PadRight right-pads b with zero bytes to size. Longer input is returned unchanged.
func PadRight(b []byte, size int) []byte {
	if len(b) >= size {
		return b
	}
	out := make([]byte, size)
	copy(out, b)
	return out
}

// TrimLeadingZeros drops leading zero bytes.
func TrimLeadingZeros(b []byte) []byte {
	i := 0
	for i < len(b) && b[i] == 0 {
		i++
	}
	return b[i:]
}

// abbreviate keeps error details readable for large payloads.
func abbreviate(s string) string {
	const limit = 66
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
