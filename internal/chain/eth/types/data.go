package ethtypes

import (
	"bytes"
	"math/big"

	"github.com/mrz1836/seqeth/internal/chain/eth/hexutil"
)

// UnsizedData is a variable-length byte buffer. It owns its bytes and
// encodes as 0x-prefixed hex in JSON.
type UnsizedData []byte

// ParseUnsizedData decodes a hex byte string.
func ParseUnsizedData(s string) (UnsizedData, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, err
	}
	return UnsizedData(b), nil
}

// UnsizedFromUint64 returns the minimal big-endian encoding of v.
func UnsizedFromUint64(v uint64) UnsizedData {
	return UnsizedData(hexutil.UintToBytes(v))
}

// UnsizedFromBig returns the minimal big-endian encoding of a non-negative n.
func UnsizedFromBig(n *big.Int) UnsizedData {
	return UnsizedData(hexutil.BigToBytes(n))
}

// Hex returns the 0x-prefixed hex form.
func (d UnsizedData) Hex() string { return hexutil.EncodePrefixed(d) }

// String implements fmt.Stringer.
func (d UnsizedData) String() string { return d.Hex() }

// Equal compares byte-wise. Nil and empty buffers are equal.
func (d UnsizedData) Equal(other UnsizedData) bool { return bytes.Equal(d, other) }

// Clone returns an independent copy.
func (d UnsizedData) Clone() UnsizedData {
	if d == nil {
		return nil
	}
	return bytes.Clone(d)
}

// BigInt interprets the buffer as a big-endian unsigned integer.
func (d UnsizedData) BigInt() *big.Int { return hexutil.BytesToBig(d) }

// Uint64 interprets the buffer as a big-endian unsigned integer.
func (d UnsizedData) Uint64() (uint64, error) { return hexutil.BytesToUint(d) }

// Trimmed returns the buffer without leading zero bytes.
func (d UnsizedData) Trimmed() UnsizedData { return hexutil.TrimLeadingZeros(d) }

// MarshalText implements encoding.TextMarshaler.
func (d UnsizedData) MarshalText() ([]byte, error) { return []byte(d.Hex()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *UnsizedData) UnmarshalText(text []byte) error {
	b, err := hexutil.Decode(string(text))
	if err != nil {
		return err
	}
	*d = b
	return nil
}

// HexUint64 is a uint64 carried as a JSON-RPC quantity ("0x5208").
type HexUint64 uint64

// MarshalText implements encoding.TextMarshaler.
func (q HexUint64) MarshalText() ([]byte, error) {
	return []byte(hexutil.EncodeUint64Quantity(uint64(q))), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (q *HexUint64) UnmarshalText(text []byte) error {
	v, err := hexutil.DecodeUint64Quantity(string(text))
	if err != nil {
		return err
	}
	*q = HexUint64(v)
	return nil
}

// HexBig is an arbitrary-width unsigned integer carried as a JSON-RPC quantity.
type HexBig big.Int

// NewHexBig wraps n. A nil n is treated as zero.
func NewHexBig(n *big.Int) *HexBig {
	if n == nil {
		n = new(big.Int)
	}
	return (*HexBig)(new(big.Int).Set(n))
}

// Int returns a copy of the value as a *big.Int. A nil receiver returns nil.
func (q *HexBig) Int() *big.Int {
	if q == nil {
		return nil
	}
	return new(big.Int).Set((*big.Int)(q))
}

// String returns the decimal form.
func (q *HexBig) String() string {
	if q == nil {
		return "<nil>"
	}
	return (*big.Int)(q).String()
}

// MarshalText implements encoding.TextMarshaler.
func (q *HexBig) MarshalText() ([]byte, error) {
	return []byte(hexutil.EncodeBigQuantity((*big.Int)(q))), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (q *HexBig) UnmarshalText(text []byte) error {
	n, err := hexutil.DecodeBig(string(text))
	if err != nil {
		return err
	}
	(*big.Int)(q).Set(n)
	return nil
}
