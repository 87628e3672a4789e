// Package rlp implements Recursive Length Prefix encoding and decoding.
// See: https://ethereum.org/en/developers/docs/data-structures-and-encoding/rlp/
package rlp

import (
	"fmt"
	"math/big"

	"github.com/mrz1836/seqeth/internal/chain/eth/hexutil"
	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

// Prefix offsets.
const (
	stringOffset = 0x80
	listOffset   = 0xc0
	// shortLimit is the longest payload that fits a single prefix byte.
	shortLimit = 55
)

// Encode encodes a value to RLP.
// Supported types: []byte, string, uint64, *big.Int (non-negative), Item, []Item, []any.
func Encode(val any) ([]byte, error) {
	switch v := val.(type) {
	case []byte:
		return encodeBytes(v), nil
	case string:
		return encodeBytes([]byte(v)), nil
	case uint64:
		return encodeBytes(hexutil.UintToBytes(v)), nil
	case *big.Int:
		if v != nil && v.Sign() < 0 {
			return nil, seqerr.New(seqerr.KindEncodingError, "rlp: negative integer")
		}
		return encodeBytes(hexutil.BigToBytes(v)), nil
	case Item:
		return EncodeItem(v), nil
	case []Item:
		return EncodeItem(List(v...)), nil
	case []any:
		return encodeList(v)
	default:
		return nil, seqerr.Newf(seqerr.KindEncodingError, "rlp: unsupported type %T", val)
	}
}

// EncodeItem encodes an item tree. It cannot fail.
func EncodeItem(it Item) []byte {
	if !it.isList {
		return encodeBytes(it.str)
	}
	parts := make([][]byte, len(it.list))
	for i, child := range it.list {
		parts[i] = EncodeItem(child)
	}
	content := concat(parts...)
	return concat(encodeLength(len(content), listOffset), content)
}

// encodeBytes encodes a byte slice.
// - For a single byte in [0x00, 0x7f], the byte is its own RLP encoding.
// - For 0-55 bytes, prefix with (0x80 + length).
// - For >55 bytes, prefix with (0xb7 + length of length) followed by length.
func encodeBytes(b []byte) []byte {
	if len(b) == 1 && b[0] < stringOffset {
		return []byte{b[0]}
	}
	return concat(encodeLength(len(b), stringOffset), b)
}

func encodeList(items []any) ([]byte, error) {
	parts := make([][]byte, len(items))
	for i, item := range items {
		enc, err := Encode(item)
		if err != nil {
			return nil, seqerr.Wrap(err, fmt.Sprintf("list item %d", i))
		}
		parts[i] = enc
	}
	content := concat(parts...)
	return concat(encodeLength(len(content), listOffset), content), nil
}

// encodeLength encodes the length prefix for strings (offset=0x80) or lists (offset=0xc0).
func encodeLength(length int, offset byte) []byte {
	if length <= shortLimit {
		return []byte{offset + byte(length)} //nolint:gosec // G115: length <= 55
	}

	lenBytes := hexutil.UintToBytes(uint64(length))
	return append([]byte{offset + shortLimit + byte(len(lenBytes))}, lenBytes...) //nolint:gosec // G115: len(lenBytes) <= 8
}

func concat(slices ...[]byte) []byte {
	totalLen := 0
	for _, s := range slices {
		totalLen += len(s)
	}
	result := make([]byte, 0, totalLen)
	for _, s := range slices {
		result = append(result, s...)
	}
	return result
}
