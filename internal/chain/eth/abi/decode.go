package abi

import (
	"bytes"
	"math/big"

	ethtypes "github.com/mrz1836/seqeth/internal/chain/eth/types"
	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

// Decode parses ABI-encoded data, such as an eth_call result, into values
// of the given types.
func Decode(types []Type, data []byte) ([]Property, error) {
	return decodeSequence(types, data)
}

// DecodeCall checks the selector of call data against signature and
// decodes the arguments.
func DecodeCall(signature string, calldata []byte) ([]Property, error) {
	sig, err := ParseSignature(signature)
	if err != nil {
		return nil, err
	}
	if len(calldata) < SelectorLength {
		return nil, decodeError("call data shorter than a selector")
	}
	sel := sig.Selector()
	if !bytes.Equal(calldata[:SelectorLength], sel[:]) {
		return nil, seqerr.WithDetails(
			decodeError("selector does not match signature"),
			map[string]string{"signature": sig.Canonical()},
		)
	}
	return decodeSequence(sig.Inputs, calldata[SelectorLength:])
}

func decodeError(msg string) error {
	return seqerr.New(seqerr.KindResponseParseError, "abi: "+msg)
}

func decodeSequence(types []Type, data []byte) ([]Property, error) {
	out := make([]Property, len(types))
	pos := 0
	for i, t := range types {
		if t.IsDynamic() {
			off, err := readOffset(data, pos)
			if err != nil {
				return nil, seqerr.Wrap(err, "value %d", i)
			}
			v, err := decodeValue(t, data[off:])
			if err != nil {
				return nil, seqerr.Wrap(err, "value %d", i)
			}
			out[i] = v
			pos += WordSize
			continue
		}
		size, ok := t.headSizeWithin(len(data) - pos)
		if !ok {
			return nil, decodeError("data too short")
		}
		v, err := decodeValue(t, data[pos:pos+size])
		if err != nil {
			return nil, seqerr.Wrap(err, "value %d", i)
		}
		out[i] = v
		pos += size
	}
	return out, nil
}

// readOffset reads the word at pos and checks it points inside data.
func readOffset(data []byte, pos int) (int, error) {
	word, err := readWord(data, pos)
	if err != nil {
		return 0, err
	}
	n := new(big.Int).SetBytes(word)
	if !n.IsInt64() || n.Int64() > int64(len(data)) {
		return 0, decodeError("offset out of bounds")
	}
	return int(n.Int64()), nil
}

func readWord(data []byte, pos int) ([]byte, error) {
	if pos < 0 || pos+WordSize > len(data) {
		return nil, decodeError("data too short")
	}
	return data[pos : pos+WordSize], nil
}

func decodeValue(t Type, data []byte) (Property, error) {
	switch t.Kind {
	case KindInt, KindUInt:
		word, err := readWord(data, 0)
		if err != nil {
			return Property{}, err
		}
		v := new(big.Int).SetBytes(word)
		if t.Kind == KindInt && word[0]&0x80 != 0 {
			v.Sub(v, twoTo256)
		}
		if err := checkIntRange(v, t); err != nil {
			return Property{}, seqerr.WrapAs(seqerr.KindResponseParseError, err, "abi: bad %s word", t)
		}
		return Property{Type: t, Int: v}, nil

	case KindAddress:
		word, err := readWord(data, 0)
		if err != nil {
			return Property{}, err
		}
		if !allZero(word[:WordSize-ethtypes.AddressLength]) {
			return Property{}, decodeError("address has dirty high bytes")
		}
		var addr ethtypes.Address
		copy(addr[:], word[WordSize-ethtypes.AddressLength:])
		return Address(addr), nil

	case KindBool:
		word, err := readWord(data, 0)
		if err != nil {
			return Property{}, err
		}
		if !allZero(word[:WordSize-1]) || word[WordSize-1] > 1 {
			return Property{}, decodeError("bool must be 0 or 1")
		}
		return Bool(word[WordSize-1] == 1), nil

	case KindString, KindBytes:
		n, err := readLength(data, 0, 1)
		if err != nil {
			return Property{}, err
		}
		if WordSize+n > len(data) {
			return Property{}, decodeError("byte string exceeds data")
		}
		b := append([]byte{}, data[WordSize:WordSize+n]...)
		return Property{Type: t, Bytes: b}, nil

	case KindFixedBytes:
		word, err := readWord(data, 0)
		if err != nil {
			return Property{}, err
		}
		if !allZero(word[t.Size:]) {
			return Property{}, decodeError(t.String() + " has dirty padding")
		}
		return Property{Type: t, Bytes: append([]byte{}, word[:t.Size]...)}, nil

	case KindFixedArray:
		// every element takes at least one word of head
		if t.Size > len(data)/WordSize {
			return Property{}, decodeError("array length exceeds data")
		}
		items, err := decodeSequence(repeat(*t.Elem, t.Size), data)
		if err != nil {
			return Property{}, err
		}
		return Property{Type: t, Items: items}, nil

	case KindDynamicArray:
		n, err := readLength(data, 0, WordSize)
		if err != nil {
			return Property{}, err
		}
		items, err := decodeSequence(repeat(*t.Elem, n), data[WordSize:])
		if err != nil {
			return Property{}, err
		}
		return Property{Type: t, Items: items}, nil

	default:
		return Property{}, decodeError("unsupported type " + t.String())
	}
}

// readLength reads a length word and bounds it so that n*unit bytes could
// fit in data, which keeps hostile lengths from forcing large allocations.
func readLength(data []byte, pos, unit int) (int, error) {
	word, err := readWord(data, pos)
	if err != nil {
		return 0, err
	}
	n := new(big.Int).SetBytes(word)
	if !n.IsInt64() || n.Int64() > int64(len(data)/unit) {
		return 0, decodeError("length exceeds data")
	}
	return int(n.Int64()), nil
}

func repeat(t Type, n int) []Type {
	out := make([]Type, n)
	for i := range out {
		out[i] = t
	}
	return out
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
