package abi

import (
	"math/big"

	"github.com/mrz1836/seqeth/internal/chain/eth/hexutil"
	ethtypes "github.com/mrz1836/seqeth/internal/chain/eth/types"
)

// Property is one typed ABI value. Which payload field is meaningful
// depends on Type.Kind: Int for integers, Bool, Addr, Bytes for string,
// bytes and bytesN, and Items for arrays.
type Property struct {
	Type  Type
	Int   *big.Int
	Bool  bool
	Addr  ethtypes.Address
	Bytes []byte
	Items []Property
}

// Int returns an int256 value.
func Int(v *big.Int) Property { return IntN(256, v) }

// IntN returns an intN value.
func IntN(bits int, v *big.Int) Property {
	return Property{Type: IntType(bits), Int: new(big.Int).Set(v)}
}

// Int64 returns an int256 value from a native integer.
func Int64(v int64) Property { return Int(big.NewInt(v)) }

// UInt returns a uint256 value.
func UInt(v *big.Int) Property { return UIntN(256, v) }

// UIntN returns a uintN value.
func UIntN(bits int, v *big.Int) Property {
	return Property{Type: UIntType(bits), Int: new(big.Int).Set(v)}
}

// Uint64 returns a uint256 value from a native integer.
func Uint64(v uint64) Property { return UInt(new(big.Int).SetUint64(v)) }

// Address returns an address value.
func Address(a ethtypes.Address) Property {
	return Property{Type: AddressType, Addr: a}
}

// Bool returns a bool value.
func Bool(b bool) Property { return Property{Type: BoolType, Bool: b} }

// String returns a string value.
func String(s string) Property { return Property{Type: StringType, Bytes: []byte(s)} }

// Bytes returns a dynamic bytes value.
func Bytes(b []byte) Property {
	return Property{Type: BytesType, Bytes: append([]byte{}, b...)}
}

// FixedBytes returns a bytesN value with N = len(b).
func FixedBytes(b []byte) Property {
	return Property{Type: FixedBytesType(len(b)), Bytes: append([]byte{}, b...)}
}

// FixedArray returns an elem[len(items)] value.
func FixedArray(elem Type, items ...Property) Property {
	return Property{Type: FixedArrayType(elem, len(items)), Items: items}
}

// DynamicArray returns an elem[] value.
func DynamicArray(elem Type, items ...Property) Property {
	return Property{Type: DynamicArrayType(elem), Items: items}
}

// Value converts the property to plain Go values suitable for printing
// or JSON: *big.Int, bool, a hex address, a string, hex bytes, or []any.
func (p Property) Value() any {
	switch p.Type.Kind {
	case KindInt, KindUInt:
		return p.Int
	case KindBool:
		return p.Bool
	case KindAddress:
		return p.Addr.String()
	case KindString:
		return string(p.Bytes)
	case KindBytes, KindFixedBytes:
		return hexutil.EncodePrefixed(p.Bytes)
	case KindFixedArray, KindDynamicArray:
		out := make([]any, len(p.Items))
		for i, item := range p.Items {
			out[i] = item.Value()
		}
		return out
	default:
		return nil
	}
}

// Equal reports whether two properties carry the same type and value.
func (p Property) Equal(other Property) bool {
	if !p.Type.Equal(other.Type) {
		return false
	}
	switch p.Type.Kind {
	case KindInt, KindUInt:
		return p.Int != nil && other.Int != nil && p.Int.Cmp(other.Int) == 0
	case KindBool:
		return p.Bool == other.Bool
	case KindAddress:
		return p.Addr == other.Addr
	case KindString, KindBytes, KindFixedBytes:
		return string(p.Bytes) == string(other.Bytes)
	case KindFixedArray, KindDynamicArray:
		if len(p.Items) != len(other.Items) {
			return false
		}
		for i := range p.Items {
			if !p.Items[i].Equal(other.Items[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
