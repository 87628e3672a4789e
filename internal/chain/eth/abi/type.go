// Package abi encodes and decodes contract call data per the Solidity
// contract ABI: a 4-byte selector followed by 32-byte words laid out as
// heads and tails.
package abi

import (
	"strconv"
	"strings"

	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

// WordSize is the ABI slot width in bytes.
const WordSize = 32

// Kind tags an ABI type.
type Kind int

// Supported kinds. Tuples are not supported.
const (
	KindInt Kind = iota
	KindUInt
	KindAddress
	KindBool
	KindString
	KindBytes
	KindFixedBytes
	KindFixedArray
	KindDynamicArray
)

// Type describes one ABI type. Size is the bit width for integers, the
// byte width for fixed bytes, and the element count for fixed arrays.
type Type struct {
	Kind Kind
	Size int
	Elem *Type
}

// Common types.
//
//nolint:gochecknoglobals // immutable shorthands
var (
	Uint256Type = Type{Kind: KindUInt, Size: 256}
	Int256Type  = Type{Kind: KindInt, Size: 256}
	AddressType = Type{Kind: KindAddress}
	BoolType    = Type{Kind: KindBool}
	StringType  = Type{Kind: KindString}
	BytesType   = Type{Kind: KindBytes}
)

// IntType returns intN.
func IntType(bits int) Type { return Type{Kind: KindInt, Size: bits} }

// UIntType returns uintN.
func UIntType(bits int) Type { return Type{Kind: KindUInt, Size: bits} }

// FixedBytesType returns bytesN.
func FixedBytesType(size int) Type { return Type{Kind: KindFixedBytes, Size: size} }

// FixedArrayType returns T[n].
func FixedArrayType(elem Type, n int) Type {
	return Type{Kind: KindFixedArray, Size: n, Elem: &elem}
}

// DynamicArrayType returns T[].
func DynamicArrayType(elem Type) Type {
	return Type{Kind: KindDynamicArray, Elem: &elem}
}

// ParseType parses a canonical or aliased type name such as "uint",
// "bytes32", "address[3]", or "string[][2]".
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "]") {
		open := strings.LastIndexByte(s, '[')
		if open <= 0 {
			return Type{}, typeError(s)
		}
		elem, err := ParseType(s[:open])
		if err != nil {
			return Type{}, err
		}
		dim := s[open+1 : len(s)-1]
		if dim == "" {
			return DynamicArrayType(elem), nil
		}
		n, err := strconv.Atoi(dim)
		if err != nil || n <= 0 {
			return Type{}, typeError(s)
		}
		return FixedArrayType(elem, n), nil
	}

	switch s {
	case "address":
		return AddressType, nil
	case "bool":
		return BoolType, nil
	case "string":
		return StringType, nil
	case "bytes":
		return BytesType, nil
	case "uint":
		return Uint256Type, nil
	case "int":
		return Int256Type, nil
	}

	switch {
	case strings.HasPrefix(s, "uint"):
		bits, ok := parseWidth(s[4:], 8, 256, 8)
		if !ok {
			return Type{}, typeError(s)
		}
		return UIntType(bits), nil
	case strings.HasPrefix(s, "int"):
		bits, ok := parseWidth(s[3:], 8, 256, 8)
		if !ok {
			return Type{}, typeError(s)
		}
		return IntType(bits), nil
	case strings.HasPrefix(s, "bytes"):
		size, ok := parseWidth(s[5:], 1, 32, 1)
		if !ok {
			return Type{}, typeError(s)
		}
		return FixedBytesType(size), nil
	}
	return Type{}, typeError(s)
}

// MustParseType parses s and panics on failure.
func MustParseType(s string) Type {
	t, err := ParseType(s)
	if err != nil {
		panic(err)
	}
	return t
}

func parseWidth(s string, minimum, maximum, step int) (int, bool) {
	if s == "" || s[0] == '0' {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < minimum || n > maximum || n%step != 0 {
		return 0, false
	}
	return n, true
}

func typeError(s string) error {
	return seqerr.WithDetails(
		seqerr.New(seqerr.KindEncodingError, "unsupported ABI type"),
		map[string]string{"type": s},
	)
}

// String returns the canonical type name used in signatures.
func (t Type) String() string {
	switch t.Kind {
	case KindInt:
		return "int" + strconv.Itoa(t.Size)
	case KindUInt:
		return "uint" + strconv.Itoa(t.Size)
	case KindAddress:
		return "address"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindFixedBytes:
		return "bytes" + strconv.Itoa(t.Size)
	case KindFixedArray:
		return t.Elem.String() + "[" + strconv.Itoa(t.Size) + "]"
	case KindDynamicArray:
		return t.Elem.String() + "[]"
	default:
		return "invalid"
	}
}

// Equal compares two types structurally.
func (t Type) Equal(other Type) bool {
	return t.String() == other.String()
}

// IsDynamic reports whether values of t are encoded in the tail.
func (t Type) IsDynamic() bool {
	switch t.Kind {
	case KindString, KindBytes, KindDynamicArray:
		return true
	case KindFixedArray:
		return t.Elem.IsDynamic()
	default:
		return false
	}
}

// headSize is the number of bytes t occupies in the head of a sequence.
func (t Type) headSize() int {
	if t.Kind == KindFixedArray && !t.IsDynamic() {
		return t.Size * t.Elem.headSize()
	}
	return WordSize
}

// headSizeWithin is headSize for types whose head fits in limit bytes. It
// reports false instead of overflowing when the head would be larger.
func (t Type) headSizeWithin(limit int) (int, bool) {
	if t.Kind != KindFixedArray || t.IsDynamic() {
		return WordSize, WordSize <= limit
	}
	elem, ok := t.Elem.headSizeWithin(limit)
	if !ok || t.Size > limit/elem {
		return 0, false
	}
	return t.Size * elem, true
}

// Signature is a parsed method signature.
type Signature struct {
	Name   string
	Inputs []Type
}

// ParseSignature parses "name(type1,type2,...)". Whitespace and parameter
// names after a type are ignored, and aliases are canonicalized.
func ParseSignature(s string) (Signature, error) {
	s = strings.TrimSpace(s)
	open := strings.IndexByte(s, '(')
	if open <= 0 || !strings.HasSuffix(s, ")") {
		return Signature{}, seqerr.WithDetails(
			seqerr.New(seqerr.KindEncodingError, "malformed method signature"),
			map[string]string{"signature": s},
		)
	}
	sig := Signature{Name: strings.TrimSpace(s[:open])}
	body := strings.TrimSpace(s[open+1 : len(s)-1])
	if body == "" {
		return sig, nil
	}
	if strings.ContainsAny(body, "()") {
		return Signature{}, seqerr.WithDetails(
			seqerr.New(seqerr.KindEncodingError, "tuple parameters are not supported"),
			map[string]string{"signature": s},
		)
	}
	for _, param := range strings.Split(body, ",") {
		fields := strings.Fields(param)
		if len(fields) == 0 {
			return Signature{}, seqerr.WithDetails(
				seqerr.New(seqerr.KindEncodingError, "empty parameter in signature"),
				map[string]string{"signature": s},
			)
		}
		t, err := ParseType(fields[0])
		if err != nil {
			return Signature{}, err
		}
		sig.Inputs = append(sig.Inputs, t)
	}
	return sig, nil
}

// MustParseSignature parses s and panics on failure.
// Only use with known-good constants.
func MustParseSignature(s string) Signature {
	sig, err := ParseSignature(s)
	if err != nil {
		panic(err)
	}
	return sig
}

// Canonical returns the signature string hashed for the selector.
func (s Signature) Canonical() string {
	names := make([]string, len(s.Inputs))
	for i, t := range s.Inputs {
		names[i] = t.String()
	}
	return s.Name + "(" + strings.Join(names, ",") + ")"
}
