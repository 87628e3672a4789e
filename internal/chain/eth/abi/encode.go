package abi

import (
	"math/big"

	ethcrypto "github.com/mrz1836/seqeth/internal/chain/eth/crypto"
	"github.com/mrz1836/seqeth/internal/chain/eth/hexutil"
	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

// SelectorLength is the size of a method selector.
const SelectorLength = 4

//nolint:gochecknoglobals // 2^256 for two's complement conversion
var twoTo256 = new(big.Int).Lsh(big.NewInt(1), 256)

// Selector returns the first four bytes of Keccak-256 over the canonical
// form of signature.
func Selector(signature string) ([SelectorLength]byte, error) {
	sig, err := ParseSignature(signature)
	if err != nil {
		return [SelectorLength]byte{}, err
	}
	return sig.Selector(), nil
}

// Selector returns the method id for s.
func (s Signature) Selector() [SelectorLength]byte {
	var sel [SelectorLength]byte
	copy(sel[:], ethcrypto.Keccak256([]byte(s.Canonical())))
	return sel
}

// Encode builds call data: selector(signature) followed by the encoded
// arguments. Each argument is checked and coerced against the declared
// parameter type, so Uint64(5) may be passed for a uint8 parameter.
func Encode(signature string, args ...Property) ([]byte, error) {
	sig, err := ParseSignature(signature)
	if err != nil {
		return nil, err
	}
	return sig.Encode(args...)
}

// Encode builds call data for an already parsed signature.
func (s Signature) Encode(args ...Property) ([]byte, error) {
	if len(args) != len(s.Inputs) {
		return nil, seqerr.WithDetails(
			seqerr.Newf(seqerr.KindEncodingError, "%s expects %d arguments, got %d", s.Name, len(s.Inputs), len(args)),
			map[string]string{"signature": s.Canonical()},
		)
	}

	conformed := make([]Property, len(args))
	for i, arg := range args {
		c, err := conform(arg, s.Inputs[i])
		if err != nil {
			return nil, seqerr.Wrap(err, "argument %d", i)
		}
		conformed[i] = c
	}

	body, err := encodeSequence(conformed)
	if err != nil {
		return nil, err
	}
	sel := s.Selector()
	return append(sel[:], body...), nil
}

// EncodeArgs encodes args as a tuple without a selector, as used for
// constructor arguments appended to deployment bytecode.
func EncodeArgs(args ...Property) ([]byte, error) {
	for i, arg := range args {
		if _, err := conform(arg, arg.Type); err != nil {
			return nil, seqerr.Wrap(err, "argument %d", i)
		}
	}
	return encodeSequence(args)
}

// conform validates p against t and returns p retagged as t.
func conform(p Property, t Type) (Property, error) {
	mismatch := func() (Property, error) {
		return Property{}, seqerr.WithDetails(
			seqerr.New(seqerr.KindEncodingError, "argument does not match parameter type"),
			map[string]string{"expected": t.String(), "got": p.Type.String()},
		)
	}

	switch t.Kind {
	case KindInt, KindUInt:
		if p.Type.Kind != KindInt && p.Type.Kind != KindUInt {
			return mismatch()
		}
		if err := checkIntRange(p.Int, t); err != nil {
			return Property{}, err
		}
		return Property{Type: t, Int: p.Int}, nil
	case KindAddress, KindBool, KindString, KindBytes:
		if p.Type.Kind != t.Kind {
			return mismatch()
		}
		p.Type = t
		return p, nil
	case KindFixedBytes:
		if p.Type.Kind != KindFixedBytes || len(p.Bytes) != t.Size {
			return mismatch()
		}
		p.Type = t
		return p, nil
	case KindFixedArray, KindDynamicArray:
		if p.Type.Kind != KindFixedArray && p.Type.Kind != KindDynamicArray {
			return mismatch()
		}
		if t.Kind == KindFixedArray && len(p.Items) != t.Size {
			return Property{}, seqerr.WithDetails(
				seqerr.Newf(seqerr.KindEncodingError, "array needs %d elements, got %d", t.Size, len(p.Items)),
				map[string]string{"type": t.String()},
			)
		}
		items := make([]Property, len(p.Items))
		for i, item := range p.Items {
			c, err := conform(item, *t.Elem)
			if err != nil {
				return Property{}, seqerr.Wrap(err, "element %d", i)
			}
			items[i] = c
		}
		return Property{Type: t, Items: items}, nil
	default:
		return mismatch()
	}
}

func checkIntRange(v *big.Int, t Type) error {
	if v == nil {
		return seqerr.New(seqerr.KindEncodingError, "integer argument is nil")
	}
	outOfRange := func() error {
		return seqerr.WithDetails(
			seqerr.New(seqerr.KindEncodingError, "integer out of range"),
			map[string]string{"type": t.String(), "value": v.String()},
		)
	}
	if t.Kind == KindUInt {
		if v.Sign() < 0 || v.BitLen() > t.Size {
			return outOfRange()
		}
		return nil
	}
	limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1)) //nolint:gosec // size is 8..256
	if v.Cmp(limit) >= 0 || v.Cmp(new(big.Int).Neg(limit)) < 0 {
		return outOfRange()
	}
	return nil
}

// encodeSequence lays out values as heads followed by tails. Dynamic
// values put an offset, relative to the start of the sequence, in the head.
func encodeSequence(values []Property) ([]byte, error) {
	headLen := 0
	for _, v := range values {
		headLen += v.Type.headSize()
	}

	head := make([]byte, 0, headLen)
	var tail []byte
	for _, v := range values {
		enc, err := encodeValue(v)
		if err != nil {
			return nil, err
		}
		if v.Type.IsDynamic() {
			head = append(head, uintWord(uint64(headLen+len(tail)))...) //nolint:gosec // lengths are non-negative
			tail = append(tail, enc...)
			continue
		}
		head = append(head, enc...)
	}
	return append(head, tail...), nil
}

func encodeValue(p Property) ([]byte, error) {
	switch p.Type.Kind {
	case KindInt, KindUInt:
		if err := checkIntRange(p.Int, p.Type); err != nil {
			return nil, err
		}
		x := p.Int
		if x.Sign() < 0 {
			x = new(big.Int).Add(x, twoTo256)
		}
		word := make([]byte, WordSize)
		x.FillBytes(word)
		return word, nil
	case KindAddress:
		return hexutil.PadLeft(p.Addr[:], WordSize), nil
	case KindBool:
		if p.Bool {
			return uintWord(1), nil
		}
		return uintWord(0), nil
	case KindString, KindBytes:
		out := uintWord(uint64(len(p.Bytes)))
		return append(out, padToWord(p.Bytes)...), nil
	case KindFixedBytes:
		if len(p.Bytes) != p.Type.Size {
			return nil, seqerr.Newf(seqerr.KindEncodingError, "%s needs %d bytes, got %d", p.Type, p.Type.Size, len(p.Bytes))
		}
		return hexutil.PadRight(p.Bytes, WordSize), nil
	case KindFixedArray:
		return encodeSequence(p.Items)
	case KindDynamicArray:
		body, err := encodeSequence(p.Items)
		if err != nil {
			return nil, err
		}
		return append(uintWord(uint64(len(p.Items))), body...), nil
	default:
		return nil, seqerr.Newf(seqerr.KindEncodingError, "cannot encode %s", p.Type)
	}
}

func uintWord(v uint64) []byte {
	word := make([]byte, WordSize)
	new(big.Int).SetUint64(v).FillBytes(word)
	return word
}

// padToWord right-pads b with zeros to a multiple of WordSize.
func padToWord(b []byte) []byte {
	n := (len(b) + WordSize - 1) / WordSize * WordSize
	return hexutil.PadRight(b, n)
}
