package abi

import (
	"encoding/json"
	"math/big"
	"strconv"
	"strings"

	"github.com/mrz1836/seqeth/internal/chain/eth/hexutil"
	ethtypes "github.com/mrz1836/seqeth/internal/chain/eth/types"
	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

// ParseValue converts a command-line literal into a value of type t.
// Integers accept decimal or 0x hex, bytes are hex, and arrays are JSON
// arrays whose elements follow the same rules, e.g. ["0x01","0x02"] or [1,2].
func ParseValue(t Type, s string) (Property, error) {
	s = strings.TrimSpace(s)
	switch t.Kind {
	case KindInt, KindUInt:
		v, ok := new(big.Int).SetString(s, 0)
		if !ok {
			return Property{}, valueError(t, s)
		}
		if err := checkIntRange(v, t); err != nil {
			return Property{}, err
		}
		return Property{Type: t, Int: v}, nil
	case KindAddress:
		addr, err := ethtypes.ParseAddress(s)
		if err != nil {
			return Property{}, err
		}
		return Address(addr), nil
	case KindBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return Property{}, valueError(t, s)
		}
		return Bool(b), nil
	case KindString:
		return String(s), nil
	case KindBytes:
		b, err := hexutil.Decode(s)
		if err != nil {
			return Property{}, err
		}
		return Bytes(b), nil
	case KindFixedBytes:
		b, err := hexutil.DecodeFixed(s, t.Size)
		if err != nil {
			return Property{}, err
		}
		return FixedBytes(b), nil
	case KindFixedArray, KindDynamicArray:
		return parseArray(t, s)
	default:
		return Property{}, valueError(t, s)
	}
}

// ParseValues parses one literal per signature input.
func ParseValues(sig Signature, literals []string) ([]Property, error) {
	if len(literals) != len(sig.Inputs) {
		return nil, seqerr.WithDetails(
			seqerr.Newf(seqerr.KindInvalidInput, "%s expects %d arguments, got %d", sig.Name, len(sig.Inputs), len(literals)),
			map[string]string{"signature": sig.Canonical()},
		)
	}
	out := make([]Property, len(literals))
	for i, lit := range literals {
		p, err := ParseValue(sig.Inputs[i], lit)
		if err != nil {
			return nil, seqerr.Wrap(err, "argument %d", i)
		}
		out[i] = p
	}
	return out, nil
}

func parseArray(t Type, s string) (Property, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return Property{}, seqerr.WithDetails(
			seqerr.WrapAs(seqerr.KindInvalidInput, err, "%s literal must be a JSON array", t),
			map[string]string{"value": s},
		)
	}
	if t.Kind == KindFixedArray && len(raw) != t.Size {
		return Property{}, seqerr.Newf(seqerr.KindInvalidInput, "%s needs %d elements, got %d", t, t.Size, len(raw))
	}

	items := make([]Property, len(raw))
	for i, elem := range raw {
		lit := string(elem)
		var str string
		if json.Unmarshal(elem, &str) == nil {
			lit = str
		}
		p, err := ParseValue(*t.Elem, lit)
		if err != nil {
			return Property{}, seqerr.Wrap(err, "element %d", i)
		}
		items[i] = p
	}
	return Property{Type: t, Items: items}, nil
}

func valueError(t Type, s string) error {
	return seqerr.WithDetails(
		seqerr.Newf(seqerr.KindInvalidInput, "cannot parse %s value", t),
		map[string]string{"value": s},
	)
}
