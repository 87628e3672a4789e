package rlp

import (
	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

// Decode parses exactly one RLP item from b. Trailing bytes, truncated
// payloads, and non-canonical prefixes are rejected.
func Decode(b []byte) (Item, error) {
	it, rest, err := decodeOne(b)
	if err != nil {
		return Item{}, err
	}
	if len(rest) != 0 {
		return Item{}, malformed("trailing bytes after item")
	}
	return it, nil
}

// DecodeList decodes b and requires the top-level item to be a list.
func DecodeList(b []byte) ([]Item, error) {
	it, err := Decode(b)
	if err != nil {
		return nil, err
	}
	if !it.isList {
		return nil, malformed("expected list, found string")
	}
	return it.list, nil
}

func decodeOne(b []byte) (Item, []byte, error) {
	if len(b) == 0 {
		return Item{}, nil, malformed("unexpected end of input")
	}

	prefix := b[0]
	switch {
	case prefix < stringOffset:
		return Item{str: []byte{prefix}}, b[1:], nil

	case prefix < listOffset:
		payload, rest, err := readPayload(b, stringOffset)
		if err != nil {
			return Item{}, nil, err
		}
		if len(payload) == 1 && payload[0] < stringOffset {
			return Item{}, nil, malformed("single byte below 0x80 must encode as itself")
		}
		return Item{str: append([]byte{}, payload...)}, rest, nil

	default:
		payload, rest, err := readPayload(b, listOffset)
		if err != nil {
			return Item{}, nil, err
		}
		items := []Item{}
		for len(payload) > 0 {
			var child Item
			child, payload, err = decodeOne(payload)
			if err != nil {
				return Item{}, nil, err
			}
			items = append(items, child)
		}
		return Item{list: items, isList: true}, rest, nil
	}
}

// readPayload splits off the payload following a string or list prefix.
func readPayload(b []byte, offset byte) (payload, rest []byte, err error) {
	prefix := b[0]
	if prefix <= offset+shortLimit {
		size := int(prefix - offset)
		if len(b)-1 < size {
			return nil, nil, malformed("payload truncated")
		}
		return b[1 : 1+size], b[1+size:], nil
	}

	lenOfLen := int(prefix - offset - shortLimit)
	if len(b)-1 < lenOfLen {
		return nil, nil, malformed("length prefix truncated")
	}
	lenBytes := b[1 : 1+lenOfLen]
	if lenBytes[0] == 0 {
		return nil, nil, malformed("length prefix has leading zero")
	}
	if lenOfLen > 8 {
		return nil, nil, malformed("length prefix too large")
	}
	var size uint64
	for _, c := range lenBytes {
		size = size<<8 | uint64(c)
	}
	if size <= shortLimit {
		return nil, nil, malformed("long form used for short payload")
	}
	remaining := uint64(len(b) - 1 - lenOfLen) //nolint:gosec // G115: non-negative after check above
	if size > remaining {
		return nil, nil, malformed("payload truncated")
	}
	start := 1 + lenOfLen
	end := start + int(size) //nolint:gosec // G115: size <= len(b)
	return b[start:end], b[end:], nil
}

func malformed(msg string) error {
	return seqerr.New(seqerr.KindMalformedRLP, "rlp: "+msg)
}
