package rlp

import (
	"bytes"
	"math/big"

	"github.com/mrz1836/seqeth/internal/chain/eth/hexutil"
)

// Item is a node of an RLP tree: either a byte string or a list of items.
// The zero value is the empty string.
type Item struct {
	str    []byte
	list   []Item
	isList bool
}

// String returns a byte-string item.
func String(b []byte) Item {
	return Item{str: bytes.Clone(b)}
}

// List returns a list item.
func List(items ...Item) Item {
	if items == nil {
		items = []Item{}
	}
	return Item{list: items, isList: true}
}

// Uint returns the minimal big-endian string item for v. Zero is the empty string.
func Uint(v uint64) Item {
	return Item{str: hexutil.UintToBytes(v)}
}

// Big returns the minimal big-endian string item for a non-negative n.
func Big(n *big.Int) Item {
	return Item{str: hexutil.BigToBytes(n)}
}

// IsList reports whether the item is a list.
func (it Item) IsList() bool { return it.isList }

// Bytes returns the payload of a string item, or nil for a list.
func (it Item) Bytes() []byte {
	if it.isList {
		return nil
	}
	return it.str
}

// Items returns the children of a list item, or nil for a string.
func (it Item) Items() []Item {
	if !it.isList {
		return nil
	}
	return it.list
}

// Uint64 decodes a string item as a canonical unsigned integer.
func (it Item) Uint64() (uint64, error) {
	if err := it.checkInteger(); err != nil {
		return 0, err
	}
	return hexutil.BytesToUint(it.str)
}

// BigInt decodes a string item as a canonical unsigned integer.
func (it Item) BigInt() (*big.Int, error) {
	if err := it.checkInteger(); err != nil {
		return nil, err
	}
	return hexutil.BytesToBig(it.str), nil
}

func (it Item) checkInteger() error {
	if it.isList {
		return malformed("expected string, found list")
	}
	if len(it.str) > 0 && it.str[0] == 0 {
		return malformed("integer has leading zero byte")
	}
	return nil
}

// Equal reports deep equality of two trees.
func (it Item) Equal(other Item) bool {
	if it.isList != other.isList {
		return false
	}
	if !it.isList {
		return bytes.Equal(it.str, other.str)
	}
	if len(it.list) != len(other.list) {
		return false
	}
	for i := range it.list {
		if !it.list[i].Equal(other.list[i]) {
			return false
		}
	}
	return true
}
