package ethtypes

import (
	"math"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/mrz1836/seqeth/internal/chain/eth/hexutil"
	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

// maxTagDistance bounds how far a typo may be from a tag and still get a suggestion.
const maxTagDistance = 3

// BlockRef selects a block either by height or by symbolic tag.
// Param returns the JSON-RPC parameter form.
type BlockRef interface {
	Param() string
}

// BlockNumber selects a block by height.
type BlockNumber uint64

// Param returns the hex quantity form.
func (n BlockNumber) Param() string { return hexutil.EncodeUint64Quantity(uint64(n)) }

// BlockTag selects a block by symbolic name.
type BlockTag int

// Supported block tags.
const (
	Latest BlockTag = iota
	Earliest
	Pending
	Safe
	Finalized
)

//nolint:gochecknoglobals // fixed lookup table
var tagNames = [...]string{
	Latest:    "latest",
	Earliest:  "earliest",
	Pending:   "pending",
	Safe:      "safe",
	Finalized: "finalized",
}

// Param returns the tag name.
func (t BlockTag) Param() string { return t.String() }

// String returns the tag name.
func (t BlockTag) String() string {
	if t < 0 || int(t) >= len(tagNames) {
		return "BlockTag(" + strconv.Itoa(int(t)) + ")"
	}
	return tagNames[t]
}

// ParseBlockTag resolves a tag name case-insensitively. Near misses come
// back with a suggestion.
func ParseBlockTag(s string) (BlockTag, error) {
	in := strings.ToLower(strings.TrimSpace(s))
	best, bestDist := "", math.MaxInt
	for i, name := range tagNames {
		if in == name {
			return BlockTag(i), nil
		}
		if d := levenshtein.ComputeDistance(in, name); d < bestDist {
			best, bestDist = name, d
		}
	}

	err := seqerr.WithDetails(
		seqerr.New(seqerr.KindParseError, "unknown block tag"),
		map[string]string{"tag": s},
	)
	if bestDist <= maxTagDistance {
		return 0, seqerr.WithSuggestion(err, "did you mean '"+best+"'?")
	}
	return 0, seqerr.WithSuggestion(err, "use one of: "+strings.Join(tagNames[:], ", "))
}

// ParseBlockRef accepts a tag name, a decimal height, or a 0x-prefixed hex height.
func ParseBlockRef(s string) (BlockRef, error) {
	s = strings.TrimSpace(s)
	if hexutil.Has0xPrefix(s) {
		v, err := hexutil.DecodeUint64Quantity(s)
		if err != nil {
			return nil, err
		}
		return BlockNumber(v), nil
	}
	if v, err := strconv.ParseUint(s, 10, 64); err == nil {
		return BlockNumber(v), nil
	}
	return ParseBlockTag(s)
}
