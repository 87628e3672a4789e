package output

import (
	"math/big"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/mrz1836/seqeth/internal/chain"
)

// Wei renders an amount with thousands separators and its ether value,
// e.g. "1,500,000,000,000,000,000 wei (1.5 ether)".
func Wei(wei *big.Int) string {
	if wei == nil {
		return ""
	}
	return humanize.BigComma(wei) + " wei (" + chain.FormatValue(wei, chain.Ether) + ")"
}

// Count renders an integer with thousands separators.
func Count(n uint64) string {
	return humanize.Comma(int64(n)) //nolint:gosec // G115: block numbers and gas fit in int64
}

// Size renders a byte count such as contract code size, e.g. "1.2 kB".
func Size(n int) string {
	return humanize.Bytes(uint64(n)) //nolint:gosec // G115: sizes are non-negative
}

// Ago renders a unix timestamp relative to now, e.g. "12 seconds ago".
func Ago(unix uint64) string {
	return humanize.Time(time.Unix(int64(unix), 0)) //nolint:gosec // G115: block timestamps fit in int64
}
