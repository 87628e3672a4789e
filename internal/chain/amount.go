package chain

import (
	"math/big"
	"strings"

	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

// Unit is a named power of ten of wei.
type Unit struct {
	Name     string
	Decimals int
}

// Denominations accepted by ParseValue.
//
//nolint:gochecknoglobals // fixed denominations
var (
	Wei   = Unit{Name: "wei", Decimals: 0}
	Gwei  = Unit{Name: "gwei", Decimals: 9}
	Ether = Unit{Name: "ether", Decimals: 18}
)

//nolint:gochecknoglobals // lookup table
var unitsByName = map[string]Unit{
	"wei":   Wei,
	"gwei":  Gwei,
	"ether": Ether,
	"eth":   Ether,
}

// ParseDecimalAmount parses a non-negative decimal string into an integer
// scaled by 10^decimalPlaces, so "1.5" with 18 places is 1500000000000000000.
// Digits beyond decimalPlaces are rejected rather than truncated.
func ParseDecimalAmount(amount string, decimalPlaces int) (*big.Int, error) {
	invalid := func(reason string) error {
		return seqerr.WithDetails(
			seqerr.Newf(seqerr.KindInvalidInput, "invalid amount: %s", reason),
			map[string]string{"amount": amount},
		)
	}

	if amount == "" {
		return nil, invalid("empty")
	}
	intPart, decPart, hasDot := strings.Cut(amount, ".")
	if hasDot && strings.Contains(decPart, ".") {
		return nil, invalid("more than one decimal point")
	}
	if intPart == "" {
		intPart = "0"
	}
	if hasDot && decPart == "" {
		return nil, invalid("missing digits after the decimal point")
	}
	if !allDigits(intPart) || !allDigits(decPart) {
		return nil, invalid("only digits and one decimal point are allowed")
	}
	decPart = strings.TrimRight(decPart, "0")
	if len(decPart) > decimalPlaces {
		return nil, invalid("too many decimal places")
	}

	digits := intPart + decPart + strings.Repeat("0", decimalPlaces-len(decPart))
	result, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, invalid("not a number")
	}
	return result, nil
}

// ParseValue parses an amount with an optional unit suffix into wei:
// "1.5ether", "20 gwei", "1000" (wei).
func ParseValue(s string) (*big.Int, error) {
	trimmed := strings.TrimSpace(strings.ToLower(s))
	split := strings.IndexFunc(trimmed, func(r rune) bool { return (r < '0' || r > '9') && r != '.' })
	if split < 0 {
		return ParseDecimalAmount(trimmed, Wei.Decimals)
	}
	unit, ok := unitsByName[strings.TrimSpace(trimmed[split:])]
	if !ok {
		return nil, seqerr.WithSuggestion(
			seqerr.WithDetails(
				seqerr.New(seqerr.KindInvalidInput, "unknown unit"),
				map[string]string{"value": s},
			),
			"use wei, gwei, or ether",
		)
	}
	return ParseDecimalAmount(strings.TrimSpace(trimmed[:split]), unit.Decimals)
}

// FormatDecimalAmount renders amount scaled down by 10^decimalPlaces with
// trailing zeros removed: 1500000000000000000 at 18 places is "1.5".
func FormatDecimalAmount(amount *big.Int, decimalPlaces int) string {
	if amount == nil {
		return "0"
	}
	if amount.Sign() < 0 {
		return "-" + FormatDecimalAmount(new(big.Int).Abs(amount), decimalPlaces)
	}

	str := amount.String()
	if decimalPlaces <= 0 {
		return str
	}
	if len(str) <= decimalPlaces {
		str = strings.Repeat("0", decimalPlaces-len(str)+1) + str
	}
	point := len(str) - decimalPlaces
	frac := strings.TrimRight(str[point:], "0")
	if frac == "" {
		return str[:point]
	}
	return str[:point] + "." + frac
}

// FormatValue renders wei in the given unit with its name, e.g. "1.5 ether".
func FormatValue(wei *big.Int, unit Unit) string {
	return FormatDecimalAmount(wei, unit.Decimals) + " " + unit.Name
}

func allDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
