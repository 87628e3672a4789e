package rpc

import (
	"bytes"
	"encoding/json"
	"math/big"
	"strconv"

	"github.com/mrz1836/seqeth/internal/chain/eth/hexutil"
	ethtypes "github.com/mrz1836/seqeth/internal/chain/eth/types"
	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

// The extractors below are pure functions of the raw response body, so
// repeated calls on the same input give the same value or the same error.

// ExtractRawResult returns the raw result field. Unparseable JSON and a
// missing or null result are EmptyResponse; a node error object is RPC_ERROR.
func ExtractRawResult(raw string) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, seqerr.WrapAs(seqerr.KindEmptyResponse, err, "could not extract response")
	}
	if env.Error != nil {
		return nil, seqerr.WithDetails(
			seqerr.WrapAs(seqerr.KindRPCError, env.Error, "node returned an error: %s", env.Error.Message),
			map[string]string{"code": strconv.Itoa(env.Error.Code)},
		)
	}
	result := bytes.TrimSpace(env.Result)
	if len(result) == 0 || bytes.Equal(result, []byte("null")) {
		return nil, seqerr.New(seqerr.KindEmptyResponse, "could not extract response")
	}
	return result, nil
}

// ExtractJSONObjectResult returns the result field, which must be a JSON object.
func ExtractJSONObjectResult(raw string) (json.RawMessage, error) {
	result, err := ExtractRawResult(raw)
	if err != nil {
		return nil, err
	}
	if result[0] != '{' {
		return nil, seqerr.New(seqerr.KindResponseParseError, "result is not a JSON object")
	}
	return result, nil
}

// ExtractStringResult returns the result field, which must be a JSON string.
func ExtractStringResult(raw string) (string, error) {
	result, err := ExtractRawResult(raw)
	if err != nil {
		return "", err
	}
	var s string
	if err := json.Unmarshal(result, &s); err != nil {
		return "", seqerr.WrapAs(seqerr.KindResponseParseError, err, "result is not a JSON string")
	}
	return s, nil
}

// ExtractUIntResult parses a hex quantity result that fits in 64 bits.
func ExtractUIntResult(raw string) (uint64, error) {
	s, err := ExtractStringResult(raw)
	if err != nil {
		return 0, err
	}
	v, err := hexutil.DecodeUint64Quantity(s)
	if err != nil {
		return 0, seqerr.WrapAs(seqerr.KindResponseParseError, err, "could not convert %q to a number", s)
	}
	return v, nil
}

// ExtractBigResult parses a hex quantity result of any width.
func ExtractBigResult(raw string) (*big.Int, error) {
	s, err := ExtractStringResult(raw)
	if err != nil {
		return nil, err
	}
	v, err := hexutil.DecodeBig(s)
	if err != nil {
		return nil, seqerr.WrapAs(seqerr.KindResponseParseError, err, "could not convert %q to a number", s)
	}
	return v, nil
}

// ExtractDataResult parses a hex result into bytes. Quantities with an odd
// nibble count are left-padded; byte strings keep their leading zeros.
func ExtractDataResult(raw string) (ethtypes.UnsizedData, error) {
	s, err := ExtractStringResult(raw)
	if err != nil {
		return nil, err
	}
	digits := hexutil.Strip0x(s)
	if len(digits)%2 == 1 {
		digits = "0" + digits
	}
	b, err := hexutil.Decode(digits)
	if err != nil {
		return nil, seqerr.WrapAs(seqerr.KindResponseParseError, err, "could not convert %q to data", s)
	}
	return b, nil
}

// ExtractHashResult parses a 32-byte hash result.
func ExtractHashResult(raw string) (ethtypes.Hash256, error) {
	s, err := ExtractStringResult(raw)
	if err != nil {
		return ethtypes.Hash256{}, err
	}
	h, err := ethtypes.ParseHash256(s)
	if err != nil {
		return ethtypes.Hash256{}, seqerr.WrapAs(seqerr.KindResponseParseError, err, "could not convert %q to a hash", s)
	}
	return h, nil
}

// decodeObject unmarshals an object result into out.
func decodeObject(raw string, out any) error {
	obj, err := ExtractJSONObjectResult(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(obj, out); err != nil {
		return seqerr.WrapAs(seqerr.KindResponseParseError, err, "malformed result object")
	}
	return nil
}
