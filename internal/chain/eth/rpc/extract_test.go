package rpc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/seqeth/internal/chain/eth/rpc"
	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

func TestExtractUIntResult(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    uint64
		errKind string
	}{
		{"quantity", `{"jsonrpc":"2.0","id":1,"result":"0x1b4"}`, 436, ""},
		{"zero", `{"jsonrpc":"2.0","id":1,"result":"0x0"}`, 0, ""},
		{"max uint64", `{"jsonrpc":"2.0","id":1,"result":"0xffffffffffffffff"}`, 1<<64 - 1, ""},
		{"overflow", `{"jsonrpc":"2.0","id":1,"result":"0x10000000000000000"}`, 0, seqerr.KindResponseParseError},
		{"not hex", `{"jsonrpc":"2.0","id":1,"result":"twelve"}`, 0, seqerr.KindResponseParseError},
		{"bare prefix", `{"jsonrpc":"2.0","id":1,"result":"0x"}`, 0, seqerr.KindResponseParseError},
		{"empty string", `{"jsonrpc":"2.0","id":1,"result":""}`, 0, seqerr.KindResponseParseError},
		{"null", `{"jsonrpc":"2.0","id":1,"result":null}`, 0, seqerr.KindEmptyResponse},
		{"garbage", `not json`, 0, seqerr.KindEmptyResponse},
		{"error object", `{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"method not found"}}`, 0, seqerr.KindRPCError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			first, err1 := rpc.ExtractUIntResult(tc.raw)
			second, err2 := rpc.ExtractUIntResult(tc.raw)
			assert.Equal(t, first, second)

			if tc.errKind != "" {
				require.Error(t, err1)
				require.Error(t, err2)
				assert.Equal(t, tc.errKind, seqerr.KindOf(err1))
				assert.Equal(t, err1.Error(), err2.Error())
				return
			}
			require.NoError(t, err1)
			assert.Equal(t, tc.want, first)
		})
	}
}

func TestExtractDataResult(t *testing.T) {
	t.Parallel()

	d, err := rpc.ExtractDataResult(`{"jsonrpc":"2.0","id":1,"result":"0x5208"}`)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x52, 0x08}, []byte(d))

	d, err = rpc.ExtractDataResult(`{"jsonrpc":"2.0","id":1,"result":"0x3"}`)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x03}, []byte(d))

	d, err = rpc.ExtractDataResult(`{"jsonrpc":"2.0","id":1,"result":"0x0000ff"}`)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00, 0xff}, []byte(d), "byte strings keep leading zeros")

	d, err = rpc.ExtractDataResult(`{"jsonrpc":"2.0","id":1,"result":"0x"}`)
	require.NoError(t, err)
	assert.Empty(t, d)

	_, err = rpc.ExtractDataResult(`{"jsonrpc":"2.0","id":1,"result":"0xgg"}`)
	require.ErrorIs(t, err, seqerr.ErrResponseParse)
}

func TestExtractObjectAndHash(t *testing.T) {
	t.Parallel()

	obj, err := rpc.ExtractJSONObjectResult(`{"jsonrpc":"2.0","id":1,"result":{"number":"0x1"}}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"number":"0x1"}`, string(obj))

	_, err = rpc.ExtractJSONObjectResult(`{"jsonrpc":"2.0","id":1,"result":"0x1"}`)
	require.ErrorIs(t, err, seqerr.ErrResponseParse)

	h, err := rpc.ExtractHashResult(`{"jsonrpc":"2.0","id":1,"result":"0x88e96d4537bea4d9c05d12549907b32561d3bf31f45aae734cdc119f13406cb6"}`)
	require.NoError(t, err)
	assert.Equal(t, "0x88e96d4537bea4d9c05d12549907b32561d3bf31f45aae734cdc119f13406cb6", h.Hex())

	_, err = rpc.ExtractHashResult(`{"jsonrpc":"2.0","id":1,"result":"0x1234"}`)
	require.ErrorIs(t, err, seqerr.ErrResponseParse)

	wide, err := rpc.ExtractBigResult(`{"jsonrpc":"2.0","id":1,"result":"0x1000000000000000000000000"}`)
	require.NoError(t, err)
	assert.Equal(t, "79228162514264337593543950336", wide.String())

	_, err = rpc.ExtractBigResult(`{"jsonrpc":"2.0","id":1,"result":"0x"}`)
	require.ErrorIs(t, err, seqerr.ErrResponseParse)
}

func FuzzExtractUIntResult(f *testing.F) {
	f.Add(`{"jsonrpc":"2.0","id":1,"result":"0x1"}`)
	f.Add(`{"result":null}`)
	f.Add(`{"error":{"code":1,"message":"x"}}`)
	f.Add(``)

	f.Fuzz(func(t *testing.T, raw string) {
		v1, err1 := rpc.ExtractUIntResult(raw)
		v2, err2 := rpc.ExtractUIntResult(raw)
		if (err1 == nil) != (err2 == nil) || v1 != v2 {
			t.Fatalf("extraction is not deterministic for %q", raw)
		}
	})
}
