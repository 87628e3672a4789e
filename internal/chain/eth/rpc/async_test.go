package rpc_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/seqeth/internal/chain/eth/rpc"
	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

func TestAsyncCallsExactlyOneContinuation(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("boom")
	tests := []struct {
		name        string
		op          func(context.Context) (int, error)
		wantSuccess bool
		wantKind    string
	}{
		{"success", func(context.Context) (int, error) { return 7, nil }, true, ""},
		{"failure", func(context.Context) (int, error) { return 0, errBoom }, false, seqerr.KindGeneral},
		{"panic", func(context.Context) (int, error) { panic("node vanished") }, false, seqerr.KindGeneral},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var successes, failures atomic.Int32
			done := make(chan struct{}, 2)
			var got int
			var gotErr error

			rpc.Async(context.Background(), tc.op,
				func(v int) { got = v; successes.Add(1); done <- struct{}{} },
				func(err error) { gotErr = err; failures.Add(1); done <- struct{}{} },
			)

			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatal("no continuation called")
			}
			select {
			case <-done:
				t.Fatal("second continuation called")
			case <-time.After(20 * time.Millisecond):
			}

			if tc.wantSuccess {
				assert.Equal(t, int32(1), successes.Load())
				assert.Equal(t, int32(0), failures.Load())
				assert.Equal(t, 7, got)
				return
			}
			assert.Equal(t, int32(0), successes.Load())
			assert.Equal(t, int32(1), failures.Load())
			require.Error(t, gotErr)
			assert.Equal(t, tc.wantKind, seqerr.KindOf(gotErr))
		})
	}
}

func TestGoDeliversOneResult(t *testing.T) {
	t.Parallel()

	node := newFakeNode(t).result("eth_blockNumber", "0x10")
	p := node.provider()

	ch := rpc.Go(context.Background(), p.BlockNumber)
	res := <-ch
	require.True(t, res.OK())
	n, err := res.Get()
	require.NoError(t, err)
	assert.Equal(t, uint64(16), n)

	failed := <-rpc.Go(context.Background(), p.ChainID)
	assert.False(t, failed.OK())
	require.ErrorIs(t, failed.Err(), seqerr.ErrRPC)
	assert.Zero(t, failed.Value())
}

func TestFailNeverReadsAsSuccess(t *testing.T) {
	t.Parallel()

	r := rpc.Fail[string](nil)
	assert.False(t, r.OK())
	require.ErrorIs(t, r.Err(), seqerr.ErrGeneral)

	ok := rpc.Ok("0x1")
	v, err := ok.Get()
	require.NoError(t, err)
	assert.Equal(t, "0x1", v)
}
