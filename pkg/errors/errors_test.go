package errors_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

var (
	errInner = errors.New("inner")
	errPlain = errors.New("plain error")
)

func TestExitCodes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"success", nil, seqerr.ExitSuccess},
		{"general", seqerr.ErrGeneral, seqerr.ExitGeneral},
		{"empty response", seqerr.ErrEmptyResponse, seqerr.ExitNetwork},
		{"response parse", seqerr.ErrResponseParse, seqerr.ExitNetwork},
		{"request fail", seqerr.ErrRequestFail, seqerr.ExitNetwork},
		{"encoding", seqerr.ErrEncoding, seqerr.ExitInput},
		{"invalid key", seqerr.ErrInvalidKey, seqerr.ExitKey},
		{"parse", seqerr.ErrParse, seqerr.ExitInput},
		{"malformed rlp", seqerr.ErrMalformedRLP, seqerr.ExitInput},
		{"transport", seqerr.ErrTransport, seqerr.ExitNetwork},
		{"plain error", errPlain, seqerr.ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, seqerr.ExitCode(tt.err))
		})
	}
}

func TestNew_exitCodeFromKind(t *testing.T) {
	t.Parallel()
	err := seqerr.New(seqerr.KindInvalidKey, "scalar out of range")
	assert.Equal(t, seqerr.ExitKey, err.ExitCode)
	assert.Equal(t, "scalar out of range", err.Error())
	require.ErrorIs(t, err, seqerr.ErrInvalidKey)

	custom := seqerr.New("CUSTOM", "custom")
	assert.Equal(t, seqerr.ExitGeneral, custom.ExitCode)
}

func TestNewf(t *testing.T) {
	t.Parallel()
	err := seqerr.Newf(seqerr.KindParseError, "bad hex at %d", 3)
	assert.Equal(t, "bad hex at 3", err.Message)
	assert.Equal(t, seqerr.KindParseError, seqerr.KindOf(err))
}

func TestWrap(t *testing.T) {
	t.Parallel()

	t.Run("keeps kind", func(t *testing.T) {
		t.Parallel()
		wrapped := seqerr.Wrap(seqerr.ErrEmptyResponse, "eth_%s", "blockNumber")
		assert.Equal(t, "eth_blockNumber: could not extract response", wrapped.Error())
		require.ErrorIs(t, wrapped, seqerr.ErrEmptyResponse)
		assert.NotErrorIs(t, wrapped, seqerr.ErrResponseParse)
	})

	t.Run("nil input", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, seqerr.Wrap(nil, "context"))
	})

	t.Run("plain error", func(t *testing.T) {
		t.Parallel()
		wrapped := seqerr.Wrap(errPlain, "context")
		var se *seqerr.SequenceError
		require.ErrorAs(t, wrapped, &se)
		assert.Equal(t, seqerr.KindGeneral, se.Kind)
		assert.Equal(t, errPlain, se.Cause)
		require.ErrorIs(t, wrapped, errPlain)
	})

	t.Run("field preservation", func(t *testing.T) {
		t.Parallel()
		original := seqerr.WithDetails(seqerr.ErrRPC, map[string]string{"code": "-32000"})
		original = seqerr.WithSuggestion(original, "check the node")
		wrapped := seqerr.Wrap(original, "eth_call")

		var se *seqerr.SequenceError
		require.ErrorAs(t, wrapped, &se)
		assert.Equal(t, seqerr.KindRPCError, se.Kind)
		assert.Equal(t, map[string]string{"code": "-32000"}, se.Details)
		assert.Equal(t, "check the node", seqerr.SuggestionOf(wrapped))
	})
}

func TestWrapAs(t *testing.T) {
	t.Parallel()
	err := seqerr.WrapAs(seqerr.KindTransportError, errInner, "POST %s", "http://node")
	assert.Equal(t, "POST http://node: inner", err.Error())
	require.ErrorIs(t, err, seqerr.ErrTransport)
	require.ErrorIs(t, err, errInner)
	assert.NoError(t, seqerr.WrapAs(seqerr.KindTransportError, nil, "x"))
}

func TestWithDetails_mergesWithoutMutating(t *testing.T) {
	t.Parallel()
	first := seqerr.WithDetails(seqerr.ErrRPC, map[string]string{"a": "1"})
	second := seqerr.WithDetails(first, map[string]string{"b": "2"})

	assert.Equal(t, "node returned an error (a: 1)", first.Error())
	assert.Equal(t, "node returned an error (a: 1) (b: 2)", second.Error())
	assert.Empty(t, seqerr.ErrRPC.Details)
}

func TestWithSuggestion_plainError(t *testing.T) {
	t.Parallel()
	result := seqerr.WithSuggestion(errPlain, "try this")
	var se *seqerr.SequenceError
	require.ErrorAs(t, result, &se)
	assert.Equal(t, seqerr.KindGeneral, se.Kind)
	assert.Equal(t, "plain error", se.Message)
	assert.Equal(t, "try this", se.Suggestion)
	assert.NoError(t, seqerr.WithSuggestion(nil, "x"))
}

func TestSequenceError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *seqerr.SequenceError
		want string
	}{
		{"message only", &seqerr.SequenceError{Kind: "T", Message: "failed"}, "failed"},
		{
			"details sorted",
			&seqerr.SequenceError{Kind: "T", Message: "failed", Details: map[string]string{"beta": "2", "alpha": "1"}},
			"failed (alpha: 1) (beta: 2)",
		},
		{"with cause", &seqerr.SequenceError{Kind: "T", Message: "outer", Cause: errInner}, "outer: inner"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()
	assert.Equal(t, seqerr.KindMalformedRLP, seqerr.KindOf(seqerr.ErrMalformedRLP))
	assert.Equal(t, seqerr.KindGeneral, seqerr.KindOf(errPlain))
	assert.Equal(t, seqerr.KindGeneral, seqerr.KindOf(nil))
}

func TestIsAndAs(t *testing.T) {
	t.Parallel()
	wrapped := seqerr.Wrap(seqerr.ErrEncoding, "uint8")
	assert.True(t, seqerr.Is(wrapped, seqerr.ErrEncoding))
	assert.False(t, seqerr.Is(wrapped, seqerr.ErrParse))
	assert.False(t, seqerr.Is(nil, seqerr.ErrGeneral))

	var se *seqerr.SequenceError
	assert.True(t, seqerr.As(wrapped, &se))
	assert.False(t, seqerr.As(errPlain, &se))
}
