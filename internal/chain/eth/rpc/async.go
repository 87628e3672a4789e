package rpc

import (
	"context"

	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

// Result holds either a value or an error, never both.
type Result[T any] struct {
	value T
	err   error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] { return Result[T]{value: v} }

// Fail wraps an error. A nil err is replaced with a general error so the
// result never reads as success.
func Fail[T any](err error) Result[T] {
	if err == nil {
		err = seqerr.New(seqerr.KindGeneral, "operation failed without an error")
	}
	return Result[T]{err: err}
}

// Get returns the value and error.
func (r Result[T]) Get() (T, error) { return r.value, r.err }

// Err returns the error, or nil on success.
func (r Result[T]) Err() error { return r.err }

// OK reports success.
func (r Result[T]) OK() bool { return r.err == nil }

// Value returns the value. It is the zero value on failure.
func (r Result[T]) Value() T { return r.value }

func capture[T any](ctx context.Context, op func(context.Context) (T, error)) (res Result[T]) {
	defer func() {
		if rec := recover(); rec != nil {
			res = Fail[T](seqerr.Newf(seqerr.KindGeneral, "operation panicked: %v", rec))
		}
	}()
	v, err := op(ctx)
	if err != nil {
		return Fail[T](err)
	}
	return Ok(v)
}

// Go runs op on its own goroutine and delivers the Result on the returned
// channel, which receives exactly one value.
func Go[T any](ctx context.Context, op func(context.Context) (T, error)) <-chan Result[T] {
	ch := make(chan Result[T], 1)
	go func() {
		ch <- capture(ctx, op)
	}()
	return ch
}

// Async runs op on its own goroutine and then calls exactly one of
// onSuccess or onFailure, exactly once, from that goroutine. It returns
// immediately. Nil continuations are skipped.
func Async[T any](ctx context.Context, op func(context.Context) (T, error), onSuccess func(T), onFailure func(error)) {
	go func() {
		res := capture(ctx, op)
		if res.err != nil {
			if onFailure != nil {
				onFailure(res.err)
			}
			return
		}
		if onSuccess != nil {
			onSuccess(res.value)
		}
	}()
}
