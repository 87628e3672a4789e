// Package chain holds caller-side helpers shared by chain clients:
// backoff retries, per-endpoint rate limiting, and decimal amounts.
package chain

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

// KindRetryable marks an error the retry loop may try again.
const KindRetryable = "RETRYABLE"

// ErrRetryable is matched by errors wrapped with WrapRetryable.
//
//nolint:gochecknoglobals // sentinel
var ErrRetryable = &seqerr.SequenceError{
	Kind:     KindRetryable,
	Message:  "retryable error",
	ExitCode: seqerr.ExitGeneral,
}

// RetryConfig configures retry behavior.
type RetryConfig struct {
	MaxAttempts int           // attempts including the first
	BaseDelay   time.Duration // delay before the second attempt
	MaxDelay    time.Duration // cap on any single delay
}

// DefaultRetryConfig polls 4 times with delays of roughly 1s, 2s, 4s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 4,
		BaseDelay:   time.Second,
		MaxDelay:    4 * time.Second,
	}
}

// Retry runs operation with DefaultRetryConfig.
func Retry[T any](ctx context.Context, operation func() (T, error)) (T, error) {
	return RetryWithConfig(ctx, DefaultRetryConfig(), operation)
}

// RetryWithConfig runs operation until it succeeds, fails with a
// non-retryable error, or exhausts cfg.MaxAttempts. Delays grow
// exponentially with jitter and stop early when ctx is done.
func RetryWithConfig[T any](ctx context.Context, cfg RetryConfig, operation func() (T, error)) (T, error) {
	var result T
	var err error

	attempts := max(cfg.MaxAttempts, 1)
	for attempt := 0; attempt < attempts; attempt++ {
		result, err = operation()
		if err == nil {
			return result, nil
		}
		if !IsRetryable(err) {
			return result, err
		}

		if attempt < attempts-1 {
			timer := time.NewTimer(calculateDelay(attempt, cfg.BaseDelay, cfg.MaxDelay))
			select {
			case <-ctx.Done():
				timer.Stop()
				return result, seqerr.WrapAs(seqerr.KindTransportError, ctx.Err(), "gave up after %d attempts", attempt+1)
			case <-timer.C:
			}
		}
	}

	return result, seqerr.Wrap(unwrapRetryable(err), "still failing after %d attempts", attempts)
}

// calculateDelay returns baseDelay*2^attempt capped at maxDelay, with
// jitter in [delay/2, delay).
func calculateDelay(attempt int, baseDelay, maxDelay time.Duration) time.Duration {
	delay := baseDelay << min(attempt, 30)
	if delay > maxDelay || delay <= 0 {
		delay = maxDelay
	}
	half := delay / 2
	if half <= 0 {
		return delay
	}
	return half + rand.N(half) //nolint:gosec // jitter needs no cryptographic randomness
}

// IsRetryable reports whether err should trigger another attempt:
// explicitly marked errors, transport failures, and deadline expiry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrRetryable) ||
		errors.Is(err, seqerr.ErrTransport) ||
		errors.Is(err, context.DeadlineExceeded)
}

// WrapRetryable marks err as retryable.
func WrapRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }

func (e *retryableError) Unwrap() []error { return []error{ErrRetryable, e.err} }

func unwrapRetryable(err error) error {
	var re *retryableError
	if errors.As(err, &re) {
		return re.err
	}
	return err
}

// String renders the config for logs.
func (c RetryConfig) String() string {
	return fmt.Sprintf("attempts=%d base=%s max=%s", c.MaxAttempts, c.BaseDelay, c.MaxDelay)
}
