// Package errors provides structured error handling for seqeth.
// It defines the error kinds surfaced by the codec and provider layers,
// exit codes for the CLI, and helpers for adding context, details, and
// suggestions to errors.
//
//nolint:revive // Package name intentionally shadows stdlib for domain-specific error handling
package errors

import (
	"errors"
	"fmt"
	"sort"
)

// Exit codes returned by the CLI.
const (
	ExitSuccess = 0 // Successful execution
	ExitGeneral = 1 // General/unknown error
	ExitInput   = 2 // Invalid input or encoding failure
	ExitKey     = 3 // Key material rejected
	ExitNetwork = 4 // Node unreachable or returned an unusable response
)

// Error kinds.
const (
	KindEmptyResponse      = "EMPTY_RESPONSE"
	KindResponseParseError = "RESPONSE_PARSE_ERROR"
	KindRequestFail        = "REQUEST_FAIL"
	KindEncodingError      = "ENCODING_ERROR"
	KindInvalidKey         = "INVALID_KEY"
	KindParseError         = "PARSE_ERROR"
	KindMalformedRLP       = "MALFORMED_RLP"
	KindTransportError     = "TRANSPORT_ERROR"
	KindRPCError           = "RPC_ERROR"
	KindInvalidInput       = "INVALID_INPUT"
	KindGeneral            = "GENERAL_ERROR"
)

// SequenceError is the structured error type for seqeth.
// Values are never mutated after construction; the helpers below
// always return a new error.
type SequenceError struct {
	Kind       string            // Machine-readable error kind
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	ExitCode   int               // Exit code for CLI
}

func (e *SequenceError) Error() string {
	msg := e.Message

	// Include details in error message (sorted for deterministic output)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *SequenceError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for SequenceError. Two errors match when their kinds match.
func (e *SequenceError) Is(target error) bool {
	var t *SequenceError
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// Sentinel errors, one per kind.
var (
	ErrEmptyResponse = &SequenceError{
		Kind:     KindEmptyResponse,
		Message:  "could not extract response",
		ExitCode: ExitNetwork,
	}

	ErrResponseParse = &SequenceError{
		Kind:     KindResponseParseError,
		Message:  "could not parse response result",
		ExitCode: ExitNetwork,
	}

	ErrRequestFail = &SequenceError{
		Kind:     KindRequestFail,
		Message:  "request failed",
		ExitCode: ExitNetwork,
	}

	ErrEncoding = &SequenceError{
		Kind:     KindEncodingError,
		Message:  "encoding failed",
		ExitCode: ExitInput,
	}

	ErrInvalidKey = &SequenceError{
		Kind:     KindInvalidKey,
		Message:  "invalid key material",
		ExitCode: ExitKey,
	}

	ErrParse = &SequenceError{
		Kind:     KindParseError,
		Message:  "could not parse input",
		ExitCode: ExitInput,
	}

	ErrMalformedRLP = &SequenceError{
		Kind:     KindMalformedRLP,
		Message:  "malformed RLP",
		ExitCode: ExitInput,
	}

	ErrTransport = &SequenceError{
		Kind:     KindTransportError,
		Message:  "transport failed",
		ExitCode: ExitNetwork,
	}

	ErrRPC = &SequenceError{
		Kind:     KindRPCError,
		Message:  "node returned an error",
		ExitCode: ExitNetwork,
	}

	ErrInvalidInput = &SequenceError{
		Kind:     KindInvalidInput,
		Message:  "invalid input",
		ExitCode: ExitInput,
	}

	ErrGeneral = &SequenceError{
		Kind:     KindGeneral,
		Message:  "an error occurred",
		ExitCode: ExitGeneral,
	}
)

// exitCodes maps each kind to its CLI exit code.
//
//nolint:gochecknoglobals // lookup table
var exitCodes = map[string]int{
	KindEmptyResponse:      ExitNetwork,
	KindResponseParseError: ExitNetwork,
	KindRequestFail:        ExitNetwork,
	KindEncodingError:      ExitInput,
	KindInvalidKey:         ExitKey,
	KindParseError:         ExitInput,
	KindMalformedRLP:       ExitInput,
	KindTransportError:     ExitNetwork,
	KindRPCError:           ExitNetwork,
	KindInvalidInput:       ExitInput,
}

// New creates a new SequenceError with the given kind and message.
func New(kind, message string) *SequenceError {
	code, ok := exitCodes[kind]
	if !ok {
		code = ExitGeneral
	}
	return &SequenceError{
		Kind:     kind,
		Message:  message,
		ExitCode: code,
	}
}

// Newf creates a new SequenceError with a formatted message.
func Newf(kind, format string, args ...any) *SequenceError {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap wraps an error with additional context. The kind of a wrapped
// SequenceError is preserved.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var se *SequenceError
	if errors.As(err, &se) {
		return &SequenceError{
			Kind:       se.Kind,
			Message:    fmt.Sprintf("%s: %s", msg, se.Message),
			Details:    se.Details,
			Suggestion: se.Suggestion,
			Cause:      se.Cause,
			ExitCode:   se.ExitCode,
		}
	}

	return &SequenceError{
		Kind:     KindGeneral,
		Message:  msg,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WrapAs wraps an arbitrary error under the given kind.
func WrapAs(kind string, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	e := Newf(kind, format, args...)
	e.Cause = err
	return e
}

// WithDetails returns a copy of err carrying the merged details.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var se *SequenceError
	if errors.As(err, &se) {
		merged := make(map[string]string, len(se.Details)+len(details))
		for k, v := range se.Details {
			merged[k] = v
		}
		for k, v := range details {
			merged[k] = v
		}
		return &SequenceError{
			Kind:       se.Kind,
			Message:    se.Message,
			Details:    merged,
			Suggestion: se.Suggestion,
			Cause:      se.Cause,
			ExitCode:   se.ExitCode,
		}
	}

	return &SequenceError{
		Kind:     KindGeneral,
		Message:  err.Error(),
		Details:  details,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithSuggestion adds a suggestion to an error.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var se *SequenceError
	if errors.As(err, &se) {
		return &SequenceError{
			Kind:       se.Kind,
			Message:    se.Message,
			Details:    se.Details,
			Suggestion: suggestion,
			Cause:      se.Cause,
			ExitCode:   se.ExitCode,
		}
	}

	return &SequenceError{
		Kind:       KindGeneral,
		Message:    err.Error(),
		Suggestion: suggestion,
		Cause:      err,
		ExitCode:   ExitGeneral,
	}
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var se *SequenceError
	if errors.As(err, &se) {
		return se.ExitCode
	}

	return ExitGeneral
}

// KindOf returns the error kind for an error.
func KindOf(err error) string {
	var se *SequenceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindGeneral
}

// SuggestionOf returns the first suggestion attached to err, if any.
func SuggestionOf(err error) string {
	var se *SequenceError
	if errors.As(err, &se) {
		return se.Suggestion
	}
	return ""
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}
