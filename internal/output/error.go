package output

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

// ErrorOutput is the JSON shape of a failed command.
type ErrorOutput struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail mirrors SequenceError for JSON consumers.
type ErrorDetail struct {
	Kind       string            `json:"kind"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	ExitCode   int               `json:"exit_code"`
}

// DescribeError converts err to its JSON shape. Details are kept out of
// the message. Errors outside the SequenceError model are reported as
// GENERAL_ERROR.
func DescribeError(err error) ErrorDetail {
	var se *seqerr.SequenceError
	if errors.As(err, &se) {
		msg := se.Message
		if se.Cause != nil {
			msg += ": " + se.Cause.Error()
		}
		return ErrorDetail{
			Kind:       se.Kind,
			Message:    msg,
			Details:    se.Details,
			Suggestion: se.Suggestion,
			ExitCode:   seqerr.ExitCode(err),
		}
	}
	return ErrorDetail{
		Kind:     seqerr.KindGeneral,
		Message:  err.Error(),
		ExitCode: seqerr.ExitGeneral,
	}
}

// FormatError writes err in format. Details are sorted by key.
func FormatError(w io.Writer, err error, format Format) error {
	if err == nil {
		return nil
	}
	d := DescribeError(err)
	if format == FormatJSON {
		return writeJSON(w, ErrorOutput{Error: d})
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Error [%s]: %s\n", d.Kind, d.Message)
	if len(d.Details) > 0 {
		keys := make([]string, 0, len(d.Details))
		for k := range d.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString("\nDetails:\n")
		for _, k := range keys {
			fmt.Fprintf(&sb, "  %s: %s\n", k, d.Details[k])
		}
	}
	if d.Suggestion != "" {
		fmt.Fprintf(&sb, "\nSuggestion: %s\n", d.Suggestion)
	}
	_, writeErr := io.WriteString(w, sb.String())
	return writeErr
}
