package cli

import (
	"fmt"
	"os"

	"golang.org/x/term"

	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

// Prompt seams, replaced in tests.
//
//nolint:gochecknoglobals // swapped by tests
var (
	promptPasswordFn    = promptPassword
	promptNewPasswordFn = promptNewPassword
)

const minPasswordLength = 8

// promptPassword reads a password from the terminal without echo.
func promptPassword(prompt string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) { //nolint:gosec // G115: Fd fits in int
		return "", seqerr.WithSuggestion(
			seqerr.New(seqerr.KindInvalidInput, "a password is required but stdin is not a terminal"),
			"set SEQETH_KEY_PASSWORD",
		)
	}
	_, _ = fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd())) //nolint:gosec // G115: Fd fits in int
	_, _ = fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(password), nil
}

// promptNewPassword asks twice and enforces a minimum length.
func promptNewPassword() (string, error) {
	password, err := promptPasswordFn("Enter encryption password: ")
	if err != nil {
		return "", err
	}
	if len(password) < minPasswordLength {
		return "", seqerr.WithSuggestion(
			seqerr.New(seqerr.KindInvalidInput, "password too short"),
			fmt.Sprintf("use at least %d characters", minPasswordLength),
		)
	}
	confirm, err := promptPasswordFn("Confirm password: ")
	if err != nil {
		return "", err
	}
	if password != confirm {
		return "", seqerr.New(seqerr.KindInvalidInput, "passwords do not match")
	}
	return password, nil
}
