package command

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/term"
)

// PromptPassword reads a password from the terminal without echo.
func PromptPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd()) //nolint:gosec
	if !term.IsTerminal(fd) {
		return "", errors.New("stdin is not a terminal, set WALLET_KEYSTORE_PASSWORD instead")
	}

	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", errors.Wrap(err, "failed to read password")
	}

	return string(b), nil
}

// StaticPassword returns a prompt that always answers password. An empty password falls back to
// the terminal.
func StaticPassword(password string) func(string) (string, error) {
	if password == "" {
		return PromptPassword
	}

	return func(string) (string, error) {
		return password, nil
	}
}
