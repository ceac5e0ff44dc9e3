//go:build !windows
// +build !windows

package flags

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/term"
)

// AskAPIKey reads an API key from the controlling terminal without echo.
func AskAPIKey() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		tty, err := os.Open("/dev/tty")
		if err != nil {
			return "", errors.Wrap(err, "failed to allocate terminal")
		}
		defer tty.Close()
		fd = int(tty.Fd())
	}

	fmt.Fprintf(os.Stderr, "OpenAI API key: ")
	key, err := term.ReadPassword(fd)
	if err != nil {
		return "", errors.Wrap(err, "failed to read API key from terminal")
	}
	fmt.Fprintln(os.Stderr)
	return string(key), nil
}
