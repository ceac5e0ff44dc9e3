//go:build windows
// +build windows

package flags

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/term"
)

func AskAPIKey() (string, error) {
	fmt.Fprintf(os.Stderr, "OpenAI API key: ")
	key, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", errors.Wrap(err, "failed to read API key from terminal")
	}
	fmt.Fprintln(os.Stderr)
	return string(key), nil
}
