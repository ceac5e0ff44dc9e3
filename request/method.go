package request

import (
	"strings"

	"github.com/pkg/errors"
)

// Method is an HTTP method supported by the request builders.
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodDelete Method = "DELETE"
)

// Valid reports whether m is one of the supported methods.
func (m Method) Valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodDelete:
		return true
	default:
		return false
	}
}

func (m Method) String() string {
	return string(m)
}

// ParseMethod converts s into a Method, ignoring case.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", errors.Errorf("unsupported method: %s", s)
	}
	return m, nil
}
