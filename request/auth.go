package request

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/http/httpguts"
)

const (
	// AuthorizationHeader carries bearer credentials.
	AuthorizationHeader = "Authorization"
	// APIKeyHeader carries vendor-key credentials (Azure style).
	APIKeyHeader = "api-key"
)

// Authorization pairs a credential with the header it is sent under.
// The zero value is invalid.
type Authorization struct {
	value       string
	headerField string
}

// Bearer returns an Authorization sent as "Authorization: Bearer <token>".
func Bearer(token string) Authorization {
	return Authorization{value: "Bearer " + token, headerField: AuthorizationHeader}
}

// APIKey returns an Authorization sent as "api-key: <key>".
func APIKey(key string) Authorization {
	return Authorization{value: key, headerField: APIKeyHeader}
}

// CustomAuthorization returns an Authorization with an arbitrary header name.
func CustomAuthorization(headerField, value string) Authorization {
	return Authorization{value: value, headerField: headerField}
}

// Value returns the header value, including any scheme prefix.
func (a Authorization) Value() string {
	return a.value
}

// HeaderField returns the header name the credential is sent under.
func (a Authorization) HeaderField() string {
	return a.headerField
}

// IsZero reports whether a was never initialized.
func (a Authorization) IsZero() bool {
	return a.value == "" && a.headerField == ""
}

// Validate checks that the header name is a valid HTTP token and that a
// non-empty credential is present.
func (a Authorization) Validate() error {
	if !httpguts.ValidHeaderFieldName(a.headerField) {
		return errors.Errorf("invalid authorization header name: %q", a.headerField)
	}
	if a.value == "" || (a.headerField == AuthorizationHeader && a.value == "Bearer ") {
		return errors.New("credential must not be empty")
	}
	if !httpguts.ValidHeaderFieldValue(a.value) {
		return errors.Errorf("invalid characters in credential for header %s", a.headerField)
	}
	return nil
}

// String masks the credential so an Authorization can be printed safely.
func (a Authorization) String() string {
	return a.headerField + ": " + Mask(a.value)
}

// Mask hides all but a short prefix of a secret value. A leading
// "Bearer " scheme is kept as is.
func Mask(s string) string {
	const keep = 3
	scheme := ""
	if strings.HasPrefix(s, "Bearer ") {
		scheme, s = "Bearer ", strings.TrimPrefix(s, "Bearer ")
	}
	if len(s) <= keep {
		return scheme + "******"
	}
	return scheme + s[:keep] + "******"
}
