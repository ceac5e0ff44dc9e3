package exchange

import (
	"github.com/pkg/errors"
)

// ConfigurationError reports a request that cannot be built from the given
// target or call settings: an unparsable base URL, an invalid credential,
// a bad header or an unsupported method.
type ConfigurationError struct {
	Op  string
	Err error
}

func (e *ConfigurationError) Error() string {
	return "invalid configuration: " + e.Op + ": " + e.Err.Error()
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func newConfigurationError(op string, err error) error {
	return errors.WithStack(&ConfigurationError{Op: op, Err: err})
}

// NewConfigurationError returns a *ConfigurationError for op caused by err.
func NewConfigurationError(op string, err error) error {
	return newConfigurationError(op, err)
}

// EncodingError reports a request body that could not be serialized.
type EncodingError struct {
	Op  string
	Err error
}

func (e *EncodingError) Error() string {
	return "encoding request body: " + e.Op + ": " + e.Err.Error()
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

func newEncodingError(op string, err error) error {
	return errors.WithStack(&EncodingError{Op: op, Err: err})
}

// IsConfigurationError reports whether err wraps a *ConfigurationError.
func IsConfigurationError(err error) bool {
	var e *ConfigurationError
	return errors.As(err, &e)
}

// IsEncodingError reports whether err wraps an *EncodingError.
func IsEncodingError(err error) bool {
	var e *EncodingError
	return errors.As(err, &e)
}
