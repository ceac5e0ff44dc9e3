package request

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/tidwall/gjson"
)

// Doer is the subset of *http.Client used to send requests.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// DecoderOptions controls how JSON responses are decoded.
type DecoderOptions struct {
	UseNumber             bool
	DisallowUnknownFields bool
}

// APIError is returned for responses with a non-2xx status code.
type APIError struct {
	StatusCode int
	Message    string
	Type       string
	Code       string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("API error (status %d): %s (type: %s)", e.StatusCode, e.Message, e.Type)
	}
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
}

// Send performs spec with doer. The caller must close the response body.
// Responses with a non-2xx status are consumed and returned as *APIError.
func Send(ctx context.Context, doer Doer, spec *Spec) (*http.Response, error) {
	r, err := spec.HTTPRequest(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := doer.Do(r)
	if err != nil {
		return nil, errors.Wrap(err, "sending HTTP request")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, errors.Wrap(err, "reading error response body")
		}
		return nil, newAPIError(resp.StatusCode, body)
	}
	return resp, nil
}

// Decode reads a JSON response body into out and closes it. A nil out
// discards the body.
func Decode(resp *http.Response, out interface{}, options DecoderOptions) error {
	defer resp.Body.Close()
	if out == nil {
		_, err := io.Copy(io.Discard, resp.Body)
		return errors.Wrap(err, "discarding response body")
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "reading response body")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	decoder := json.NewDecoder(bytes.NewReader(body))
	if options.UseNumber {
		decoder.UseNumber()
	}
	if options.DisallowUnknownFields {
		decoder.DisallowUnknownFields()
	}
	if err := decoder.Decode(out); err != nil {
		return errors.Wrap(err, "decoding response body")
	}
	return nil
}

func newAPIError(status int, body []byte) *APIError {
	e := &APIError{StatusCode: status}
	if gjson.ValidBytes(body) {
		result := gjson.GetManyBytes(body, "error.message", "error.type", "error.code")
		e.Message = result[0].String()
		e.Type = result[1].String()
		e.Code = result[2].String()
	}
	if e.Message == "" {
		e.Message = strings.TrimSpace(string(body))
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}
