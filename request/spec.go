package request

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

// Header names shared by every request.
const (
	ContentTypeHeader  = "Content-Type"
	OrganizationHeader = "OpenAI-Organization"
	BetaHeader         = "OpenAI-Beta"
)

// QueryItem is a single name=value pair of a query string. A slice of
// QueryItem keeps the order the caller gave.
type QueryItem struct {
	Name  string
	Value string
}

// Spec is a fully formed request ready to be handed to a transport.
// A nil Body means the request has no body at all.
type Spec struct {
	Method Method
	URL    *url.URL
	Header http.Header
	Body   []byte
}

// ContentType returns the Content-Type header of s.
func (s *Spec) ContentType() string {
	return s.Header.Get(ContentTypeHeader)
}

// HTTPRequest converts s into a new *http.Request bound to ctx. The body
// reader is created afresh on every call, so the same Spec can be sent more
// than once.
func (s *Spec) HTTPRequest(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if s.Body != nil {
		body = bytes.NewReader(s.Body)
	}
	r, err := http.NewRequestWithContext(ctx, string(s.Method), s.URL.String(), body)
	if err != nil {
		return nil, errors.Wrap(err, "creating HTTP request")
	}
	r.Header = s.Header.Clone()
	if s.Body != nil {
		r.ContentLength = int64(len(s.Body))
		r.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(s.Body)), nil
		}
	}
	return r, nil
}

// EncodeQuery encodes items in order. Unlike url.Values.Encode it does not
// sort the keys.
func EncodeQuery(items []QueryItem) string {
	var buf bytes.Buffer
	for i, item := range items {
		if i > 0 {
			buf.WriteByte('&')
		}
		buf.WriteString(url.QueryEscape(item.Name))
		buf.WriteByte('=')
		buf.WriteString(url.QueryEscape(item.Value))
	}
	return buf.String()
}
