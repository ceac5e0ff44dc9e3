// Package exchange builds authenticated API requests and the HTTP client
// they are sent with.
package exchange

import (
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strings"

	"github.com/HexmosTech/openai-go/endpoint"
	"github.com/HexmosTech/openai-go/formdata"
	"github.com/HexmosTech/openai-go/request"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/http/httpguts"
)

const contentTypeJSON = "application/json"

// Target describes the host every request of a service is sent to.
type Target struct {
	Authorization  request.Authorization
	BaseURL        string
	Version        string
	ProxyPath      string
	OrganizationID string
}

// Validate reports the problems BuildJSONRequest and BuildMultipartRequest
// would find in t before any endpoint is involved.
func (t *Target) Validate() error {
	if _, err := parseBaseURL(t.BaseURL); err != nil {
		return err
	}
	return setCredentialHeaders(make(http.Header), t)
}

// JSONCall holds the per-request settings of a JSON request. A nil Params
// produces a request without a body.
type JSONCall struct {
	Method       request.Method
	Params       interface{}
	Query        []request.QueryItem
	Beta         string
	ExtraHeaders map[string]string
}

// MultipartCall holds the per-request settings of a multipart request.
type MultipartCall struct {
	Method request.Method
	Params formdata.Parameters
	Query  []request.QueryItem
}

// newBoundary returns the delimiter of a multipart body.
var newBoundary = uuid.NewString

// BuildJSONRequest builds a request whose body, if any, is params encoded
// as JSON. Headers are applied in a fixed order with set semantics, so
// extra headers override the defaults of the same name.
func BuildJSONRequest(ep endpoint.Endpoint, target *Target, call *JSONCall) (*request.Spec, error) {
	u, err := buildURL(ep, target, call.Query)
	if err != nil {
		return nil, err
	}

	header := make(http.Header)
	header.Set(request.ContentTypeHeader, contentTypeJSON)
	if err := setCredentialHeaders(header, target); err != nil {
		return nil, err
	}
	if call.Beta != "" {
		header.Set(request.BetaHeader, call.Beta)
	}
	if err := setExtraHeaders(header, call.ExtraHeaders); err != nil {
		return nil, err
	}

	if !call.Method.Valid() {
		return nil, newConfigurationError("checking method", errors.Errorf("unsupported method: %q", call.Method))
	}

	body, err := buildJSONBody(call.Params)
	if err != nil {
		return nil, err
	}

	return &request.Spec{
		Method: call.Method,
		URL:    u,
		Header: header,
		Body:   body,
	}, nil
}

// BuildMultipartRequest builds a multipart/form-data request. Every call
// draws a fresh boundary, and the boundary announced in Content-Type is the
// one that delimits the body.
func BuildMultipartRequest(ep endpoint.Endpoint, target *Target, call *MultipartCall) (*request.Spec, error) {
	u, err := buildURL(ep, target, call.Query)
	if err != nil {
		return nil, err
	}

	boundary := newBoundary()
	header := make(http.Header)
	if err := setCredentialHeaders(header, target); err != nil {
		return nil, err
	}
	header.Set(request.ContentTypeHeader, formdata.ContentType(boundary))

	if !call.Method.Valid() {
		return nil, newConfigurationError("checking method", errors.Errorf("unsupported method: %q", call.Method))
	}

	body, err := formdata.Encode(boundary, call.Params)
	if err != nil {
		return nil, newEncodingError("multipart form", err)
	}

	return &request.Spec{
		Method: call.Method,
		URL:    u,
		Header: header,
		Body:   body,
	}, nil
}

// buildURL replaces the path of the base URL with the endpoint path and
// attaches query in order. Any path, query or fragment of the base URL is
// dropped.
func buildURL(ep endpoint.Endpoint, target *Target, query []request.QueryItem) (*url.URL, error) {
	base, err := parseBaseURL(target.BaseURL)
	if err != nil {
		return nil, err
	}

	p := cleanPath(ep.Path(target.Version, target.ProxyPath))
	ref, err := url.Parse(p)
	if err != nil {
		return nil, newConfigurationError("parsing endpoint path", err)
	}
	if ref.Scheme != "" || ref.Host != "" || ref.RawQuery != "" || ref.Fragment != "" {
		return nil, newConfigurationError("parsing endpoint path", errors.Errorf("endpoint path is not a plain path: %q", p))
	}

	u := url.URL{
		Scheme:  base.Scheme,
		User:    base.User,
		Host:    base.Host,
		Path:    ref.Path,
		RawPath: ref.RawPath,
	}
	if len(query) > 0 {
		u.RawQuery = request.EncodeQuery(query)
	}

	final, err := url.Parse(u.String())
	if err != nil {
		return nil, newConfigurationError("assembling URL", err)
	}
	return final, nil
}

func parseBaseURL(s string) (*url.URL, error) {
	base, err := url.Parse(s)
	if err != nil {
		return nil, newConfigurationError("parsing base URL", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, newConfigurationError("parsing base URL", errors.Errorf("base URL needs a scheme and a host: %q", s))
	}
	return base, nil
}

// cleanPath forces a leading slash and collapses runs of slashes.
func cleanPath(p string) string {
	var b strings.Builder
	b.Grow(len(p) + 1)
	b.WriteByte('/')
	prevSlash := true
	for i := 0; i < len(p); i++ {
		c := p[i]
		if c == '/' {
			if prevSlash {
				continue
			}
			prevSlash = true
		} else {
			prevSlash = false
		}
		b.WriteByte(c)
	}
	return b.String()
}

func setCredentialHeaders(header http.Header, target *Target) error {
	auth := target.Authorization
	if err := auth.Validate(); err != nil {
		return newConfigurationError("checking authorization", err)
	}
	header.Set(auth.HeaderField(), auth.Value())
	if target.OrganizationID != "" {
		if !httpguts.ValidHeaderFieldValue(target.OrganizationID) {
			return newConfigurationError("checking organization", errors.New("invalid characters in organization ID"))
		}
		header.Set(request.OrganizationHeader, target.OrganizationID)
	}
	return nil
}

// setExtraHeaders applies extra in canonical key order. Two names that
// canonicalize to the same key are rejected.
func setExtraHeaders(header http.Header, extra map[string]string) error {
	canonical := make(map[string]string, len(extra))
	names := make([]string, 0, len(extra))
	for name, value := range extra {
		if !httpguts.ValidHeaderFieldName(name) {
			return newConfigurationError("checking extra headers", errors.Errorf("invalid header name: %q", name))
		}
		if !httpguts.ValidHeaderFieldValue(value) {
			return newConfigurationError("checking extra headers", errors.Errorf("invalid value for header %s", name))
		}
		key := http.CanonicalHeaderKey(name)
		if _, ok := canonical[key]; ok {
			return newConfigurationError("checking extra headers", errors.Errorf("header %s given more than once", key))
		}
		canonical[key] = value
		names = append(names, key)
	}
	sort.Strings(names)
	for _, name := range names {
		header.Set(name, canonical[name])
	}
	return nil
}

func buildJSONBody(params interface{}) ([]byte, error) {
	if isNil(params) {
		return nil, nil
	}
	body, err := json.Marshal(params)
	if err != nil {
		return nil, newEncodingError("marshaling JSON", err)
	}
	return body, nil
}

// isNil reports whether params is nil or a nil pointer, map, slice or
// interface.
func isNil(params interface{}) bool {
	if params == nil {
		return true
	}
	v := reflect.ValueOf(params)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return v.IsNil()
	}
	return false
}
