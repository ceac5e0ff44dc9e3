// Package endpoint identifies API operations and resolves them to URL paths.
//
// Every operation is a Kind paired with a resource template in a single
// route table. Paths are assembled by Join, which places the resource under
// the API version and, when a proxy path is configured, moves the whole
// route under the proxy segment.
package endpoint

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// Endpoint resolves the URL path of an API operation.
//
// An empty proxyPath means no proxy is configured. Implementations must
// return a root-relative path and must not fail.
type Endpoint interface {
	Path(version, proxyPath string) string
}

// Func adapts a function to the Endpoint interface.
type Func func(version, proxyPath string) string

func (f Func) Path(version, proxyPath string) string {
	return f(version, proxyPath)
}

// Raw returns an Endpoint for an arbitrary resource path below the version
// segment, e.g. Raw("organization/projects").
func Raw(resource string) Endpoint {
	return Func(func(version, proxyPath string) string {
		return Join(version, proxyPath, resource)
	})
}

// Join assembles "/<proxyPath>/<version>/<resource>". Empty segments are
// dropped and surrounding slashes trimmed, so the result never contains
// "//" and never ends with a dangling version fragment.
func Join(version, proxyPath, resource string) string {
	segments := make([]string, 0, 3)
	for _, s := range []string{proxyPath, version, resource} {
		s = strings.Trim(s, "/")
		if s != "" {
			segments = append(segments, s)
		}
	}
	return "/" + strings.Join(segments, "/")
}

// Route is a Kind with its path parameters filled in.
type Route struct {
	kind     Kind
	resource string
}

// New returns the Route of kind with params substituted, in order, for the
// placeholders of its template. Parameters are path-escaped.
func New(kind Kind, params ...string) (Route, error) {
	if !kind.valid() {
		return Route{}, errors.Errorf("unknown endpoint kind: %d", int(kind))
	}
	template := routes[kind].template
	if n := strings.Count(template, "{"); n != len(params) {
		return Route{}, errors.Errorf("endpoint %s takes %d parameter(s), got %d", kind.Name(), n, len(params))
	}
	var b strings.Builder
	rest := template
	for _, p := range params {
		if p == "" {
			return Route{}, errors.Errorf("endpoint %s: empty parameter", kind.Name())
		}
		open := strings.IndexByte(rest, '{')
		end := strings.IndexByte(rest, '}')
		b.WriteString(rest[:open])
		b.WriteString(url.PathEscape(p))
		rest = rest[end+1:]
	}
	b.WriteString(rest)
	return Route{kind: kind, resource: b.String()}, nil
}

// Must is like New but panics on error. It is meant for call sites with a
// fixed number of parameters.
func Must(kind Kind, params ...string) Route {
	r, err := New(kind, params...)
	if err != nil {
		panic(err)
	}
	return r
}

// Kind returns the operation r was built for.
func (r Route) Kind() Kind {
	return r.kind
}

// Resource returns the version-relative resource path of r.
func (r Route) Resource() string {
	return r.resource
}

func (r Route) Path(version, proxyPath string) string {
	return Join(version, proxyPath, r.resource)
}

func (r Route) String() string {
	return r.resource
}

// Parse resolves a CLI-style endpoint reference. Named routes take their
// parameters as further slash separated segments ("file-content/file-abc");
// references starting with "/" are taken as raw resource paths.
func Parse(s string) (Endpoint, error) {
	if strings.HasPrefix(s, "/") {
		if strings.Trim(s, "/") == "" {
			return nil, errors.New("empty endpoint path")
		}
		return Raw(s), nil
	}
	parts := strings.Split(s, "/")
	kind, ok := Lookup(parts[0])
	if !ok {
		return nil, errors.Errorf("unknown endpoint: %s", parts[0])
	}
	return New(kind, parts[1:]...)
}
