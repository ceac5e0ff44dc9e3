package openai

import (
	"net/http"

	"github.com/HexmosTech/openai-go/exchange"
	"github.com/HexmosTech/openai-go/request"
	"github.com/pkg/errors"
)

// CallOption adjusts a single request built by a Service.
type CallOption func(*callOptions)

type callOptions struct {
	query   []request.QueryItem
	beta    string
	headers map[string]string
	err     error
}

// WithQuery appends a query item. Items keep the order they are given in.
func WithQuery(name, value string) CallOption {
	return func(o *callOptions) {
		o.query = append(o.query, request.QueryItem{Name: name, Value: value})
	}
}

// WithBeta sets the OpenAI-Beta header, e.g. "assistants=v2".
func WithBeta(value string) CallOption {
	return func(o *callOptions) {
		o.beta = value
	}
}

// WithHeader sets an extra header. Extra headers are applied last and win
// over the defaults. Names are canonicalized, so a later WithHeader for
// "x-foo" replaces an earlier one for "X-Foo".
func WithHeader(name, value string) CallOption {
	return func(o *callOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string)
		}
		o.headers[http.CanonicalHeaderKey(name)] = value
	}
}

// WithHeaders sets several extra headers at once. Names that differ only in
// case are a configuration error when the request is built.
func WithHeaders(headers map[string]string) CallOption {
	return func(o *callOptions) {
		given := make(map[string]string, len(headers))
		for name, value := range headers {
			key := http.CanonicalHeaderKey(name)
			if other, ok := given[key]; ok && o.err == nil {
				o.err = exchange.NewConfigurationError("checking extra headers",
					errors.Errorf("header %s given more than once (%q and %q)", key, other, name))
			}
			given[key] = name
			WithHeader(name, value)(o)
		}
	}
}

func collectCallOptions(opts []CallOption) callOptions {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
