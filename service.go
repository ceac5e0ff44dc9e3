// Package openai builds authenticated requests for OpenAI compatible APIs
// and sends them through a configurable HTTP client.
package openai

import (
	"context"
	"net/http"
	"sort"

	"github.com/HexmosTech/openai-go/endpoint"
	"github.com/HexmosTech/openai-go/exchange"
	"github.com/HexmosTech/openai-go/formdata"
	"github.com/HexmosTech/openai-go/request"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the host of the hosted OpenAI API.
	DefaultBaseURL = "https://api.openai.com"
	// DefaultVersion is the version segment placed before every resource.
	DefaultVersion = "v1"
)

// DefaultHostOptions configures a Service talking to DefaultBaseURL.
type DefaultHostOptions struct {
	APIKey         string
	OrganizationID string

	// Transport is used to build an HTTP client when HTTPClient is nil.
	Transport  exchange.Options
	HTTPClient request.Doer
	Decoder    request.DecoderOptions

	// Debug logs every constructed request to Logger, or to a development
	// logger when Logger is nil.
	Debug  bool
	Logger *zap.Logger
}

// OverrideHostOptions configures a Service talking to any OpenAI compatible
// host, optionally behind a proxy path.
type OverrideHostOptions struct {
	APIKey    string
	BaseURL   string
	ProxyPath string
	// Version defaults to DefaultVersion.
	Version string
	// Authorization replaces the bearer credential built from APIKey.
	Authorization  request.Authorization
	OrganizationID string

	Transport  exchange.Options
	HTTPClient request.Doer
	Decoder    request.DecoderOptions

	Debug  bool
	Logger *zap.Logger
}

// Configuration is the read-only view of the settings a Service was built
// with.
type Configuration struct {
	BaseURL        string
	Version        string
	ProxyPath      string
	OrganizationID string
	Authorization  request.Authorization
	Override       bool
}

// Service builds and sends requests for one configured host. It is safe for
// concurrent use.
type Service struct {
	target   exchange.Target
	override bool
	client   request.Doer
	decoder  request.DecoderOptions
	debug    bool
	logger   *zap.Logger
}

// NewService returns a Service for the hosted OpenAI API authenticated with
// a bearer API key.
func NewService(options *DefaultHostOptions) (*Service, error) {
	if options == nil {
		return nil, exchange.NewConfigurationError("creating service", errors.New("options must not be nil"))
	}
	target := exchange.Target{
		Authorization:  request.Bearer(options.APIKey),
		BaseURL:        DefaultBaseURL,
		Version:        DefaultVersion,
		OrganizationID: options.OrganizationID,
	}
	return newService(target, false, options.Transport, options.HTTPClient, options.Decoder, options.Debug, options.Logger)
}

// NewOverrideService returns a Service for an arbitrary host. Requests are
// sent to "<BaseURL>/<ProxyPath>/<Version>/<resource>".
func NewOverrideService(options *OverrideHostOptions) (*Service, error) {
	if options == nil {
		return nil, exchange.NewConfigurationError("creating service", errors.New("options must not be nil"))
	}
	version := options.Version
	if version == "" {
		version = DefaultVersion
	}
	auth := options.Authorization
	if auth.IsZero() {
		auth = request.Bearer(options.APIKey)
	}
	target := exchange.Target{
		Authorization:  auth,
		BaseURL:        options.BaseURL,
		Version:        version,
		ProxyPath:      options.ProxyPath,
		OrganizationID: options.OrganizationID,
	}
	return newService(target, true, options.Transport, options.HTTPClient, options.Decoder, options.Debug, options.Logger)
}

func newService(
	target exchange.Target,
	override bool,
	transport exchange.Options,
	client request.Doer,
	decoder request.DecoderOptions,
	debug bool,
	logger *zap.Logger,
) (*Service, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}

	if client == nil {
		c, err := exchange.BuildHTTPClient(&transport)
		if err != nil {
			return nil, err
		}
		client = c
	}

	switch {
	case !debug:
		logger = zap.NewNop()
	case logger == nil:
		l, err := zap.NewDevelopment()
		if err != nil {
			return nil, errors.Wrap(err, "creating debug logger")
		}
		logger = l
	}

	return &Service{
		target:   target,
		override: override,
		client:   client,
		decoder:  decoder,
		debug:    debug,
		logger:   logger.With(zap.String("host", target.BaseURL)),
	}, nil
}

// Configuration returns the settings s was built with.
func (s *Service) Configuration() Configuration {
	return Configuration{
		BaseURL:        s.target.BaseURL,
		Version:        s.target.Version,
		ProxyPath:      s.target.ProxyPath,
		OrganizationID: s.target.OrganizationID,
		Authorization:  s.target.Authorization,
		Override:       s.override,
	}
}

// Request builds a JSON request for ep. A nil params produces a request
// without a body.
func (s *Service) Request(ep endpoint.Endpoint, method request.Method, params interface{}, opts ...CallOption) (*request.Spec, error) {
	o := collectCallOptions(opts)
	if o.err != nil {
		return nil, o.err
	}
	spec, err := exchange.BuildJSONRequest(ep, &s.target, &exchange.JSONCall{
		Method:       method,
		Params:       params,
		Query:        o.query,
		Beta:         o.beta,
		ExtraHeaders: o.headers,
	})
	if err != nil {
		return nil, err
	}
	s.logRequest("Built JSON request", spec)
	return spec, nil
}

// MultipartRequest builds a multipart/form-data request for ep. Only
// WithQuery applies to multipart requests; beta and extra headers are
// ignored.
func (s *Service) MultipartRequest(ep endpoint.Endpoint, method request.Method, params formdata.Parameters, opts ...CallOption) (*request.Spec, error) {
	o := collectCallOptions(opts)
	spec, err := exchange.BuildMultipartRequest(ep, &s.target, &exchange.MultipartCall{
		Method: method,
		Params: params,
		Query:  o.query,
	})
	if err != nil {
		return nil, err
	}
	s.logRequest("Built multipart request", spec)
	return spec, nil
}

// Send performs spec. The caller must close the response body. Non-2xx
// responses are returned as *request.APIError.
func (s *Service) Send(ctx context.Context, spec *request.Spec) (*http.Response, error) {
	resp, err := request.Send(ctx, s.client, spec)
	if err != nil {
		s.logger.Debug("Request failed",
			zap.String("method", string(spec.Method)),
			zap.String("url", spec.URL.Redacted()),
			zap.Error(err))
		return nil, err
	}
	s.logger.Debug("Received response",
		zap.String("method", string(spec.Method)),
		zap.String("url", spec.URL.Redacted()),
		zap.Int("status", resp.StatusCode))
	return resp, nil
}

// Do performs spec and decodes the JSON response into out.
func (s *Service) Do(ctx context.Context, spec *request.Spec, out interface{}) error {
	resp, err := s.Send(ctx, spec)
	if err != nil {
		return err
	}
	return request.Decode(resp, out, s.decoder)
}

// logRequest never logs header values, so credentials stay out of the log.
func (s *Service) logRequest(msg string, spec *request.Spec) {
	if !s.debug {
		return
	}
	names := make([]string, 0, len(spec.Header))
	for name := range spec.Header {
		names = append(names, name)
	}
	sort.Strings(names)
	s.logger.Debug(msg,
		zap.String("method", string(spec.Method)),
		zap.String("url", spec.URL.Redacted()),
		zap.Strings("headers", names),
		zap.Int("body_size", len(spec.Body)))
}
