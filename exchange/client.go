package exchange

import (
	"crypto/tls"
	"net/http"
)

// BuildHTTPClient returns the client a Service sends requests with. The
// transport is cloned from http.DefaultTransport unless options.Transport
// is set; TLS and HTTP/2 settings only apply to an *http.Transport.
func BuildHTTPClient(options *Options) (*http.Client, error) {
	checkRedirect := func(req *http.Request, via []*http.Request) error {
		// Do not follow redirects
		return http.ErrUseLastResponse
	}
	if options.FollowRedirects {
		checkRedirect = nil
	}

	var transport http.RoundTripper
	if options.Transport == nil {
		transport = http.DefaultTransport.(*http.Transport).Clone()
	} else {
		transport = options.Transport
	}
	if t, ok := transport.(*http.Transport); ok {
		configureTransport(t, options)
	}
	if options.UserAgent != "" {
		transport = &userAgentTransport{next: transport, userAgent: options.UserAgent}
	}

	return &http.Client{
		CheckRedirect: checkRedirect,
		Timeout:       options.Timeout,
		Transport:     transport,
	}, nil
}

func configureTransport(t *http.Transport, options *Options) {
	if t.TLSClientConfig == nil {
		t.TLSClientConfig = &tls.Config{}
	}
	t.TLSClientConfig.InsecureSkipVerify = options.SkipVerify
	if options.ForceHTTP1 {
		t.TLSClientConfig.NextProtos = []string{"http/1.1", "http/1.0"}
		t.TLSNextProto = make(map[string]func(string, *tls.Conn) http.RoundTripper)
		t.ForceAttemptHTTP2 = false
	}
}

// userAgentTransport sets User-Agent on requests that do not carry one.
type userAgentTransport struct {
	next      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	if r.Header.Get("User-Agent") != "" {
		return t.next.RoundTrip(r)
	}
	r = r.Clone(r.Context())
	r.Header.Set("User-Agent", t.userAgent)
	return t.next.RoundTrip(r)
}
