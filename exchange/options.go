package exchange

import (
	"net/http"
	"time"
)

// Options configures the HTTP client requests are sent with.
type Options struct {
	Timeout         time.Duration
	FollowRedirects bool
	SkipVerify      bool
	ForceHTTP1      bool

	// Transport replaces the cloned default transport when set.
	Transport http.RoundTripper
	// UserAgent is sent on requests that do not set one themselves.
	UserAgent string
}
