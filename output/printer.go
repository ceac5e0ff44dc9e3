package output

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"code.cloudfoundry.org/bytefmt"
	"github.com/HexmosTech/openai-go/request"
)

type Printer interface {
	PrintStatusLine(proto string, status string, statusCode int) error
	PrintRequestLine(spec *request.Spec) error
	PrintHeader(header http.Header) error
	PrintBody(body io.Reader, contentType string) error
}

// NewPrinter returns a PrettyPrinter writing to w.
func NewPrinter(w io.Writer, options *Options) Printer {
	return NewPrettyPrinter(PrettyPrinterConfig{
		Writer:      w,
		EnableColor: options.EnableColor,
	})
}

var credentialHeaders = []string{
	request.AuthorizationHeader,
	request.APIKeyHeader,
	"Proxy-Authorization",
}

// MaskHeader returns a copy of header with credential values masked.
func MaskHeader(header http.Header, secretHeaders ...string) http.Header {
	masked := header.Clone()
	seen := make(map[string]bool)
	for _, name := range append(credentialHeaders, secretHeaders...) {
		name = http.CanonicalHeaderKey(name)
		values := masked[name]
		if seen[name] || len(values) == 0 {
			continue
		}
		seen[name] = true
		replaced := make([]string, len(values))
		for i, v := range values {
			replaced[i] = request.Mask(v)
		}
		masked[name] = replaced
	}
	return masked
}

// PrintRequest prints the parts of spec selected by options. Credentials
// are masked and multipart bodies are summarized.
func PrintRequest(p Printer, spec *request.Spec, options *Options) error {
	if options.PrintRequestHeader {
		if err := p.PrintRequestLine(spec); err != nil {
			return err
		}
		if err := p.PrintHeader(MaskHeader(spec.Header, options.SecretHeaders...)); err != nil {
			return err
		}
	}
	if options.PrintRequestBody && spec.Body != nil {
		contentType := spec.ContentType()
		if isMultipart(contentType) {
			summary := fmt.Sprintf("<multipart/form-data body: %s>\n\n", bytefmt.ByteSize(uint64(len(spec.Body))))
			return p.PrintBody(strings.NewReader(summary), "text/plain")
		}
		if err := p.PrintBody(strings.NewReader(string(spec.Body)), contentType); err != nil {
			return err
		}
	}
	return nil
}

// PrintResponse prints the parts of resp selected by options.
func PrintResponse(p Printer, resp *http.Response, options *Options) error {
	if options.PrintResponseHeader {
		if err := p.PrintStatusLine(resp.Proto, resp.Status, resp.StatusCode); err != nil {
			return err
		}
		if err := p.PrintHeader(resp.Header); err != nil {
			return err
		}
	}
	if options.PrintResponseBody {
		if err := p.PrintBody(resp.Body, resp.Header.Get("Content-Type")); err != nil {
			return err
		}
	}
	return nil
}

func isMultipart(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "multipart/form-data"
}
