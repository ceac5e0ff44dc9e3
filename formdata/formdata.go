// Package formdata encodes multipart/form-data request bodies.
package formdata

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// DefaultFileContentType is used for file parts without a content type.
const DefaultFileContentType = "application/octet-stream"

// Part is one named field of a form. A Part is a file part when it has a
// Filename, Data or a Path; its content comes from Data, or from the file at
// Path when Data is nil.
type Part struct {
	Name        string
	Value       string
	Filename    string
	ContentType string
	Data        []byte
	Path        string
}

// IsFile reports whether p is encoded with a filename.
func (p Part) IsFile() bool {
	return p.Filename != "" || p.Data != nil || p.Path != ""
}

// filename falls back to the base name of Path, then to Name.
func (p Part) filename() string {
	switch {
	case p.Filename != "":
		return p.Filename
	case p.Path != "":
		return filepath.Base(p.Path)
	default:
		return p.Name
	}
}

// Parameters is an ordered list of form parts.
type Parameters []Part

// Field returns a text part.
func Field(name, value string) Part {
	return Part{Name: name, Value: value}
}

// Value returns a text part holding the textual form of v. Strings,
// booleans, integers and floats are supported; anything else is formatted
// with fmt.Sprint.
func Value(name string, v interface{}) Part {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case bool:
		s = strconv.FormatBool(x)
	case int:
		s = strconv.Itoa(x)
	case int64:
		s = strconv.FormatInt(x, 10)
	case float32:
		s = strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	default:
		s = fmt.Sprint(v)
	}
	return Part{Name: name, Value: s}
}

// File returns a file part with in-memory content.
func File(name, filename, contentType string, data []byte) Part {
	return Part{Name: name, Filename: filename, ContentType: contentType, Data: data}
}

// FileFromPath returns a file part whose content is read from path when the
// form is encoded. The filename defaults to the base name of path.
func FileFromPath(name, path, contentType string) Part {
	return Part{Name: name, Filename: filepath.Base(path), ContentType: contentType, Path: path}
}

// Add appends parts to ps.
func (ps *Parameters) Add(parts ...Part) {
	*ps = append(*ps, parts...)
}

// Encode writes params as a multipart body delimited by boundary.
func Encode(boundary string, params Parameters) ([]byte, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.SetBoundary(boundary); err != nil {
		return nil, errors.Wrapf(err, "invalid boundary %q", boundary)
	}

	for _, p := range params {
		if p.Name == "" {
			return nil, errors.New("form part without a name")
		}
		if !p.IsFile() {
			w, err := writer.CreatePart(partHeader(p))
			if err != nil {
				return nil, errors.Wrapf(err, "creating form field '%s'", p.Name)
			}
			if _, err := w.Write([]byte(p.Value)); err != nil {
				return nil, errors.Wrapf(err, "writing form field '%s'", p.Name)
			}
			continue
		}
		data, err := content(p)
		if err != nil {
			return nil, err
		}
		w, err := writer.CreatePart(partHeader(p))
		if err != nil {
			return nil, errors.Wrapf(err, "creating form file '%s'", p.Name)
		}
		if _, err := w.Write(data); err != nil {
			return nil, errors.Wrapf(err, "writing form file '%s'", p.Name)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, "closing multipart writer")
	}
	return body.Bytes(), nil
}

// ContentType returns the Content-Type header value for boundary.
func ContentType(boundary string) string {
	return "multipart/form-data; boundary=" + boundary
}

func content(p Part) ([]byte, error) {
	if p.Data != nil || p.Path == "" {
		return p.Data, nil
	}
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading form file '%s'", p.Name)
	}
	return data, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"", "\r", "%0D", "\n", "%0A")

func partHeader(p Part) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	disposition := fmt.Sprintf(`form-data; name="%s"`, quoteEscaper.Replace(p.Name))
	if p.IsFile() {
		disposition += fmt.Sprintf(`; filename="%s"`, quoteEscaper.Replace(p.filename()))
		contentType := p.ContentType
		if contentType == "" {
			contentType = DefaultFileContentType
		}
		h.Set("Content-Type", contentType)
	}
	h.Set("Content-Disposition", disposition)
	return h
}
