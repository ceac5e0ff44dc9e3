package input

import (
	"io/ioutil"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/HexmosTech/openai-go/formdata"
	"github.com/HexmosTech/openai-go/request"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/tidwall/sjson"
)

// rawJSON is a pre-encoded JSON document that marshals to itself.
type rawJSON []byte

func (r rawJSON) MarshalJSON() ([]byte, error) {
	return r, nil
}

// JSONParams returns the JSON body described by in, or nil when in has no
// body. Field names are sjson paths, so "messages.0.role=user" builds a
// nested document.
func (in *Input) JSONParams() (interface{}, error) {
	switch in.Body.BodyType {
	case EmptyBody:
		return nil, nil
	case RawBody:
		if !json.Valid(in.Body.Raw) {
			return nil, errors.New("request body from stdin is not valid JSON")
		}
		return rawJSON(in.Body.Raw), nil
	case JSONBody:
		return buildJSONBody(in)
	default:
		return nil, errors.New("form fields need a multipart request")
	}
}

func buildJSONBody(in *Input) (interface{}, error) {
	body := []byte("{}")
	for _, field := range in.Body.Fields {
		value, err := resolveFieldValue(field)
		if err != nil {
			return nil, err
		}
		body, err = sjson.SetBytes(body, field.Name, value)
		if err != nil {
			return nil, errors.Wrapf(err, "setting JSON field '%s'", field.Name)
		}
	}
	for _, field := range in.Body.RawJSONFields {
		value, err := resolveFieldValue(field)
		if err != nil {
			return nil, err
		}
		if !json.Valid([]byte(value)) {
			return nil, errors.Errorf("invalid JSON at '%s'", field.Name)
		}
		body, err = sjson.SetRawBytes(body, field.Name, []byte(value))
		if err != nil {
			return nil, errors.Wrapf(err, "setting JSON field '%s'", field.Name)
		}
	}
	return rawJSON(body), nil
}

// MultipartParams returns the form described by in. File items are read
// when the form is encoded.
func (in *Input) MultipartParams() (formdata.Parameters, error) {
	var params formdata.Parameters
	for _, field := range in.Body.Fields {
		value, err := resolveFieldValue(field)
		if err != nil {
			return nil, err
		}
		params.Add(formdata.Field(field.Name, value))
	}
	for _, field := range in.Body.Files {
		if !field.IsFile {
			params.Add(formdata.File(field.Name, field.Name, "", []byte(field.Value)))
			continue
		}
		contentType := mime.TypeByExtension(filepath.Ext(field.Value))
		params.Add(formdata.FileFromPath(field.Name, field.Value, contentType))
	}
	return params, nil
}

// QueryItems returns the query items of in in command line order.
func (in *Input) QueryItems() ([]request.QueryItem, error) {
	var items []request.QueryItem
	for _, field := range in.Parameters {
		value, err := resolveFieldValue(field)
		if err != nil {
			return nil, err
		}
		items = append(items, request.QueryItem{Name: field.Name, Value: value})
	}
	return items, nil
}

// ExtraHeaders returns the header items of in keyed by canonical name. A
// later item with the same name, in any case, wins.
func (in *Input) ExtraHeaders() (map[string]string, error) {
	if len(in.Header.Fields) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(in.Header.Fields))
	for _, field := range in.Header.Fields {
		value, err := resolveFieldValue(field)
		if err != nil {
			return nil, err
		}
		headers[http.CanonicalHeaderKey(field.Name)] = strings.TrimSpace(value)
	}
	return headers, nil
}

func resolveFieldValue(field Field) (string, error) {
	if !field.IsFile {
		return field.Value, nil
	}
	data, err := ioutil.ReadFile(field.Value)
	if err != nil {
		return "", errors.Wrapf(err, "reading field value of '%s'", field.Name)
	}
	return string(data), nil
}
