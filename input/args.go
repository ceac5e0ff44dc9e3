package input

import (
	"io"
	"io/ioutil"
	"strings"

	"github.com/HexmosTech/openai-go/endpoint"
	"github.com/HexmosTech/openai-go/request"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/http/httpguts"
)

type itemType int

const (
	unknownItem itemType = iota
	httpHeaderItem
	urlParameterItem
	dataFieldItem
	rawJSONFieldItem
	formFileFieldItem
)

type UsageError string

func (e *UsageError) Error() string {
	return string(*e)
}

func newUsageError(message string) error {
	u := UsageError(message)
	return errors.WithStack(&u)
}

type state struct {
	preferredBodyType BodyType
	stdinConsumed     bool
}

// ParseArgs parses "[METHOD] ENDPOINT [REQUEST_ITEM ...]". The first
// argument is taken as the method only when it names a supported method and
// an endpoint follows it.
func ParseArgs(args []string, stdin io.Reader, options *Options) (*Input, error) {
	var argMethod string
	var argEndpoint string
	var argItems []string
	switch len(args) {
	case 0:
		return nil, newUsageError("ENDPOINT is required")
	case 1:
		argEndpoint = args[0]
	default:
		if _, err := request.ParseMethod(args[0]); err == nil {
			argMethod = args[0]
			argEndpoint = args[1]
			argItems = args[2:]
		} else {
			argEndpoint = args[0]
			argItems = args[1:]
		}
	}

	in := Input{}
	state := state{}

	ep, err := endpoint.Parse(argEndpoint)
	if err != nil {
		return nil, newUsageError("Invalid ENDPOINT: " + err.Error())
	}
	in.Endpoint = ep
	in.EndpointName = argEndpoint

	if options.Form {
		state.preferredBodyType = FormBody
	} else {
		state.preferredBodyType = JSONBody
	}

	for _, arg := range argItems {
		if err := parseItem(arg, stdin, &state, &in); err != nil {
			return nil, err
		}
	}
	if options.ReadStdin && !state.stdinConsumed {
		if in.Body.BodyType != EmptyBody {
			return nil, errors.New("request body (from stdin) and request item (key=value) cannot be mixed")
		}
		raw, err := ioutil.ReadAll(stdin)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read stdin")
		}
		state.stdinConsumed = true
		if len(strings.TrimSpace(string(raw))) > 0 {
			in.Body.BodyType = RawBody
			in.Body.Raw = raw
		}
	}

	if argMethod != "" {
		method, err := request.ParseMethod(argMethod)
		if err != nil {
			return nil, newUsageError(err.Error())
		}
		in.Method = method
	} else {
		in.Method = guessMethod(&in)
	}

	return &in, nil
}

func guessMethod(in *Input) request.Method {
	if in.Body.BodyType == EmptyBody {
		return request.MethodGet
	} else {
		return request.MethodPost
	}
}

func parseItem(s string, stdin io.Reader, state *state, in *Input) error {
	itemType, name, value := splitItem(s)
	switch itemType {
	case dataFieldItem:
		in.Body.BodyType = state.preferredBodyType
		field, err := parseField(name, value, stdin, state)
		if err != nil {
			return err
		}
		in.Body.Fields = append(in.Body.Fields, field)
	case rawJSONFieldItem:
		if state.preferredBodyType != JSONBody {
			return errors.New("raw JSON field item cannot be used in non-JSON body")
		}
		in.Body.BodyType = JSONBody
		field, err := parseField(name, value, stdin, state)
		if err != nil {
			return err
		}
		if !field.IsFile && !json.Valid([]byte(field.Value)) {
			return errors.Errorf("invalid JSON at '%s': %s", name, field.Value)
		}
		in.Body.RawJSONFields = append(in.Body.RawJSONFields, field)
	case httpHeaderItem:
		if !httpguts.ValidHeaderFieldName(name) {
			return errors.Errorf("invalid header field name: %s", name)
		}
		field, err := parseField(name, value, stdin, state)
		if err != nil {
			return err
		}
		in.Header.Fields = append(in.Header.Fields, field)
	case urlParameterItem:
		field, err := parseField(name, value, stdin, state)
		if err != nil {
			return err
		}
		in.Parameters = append(in.Parameters, field)
	case formFileFieldItem:
		if state.preferredBodyType != FormBody {
			return errors.New("form file field item cannot be used in non-form body (perhaps you meant --form?)")
		}
		in.Body.BodyType = FormBody
		field, err := parseField(name, "@"+value, stdin, state)
		if err != nil {
			return err
		}
		in.Body.Files = append(in.Body.Files, field)
	default:
		return errors.Errorf("unknown request item: %s", s)
	}
	return nil
}

func splitItem(s string) (itemType, string, string) {
	for i, c := range s {
		switch c {
		case ':':
			if i+1 < len(s) && s[i+1] == '=' {
				return rawJSONFieldItem, s[:i], s[i+2:]
			} else {
				return httpHeaderItem, s[:i], s[i+1:]
			}
		case '=':
			if i+1 < len(s) && s[i+1] == '=' {
				return urlParameterItem, s[:i], s[i+2:]
			} else {
				return dataFieldItem, s[:i], s[i+1:]
			}
		case '@':
			return formFileFieldItem, s[:i], s[i+1:]
		}
	}
	return unknownItem, "", ""
}

func parseField(name, value string, stdin io.Reader, state *state) (Field, error) {
	if strings.HasPrefix(value, "@") {
		if value[1:] == "-" {
			b, err := ioutil.ReadAll(stdin)
			if err != nil {
				return Field{}, errors.Wrapf(err, "reading stdin for '%s'", name)
			}
			state.stdinConsumed = true
			return Field{Name: name, Value: string(b), IsFile: false}, nil
		} else {
			return Field{Name: name, Value: value[1:], IsFile: true}, nil
		}
	} else {
		return Field{Name: name, Value: value, IsFile: false}, nil
	}
}
