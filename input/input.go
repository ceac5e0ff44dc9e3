package input

import (
	"github.com/HexmosTech/openai-go/endpoint"
	"github.com/HexmosTech/openai-go/request"
)

type Input struct {
	Method       request.Method
	Endpoint     endpoint.Endpoint
	EndpointName string
	Parameters   []Field
	Header       Header
	Body         Body
}

type Header struct {
	Fields []Field
}

type BodyType int

const (
	EmptyBody BodyType = iota
	JSONBody
	FormBody
	RawBody
)

type Body struct {
	BodyType      BodyType
	Fields        []Field
	RawJSONFields []Field // used only when BodyType == JSONBody
	Files         []Field // used only when BodyType == FormBody
	Raw           []byte  // used only when BodyType == RawBody
}

type Field struct {
	Name   string
	Value  string
	IsFile bool
}

type Options struct {
	Form      bool
	ReadStdin bool
}
