package output

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"mime"
	"net/http"
	"sort"
	"strings"

	"github.com/HexmosTech/openai-go/request"
	"github.com/logrusorgru/aurora"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/tidwall/pretty"
)

type PrettyPrinter struct {
	writer        io.Writer
	plain         Printer
	aurora        aurora.Aurora
	enableColor   bool
	headerPalette *HeaderPalette
}

type PrettyPrinterConfig struct {
	Writer      io.Writer
	EnableColor bool
}

type HeaderPalette struct {
	Method         aurora.Color
	URL            aurora.Color
	Proto          aurora.Color
	Status         aurora.Color
	FieldName      aurora.Color
	FieldValue     aurora.Color
	FieldSeparator aurora.Color
}

var defaultHeaderPalette = HeaderPalette{
	Method:         aurora.GreenFg | aurora.BoldFm,
	URL:            aurora.CyanFg | aurora.UnderlineFm,
	Proto:          aurora.BlueFg,
	Status:         aurora.BrownFg | aurora.BoldFm,
	FieldName:      aurora.WhiteFg,
	FieldValue:     aurora.CyanFg,
	FieldSeparator: aurora.WhiteFg,
}

var jsonOptions = &pretty.Options{Width: 80, Indent: "    "}

func NewPrettyPrinter(config PrettyPrinterConfig) Printer {
	return &PrettyPrinter{
		writer:        config.Writer,
		plain:         NewPlainPrinter(config.Writer),
		aurora:        aurora.NewAurora(config.EnableColor),
		enableColor:   config.EnableColor,
		headerPalette: &defaultHeaderPalette,
	}
}

func (p *PrettyPrinter) PrintStatusLine(proto string, status string, statusCode int) error {
	fmt.Fprintf(p.writer, "%s %s\n",
		p.aurora.Colorize(proto, p.headerPalette.Proto),
		p.aurora.Colorize(status, p.headerPalette.Status))
	return nil
}

func (p *PrettyPrinter) PrintRequestLine(spec *request.Spec) error {
	fmt.Fprintf(p.writer, "%s %s %s\n",
		p.aurora.Colorize(string(spec.Method), p.headerPalette.Method),
		p.aurora.Colorize(spec.URL.Redacted(), p.headerPalette.URL),
		p.aurora.Colorize("HTTP/1.1", p.headerPalette.Proto))
	return nil
}

func (p *PrettyPrinter) PrintHeader(header http.Header) error {
	var names []string
	for name := range header {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		values := header[name]
		for _, value := range values {
			fmt.Fprintf(p.writer, "%s%s %s\n",
				p.aurora.Colorize(name, p.headerPalette.FieldName),
				p.aurora.Colorize(":", p.headerPalette.FieldSeparator),
				p.aurora.Colorize(value, p.headerPalette.FieldValue))
		}
	}

	fmt.Fprintln(p.writer)
	return nil
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(contentType))
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// PrintBody indents JSON bodies and prints anything else as is.
func (p *PrettyPrinter) PrintBody(body io.Reader, contentType string) error {
	if !isJSON(contentType) {
		return p.plain.PrintBody(body, contentType)
	}

	data, err := ioutil.ReadAll(body)
	if err != nil {
		return errors.Wrap(err, "reading body")
	}
	if len(bytes.TrimSpace(data)) == 0 || !json.Valid(data) {
		return p.plain.PrintBody(bytes.NewReader(data), contentType)
	}

	formatted := pretty.PrettyOptions(data, jsonOptions)
	if p.enableColor {
		formatted = pretty.Color(formatted, nil)
	}
	if _, err := p.writer.Write(formatted); err != nil {
		return errors.Wrap(err, "printing JSON body")
	}
	return nil
}
