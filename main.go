package openai

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/HexmosTech/openai-go/config"
	"github.com/HexmosTech/openai-go/exchange"
	"github.com/HexmosTech/openai-go/flags"
	"github.com/HexmosTech/openai-go/input"
	"github.com/HexmosTech/openai-go/output"
	"github.com/HexmosTech/openai-go/request"
	"github.com/HexmosTech/openai-go/version"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures Main. Zero values fall back to the process
// arguments, standard streams and the default transport.
type Options struct {
	// Transport is used to send requests when set.
	Transport http.RoundTripper

	Args   []string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func (o *Options) withDefaults() Options {
	r := *o
	if r.Args == nil {
		r.Args = os.Args
	}
	if r.Stdin == nil {
		r.Stdin = os.Stdin
	}
	if r.Stdout == nil {
		r.Stdout = os.Stdout
	}
	if r.Stderr == nil {
		r.Stderr = os.Stderr
	}
	return r
}

// Main runs the oai command line.
func Main(options *Options) error {
	o := options.withDefaults()

	// Parse flags
	args, usage, optionSet, err := flags.Parse(o.Args)
	if err != nil {
		return err
	}
	if optionSet.PrintVersion {
		fmt.Fprintf(o.Stdout, "openai-go %s\n", version.Current())
		return nil
	}
	if optionSet.PrintLicenses {
		version.PrintLicenses(o.Stdout)
		return nil
	}
	inputOptions := optionSet.InputOptions
	exchangeOptions := optionSet.ExchangeOptions
	exchangeOptions.Transport = o.Transport
	exchangeOptions.UserAgent = "openai-go/" + version.Current().String()
	outputOptions := optionSet.OutputOptions

	// Parse positional arguments
	in, err := input.ParseArgs(args, o.Stdin, &inputOptions)
	if _, ok := errors.Cause(err).(*input.UsageError); ok {
		usage(o.Stderr)
		return err
	}
	if err != nil {
		return err
	}

	// Resolve configuration
	conf, err := config.Load(&optionSet.ConfigOptions)
	if err != nil {
		return err
	}
	var prompt func() (string, error)
	if o.Stdin == os.Stdin && isatty.IsTerminal(os.Stdin.Fd()) {
		prompt = flags.AskAPIKey
	}
	if err := conf.ResolveAPIKey(prompt); err != nil {
		return err
	}
	if optionSet.SaveKey {
		if err := config.SaveAPIKey(conf.APIKey); err != nil {
			return err
		}
	}

	var logger *zap.Logger
	if optionSet.Debug {
		logger = newDebugLogger(o.Stderr)
		defer logger.Sync()
	}
	service, err := newServiceFromConfig(conf, exchangeOptions, optionSet.Debug, logger)
	if err != nil {
		return err
	}

	// Build request
	spec, err := buildRequest(service, in, optionSet.Beta)
	if err != nil {
		return err
	}

	writer := bufio.NewWriter(o.Stdout)
	defer writer.Flush()
	outputOptions.SecretHeaders = append(outputOptions.SecretHeaders, service.Configuration().Authorization.HeaderField())
	printer := output.NewPrinter(writer, &outputOptions)

	if optionSet.Offline {
		if !outputOptions.PrintRequestHeader && !outputOptions.PrintRequestBody {
			outputOptions.PrintRequestHeader = true
			outputOptions.PrintRequestBody = true
		}
		return output.PrintRequest(printer, spec, &outputOptions)
	}
	if err := output.PrintRequest(printer, spec, &outputOptions); err != nil {
		return err
	}
	writer.Flush()

	// Send request and receive response
	resp, err := service.Send(context.Background(), spec)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if outputOptions.Download {
		fileWriter := output.NewFileWriter(spec.URL.Path, &outputOptions, o.Stderr)
		if outputOptions.PrintResponseHeader {
			headerPrinter := output.NewPrinter(o.Stderr, &outputOptions)
			if err := headerPrinter.PrintStatusLine(resp.Proto, resp.Status, resp.StatusCode); err != nil {
				return err
			}
			if err := headerPrinter.PrintHeader(resp.Header); err != nil {
				return err
			}
		}
		return fileWriter.Download(resp)
	}
	return output.PrintResponse(printer, resp, &outputOptions)
}

func newDebugLogger(w io.Writer) *zap.Logger {
	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(w), zapcore.DebugLevel)
	return zap.New(core, zap.Development())
}

// newServiceFromConfig returns a default host Service unless conf points at
// another host, a proxy path, another version or a non-bearer credential.
func newServiceFromConfig(conf *config.Config, transport exchange.Options, debug bool, logger *zap.Logger) (*Service, error) {
	auth := conf.Authorization()
	override := (conf.BaseURL != "" && conf.BaseURL != DefaultBaseURL) ||
		conf.ProxyPath != "" ||
		(conf.Version != "" && conf.Version != DefaultVersion) ||
		auth.HeaderField() != request.AuthorizationHeader

	if !override {
		return NewService(&DefaultHostOptions{
			APIKey:         conf.APIKey,
			OrganizationID: conf.OrganizationID,
			Transport:      transport,
			Debug:          debug,
			Logger:         logger,
		})
	}

	baseURL := conf.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return NewOverrideService(&OverrideHostOptions{
		APIKey:         conf.APIKey,
		BaseURL:        baseURL,
		ProxyPath:      conf.ProxyPath,
		Version:        conf.Version,
		Authorization:  auth,
		OrganizationID: conf.OrganizationID,
		Transport:      transport,
		Debug:          debug,
		Logger:         logger,
	})
}

func buildRequest(service *Service, in *input.Input, beta string) (*request.Spec, error) {
	query, err := in.QueryItems()
	if err != nil {
		return nil, err
	}
	headers, err := in.ExtraHeaders()
	if err != nil {
		return nil, err
	}

	var opts []CallOption
	for _, item := range query {
		opts = append(opts, WithQuery(item.Name, item.Value))
	}
	if beta != "" {
		opts = append(opts, WithBeta(beta))
	}
	if len(headers) > 0 {
		opts = append(opts, WithHeaders(headers))
	}

	if in.Body.BodyType == input.FormBody {
		params, err := in.MultipartParams()
		if err != nil {
			return nil, err
		}
		return service.MultipartRequest(in.Endpoint, in.Method, params, opts...)
	}
	params, err := in.JSONParams()
	if err != nil {
		return nil, err
	}
	return service.Request(in.Endpoint, in.Method, params, opts...)
}
