package flags

import (
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/HexmosTech/openai-go/config"
	"github.com/HexmosTech/openai-go/exchange"
	"github.com/HexmosTech/openai-go/input"
	"github.com/HexmosTech/openai-go/output"
	"github.com/mattn/go-isatty"
	"github.com/pborman/getopt"
	"github.com/pkg/errors"
)

var reNumber = regexp.MustCompile(`^[0-9.]+$`)

type OptionSet struct {
	InputOptions    input.Options
	ExchangeOptions exchange.Options
	OutputOptions   output.Options
	ConfigOptions   config.Options

	// Beta is sent as the OpenAI-Beta header of JSON requests.
	Beta string

	Offline       bool
	Debug         bool
	SaveKey       bool
	PrintVersion  bool
	PrintLicenses bool
}

type terminalInfo struct {
	stdinIsTerminal  bool
	stdoutIsTerminal bool
}

// Parse parses command line flags. args[0] is the program name. It
// returns the remaining positional arguments and a function printing usage.
func Parse(args []string) ([]string, func(io.Writer), *OptionSet, error) {
	return parse(args, terminalInfo{
		stdinIsTerminal:  isatty.IsTerminal(os.Stdin.Fd()),
		stdoutIsTerminal: isatty.IsTerminal(os.Stdout.Fd()),
	})
}

func parse(args []string, terminal terminalInfo) ([]string, func(io.Writer), *OptionSet, error) {
	inputOptions := input.Options{}
	outputOptions := output.Options{}
	exchangeOptions := exchange.Options{}
	configOptions := config.Options{}
	optionSet := &OptionSet{}
	var ignoreStdin bool
	printFlag := "\000" // "\000" is a special value that indicates user did not specified --print
	timeout := "30s"
	verify := "yes"

	flagSet := getopt.New()
	flagSet.SetParameters("[METHOD] ENDPOINT [REQUEST_ITEM [REQUEST_ITEM ...]]")
	flagSet.BoolVarLong(&inputOptions.Form, "form", 'f', "send a multipart/form-data body")
	flagSet.StringVarLong(&printFlag, "print", 'p', "specifies what the output should contain (HBhb)")
	flagSet.BoolVarLong(&ignoreStdin, "ignore-stdin", 0, "do not attempt to read stdin")
	flagSet.StringVarLong(&timeout, "timeout", 0, "timeout seconds that you allow the whole operation to take")
	flagSet.StringVarLong(&verify, "verify", 0, "verify the server's TLS certificate (yes/no)")
	flagSet.BoolVarLong(&exchangeOptions.ForceHTTP1, "http1", 0, "disable HTTP/2")
	flagSet.BoolVarLong(&exchangeOptions.FollowRedirects, "follow", 'F', "follow redirects")
	flagSet.BoolVarLong(&outputOptions.Download, "download", 'd', "save the response body to a file")
	flagSet.StringVarLong(&outputOptions.OutputFile, "output", 'o', "file to save the response body to")
	flagSet.BoolVarLong(&outputOptions.Overwrite, "overwrite", 0, "overwrite an existing output file")
	flagSet.BoolVarLong(&optionSet.Offline, "offline", 0, "build and print the request without sending it")
	flagSet.StringVarLong(&optionSet.Beta, "beta", 0, "value of the OpenAI-Beta header")
	flagSet.StringVarLong(&configOptions.Overrides.OrganizationID, "org", 0, "organization ID")
	flagSet.StringVarLong(&configOptions.Overrides.BaseURL, "base-url", 0, "base URL of an OpenAI-compatible host")
	flagSet.StringVarLong(&configOptions.Overrides.ProxyPath, "proxy-path", 0, "path prefix inserted before the API version")
	flagSet.StringVarLong(&configOptions.Overrides.Version, "api-version", 0, "API version path segment")
	flagSet.StringVarLong(&configOptions.Overrides.AuthHeader, "auth-header", 0, "credential header (authorization, api-key or a custom name)")
	flagSet.StringVarLong(&configOptions.Path, "config", 0, "path of the YAML configuration file")
	flagSet.StringVarLong(&configOptions.EnvFile, "env-file", 0, "path of a .env file")
	flagSet.BoolVarLong(&optionSet.Debug, "debug", 0, "log request construction to stderr")
	flagSet.BoolVarLong(&optionSet.SaveKey, "save-key", 0, "store the resolved API key in the system keyring")
	flagSet.BoolVarLong(&optionSet.PrintVersion, "version", 0, "print version and exit")
	flagSet.BoolVarLong(&optionSet.PrintLicenses, "licenses", 0, "print license information and exit")
	if err := flagSet.Getopt(args, nil); err != nil {
		return nil, nil, nil, errors.Wrap(err, "parsing flags")
	}

	// Check stdin
	if !ignoreStdin && !terminal.stdinIsTerminal {
		inputOptions.ReadStdin = true
	}

	// Parse --print
	if err := parsePrintFlag(printFlag, terminal.stdoutIsTerminal, &outputOptions); err != nil {
		return nil, nil, nil, err
	}

	// Parse --timeout
	d, err := parseDurationOrSeconds(timeout)
	if err != nil {
		return nil, nil, nil, err
	}
	exchangeOptions.Timeout = d

	// Parse --verify
	skipVerify, err := parseVerifyFlag(verify)
	if err != nil {
		return nil, nil, nil, err
	}
	exchangeOptions.SkipVerify = skipVerify

	// Color
	outputOptions.EnableColor = terminal.stdoutIsTerminal

	optionSet.InputOptions = inputOptions
	optionSet.ExchangeOptions = exchangeOptions
	optionSet.OutputOptions = outputOptions
	optionSet.ConfigOptions = configOptions
	return flagSet.Args(), flagSet.PrintUsage, optionSet, nil
}

func parsePrintFlag(printFlag string, stdoutIsTerminal bool, outputOptions *output.Options) error {
	if printFlag == "\000" {
		// --print is not specified
		if stdoutIsTerminal {
			outputOptions.PrintResponseHeader = true
			outputOptions.PrintResponseBody = true
		} else {
			outputOptions.PrintResponseBody = true
		}
	} else {
		for _, c := range printFlag {
			switch c {
			case 'H':
				outputOptions.PrintRequestHeader = true
			case 'B':
				outputOptions.PrintRequestBody = true
			case 'h':
				outputOptions.PrintResponseHeader = true
			case 'b':
				outputOptions.PrintResponseBody = true
			default:
				return errors.Errorf("Invalid char in --print value (must be consist of HBhb): %c", c)
			}
		}
	}
	return nil
}

func parseDurationOrSeconds(timeout string) (time.Duration, error) {
	if reNumber.MatchString(timeout) {
		timeout += "s"
	}
	d, err := time.ParseDuration(timeout)
	if err != nil {
		return time.Duration(0), errors.Errorf("Value of --timeout must be a number or duration string: %v", timeout)
	}
	return d, nil
}

func parseVerifyFlag(verify string) (skipVerify bool, err error) {
	switch strings.ToLower(verify) {
	case "yes", "true":
		return false, nil
	case "no", "false":
		return true, nil
	default:
		return false, errors.Errorf("Value of --verify must be yes or no: %v", verify)
	}
}
