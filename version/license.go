package version

import (
	"fmt"
	"io"
)

type License struct {
	ModuleName  string
	LicenseName string
	Link        string
}

var Licenses = []License{
	{
		ModuleName:  "openai-go",
		LicenseName: "MIT License",
		Link:        "https://github.com/HexmosTech/openai-go/blob/main/LICENSE",
	},
	{
		ModuleName:  "Go",
		LicenseName: "BSD License",
		Link:        "https://golang.org/LICENSE",
	},
	{
		ModuleName:  "aurora",
		LicenseName: "WTFPL",
		Link:        "https://github.com/logrusorgru/aurora/blob/master/LICENSE",
	},
	{
		ModuleName:  "go-isatty",
		LicenseName: "MIT License",
		Link:        "https://github.com/mattn/go-isatty/blob/master/LICENSE",
	},
	{
		ModuleName:  "getopt",
		LicenseName: "BSD License",
		Link:        "https://github.com/pborman/getopt/blob/master/LICENSE",
	},
	{
		ModuleName:  "errors",
		LicenseName: "BSD License",
		Link:        "https://github.com/pkg/errors/blob/master/LICENSE",
	},
	{
		ModuleName:  "bytefmt",
		LicenseName: "Apache License",
		Link:        "https://github.com/cloudfoundry/bytefmt/blob/master/LICENSE",
	},
	{
		ModuleName:  "zap",
		LicenseName: "MIT License",
		Link:        "https://github.com/uber-go/zap/blob/master/LICENSE",
	},
	{
		ModuleName:  "uuid",
		LicenseName: "BSD License",
		Link:        "https://github.com/google/uuid/blob/master/LICENSE",
	},
	{
		ModuleName:  "segmentio/encoding",
		LicenseName: "MIT License",
		Link:        "https://github.com/segmentio/encoding/blob/master/LICENSE",
	},
	{
		ModuleName:  "gjson",
		LicenseName: "MIT License",
		Link:        "https://github.com/tidwall/gjson/blob/master/LICENSE",
	},
	{
		ModuleName:  "sjson",
		LicenseName: "MIT License",
		Link:        "https://github.com/tidwall/sjson/blob/master/LICENSE",
	},
	{
		ModuleName:  "pretty",
		LicenseName: "MIT License",
		Link:        "https://github.com/tidwall/pretty/blob/master/LICENSE",
	},
	{
		ModuleName:  "yaml",
		LicenseName: "Apache License / MIT License",
		Link:        "https://github.com/go-yaml/yaml/blob/v3/LICENSE",
	},
	{
		ModuleName:  "godotenv",
		LicenseName: "MIT License",
		Link:        "https://github.com/joho/godotenv/blob/main/LICENCE",
	},
	{
		ModuleName:  "keyring",
		LicenseName: "MIT License",
		Link:        "https://github.com/99designs/keyring/blob/master/LICENSE",
	},
	{
		ModuleName:  "x/net",
		LicenseName: "BSD License",
		Link:        "https://cs.opensource.google/go/x/net/+/master:LICENSE",
	},
	{
		ModuleName:  "x/term",
		LicenseName: "BSD License",
		Link:        "https://cs.opensource.google/go/x/term/+/master:LICENSE",
	},
}

func PrintLicenses(w io.Writer) {
	for _, license := range Licenses {
		fmt.Fprintf(w, "%s:\n  %s\n  %s\n\n",
			license.ModuleName,
			license.LicenseName,
			license.Link,
		)
	}
}
