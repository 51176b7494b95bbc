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
		ModuleName:  "restie",
		LicenseName: "MIT License",
		Link:        "https://github.com/nojima/restie/blob/master/LICENSE",
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
		ModuleName:  "androiddnsfix",
		LicenseName: "MIT License",
		Link:        "https://github.com/mtibben/androiddnsfix/blob/master/LICENSE",
	},
	{
		ModuleName:  "zerolog",
		LicenseName: "MIT License",
		Link:        "https://github.com/rs/zerolog/blob/master/LICENSE",
	},
	{
		ModuleName:  "viper",
		LicenseName: "MIT License",
		Link:        "https://github.com/spf13/viper/blob/master/LICENSE",
	},
	{
		ModuleName:  "cast",
		LicenseName: "MIT License",
		Link:        "https://github.com/spf13/cast/blob/master/LICENSE",
	},
	{
		ModuleName:  "godotenv",
		LicenseName: "MIT License",
		Link:        "https://github.com/joho/godotenv/blob/main/LICENCE",
	},
	{
		ModuleName:  "validator",
		LicenseName: "MIT License",
		Link:        "https://github.com/go-playground/validator/blob/master/LICENSE",
	},
	{
		ModuleName:  "go-json",
		LicenseName: "MIT License",
		Link:        "https://github.com/goccy/go-json/blob/master/LICENSE",
	},
	{
		ModuleName:  "go-yaml",
		LicenseName: "MIT License",
		Link:        "https://github.com/goccy/go-yaml/blob/master/LICENSE",
	},
	{
		ModuleName:  "mimetype",
		LicenseName: "MIT License",
		Link:        "https://github.com/gabriel-vasile/mimetype/blob/master/LICENSE",
	},
	{
		ModuleName:  "uuid",
		LicenseName: "BSD License",
		Link:        "https://github.com/google/uuid/blob/master/LICENSE",
	},
	{
		ModuleName:  "chardet",
		LicenseName: "MIT License",
		Link:        "https://github.com/saintfish/chardet/blob/master/LICENSE",
	},
	{
		ModuleName:  "x/net, x/text, x/crypto",
		LicenseName: "BSD License",
		Link:        "https://cs.opensource.google/go/x/net/+/master:LICENSE",
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
