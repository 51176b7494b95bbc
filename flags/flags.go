package flags

import (
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/nojima/restie/input"
	"github.com/nojima/restie/output"
	"github.com/pborman/getopt"
	"github.com/pkg/errors"
)

var reNumber = regexp.MustCompile(`^[0-9.]+$`)

type FlagSet interface {
	Args() []string
	PrintUsage(w io.Writer)
}

// ClientOptions are the flags that configure the HTTP client.
type ClientOptions struct {
	Timeout         time.Duration
	FollowRedirects bool
	Auth            string
	ConfigFile      string
	Debug           bool
}

type OptionSet struct {
	InputOptions  input.Options
	ClientOptions ClientOptions
	OutputOptions output.Options
	PrintVersion  bool
	PrintLicenses bool
}

type terminalInfo struct {
	stdinIsTerminal  bool
	stdoutIsTerminal bool
}

func Parse(args []string) ([]string, FlagSet, *OptionSet, error) {
	return parse(args, terminalInfo{
		stdinIsTerminal:  isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()),
		stdoutIsTerminal: isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()),
	})
}

func parse(args []string, terminalInfo terminalInfo) ([]string, FlagSet, *OptionSet, error) {
	inputOptions := input.Options{}
	outputOptions := output.Options{}
	clientOptions := ClientOptions{}
	var ignoreStdin, verbose, printVersion, printLicenses bool
	printFlag := "\000" // "\000" is a special value that indicates user did not specified --print
	timeout := "30s"

	flagSet := getopt.New()
	flagSet.SetParameters("[METHOD] URL [REQUEST_ITEM [REQUEST_ITEM ...]]")
	flagSet.BoolVarLong(&inputOptions.JSON, "json", 'j', "data items are serialized as JSON (default)")
	flagSet.BoolVarLong(&inputOptions.Form, "form", 'f', "data items are serialized as application/x-www-form-urlencoded")
	flagSet.BoolVarLong(&inputOptions.Multipart, "multipart", 0, "always send data items as multipart/form-data")
	flagSet.StringVarLong(&printFlag, "print", 'p', "specifies what the output should contain (HBhb)")
	flagSet.BoolVarLong(&verbose, "verbose", 'v', "print the request as well as the response (same as --print HBhb)")
	flagSet.BoolVarLong(&ignoreStdin, "ignore-stdin", 0, "do not attempt to read stdin")
	flagSet.StringVarLong(&timeout, "timeout", 0, "Timeout seconds that you allow the whole operation to take")
	flagSet.BoolVarLong(&clientOptions.FollowRedirects, "follow", 'F', "follow 30x Location redirects")
	flagSet.StringVarLong(&clientOptions.Auth, "auth", 'a', "username and password for basic authentication (USER[:PASS])")
	flagSet.StringVarLong(&clientOptions.ConfigFile, "config", 0, "read client settings from FILE")
	flagSet.BoolVarLong(&clientOptions.Debug, "debug", 0, "log client activity to stderr")
	flagSet.BoolVarLong(&outputOptions.Download, "download", 'd', "download the response body to a file")
	flagSet.StringVarLong(&outputOptions.OutputFile, "output", 'o', "save the response body to FILE")
	flagSet.BoolVarLong(&outputOptions.Overwrite, "overwrite", 0, "overwrite an existing download file")
	flagSet.BoolVarLong(&printVersion, "version", 0, "print version and exit")
	flagSet.BoolVarLong(&printLicenses, "licenses", 0, "print licenses of the dependencies and exit")
	if err := flagSet.Getopt(args, nil); err != nil {
		return nil, flagSet, nil, errors.Wrap(err, "parsing flags")
	}

	// Check stdin
	if !ignoreStdin && !terminalInfo.stdinIsTerminal {
		inputOptions.ReadStdin = true
	}

	// Parse --print
	if verbose && printFlag == "\000" {
		printFlag = "HBhb"
	}
	if err := parsePrintFlag(printFlag, terminalInfo.stdoutIsTerminal, &outputOptions); err != nil {
		return nil, flagSet, nil, err
	}

	// Parse --timeout
	d, err := parseDurationOrSeconds(timeout)
	if err != nil {
		return nil, flagSet, nil, err
	}
	clientOptions.Timeout = d

	// Color and formatting
	outputOptions.EnableColor = terminalInfo.stdoutIsTerminal
	outputOptions.EnableFormat = terminalInfo.stdoutIsTerminal

	optionSet := &OptionSet{
		InputOptions:  inputOptions,
		ClientOptions: clientOptions,
		OutputOptions: outputOptions,
		PrintVersion:  printVersion,
		PrintLicenses: printLicenses,
	}
	return flagSet.Args(), flagSet, optionSet, nil
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

// Credentials splits --auth into a user name and a password. The password is
// read from the terminal when the flag carries none.
func (o *ClientOptions) Credentials() (string, string, error) {
	if o.Auth == "" {
		return "", "", nil
	}
	user, password, found := strings.Cut(o.Auth, ":")
	if found {
		return user, password, nil
	}
	password, err := askPassword()
	if err != nil {
		return "", "", err
	}
	return user, password, nil
}
