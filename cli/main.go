// Package cli implements the restie command: an httpie-style front end for
// the restie client.
package cli

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nojima/restie"
	"github.com/nojima/restie/config"
	"github.com/nojima/restie/flags"
	"github.com/nojima/restie/input"
	"github.com/nojima/restie/logger"
	"github.com/nojima/restie/output"
	"github.com/nojima/restie/version"
	"github.com/pkg/errors"
)

type environment struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	// configOptions are passed to config.Load after the --config file.
	configOptions []config.LoaderOption
}

func Main() error {
	args, flagSet, optionSet, err := flags.Parse(os.Args)
	if err != nil {
		if flagSet != nil {
			flagSet.PrintUsage(os.Stderr)
		}
		return err
	}

	env := &environment{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	err = run(context.Background(), args, optionSet, env)
	if _, ok := errors.Cause(err).(*input.UsageError); ok {
		flagSet.PrintUsage(os.Stderr)
	}
	return err
}

func run(ctx context.Context, args []string, optionSet *flags.OptionSet, env *environment) error {
	if optionSet.PrintVersion {
		fmt.Fprintf(env.stdout, "restie %s\n", version.Current())
		return nil
	}
	if optionSet.PrintLicenses {
		version.PrintLicenses(env.stdout)
		return nil
	}

	in, err := input.ParseArgs(args, env.stdin, &optionSet.InputOptions)
	if err != nil {
		return err
	}

	client, err := newClient(&optionSet.ClientOptions, env)
	if err != nil {
		return err
	}
	req, err := in.NewRequest()
	if err != nil {
		return err
	}

	outputOptions := optionSet.OutputOptions
	out := env.stdout
	if outputOptions.OutputFile != "" && !outputOptions.Download {
		file, err := os.Create(outputOptions.OutputFile)
		if err != nil {
			return errors.Wrapf(err, "creating '%s'", outputOptions.OutputFile)
		}
		defer file.Close()
		out = file
		outputOptions.EnableColor = false
	}
	if outputOptions.Download {
		// The body goes to a file, the rest of the output to stderr.
		out = env.stderr
	}

	writer := bufio.NewWriter(out)
	defer writer.Flush()
	printer := newPrinter(writer, &outputOptions, client)

	if outputOptions.PrintRequestHeader || outputOptions.PrintRequestBody {
		if err := printRequest(ctx, client, req, printer, writer, &outputOptions); err != nil {
			return err
		}
	}

	resp, err := client.Execute(ctx, req)
	if err != nil {
		return err
	}
	if resp.ResponseStatus != restie.StatusCompleted {
		return resp.ErrorException
	}

	if outputOptions.PrintResponseHeader || outputOptions.Download {
		if err := printer.PrintStatusLine(resp.Proto, resp.Status, resp.StatusCode); err != nil {
			return err
		}
		if err := printer.PrintHeader(resp.Header); err != nil {
			return err
		}
		writer.Flush()
	}
	if outputOptions.Download {
		fileWriter := output.NewFileWriter(resp.ResponseURI, &outputOptions)
		writer.Flush()
		return fileWriter.Download(resp.RawBytes, env.stderr)
	}
	if outputOptions.PrintResponseBody {
		if err := printer.PrintBody(strings.NewReader(resp.Content), resp.ContentType); err != nil {
			return err
		}
	}
	return nil
}

// newClient loads the configuration and lets the command line flags override
// it.
func newClient(options *flags.ClientOptions, env *environment) (*restie.Client, error) {
	var loaderOptions []config.LoaderOption
	if options.ConfigFile != "" {
		loaderOptions = append(loaderOptions, config.WithConfigFile(options.ConfigFile))
	}
	loaderOptions = append(loaderOptions, env.configOptions...)
	cfg, err := config.Load(loaderOptions...)
	if err != nil {
		return nil, err
	}

	cfg.Timeout = options.Timeout
	cfg.FollowRedirects = options.FollowRedirects
	if cfg.UserAgent == "" {
		cfg.UserAgent = version.Current().UserAgent()
	}
	if options.Auth != "" {
		username, password, err := options.Credentials()
		if err != nil {
			return nil, err
		}
		cfg.Auth = config.AuthConfig{Type: "basic", Username: username, Password: password}
	}
	if options.Debug {
		cfg.Logging.Level = "debug"
	}

	return restie.NewFromConfig(cfg, restie.Options{
		Logger: logger.NewWithWriter(cfg.Logging, env.stderr),
	})
}

func newPrinter(w io.Writer, options *output.Options, client *restie.Client) output.Printer {
	if options.EnableFormat {
		return output.NewPrettyPrinter(output.PrettyPrinterConfig{
			Writer:      w,
			EnableColor: options.EnableColor,
			Registry:    client.Registry(),
		})
	}
	return output.NewPlainPrinter(w)
}

// printRequest prints the request the client is about to send. It builds a
// separate *http.Request so the one sent later is not consumed.
func printRequest(ctx context.Context, client *restie.Client, req *restie.Request, printer output.Printer, w *bufio.Writer, options *output.Options) error {
	httpReq, err := client.BuildRequest(ctx, req)
	if err != nil {
		return err
	}
	var body []byte
	if httpReq.Body != nil {
		defer httpReq.Body.Close()
		body, err = io.ReadAll(httpReq.Body)
		if err != nil {
			return errors.Wrap(err, "reading request body")
		}
	}

	if options.PrintRequestHeader {
		if err := printer.PrintRequestLine(httpReq); err != nil {
			return err
		}
		header := httpReq.Header.Clone()
		if header.Get("Host") == "" {
			header.Set("Host", httpReq.URL.Host)
		}
		if err := printer.PrintHeader(header); err != nil {
			return err
		}
	}
	if options.PrintRequestBody && len(body) > 0 {
		if err := printer.PrintBody(bytes.NewReader(body), httpReq.Header.Get("Content-Type")); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	if options.PrintResponseHeader || options.PrintResponseBody {
		fmt.Fprintln(w)
	}
	return w.Flush()
}
