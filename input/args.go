package input

import (
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/goccy/go-json"
	"github.com/nojima/restie/param"
	"github.com/pkg/errors"
)

var (
	reMethod     = regexp.MustCompile(`^[a-zA-Z]+$`)
	reHeaderName = regexp.MustCompile("^[-!#$%&'*+.^_|~a-zA-Z0-9]+$")
	reScheme     = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+-.]*://`)
)

// separators are tried at each position of an item, two-character ones
// first, and the first match splits the item.
var separators = []struct {
	token  string
	target param.Type
}{
	{":=", param.RequestBody},
	{"==", param.Query},
	{":", param.HTTPHeader},
	{"=", param.GetOrPost},
	{"@", param.File},
}

// UsageError is reported for command lines that cannot describe a request
// at all, so the caller can print usage.
type UsageError struct {
	message string
}

func (e *UsageError) Error() string {
	return e.message
}

func newUsageError(format string, args ...any) error {
	return errors.WithStack(&UsageError{message: fmt.Sprintf(format, args...)})
}

type parser struct {
	stdin     io.Reader
	stdinUsed bool
	// preferred is the body kind a plain "name=value" item selects.
	preferred BodyKind
	in        *Input
}

// ParseArgs parses "[METHOD] URL [ITEM...]". Without a METHOD, GET is used
// for requests without a body and POST otherwise.
func ParseArgs(args []string, stdin io.Reader, options *Options) (*Input, error) {
	method, rawURL, items, err := splitArgs(args)
	if err != nil {
		return nil, err
	}
	u, err := parseURL(rawURL)
	if err != nil {
		return nil, err
	}
	preferred, err := preferredBody(options)
	if err != nil {
		return nil, err
	}

	in := &Input{URL: u, Multipart: options.Multipart}
	p := parser{stdin: stdin, preferred: preferred, in: in}
	for _, arg := range items {
		if err := p.add(arg); err != nil {
			return nil, err
		}
	}
	if options.ReadStdin && !p.stdinUsed {
		if in.Body != EmptyBody {
			return nil, errors.New("request body (from stdin) and request item (key=value) cannot be mixed")
		}
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read stdin")
		}
		in.Body, in.Raw = RawBody, raw
	}
	if in.has(param.File) && in.has(param.RequestBody) {
		return nil, errors.New("raw JSON field item cannot be used together with file uploads")
	}

	switch {
	case method != "":
		in.Method = strings.ToUpper(method)
	case in.Body == EmptyBody:
		in.Method = "GET"
	default:
		in.Method = "POST"
	}
	return in, nil
}

func splitArgs(args []string) (method, rawURL string, items []string, err error) {
	switch {
	case len(args) == 0:
		return "", "", nil, newUsageError("URL is required")
	case len(args) == 1:
		return "", args[0], nil, nil
	case reMethod.MatchString(args[0]):
		return args[0], args[1], args[2:], nil
	default:
		return "", args[0], args[1:], nil
	}
}

func preferredBody(options *Options) (BodyKind, error) {
	if options.JSON && (options.Form || options.Multipart) {
		return EmptyBody, errors.New("You cannot specify both of --json and --form")
	}
	if options.Form || options.Multipart {
		return FormBody, nil
	}
	return JSONBody, nil
}

func parseURL(s string) (*url.URL, error) {
	// ex) :8080/hello or /hello
	if strings.HasPrefix(s, ":") || strings.HasPrefix(s, "/") {
		s = "localhost" + s
	}
	// ex) example.com/hello
	if !reScheme.MatchString(s) {
		s = "http://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return nil, newUsageError("Invalid URL: %s", s)
	}
	u.Host = strings.TrimSuffix(u.Host, ":")
	if u.Path == "" {
		u.Path = "/"
	}
	return u, nil
}

func (p *parser) add(arg string) error {
	item, ok := splitItem(arg)
	if !ok {
		return errors.Errorf("unknown request item: %s", arg)
	}
	in := p.in

	switch item.Target {
	case param.GetOrPost:
		in.Body = p.preferred
	case param.RequestBody:
		if p.preferred != JSONBody || in.Body == FormBody {
			return errors.New("raw JSON field item cannot be used in non-JSON body")
		}
		in.Body = JSONBody
	case param.HTTPHeader:
		if !reHeaderName.MatchString(item.Name) {
			return errors.Errorf("invalid header field name: %s", item.Name)
		}
	case param.File:
		// A file upload switches the whole body to multipart form data.
		if in.Body == RawBody {
			return errors.New("form file field item cannot be used with a raw body")
		}
		in.Body, p.preferred = FormBody, FormBody
		in.Items = append(in.Items, item)
		return nil
	}

	if err := p.resolve(&item); err != nil {
		return err
	}
	if item.Target == param.RequestBody && !item.FromFile && !json.Valid([]byte(item.Value)) {
		return errors.Errorf("invalid JSON at '%s': %s", item.Name, item.Value)
	}
	in.Items = append(in.Items, item)
	return nil
}

func splitItem(s string) (Item, bool) {
	for i := range s {
		for _, sep := range separators {
			if strings.HasPrefix(s[i:], sep.token) {
				return Item{Target: sep.target, Name: s[:i], Value: s[i+len(sep.token):]}, true
			}
		}
	}
	return Item{}, false
}

// resolve handles "@path" values. "@-" reads the value from stdin and a
// leading `\@` is kept as a literal "@".
func (p *parser) resolve(item *Item) error {
	switch {
	case strings.HasPrefix(item.Value, `\@`):
		item.Value = item.Value[1:]
	case item.Value == "@-":
		if p.stdinUsed {
			return errors.Errorf("stdin has already been consumed before '%s'", item.Name)
		}
		b, err := io.ReadAll(p.stdin)
		if err != nil {
			return errors.Wrapf(err, "reading stdin for '%s'", item.Name)
		}
		p.stdinUsed = true
		item.Value = string(b)
	case strings.HasPrefix(item.Value, "@"):
		item.Value, item.FromFile = item.Value[1:], true
	}
	return nil
}

func (in *Input) has(target param.Type) bool {
	for _, item := range in.Items {
		if item.Target == target {
			return true
		}
	}
	return false
}
