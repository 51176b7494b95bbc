package exchange

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/nojima/restie/param"
	"github.com/nojima/restie/serializer"
	"github.com/pkg/errors"
)

const DefaultUserAgent = "restie"

// Call is everything needed to turn a parameter collection into an
// *http.Request.
type Call struct {
	Method    string
	BaseURL   string
	Resource  string
	Params    *param.Collection
	Registry  *serializer.Registry
	Body      BodyOptions
	UserAgent string
}

func BuildHTTPRequest(ctx context.Context, call *Call) (*http.Request, error) {
	method := strings.ToUpper(call.Method)
	if method == "" {
		method = http.MethodGet
	}
	params := call.Params
	if params == nil {
		params = param.NewCollection()
	}
	registry := call.Registry
	if registry == nil {
		registry = serializer.NewRegistry()
	}

	body, err := BuildBody(method, params, registry, call.Body)
	if err != nil {
		return nil, err
	}

	query := params.QueryParameters(method)
	if body.Kind == RawBody {
		// A raw body leaves no room for form fields; send them in the query
		// string instead of dropping them.
		query = append(query, params.FormParameters(method)...)
	}
	u, err := buildURL(call.BaseURL, call.Resource, params.OfType(param.URLSegment), query, call.Body.encoder())
	if err != nil {
		closeBody(body)
		return nil, err
	}

	header := buildHTTPHeader(params.OfType(param.HTTPHeader))
	if header.Get("Content-Type") == "" && body.ContentType != "" {
		header.Set("Content-Type", body.ContentType)
	}
	if header.Get("Accept") == "" {
		if accepted := registry.AcceptedContentTypes(); len(accepted) > 0 {
			header.Set("Accept", strings.Join(accepted, ", "))
		}
	}
	if header.Get("User-Agent") == "" {
		userAgent := call.UserAgent
		if userAgent == "" {
			userAgent = DefaultUserAgent
		}
		header.Set("User-Agent", userAgent)
	}

	r, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		closeBody(body)
		return nil, errors.Wrap(err, "creating HTTP request")
	}
	r.Header = header
	if host := header.Get("Host"); host != "" {
		r.Host = host
	}
	switch {
	case body.Kind == NoBody:
	case body.Length == 0:
		closeBody(body)
		r.Body = http.NoBody
		r.GetBody = func() (io.ReadCloser, error) { return http.NoBody, nil }
	default:
		r.Body = body.Reader
		r.GetBody = body.GetBody
		if body.Length > 0 {
			r.ContentLength = body.Length
		}
	}
	return r, nil
}

func closeBody(body *Body) {
	if body != nil && body.Reader != nil {
		body.Reader.Close()
	}
}

// buildURL joins base and resource, substitutes "{name}" segments and
// appends the query parameters in order.
func buildURL(base, resource string, segments, query []param.Parameter, encode func(string) string) (*url.URL, error) {
	raw := joinURL(base, resource)
	if raw == "" {
		return nil, errors.New("request has no URL")
	}
	for _, s := range segments {
		value := valueString(s.Value)
		if s.Encode {
			value = url.PathEscape(value)
		}
		raw = strings.ReplaceAll(raw, "{"+s.Name+"}", value)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing URL '%s'", raw)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("URL must be absolute: %s", raw)
	}
	if len(query) > 0 {
		extra := encodePairs(query, encode)
		if u.RawQuery == "" {
			u.RawQuery = extra
		} else {
			u.RawQuery += "&" + extra
		}
	}
	return u, nil
}

func joinURL(base, resource string) string {
	switch {
	case resource == "":
		return base
	case base == "" || strings.Contains(resource, "://"):
		return resource
	default:
		return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(resource, "/")
	}
}

func buildHTTPHeader(params []param.Parameter) http.Header {
	header := make(http.Header)
	for _, p := range params {
		header.Add(p.Name, valueString(p.Value))
	}
	return header
}
