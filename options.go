package restie

import (
	"net/http"
	"net/url"
	"time"

	"github.com/nojima/restie/exchange"
	"github.com/nojima/restie/logger"
	"github.com/nojima/restie/mapper"
	"github.com/nojima/restie/serializer"
	"github.com/pkg/errors"
)

const DefaultTimeout = 100 * time.Second

// Options configures a Client. The zero value is usable.
type Options struct {
	// BaseURL is prepended to every request resource that is not absolute.
	BaseURL string
	Timeout time.Duration
	// DisableRedirects makes the client return 3xx responses as they are.
	DisableRedirects bool
	// MaxRedirects caps the redirect chain. Zero keeps the net/http limit.
	MaxRedirects int
	Transport    http.RoundTripper
	CookieJar    http.CookieJar
	UserAgent    string

	Authenticator Authenticator
	// Serializers adjusts the registry, which holds JSON and XML by default.
	Serializers []serializer.Option

	AlwaysMultipartFormData bool
	MultipartBoundary       string
	BufferMultipart         bool
	// Encode escapes query and form names and values. Defaults to
	// url.QueryEscape.
	Encode func(string) string

	DateFormat string
	Culture    mapper.Culture
	Location   *time.Location

	ThrowOnDeserializationError bool
	// ThrowOnAnyError turns transport failures, non-2xx statuses and
	// deserialization failures into returned errors.
	ThrowOnAnyError bool

	Logger *logger.Logger
}

// ApplyDefaults fills in unset options.
func (o *Options) ApplyDefaults() {
	if o.Timeout == 0 {
		o.Timeout = DefaultTimeout
	}
	if o.UserAgent == "" {
		o.UserAgent = exchange.DefaultUserAgent
	}
	if o.Culture.DecimalSeparator == "" {
		o.Culture = mapper.InvariantCulture
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Logger == nil {
		o.Logger = logger.Nop()
	}
}

func (o *Options) Validate() error {
	if o.BaseURL != "" {
		u, err := url.Parse(o.BaseURL)
		if err != nil {
			return errors.Wrapf(err, "invalid base URL '%s'", o.BaseURL)
		}
		if u.Scheme == "" || u.Host == "" {
			return errors.Errorf("base URL must be absolute: %s", o.BaseURL)
		}
	}
	if o.Timeout < 0 {
		return errors.Errorf("timeout must not be negative: %s", o.Timeout)
	}
	if o.MaxRedirects < 0 {
		return errors.Errorf("max redirects must not be negative: %d", o.MaxRedirects)
	}
	return nil
}

func (o *Options) httpOptions() *exchange.Options {
	return &exchange.Options{
		Timeout:         o.Timeout,
		FollowRedirects: !o.DisableRedirects,
		MaxRedirects:    o.MaxRedirects,
		Transport:       o.Transport,
		CookieJar:       o.CookieJar,
	}
}
