package exchange

import (
	"net/http"
	"net/url"
	"time"
)

// Options configures the *http.Client built by BuildHTTPClient.
type Options struct {
	Timeout         time.Duration
	FollowRedirects bool
	// MaxRedirects caps the redirect chain when FollowRedirects is set. Zero
	// keeps the net/http default of 10.
	MaxRedirects int
	Transport    http.RoundTripper
	CookieJar    http.CookieJar
}

// BodyOptions controls how request bodies are written.
type BodyOptions struct {
	AlwaysMultipartFormData bool
	// MultipartBoundary replaces the generated boundary.
	MultipartBoundary string
	// BufferMultipart writes multipart bodies into memory before sending so
	// that the length is known and the body can be replayed on redirects.
	BufferMultipart bool
	// Encode escapes names and values of query strings and urlencoded
	// bodies. Defaults to url.QueryEscape.
	Encode func(string) string
}

func (o BodyOptions) encoder() func(string) string {
	if o.Encode != nil {
		return o.Encode
	}
	return url.QueryEscape
}
