package exchange

import (
	"net/http"

	"github.com/pkg/errors"
)

func BuildHTTPClient(options *Options) (*http.Client, error) {
	checkRedirect := func(req *http.Request, via []*http.Request) error {
		// Do not follow redirects
		return http.ErrUseLastResponse
	}
	if options.FollowRedirects {
		checkRedirect = nil
		if options.MaxRedirects > 0 {
			limit := options.MaxRedirects
			checkRedirect = func(req *http.Request, via []*http.Request) error {
				if len(via) >= limit {
					return errors.Errorf("stopped after %d redirects", limit)
				}
				return nil
			}
		}
	}

	client := http.Client{
		CheckRedirect: checkRedirect,
		Timeout:       options.Timeout,
		Jar:           options.CookieJar,
	}

	if options.Transport == nil {
		client.Transport = http.DefaultTransport.(*http.Transport).Clone()
	} else {
		client.Transport = options.Transport
	}
	return &client, nil
}
