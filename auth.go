package restie

import (
	"context"
	"encoding/base64"

	"github.com/nojima/restie/param"
)

// Authenticator adds credentials to a request before it is built. r is a
// per-build copy whose Params may be modified freely; the caller's Request is
// never touched.
type Authenticator interface {
	Authenticate(ctx context.Context, c *Client, r *Request) error
}

type AuthenticatorFunc func(ctx context.Context, c *Client, r *Request) error

func (f AuthenticatorFunc) Authenticate(ctx context.Context, c *Client, r *Request) error {
	return f(ctx, c, r)
}

type HTTPBasicAuthenticator struct {
	Username string
	Password string
}

func (a HTTPBasicAuthenticator) Authenticate(_ context.Context, _ *Client, r *Request) error {
	token := base64.StdEncoding.EncodeToString([]byte(a.Username + ":" + a.Password))
	r.AddOrUpdateParameter(param.NewHeader("Authorization", "Basic "+token))
	return nil
}

type BearerAuthenticator struct {
	Token string
	// Prefix defaults to "Bearer".
	Prefix string
}

func (a BearerAuthenticator) Authenticate(_ context.Context, _ *Client, r *Request) error {
	prefix := a.Prefix
	if prefix == "" {
		prefix = "Bearer"
	}
	r.AddOrUpdateParameter(param.NewHeader("Authorization", prefix+" "+a.Token))
	return nil
}

// APIKeyAuthenticator sends a key as a header, or as a query parameter when
// InQuery is set.
type APIKeyAuthenticator struct {
	Name    string
	Value   string
	InQuery bool
}

func (a APIKeyAuthenticator) Authenticate(_ context.Context, _ *Client, r *Request) error {
	if a.InQuery {
		r.AddOrUpdateParameter(param.NewQuery(a.Name, a.Value))
	} else {
		r.AddOrUpdateParameter(param.NewHeader(a.Name, a.Value))
	}
	return nil
}
