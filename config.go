package restie

import (
	"github.com/nojima/restie/config"
	"github.com/nojima/restie/logger"
	"github.com/nojima/restie/serializer"
	"github.com/pkg/errors"
)

// NewFromConfig builds a client from loaded configuration. Fields of extra
// that cannot be expressed in a config file, such as Transport, are kept.
func NewFromConfig(cfg *config.Config, extra Options) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts := extra
	opts.BaseURL = cfg.BaseURL
	opts.Timeout = cfg.Timeout
	opts.DisableRedirects = !cfg.FollowRedirects
	opts.MaxRedirects = cfg.MaxRedirects
	opts.UserAgent = cfg.UserAgent
	opts.AlwaysMultipartFormData = cfg.AlwaysMultipartFormData
	opts.MultipartBoundary = cfg.MultipartBoundary
	opts.DateFormat = cfg.DateFormat
	opts.ThrowOnDeserializationError = cfg.ThrowOnDeserializationError
	opts.ThrowOnAnyError = cfg.ThrowOnAnyError

	if len(cfg.Serializers) > 0 {
		factories := make([]serializer.Factory, 0, len(cfg.Serializers))
		for _, name := range cfg.Serializers {
			f, err := serializerFactory(name)
			if err != nil {
				return nil, err
			}
			factories = append(factories, f)
		}
		opts.Serializers = append([]serializer.Option{serializer.UseOnly(factories...)}, opts.Serializers...)
	}

	auth, err := authenticatorFromConfig(cfg.Auth)
	if err != nil {
		return nil, err
	}
	if auth != nil {
		opts.Authenticator = auth
	}
	if opts.Logger == nil {
		opts.Logger = logger.New(cfg.Logging)
	}

	client, err := New(opts)
	if err != nil {
		return nil, err
	}
	for name, value := range cfg.Headers {
		client.AddDefaultHeader(name, value)
	}
	return client, nil
}

func serializerFactory(name string) (serializer.Factory, error) {
	format, err := serializer.ParseDataFormat(name)
	if err != nil {
		return nil, err
	}
	switch format {
	case serializer.JSON:
		return func() serializer.Serializer { return serializer.NewJSONSerializer() }, nil
	case serializer.XML:
		return func() serializer.Serializer { return serializer.NewXMLSerializer() }, nil
	case serializer.YAML:
		return func() serializer.Serializer { return serializer.NewYAMLSerializer() }, nil
	case serializer.CSV:
		return func() serializer.Serializer { return serializer.NewCSVSerializer() }, nil
	default:
		return nil, errors.Errorf("format %s has no serializer", format)
	}
}

func authenticatorFromConfig(cfg config.AuthConfig) (Authenticator, error) {
	switch cfg.Type {
	case "":
		return nil, nil
	case "basic":
		return HTTPBasicAuthenticator{Username: cfg.Username, Password: cfg.Password}, nil
	case "bearer":
		return BearerAuthenticator{Token: cfg.Token}, nil
	case "apikey":
		return APIKeyAuthenticator{Name: cfg.Name, Value: cfg.Value, InQuery: cfg.In == "query"}, nil
	default:
		return nil, errors.Errorf("unknown authenticator type: %s", cfg.Type)
	}
}
