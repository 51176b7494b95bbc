// Package config loads client settings from a config file, a .env file and
// RESTIE_* environment variables.
//
// Precedence, lowest first: built-in defaults, the config file, the
// environment (including variables loaded from .env).
package config

import (
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nojima/restie/logger"
	"github.com/pkg/errors"
)

const EnvPrefix = "RESTIE"

// Config holds everything a client can be configured with outside code.
type Config struct {
	BaseURL                     string            `mapstructure:"base_url" validate:"omitempty,url"`
	Timeout                     time.Duration     `mapstructure:"timeout" validate:"gte=0"`
	FollowRedirects             bool              `mapstructure:"follow_redirects"`
	MaxRedirects                int               `mapstructure:"max_redirects" validate:"gte=0"`
	UserAgent                   string            `mapstructure:"user_agent"`
	Serializers                 []string          `mapstructure:"serializers" validate:"dive,oneof=json xml yaml csv"`
	AlwaysMultipartFormData     bool              `mapstructure:"always_multipart"`
	MultipartBoundary           string            `mapstructure:"multipart_boundary" validate:"omitempty,max=70"`
	DateFormat                  string            `mapstructure:"date_format"`
	ThrowOnDeserializationError bool              `mapstructure:"throw_on_deserialization_error"`
	ThrowOnAnyError             bool              `mapstructure:"throw_on_any_error"`
	Headers                     map[string]string `mapstructure:"headers"`
	Auth                        AuthConfig        `mapstructure:"auth"`
	Logging                     logger.Config     `mapstructure:"logging"`
}

// AuthConfig selects one of the built-in authenticators.
type AuthConfig struct {
	Type     string `mapstructure:"type" validate:"omitempty,oneof=basic bearer apikey"`
	Username string `mapstructure:"username" validate:"required_if=Type basic"`
	Password string `mapstructure:"password"`
	Token    string `mapstructure:"token" validate:"required_if=Type bearer"`
	Name     string `mapstructure:"name" validate:"required_if=Type apikey"`
	Value    string `mapstructure:"value"`
	In       string `mapstructure:"in" validate:"omitempty,oneof=header query"`
}

// defaults lists every key with its default value. Keys must be known to
// viper for environment overrides to reach Unmarshal.
var defaults = map[string]any{
	"base_url":                       "",
	"timeout":                        "100s",
	"follow_redirects":               true,
	"max_redirects":                  10,
	"user_agent":                     "",
	"serializers":                    []string{"json", "xml"},
	"always_multipart":               false,
	"multipart_boundary":             "",
	"date_format":                    "",
	"throw_on_deserialization_error": false,
	"throw_on_any_error":             false,
	"headers":                        map[string]string{},
	"auth.type":                      "",
	"auth.username":                  "",
	"auth.password":                  "",
	"auth.token":                     "",
	"auth.name":                      "",
	"auth.value":                     "",
	"auth.in":                        "header",
	"logging.level":                  "warn",
	"logging.format":                 logger.FormatConsole,
	"logging.output":                 "stderr",
	"logging.no_color":               false,
}

var (
	validate *validator.Validate
	once     sync.Once
)

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
			if name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Validate checks field constraints and the nested logging config.
func (c *Config) Validate() error {
	if err := getValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			messages := make([]string, 0, len(verrs))
			for _, e := range verrs {
				messages = append(messages, e.Namespace()+": failed on '"+e.Tag()+"'")
			}
			return errors.Errorf("invalid configuration: %s", strings.Join(messages, "; "))
		}
		return errors.Wrap(err, "invalid configuration")
	}
	logging := c.Logging
	logging.ApplyDefaults()
	return logging.Validate()
}
