package input

import (
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/goccy/go-json"
	"github.com/nojima/restie"
	"github.com/nojima/restie/param"
	"github.com/pkg/errors"
)

// NewRequest builds the client request described by in. Values of
// "name=@path" items are read from their files here.
func (in *Input) NewRequest() (*restie.Request, error) {
	req := restie.NewRequest(in.Method, in.URL.String())
	req.AlwaysMultipartFormData = in.Multipart

	var contentType string
	members := map[string]any{}
	for _, item := range in.Items {
		value, err := item.value()
		if err != nil {
			return nil, err
		}
		switch item.Target {
		case param.Query:
			req.AddQueryParameter(item.Name, value)
		case param.HTTPHeader:
			if strings.EqualFold(item.Name, "Content-Type") {
				contentType = value
			}
			req.AddHeader(item.Name, value)
		case param.GetOrPost:
			if in.Body == JSONBody {
				members[item.Name] = value
			} else {
				req.AddGetOrPostParameter(item.Name, value)
			}
		case param.RequestBody:
			var v any
			if err := json.Unmarshal([]byte(value), &v); err != nil {
				return nil, errors.Wrapf(err, "parsing JSON value of '%s'", item.Name)
			}
			members[item.Name] = v
		case param.File:
			if err := req.AddFile(item.Name, item.Value, ""); err != nil {
				return nil, err
			}
		default:
			return nil, errors.Errorf("unexpected target for '%s': %v", item.Name, item.Target)
		}
	}

	switch in.Body {
	case JSONBody:
		if err := req.AddJSONBody(members); err != nil {
			return nil, err
		}
	case RawBody:
		if contentType == "" {
			contentType = mimetype.Detect(in.Raw).String()
		}
		if err := req.AddBody(in.Raw, contentType); err != nil {
			return nil, err
		}
	}
	if err := req.Err(); err != nil {
		return nil, err
	}
	return req, nil
}

// value returns the item value, reading it from a file for "name=@path".
// File items keep their path, which the request opens when it is sent.
func (item Item) value() (string, error) {
	if !item.FromFile || item.Target == param.File {
		return item.Value, nil
	}
	data, err := os.ReadFile(item.Value)
	if err != nil {
		return "", errors.Wrapf(err, "reading field value of '%s'", item.Name)
	}
	return string(data), nil
}
