package restie

import (
	"io"
	"strings"
	"time"

	"github.com/nojima/restie/param"
	"github.com/nojima/restie/serializer"
	"github.com/pkg/errors"
)

// Request describes one call. Build it with NewRequest and the Add methods;
// a Request may be executed more than once.
type Request struct {
	Method   string
	Resource string
	Params   *param.Collection

	// Authenticator overrides the client authenticator for this request.
	Authenticator Authenticator

	// RootElement names an envelope key (or XML element) to unwrap before
	// mapping the response.
	RootElement string
	// XMLNamespace restricts XML element lookups during deserialization.
	XMLNamespace string
	// DateFormat overrides the client DateFormat for this request.
	DateFormat string
	// Timeout bounds this request on top of the client timeout.
	Timeout time.Duration

	AlwaysMultipartFormData bool

	// OnBeforeDeserialization runs after the response is read and before a
	// serializer is chosen. It may rewrite Response.ContentType.
	OnBeforeDeserialization func(*Response)

	err error
}

func NewRequest(method, resource string) *Request {
	return &Request{
		Method:   strings.ToUpper(method),
		Resource: resource,
		Params:   param.NewCollection(),
	}
}

// Err returns the first error recorded by a chained Add method.
func (r *Request) Err() error {
	return r.err
}

func (r *Request) add(p param.Parameter) *Request {
	if err := r.Params.Add(p); err != nil && r.err == nil {
		r.err = err
	}
	return r
}

// AddParameter adds p and reports configuration errors such as a second
// body.
func (r *Request) AddParameter(p param.Parameter) error {
	return r.Params.Add(p)
}

// AddOrUpdateParameter replaces a parameter with the same name and type.
func (r *Request) AddOrUpdateParameter(p param.Parameter) *Request {
	r.Params.AddOrUpdate(p)
	return r
}

// AddGetOrPostParameter adds a parameter that goes to the query string or
// the form body depending on the method.
func (r *Request) AddGetOrPostParameter(name string, value any) *Request {
	return r.add(param.NewGetOrPost(name, value))
}

func (r *Request) AddQueryParameter(name string, value any) *Request {
	return r.add(param.NewQuery(name, value))
}

func (r *Request) AddURLSegment(name string, value any) *Request {
	return r.add(param.NewURLSegment(name, value))
}

func (r *Request) AddHeader(name, value string) *Request {
	return r.add(param.NewHeader(name, value))
}

// AddObject flattens the exported fields of obj into parameters of type t.
func (r *Request) AddObject(obj any, t param.Type, include ...string) error {
	props, err := param.FromObject(obj, include...)
	if err != nil {
		return err
	}
	for _, prop := range props {
		p, err := param.New(prop.Name, prop.Value, t)
		if err != nil {
			return err
		}
		if !prop.Encode {
			p = p.WithoutEncoding()
		}
		if err := r.Params.Add(p); err != nil {
			return err
		}
	}
	return nil
}

// AddBody adds the request body. The format is taken from the value and
// content type: []byte is binary, a string is sent verbatim, anything else is
// serialized as the format contentType names (JSON when it names none).
func (r *Request) AddBody(value any, contentType string) error {
	p, err := param.NewBody(value, contentType, bodyFormat(value, contentType))
	if err != nil {
		return err
	}
	return r.Params.Add(p)
}

func (r *Request) AddJSONBody(value any) error {
	return r.Params.Add(param.NewJSONBody(value))
}

func (r *Request) AddXMLBody(value any) error {
	return r.Params.Add(param.NewXMLBody(value))
}

func (r *Request) AddStringBody(value, contentType string) error {
	return r.Params.Add(param.NewStringBody(value, contentType))
}

func bodyFormat(value any, contentType string) serializer.DataFormat {
	switch value.(type) {
	case []byte:
		return serializer.Binary
	case string, io.Reader, nil:
		return serializer.None
	}
	mediaType := serializer.MediaType(contentType)
	switch {
	case strings.HasSuffix(mediaType, "xml"):
		return serializer.XML
	case strings.HasSuffix(mediaType, "yaml"):
		return serializer.YAML
	case strings.HasSuffix(mediaType, "csv"):
		return serializer.CSV
	default:
		return serializer.JSON
	}
}

// AddFile adds the file at path as a multipart file part.
func (r *Request) AddFile(name, path, contentType string) error {
	p, err := param.FileFromPath(name, path, contentType)
	if err != nil {
		return err
	}
	return r.Params.Add(p)
}

func (r *Request) AddFileBytes(name string, data []byte, fileName, contentType string) error {
	p, err := param.FileFromBytes(name, data, fileName, contentType)
	if err != nil {
		return err
	}
	return r.Params.Add(p)
}

// AddFileReader adds a file part read from rd. The reader is consumed on the
// first send, so such a request cannot be retried.
func (r *Request) AddFileReader(name string, rd io.Reader, fileName, contentType string) error {
	p, err := param.FileFromReader(name, rd, fileName, contentType)
	if err != nil {
		return err
	}
	return r.Params.Add(p)
}

func (r *Request) validate() error {
	if r == nil {
		return errors.New("request is nil")
	}
	if r.err != nil {
		return errors.Wrap(r.err, "building request")
	}
	return nil
}
