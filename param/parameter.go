package param

import (
	"fmt"
	"strings"

	"github.com/nojima/restie/serializer"
	"github.com/pkg/errors"
)

// Type tells which part of an HTTP request a parameter is destined for.
type Type int

const (
	// GetOrPost parameters go to the query string for methods without a
	// body and to the form body for POST, PUT and PATCH.
	GetOrPost Type = iota
	// Query parameters always go to the query string.
	Query
	// URLSegment parameters replace "{name}" placeholders in the resource.
	URLSegment
	// HTTPHeader parameters become request headers.
	HTTPHeader
	// RequestBody is the single raw body of a request.
	RequestBody
	// File parameters become file parts of a multipart body.
	File
)

func (t Type) String() string {
	switch t {
	case GetOrPost:
		return "GetOrPost"
	case Query:
		return "Query"
	case URLSegment:
		return "UrlSegment"
	case HTTPHeader:
		return "HttpHeader"
	case RequestBody:
		return "RequestBody"
	case File:
		return "File"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

var (
	ErrEmptyName     = errors.New("parameter name must not be empty")
	ErrBinaryValue   = errors.New("binary body requires a []byte value")
	ErrDuplicateBody = errors.New("request already has a body parameter")
)

// Parameter is a single named value destined for a specific part of a
// request. Parameters are values: the collection stores copies, so a
// parameter never changes after it has been added.
type Parameter struct {
	Name        string
	Value       any
	Type        Type
	Encode      bool
	ContentType string

	// Format and ContentEncoding are used by RequestBody parameters only.
	Format          serializer.DataFormat
	ContentEncoding string

	// FileName is used by File parameters only.
	FileName string
	source   *fileSource
}

func newNamed(name string, value any, t Type) (Parameter, error) {
	if name == "" {
		return Parameter{}, errors.Wrapf(ErrEmptyName, "creating %s parameter", t)
	}
	return Parameter{Name: name, Value: value, Type: t, Encode: true}, nil
}

func mustNamed(name string, value any, t Type) Parameter {
	p, err := newNamed(name, value, t)
	if err != nil {
		panic(err)
	}
	return p
}

// New creates a named parameter of the given type. It rejects RequestBody
// and File, which have their own constructors.
func New(name string, value any, t Type) (Parameter, error) {
	switch t {
	case RequestBody:
		return Parameter{}, errors.New("use NewBody to create a body parameter")
	case File:
		return Parameter{}, errors.New("use one of the File constructors to create a file parameter")
	}
	return newNamed(name, value, t)
}

// NewGetOrPost returns a GetOrPost parameter. It panics if name is empty.
func NewGetOrPost(name string, value any) Parameter {
	return mustNamed(name, value, GetOrPost)
}

// NewQuery returns a Query parameter. It panics if name is empty.
func NewQuery(name string, value any) Parameter {
	return mustNamed(name, value, Query)
}

// NewURLSegment returns a URLSegment parameter. It panics if name is empty.
func NewURLSegment(name string, value any) Parameter {
	return mustNamed(name, value, URLSegment)
}

// NewHeader returns an HTTPHeader parameter. It panics if name is empty.
func NewHeader(name string, value any) Parameter {
	return mustNamed(name, value, HTTPHeader)
}

// WithoutEncoding returns a copy of p that is written to the wire as is.
func (p Parameter) WithoutEncoding() Parameter {
	p.Encode = false
	return p
}

// WithContentType returns a copy of p with the content type replaced.
func (p Parameter) WithContentType(contentType string) Parameter {
	p.ContentType = contentType
	return p
}

// NewBody creates the RequestBody parameter. A Binary body must carry a
// []byte value; anything else is rejected here rather than when the body is
// written.
func NewBody(value any, contentType string, format serializer.DataFormat) (Parameter, error) {
	if format == serializer.Binary {
		if _, ok := value.([]byte); !ok {
			return Parameter{}, errors.Wrapf(ErrBinaryValue, "got %T", value)
		}
	}
	return Parameter{
		Value:       value,
		Type:        RequestBody,
		Encode:      true,
		ContentType: contentType,
		Format:      format,
	}, nil
}

// NewNamedBody is like NewBody but names the body. The name is used for the
// body part when the request ends up as multipart/form-data.
func NewNamedBody(name string, value any, contentType string, format serializer.DataFormat) (Parameter, error) {
	p, err := NewBody(value, contentType, format)
	if err != nil {
		return Parameter{}, err
	}
	p.Name = name
	return p, nil
}

// NewJSONBody returns a body that is serialized with the JSON serializer.
func NewJSONBody(value any) Parameter {
	return Parameter{Value: value, Type: RequestBody, Encode: true, Format: serializer.JSON}
}

// NewXMLBody returns a body that is serialized with the XML serializer.
func NewXMLBody(value any) Parameter {
	return Parameter{Value: value, Type: RequestBody, Encode: true, Format: serializer.XML}
}

// NewStringBody returns a body sent verbatim with the given content type.
func NewStringBody(value, contentType string) Parameter {
	return Parameter{Value: value, Type: RequestBody, Encode: true, ContentType: contentType}
}

// NewBinaryBody returns a body of raw bytes.
func NewBinaryBody(value []byte, contentType string) Parameter {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return Parameter{Value: value, Type: RequestBody, Encode: true, ContentType: contentType, Format: serializer.Binary}
}

// WithContentEncoding returns a copy of a body parameter whose string payload
// is transcoded to the named charset when written.
func (p Parameter) WithContentEncoding(charset string) Parameter {
	p.ContentEncoding = charset
	return p
}

// IsFile reports whether p is a file parameter.
func (p Parameter) IsFile() bool {
	return p.Type == File
}

// sameKey reports whether p and other would address the same slot.
func (p Parameter) sameKey(other Parameter) bool {
	if p.Type != other.Type {
		return false
	}
	if p.Type == RequestBody {
		return true
	}
	return strings.EqualFold(p.Name, other.Name)
}

func (p Parameter) String() string {
	switch p.Type {
	case RequestBody:
		return fmt.Sprintf("%s(%s)", p.Type, p.ContentType)
	case File:
		return fmt.Sprintf("%s(%s=%s)", p.Type, p.Name, p.FileName)
	default:
		return fmt.Sprintf("%s(%s=%v)", p.Type, p.Name, p.Value)
	}
}
