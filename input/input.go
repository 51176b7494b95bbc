// Package input turns httpie-style command line arguments into a client
// request.
package input

import (
	"net/url"

	"github.com/nojima/restie/param"
)

// Input is a parsed command line. Items keep the order they were given in.
type Input struct {
	Method string
	URL    *url.URL
	Items  []Item
	Body   BodyKind
	// Raw is the body read from stdin when Body is RawBody.
	Raw []byte
	// Multipart forces multipart/form-data for form bodies.
	Multipart bool
}

type BodyKind int

const (
	EmptyBody BodyKind = iota
	JSONBody
	FormBody
	RawBody
)

func (k BodyKind) String() string {
	switch k {
	case EmptyBody:
		return "empty"
	case JSONBody:
		return "json"
	case FormBody:
		return "form"
	case RawBody:
		return "raw"
	default:
		return "unknown"
	}
}

// Item is one request item such as "name=value" or "X-Header:value". Target
// tells where the value ends up:
//
//	name=value    GetOrPost    JSON member or form field
//	name:=json    RequestBody  JSON member taken verbatim
//	name==value   Query
//	Name:value    HTTPHeader
//	name@path     File         uploaded file, Value is the path
//
// FromFile marks a "name=@path" value that is read from path when the
// request is built.
type Item struct {
	Target   param.Type
	Name     string
	Value    string
	FromFile bool
}

type Options struct {
	JSON      bool
	Form      bool
	Multipart bool
	ReadStdin bool
}
