// Package serializer holds the codecs used for request bodies and response
// content, and the registry that picks one by format or content type.
package serializer

import (
	"github.com/nojima/restie/mapper"
	"github.com/pkg/errors"
)

// ErrNoSerializer is returned when a format has no registered serializer.
var ErrNoSerializer = errors.New("no serializer registered")

type Serializer interface {
	Format() DataFormat
	// ContentType is sent with serialized request bodies.
	ContentType() string
	// AcceptedContentTypes lists the response media types this serializer
	// reads. Entries of the form "*+suffix" match structured syntax
	// suffixes such as application/problem+json.
	AcceptedContentTypes() []string
	Serialize(v any) ([]byte, error)
	Deserialize(data []byte, v any, opts mapper.Options) error
}

type Factory func() Serializer

// Record is a registered serializer.
type Record struct {
	Format     DataFormat
	Serializer Serializer
}

// Matches reports whether the record reads the given Content-Type.
func (r Record) Matches(contentType string) bool {
	return matchContentType(r.Serializer.AcceptedContentTypes(), MediaType(contentType))
}

// Registry maps formats and content types to serializers. A Registry is
// immutable once built and safe for concurrent use.
type Registry struct {
	records []Record
}

type Option func(*[]Factory)

// UseSerializer registers a serializer, replacing any previous one of the
// same format.
func UseSerializer(f Factory) Option {
	return func(fs *[]Factory) {
		*fs = append(*fs, f)
	}
}

// UseOnly drops the default serializers and registers only the given
// ones.
func UseOnly(factories ...Factory) Option {
	return func(fs *[]Factory) {
		*fs = append([]Factory(nil), factories...)
	}
}

func DefaultFactories() []Factory {
	return []Factory{
		func() Serializer { return NewJSONSerializer() },
		func() Serializer { return NewXMLSerializer() },
	}
}

// NewRegistry builds a registry holding the JSON and XML serializers, then
// applies opts in order.
func NewRegistry(opts ...Option) *Registry {
	factories := DefaultFactories()
	for _, opt := range opts {
		opt(&factories)
	}
	r := &Registry{}
	for _, f := range factories {
		r.put(f())
	}
	return r
}

func (r *Registry) put(s Serializer) {
	for i, rec := range r.records {
		if rec.Format == s.Format() {
			r.records[i] = Record{Format: s.Format(), Serializer: s}
			return
		}
	}
	r.records = append(r.records, Record{Format: s.Format(), Serializer: s})
}

// With returns a copy of r with f registered.
func (r *Registry) With(f Factory) *Registry {
	cp := &Registry{records: append([]Record(nil), r.records...)}
	cp.put(f())
	return cp
}

func (r *Registry) Records() []Record {
	return append([]Record(nil), r.records...)
}

func (r *Registry) Serializer(format DataFormat) (Serializer, error) {
	for _, rec := range r.records {
		if rec.Format == format {
			return rec.Serializer, nil
		}
	}
	return nil, errors.Wrapf(ErrNoSerializer, "format %s", format)
}

// AcceptedContentTypes is the union of the concrete media types read by
// the registered serializers, in registration order.
func (r *Registry) AcceptedContentTypes() []string {
	seen := make(map[string]bool)
	var out []string
	for _, rec := range r.records {
		for _, ct := range rec.Serializer.AcceptedContentTypes() {
			if isWildcard(ct) || seen[ct] {
				continue
			}
			seen[ct] = true
			out = append(out, ct)
		}
	}
	return out
}

// ForContentType finds the serializer for a response Content-Type. Exact
// media type matches win over wildcard suffix matches.
func (r *Registry) ForContentType(contentType string) (Serializer, bool) {
	mt := MediaType(contentType)
	if mt == "" {
		return nil, false
	}
	for _, rec := range r.records {
		for _, a := range rec.Serializer.AcceptedContentTypes() {
			if !isWildcard(a) && a == mt {
				return rec.Serializer, true
			}
		}
	}
	for _, rec := range r.records {
		if rec.Matches(mt) {
			return rec.Serializer, true
		}
	}
	return nil, false
}

// ForResponse picks the serializer for a response, falling back to
// sniffing the body when the Content-Type matches nothing.
func (r *Registry) ForResponse(contentType string, body []byte) (Serializer, bool) {
	if s, ok := r.ForContentType(contentType); ok {
		return s, true
	}
	format := Detect(body)
	if format == None {
		return nil, false
	}
	s, err := r.Serializer(format)
	if err != nil {
		return nil, false
	}
	return s, true
}
