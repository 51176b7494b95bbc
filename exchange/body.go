package exchange

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"mime/multipart"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nojima/restie/param"
	"github.com/nojima/restie/serializer"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"golang.org/x/text/encoding/htmlindex"
)

type BodyKind int

const (
	NoBody BodyKind = iota
	MultipartBody
	RawBody
	FormBody
)

func (k BodyKind) String() string {
	switch k {
	case MultipartBody:
		return "multipart"
	case RawBody:
		return "raw"
	case FormBody:
		return "urlencoded"
	default:
		return "none"
	}
}

const boundaryPrefix = "----------restie"

// Body is a request body ready to be attached to an *http.Request.
type Body struct {
	Kind        BodyKind
	Reader      io.ReadCloser
	Length      int64 // -1 when unknown
	ContentType string
	// GetBody returns a fresh copy of the body, or is nil when the body can
	// be read only once.
	GetBody func() (io.ReadCloser, error)
}

func emptyBody() *Body {
	return &Body{Kind: NoBody}
}

func bytesBody(kind BodyKind, data []byte, contentType string) *Body {
	return &Body{
		Kind:        kind,
		Reader:      ioutil.NopCloser(bytes.NewReader(data)),
		Length:      int64(len(data)),
		ContentType: contentType,
		GetBody: func() (io.ReadCloser, error) {
			return ioutil.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// BuildBody picks the body shape for a request and writes it. The shapes are
// tried in order:
//
//  1. multipart/form-data when there are files or AlwaysMultipartFormData is set
//  2. the raw body parameter
//  3. application/x-www-form-urlencoded from the form parameters of method
//  4. no body
func BuildBody(method string, params *param.Collection, registry *serializer.Registry, opts BodyOptions) (*Body, error) {
	files := params.Files()
	bodyParam, hasBody := params.Body()
	form := params.FormParameters(method)

	switch {
	case len(files) > 0 || opts.AlwaysMultipartFormData:
		return buildMultipartBody(method, params, registry, opts)
	case hasBody:
		return buildRawBody(bodyParam, registry)
	case len(form) > 0:
		return buildFormBody(form, opts), nil
	default:
		return emptyBody(), nil
	}
}

func buildFormBody(form []param.Parameter, opts BodyOptions) *Body {
	data := encodePairs(form, opts.encoder())
	return bytesBody(FormBody, []byte(data), serializer.ContentTypeFormURLEncoded)
}

// encodePairs joins name=value pairs with '&' in insertion order. A nil value
// yields the bare name.
func encodePairs(params []param.Parameter, encode func(string) string) string {
	pairs := make([]string, 0, len(params))
	for _, p := range params {
		name := p.Name
		if p.Encode {
			name = encode(name)
		}
		if p.Value == nil {
			pairs = append(pairs, name)
			continue
		}
		value := valueString(p.Value)
		if p.Encode {
			value = encode(value)
		}
		pairs = append(pairs, name+"="+value)
	}
	return strings.Join(pairs, "&")
}

func valueString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339)
	case fmt.Stringer:
		return x.String()
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}

// payload is the serialized form of a body parameter.
type payload struct {
	data        []byte
	reader      io.Reader
	contentType string
}

func serializeBody(p param.Parameter, registry *serializer.Registry) (payload, error) {
	contentType := p.ContentType
	var out payload

	switch v := p.Value.(type) {
	case nil:
		out.data = []byte{}
	case []byte:
		out.data = v
	case string:
		data, err := transcode(v, p.ContentEncoding)
		if err != nil {
			return payload{}, err
		}
		out.data = data
	case io.Reader:
		out.reader = v
	default:
		if !p.Format.IsSerializable() {
			return payload{}, errors.Errorf("cannot write %T as a %s body", p.Value, p.Format)
		}
		s, err := registry.Serializer(p.Format)
		if err != nil {
			return payload{}, err
		}
		data, err := s.Serialize(v)
		if err != nil {
			return payload{}, err
		}
		if p.ContentEncoding != "" {
			if data, err = transcode(string(data), p.ContentEncoding); err != nil {
				return payload{}, err
			}
		}
		out.data = data
	}

	if contentType == "" {
		switch {
		case p.Format.IsSerializable():
			s, err := registry.Serializer(p.Format)
			if err != nil {
				return payload{}, err
			}
			contentType = s.ContentType()
		case p.Format == serializer.Binary:
			contentType = serializer.ContentTypeOctetStream
		default:
			contentType = serializer.ContentTypePlainText
		}
	}
	if p.ContentEncoding != "" && serializer.Charset(contentType) == "" {
		contentType += "; charset=" + p.ContentEncoding
	}
	out.contentType = contentType
	return out, nil
}

// transcode encodes s in the named charset. Empty and UTF-8 charsets leave s
// unchanged.
func transcode(s, charset string) ([]byte, error) {
	if charset == "" || strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "utf8") {
		return []byte(s), nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, errors.Wrapf(err, "unknown content encoding %q", charset)
	}
	encoded, err := enc.NewEncoder().String(s)
	if err != nil {
		return nil, errors.Wrapf(err, "encoding body as %s", charset)
	}
	return []byte(encoded), nil
}

func buildRawBody(p param.Parameter, registry *serializer.Registry) (*Body, error) {
	pl, err := serializeBody(p, registry)
	if err != nil {
		return nil, err
	}
	if pl.reader == nil {
		return bytesBody(RawBody, pl.data, pl.contentType), nil
	}
	body := &Body{Kind: RawBody, Length: -1, ContentType: pl.contentType}
	switch r := pl.reader.(type) {
	case *bytes.Reader:
		body.Length = int64(r.Len())
	case *strings.Reader:
		body.Length = int64(r.Len())
	case *bytes.Buffer:
		body.Length = int64(r.Len())
	}
	if rc, ok := pl.reader.(io.ReadCloser); ok {
		body.Reader = rc
	} else {
		body.Reader = ioutil.NopCloser(pl.reader)
	}
	return body, nil
}

// part is one section of a multipart body, resolved before writing so that
// configuration errors surface before the body is read.
type part struct {
	header textproto.MIMEHeader
	data   []byte
	reader io.Reader
	file   *param.Parameter
}

func buildMultipartBody(method string, params *param.Collection, registry *serializer.Registry, opts BodyOptions) (*Body, error) {
	withForm := param.HasBody(method)
	var parts []part
	for _, p := range params.All() {
		switch {
		case p.Type == param.GetOrPost && withForm:
			h := make(textproto.MIMEHeader)
			h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"`, escapeQuotes(p.Name)))
			parts = append(parts, part{header: h, data: []byte(valueString(p.Value))})
		case p.Type == param.RequestBody:
			pl, err := serializeBody(p, registry)
			if err != nil {
				return nil, err
			}
			name := p.Name
			if name == "" {
				name = "body"
			}
			h := make(textproto.MIMEHeader)
			h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"`, escapeQuotes(name)))
			h.Set("Content-Type", pl.contentType)
			parts = append(parts, part{header: h, data: pl.data, reader: pl.reader})
		case p.Type == param.File:
			file := p
			h := make(textproto.MIMEHeader)
			h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
				escapeQuotes(p.Name), escapeQuotes(p.FileName)))
			contentType := p.ContentType
			if contentType == "" {
				contentType = serializer.ContentTypeOctetStream
			}
			h.Set("Content-Type", contentType)
			parts = append(parts, part{header: h, file: &file})
		}
	}

	boundary := opts.MultipartBoundary
	if boundary == "" {
		boundary = boundaryPrefix + uuid.NewString()
	}

	if opts.BufferMultipart {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		if err := mw.SetBoundary(boundary); err != nil {
			return nil, errors.Wrap(err, "setting multipart boundary")
		}
		if err := writeParts(mw, parts); err != nil {
			return nil, err
		}
		return bytesBody(MultipartBody, buf.Bytes(), mw.FormDataContentType()), nil
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	if err := mw.SetBoundary(boundary); err != nil {
		return nil, errors.Wrap(err, "setting multipart boundary")
	}
	go func() {
		pw.CloseWithError(writeParts(mw, parts))
	}()
	return &Body{
		Kind:        MultipartBody,
		Reader:      pr,
		Length:      -1,
		ContentType: mw.FormDataContentType(),
	}, nil
}

func writeParts(mw *multipart.Writer, parts []part) error {
	for _, p := range parts {
		w, err := mw.CreatePart(p.header)
		if err != nil {
			return errors.Wrap(err, "writing multipart header")
		}
		if err := writePart(w, p); err != nil {
			return err
		}
	}
	if err := mw.Close(); err != nil {
		return errors.Wrap(err, "closing multipart body")
	}
	return nil
}

func writePart(w io.Writer, p part) error {
	switch {
	case p.file != nil:
		rc, err := p.file.Open()
		if err != nil {
			return errors.Wrapf(err, "opening file '%s'", p.file.Name)
		}
		defer rc.Close()
		if _, err := io.Copy(w, rc); err != nil {
			return errors.Wrapf(err, "writing file '%s'", p.file.Name)
		}
	case p.reader != nil:
		if _, err := io.Copy(w, p.reader); err != nil {
			return errors.Wrap(err, "writing body part")
		}
	default:
		if _, err := w.Write(p.data); err != nil {
			return errors.Wrap(err, "writing multipart field")
		}
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
