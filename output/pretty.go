package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/logrusorgru/aurora"
	"github.com/nojima/restie/serializer"
	"github.com/pkg/errors"
)

type PrettyPrinter struct {
	writer        io.Writer
	plain         Printer
	aurora        aurora.Aurora
	registry      *serializer.Registry
	headerPalette *HeaderPalette
	jsonPalette   *JSONPalette
}

type PrettyPrinterConfig struct {
	Writer      io.Writer
	EnableColor bool
	// Registry picks the body formatter. Defaults to the JSON and XML
	// registry.
	Registry *serializer.Registry
}

type HeaderPalette struct {
	Method         aurora.Color
	URL            aurora.Color
	Proto          aurora.Color
	SuccessStatus  aurora.Color
	RedirectStatus aurora.Color
	ErrorStatus    aurora.Color
	FieldName      aurora.Color
	FieldValue     aurora.Color
	FieldSeparator aurora.Color
}

var defaultHeaderPalette = HeaderPalette{
	Method:         aurora.WhiteFg | aurora.BoldFm,
	URL:            aurora.GreenFg | aurora.BoldFm,
	Proto:          aurora.BlueFg,
	SuccessStatus:  aurora.GreenFg | aurora.BoldFm,
	RedirectStatus: aurora.BrownFg | aurora.BoldFm,
	ErrorStatus:    aurora.RedFg | aurora.BoldFm,
	FieldName:      aurora.WhiteFg,
	FieldValue:     aurora.CyanFg,
	FieldSeparator: aurora.WhiteFg,
}

type JSONPalette struct {
	Name    aurora.Color
	String  aurora.Color
	Number  aurora.Color
	Boolean aurora.Color
	Null    aurora.Color
	Symbol  aurora.Color
}

var defaultJSONPalette = JSONPalette{
	Name:    aurora.BlueFg,
	String:  aurora.BrownFg,
	Number:  aurora.CyanFg,
	Boolean: aurora.RedFg | aurora.BoldFm,
	Null:    aurora.RedFg | aurora.BoldFm,
	Symbol:  aurora.WhiteFg,
}

func NewPrettyPrinter(config PrettyPrinterConfig) Printer {
	registry := config.Registry
	if registry == nil {
		registry = serializer.NewRegistry()
	}
	return &PrettyPrinter{
		writer:        config.Writer,
		plain:         NewPlainPrinter(config.Writer),
		aurora:        aurora.NewAurora(config.EnableColor),
		registry:      registry,
		headerPalette: &defaultHeaderPalette,
		jsonPalette:   &defaultJSONPalette,
	}
}

func (p *PrettyPrinter) PrintStatusLine(proto string, status string, statusCode int) error {
	fmt.Fprintf(p.writer, "%s %s\n",
		p.aurora.Colorize(proto, p.headerPalette.Proto),
		p.aurora.Colorize(status, p.statusColor(statusCode)),
	)
	return nil
}

func (p *PrettyPrinter) statusColor(statusCode int) aurora.Color {
	switch {
	case statusCode < 300:
		return p.headerPalette.SuccessStatus
	case statusCode < 400:
		return p.headerPalette.RedirectStatus
	default:
		return p.headerPalette.ErrorStatus
	}
}

func (p *PrettyPrinter) PrintRequestLine(request *http.Request) error {
	fmt.Fprintf(p.writer, "%s %s %s\n",
		p.aurora.Colorize(request.Method, p.headerPalette.Method),
		p.aurora.Colorize(request.URL, p.headerPalette.URL),
		p.aurora.Colorize(request.Proto, p.headerPalette.Proto),
	)
	return nil
}

func (p *PrettyPrinter) PrintHeader(header http.Header) error {
	for _, name := range sortedNames(header) {
		for _, value := range header[name] {
			fmt.Fprintf(p.writer, "%s%s %s\n",
				p.aurora.Colorize(name, p.headerPalette.FieldName),
				p.aurora.Colorize(":", p.headerPalette.FieldSeparator),
				p.aurora.Colorize(value, p.headerPalette.FieldValue),
			)
		}
	}
	fmt.Fprintln(p.writer)
	return nil
}

func isJSON(contentType string) bool {
	s, ok := serializer.NewRegistry().ForContentType(contentType)
	return ok && s.Format() == serializer.JSON
}

// PrintBody pretty prints JSON bodies and copies everything else as is. A
// truncated JSON document is printed as far as it goes and a body that turns
// out not to be JSON is printed verbatim. Without a content type the body is
// sniffed.
func (p *PrettyPrinter) PrintBody(body io.Reader, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return errors.Wrap(err, "reading response body")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		_, err := p.writer.Write(data)
		return err
	}
	var s serializer.Serializer
	var ok bool
	if contentType == "" {
		s, ok = p.registry.ForResponse(contentType, data)
	} else {
		s, ok = p.registry.ForContentType(contentType)
	}
	if !ok || s.Format() != serializer.JSON {
		return p.plain.PrintBody(bytes.NewReader(data), contentType)
	}

	var buf bytes.Buffer
	jw := &jsonWriter{
		out:     &buf,
		decoder: json.NewDecoder(bytes.NewReader(data)),
		aurora:  p.aurora,
		palette: p.jsonPalette,
	}
	jw.decoder.UseNumber()
	err = jw.value(0)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return p.plain.PrintBody(bytes.NewReader(data), contentType)
	}
	buf.WriteString("\n")
	_, err = p.writer.Write(buf.Bytes())
	return err
}

type jsonWriter struct {
	out     *bytes.Buffer
	decoder *json.Decoder
	aurora  aurora.Aurora
	palette *JSONPalette
}

func (j *jsonWriter) indent(depth int) string {
	return strings.Repeat("    ", depth)
}

func (j *jsonWriter) write(s any, color aurora.Color) {
	fmt.Fprint(j.out, j.aurora.Colorize(s, color))
}

func (j *jsonWriter) value(depth int) error {
	token, err := j.decoder.Token()
	if err != nil {
		return err
	}
	return j.token(token, depth)
}

func (j *jsonWriter) token(token json.Token, depth int) error {
	switch t := token.(type) {
	case json.Delim:
		switch t {
		case '{':
			return j.container(depth, '{', '}', true)
		case '[':
			return j.container(depth, '[', ']', false)
		}
		return errors.Errorf("unexpected delimiter: %v", t)
	case string:
		j.write(quote(t), j.palette.String)
	case json.Number:
		j.write(t.String(), j.palette.Number)
	case bool:
		j.write(t, j.palette.Boolean)
	case nil:
		j.write("null", j.palette.Null)
	default:
		return errors.Errorf("unexpected token: %v", t)
	}
	return nil
}

// container prints an object or an array whose opening delimiter has
// already been read.
func (j *jsonWriter) container(depth int, open, close json.Delim, isObject bool) error {
	next, err := j.decoder.Token()
	if err != nil {
		j.write(open.String(), j.palette.Symbol)
		j.out.WriteString("\n" + j.indent(depth+1))
		return err
	}
	if next == close {
		j.write(open.String()+close.String(), j.palette.Symbol)
		return nil
	}

	j.write(open.String(), j.palette.Symbol)
	j.out.WriteString("\n" + j.indent(depth+1))
	for {
		if isObject {
			key, ok := next.(string)
			if !ok {
				return errors.Errorf("object key must be a string: %v", next)
			}
			j.write(quote(key), j.palette.Name)
			j.write(":", j.palette.Symbol)
			j.out.WriteString(" ")
			if err := j.value(depth + 1); err != nil {
				return err
			}
		} else if err := j.token(next, depth+1); err != nil {
			return err
		}

		next, err = j.decoder.Token()
		if err != nil {
			j.write(",", j.palette.Symbol)
			j.out.WriteString("\n" + j.indent(depth+1))
			return err
		}
		if next == close {
			j.out.WriteString("\n" + j.indent(depth))
			j.write(close.String(), j.palette.Symbol)
			return nil
		}
		j.write(",", j.palette.Symbol)
		j.out.WriteString("\n" + j.indent(depth+1))
	}
}

func quote(s string) string {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}
