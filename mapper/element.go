package mapper

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/html/charset"
)

// Element is a parsed XML element. Character data of the element itself is
// concatenated into Text; child elements keep document order.
type Element struct {
	Name     xml.Name
	Attr     []xml.Attr
	Children []*Element
	Text     string
}

// ParseElement reads one XML document and returns its root element. Encodings
// other than UTF-8 are decoded according to the XML declaration.
func ParseElement(r io.Reader) (*Element, error) {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charset.NewReaderLabel

	var stack []*Element
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			return nil, errors.New("xml: no root element")
		}
		if err != nil {
			return nil, errors.Wrap(err, "parsing xml")
		}
		switch t := token.(type) {
		case xml.StartElement:
			e := &Element{Name: t.Name, Attr: append([]xml.Attr(nil), t.Attr...)}
			if n := len(stack); n > 0 {
				parent := stack[n-1]
				parent.Children = append(parent.Children, e)
			}
			stack = append(stack, e)
		case xml.CharData:
			if n := len(stack); n > 0 {
				stack[n-1].Text += string(t)
			}
		case xml.EndElement:
			n := len(stack)
			e := stack[n-1]
			stack = stack[:n-1]
			if n == 1 {
				return e, nil
			}
		}
	}
}

// Value is the trimmed character data of the element.
func (e *Element) Value() string {
	return strings.TrimSpace(e.Text)
}

// IsEmpty reports whether the element carries neither attributes, children
// nor text.
func (e *Element) IsEmpty() bool {
	return len(e.Attr) == 0 && len(e.Children) == 0 && e.Value() == ""
}

// Attribute returns the value of the attribute with the given local name.
func (e *Element) Attribute(local string) (string, bool) {
	for _, a := range e.Attr {
		if a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// FindDescendant returns the first element in breadth-first order, starting
// with e itself, for which match returns true.
func (e *Element) FindDescendant(match func(*Element) bool) *Element {
	queue := []*Element{e}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if match(current) {
			return current
		}
		queue = append(queue, current.Children...)
	}
	return nil
}

// elementToTree converts an element into the generic tree used for
// untyped targets. Attributes and children become map entries; repeated
// child names collect into a list; text of a leaf becomes a string.
func elementToTree(e *Element) any {
	if len(e.Attr) == 0 && len(e.Children) == 0 {
		return e.Value()
	}
	out := make(map[string]any, len(e.Attr)+len(e.Children))
	for _, a := range e.Attr {
		if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
			continue
		}
		out[a.Name.Local] = a.Value
	}
	for _, c := range e.Children {
		v := elementToTree(c)
		existing, ok := out[c.Name.Local]
		if !ok {
			out[c.Name.Local] = v
			continue
		}
		if list, isList := existing.([]any); isList {
			out[c.Name.Local] = append(list, v)
		} else {
			out[c.Name.Local] = []any{existing, v}
		}
	}
	if text := e.Value(); text != "" {
		out["#text"] = text
	}
	return out
}
