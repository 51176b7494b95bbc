package mapper

import (
	"reflect"
	"strings"
)

func (m *Mapper) inNamespace(e *Element) bool {
	return m.opts.Namespace == "" || e.Name.Space == m.opts.Namespace
}

// children returns the child elements visible under the configured
// namespace.
func (m *Mapper) children(e *Element) []*Element {
	if m.opts.Namespace == "" {
		return e.Children
	}
	out := make([]*Element, 0, len(e.Children))
	for _, c := range e.Children {
		if m.inNamespace(c) {
			out = append(out, c)
		}
	}
	return out
}

func (m *Mapper) unwrapElement(e *Element, root string) *Element {
	names := NameVariants(root)
	loose := looseName(root)
	found := e.FindDescendant(func(c *Element) bool {
		if !m.inNamespace(c) {
			return false
		}
		for _, n := range names {
			if c.Name.Local == n {
				return true
			}
		}
		return looseName(c.Name.Local) == loose
	})
	if found == nil {
		return e
	}
	return found
}

func (m *Mapper) childElement(e *Element, f *field) *Element {
	children := m.children(e)
	for _, name := range f.candidates {
		for _, c := range children {
			if c.Name.Local == name {
				return c
			}
		}
	}
	for _, c := range children {
		if f.loose[looseName(c.Name.Local)] {
			return c
		}
	}
	return nil
}

func (m *Mapper) attribute(e *Element, f *field) (string, bool) {
	for _, name := range f.candidates {
		if v, ok := e.Attribute(name); ok {
			return v, true
		}
	}
	for _, a := range e.Attr {
		if f.loose[looseName(a.Name.Local)] {
			return a.Value, true
		}
	}
	return "", false
}

// inlineItems collects the children of e named after the element type of
// a slice field, for lists written without a wrapping container element.
func (m *Mapper) inlineItems(e *Element, t reflect.Type) []*Element {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Slice || t.Elem().Kind() == reflect.Uint8 {
		return nil
	}
	item := t.Elem()
	for item.Kind() == reflect.Ptr {
		item = item.Elem()
	}
	if item.Name() == "" {
		return nil
	}
	loose := looseName(item.Name())
	var out []*Element
	for _, c := range m.children(e) {
		if looseName(c.Name.Local) == loose {
			out = append(out, c)
		}
	}
	return out
}

// assignElementFields maps the fields of a struct from an element. Fields
// tagged as attributes read attributes, content fields read the text, and
// the rest prefer a child element and fall back to an attribute of the
// same name.
func (m *Mapper) assignElementFields(dst reflect.Value, info *typeInfo, e *Element, path string) error {
	for _, f := range info.fields {
		if f.items {
			continue
		}
		fieldPath := path + "." + f.goName
		var src any
		switch {
		case f.content:
			src = e.Text
			if len(e.Children) > 0 {
				src = strings.TrimSpace(e.Text)
			}
		case f.attr:
			v, ok := m.attribute(e, f)
			if !ok {
				continue
			}
			src = v
		default:
			if c := m.childElement(e, f); c != nil {
				src = c
			} else if items := m.inlineItems(e, f.typ); len(items) > 0 {
				src = &Element{Name: e.Name, Children: items}
			} else if v, ok := m.attribute(e, f); ok {
				src = v
			} else {
				continue
			}
		}
		if err := m.assign(fieldFor(dst, f.index), src, fieldPath); err != nil {
			return err
		}
	}
	return nil
}
