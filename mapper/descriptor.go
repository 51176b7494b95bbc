package mapper

import (
	"encoding/xml"
	"reflect"
	"strings"
	"sync"
)

// field describes how one struct field is matched against source keys.
type field struct {
	index  []int
	goName string
	rename string
	typ    reflect.Type

	attr    bool
	content bool
	items   bool

	candidates []string
	loose      map[string]bool
}

type typeInfo struct {
	fields []*field
	items  *field
}

var (
	descriptors sync.Map // reflect.Type -> *typeInfo
	xmlNameType = reflect.TypeOf(xml.Name{})
)

// describe returns the cached field table of a struct type.
func describe(t reflect.Type) *typeInfo {
	if cached, ok := descriptors.Load(t); ok {
		return cached.(*typeInfo)
	}
	info := &typeInfo{}
	for _, f := range collectFields(t, nil, map[reflect.Type]bool{}) {
		if f.items && info.items == nil {
			info.items = f
		}
		info.fields = append(info.fields, f)
	}
	actual, _ := descriptors.LoadOrStore(t, info)
	return actual.(*typeInfo)
}

func collectFields(t reflect.Type, parent []int, visiting map[reflect.Type]bool) []*field {
	if visiting[t] {
		return nil
	}
	visiting[t] = true
	defer delete(visiting, t)

	var fields []*field
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		index := append(append([]int(nil), parent...), i)
		tag, hasTag := lookupTag(sf)
		if tag.skip {
			continue
		}

		if sf.Anonymous && !hasTag {
			ft := sf.Type
			if ft.Kind() == reflect.Ptr {
				if sf.PkgPath != "" {
					continue
				}
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				fields = append(fields, collectFields(ft, index, visiting)...)
				continue
			}
		}
		if sf.PkgPath != "" {
			continue
		}
		switch sf.Type.Kind() {
		case reflect.Func, reflect.Chan, reflect.UnsafePointer:
			continue
		}
		if sf.Type == xmlNameType {
			continue
		}

		f := &field{
			index:   index,
			goName:  sf.Name,
			rename:  tag.name,
			typ:     sf.Type,
			attr:    tag.attr,
			content: tag.content,
			items:   tag.items,
		}
		var names []string
		names = append(names, sf.Name)
		if tag.name != "" {
			names = append(names, tag.name)
		}
		names = append(names, NameVariants(sf.Name)...)
		names = append(names, NameVariants(tag.name)...)
		f.candidates = unique(names)
		f.loose = make(map[string]bool, 2)
		f.loose[looseName(sf.Name)] = true
		if tag.name != "" {
			f.loose[looseName(tag.name)] = true
		}
		fields = append(fields, f)
	}
	return fields
}

type fieldTag struct {
	name    string
	skip    bool
	attr    bool
	content bool
	items   bool
}

// lookupTag reads the `rest` tag and falls back to the json, xml and yaml
// tags so that types written for the standard encoders map without extra
// annotations.
func lookupTag(sf reflect.StructField) (fieldTag, bool) {
	if tag, ok := sf.Tag.Lookup("rest"); ok {
		return parseTag(tag), true
	}
	var out fieldTag
	found := false
	for _, key := range []string{"json", "xml", "yaml"} {
		tag, ok := sf.Tag.Lookup(key)
		if !ok {
			continue
		}
		found = true
		parsed := parseTag(tag)
		if key == "xml" {
			parsed.name = xmlLocalName(parsed.name)
		}
		if parsed.skip {
			return parsed, true
		}
		if out.name == "" {
			out.name = parsed.name
		}
		out.attr = out.attr || parsed.attr
		out.content = out.content || parsed.content
	}
	return out, found
}

func parseTag(tag string) fieldTag {
	if tag == "-" {
		return fieldTag{skip: true}
	}
	parts := strings.Split(tag, ",")
	out := fieldTag{name: parts[0]}
	for _, opt := range parts[1:] {
		switch opt {
		case "attr", "attribute":
			out.attr = true
		case "content", "chardata":
			out.content = true
		case "items":
			out.items = true
		}
	}
	return out
}

// xmlLocalName strips the namespace and parent path of an encoding/xml name
// such as "urn:x a>b".
func xmlLocalName(name string) string {
	if i := strings.LastIndex(name, ">"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, " "); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// WireField is the name a struct field is written under, used by encoders
// that lay out values by column.
type WireField struct {
	Name  string
	Index []int
	Type  reflect.Type
}

// WireFields returns the serialized name of each mapped field of t in
// declaration order.
func WireFields(t reflect.Type) []WireField {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	info := describe(t)
	out := make([]WireField, 0, len(info.fields))
	for _, f := range info.fields {
		if f.items {
			continue
		}
		name := f.rename
		if name == "" {
			name = f.goName
		}
		out = append(out, WireField{Name: name, Index: f.index, Type: f.typ})
	}
	return out
}
