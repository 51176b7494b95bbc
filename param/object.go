package param

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// Property is a flattened name/value pair produced from an object. Value is
// either a string or nil; nil marks an empty array whose key must still be
// sent.
type Property struct {
	Name   string
	Value  any
	Encode bool
}

type arrayStyle int

const (
	commaSeparated arrayStyle = iota
	arrayParameters
)

type objectField struct {
	index  []int
	goName string
	name   string
	format string
	style  arrayStyle
	encode bool
}

var objectFields sync.Map // reflect.Type -> []objectField

// FromObject flattens the exported fields of a struct into properties. Nil
// pointers, nil interfaces and nil slices are skipped. When include is not
// empty only fields whose Go name or tag name appears in it are used.
//
// Fields are configured with the `param` tag:
//
//	Ids   []int     `param:"ids,array"`          // ids[]=1&ids[]=2
//	Tags  []string  `param:"tags"`               // tags=a,b
//	Price float64   `param:"price,format=%.2f"`  // price=9.50
//	When  time.Time `param:"when,format=2006-01-02"`
//	Raw   string    `param:"raw,noencode"`
//	Skip  string    `param:"-"`
//
// format= must be the last option since its value may contain commas.
func FromObject(obj any, include ...string) ([]Property, error) {
	v := reflect.ValueOf(obj)
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, errors.Errorf("cannot take parameters from %T: not a struct", obj)
	}

	var props []Property
	for _, f := range describeObject(v.Type()) {
		if len(include) > 0 && !included(f, include) {
			continue
		}
		fv, ok := fieldByIndex(v, f.index)
		if !ok {
			continue
		}
		fieldProps, err := f.properties(fv)
		if err != nil {
			return nil, err
		}
		props = append(props, fieldProps...)
	}
	return props, nil
}

func included(f objectField, include []string) bool {
	for _, name := range include {
		if name == f.goName || name == f.name {
			return true
		}
	}
	return false
}

// fieldByIndex is reflect.Value.FieldByIndex without the panic on nil
// embedded pointers.
func fieldByIndex(v reflect.Value, index []int) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Ptr {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, true
}

func (f objectField) properties(v reflect.Value) ([]Property, error) {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}

	if (v.Kind() == reflect.Slice || v.Kind() == reflect.Array) && v.Type().Elem().Kind() != reflect.Uint8 {
		if v.Kind() == reflect.Slice && v.IsNil() {
			return nil, nil
		}
		if v.Len() == 0 {
			return []Property{{Name: f.name, Value: nil, Encode: f.encode}}, nil
		}
		values := make([]string, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			s, err := formatValue(v.Index(i), f.format)
			if err != nil {
				return nil, errors.Wrapf(err, "formatting element %d of %s", i, f.goName)
			}
			values = append(values, s)
		}
		if f.style == arrayParameters {
			props := make([]Property, 0, len(values))
			for _, s := range values {
				props = append(props, Property{Name: f.name + "[]", Value: s, Encode: f.encode})
			}
			return props, nil
		}
		return []Property{{Name: f.name, Value: strings.Join(values, ","), Encode: f.encode}}, nil
	}

	s, err := formatValue(v, f.format)
	if err != nil {
		return nil, errors.Wrapf(err, "formatting %s", f.goName)
	}
	return []Property{{Name: f.name, Value: s, Encode: f.encode}}, nil
}

func formatValue(v reflect.Value, format string) (string, error) {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return "", nil
		}
		v = v.Elem()
	}
	value := v.Interface()
	if t, ok := value.(time.Time); ok {
		if format == "" {
			format = time.RFC3339
		}
		return t.Format(format), nil
	}
	if format != "" {
		return fmt.Sprintf(format, value), nil
	}
	if b, ok := value.([]byte); ok {
		return string(b), nil
	}
	s, err := cast.ToStringE(value)
	if err != nil {
		return fmt.Sprint(value), nil
	}
	return s, nil
}

func describeObject(t reflect.Type) []objectField {
	if cached, ok := objectFields.Load(t); ok {
		return cached.([]objectField)
	}
	fields := collectObjectFields(t, nil)
	actual, _ := objectFields.LoadOrStore(t, fields)
	return actual.([]objectField)
}

func collectObjectFields(t reflect.Type, parent []int) []objectField {
	var fields []objectField
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		index := append(append([]int(nil), parent...), i)
		tag := sf.Tag.Get("param")
		if tag == "-" {
			continue
		}

		if sf.Anonymous && tag == "" {
			ft := sf.Type
			if ft.Kind() == reflect.Ptr {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				fields = append(fields, collectObjectFields(ft, index)...)
				continue
			}
		}
		if sf.PkgPath != "" {
			continue
		}

		f := objectField{index: index, goName: sf.Name, name: sf.Name, encode: true}
		name, rest, _ := strings.Cut(tag, ",")
		if name != "" {
			f.name = name
		}
		for rest != "" {
			// format= takes the rest of the tag, commas included.
			if format, ok := strings.CutPrefix(rest, "format="); ok {
				f.format = format
				break
			}
			var opt string
			opt, rest, _ = strings.Cut(rest, ",")
			switch opt {
			case "array":
				f.style = arrayParameters
			case "csv":
				f.style = commaSeparated
			case "noencode":
				f.encode = false
			}
		}
		fields = append(fields, f)
	}
	return fields
}
