// Package mapper fills typed Go values from decoded documents.
//
// Sources are either generic trees (map[string]any, []any and scalars, as
// produced by the JSON, YAML and CSV codecs) or *Element values parsed from
// XML. Struct fields are matched by name with a fixed fallback order: the Go
// field name, the tag rename, case variants of both, and finally a case and
// separator insensitive scan. Fields without a matching source key keep
// their zero value.
package mapper

import (
	"encoding"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// Culture controls how numbers written as strings are read.
type Culture struct {
	DecimalSeparator string
	GroupSeparator   string
}

var InvariantCulture = Culture{DecimalSeparator: ".", GroupSeparator: ","}

type Options struct {
	// DateFormat is a time layout applied to every time.Time target. When
	// empty a permissive list of layouts is tried.
	DateFormat string
	Culture    Culture
	// Location is used for times written without a zone. Defaults to UTC.
	Location *time.Location
	// Namespace restricts XML element lookups to one namespace URI.
	Namespace string
	// RootElement names an envelope to unwrap before mapping.
	RootElement string
}

type Mapper struct {
	opts Options
}

func New(opts Options) *Mapper {
	if opts.Culture.DecimalSeparator == "" {
		opts.Culture = InvariantCulture
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Mapper{opts: opts}
}

// Map stores src into the value pointed to by dst.
func (m *Mapper) Map(src any, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return errors.Errorf("mapper: destination must be a non-nil pointer, got %T", dst)
	}
	src = Normalize(src)
	if m.opts.RootElement != "" {
		src = m.unwrap(src, m.opts.RootElement)
	}
	return m.assign(rv.Elem(), src, "$")
}

var (
	timeType            = reflect.TypeOf(time.Time{})
	durationType        = reflect.TypeOf(time.Duration(0))
	uuidType            = reflect.TypeOf(uuid.UUID{})
	elementPtrType      = reflect.TypeOf((*Element)(nil))
	bigFloatType        = reflect.TypeOf(big.Float{})
	bigRatType          = reflect.TypeOf(big.Rat{})
	bigIntType          = reflect.TypeOf(big.Int{})
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

func (m *Mapper) assign(dst reflect.Value, src any, path string) error {
	t := dst.Type()
	if src == nil {
		dst.Set(reflect.Zero(t))
		return nil
	}

	switch {
	case t == elementPtrType:
		if e, ok := src.(*Element); ok {
			dst.Set(reflect.ValueOf(e))
			return nil
		}
		return m.fail(path, src, t, errors.New("expected an xml element"))
	case t.Kind() == reflect.Interface:
		return m.assignInterface(dst, src, path)
	case t.Kind() == reflect.Ptr:
		if isBlank(src) {
			dst.Set(reflect.Zero(t))
			return nil
		}
		n := reflect.New(t.Elem())
		if err := m.assign(n.Elem(), src, path); err != nil {
			return err
		}
		dst.Set(n)
		return nil
	}

	if err := m.assignValue(dst, src, path); err != nil {
		return m.fail(path, src, t, err)
	}
	return nil
}

func (m *Mapper) assignValue(dst reflect.Value, src any, path string) error {
	t := dst.Type()
	switch t {
	case timeType:
		s, err := m.text(src)
		if err != nil {
			return err
		}
		if s == "" {
			dst.Set(reflect.Zero(t))
			return nil
		}
		parsed, err := parseTime(s, m.opts.DateFormat, m.opts.Location)
		if err != nil {
			return err
		}
		dst.Set(reflect.ValueOf(parsed))
		return nil
	case durationType:
		s, err := m.text(src)
		if err != nil {
			return err
		}
		d, err := parseDuration(s)
		if err != nil {
			return err
		}
		dst.SetInt(int64(d))
		return nil
	case uuidType:
		s, err := m.text(src)
		if err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			dst.Set(reflect.ValueOf(uuid.Nil))
			return nil
		}
		id, err := uuid.Parse(strings.TrimSpace(s))
		if err != nil {
			return err
		}
		dst.Set(reflect.ValueOf(id))
		return nil
	}

	if members, ok := enumMembers(t); ok {
		return setEnum(dst, members, m.scalar(src))
	}

	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		s, err := m.text(src)
		if err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			dst.Set(reflect.Zero(t))
			return nil
		}
		if t == bigFloatType || t == bigRatType || t == bigIntType {
			s = normalizeNumber(s, m.opts.Culture)
		}
		return dst.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s))
	}

	switch t.Kind() {
	case reflect.Bool:
		v := m.scalar(src)
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			dst.SetBool(false)
			return nil
		}
		b, err := cast.ToBoolE(v)
		if err != nil {
			return err
		}
		dst.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := toInt64(m.scalar(src), m.opts.Culture)
		if err != nil {
			return err
		}
		if dst.OverflowInt(n) {
			return errors.Errorf("%d overflows %s", n, t)
		}
		dst.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, err := toInt64(m.scalar(src), m.opts.Culture)
		if err != nil {
			return err
		}
		if n < 0 || dst.OverflowUint(uint64(n)) {
			return errors.Errorf("%d overflows %s", n, t)
		}
		dst.SetUint(uint64(n))
	case reflect.Float32, reflect.Float64:
		f, err := toFloat64(m.scalar(src), m.opts.Culture)
		if err != nil {
			return err
		}
		if dst.OverflowFloat(f) {
			return errors.Errorf("%g overflows %s", f, t)
		}
		dst.SetFloat(f)
	case reflect.String:
		s, err := m.text(src)
		if err != nil {
			return err
		}
		dst.SetString(s)
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			if s, ok := m.scalar(src).(string); ok {
				b, err := decodeBase64(s)
				if err != nil {
					return err
				}
				dst.SetBytes(b)
				return nil
			}
		}
		return m.assignSlice(dst, src, path)
	case reflect.Array:
		return m.assignArray(dst, src, path)
	case reflect.Map:
		return m.assignMap(dst, src, path)
	case reflect.Struct:
		return m.assignStruct(dst, src, path)
	default:
		return errors.Errorf("unsupported target kind %s", t.Kind())
	}
	return nil
}

// fail wraps err into an *Error unless it already is one raised deeper in
// the tree.
func (m *Mapper) fail(path string, src any, t reflect.Type, err error) error {
	var mapped *Error
	if errors.As(err, &mapped) {
		return err
	}
	return &Error{Path: path, Value: src, Type: t, Err: err}
}

func (m *Mapper) assignInterface(dst reflect.Value, src any, path string) error {
	t := dst.Type()
	if e, ok := src.(*Element); ok && t.NumMethod() == 0 {
		dst.Set(reflect.ValueOf(elementToTree(e)))
		return nil
	}
	v := reflect.ValueOf(src)
	if !v.Type().AssignableTo(t) {
		return m.fail(path, src, t, errors.Errorf("%T does not implement %s", src, t))
	}
	dst.Set(v)
	return nil
}

func (m *Mapper) items(src any) ([]any, error) {
	switch x := src.(type) {
	case []any:
		return x, nil
	case *Element:
		children := m.children(x)
		out := make([]any, len(children))
		for i, c := range children {
			out[i] = c
		}
		return out, nil
	default:
		return nil, errors.New("expected a list")
	}
}

func (m *Mapper) assignSlice(dst reflect.Value, src any, path string) error {
	items, err := m.items(src)
	if err != nil {
		return err
	}
	out := reflect.MakeSlice(dst.Type(), len(items), len(items))
	for i, item := range items {
		if err := m.assign(out.Index(i), item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
			return err
		}
	}
	dst.Set(out)
	return nil
}

func (m *Mapper) assignArray(dst reflect.Value, src any, path string) error {
	items, err := m.items(src)
	if err != nil {
		return err
	}
	if len(items) > dst.Len() {
		return errors.Errorf("%d items do not fit in %s", len(items), dst.Type())
	}
	dst.Set(reflect.Zero(dst.Type()))
	for i, item := range items {
		if err := m.assign(dst.Index(i), item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

func (m *Mapper) assignMap(dst reflect.Value, src any, path string) error {
	t := dst.Type()
	entries := make(map[string]any)
	switch x := src.(type) {
	case map[string]any:
		entries = x
	case *Element:
		for _, c := range m.children(x) {
			entries[c.Name.Local] = c
		}
	default:
		return errors.New("expected an object")
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := reflect.MakeMapWithSize(t, len(entries))
	for _, k := range keys {
		kp := fmt.Sprintf("%s[%s]", path, k)
		key := reflect.New(t.Key()).Elem()
		if err := m.assign(key, k, kp); err != nil {
			return err
		}
		val := reflect.New(t.Elem()).Elem()
		if err := m.assign(val, entries[k], kp); err != nil {
			return err
		}
		out.SetMapIndex(key, val)
	}
	dst.Set(out)
	return nil
}

func (m *Mapper) assignStruct(dst reflect.Value, src any, path string) error {
	info := describe(dst.Type())

	if info.items != nil {
		if _, isList := src.([]any); isList || isElement(src) {
			target := fieldFor(dst, info.items.index)
			if err := m.assign(target, src, path+"."+info.items.goName); err != nil {
				return err
			}
		}
	}

	switch x := src.(type) {
	case map[string]any:
		for _, f := range info.fields {
			if f.items {
				continue
			}
			v, ok := lookupKey(x, f)
			if !ok {
				continue
			}
			if err := m.assign(fieldFor(dst, f.index), v, path+"."+f.goName); err != nil {
				return err
			}
		}
		return nil
	case *Element:
		return m.assignElementFields(dst, info, x, path)
	case []any:
		if info.items != nil {
			return nil
		}
		return errors.New("expected an object, got a list")
	default:
		return errors.New("expected an object")
	}
}

func lookupKey(src map[string]any, f *field) (any, bool) {
	for _, name := range f.candidates {
		if v, ok := src[name]; ok {
			return v, true
		}
	}
	keys := make([]string, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if f.loose[looseName(k)] {
			return src[k], true
		}
	}
	return nil, false
}

// fieldFor returns the field at index, allocating nil embedded pointers on
// the way.
func fieldFor(v reflect.Value, index []int) reflect.Value {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Ptr {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v
}

// scalar reduces an element to its text so the numeric and boolean paths
// see the same input for every format.
func (m *Mapper) scalar(src any) any {
	if e, ok := src.(*Element); ok {
		return e.Value()
	}
	return src
}

func (m *Mapper) text(src any) (string, error) {
	switch x := src.(type) {
	case string:
		return x, nil
	case *Element:
		return elementText(x), nil
	case json.Number:
		return x.String(), nil
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(x), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case map[string]any, []any:
		return "", errors.New("expected a scalar")
	}
	if v := reflect.ValueOf(src); v.Kind() == reflect.String {
		return v.String(), nil
	}
	return cast.ToStringE(src)
}

func elementText(e *Element) string {
	if len(e.Children) == 0 {
		return e.Text
	}
	return e.Value()
}

func isElement(src any) bool {
	_, ok := src.(*Element)
	return ok
}

// isBlank reports whether src stands for "no value" for a pointer target.
func isBlank(src any) bool {
	switch x := src.(type) {
	case string:
		return strings.TrimSpace(x) == ""
	case *Element:
		return x.IsEmpty()
	}
	return false
}

func normalizeNumber(s string, c Culture) string {
	s = strings.TrimSpace(s)
	if c.GroupSeparator != "" && c.GroupSeparator != c.DecimalSeparator {
		s = strings.ReplaceAll(s, c.GroupSeparator, "")
	}
	return normalizeDecimal(s, c)
}

// normalizeInteger keeps group separators, so "1,234" is rejected for an
// integer target instead of being read as 1234.
func normalizeInteger(s string, c Culture) string {
	return normalizeDecimal(strings.TrimSpace(s), c)
}

func normalizeDecimal(s string, c Culture) string {
	if c.DecimalSeparator != "" && c.DecimalSeparator != "." {
		s = strings.ReplaceAll(s, c.DecimalSeparator, ".")
	}
	return s
}

func toInt64(src any, c Culture) (int64, error) {
	switch x := src.(type) {
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint:
		return int64(x), nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, errors.Errorf("%d overflows int64", x)
		}
		return int64(x), nil
	case float32:
		return floatToInt(float64(x))
	case float64:
		return floatToInt(x)
	case bool:
		return 0, errors.New("expected a number, got a boolean")
	case map[string]any, []any:
		return 0, errors.New("expected a number")
	}
	s, err := cast.ToStringE(src)
	if err != nil {
		if v := reflect.ValueOf(src); v.Kind() == reflect.String {
			s = v.String()
		} else {
			return 0, err
		}
	}
	s = normalizeInteger(s, c)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Errorf("%q is not a number", s)
	}
	return floatToInt(f)
}

func floatToInt(f float64) (int64, error) {
	if f != math.Trunc(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, errors.Errorf("%g is not an integer", f)
	}
	return int64(f), nil
}

func toFloat64(src any, c Culture) (float64, error) {
	switch x := src.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case bool:
		return 0, errors.New("expected a number, got a boolean")
	case map[string]any, []any:
		return 0, errors.New("expected a number")
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return cast.ToFloat64E(x)
	}
	s, err := cast.ToStringE(src)
	if err != nil {
		if v := reflect.ValueOf(src); v.Kind() == reflect.String {
			s = v.String()
		} else {
			return 0, err
		}
	}
	s = normalizeNumber(s, c)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Errorf("%q is not a number", s)
	}
	return f, nil
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, nil
		}
	}
	return nil, errors.New("invalid base64 data")
}
