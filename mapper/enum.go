package mapper

import (
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

type integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

var enums sync.Map // reflect.Type -> map[string]int64, keys lower-cased

// RegisterEnum declares the member names of an integer-backed enum type.
// Source strings are matched against the names case-insensitively; numeric
// sources are stored as is. Registration is meant to happen at init time.
//
//	type Color int
//	const (Red Color = iota; Green)
//	func init() { mapper.RegisterEnum(map[string]Color{"Red": Red, "Green": Green}) }
func RegisterEnum[E integer](members map[string]E) {
	names := make(map[string]int64, len(members))
	for name, v := range members {
		names[strings.ToLower(name)] = int64(v)
	}
	var zero E
	enums.Store(reflect.TypeOf(zero), names)
}

func enumMembers(t reflect.Type) (map[string]int64, bool) {
	v, ok := enums.Load(t)
	if !ok {
		return nil, false
	}
	return v.(map[string]int64), true
}

func setEnum(dst reflect.Value, members map[string]int64, src any) error {
	var n int64
	switch x := src.(type) {
	case string:
		s := strings.TrimSpace(x)
		if v, ok := members[strings.ToLower(s)]; ok {
			n = v
			break
		}
		parsed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return &EnumError{Value: x, Type: dst.Type()}
		}
		n = parsed
	default:
		v, err := toInt64(src, InvariantCulture)
		if err != nil {
			return err
		}
		n = v
	}
	switch dst.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if n < 0 || dst.OverflowUint(uint64(n)) {
			return errors.Errorf("%d overflows %s", n, dst.Type())
		}
		dst.SetUint(uint64(n))
	default:
		if dst.OverflowInt(n) {
			return errors.Errorf("%d overflows %s", n, dst.Type())
		}
		dst.SetInt(n)
	}
	return nil
}
