package mapper

import (
	"fmt"
	"reflect"
)

// Error reports a source value that could not be coerced into its target
// type.
type Error struct {
	Path  string
	Value any
	Type  reflect.Type
	Err   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("mapper: cannot map %s into %s at %s", describeValue(e.Value), e.Type, e.Path)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Cause() error { return e.Err }

// EnumError reports a string that names no member of a registered enum.
type EnumError struct {
	Value string
	Type  reflect.Type
}

func (e *EnumError) Error() string {
	return fmt.Sprintf("mapper: %q is not a valid value for enum %s", e.Value, e.Type)
}

func describeValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		if len(x) > 64 {
			x = x[:64] + "..."
		}
		return fmt.Sprintf("%q", x)
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case *Element:
		return fmt.Sprintf("element <%s>", x.Name.Local)
	default:
		return fmt.Sprintf("%v (%T)", x, x)
	}
}
