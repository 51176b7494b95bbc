package mapper

import (
	"fmt"
	"sort"
)

// Normalize rewrites a decoded document into the tree shape the mapper
// walks: maps keyed by non-string values become map[string]any and nested
// slices become []any. Elements and scalars are returned unchanged.
func Normalize(src any) any {
	switch x := src.(type) {
	case map[string]any:
		for k, v := range x {
			x[k] = Normalize(v)
		}
		return x
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, v := range x {
			out[fmt.Sprint(k)] = Normalize(v)
		}
		return out
	case []any:
		for i, v := range x {
			x[i] = Normalize(v)
		}
		return x
	case []map[string]any:
		out := make([]any, len(x))
		for i, v := range x {
			out[i] = Normalize(v)
		}
		return out
	default:
		return src
	}
}

// unwrap descends into the envelope named root. Trees look for a matching
// key breadth-first; elements look for a matching descendant. When nothing
// matches the source is returned as is.
func (m *Mapper) unwrap(src any, root string) any {
	if e, ok := src.(*Element); ok {
		return m.unwrapElement(e, root)
	}

	names := NameVariants(root)
	loose := looseName(root)
	queue := []any{src}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		obj, ok := current.(map[string]any)
		if !ok {
			continue
		}
		for _, n := range names {
			if v, found := obj[n]; found {
				return v
			}
		}
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if looseName(k) == loose {
				return obj[k]
			}
		}
		for _, k := range keys {
			queue = append(queue, obj[k])
		}
	}
	return src
}
