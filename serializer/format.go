package serializer

import (
	"strings"

	"github.com/pkg/errors"
)

// DataFormat is the serialization family of a request body or a
// serializer.
type DataFormat int

const (
	None DataFormat = iota
	JSON
	XML
	Binary
	YAML
	CSV
)

var formatNames = map[DataFormat]string{
	None:   "none",
	JSON:   "json",
	XML:    "xml",
	Binary: "binary",
	YAML:   "yaml",
	CSV:    "csv",
}

func (f DataFormat) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "unknown"
}

// IsSerializable reports whether values of this format are produced by a
// registered serializer rather than sent as is.
func (f DataFormat) IsSerializable() bool {
	switch f {
	case JSON, XML, YAML, CSV:
		return true
	}
	return false
}

// ParseDataFormat reads a format name case-insensitively.
func ParseDataFormat(s string) (DataFormat, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for f, name := range formatNames {
		if name == s {
			return f, nil
		}
	}
	return None, errors.Errorf("unknown data format: %q", s)
}
