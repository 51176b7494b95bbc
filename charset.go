package restie

import (
	"unicode/utf8"

	"github.com/nojima/restie/serializer"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

// decodeContent converts a response body to a UTF-8 string. The declared
// charset wins; an undeclared body that is not valid UTF-8 goes through
// detection. Bodies that cannot be decoded are returned as is.
func decodeContent(raw []byte, contentType string) string {
	if label := serializer.Charset(contentType); label != "" {
		if s, ok := decodeWith(raw, label); ok {
			return s
		}
	}
	if utf8.Valid(raw) {
		return string(raw)
	}
	result, err := chardet.NewTextDetector().DetectBest(raw)
	if err == nil {
		if s, ok := decodeWith(raw, result.Charset); ok {
			return s
		}
	}
	return string(raw)
}

func decodeWith(raw []byte, label string) (string, bool) {
	enc, _ := charset.Lookup(label)
	if enc == nil {
		return "", false
	}
	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", false
	}
	return string(decoded), true
}
