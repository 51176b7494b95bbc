package serializer

import (
	"mime"
	"strings"
)

const (
	ContentTypeJSON           = "application/json"
	ContentTypeXML            = "application/xml"
	ContentTypeYAML           = "application/yaml"
	ContentTypeCSV            = "text/csv"
	ContentTypePlainText      = "text/plain"
	ContentTypeOctetStream    = "application/octet-stream"
	ContentTypeFormURLEncoded = "application/x-www-form-urlencoded"
	ContentTypeMultipart      = "multipart/form-data"
)

var (
	jsonContentTypes = []string{ContentTypeJSON, "text/json", "text/x-json", "text/javascript", "*+json"}
	xmlContentTypes  = []string{ContentTypeXML, "text/xml", "*+xml"}
	yamlContentTypes = []string{ContentTypeYAML, "application/x-yaml", "text/yaml", "text/x-yaml", "*+yaml"}
	csvContentTypes  = []string{ContentTypeCSV, "application/csv"}
)

// MediaType returns the lower-cased media type of a Content-Type value with
// its parameters stripped.
func MediaType(contentType string) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		return mt
	}
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// Charset returns the charset parameter of a Content-Type value.
func Charset(contentType string) string {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return params["charset"]
}

func isWildcard(accepted string) bool {
	return strings.HasPrefix(accepted, "*+")
}

// matchContentType reports whether the media type matches one of the
// accepted types exactly or through a "*+suffix" wildcard.
func matchContentType(accepted []string, mediaType string) bool {
	if mediaType == "" {
		return false
	}
	for _, a := range accepted {
		if !isWildcard(a) && a == mediaType {
			return true
		}
	}
	for _, a := range accepted {
		if isWildcard(a) && strings.HasSuffix(mediaType, a[1:]) {
			return true
		}
	}
	return false
}
