package logger

import "time"

// Standard field keys.
const (
	FieldComponent   = "component"
	FieldMethod      = "method"
	FieldURL         = "url"
	FieldStatus      = "status"
	FieldContentType = "content_type"
	FieldFormat      = "format"
	FieldError       = "error"
	FieldDuration    = "duration_ms"
)

// Fields builds a map from alternating key-value pairs.
//
//	log.Debug("sent", logger.Fields("method", "GET", "status", 200))
func Fields(kvs ...any) map[string]any {
	m := make(map[string]any, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// DurationFields creates fields for a timed request.
func DurationFields(method, url string, d time.Duration) map[string]any {
	return map[string]any{
		FieldMethod:   method,
		FieldURL:      url,
		FieldDuration: d.Milliseconds(),
	}
}
