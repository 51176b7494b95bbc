package restie

import "fmt"

// DeserializationError is returned when a response body could not be mapped
// and the client was configured to report it.
type DeserializationError struct {
	Response *Response
	Err      error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("deserializing response (content type %q): %v", e.Response.ContentType, e.Err)
}

func (e *DeserializationError) Unwrap() error { return e.Err }

func (e *DeserializationError) Cause() error { return e.Err }

// ResponseError is returned for transport failures and non-2xx responses
// when Options.ThrowOnAnyError is set.
type ResponseError struct {
	Response *Response
	Err      error
}

func (e *ResponseError) Error() string {
	if e.Response != nil && e.Response.ResponseStatus == StatusCompleted {
		return fmt.Sprintf("request failed with status %s", e.Response.Status)
	}
	return fmt.Sprintf("request failed: %v", e.Err)
}

func (e *ResponseError) Unwrap() error { return e.Err }

func (e *ResponseError) Cause() error { return e.Err }
