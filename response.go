package restie

import (
	"fmt"
	"net/http"
	"net/url"
)

// ResponseStatus tells how far a call got, independent of the HTTP status.
type ResponseStatus int

const (
	// StatusNone means the request was never sent.
	StatusNone ResponseStatus = iota
	// StatusCompleted means a response was received, whatever its status code.
	StatusCompleted
	// StatusError means the transport failed or the body could not be
	// deserialized.
	StatusError
	StatusTimedOut
	StatusAborted
)

func (s ResponseStatus) String() string {
	switch s {
	case StatusNone:
		return "None"
	case StatusCompleted:
		return "Completed"
	case StatusError:
		return "Error"
	case StatusTimedOut:
		return "TimedOut"
	case StatusAborted:
		return "Aborted"
	default:
		return fmt.Sprintf("ResponseStatus(%d)", int(s))
	}
}

type Response struct {
	Request *Request

	StatusCode    int
	Status        string
	Proto         string
	Header        http.Header
	Cookies       []*http.Cookie
	ContentType   string
	ContentLength int64
	// RawBytes is the body as received. Content is the body decoded to a
	// UTF-8 string using the response charset.
	RawBytes    []byte
	Content     string
	ResponseURI *url.URL

	ResponseStatus ResponseStatus
	ErrorMessage   string
	ErrorException error
}

// IsSuccessful reports a completed call with a 2xx status and no recorded
// error.
func (r *Response) IsSuccessful() bool {
	return r.ResponseStatus == StatusCompleted &&
		r.StatusCode >= 200 && r.StatusCode < 300 &&
		r.ErrorException == nil
}

func (r *Response) fail(status ResponseStatus, err error) {
	r.ResponseStatus = status
	r.ErrorException = err
	r.ErrorMessage = err.Error()
}

// TypedResponse carries the deserialized body next to the response.
type TypedResponse[T any] struct {
	*Response
	Data T
}
