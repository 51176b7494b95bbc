package restie

import (
	"context"
	"net/http"

	"github.com/nojima/restie/param"
)

// Execute sends req and deserializes the body into a T.
func Execute[T any](ctx context.Context, c *Client, req *Request) (*TypedResponse[T], error) {
	var data T
	resp, err := c.ExecuteInto(ctx, req, &data)
	if resp == nil {
		return nil, err
	}
	return &TypedResponse[T]{Response: resp, Data: data}, err
}

// Get sends a GET request for resource with the given parameters.
func Get[T any](ctx context.Context, c *Client, resource string, params ...param.Parameter) (*TypedResponse[T], error) {
	req := NewRequest(http.MethodGet, resource)
	for _, p := range params {
		if err := req.AddParameter(p); err != nil {
			return nil, err
		}
	}
	return Execute[T](ctx, c, req)
}

// Delete sends a DELETE request for resource with the given parameters.
func Delete[T any](ctx context.Context, c *Client, resource string, params ...param.Parameter) (*TypedResponse[T], error) {
	req := NewRequest(http.MethodDelete, resource)
	for _, p := range params {
		if err := req.AddParameter(p); err != nil {
			return nil, err
		}
	}
	return Execute[T](ctx, c, req)
}

// Post sends body as JSON to resource.
func Post[T any](ctx context.Context, c *Client, resource string, body any) (*TypedResponse[T], error) {
	return sendJSON[T](ctx, c, http.MethodPost, resource, body)
}

// Put sends body as JSON to resource.
func Put[T any](ctx context.Context, c *Client, resource string, body any) (*TypedResponse[T], error) {
	return sendJSON[T](ctx, c, http.MethodPut, resource, body)
}

// Patch sends body as JSON to resource.
func Patch[T any](ctx context.Context, c *Client, resource string, body any) (*TypedResponse[T], error) {
	return sendJSON[T](ctx, c, http.MethodPatch, resource, body)
}

func sendJSON[T any](ctx context.Context, c *Client, method, resource string, body any) (*TypedResponse[T], error) {
	req := NewRequest(method, resource)
	if body != nil {
		if err := req.AddJSONBody(body); err != nil {
			return nil, err
		}
	}
	return Execute[T](ctx, c, req)
}
