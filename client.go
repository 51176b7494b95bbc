package restie

import (
	"context"
	"io"
	"net/http"
	"reflect"
	"sync"
	"time"

	"github.com/nojima/restie/exchange"
	"github.com/nojima/restie/logger"
	"github.com/nojima/restie/mapper"
	"github.com/nojima/restie/param"
	"github.com/nojima/restie/serializer"
	"github.com/pkg/errors"
)

// Client executes requests. It is safe for concurrent use once configured.
type Client struct {
	options  Options
	registry *serializer.Registry
	http     *http.Client
	log      *logger.Logger

	mu       sync.RWMutex
	defaults *param.Collection
}

func New(options Options) (*Client, error) {
	options.ApplyDefaults()
	if err := options.Validate(); err != nil {
		return nil, err
	}
	httpClient, err := exchange.BuildHTTPClient(options.httpOptions())
	if err != nil {
		return nil, err
	}
	return &Client{
		options:  options,
		registry: serializer.NewRegistry(options.Serializers...),
		http:     httpClient,
		log:      options.Logger.WithComponent("restie"),
		defaults: param.NewCollection(),
	}, nil
}

func (c *Client) Options() Options {
	return c.options
}

func (c *Client) Registry() *serializer.Registry {
	return c.registry
}

// AddDefaultParameter adds p to every request that does not already carry a
// parameter with the same name and type.
func (c *Client) AddDefaultParameter(p param.Parameter) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defaults.AddOrUpdate(p)
	return c
}

func (c *Client) AddDefaultHeader(name, value string) *Client {
	return c.AddDefaultParameter(param.NewHeader(name, value))
}

func (c *Client) AddDefaultQueryParameter(name string, value any) *Client {
	return c.AddDefaultParameter(param.NewQuery(name, value))
}

func (c *Client) AddDefaultURLSegment(name string, value any) *Client {
	return c.AddDefaultParameter(param.NewURLSegment(name, value))
}

// BuildRequest authenticates req, merges the default parameters and returns
// the *http.Request that Execute would send.
func (c *Client) BuildRequest(ctx context.Context, req *Request) (*http.Request, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	// Authenticators write into a copy so that one Request can be executed
	// concurrently and repeatedly without collecting credentials.
	prepared := *req
	prepared.Params = req.Params.Clone()
	authenticator := req.Authenticator
	if authenticator == nil {
		authenticator = c.options.Authenticator
	}
	if authenticator != nil {
		if err := authenticator.Authenticate(ctx, c, &prepared); err != nil {
			return nil, errors.Wrap(err, "authenticating request")
		}
		if err := prepared.validate(); err != nil {
			return nil, err
		}
	}

	params := prepared.Params
	c.mu.RLock()
	params.Merge(c.defaults)
	c.mu.RUnlock()

	call := &exchange.Call{
		Method:   req.Method,
		BaseURL:  c.options.BaseURL,
		Resource: req.Resource,
		Params:   params,
		Registry: c.registry,
		Body: exchange.BodyOptions{
			AlwaysMultipartFormData: c.options.AlwaysMultipartFormData || req.AlwaysMultipartFormData,
			MultipartBoundary:       c.options.MultipartBoundary,
			BufferMultipart:         c.options.BufferMultipart,
			Encode:                  c.options.Encode,
		},
		UserAgent: c.options.UserAgent,
	}
	return exchange.BuildHTTPRequest(ctx, call)
}

// Execute sends req and returns the response without deserializing it.
// Configuration errors are returned with a nil response. Transport failures
// are recorded on the response and only returned when ThrowOnAnyError is
// set.
func (c *Client) Execute(ctx context.Context, req *Request) (*Response, error) {
	return c.execute(ctx, req, nil)
}

// ExecuteInto is Execute followed by deserialization of the body into dst,
// which must be a non-nil pointer. The body is mapped onto a fresh value that
// replaces *dst only when mapping succeeds, so a failed deserialization
// leaves dst untouched.
func (c *Client) ExecuteInto(ctx context.Context, req *Request, dst any) (*Response, error) {
	if dst == nil {
		return nil, errors.New("deserialization target is nil")
	}
	if v := reflect.ValueOf(dst); v.Kind() != reflect.Pointer || v.IsNil() {
		return nil, errors.Errorf("deserialization target must be a non-nil pointer, got %T", dst)
	}
	return c.execute(ctx, req, dst)
}

func (c *Client) execute(ctx context.Context, req *Request, dst any) (*Response, error) {
	if req != nil && req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}
	httpReq, err := c.BuildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp := &Response{Request: req}
	start := time.Now()
	c.log.Debug("sending request", logger.Fields(logger.FieldMethod, httpReq.Method, logger.FieldURL, httpReq.URL.String()))
	httpResp, err := exchange.SendRequest(c.http, httpReq)
	if err != nil {
		return c.transportFailed(resp, err)
	}
	defer httpResp.Body.Close()
	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return c.transportFailed(resp, errors.Wrap(err, "reading response body"))
	}

	resp.StatusCode = httpResp.StatusCode
	resp.Status = httpResp.Status
	resp.Proto = httpResp.Proto
	resp.Header = httpResp.Header
	resp.Cookies = httpResp.Cookies()
	resp.ContentType = httpResp.Header.Get("Content-Type")
	resp.ContentLength = httpResp.ContentLength
	if resp.ContentLength < 0 {
		resp.ContentLength = int64(len(raw))
	}
	resp.RawBytes = raw
	resp.Content = decodeContent(raw, resp.ContentType)
	resp.ResponseURI = httpResp.Request.URL
	resp.ResponseStatus = StatusCompleted

	fields := logger.DurationFields(httpReq.Method, httpReq.URL.String(), time.Since(start))
	fields[logger.FieldStatus] = resp.StatusCode
	c.log.Debug("received response", fields)

	if dst != nil {
		if err := c.deserialize(resp, dst); err != nil {
			return resp, err
		}
	}
	if c.options.ThrowOnAnyError && !resp.IsSuccessful() {
		return resp, &ResponseError{Response: resp, Err: errors.Errorf("%s %s: %s", httpReq.Method, httpReq.URL, resp.Status)}
	}
	return resp, nil
}

func (c *Client) transportFailed(resp *Response, err error) (*Response, error) {
	switch {
	case exchange.IsTimeout(err):
		resp.fail(StatusTimedOut, err)
	case errors.Is(err, context.Canceled):
		resp.fail(StatusAborted, err)
	default:
		resp.fail(StatusError, err)
	}
	c.log.Warn("request failed", logger.Fields(logger.FieldStatus, resp.ResponseStatus.String(), logger.FieldError, err.Error()))
	if c.options.ThrowOnAnyError {
		return resp, &ResponseError{Response: resp, Err: err}
	}
	return resp, nil
}

func (c *Client) deserialize(resp *Response, dst any) error {
	req := resp.Request
	if req.OnBeforeDeserialization != nil {
		req.OnBeforeDeserialization(resp)
	}
	if len(resp.RawBytes) == 0 {
		return nil
	}
	s, ok := c.registry.ForResponse(resp.ContentType, resp.RawBytes)
	if !ok {
		c.log.Debug("no deserializer for response", logger.Fields(logger.FieldContentType, resp.ContentType))
		return nil
	}

	// The XML decoder honours the encoding declaration itself, so it gets
	// the undecoded bytes.
	data := resp.RawBytes
	if s.Format() != serializer.XML {
		data = []byte(resp.Content)
	}
	target := reflect.ValueOf(dst)
	fresh := reflect.New(target.Type().Elem())
	if err := s.Deserialize(data, fresh.Interface(), c.mapperOptions(req)); err != nil {
		resp.fail(StatusError, err)
		c.log.Warn("deserialization failed", logger.Fields(
			logger.FieldContentType, resp.ContentType,
			logger.FieldFormat, s.Format().String(),
			logger.FieldError, err.Error(),
		))
		if c.options.ThrowOnDeserializationError || c.options.ThrowOnAnyError {
			return &DeserializationError{Response: resp, Err: err}
		}
		return nil
	}
	target.Elem().Set(fresh.Elem())
	return nil
}

func (c *Client) mapperOptions(req *Request) mapper.Options {
	dateFormat := req.DateFormat
	if dateFormat == "" {
		dateFormat = c.options.DateFormat
	}
	return mapper.Options{
		DateFormat:  dateFormat,
		Culture:     c.options.Culture,
		Location:    c.options.Location,
		Namespace:   req.XMLNamespace,
		RootElement: req.RootElement,
	}
}
