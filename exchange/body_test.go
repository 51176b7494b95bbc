package exchange

import (
	"io"
	"io/ioutil"
	"mime"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/nojima/restie/param"
	"github.com/nojima/restie/serializer"
	"github.com/pkg/errors"
)

func readAll(t *testing.T, reader io.Reader) string {
	t.Helper()
	b, err := ioutil.ReadAll(reader)
	if err != nil {
		t.Fatalf("failed to read body: %+v", err)
	}
	return string(b)
}

func mustFile(t *testing.T, name string, data []byte, fileName, contentType string) param.Parameter {
	t.Helper()
	p, err := param.FileFromBytes(name, data, fileName, contentType)
	if err != nil {
		t.Fatalf("failed to create file parameter: %+v", err)
	}
	return p
}

func mustBody(t *testing.T, value any, contentType string, format serializer.DataFormat) param.Parameter {
	t.Helper()
	p, err := param.NewBody(value, contentType, format)
	if err != nil {
		t.Fatalf("failed to create body parameter: %+v", err)
	}
	return p
}

func collection(t *testing.T, params ...param.Parameter) *param.Collection {
	t.Helper()
	c := param.NewCollection()
	for _, p := range params {
		if err := c.Add(p); err != nil {
			t.Fatalf("failed to add parameter: %+v", err)
		}
	}
	return c
}

type multipartPart struct {
	name        string
	fileName    string
	contentType string
	content     string
}

func readMultipart(t *testing.T, body *Body) ([]multipartPart, string, string) {
	t.Helper()
	mediaType, params, err := mime.ParseMediaType(body.ContentType)
	if err != nil || mediaType != "multipart/form-data" {
		t.Fatalf("unexpected content type: %s (%v)", body.ContentType, err)
	}
	boundary := params["boundary"]
	raw := readAll(t, body.Reader)
	reader := multipart.NewReader(strings.NewReader(raw), boundary)
	var parts []multipartPart
	for {
		p, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("failed to read part: %+v", err)
		}
		parts = append(parts, multipartPart{
			name:        p.FormName(),
			fileName:    p.FileName(),
			contentType: p.Header.Get("Content-Type"),
			content:     readAll(t, p),
		})
	}
	return parts, boundary, raw
}

func TestBuildBody_Empty(t *testing.T) {
	body, err := BuildBody("GET", collection(t, param.NewGetOrPost("q", "1")), serializer.NewRegistry(), BodyOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	if body.Kind != NoBody || body.Reader != nil {
		t.Errorf("GET without files or body must have no body: %+v", body)
	}
}

func TestBuildBody_URLEncoded(t *testing.T) {
	testCases := []struct {
		title    string
		params   []param.Parameter
		opts     BodyOptions
		expected string
	}{
		{
			title: "Pairs in insertion order",
			params: []param.Parameter{
				param.NewGetOrPost("b", "2"),
				param.NewGetOrPost("a", "1"),
			},
			expected: "b=2&a=1",
		},
		{
			title: "Names and values are escaped",
			params: []param.Parameter{
				param.NewGetOrPost("full name", "hello world"),
				param.NewGetOrPost("q", "x&y=z"),
				param.NewGetOrPost("u", "日本"),
			},
			expected: "full+name=hello+world&q=x%26y%3Dz&u=%E6%97%A5%E6%9C%AC",
		},
		{
			title: "Unencoded parameter",
			params: []param.Parameter{
				param.NewGetOrPost("raw", "a+b").WithoutEncoding(),
			},
			expected: "raw=a+b",
		},
		{
			title: "Nil value yields the bare name",
			params: []param.Parameter{
				param.NewGetOrPost("flag", nil),
				param.NewGetOrPost("n", 5),
			},
			expected: "flag&n=5",
		},
		{
			title:    "Custom encoder",
			params:   []param.Parameter{param.NewGetOrPost("a", "x y")},
			opts:     BodyOptions{Encode: func(s string) string { return strings.ReplaceAll(s, " ", "%20") }},
			expected: "a=x%20y",
		},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			// Exercise
			body, err := BuildBody("POST", collection(t, tt.params...), serializer.NewRegistry(), tt.opts)

			// Verify
			if err != nil {
				t.Fatalf("unexpected error: %+v", err)
			}
			if body.Kind != FormBody {
				t.Errorf("unexpected kind: expected=%v, actual=%v", FormBody, body.Kind)
			}
			if body.ContentType != "application/x-www-form-urlencoded" {
				t.Errorf("unexpected content type: %s", body.ContentType)
			}
			actual := readAll(t, body.Reader)
			if actual != tt.expected {
				t.Errorf("unexpected body: expected=%s, actual=%s", tt.expected, actual)
			}
			if body.Length != int64(len(tt.expected)) {
				t.Errorf("unexpected length: expected=%d, actual=%d", len(tt.expected), body.Length)
			}
			if strings.Count(actual, "=") > len(tt.params) {
				t.Errorf("more pairs than parameters: %s", actual)
			}
		})
	}
}

func TestBuildBody_FileForcesMultipart(t *testing.T) {
	// Setup
	params := collection(t,
		mustFile(t, "f", []byte{1, 2, 3}, "f.bin", ""),
		param.NewGetOrPost("k", "v"),
	)

	// Exercise
	body, err := BuildBody("POST", params, serializer.NewRegistry(), BodyOptions{})

	// Verify
	if err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	if body.Kind != MultipartBody || body.Length != -1 {
		t.Errorf("unexpected body: kind=%v, length=%d", body.Kind, body.Length)
	}
	parts, boundary, raw := readMultipart(t, body)
	if len(parts) != 2 {
		t.Fatalf("unexpected part count: expected=2, actual=%d", len(parts))
	}
	expectedFile := multipartPart{name: "f", fileName: "f.bin", contentType: "application/octet-stream", content: "\x01\x02\x03"}
	if parts[0] != expectedFile {
		t.Errorf("unexpected file part: expected=%+v, actual=%+v", expectedFile, parts[0])
	}
	expectedField := multipartPart{name: "k", content: "v"}
	if parts[1] != expectedField {
		t.Errorf("unexpected field part: expected=%+v, actual=%+v", expectedField, parts[1])
	}
	if !strings.HasPrefix(boundary, "----------restie") {
		t.Errorf("unexpected boundary: %s", boundary)
	}
	if n := strings.Count(raw, "--"+boundary); n != 3 {
		t.Errorf("boundary should appear once per part plus the terminator: count=%d", n)
	}
	if !strings.HasSuffix(raw, "--"+boundary+"--\r\n") {
		t.Errorf("missing final boundary: %q", raw)
	}
}

func TestBuildBody_MultipartWithBodyAndFields(t *testing.T) {
	// Setup
	params := collection(t,
		param.NewGetOrPost("first", "1"),
		param.NewJSONBody(map[string]int{"a": 1}),
		mustFile(t, "upload", []byte("hello"), "hello.txt", "text/plain"),
	)

	// Exercise
	body, err := BuildBody("POST", params, serializer.NewRegistry(), BodyOptions{MultipartBoundary: "fixed-boundary"})

	// Verify
	if err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	parts, boundary, _ := readMultipart(t, body)
	if boundary != "fixed-boundary" {
		t.Errorf("unexpected boundary: %s", boundary)
	}
	expected := []multipartPart{
		{name: "first", content: "1"},
		{name: "body", contentType: "application/json", content: `{"a":1}`},
		{name: "upload", fileName: "hello.txt", contentType: "text/plain", content: "hello"},
	}
	if len(parts) != len(expected) {
		t.Fatalf("unexpected part count: expected=%d, actual=%d", len(expected), len(parts))
	}
	for i := range expected {
		if parts[i] != expected[i] {
			t.Errorf("unexpected part %d: expected=%+v, actual=%+v", i, expected[i], parts[i])
		}
	}
}

func TestBuildBody_MultipartOptions(t *testing.T) {
	t.Run("Always multipart with fields only", func(t *testing.T) {
		params := collection(t, param.NewGetOrPost("k", "v"))
		body, err := BuildBody("POST", params, serializer.NewRegistry(), BodyOptions{AlwaysMultipartFormData: true})
		if err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}
		parts, _, _ := readMultipart(t, body)
		if len(parts) != 1 || parts[0].name != "k" || parts[0].content != "v" {
			t.Errorf("unexpected parts: %+v", parts)
		}
	})

	t.Run("Buffered multipart has a length and replays", func(t *testing.T) {
		params := collection(t, mustFile(t, "f", []byte("abc"), "a.txt", ""))
		body, err := BuildBody("POST", params, serializer.NewRegistry(), BodyOptions{BufferMultipart: true})
		if err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}
		if body.Length <= 0 || body.GetBody == nil {
			t.Fatalf("buffered body should be sized and replayable: %+v", body)
		}
		first := readAll(t, body.Reader)
		again, err := body.GetBody()
		if err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}
		if second := readAll(t, again); first != second || int64(len(first)) != body.Length {
			t.Errorf("replayed body differs: first=%q, second=%q", first, second)
		}
	})

	t.Run("Form fields stay in the query for GET", func(t *testing.T) {
		params := collection(t,
			param.NewGetOrPost("k", "v"),
			mustFile(t, "f", []byte("x"), "x.txt", ""),
		)
		body, err := BuildBody("GET", params, serializer.NewRegistry(), BodyOptions{})
		if err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}
		parts, _, _ := readMultipart(t, body)
		if len(parts) != 1 || parts[0].name != "f" {
			t.Errorf("unexpected parts: %+v", parts)
		}
	})

	t.Run("Closing the reader stops the writer", func(t *testing.T) {
		params := collection(t, mustFile(t, "f", make([]byte, 1<<20), "big.bin", ""))
		body, err := BuildBody("POST", params, serializer.NewRegistry(), BodyOptions{})
		if err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}
		if err := body.Reader.Close(); err != nil {
			t.Errorf("unexpected error on close: %+v", err)
		}
	})
}

func TestBuildBody_ReaderFileIsSingleUse(t *testing.T) {
	file, err := param.FileFromReader("f", strings.NewReader("once"), "once.txt", "")
	if err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	params := collection(t, file)

	first, err := BuildBody("POST", params, serializer.NewRegistry(), BodyOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	parts, _, _ := readMultipart(t, first)
	if len(parts) != 1 || parts[0].content != "once" {
		t.Fatalf("unexpected parts: %+v", parts)
	}

	second, err := BuildBody("POST", params, serializer.NewRegistry(), BodyOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	_, err = ioutil.ReadAll(second.Reader)
	if errors.Cause(err) != param.ErrFileConsumed {
		t.Errorf("unexpected error: expected=%v, actual=%v", param.ErrFileConsumed, err)
	}
}

type payloadStruct struct {
	A int
}

func TestBuildBody_Raw(t *testing.T) {
	testCases := []struct {
		title               string
		body                param.Parameter
		expectedContentType string
		expectedBody        string
	}{
		{
			title:               "Json body is serialized",
			body:                param.NewJSONBody(payloadStruct{A: 1}),
			expectedContentType: "application/json",
			expectedBody:        `{"A":1}`,
		},
		{
			title:               "Xml body is serialized",
			body:                param.NewXMLBody(payloadStruct{A: 1}),
			expectedContentType: "application/xml",
			expectedBody:        `<payloadStruct><A>1</A></payloadStruct>`,
		},
		{
			title:               "Caller content type wins",
			body:                param.NewJSONBody(payloadStruct{A: 2}).WithContentType("application/vnd.api+json"),
			expectedContentType: "application/vnd.api+json",
			expectedBody:        `{"A":2}`,
		},
		{
			title:               "Json string is sent verbatim",
			body:                param.NewJSONBody(`{"raw":true}`),
			expectedContentType: "application/json",
			expectedBody:        `{"raw":true}`,
		},
		{
			title:               "Plain string defaults to text/plain",
			body:                mustBody(t, "hello", "", serializer.None),
			expectedContentType: "text/plain",
			expectedBody:        "hello",
		},
		{
			title:               "Binary body",
			body:                param.NewBinaryBody([]byte{0xff, 0x00}, ""),
			expectedContentType: "application/octet-stream",
			expectedBody:        "\xff\x00",
		},
		{
			title:               "Content encoding transcodes the payload",
			body:                param.NewStringBody("café", "text/plain").WithContentEncoding("iso-8859-1"),
			expectedContentType: "text/plain; charset=iso-8859-1",
			expectedBody:        "caf\xe9",
		},
		{
			title:               "Reader body",
			body:                mustBody(t, strings.NewReader("streamed"), "text/csv", serializer.None),
			expectedContentType: "text/csv",
			expectedBody:        "streamed",
		},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			// Exercise
			body, err := BuildBody("POST", collection(t, tt.body), serializer.NewRegistry(), BodyOptions{})

			// Verify
			if err != nil {
				t.Fatalf("unexpected error: %+v", err)
			}
			if body.Kind != RawBody {
				t.Errorf("unexpected kind: expected=%v, actual=%v", RawBody, body.Kind)
			}
			if body.ContentType != tt.expectedContentType {
				t.Errorf("unexpected content type: expected=%s, actual=%s", tt.expectedContentType, body.ContentType)
			}
			if actual := readAll(t, body.Reader); actual != tt.expectedBody {
				t.Errorf("unexpected body: expected=%q, actual=%q", tt.expectedBody, actual)
			}
			if body.Length != int64(len(tt.expectedBody)) {
				t.Errorf("unexpected length: expected=%d, actual=%d", len(tt.expectedBody), body.Length)
			}
		})
	}
}

func TestBuildBody_RawErrors(t *testing.T) {
	t.Run("Missing serializer", func(t *testing.T) {
		params := collection(t, mustBody(t, payloadStruct{}, "", serializer.YAML))
		_, err := BuildBody("POST", params, serializer.NewRegistry(), BodyOptions{})
		if errors.Cause(err) != serializer.ErrNoSerializer {
			t.Errorf("unexpected error: expected=%v, actual=%v", serializer.ErrNoSerializer, err)
		}
	})

	t.Run("Unknown content encoding", func(t *testing.T) {
		params := collection(t, param.NewStringBody("x", "text/plain").WithContentEncoding("no-such-charset"))
		if _, err := BuildBody("POST", params, serializer.NewRegistry(), BodyOptions{}); err == nil {
			t.Errorf("expected error for unknown charset")
		}
	})

	t.Run("Struct without format", func(t *testing.T) {
		params := collection(t, mustBody(t, payloadStruct{}, "", serializer.None))
		if _, err := BuildBody("POST", params, serializer.NewRegistry(), BodyOptions{}); err == nil {
			t.Errorf("expected error for struct body without a data format")
		}
	})
}
