package input

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nojima/restie"
	"github.com/nojima/restie/param"
)

func TestNewRequest(t *testing.T) {
	dir := t.TempDir()
	token := filepath.Join(dir, "token.txt")
	if err := os.WriteFile(token, []byte("from-file"), 0o644); err != nil {
		t.Fatalf("failed to write file: %+v", err)
	}
	doc := filepath.Join(dir, "doc.json")
	if err := os.WriteFile(doc, []byte(`{"n": 1}`), 0o644); err != nil {
		t.Fatalf("failed to write file: %+v", err)
	}

	testCases := []struct {
		title         string
		input         Input
		expectedURL   string
		expectedType  string
		expectedBody  string
		header        [2]string
		shouldBeError bool
	}{
		{
			title: "Raw body keeps the given content type",
			input: Input{
				Method: "POST",
				URL:    mustURL("http://example.com/upload?x=1"),
				Items: []Item{
					{Target: param.Query, Name: "token", Value: token, FromFile: true},
					{Target: param.HTTPHeader, Name: "content-type", Value: "application/x-custom"},
				},
				Body: RawBody,
				Raw:  []byte("payload"),
			},
			expectedURL:  "http://example.com/upload?x=1&token=from-file",
			expectedType: "application/x-custom",
			expectedBody: "payload",
		},
		{
			title: "Raw body type is detected",
			input: Input{
				Method: "PUT",
				URL:    mustURL("http://example.com/doc"),
				Body:   RawBody,
				Raw:    []byte(`{"a": 1}`),
			},
			expectedURL:  "http://example.com/doc",
			expectedType: "application/json",
			expectedBody: `{"a": 1}`,
		},
		{
			title: "JSON members",
			input: Input{
				Method: "POST",
				URL:    mustURL("http://example.com/items"),
				Items: []Item{
					{Target: param.GetOrPost, Name: "name", Value: "apple"},
					{Target: param.RequestBody, Name: "count", Value: "3"},
					{Target: param.RequestBody, Name: "doc", Value: doc, FromFile: true},
					{Target: param.HTTPHeader, Name: "X-Trace", Value: "t1"},
				},
				Body: JSONBody,
			},
			expectedURL:  "http://example.com/items",
			expectedType: "application/json",
			expectedBody: `{"count":3,"doc":{"n":1},"name":"apple"}`,
			header:       [2]string{"X-Trace", "t1"},
		},
		{
			title: "Form fields",
			input: Input{
				Method: "POST",
				URL:    mustURL("http://example.com/login"),
				Items: []Item{
					{Target: param.GetOrPost, Name: "user", Value: "nojima"},
					{Target: param.GetOrPost, Name: "token", Value: token, FromFile: true},
				},
				Body: FormBody,
			},
			expectedURL:  "http://example.com/login",
			expectedType: "application/x-www-form-urlencoded",
			expectedBody: "user=nojima&token=from-file",
		},
		{
			title: "Missing value file",
			input: Input{
				Method: "GET",
				URL:    mustURL("http://example.com/"),
				Items:  []Item{{Target: param.Query, Name: "q", Value: filepath.Join(dir, "missing"), FromFile: true}},
			},
			shouldBeError: true,
		},
	}
	client, err := restie.New(restie.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			// Exercise
			req, err := tt.input.NewRequest()

			// Verify
			if (err != nil) != tt.shouldBeError {
				t.Fatalf("unexpected error: shouldBeError=%v, err=%+v", tt.shouldBeError, err)
			}
			if err != nil {
				return
			}
			httpReq, err := client.BuildRequest(context.Background(), req)
			if err != nil {
				t.Fatalf("unexpected error: %+v", err)
			}
			if httpReq.URL.String() != tt.expectedURL {
				t.Errorf("unexpected URL: expected=%s, actual=%s", tt.expectedURL, httpReq.URL.String())
			}
			contentType := httpReq.Header.Get("Content-Type")
			if !strings.HasPrefix(contentType, tt.expectedType) {
				t.Errorf("unexpected content type: expected=%s, actual=%s", tt.expectedType, contentType)
			}
			body, err := io.ReadAll(httpReq.Body)
			if err != nil {
				t.Fatalf("unexpected error: %+v", err)
			}
			if string(body) != tt.expectedBody {
				t.Errorf("unexpected body: expected=%s, actual=%s", tt.expectedBody, body)
			}
			if tt.header[0] != "" && httpReq.Header.Get(tt.header[0]) != tt.header[1] {
				t.Errorf("unexpected %s header: expected=%s, actual=%s", tt.header[0], tt.header[1], httpReq.Header.Get(tt.header[0]))
			}
		})
	}
}

func TestNewRequest_Upload(t *testing.T) {
	// Setup
	path := filepath.Join(t.TempDir(), "report.txt")
	if err := os.WriteFile(path, []byte("quarterly"), 0o644); err != nil {
		t.Fatalf("failed to write file: %+v", err)
	}
	in, err := ParseArgs([]string{"example.com/upload", "title=Q3", "doc@" + path}, strings.NewReader(""), &Options{})
	if err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	client, _ := restie.New(restie.Options{})

	// Exercise
	req, err := in.NewRequest()
	if err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	httpReq, err := client.BuildRequest(context.Background(), req)

	// Verify
	if err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	if err := httpReq.ParseMultipartForm(1 << 20); err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	if httpReq.FormValue("title") != "Q3" {
		t.Errorf("unexpected title: %q", httpReq.FormValue("title"))
	}
	files := httpReq.MultipartForm.File["doc"]
	if len(files) != 1 || files[0].Filename != "report.txt" {
		t.Errorf("unexpected files: %+v", files)
	}
}
