package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Request describes an outbound request relative to the client's location.
type Request struct {
	// Method is the HTTP method. Defaults to GET.
	Method string
	// Path is appended to the location URL. A full http(s) URL is used as is.
	Path string
	// Headers are request-specific headers (merged with client defaults).
	Headers map[string]string
	// Query are URL query parameters.
	Query map[string]string
	// Body is the request body. Accepts io.Reader, []byte, string, or any value
	// that will be JSON-encoded. Readers are buffered so a challenge can be
	// answered by resending the body.
	Body any
}

// Response is a fully read response.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Headers are the response headers.
	Headers map[string]string
	// Body is the raw response body.
	Body []byte
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Err returns a typed error for 4xx and 5xx responses, nil otherwise.
func (r *Response) Err() error {
	if e := ClassifyStatusCode(r.StatusCode, r.Body); e != nil {
		return e
	}
	return nil
}

// Do builds req against the location, executes it and reads the body.
// Non-2xx responses other than 401 and 407 are returned without error; use
// Response.Err to treat them as failures.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := c.NewRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	resp, err := c.Execute(ctx, httpReq)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(ctx, fmt.Errorf("read response body: %w", err))
	}
	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
		Body:       body,
	}, nil
}

// NewRequest builds an *http.Request for req resolved against the location URL.
func (c *Client) NewRequest(ctx context.Context, req Request) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, NewInvalidRequestError("encode body", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.resolve(req.Path), body)
	if err != nil {
		return nil, NewInvalidRequestError("create request", err)
	}

	if len(req.Query) > 0 {
		q := httpReq.URL.Query()
		for k, v := range req.Query {
			q.Set(k, v)
		}
		httpReq.URL.RawQuery = q.Encode()
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if body != nil && contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	return httpReq, nil
}

func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if path == "" {
		return c.location.URL()
	}
	return c.location.URL() + "/" + strings.TrimLeft(path, "/")
}

// bufferBody replaces a reader body with its contents so req can be sent
// more than once.
func bufferBody(req Request) (Request, error) {
	r, ok := req.Body.(io.Reader)
	if !ok {
		return req, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return req, err
	}
	req.Body = data
	return req, nil
}

// encodeBody converts a body value into a replayable reader and content type.
func encodeBody(body any) (io.Reader, string, error) {
	if body == nil {
		return nil, "", nil
	}
	switch v := body.(type) {
	case *bytes.Reader, *bytes.Buffer, *strings.Reader:
		return v.(io.Reader), "", nil
	case io.Reader:
		data, err := io.ReadAll(v)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "", nil
	case []byte:
		return bytes.NewReader(v), "", nil
	case string:
		return strings.NewReader(v), "text/plain", nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

// flattenHeaders converts multi-value headers to single-value.
func flattenHeaders(h http.Header) map[string]string {
	result := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			result[k] = v[0]
		}
	}
	return result
}
