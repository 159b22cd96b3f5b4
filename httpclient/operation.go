package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// ExecuteGet runs a GET of path against the location and hands the validated
// response to process. When the client holds repository credentials it has
// not authenticated with, the Authenticator runs first. The response body is
// closed after process returns.
func ExecuteGet[T any](ctx context.Context, c *Client, path string, process func(*http.Response) (T, error)) (T, error) {
	var zero T
	if err := c.authenticateIfNeeded(ctx); err != nil {
		return zero, err
	}

	req, err := c.NewRequest(ctx, Request{Method: http.MethodGet, Path: path})
	if err != nil {
		return zero, err
	}
	resp, err := c.Execute(ctx, req)
	if err != nil {
		return zero, err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	return process(resp)
}

// DecodeJSON is a processor for ExecuteGet that decodes a 2xx JSON body.
func DecodeJSON[T any](resp *http.Response) (T, error) {
	var v T
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return v, ClassifyStatusCode(resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return v, fmt.Errorf("httpclient: decode response: %w", err)
	}
	return v, nil
}

func (c *Client) authenticateIfNeeded(ctx context.Context) error {
	c.mu.RLock()
	a := c.authenticator
	c.mu.RUnlock()
	if a == nil {
		return nil
	}
	need, err := c.NeedsAuthentication(ctx)
	if err != nil || !need {
		return err
	}
	c.log.Debug("authenticating before operation")
	return a.Authenticate(ctx, c)
}
