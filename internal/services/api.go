package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports whether the status is 2xx.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Get performs a GET request to the specified path and returns the raw response, whatever its status.
func (c *Client) Get(ctx context.Context, path, token string) (*APIResponse, error) {
	return c.raw(ctx, path, RequestOptions{Method: http.MethodGet, Token: token})
}

// Post performs a POST request with the given JSON data and returns the raw response, whatever its status.
func (c *Client) Post(ctx context.Context, path string, data []byte, token string) (*APIResponse, error) {
	return c.raw(ctx, path, RequestOptions{Method: http.MethodPost, Body: bytes.NewReader(data), Token: token})
}

func (c *Client) raw(ctx context.Context, path string, opts RequestOptions) (*APIResponse, error) {
	resp, err := c.send(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}

	var jsonData any
	if err := json.Unmarshal(body, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}
