package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/bitesized/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// RequestError is the only error type returned by [Client.Request].
type RequestError struct {
	Message string
}

func (e *RequestError) Error() string { return e.Message }

func (e *RequestError) Unwrap() error { return shared.ErrAPIRequest }

// RequestOptions configures a single gateway call.
//
// Body is JSON-encoded unless it is an [io.Reader], which is sent as-is.
type RequestOptions struct {
	Method  string
	Body    any
	Token   string
	Headers map[string]string
}

// ClientOpts configures [NewClient].
type ClientOpts struct {
	BaseURL           string
	HTTPClient        *http.Client
	Timeout           time.Duration
	RequestsPerSecond float64
	Logger            *log.Logger
}

// Client talks to the learning platform backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewClient creates a gateway client. A zero RequestsPerSecond disables throttling.
func NewClient(opts ClientOpts) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = shared.DefaultAPIBaseURL
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	c := &Client{baseURL: baseURL, httpClient: httpClient, logger: logger}
	if opts.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return c
}

// BaseURL returns the backend root without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// Request sends a request to path and decodes a successful JSON body into out when out is non-nil.
func (c *Client) Request(ctx context.Context, path string, opts RequestOptions, out any) error {
	body, err := c.do(ctx, path, opts)
	if err != nil {
		return err
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &RequestError{Message: fmt.Sprintf("invalid response from %s: %v", path, err)}
	}
	return nil
}

// do performs the round trip and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, path string, opts RequestOptions) ([]byte, error) {
	resp, err := c.send(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Message: fmt.Sprintf("failed to read response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := errorMessage(resp.StatusCode, body)
		c.logger.Debug("api request failed", "path", path, "status", resp.StatusCode, "message", msg)
		return nil, &RequestError{Message: msg}
	}
	return body, nil
}

func (c *Client) send(ctx context.Context, path string, opts RequestOptions) (*http.Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var reader io.Reader
	switch b := opts.Body.(type) {
	case nil:
	case io.Reader:
		reader = b
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, &RequestError{Message: fmt.Sprintf("failed to encode request: %v", err)}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, &RequestError{Message: fmt.Sprintf("failed to create request: %v", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("Pragma", "no-cache")
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &RequestError{Message: fmt.Sprintf("request cancelled: %v", err)}
		}
	}

	c.logger.Debug("api request", "method", method, "path", path, "authenticated", opts.Token != "")

	resp, err := c.clientFor(opts.Token).Do(req)
	if err != nil {
		return nil, &RequestError{Message: fmt.Sprintf("request failed: %v", err)}
	}
	return resp, nil
}

// clientFor returns an HTTP client that attaches token as a bearer credential, or the plain client when token is empty.
func (c *Client) clientFor(token string) *http.Client {
	if token == "" {
		return c.httpClient
	}

	base := c.httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   base,
		},
		Timeout:       c.httpClient.Timeout,
		CheckRedirect: c.httpClient.CheckRedirect,
		Jar:           c.httpClient.Jar,
	}
}

// errorMessage picks the human-readable message for a failed response.
func errorMessage(status int, body []byte) string {
	var data any
	if err := json.Unmarshal(body, &data); err == nil && data != nil {
		if obj, ok := data.(map[string]any); ok {
			switch detail := obj["detail"].(type) {
			case nil:
			case string:
				if detail != "" {
					return detail
				}
			default:
				if encoded, err := json.Marshal(detail); err == nil {
					return string(encoded)
				}
			}
		}
		if encoded, err := json.Marshal(data); err == nil {
			return string(encoded)
		}
	}

	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("Request failed: %d", status)
}
