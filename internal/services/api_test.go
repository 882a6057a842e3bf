package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/bitesized/internal/shared"
	tu "github.com/desertthunder/bitesized/internal/testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(ClientOpts{BaseURL: server.URL, HTTPClient: server.Client()})
}

func TestClient(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Custom BaseURL and Client", func(t *testing.T) {
			customClient := &http.Client{}
			c := NewClient(ClientOpts{BaseURL: "http://example.com/", HTTPClient: customClient})

			if c.BaseURL() != "http://example.com" {
				t.Errorf("expected trimmed baseURL 'http://example.com', got %s", c.BaseURL())
			}
			if c.httpClient != customClient {
				t.Error("expected custom client to be used")
			}
			if c.limiter != nil {
				t.Error("expected no limiter when requests per second is zero")
			}
		})

		t.Run("With Empty BaseURL", func(t *testing.T) {
			c := NewClient(ClientOpts{})

			if c.BaseURL() != "http://localhost:8000" {
				t.Errorf("expected default baseURL 'http://localhost:8000', got %s", c.BaseURL())
			}
		})

		t.Run("With Rate Limit", func(t *testing.T) {
			c := NewClient(ClientOpts{RequestsPerSecond: 5})
			if c.limiter == nil {
				t.Error("expected limiter to be configured")
			}
		})
	})

	t.Run("Request", func(t *testing.T) {
		t.Run("Sends Default Headers", func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Content-Type"); got != "application/json" {
					t.Errorf("expected Content-Type application/json, got %q", got)
				}
				if got := r.Header.Get("Cache-Control"); got != "no-store" {
					t.Errorf("expected Cache-Control no-store, got %q", got)
				}
				if got := r.Header.Get("Pragma"); got != "no-cache" {
					t.Errorf("expected Pragma no-cache, got %q", got)
				}
				if got := r.Header.Get("Authorization"); got != "" {
					t.Errorf("expected no Authorization header, got %q", got)
				}
				w.Write([]byte(`{"ok":true}`))
			})

			var out map[string]bool
			if err := c.Request(context.Background(), "/ping", RequestOptions{}, &out); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !out["ok"] {
				t.Errorf("expected decoded body, got %v", out)
			}
		})

		t.Run("Attaches Bearer Token", func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "Bearer abc.def.ghi" {
					t.Errorf("expected bearer token, got %q", got)
				}
				w.WriteHeader(http.StatusNoContent)
			})

			if err := c.Request(context.Background(), "/secure", RequestOptions{Token: "abc.def.ghi"}, nil); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})

		t.Run("Caller Headers Override Content Type", func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Content-Type"); got != "text/plain" {
					t.Errorf("expected overridden Content-Type, got %q", got)
				}
				if got := r.Header.Get("X-Trace"); got != "1" {
					t.Errorf("expected custom header, got %q", got)
				}
			})

			opts := RequestOptions{Method: http.MethodPost, Body: strings.NewReader("hi"), Headers: map[string]string{"content-type": "text/plain", "X-Trace": "1"}}
			if err := c.Request(context.Background(), "/echo", opts, nil); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})

		t.Run("Encodes JSON Body", func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				var body map[string]string
				json.NewDecoder(r.Body).Decode(&body)
				if body["video_id"] != "v1" {
					t.Errorf("expected video_id v1, got %v", body)
				}
			})

			if err := c.IncrementView(context.Background(), "v1"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})

		t.Run("Empty Success Body", func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

			var out map[string]any
			if err := c.Request(context.Background(), "/empty", RequestOptions{}, &out); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out != nil {
				t.Errorf("expected out untouched, got %v", out)
			}
		})
	})

	t.Run("Errors", func(t *testing.T) {
		tc := []struct {
			name   string
			status int
			body   string
			want   string
		}{
			{name: "String Detail", status: 404, body: `{"detail":"Video not found"}`, want: "Video not found"},
			{name: "Structured Detail", status: 422, body: `{"detail":[{"loc":["body","email"],"msg":"invalid"}]}`, want: `[{"loc":["body","email"],"msg":"invalid"}]`},
			{name: "No Detail", status: 500, body: `{"error":"boom"}`, want: `{"error":"boom"}`},
			{name: "Empty Detail", status: 400, body: `{"detail":""}`, want: `{"detail":""}`},
			{name: "Non JSON Body", status: 502, body: `<html>bad gateway</html>`, want: "Bad Gateway"},
			{name: "Empty Body", status: 401, body: ``, want: "Unauthorized"},
			{name: "Unknown Status", status: 599, body: ``, want: "Request failed: 599"},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
					w.Write([]byte(tt.body))
				})

				err := c.Request(context.Background(), "/fail", RequestOptions{}, nil)
				var reqErr *RequestError
				if !errors.As(err, &reqErr) {
					t.Fatalf("expected *RequestError, got %T: %v", err, err)
				}
				if reqErr.Message != tt.want {
					t.Errorf("expected message %q, got %q", tt.want, reqErr.Message)
				}
				if !errors.Is(err, shared.ErrAPIRequest) {
					t.Error("expected error to wrap ErrAPIRequest")
				}
			})
		}

		t.Run("Transport Failure", func(t *testing.T) {
			c := NewClient(ClientOpts{
				BaseURL:    "http://example.com",
				HTTPClient: &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection failed"))},
			})

			err := c.Request(context.Background(), "/x", RequestOptions{}, nil)
			var reqErr *RequestError
			if !errors.As(err, &reqErr) {
				t.Fatalf("expected *RequestError, got %T", err)
			}
			if !strings.Contains(reqErr.Message, "connection failed") {
				t.Errorf("expected transport message, got %q", reqErr.Message)
			}
		})

		t.Run("Failed Response Body Read", func(t *testing.T) {
			c := NewClient(ClientOpts{
				BaseURL: "http://example.com",
				HTTPClient: &http.Client{Transport: tu.NewMockRoundTripper(&http.Response{
					StatusCode: http.StatusOK,
					Body:       &tu.FCloser{},
					Header:     make(http.Header),
				}, nil)},
			})

			err := c.Request(context.Background(), "/x", RequestOptions{}, nil)
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})

		t.Run("Invalid JSON Success Body", func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`not json`))
			})

			var out map[string]any
			err := c.Request(context.Background(), "/x", RequestOptions{}, &out)
			var reqErr *RequestError
			if !errors.As(err, &reqErr) {
				t.Fatalf("expected *RequestError, got %T", err)
			}
		})

		t.Run("Unencodable Body", func(t *testing.T) {
			c := NewClient(ClientOpts{BaseURL: "http://example.com"})
			err := c.Request(context.Background(), "/x", RequestOptions{Method: http.MethodPost, Body: make(chan int)}, nil)
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})

		t.Run("With Canceled Context", func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(50 * time.Millisecond)
			})

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			if err := c.Request(ctx, "/slow", RequestOptions{}, nil); !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})
	})

	t.Run("Raw", func(t *testing.T) {
		t.Run("Get Returns Non 2xx Responses", func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("X-Custom", "value")
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(`{"detail":"missing"}`))
			})

			resp, err := c.Get(context.Background(), "/missing", "")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.OK() {
				t.Error("expected non-OK response")
			}
			if !resp.IsJSON {
				t.Error("expected JSON detection")
			}
			if resp.Headers.Get("X-Custom") != "value" {
				t.Error("expected headers to be preserved")
			}
		})

		t.Run("Post Sends Body", func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				body, _ := io.ReadAll(r.Body)
				if string(body) != `{"a":1}` {
					t.Errorf("unexpected body %s", body)
				}
				if r.Header.Get("Authorization") != "Bearer tok" {
					t.Errorf("expected bearer token")
				}
				w.Write([]byte("plain text"))
			})

			resp, err := c.Post(context.Background(), "/echo", []byte(`{"a":1}`), "tok")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.IsJSON {
				t.Error("expected non-JSON response")
			}
			if string(resp.Body) != "plain text" {
				t.Errorf("unexpected body %q", resp.Body)
			}
		})
	})
}
