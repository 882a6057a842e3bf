// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/bitesized/internal/kv"
)

// ErrStoreFailure is returned by [FStore] for every failing operation.
var ErrStoreFailure = errors.New("store unavailable")

// FStore is a [kv.Store] whose operations fail when the matching flag is set.
//
// Reads and writes that are not set to fail are served from an in-memory map.
type FStore struct {
	FailGet    bool
	FailSet    bool
	FailRemove bool

	mu      sync.Mutex
	data    map[string]string
	Sets    int
	Removes int
}

var _ kv.Store = (*FStore)(nil)

// NewFStore creates an FStore seeded with data.
func NewFStore(data map[string]string) *FStore {
	seeded := make(map[string]string, len(data))
	for k, v := range data {
		seeded[k] = v
	}
	return &FStore{data: seeded}
}

func (f *FStore) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailGet {
		return "", false, ErrStoreFailure
	}
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *FStore) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Sets++
	if f.FailSet {
		return ErrStoreFailure
	}
	if f.data == nil {
		f.data = make(map[string]string)
	}
	f.data[key] = value
	return nil
}

func (f *FStore) Remove(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Removes++
	if f.FailRemove {
		return ErrStoreFailure
	}
	delete(f.data, key)
	return nil
}

// Value returns the raw stored value for key.
func (f *FStore) Value(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
