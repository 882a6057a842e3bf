// package kv implements the persisted key-value store that backs local state
package kv

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Storage keys for local state. Values are JSON-encoded strings.
const (
	KeyAuth        = "bite-sized-auth"
	KeyLocalUsers  = "bite-sized-local-users"
	KeyPlaylist    = "bite-sized-playlist"
	KeyHistoryTags = "bite-sized-history-tags"
)

// ErrStoreClosed is returned by [MemoryStore] after Close.
var ErrStoreClosed = errors.New("store closed")

// Store is a string key-value store. Absent keys are reported through the found flag, never as errors.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// MemoryStore is a mutex-guarded map used for tests and as the fallback when no durable backend is available.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]string
	closed bool
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (m *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return "", false, ErrStoreClosed
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStoreClosed
	}
	m.data[key] = value
	return nil
}

func (m *MemoryStore) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStoreClosed
	}
	delete(m.data, key)
	return nil
}

// Close makes every later call fail with [ErrStoreClosed].
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Keys returns the stored keys in no particular order.
func (m *MemoryStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys
}

func wrap(op, key string, err error) error {
	return fmt.Errorf("kv %s %q: %w", op, key, err)
}
