// package session owns the active identity and keeps it in sync with the key-value store.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/bitesized/internal/kv"
	"github.com/desertthunder/bitesized/internal/models"
)

var (
	ErrPartialSession = errors.New("session must be fully populated or fully empty")
	ErrInvalidRole    = errors.New("unknown role")
)

// record is the persisted form of a [models.Session]. Absent fields are stored as null.
type record struct {
	Token  *string `json:"token"`
	UserID *string `json:"userId"`
	Role   *string `json:"role"`
	Name   *string `json:"name"`
}

func toRecord(s models.Session) record {
	ptr := func(v string) *string {
		if v == "" {
			return nil
		}
		return &v
	}
	return record{Token: ptr(s.Token), UserID: ptr(s.UserID), Role: ptr(string(s.Role)), Name: ptr(s.Name)}
}

func (r record) session() models.Session {
	val := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}
	return models.Session{Token: val(r.Token), UserID: val(r.UserID), Role: models.Role(val(r.Role)), Name: val(r.Name)}
}

// Manager holds the current [models.Session] and persists every change under [kv.KeyAuth].
//
// When the store fails the manager logs the error and keeps working from memory for the rest of the process.
// Methods are safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	store    kv.Store
	logger   *log.Logger
	current  models.Session
	degraded bool
}

// NewManager hydrates a Manager from store.
//
// An absent record starts logged out. A record that cannot be parsed, or that is only partially populated,
// also starts logged out and is removed from the store.
func NewManager(ctx context.Context, store kv.Store, logger *log.Logger) *Manager {
	m := &Manager{store: store, logger: logger}

	raw, found, err := store.Get(ctx, kv.KeyAuth)
	if err != nil {
		m.degrade("read", err)
		return m
	}
	if !found {
		return m
	}

	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		m.purge(ctx, "unparsable session record", err)
		return m
	}

	loaded := rec.session()
	if err := validate(loaded); err != nil {
		m.purge(ctx, "invalid session record", err)
		return m
	}

	m.current = loaded
	return m
}

// Session returns the current state.
func (m *Manager) Session() models.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Degraded reports whether persistence has been abandoned after a store failure.
func (m *Manager) Degraded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.degraded
}

// Set replaces the session wholesale and persists it.
//
// Partially populated sessions and unknown roles are rejected and leave the current state untouched.
// An empty session is equivalent to [Manager.Clear].
func (m *Manager) Set(ctx context.Context, next models.Session) error {
	if err := validate(next); err != nil {
		return err
	}
	if next.LoggedOut() {
		m.Clear(ctx)
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = next
	if m.degraded {
		return nil
	}

	data, err := json.Marshal(toRecord(next))
	if err != nil {
		m.degradeLocked("encode", err)
		return nil
	}
	if err := m.store.Set(ctx, kv.KeyAuth, string(data)); err != nil {
		m.degradeLocked("write", err)
	}
	return nil
}

// Clear logs out and removes the persisted record.
func (m *Manager) Clear(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = models.Session{}
	if m.degraded {
		return
	}
	if err := m.store.Remove(ctx, kv.KeyAuth); err != nil {
		m.degradeLocked("remove", err)
	}
}

func validate(s models.Session) error {
	if s.Partial() {
		return ErrPartialSession
	}
	if s.LoggedIn() && !s.Role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, s.Role)
	}
	return nil
}

func (m *Manager) purge(ctx context.Context, reason string, err error) {
	m.logger.Warn("discarding stored session", "reason", reason, "error", err)
	if rmErr := m.store.Remove(ctx, kv.KeyAuth); rmErr != nil {
		m.degrade("remove", rmErr)
	}
}

func (m *Manager) degrade(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.degradeLocked(op, err)
}

func (m *Manager) degradeLocked(op string, err error) {
	if !m.degraded {
		m.logger.Warn("session storage failed, keeping session in memory", "op", op, "error", err)
	}
	m.degraded = true
}
