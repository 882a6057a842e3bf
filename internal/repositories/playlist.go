package repositories

import (
	"context"
	"slices"
	"sync"

	"github.com/desertthunder/bitesized/internal/kv"
	"github.com/desertthunder/bitesized/internal/models"
)

// PlaylistRepository persists the local playlist under [kv.KeyPlaylist].
type PlaylistRepository struct {
	mu    sync.Mutex
	store kv.Store
}

// NewPlaylistRepository creates a new PlaylistRepository backed by store
func NewPlaylistRepository(store kv.Store) *PlaylistRepository {
	return &PlaylistRepository{store: store}
}

// List returns the saved entries in the order they were saved.
func (r *PlaylistRepository) List(ctx context.Context) ([]models.PlaylistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

// Contains reports whether an entry with id is saved.
func (r *PlaylistRepository) Contains(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.load(ctx)
	if err != nil {
		return false, err
	}
	return indexOf(entries, id) >= 0, nil
}

// Toggle removes the entry with the same id when present, otherwise appends entry.
//
// saved reports the state after the call.
func (r *PlaylistRepository) Toggle(ctx context.Context, entry models.PlaylistEntry) (saved bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.load(ctx)
	if err != nil {
		return false, err
	}

	if i := indexOf(entries, entry.ID); i >= 0 {
		entries = slices.Delete(entries, i, i+1)
	} else {
		if entry.Tags == nil {
			entry.Tags = []string{}
		}
		entries = append(entries, entry)
		saved = true
	}

	if err := writeJSON(ctx, r.store, kv.KeyPlaylist, entries); err != nil {
		return false, err
	}
	return saved, nil
}

// Clear empties the playlist.
func (r *PlaylistRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return writeJSON(ctx, r.store, kv.KeyPlaylist, []models.PlaylistEntry{})
}

func (r *PlaylistRepository) load(ctx context.Context) ([]models.PlaylistEntry, error) {
	entries, err := readJSON[[]models.PlaylistEntry](ctx, r.store, kv.KeyPlaylist)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.PlaylistEntry{}
	}
	return entries, nil
}

func indexOf(entries []models.PlaylistEntry, id string) int {
	return slices.IndexFunc(entries, func(e models.PlaylistEntry) bool { return e.ID == id })
}
