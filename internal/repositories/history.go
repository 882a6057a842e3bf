package repositories

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/desertthunder/bitesized/internal/kv"
)

// MaxHistoryTags bounds the recently seen tag list.
const MaxHistoryTags = 20

// HistoryRepository persists recently seen tags under [kv.KeyHistoryTags], oldest first.
type HistoryRepository struct {
	mu    sync.Mutex
	store kv.Store
}

// NewHistoryRepository creates a new HistoryRepository backed by store
func NewHistoryRepository(store kv.Store) *HistoryRepository {
	return &HistoryRepository{store: store}
}

// List returns the recorded tags, oldest first.
func (r *HistoryRepository) List(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

// Record appends tags as the most recently seen. A tag already present moves to the newest position,
// and the oldest tags are evicted once more than [MaxHistoryTags] remain. Blank tags are ignored.
func (r *HistoryRepository) Record(ctx context.Context, tags ...string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	next := MergeTags(existing, tags...)
	if err := writeJSON(ctx, r.store, kv.KeyHistoryTags, next); err != nil {
		return nil, err
	}
	return next, nil
}

// MergeTags returns existing with tags moved to or appended at the end, de-duplicated and trimmed to the newest
// [MaxHistoryTags].
func MergeTags(existing []string, tags ...string) []string {
	next := make([]string, 0, len(existing)+len(tags))
	for _, tag := range existing {
		if tag = strings.TrimSpace(tag); tag != "" && !slices.Contains(next, tag) {
			next = append(next, tag)
		}
	}

	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if i := slices.Index(next, tag); i >= 0 {
			next = slices.Delete(next, i, i+1)
		}
		next = append(next, tag)
	}

	if len(next) > MaxHistoryTags {
		next = next[len(next)-MaxHistoryTags:]
	}
	return next
}

func (r *HistoryRepository) load(ctx context.Context) ([]string, error) {
	tags, err := readJSON[[]string](ctx, r.store, kv.KeyHistoryTags)
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}
