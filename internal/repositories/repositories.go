package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/bitesized/internal/kv"
)

// readJSON decodes the document at key into a T. Absent and corrupt documents yield the zero value.
func readJSON[T any](ctx context.Context, store kv.Store, key string) (T, error) {
	var out T
	raw, found, err := store.Get(ctx, key)
	if err != nil {
		return out, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !found || raw == "" {
		return out, nil
	}

	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		var zero T
		return zero, nil
	}
	return out, nil
}

// writeJSON encodes v and stores it at key.
func writeJSON(ctx context.Context, store kv.Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := store.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
