// Package state keeps the dashboard's persisted collections in memory and
// writes every change straight back to storage.
package state

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/go-faster/errors"

	"github.com/creatorhub/creatorhub/internal/storage"
)

// ParseOrDefault decodes raw into a T. Empty input, JSON null and anything
// that fails to decode yield def; ok reports whether raw was used.
func ParseOrDefault[T any](raw []byte, def T) (value T, ok bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return def, false
	}
	var v T
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return def, false
	}
	return v, true
}

// ErrUnchanged can be returned by an Update func to leave the value as it
// is without writing to storage. Update then returns nil.
var ErrUnchanged = errors.New("state: unchanged")

// Collection is one independently persisted value (usually a slice of
// records) under a single storage key. Replace and Update are the only
// mutations.
type Collection[T any] struct {
	mu       sync.RWMutex
	store    storage.Store
	key      string
	def      T
	snapshot []byte
	logger   *slog.Logger
}

// Hydrate loads key from store once. A missing, unreadable or malformed
// value falls back to def; the failure is logged, never returned.
func Hydrate[T any](ctx context.Context, store storage.Store, key string, def T, logger *slog.Logger) *Collection[T] {
	c := &Collection[T]{store: store, key: key, def: def, logger: logger}

	value := def
	raw, err := store.Get(ctx, key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		// nothing stored yet
	case err != nil:
		logger.Warn("state.hydrate read failed, using default", slog.String("key", key), slog.Any("error", err))
	default:
		var ok bool
		if value, ok = ParseOrDefault(raw, def); !ok {
			logger.Warn("state.hydrate malformed value, using default", slog.String("key", key), slog.Int("bytes", len(raw)))
		}
	}

	snapshot, err := json.Marshal(value)
	if err != nil {
		// def itself is not encodable; keep an empty snapshot so Get returns def.
		logger.Error("state.hydrate encode failed", slog.String("key", key), slog.Any("error", err))
	}
	c.snapshot = snapshot
	return c
}

// Key returns the storage key backing the collection.
func (c *Collection[T]) Key() string { return c.key }

// Get returns a detached copy of the current value.
func (c *Collection[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, _ := ParseOrDefault(c.snapshot, c.def)
	return v
}

// Replace swaps the whole value and persists it before returning. The
// in-memory value changes even when the write fails; the write error is
// returned so the caller can report it.
func (c *Collection[T]) Replace(ctx context.Context, v T) error {
	encoded, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s", c.key)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = encoded
	if err := c.store.Set(ctx, c.key, encoded); err != nil {
		c.logger.Error("state.replace persist failed", slog.String("key", c.key), slog.Any("error", err))
		return errors.Wrapf(err, "persist %s", c.key)
	}
	return nil
}

// Update runs fn on the current value and stores its result, holding the
// write lock from the read until the write finishes, so concurrent Updates
// on one collection apply one after the other. An error from fn leaves the
// value untouched and is returned as is. A persist failure behaves as in
// Replace.
func (c *Collection[T]) Update(ctx context.Context, fn func(T) (T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, _ := ParseOrDefault(c.snapshot, c.def)
	next, err := fn(current)
	if errors.Is(err, ErrUnchanged) {
		return nil
	}
	if err != nil {
		return err
	}

	encoded, err := json.Marshal(next)
	if err != nil {
		return errors.Wrapf(err, "encode %s", c.key)
	}
	c.snapshot = encoded
	if err := c.store.Set(ctx, c.key, encoded); err != nil {
		c.logger.Error("state.update persist failed", slog.String("key", c.key), slog.Any("error", err))
		return errors.Wrapf(err, "persist %s", c.key)
	}
	return nil
}
