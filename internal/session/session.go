// Package session holds the single signed-in identity of the dashboard and
// persists it under its own storage key.
package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"sync"

	"github.com/go-faster/errors"

	"github.com/creatorhub/creatorhub/internal/identity"
	"github.com/creatorhub/creatorhub/internal/state"
	"github.com/creatorhub/creatorhub/internal/storage"
)

// Store is either Anonymous (no user) or Authenticated (one user). Login
// and Logout move between the two unconditionally.
type Store struct {
	mu     sync.RWMutex
	store  storage.Store
	user   *identity.User
	logger *slog.Logger
}

// Hydrate restores the persisted user, if any. Unreadable or malformed
// records leave the store Anonymous.
func Hydrate(ctx context.Context, store storage.Store, logger *slog.Logger) *Store {
	s := &Store{store: store, logger: logger}

	raw, err := store.Get(ctx, storage.KeyCurrentUser)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return s
	case err != nil:
		logger.Warn("session.hydrate read failed, starting anonymous", slog.Any("error", err))
		return s
	}

	user, ok := state.ParseOrDefault[*identity.User](raw, nil)
	if !ok || user == nil {
		logger.Warn("session.hydrate malformed user record, starting anonymous", slog.Int("bytes", len(raw)))
		return s
	}
	s.user = user
	return s
}

// Current returns the signed-in user.
func (s *Store) Current() (identity.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return identity.User{}, false
	}
	u := *s.user
	u.ContentCategories = slices.Clone(u.ContentCategories)
	return u, true
}

// SignedIn reports whether a user is present.
func (s *Store) SignedIn() bool {
	_, ok := s.Current()
	return ok
}

// Login makes user the current identity, replacing any previous one, and
// writes it through. The record is stored as given.
func (s *Store) Login(ctx context.Context, user identity.User) error {
	encoded, err := json.Marshal(user)
	if err != nil {
		return errors.Wrap(err, "encode user")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &user
	if err := s.store.Set(ctx, storage.KeyCurrentUser, encoded); err != nil {
		s.logger.Error("session.login persist failed", slog.String("user_id", user.ID), slog.Any("error", err))
		return errors.Wrap(err, "persist session")
	}
	return nil
}

// Logout clears the identity and deletes only the persisted user record.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	if err := s.store.Delete(ctx, storage.KeyCurrentUser); err != nil {
		s.logger.Error("session.logout delete failed", slog.Any("error", err))
		return errors.Wrap(err, "delete session")
	}
	return nil
}
