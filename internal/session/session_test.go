package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/creatorhub/creatorhub/internal/identity"
	"github.com/creatorhub/creatorhub/internal/logging"
	"github.com/creatorhub/creatorhub/internal/storage"
)

func TestHydrateWithNothingStoredIsAnonymous(t *testing.T) {
	s := Hydrate(context.Background(), storage.NewMemory(), logging.Discard())
	if _, ok := s.Current(); ok {
		t.Fatalf("expected anonymous session")
	}
	if s.SignedIn() {
		t.Fatalf("expected SignedIn to be false")
	}
}

func TestLoginPersistsAndRestores(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	s := Hydrate(ctx, store, logging.Discard())

	user := identity.DemoUser(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	if err := s.Login(ctx, user); err != nil {
		t.Fatalf("login: %v", err)
	}

	restored := Hydrate(ctx, store, logging.Discard())
	got, ok := restored.Current()
	if !ok {
		t.Fatalf("expected restored session")
	}
	if got.ID != user.ID || got.ReferralCode != "DEMO123" || !got.JoinedDate.Equal(user.JoinedDate) {
		t.Fatalf("unexpected restored user %+v", got)
	}
}

func TestSecondLoginReplacesFirst(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	s := Hydrate(ctx, store, logging.Discard())

	if err := s.Login(ctx, identity.User{ID: "u1", Email: "one@creator.com"}); err != nil {
		t.Fatalf("login u1: %v", err)
	}
	if err := s.Login(ctx, identity.User{ID: "u2", Email: "two@creator.com"}); err != nil {
		t.Fatalf("login u2: %v", err)
	}

	got, ok := s.Current()
	if !ok || got.ID != "u2" {
		t.Fatalf("expected u2, got %+v", got)
	}
	if restored, _ := Hydrate(ctx, store, logging.Discard()).Current(); restored.ID != "u2" {
		t.Fatalf("expected persisted u2, got %+v", restored)
	}
}

func TestLogoutDeletesOnlyUserRecord(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	if err := store.Set(ctx, storage.KeyTasks, []byte(`[{"id":"1"}]`)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s := Hydrate(ctx, store, logging.Discard())
	if err := s.Login(ctx, identity.User{ID: "u1"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := s.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if s.SignedIn() {
		t.Fatalf("expected anonymous after logout")
	}
	if _, err := store.Get(ctx, storage.KeyCurrentUser); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected user record deleted, got %v", err)
	}
	if raw, err := store.Get(ctx, storage.KeyTasks); err != nil || string(raw) != `[{"id":"1"}]` {
		t.Fatalf("expected tasks untouched, got %q, %v", raw, err)
	}

	// logging out twice is harmless
	if err := s.Logout(ctx); err != nil {
		t.Fatalf("second logout: %v", err)
	}
}

func TestHydrateMalformedUserIsAnonymous(t *testing.T) {
	ctx := context.Background()
	for _, raw := range []string{"{broken", "null", `"just a string"`} {
		store := storage.NewMemory()
		if err := store.Set(ctx, storage.KeyCurrentUser, []byte(raw)); err != nil {
			t.Fatalf("seed: %v", err)
		}
		if Hydrate(ctx, store, logging.Discard()).SignedIn() {
			t.Fatalf("expected anonymous for %q", raw)
		}
	}
}

func TestCurrentReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := Hydrate(ctx, storage.NewMemory(), logging.Discard())
	_ = s.Login(ctx, identity.User{ID: "u1", ContentCategories: []string{"Music"}})

	u, _ := s.Current()
	u.ContentCategories[0] = "Changed"
	u.Name = "Changed"

	again, _ := s.Current()
	if again.ContentCategories[0] != "Music" || again.Name != "" {
		t.Fatalf("caller edits leaked into the session: %+v", again)
	}
}
