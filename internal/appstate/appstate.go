// Package appstate assembles every persisted piece of dashboard state into
// one value that is hydrated once at startup and passed to the handlers.
package appstate

import (
	"context"
	"log/slog"

	"github.com/creatorhub/creatorhub/internal/identity"
	"github.com/creatorhub/creatorhub/internal/packages"
	"github.com/creatorhub/creatorhub/internal/referrals"
	"github.com/creatorhub/creatorhub/internal/session"
	"github.com/creatorhub/creatorhub/internal/state"
	"github.com/creatorhub/creatorhub/internal/storage"
	"github.com/creatorhub/creatorhub/internal/tasks"
	"github.com/creatorhub/creatorhub/internal/wallet"
)

// State is the session plus the entity collections. The collections are
// shared by whoever is signed in; logging out does not clear them.
type State struct {
	Session   *session.Store
	Directory *identity.Directory
	Tasks     *state.Collection[[]tasks.Task]
	Packages  *state.Collection[[]packages.Package]
	Wallet    *state.Collection[wallet.Wallet]
	Referrals *state.Collection[[]referrals.Referral]
}

// Hydrate reads every key from store. Missing or malformed values fall back
// to their defaults, so Hydrate cannot fail.
func Hydrate(ctx context.Context, store storage.Store, logger *slog.Logger) *State {
	s := &State{
		Session:   session.Hydrate(ctx, store, logger),
		Directory: identity.NewDirectory(state.Hydrate(ctx, store, storage.KeyUsers, []identity.User{}, logger)),
		Tasks:     state.Hydrate(ctx, store, storage.KeyTasks, []tasks.Task{}, logger),
		Packages:  state.Hydrate(ctx, store, storage.KeyPackages, []packages.Package{}, logger),
		Wallet:    state.Hydrate(ctx, store, storage.KeyWallet, wallet.Zero(), logger),
		Referrals: state.Hydrate(ctx, store, storage.KeyReferrals, []referrals.Referral{}, logger),
	}

	user, signedIn := s.Session.Current()
	logger.Info("state hydrated",
		slog.Bool("signed_in", signedIn),
		slog.String("user_id", user.ID),
		slog.Int("users", len(s.Directory.Users())),
		slog.Int("tasks", len(s.Tasks.Get())),
		slog.Int("packages", len(s.Packages.Get())),
		slog.Int("referrals", len(s.Referrals.Get())),
	)
	return s
}
