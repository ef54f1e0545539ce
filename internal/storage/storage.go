package storage

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("key not found")

// Keys under which the dashboard state is persisted. The names match the
// records written by the browser client so an exported profile
// can be loaded as-is.
const (
	KeyCurrentUser = "contentCreatorUser"
	KeyUsers       = "contentCreatorUsers"
	KeyTasks       = "contentCreatorTasks"
	KeyPackages    = "contentCreatorPackages"
	KeyWallet      = "contentCreatorWallet"
	KeyReferrals   = "contentCreatorReferrals"
)

// Store is a string-keyed store of serialized values. Every key is
// independent; there are no multi-key transactions.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

type namespaced struct {
	next   Store
	prefix string
}

// Namespaced prefixes every key with prefix + ":" before delegating. An
// empty prefix returns next unchanged.
func Namespaced(next Store, prefix string) Store {
	if prefix == "" {
		return next
	}
	return &namespaced{next: next, prefix: prefix + ":"}
}

func (n *namespaced) Get(ctx context.Context, key string) ([]byte, error) {
	return n.next.Get(ctx, n.prefix+key)
}

func (n *namespaced) Set(ctx context.Context, key string, value []byte) error {
	return n.next.Set(ctx, n.prefix+key, value)
}

func (n *namespaced) Delete(ctx context.Context, key string) error {
	return n.next.Delete(ctx, n.prefix+key)
}
