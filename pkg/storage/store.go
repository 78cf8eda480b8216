// Package storage holds the durable key/value stores that back the
// dashboard's client-local state: recent searches and the session token.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("storage: key not found")

// Store is a string key/value store. Values are opaque to the store; callers
// serialize their own JSON.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type namespaced struct {
	prefix string
	inner  Store
}

// Namespace scopes every key of inner under prefix. The dashboard server uses
// it to give each browser session its own keys on a shared backend.
func Namespace(inner Store, prefix string) Store {
	return &namespaced{prefix: prefix, inner: inner}
}

func (n *namespaced) Get(ctx context.Context, key string) (string, error) {
	return n.inner.Get(ctx, n.prefix+key)
}

func (n *namespaced) Set(ctx context.Context, key, value string) error {
	return n.inner.Set(ctx, n.prefix+key, value)
}

func (n *namespaced) Delete(ctx context.Context, key string) error {
	return n.inner.Delete(ctx, n.prefix+key)
}
