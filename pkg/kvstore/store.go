// Package kvstore provides the key-value persistence used to remember the
// selected identity provider environment between runs.
package kvstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("kvstore: key not found")

// Store is a small byte-oriented key-value store.
type Store interface {
	// Get returns the value stored under key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key.
	Set(ctx context.Context, key string, value []byte) error

	// SetMany stores every entry or none of them.
	SetMany(ctx context.Context, entries map[string][]byte) error
}
