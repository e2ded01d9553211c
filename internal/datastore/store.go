// Package datastore provides hierarchical JSON documents, one per namespace, addressed by path segments.
//
// A namespace is created lazily by a Factory and initialised with a seed document the first time it is
// requested. Later requests for the same namespace on the same backend see the same data, so handles built
// repeatedly over one namespace share state.
package datastore

import (
	"context"
	"errors"
)

var (
	// ErrNotObject is returned when a path walks through a value that is not a JSON object.
	ErrNotObject = errors.New("datastore: path traverses a non-object value")
	// ErrNamespaceNotFound is returned when the backing record for a namespace has disappeared.
	ErrNamespaceNotFound = errors.New("datastore: namespace not found")
	// ErrConflict is returned when an optimistic write kept losing to concurrent writers.
	ErrConflict = errors.New("datastore: concurrent modification")
)

// Store reads and writes values inside one namespace document.
type Store interface {
	// Get decodes the value at key into out. It returns false, nil when nothing is stored there.
	// An empty key addresses the whole document.
	Get(ctx context.Context, key []string, out any) (bool, error)
	// Set stores value at key, creating intermediate objects as needed.
	Set(ctx context.Context, key []string, value any) error
	// Delete removes the value at key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key []string) error
}

// Factory returns the Store for namespace name, creating it with seed when it does not exist yet.
// seed must encode to a JSON object.
type Factory func(ctx context.Context, name string, seed any) (Store, error)
