// Package storage provides the durable key-value store that session state
// (token pair, cached user) survives process restarts in. Values are opaque
// JSON-encoded byte slices under fixed keys.
package storage

import "errors"

// ErrNotFound is returned by Get when no value is persisted under the key.
var ErrNotFound = errors.New("storage: key not found")

// Store is the durable key-value storage contract.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(key string) ([]byte, error)

	// Set persists value under key, replacing any previous value.
	Set(key string, value []byte) error

	// Delete removes the value stored under key. Deleting an absent key is
	// not an error.
	Delete(key string) error
}
