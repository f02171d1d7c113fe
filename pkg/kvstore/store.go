// Package kvstore provides the durable string key-value stores that back the
// result cache.
package kvstore

import "context"

// Store is a string key-value store that survives process restarts.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close flushes and releases the store.
	Close() error
}
