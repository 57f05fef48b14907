// Package kv provides a small key-value abstraction for short-lived state:
// single-use OAuth state markers and cached classifier results. Backends
// (Valkey/Redis, in-memory) can be swapped without touching the services.
package kv

import (
	"context"
	"time"
)

// Store defines a minimal key-value interface. Keys are strings, values are
// byte slices. All writes support TTL.
type Store interface {
	// Set stores a value with the given key and TTL.
	// If TTL is 0, the key does not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get retrieves a value by key. Returns ErrNotFound if key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes a key. Returns nil if key doesn't exist.
	Delete(ctx context.Context, key string) error

	// SetNX sets a value only if the key doesn't exist (atomic).
	// Returns true if the key was set, false if it already existed.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// GetDel atomically reads and removes a key. Returns ErrNotFound if the
	// key doesn't exist, so only one caller can ever consume a value.
	GetDel(ctx context.Context, key string) ([]byte, error)

	// Close closes the connection to the store.
	Close() error
}
