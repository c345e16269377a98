// Package prefs provides the application-scoped key-value medium that backs
// the preference-store backend.
package prefs

import "context"

// Store is a namespaced string key-value store. Each Put replaces the whole
// value of a single key atomically.
type Store interface {
	// Get returns the value stored under key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
	// Close releases the underlying connection.
	Close() error
}

// Drivers.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)
