// Package cache provides the caching layer for pagination results.
//
// A [Cache] stores opaque byte slices under string keys with an optional
// TTL. Keys are produced by a [Keyer] so that every component derives them
// the same way: a plan is cached under the hash of its document plus the
// hash of the parameters it was paginated with.
//
// Backends:
//   - [FileCache]: one JSON file per entry, for the CLI
//   - [RedisCache]: shared cache for the HTTP server
//   - [NullCache]: caching disabled
//
// Wrap any backend with [NewObserved] to report hits, misses and writes to
// the observability hooks.
package cache

import (
	"context"
	"time"
)

// Default TTLs per cached kind.
const (
	// TTLPlan is how long a paginated plan stays cached. Plans are pure
	// functions of their key, so the TTL only bounds disk usage.
	TTLPlan = 7 * 24 * time.Hour

	// TTLKeys is how long a required-key enumeration stays cached.
	TTLKeys = 7 * 24 * time.Hour

	// TTLArtifact is how long rendered routing graphs stay cached.
	TTLArtifact = 30 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}
