// Package cache provides the pluggable result cache used by the chunk
// resolver. Implementations store raw bytes under string keys with a
// per-entry TTL; a TTL of zero or less means the entry never expires.
package cache

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("cache: not found")
	ErrExpired  = errors.New("cache: expired")
)

// Cache is a byte-oriented KV cache. Implementations are safe for
// concurrent use by multiple goroutines.
type Cache interface {
	// Get returns the cached value if present and not expired.
	// It returns ErrNotFound for missing keys and ErrExpired for
	// entries whose TTL has elapsed.
	Get(key string) ([]byte, error)

	// Set stores value under key with an absolute expiration computed
	// as now+ttl. If ttl <= 0 the entry never expires.
	Set(key string, value []byte, ttl time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(key string) error

	// Close releases any resources held by the cache.
	Close() error
}
