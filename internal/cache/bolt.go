package cache

import (
	"encoding/binary"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

// BoltCache is a persistent Cache backed by a bbolt database file, so
// cached resolutions survive process restarts.
type BoltCache struct {
	db     *bolt.DB
	bucket []byte
	mu     sync.RWMutex
}

// BoltOptions configures a BoltCache.
type BoltOptions struct {
	// Bucket is the name of the bolt bucket to use. Defaults to "chunks".
	Bucket string
}

// Compile-time check that BoltCache implements Cache.
var _ Cache = (*BoltCache)(nil)

// OpenBolt initializes or opens a BoltCache at the given path.
func OpenBolt(path string, opts BoltOptions) (*BoltCache, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	bucket := []byte("chunks")
	if opts.Bucket != "" {
		bucket = []byte(opts.Bucket)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltCache{db: db, bucket: bucket}, nil
}

// Set stores value with an absolute expiration computed as now+ttl.
// If ttl <= 0, the entry never expires.
func (c *BoltCache) Set(key string, value []byte, ttl time.Duration) error {
	expiresAt := int64(0)
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl).UnixNano()
	}
	// Layout: 8 bytes big endian expiresAt || raw value
	buf := make([]byte, 8+len(value))
	binary.BigEndian.PutUint64(buf[:8], uint64(expiresAt))
	copy(buf[8:], value)

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(c.bucket).Put([]byte(key), buf)
	})
}

// Get returns the cached value if present and not expired.
func (c *BoltCache) Get(key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []byte
	var expired bool
	var exists bool
	if err := c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(c.bucket).Get([]byte(key))
		if v == nil {
			return nil
		}
		exists = true
		expiresAt := int64(binary.BigEndian.Uint64(v[:8]))
		if expiresAt > 0 && time.Now().UnixNano() > expiresAt {
			expired = true
			return nil
		}
		out = append([]byte(nil), v[8:]...)
		return nil
	}); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}
	if expired {
		return nil, ErrExpired
	}
	return out, nil
}

// Delete removes a key.
func (c *BoltCache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(c.bucket).Delete([]byte(key))
	})
}

// Close closes the underlying database.
func (c *BoltCache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}
