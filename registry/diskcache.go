package registry

import (
	"encoding/json"
	"time"

	bolt "go.etcd.io/bbolt"
)

var manifestBucket = []byte("manifests")

// DiskCache is an optional persistent manifest cache backing a Client across
// process restarts — the in-memory LRU caches on Client are scoped to one
// Build Session's lifetime (spec.md §3), but a long-running host embedding
// this library (the CLI's `serve` command, or a daemon) benefits from not
// re-fetching the registry for every fresh session. Grounded on the
// teacher's storage.DBConn contract (server/storage/db.go): a small
// key-value record store opened once per process, adapted here from its
// generic Store map to a single bolt.DB file keyed by "name@version".
type DiskCache struct {
	db *bolt.DB
}

// OpenDiskCache opens (creating if absent) a bolt database at path for
// persistent manifest storage.
func OpenDiskCache(path string) (*DiskCache, error) {
	db, err := bolt.Open(path, 0644, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(manifestBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &DiskCache{db: db}, nil
}

// Close releases the underlying file handle.
func (c *DiskCache) Close() error { return c.db.Close() }

// Get returns the manifest stored for "name@version", if any.
func (c *DiskCache) Get(cacheKey string) (*Manifest, bool) {
	var m Manifest
	found := false
	_ = c.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(manifestBucket).Get([]byte(cacheKey))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &m); err != nil {
			return nil
		}
		found = true
		return nil
	})
	if !found {
		return nil, false
	}
	return &m, true
}

// Put persists a manifest under "name@version".
func (c *DiskCache) Put(cacheKey string, m *Manifest) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(manifestBucket).Put([]byte(cacheKey), data)
	})
}
