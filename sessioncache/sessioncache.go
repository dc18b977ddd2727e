// Package sessioncache persists splunkd session keys in a local boltdb file
// so that repeated CLI invocations reuse a login instead of hitting the auth
// endpoint every time. Keys are stored per host and user; stale keys are the
// caller's problem (the server rejects them and the caller re-logs-in).
package sessioncache

import (
	"time"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
)

var keyBucket = []byte("sessionKeys")

// Cache is a boltdb-backed session key store.
type Cache struct {
	db *bolt.DB
}

// Open opens (or creates) the cache file.
func Open(filename string) (*Cache, error) {
	db, err := bolt.Open(filename, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "opening cache file '%v'", filename)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(keyBucket)
		return errors.Wrap(err, "creating sessionKeys bucket")
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Cache{db: db}, nil
}

func cacheKey(host, user string) []byte {
	return []byte(user + "@" + host)
}

// Get returns the cached session key for host and user, or "" if there is
// none.
func (c *Cache) Get(host, user string) (string, error) {
	var key string
	err := c.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(keyBucket).Get(cacheKey(host, user)); v != nil {
			key = string(v)
		}
		return nil
	})
	return key, errors.Wrap(err, "reading session key")
}

// Put stores the session key for host and user, replacing any previous one.
func (c *Cache) Put(host, user, sessionKey string) error {
	err := c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(keyBucket).Put(cacheKey(host, user), []byte(sessionKey))
	})
	return errors.Wrap(err, "storing session key")
}

// Delete drops the cached session key for host and user, if any.
func (c *Cache) Delete(host, user string) error {
	err := c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(keyBucket).Delete(cacheKey(host, user))
	})
	return errors.Wrap(err, "deleting session key")
}

// Close syncs and closes the underlying boltdb.
func (c *Cache) Close() error {
	if err := c.db.Sync(); err != nil {
		return errors.Wrap(err, "syncing db")
	}
	return c.db.Close()
}
