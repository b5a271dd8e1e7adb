// SPDX-License-Identifier: Apache-2.0

// Package cache implements the durable (bootstrap, commit) -> valid?
// mapping described in spec.md §4.D: one embedded database file per
// bootstrap commit, so invalidating one bootstrap's decisions never
// touches another's.
package cache

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/barkvcs/bark/internal/gitinterface"
	bolt "go.etcd.io/bbolt"
)

var decisionsBucket = []byte("decisions")

// FileNamePattern matches the bootstrap-scoped cache file names spec.md §6
// requires the core to recognise under <repo>/.git/bark/cache/.
var FileNamePattern = regexp.MustCompile(`^[0-9a-f]{40}\.db$`)

var (
	trueValue  = []byte{1}
	falseValue = []byte{0}
)

// Cache is a durable, bootstrap-scoped validation decision store. Each Set
// and Remove is committed to disk in its own bbolt transaction before it
// returns; writes are not held in memory until Close. bbolt's own exclusive
// file lock is held for the lifetime of the *bolt.DB handle.
type Cache struct {
	db   *bolt.DB
	path string
}

// Open returns the cache file for bootstrap under dir, creating it if
// necessary. A corrupted file is renamed aside and rebuilt empty, per
// spec.md §9's crash-safety note.
func Open(dir string, bootstrap gitinterface.Hash) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create cache directory '%s': %w", dir, err)
	}

	path := filepath.Join(dir, bootstrap.String()+".db")

	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		slog.Warn("cache file failed to open, rebuilding from scratch", "path", path, "error", err)
		if renameErr := quarantine(path); renameErr != nil {
			return nil, fmt.Errorf("unable to quarantine corrupt cache '%s': %w", path, renameErr)
		}

		db, err = bolt.Open(path, 0o600, nil)
		if err != nil {
			return nil, fmt.Errorf("unable to rebuild cache '%s': %w", path, err)
		}
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(decisionsBucket)
		return err
	}); err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("unable to initialize cache buckets in '%s': %w", path, err)
	}

	return &Cache{db: db, path: path}, nil
}

func quarantine(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return os.Rename(path, path+".corrupt")
}

// Has reports whether any decision has been cached for commit.
func (c *Cache) Has(commit gitinterface.Hash) bool {
	_, known := c.Get(commit)
	return known
}

// Get returns the cached validity of commit and whether a decision exists
// at all. A missing entry reports known=false ("not yet decided").
func (c *Cache) Get(commit gitinterface.Hash) (valid bool, known bool) {
	key := []byte(commit.String())

	_ = c.db.View(func(tx *bolt.Tx) error {
		value := tx.Bucket(decisionsBucket).Get(key)
		if value == nil {
			return nil
		}

		known = true
		valid = bytes.Equal(value, trueValue)
		return nil
	})

	return valid, known
}

// Set records commit's decision. Per spec.md §4.D, set(c, true) is
// monotonic within a bootstrap's lifetime until Remove is explicitly
// called; callers must not call Set(c, false) over an existing true entry.
func (c *Cache) Set(commit gitinterface.Hash, valid bool) error {
	key := []byte(commit.String())
	value := falseValue
	if valid {
		value = trueValue
	}

	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(decisionsBucket).Put(key, value)
	})
}

// Remove clears any cached decision for commit.
func (c *Cache) Remove(commit gitinterface.Hash) error {
	key := []byte(commit.String())

	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(decisionsBucket).Delete(key)
	})
}

// Close releases the file lock. Every write is already on disk by then.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Path returns the on-disk location of the cache file, mostly for logging
// and tests.
func (c *Cache) Path() string {
	return c.path
}
