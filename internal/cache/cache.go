// Package cache implements the content-addressed artifact cache (spec
// §4.5): compact-JSON responses keyed by BLAKE3(file bytes) + a
// query-tag, written atomically and read back verbatim on a hit (I4).
package cache

import (
	"encoding/hex"
	"os"
	"path/filepath"

	"lukechampine.com/blake3"

	"github.com/owayo/astro-sight/internal/errs"
)

// Cache is a directory-backed key-value store for compact JSON blobs.
type Cache struct {
	root string
}

// New returns a Cache rooted at dir. The directory is created lazily
// on first write.
func New(dir string) *Cache {
	return &Cache{root: dir}
}

// ContentHash returns the hex BLAKE3 digest of file bytes, the first
// component of every CacheKey.
func ContentHash(content []byte) string {
	sum := blake3.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func (c *Cache) pathFor(hash, tag string) string {
	if len(hash) < 2 {
		hash = hash + "00"
	}
	return filepath.Join(c.root, hash[:2], hash+"."+tag+".json")
}

// Get returns the cached bytes for (hash, tag), or (nil, false) on a
// miss. A corrupt or unreadable entry is treated as a miss (spec §4.5
// policy); it is not removed here — the subsequent Put overwrites it.
func (c *Cache) Get(hash, tag string) ([]byte, bool) {
	b, err := os.ReadFile(c.pathFor(hash, tag))
	if err != nil {
		return nil, false
	}
	return b, true
}

// Put writes data under (hash, tag) via temp-file + atomic rename, so
// concurrent writers for the same key only ever leave a complete file
// in place (I4).
func (c *Cache) Put(hash, tag string, data []byte) error {
	dir := filepath.Join(c.root, prefixOf(hash))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrap(errs.CacheError, err, "cannot create cache directory %s", dir)
	}
	final := c.pathFor(hash, tag)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errs.Wrap(errs.CacheError, err, "cannot write cache entry %s", tmp)
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return errs.Wrap(errs.CacheError, err, "cannot finalize cache entry %s", final)
	}
	return nil
}

func prefixOf(hash string) string {
	if len(hash) < 2 {
		return "00"
	}
	return hash[:2]
}
