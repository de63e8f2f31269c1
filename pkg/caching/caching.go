package caching

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Cache stores run results on disk, one file per content-hash key.
// Entries older than ttl are ignored. A zero ttl keeps entries forever.
type Cache struct {
	dir string
	ttl time.Duration
}

// NewCache opens the cache rooted at dir, creating it when missing.
func NewCache(dir string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir %s: %w", dir, err)
	}
	return &Cache{dir: dir, ttl: ttl}, nil
}

// Key hashes parts into a hex sha256 key. Parts are length-prefixed so
// ("ab","c") and ("a","bc") differ.
func Key(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		fmt.Fprintf(h, "%d:", len(p))
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Cache) entry(key string) string {
	return filepath.Join(c.dir, key)
}

// Get returns the bytes stored under key. A missing, stale or unreadable
// entry reports false.
func (c *Cache) Get(key string) ([]byte, bool) {
	name := c.entry(key)

	info, err := os.Stat(name)
	if err != nil {
		return nil, false
	}
	if c.ttl > 0 && time.Since(info.ModTime()) > c.ttl {
		return nil, false
	}

	data, err := os.ReadFile(name)
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set stores data under key, replacing any earlier entry.
func (c *Cache) Set(key string, data []byte) error {
	if err := os.WriteFile(c.entry(key), data, 0644); err != nil {
		return fmt.Errorf("write cache entry %s: %w", key, err)
	}
	return nil
}
