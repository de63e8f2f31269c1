package caching

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCache_SetGet(t *testing.T) {
	c, err := NewCache(filepath.Join(t.TempDir(), "cache"), time.Hour)
	if err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}

	key := Key([]byte("run"), []byte("(1,P,sports)"))
	if _, ok := c.Get(key); ok {
		t.Fatal("Get() hit on empty cache")
	}

	if err := c.Set(key, []byte("totals")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	data, ok := c.Get(key)
	if !ok {
		t.Fatal("Get() missed after Set")
	}
	if string(data) != "totals" {
		t.Errorf("Get() = %q, want totals", data)
	}
}

func TestCache_Expired(t *testing.T) {
	dir := t.TempDir()
	c, err := NewCache(dir, time.Minute)
	if err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}

	key := Key([]byte("old"))
	if err := c.Set(key, []byte("stale")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(filepath.Join(dir, key), old, old); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}

	if _, ok := c.Get(key); ok {
		t.Error("Get() hit on expired entry")
	}
}

func TestCache_ZeroTTLNeverExpires(t *testing.T) {
	dir := t.TempDir()
	c, err := NewCache(dir, 0)
	if err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}

	key := Key([]byte("k"))
	if err := c.Set(key, []byte("v")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	old := time.Now().Add(-24 * time.Hour)
	if err := os.Chtimes(filepath.Join(dir, key), old, old); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}

	if _, ok := c.Get(key); !ok {
		t.Error("Get() missed with zero TTL")
	}
}

func TestKey(t *testing.T) {
	if Key([]byte("ab"), []byte("c")) == Key([]byte("a"), []byte("bc")) {
		t.Error("Key() ignores part boundaries")
	}
	if Key([]byte("x")) != Key([]byte("x")) {
		t.Error("Key() is not deterministic")
	}
}
