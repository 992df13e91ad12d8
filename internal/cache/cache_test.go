package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/donotmiss/internal/model"
)

func TestCacheKey(t *testing.T) {
	a := CacheKey("groq", "llama", "Please review the report")
	b := CacheKey("groq", "llama", "Please review the report")
	c := CacheKey("groq", "llamaPlease review the report")

	if a != b {
		t.Error("expected identical parts to produce identical keys")
	}
	if a == c {
		t.Error("expected part boundaries to affect the key")
	}
	if !strings.HasPrefix(a, "donotmiss:v1:") {
		t.Errorf("unexpected key prefix: %s", a)
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss")
	}

	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	val, ok := c.Get("k")
	if !ok || string(val) != "v" {
		t.Fatalf("expected hit with v, got %q (%v)", val, ok)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", c.Len())
	}

	_ = c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after delete")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	_ = c.Set("k", []byte("v"), 10*time.Millisecond)

	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("expected entry to expire")
	}
}

func TestDiskCache(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	key := CacheKey("text")

	if err := c.Set(key, []byte(`[{"title":"x"}]`), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	val, ok := c.Get(key)
	if !ok || string(val) != `[{"title":"x"}]` {
		t.Fatalf("unexpected value %q (%v)", val, ok)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 || strings.Contains(entries[0].Name(), ":") {
		t.Errorf("expected one sanitized cache file, got %v", entries)
	}

	if err := c.Delete(key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := c.Delete(key); err != nil {
		t.Errorf("Delete of missing key should not fail: %v", err)
	}
}

func TestDiskCache_ExpiredEntryRemoved(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	_ = c.Set("k", []byte("v"), time.Minute)

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected expired entry to miss")
	}
	if _, err := os.Stat(filepath.Join(dir, "k.cache")); !os.IsNotExist(err) {
		t.Errorf("expected expired file to be removed, stat err: %v", err)
	}
}

func TestLayeredCache_Promotion(t *testing.T) {
	memory := NewMemoryCache(time.Minute, time.Minute)
	disk := NewDiskCache(t.TempDir(), time.Hour)
	c := NewLayeredCache(memory, disk)

	_ = disk.Set("k", []byte("v"), 0)

	val, ok := c.Get("k")
	if !ok || string(val) != "v" {
		t.Fatalf("expected disk hit, got %q (%v)", val, ok)
	}
	if _, ok := memory.Get("k"); !ok {
		t.Error("expected hit to be promoted into memory")
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after clear")
	}
}

func TestNew(t *testing.T) {
	if New(model.CacheConfig{Enabled: false}) != nil {
		t.Error("expected nil cache when disabled")
	}

	if _, ok := New(model.CacheConfig{Enabled: true, TTL: 60}).(*MemoryCache); !ok {
		t.Error("expected memory cache without a directory")
	}

	if _, ok := New(model.CacheConfig{Enabled: true, TTL: 60, Dir: t.TempDir()}).(*LayeredCache); !ok {
		t.Error("expected layered cache with a directory")
	}
}
