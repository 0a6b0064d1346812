package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	c, err := NewCache(CacheConfig{DBPath: filepath.Join(t.TempDir(), "cache.db"), TTL: ttl})
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCache_MissThenHit(t *testing.T) {
	c := newTestCache(t, time.Minute)
	ctx := context.Background()

	if _, ok, err := c.Get(ctx, "/api/diff/20240105?page=1"); err != nil || ok {
		t.Fatalf("expected miss, ok=%v err=%v", ok, err)
	}
	if err := c.Put(ctx, "/api/diff/20240105?page=1", []byte(`{"rows":[]}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	body, ok, err := c.Get(ctx, "/api/diff/20240105?page=1")
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if string(body) != `{"rows":[]}` {
		t.Errorf("body = %q", body)
	}
}

func TestCache_Overwrite(t *testing.T) {
	c := newTestCache(t, 0)
	ctx := context.Background()

	c.Put(ctx, "k", []byte("one"))
	c.Put(ctx, "k", []byte("two"))
	body, _, _ := c.Get(ctx, "k")
	if string(body) != "two" {
		t.Errorf("body = %q, want two", body)
	}
}

func TestCache_Expiry(t *testing.T) {
	c := newTestCache(t, time.Minute)
	ctx := context.Background()

	base := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }
	if err := c.Put(ctx, "k", []byte("v")); err != nil {
		t.Fatal(err)
	}

	c.now = func() time.Time { return base.Add(59 * time.Second) }
	if _, ok, _ := c.Get(ctx, "k"); !ok {
		t.Error("entry should still be fresh")
	}

	c.now = func() time.Time { return base.Add(time.Minute) }
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("entry should have expired")
	}

	n, err := c.Purge(ctx)
	if err != nil || n != 1 {
		t.Errorf("Purge = %d, %v; want 1, nil", n, err)
	}
}

func TestCache_NoTTLNeverExpires(t *testing.T) {
	c := newTestCache(t, 0)
	ctx := context.Background()
	c.Put(ctx, "k", []byte("v"))

	c.now = func() time.Time { return time.Now().Add(24 * 365 * time.Hour) }
	if _, ok, _ := c.Get(ctx, "k"); !ok {
		t.Error("entry without TTL must not expire")
	}
	if n, _ := c.Purge(ctx); n != 0 {
		t.Errorf("Purge removed %d rows", n)
	}
}

func TestCache_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	c, err := NewCache(CacheConfig{DBPath: path})
	if err != nil {
		t.Fatal(err)
	}
	c.Put(ctx, "k", []byte("persisted"))
	c.Close()

	c, err = NewCache(CacheConfig{DBPath: path})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	body, ok, _ := c.Get(ctx, "k")
	if !ok || string(body) != "persisted" {
		t.Errorf("after reopen: body=%q ok=%v", body, ok)
	}
}
