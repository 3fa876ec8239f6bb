package cache

import (
	"context"
	"testing"
	"time"
)

func TestFileCacheRoundTrip(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	ctx := context.Background()

	if _, hit, _ := c.Get(ctx, "missing"); hit {
		t.Error("unexpected hit on empty cache")
	}

	if err := c.Set(ctx, "k", []byte("payload"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit {
		t.Fatalf("Get: hit=%v err=%v", hit, err)
	}
	if string(data) != "payload" {
		t.Errorf("Get = %q", data)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("hit after Delete")
	}
	// Deleting again is not an error
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	if err := c.Set(ctx, "k", []byte("v"), time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should be a miss")
	}
}

func TestNullCache(t *testing.T) {
	c := NewNullCache()
	ctx := context.Background()
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("null cache should never hit")
	}
}

func TestKeyerDeterminism(t *testing.T) {
	k := NewDefaultKeyer()

	a := k.TreeKey("abc", TreeKeyOpts{DiagramType: "flowchart", Theme: "default"})
	b := k.TreeKey("abc", TreeKeyOpts{DiagramType: "flowchart", Theme: "default"})
	if a != b {
		t.Error("same inputs must produce the same key")
	}

	c := k.TreeKey("abc", TreeKeyOpts{DiagramType: "sequence", Theme: "default"})
	if a == c {
		t.Error("different diagram types must produce different keys")
	}

	d := k.DocumentKey("abc", DocumentKeyOpts{DiagramType: "flowchart"})
	if a == d {
		t.Error("tree and document keys must not collide")
	}
}
