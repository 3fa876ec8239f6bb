package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) Cache {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	c := NewRedisCacheFromClient(client)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRedisCacheRoundTrip(t *testing.T) {
	c := newTestRedis(t)
	ctx := context.Background()

	if _, hit, err := c.Get(ctx, "missing"); hit || err != nil {
		t.Fatalf("empty cache: hit=%v err=%v", hit, err)
	}

	if err := c.Set(ctx, "doc:1", []byte("<mxfile/>"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "doc:1")
	if err != nil || !hit {
		t.Fatalf("Get: hit=%v err=%v", hit, err)
	}
	if string(data) != "<mxfile/>" {
		t.Errorf("Get = %q", data)
	}

	if err := c.Delete(ctx, "doc:1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "doc:1"); hit {
		t.Error("hit after Delete")
	}
}

func TestRedisCacheURL(t *testing.T) {
	srv := miniredis.RunT(t)
	c, err := NewRedisCache(context.Background(), "redis://"+srv.Addr())
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer c.Close()

	if err := c.Set(context.Background(), "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
}

func TestRedisCacheBadURL(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), "not-a-url"); err == nil {
		t.Error("expected error for malformed URL")
	}
}
