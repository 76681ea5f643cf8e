package cache

import (
	"context"
	"io"
	"testing"
	"time"

	"caseledger/internal/log"

	"github.com/alicebob/miniredis/v2"
)

type summary struct {
	Principal string `json:"principal"`
	Count     int    `json:"count"`
}

func newTestRedisCache(t *testing.T, ttl time.Duration) (*RedisCache[summary], *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), mr.Addr())
	if err != nil {
		t.Fatalf("NewRedisClient: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return NewRedisCache[summary](client, "summary:", ttl, log.New(log.Config{Output: io.Discard})), mr
}

func TestRedisCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedisCache(t, time.Minute)

	if _, ok := c.Get(ctx, "case-1"); ok {
		t.Fatal("expected miss")
	}
	c.Set(ctx, "case-1", summary{Principal: "100.50", Count: 3})
	if !mr.Exists("summary:case-1") {
		t.Fatal("value should be stored under the prefix")
	}
	got, ok := c.Get(ctx, "case-1")
	if !ok || got.Principal != "100.50" || got.Count != 3 {
		t.Fatalf("Get = %+v, %v", got, ok)
	}

	c.Delete(ctx, "case-1")
	if _, ok := c.Get(ctx, "case-1"); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestRedisCache_TTL(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedisCache(t, time.Minute)

	c.Set(ctx, "case-1", summary{Count: 1})
	if ttl := mr.TTL("summary:case-1"); ttl != time.Minute {
		t.Fatalf("TTL = %v, want 1m", ttl)
	}
	mr.FastForward(2 * time.Minute)
	if _, ok := c.Get(ctx, "case-1"); ok {
		t.Fatal("expected expired entry to miss")
	}
}

func TestRedisCache_BadPayloadIsMiss(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedisCache(t, time.Minute)

	if err := mr.Set("summary:case-1", "not json"); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get(ctx, "case-1"); ok {
		t.Fatal("undecodable value should be a miss")
	}
	if mr.Exists("summary:case-1") {
		t.Fatal("undecodable value should be dropped")
	}
}

func TestRedisCache_ServerDownIsMiss(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedisCache(t, time.Minute)
	c.Set(ctx, "case-1", summary{Count: 1})
	mr.Close()

	if _, ok := c.Get(ctx, "case-1"); ok {
		t.Fatal("expected miss when redis is unreachable")
	}
	c.Set(ctx, "case-2", summary{})
	c.Delete(ctx, "case-2")
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := NewRedisClient(ctx, "127.0.0.1:1"); err == nil {
		t.Fatal("expected ping error")
	}
}
