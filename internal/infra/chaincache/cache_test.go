package chaincache

import (
	"context"
	"testing"
	"time"

	"proofstamp/internal/domain"
)

func TestCachePutGet(t *testing.T) {
	c := New()
	ctx := context.Background()
	rec := domain.ChainRecord{Hash: "0xaa", Timestamp: 1700000000, Owner: "0xowner"}

	if err := c.Put(ctx, "0xaa", rec, time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := c.Get(ctx, "0xaa")
	if err != nil || !ok {
		t.Fatalf("Get = (%v, %v, %v), want hit", got, ok, err)
	}
	if *got != rec {
		t.Fatalf("got %+v, want %+v", *got, rec)
	}
}

func TestCacheMiss(t *testing.T) {
	c := New()
	_, ok, err := c.Get(context.Background(), "0xmissing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("unexpected hit for absent key")
	}
}

func TestCacheExpiry(t *testing.T) {
	c := New()
	ctx := context.Background()
	if err := c.Put(ctx, "0xaa", domain.ChainRecord{Timestamp: 1}, time.Nanosecond); err != nil {
		t.Fatalf("Put: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, ok, _ := c.Get(ctx, "0xaa"); ok {
		t.Fatal("expired entry still served")
	}
}

func TestCacheZeroTTLNeverExpires(t *testing.T) {
	c := New()
	ctx := context.Background()
	if err := c.Put(ctx, "0xaa", domain.ChainRecord{Timestamp: 1}, 0); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "0xaa"); !ok {
		t.Fatal("zero-TTL entry evicted")
	}
}

func TestNilCacheIsSafe(t *testing.T) {
	var c *Cache
	if _, ok, err := c.Get(context.Background(), "0xaa"); ok || err != nil {
		t.Fatalf("nil cache Get = (%v, %v)", ok, err)
	}
	if err := c.Put(context.Background(), "0xaa", domain.ChainRecord{}, 0); err != nil {
		t.Fatalf("nil cache Put: %v", err)
	}
}
