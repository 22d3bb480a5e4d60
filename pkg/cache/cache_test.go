package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestSetGet(t *testing.T) {
	c := NewTTLCache(time.Minute, 0, 0)
	defer c.Stop()

	c.Set("geocode:kuala lumpur", "result")

	got, found := c.Get("geocode:kuala lumpur")
	if !found {
		t.Fatal("expected to find cached item")
	}
	if got != "result" {
		t.Errorf("got %v, want result", got)
	}

	if _, found := c.Get("missing"); found {
		t.Error("expected miss for absent key")
	}
}

func TestExpiration(t *testing.T) {
	c := NewTTLCache(time.Minute, 0, 0)
	defer c.Stop()

	c.SetWithTTL("short", "value", 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	if _, found := c.Get("short"); found {
		t.Error("expected item to expire")
	}
	if c.Count() != 0 {
		t.Errorf("expired item should be removed on Get, count=%d", c.Count())
	}
}

func TestNoExpiration(t *testing.T) {
	c := NewTTLCache(0, 0, 0)
	defer c.Stop()

	c.Set("forever", "value")
	if _, found := c.Get("forever"); !found {
		t.Error("item with zero TTL should not expire")
	}
}

func TestDeleteAndClear(t *testing.T) {
	c := NewTTLCache(time.Minute, 0, 0)
	defer c.Stop()

	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	if _, found := c.Get("a"); found {
		t.Error("deleted item should not be found")
	}

	c.Clear()
	if c.Count() != 0 {
		t.Errorf("count after Clear = %d, want 0", c.Count())
	}
}

func TestEviction(t *testing.T) {
	c := NewTTLCache(time.Minute, 0, 3)
	defer c.Stop()

	// Earlier items get earlier expirations, so they evict first.
	for i := 0; i < 5; i++ {
		c.SetWithTTL(fmt.Sprintf("k%d", i), i, time.Duration(i+1)*time.Minute)
	}

	if c.Count() != 3 {
		t.Fatalf("count = %d, want 3", c.Count())
	}
	if _, found := c.Get("k0"); found {
		t.Error("oldest item should have been evicted")
	}
	if _, found := c.Get("k4"); !found {
		t.Error("newest item should remain")
	}
}

func TestDeleteExpired(t *testing.T) {
	c := NewTTLCache(time.Minute, 0, 0)
	defer c.Stop()

	c.SetWithTTL("stale", "v", time.Nanosecond)
	c.Set("fresh", "v")
	time.Sleep(time.Millisecond)

	c.deleteExpired()

	if c.Count() != 1 {
		t.Errorf("count = %d, want 1", c.Count())
	}
}

func TestStopIdempotent(t *testing.T) {
	c := NewTTLCache(time.Minute, time.Minute, 0)
	c.Stop()
	c.Stop() // must not panic
}
