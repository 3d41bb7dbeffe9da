package cache

import (
	"testing"
	"time"
)

func TestTTLCache(t *testing.T) {
	c := NewTTL[int](time.Minute)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if _, ok := c.Get("k"); ok {
		t.Fatalf("empty cache must miss")
	}

	c.Set("k", 42)
	if v, ok := c.Get("k"); !ok || v != 42 {
		t.Fatalf("expected hit with 42, got %v %v", v, ok)
	}

	now = now.Add(61 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expired entry must miss")
	}
}

func TestTTLCacheInvalidate(t *testing.T) {
	c := NewTTL[string](time.Minute)
	c.Set("a", "x")
	c.Invalidate()
	if _, ok := c.Get("a"); ok {
		t.Fatalf("invalidated cache must miss")
	}
}
