package cache

import (
	"testing"
	"time"
)

func TestCache_GetSet(t *testing.T) {
	c := New[string](4, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss for unknown key")
	}

	c.Set("k", "v")
	got, ok := c.Get("k")
	if !ok {
		t.Fatal("expected hit after set")
	}
	if got != "v" {
		t.Errorf("expected 'v', got %q", got)
	}
}

func TestCache_NilSafe(t *testing.T) {
	var c *Cache[int]
	if _, ok := c.Get("k"); ok {
		t.Error("nil cache should always miss")
	}
	c.Set("k", 1) // must not panic
}

func TestCache_Expiry(t *testing.T) {
	c := New[int](4, 20*time.Millisecond)
	c.Set("k", 42)
	time.Sleep(50 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("expected entry to expire")
	}
}

func TestKey_DistinguishesParts(t *testing.T) {
	a := Key("breathe", "tense", "dump text")
	b := Key("breathe", "tense", "other dump")
	if a == b {
		t.Error("keys with different parts must differ")
	}
	if a != Key("breathe", "tense", "dump text") {
		t.Error("identical inputs must produce identical keys")
	}
	if Key("breathe", "x") == Key("reflect", "x") {
		t.Error("endpoint must be part of the key")
	}
}
