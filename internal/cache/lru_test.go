package cache

import (
	"testing"
	"time"
)

func TestLRUCacheGetSet(t *testing.T) {
	c := NewLRUCache[string](2, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("expected a miss for an unknown key")
	}

	c.Set("a", "one")
	if v, ok := c.Get("a"); !ok || v != "one" {
		t.Errorf("Get(a) = %q, %v", v, ok)
	}

	c.Set("a", "two")
	if v, _ := c.Get("a"); v != "two" {
		t.Errorf("Get(a) after overwrite = %q, want %q", v, "two")
	}
	if c.Size() != 1 {
		t.Errorf("Size = %d, want 1", c.Size())
	}
}

func TestLRUCacheEvictsOldest(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // refresh a, making b the eviction candidate
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("expected a to survive eviction")
	}
	if c.Size() != 2 {
		t.Errorf("Size = %d, want 2", c.Size())
	}
}

func TestLRUCacheExpiry(t *testing.T) {
	c := NewLRUCache[string](10, 10*time.Millisecond)

	c.Set("a", "one")
	c.Set("b", "two")
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be expired")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Errorf("CleanExpired = %d, want 1 (a was already removed on access)", n)
	}
	if c.Size() != 0 {
		t.Errorf("Size = %d, want 0", c.Size())
	}
}

func TestLRUCacheDelete(t *testing.T) {
	c := NewLRUCache[string](10, time.Minute)

	c.Set("a", "one")
	c.Delete("a")
	c.Delete("a") // idempotent

	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be gone after Delete")
	}
}

func TestManagerCleansRegisteredCaches(t *testing.T) {
	c := NewLRUCache[string](10, time.Millisecond)
	m := NewManager()
	m.Register(c)

	c.Set("a", "one")
	m.StartCleanup(5 * time.Millisecond)
	time.Sleep(25 * time.Millisecond)
	m.Stop()

	if c.Size() != 0 {
		t.Errorf("Size after cleanup = %d, want 0", c.Size())
	}
}
