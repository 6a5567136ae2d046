package cache

import (
	"strings"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newClock() *fakeClock { return &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)} }

// TestLRUCacheEviction tests size-based eviction
func TestLRUCacheEviction(t *testing.T) {
	c := NewLRUCache[string](3, time.Hour)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")
	c.Get("key1")           // key1 becomes most recent
	c.Set("key4", "value4") // evicts key2

	if _, found := c.Get("key2"); found {
		t.Error("key2 should have been evicted")
	}
	for _, k := range []string{"key1", "key3", "key4"} {
		if _, found := c.Get(k); !found {
			t.Errorf("%s should still exist", k)
		}
	}
	if c.Size() != 3 {
		t.Fatalf("size = %d", c.Size())
	}
}

// TestLRUCacheTTLExpiration tests time-based expiration
func TestLRUCacheTTLExpiration(t *testing.T) {
	clock := newClock()
	c := NewLRUCache[string](100, 5*time.Minute)
	c.now = clock.now

	c.Set("key1", "value1")
	clock.advance(4 * time.Minute)
	if _, found := c.Get("key1"); !found {
		t.Fatal("key1 should still be fresh")
	}
	clock.advance(time.Minute)
	if _, found := c.Get("key1"); found {
		t.Fatal("key1 should have expired")
	}
}

func TestLRUCacheCleanExpired(t *testing.T) {
	clock := newClock()
	c := NewLRUCache[int](10, time.Minute)
	c.now = clock.now

	c.Set("old1", 1)
	c.Set("old2", 2)
	clock.advance(30 * time.Second)
	c.Set("new", 3)
	clock.advance(45 * time.Second)

	if n := c.CleanExpired(); n != 2 {
		t.Fatalf("cleaned %d, want 2", n)
	}
	if c.Size() != 1 {
		t.Fatalf("size = %d", c.Size())
	}
}

func TestLRUCacheDeleteFunc(t *testing.T) {
	c := NewLRUCache[int](10, time.Hour)
	c.Set("accounts", 1)
	c.Set("operations:{}", 2)
	c.Set("operations:{\"limit\":5}", 3)
	c.Set("operations-x", 4)

	n := c.DeleteFunc(func(k string) bool { return belongsTo(k, "operations") })
	if n != 2 {
		t.Fatalf("removed %d, want 2", n)
	}
	if _, ok := c.Get("operations-x"); !ok {
		t.Fatal("similar prefix must survive")
	}
	c.Clear()
	if c.Size() != 0 {
		t.Fatal("clear left entries")
	}
}

func TestKey(t *testing.T) {
	type params struct {
		From  string   `json:"from"`
		Accts []string `json:"accounts"`
	}
	a := Key("filtered-operations", params{From: "2025-01-01", Accts: []string{"a"}})
	b := Key("filtered-operations", params{From: "2025-01-01", Accts: []string{"a"}})
	if a != b {
		t.Fatalf("keys differ: %s %s", a, b)
	}
	if !strings.HasPrefix(a, "filtered-operations:") {
		t.Fatalf("key = %s", a)
	}
	if Key("accounts", nil) != "accounts" {
		t.Fatalf("nil params key = %s", Key("accounts", nil))
	}
	m1 := Key("q", map[string]int{"b": 1, "a": 2})
	m2 := Key("q", map[string]int{"a": 2, "b": 1})
	if m1 != m2 {
		t.Fatalf("map keys not canonical: %s %s", m1, m2)
	}
}

func TestManagerSweep(t *testing.T) {
	clock := newClock()
	c := NewLRUCache[int](10, time.Minute)
	c.now = clock.now
	c.Set("a", 1)
	clock.advance(2 * time.Minute)

	m := NewManager(nil)
	m.Register(c)
	if n := m.Sweep(); n != 1 {
		t.Fatalf("swept %d", n)
	}
	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}
