package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestLRUCache_SetAndGet(t *testing.T) {
	c := NewLRUCache[string](10, time.Minute)

	c.Set("a", "alpha")
	got, ok := c.Get("a")
	if !ok {
		t.Fatal("Expected hit for key 'a'")
	}
	if got != "alpha" {
		t.Errorf("Expected 'alpha', got %q", got)
	}
}

func TestLRUCache_MissReturnsZero(t *testing.T) {
	c := NewLRUCache[string](10, time.Minute)

	got, ok := c.Get("missing")
	if ok {
		t.Error("Expected miss for absent key")
	}
	if got != "" {
		t.Errorf("Expected zero value, got %q", got)
	}
}

func TestLRUCache_TTLExpiry(t *testing.T) {
	c := NewLRUCache[int](10, 10*time.Millisecond)

	c.Set("n", 42)
	if _, ok := c.Get("n"); !ok {
		t.Fatal("Expected hit before expiry")
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("n"); ok {
		t.Error("Expected miss after TTL expired")
	}
	if c.Size() != 0 {
		t.Errorf("Expected expired entry removed, size %d", c.Size())
	}
}

func TestLRUCache_EvictsOldestAtCapacity(t *testing.T) {
	c := NewLRUCache[int](3, time.Minute)

	for i := 0; i < 4; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
	}

	if c.Size() != 3 {
		t.Fatalf("Expected size 3, got %d", c.Size())
	}
	if _, ok := c.Get("k0"); ok {
		t.Error("Expected oldest key evicted")
	}
	if _, ok := c.Get("k3"); !ok {
		t.Error("Expected newest key present")
	}
}

func TestLRUCache_GetRefreshesRecency(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	// Touch "a" so "b" becomes the eviction candidate
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("a"); !ok {
		t.Error("Expected recently used key to survive")
	}
	if _, ok := c.Get("b"); ok {
		t.Error("Expected least recently used key to be evicted")
	}
}

func TestLRUCache_SetOverwrites(t *testing.T) {
	c := NewLRUCache[string](10, time.Minute)

	c.Set("a", "one")
	c.Set("a", "two")

	got, _ := c.Get("a")
	if got != "two" {
		t.Errorf("Expected overwrite to 'two', got %q", got)
	}
	if c.Size() != 1 {
		t.Errorf("Expected size 1, got %d", c.Size())
	}
}

func TestLRUCache_Delete(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)

	c.Set("a", 1)
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("Expected deleted key to miss")
	}

	// Deleting an absent key is a no-op
	c.Delete("missing")
}

func TestLRUCache_DeletePrefix(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)

	c.Set(AccountsAllKey("u1"), 1)
	c.Set(AccountKey("u1", 3), 2)
	c.Set(AccountsAllKey("u2"), 3)
	c.Set(TransactionsListKey("u1", "all"), 4)

	removed := c.DeletePrefix(AccountsPrefix("u1"))
	if removed != 2 {
		t.Errorf("Expected 2 removals, got %d", removed)
	}

	if _, ok := c.Get(AccountsAllKey("u1")); ok {
		t.Error("Expected u1 account list invalidated")
	}
	if _, ok := c.Get(AccountsAllKey("u2")); !ok {
		t.Error("Expected u2 account list untouched")
	}
	if _, ok := c.Get(TransactionsListKey("u1", "all")); !ok {
		t.Error("Expected u1 transaction list untouched")
	}
}

func TestLRUCache_CleanExpired(t *testing.T) {
	c := NewLRUCache[int](10, 10*time.Millisecond)

	c.Set("a", 1)
	c.Set("b", 2)
	time.Sleep(20 * time.Millisecond)
	c.Set("c", 3)

	removed := c.CleanExpired()
	if removed != 2 {
		t.Errorf("Expected 2 expired entries removed, got %d", removed)
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("Expected fresh entry to survive cleanup")
	}
}

func TestLRUCache_ConcurrentAccess(t *testing.T) {
	c := NewLRUCache[int](100, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("k%d", j%20)
				c.Set(key, n)
				c.Get(key)
				if j%10 == 0 {
					c.DeletePrefix("k1")
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestManager_CleansRegisteredCaches(t *testing.T) {
	c := NewLRUCache[int](10, 5*time.Millisecond)
	m := NewManager()
	m.Register(c)
	m.StartCleanup(10 * time.Millisecond)
	defer m.Stop()

	c.Set("a", 1)
	time.Sleep(40 * time.Millisecond)

	if c.Size() != 0 {
		t.Errorf("Expected background cleanup to remove expired entry, size %d", c.Size())
	}
}
