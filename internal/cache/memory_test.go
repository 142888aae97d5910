package cache

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryStoreGetSet(t *testing.T) {
	store := NewMemoryStore(10, 0)
	defer store.Close()
	ctx := context.Background()

	if _, ok, _ := store.Get(ctx, "view:dashboard:2024"); ok {
		t.Error("empty store should miss")
	}

	if err := store.Set(ctx, "view:dashboard:2024", []byte(`{"net":1}`), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	raw, ok, err := store.Get(ctx, "view:dashboard:2024")
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v; want hit", ok, err)
	}
	if string(raw) != `{"net":1}` {
		t.Errorf("value = %s", raw)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(10, 0)
	defer store.Close()
	ctx := context.Background()

	store.Set(ctx, "view:trend:2024", []byte("x"), -time.Second)
	if _, ok, _ := store.Get(ctx, "view:trend:2024"); ok {
		t.Error("expired entry should miss")
	}
	if store.Size() != 0 {
		t.Errorf("size = %d, want lazy expiry to drop the entry", store.Size())
	}
}

func TestMemoryStoreEviction(t *testing.T) {
	store := NewMemoryStore(2, 0)
	defer store.Close()
	ctx := context.Background()

	store.Set(ctx, "a", []byte("1"), time.Minute)
	store.Set(ctx, "b", []byte("2"), time.Minute)
	store.Get(ctx, "a") // refresh a so b is the eviction candidate
	store.Set(ctx, "c", []byte("3"), time.Minute)

	if _, ok, _ := store.Get(ctx, "b"); ok {
		t.Error("least recently used entry should be evicted")
	}
	if _, ok, _ := store.Get(ctx, "a"); !ok {
		t.Error("recently used entry should survive")
	}
	if store.Size() != 2 {
		t.Errorf("size = %d, want 2", store.Size())
	}
}

func TestMemoryStoreDeletePrefix(t *testing.T) {
	store := NewMemoryStore(10, 0)
	defer store.Close()
	ctx := context.Background()

	store.Set(ctx, Key(PrefixTrend, "2024"), []byte("a"), time.Minute)
	store.Set(ctx, Key(PrefixTrend, "2023"), []byte("b"), time.Minute)
	store.Set(ctx, Key(PrefixBalance, "current"), []byte("c"), time.Minute)

	removed, err := store.DeletePrefix(ctx, PrefixTrend)
	if err != nil {
		t.Fatalf("DeletePrefix: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if _, ok, _ := store.Get(ctx, Key(PrefixBalance, "current")); !ok {
		t.Error("unrelated prefix should survive")
	}
}

func TestMemoryStoreJanitor(t *testing.T) {
	store := NewMemoryStore(10, 5*time.Millisecond)
	defer store.Close()
	ctx := context.Background()

	store.Set(ctx, "short", []byte("x"), time.Millisecond)
	store.Set(ctx, "long", []byte("y"), time.Minute)

	deadline := time.Now().Add(time.Second)
	for store.Size() > 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if store.Size() != 1 {
		t.Errorf("size = %d, want janitor to reap the expired entry", store.Size())
	}
}

func TestMemoryStoreConcurrentClose(t *testing.T) {
	store := NewMemoryStore(10, 5*time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.Close(); err != nil {
				t.Errorf("Close: %v", err)
			}
		}()
	}
	wg.Wait()

	// The store stays usable after the janitor is gone.
	ctx := context.Background()
	if err := store.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set after Close: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "k"); !ok {
		t.Error("want hit after Close")
	}
}
