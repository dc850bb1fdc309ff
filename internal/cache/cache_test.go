package cache_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"finance-analytics/internal/cache"

	"go.uber.org/zap"
)

func TestDeriveKey_OrderIndependent(t *testing.T) {
	a := cache.DeriveKey("p", map[string]any{"a": 1, "b": 2})
	b := cache.DeriveKey("p", map[string]any{"b": 2, "a": 1})
	c := cache.DeriveKey("p", map[string]any{"a": 1, "b": 3})
	if a != b {
		t.Errorf("same params in different order gave %q and %q", a, b)
	}
	if a == c {
		t.Errorf("different params gave the same key %q", a)
	}
	if !strings.HasPrefix(a, "p:") {
		t.Errorf("key %q lacks prefix", a)
	}
}

func TestDeriveKey_Properties(t *testing.T) {
	t.Run("fixed length", func(t *testing.T) {
		short := cache.DeriveKey("x", nil)
		long := cache.DeriveKey("x", map[string]any{"forecast_days": 365, "top_n": 50, "note": strings.Repeat("z", 500)})
		if len(short) != len(long) {
			t.Errorf("key lengths differ: %d vs %d", len(short), len(long))
		}
	})
	t.Run("nil equals empty", func(t *testing.T) {
		if cache.DeriveKey("x", nil) != cache.DeriveKey("x", map[string]any{}) {
			t.Error("nil and empty params should give the same key")
		}
	})
	t.Run("numbers by value", func(t *testing.T) {
		if cache.DeriveKey("x", map[string]any{"top_n": 10}) != cache.DeriveKey("x", map[string]any{"top_n": 10.0}) {
			t.Error("10 and 10.0 should give the same key")
		}
	})
	t.Run("prefix matters", func(t *testing.T) {
		if cache.DeriveKey("x", nil) == cache.DeriveKey("y", nil) {
			t.Error("different prefixes should give different keys")
		}
	})
	t.Run("nested maps sorted", func(t *testing.T) {
		a := cache.DeriveKey("x", map[string]any{"f": map[string]any{"m": 1, "n": 2}})
		b := cache.DeriveKey("x", map[string]any{"f": map[string]any{"n": 2, "m": 1}})
		if a != b {
			t.Error("nested maps should be order independent")
		}
	})
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemory_LazyExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 21, 0, 0, 0, 0, time.UTC)}
	mem := cache.NewMemory(cache.WithClock(clock.Now))
	c := cache.New(mem, time.Minute, zap.NewNop())
	ctx := context.Background()

	if !c.Set(ctx, "k", []byte("v")) {
		t.Fatal("Set failed")
	}
	if got, ok := c.Get(ctx, "k"); !ok || string(got) != "v" {
		t.Fatalf("Get = %q, %v", got, ok)
	}

	clock.Advance(59 * time.Second)
	if _, ok := c.Get(ctx, "k"); !ok {
		t.Fatal("entry expired early")
	}

	clock.Advance(time.Second)
	stats, _ := mem.Stats(ctx)
	if stats["entries"] != 1 {
		t.Fatalf("expired entry should linger until read, stats = %v", stats)
	}
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("entry should be expired")
	}
	stats, _ = mem.Stats(ctx)
	if stats["entries"] != 0 {
		t.Errorf("expired entry should be evicted on read, stats = %v", stats)
	}
}

func TestCache_JSONAndClear(t *testing.T) {
	c := cache.New(cache.NewMemory(), 0, nil)
	ctx := context.Background()
	if c.TTL() != cache.DefaultTTL {
		t.Errorf("TTL = %v, want default", c.TTL())
	}

	type payload struct{ N int }
	if !c.SetJSON(ctx, "a", payload{N: 7}) {
		t.Fatal("SetJSON failed")
	}
	var got payload
	if !c.GetJSON(ctx, "a", &got) || got.N != 7 {
		t.Fatalf("GetJSON = %+v", got)
	}

	c.Set(ctx, "bad", []byte("{not json"))
	if c.GetJSON(ctx, "bad", &got) {
		t.Error("undecodable entry should be a miss")
	}
	if _, ok := c.Get(ctx, "bad"); ok {
		t.Error("undecodable entry should be evicted")
	}

	if !c.Delete(ctx, "a") {
		t.Error("Delete failed")
	}
	c.Set(ctx, "b", []byte("1"))
	if !c.Clear(ctx) {
		t.Error("Clear failed")
	}
	if _, ok := c.Get(ctx, "b"); ok {
		t.Error("Clear left entries behind")
	}

	info := c.Info(ctx)
	if info.Backend != "memory" || info.Hits != 2 || info.Misses != 2 {
		t.Errorf("Info = %+v", info)
	}
}

type brokenBackend struct{}

var errDown = errors.New("connection refused")

func (brokenBackend) Name() string { return "broken" }
func (brokenBackend) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errDown
}
func (brokenBackend) Set(context.Context, string, []byte, time.Duration) error { return errDown }
func (brokenBackend) Delete(context.Context, string) error                    { return errDown }
func (brokenBackend) Clear(context.Context) error                             { return errDown }
func (brokenBackend) Stats(context.Context) (map[string]any, error)           { return nil, errDown }

func TestCache_BackendFaultsDegrade(t *testing.T) {
	c := cache.New(brokenBackend{}, time.Minute, zap.NewNop())
	ctx := context.Background()

	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("faulty Get should be a miss")
	}
	if c.Set(ctx, "k", []byte("v")) {
		t.Error("faulty Set should report false")
	}
	if c.Delete(ctx, "k") || c.Clear(ctx) {
		t.Error("faulty Delete/Clear should report false")
	}
	if info := c.Info(ctx); info.Error == "" {
		t.Error("Info should surface the stats fault")
	}
}

func TestRedis_Integration(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set, skipping integration test")
	}
	ctx := context.Background()
	r, err := cache.DialRedis(ctx, cache.RedisOptions{Addr: addr, DB: 15}, zap.NewNop())
	if err != nil {
		t.Fatalf("DialRedis: %v", err)
	}
	defer r.Close()

	c := cache.New(r, time.Minute, zap.NewNop())
	if !c.Clear(ctx) {
		t.Fatal("Clear failed")
	}
	key := cache.DeriveKey("analysis:test", map[string]any{"top_n": 3})
	if !c.Set(ctx, key, []byte(`{"ok":true}`)) {
		t.Fatal("Set failed")
	}
	if got, ok := c.Get(ctx, key); !ok || string(got) != `{"ok":true}` {
		t.Fatalf("Get = %q, %v", got, ok)
	}
	if info := c.Info(ctx); info.Backend != "redis" || info.Stats["used_memory"] == "" {
		t.Errorf("Info = %+v", info)
	}
}

func TestDialRedis_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := cache.DialRedis(ctx, cache.RedisOptions{Addr: "127.0.0.1:1"}, zap.NewNop()); err == nil {
		t.Error("expected an error for an unreachable server")
	}
}
