package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// MockClock implements Clock interface for testing
type MockClock struct {
	mu  sync.RWMutex
	now time.Time
}

func NewMockClock(t time.Time) *MockClock {
	return &MockClock{now: t}
}

func (m *MockClock) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now
}

func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// countingMetrics records eviction totals.
type countingMetrics struct {
	NoOpMetrics
	evicted       atomic.Int64
	activeEvicted atomic.Int64
}

func (m *countingMetrics) RecordEviction(store string, count int) {
	m.evicted.Add(int64(count))
}

func (m *countingMetrics) RecordActiveEviction(store string, count int) {
	m.activeEvicted.Add(int64(count))
}

func TestNewInMemoryWindowStore(t *testing.T) {
	tests := []struct {
		name        string
		config      InMemoryStoreConfig
		wantMaxKeys int
	}{
		{"with valid config", InMemoryStoreConfig{MaxKeys: 5000}, 5000},
		{"with zero max keys should use default", InMemoryStoreConfig{MaxKeys: 0}, 10000},
		{"with negative max keys should use default", InMemoryStoreConfig{MaxKeys: -1}, 10000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewInMemoryWindowStore(tt.config)
			if store.maxKeys != tt.wantMaxKeys {
				t.Errorf("maxKeys = %d, want %d", store.maxKeys, tt.wantMaxKeys)
			}
			if store.metrics == nil {
				t.Error("metrics should default to NoOpMetrics")
			}
			if store.Name() != "memory" {
				t.Errorf("Name() = %q, want memory", store.Name())
			}
		})
	}
}

func TestInMemoryWindowStore_CheckAndIncrement(t *testing.T) {
	ctx := context.Background()
	start := time.Unix(1_700_000_040, 0)
	window := time.Minute

	t.Run("counts up to the limit then rejects", func(t *testing.T) {
		store := NewInMemoryWindowStore(DefaultInMemoryStoreConfig())

		for i := 1; i <= 3; i++ {
			allowed, count, err := store.CheckAndIncrement(ctx, "public:1.2.3.4", start, window, 3)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !allowed || count != i {
				t.Fatalf("call %d: allowed=%v count=%d, want true %d", i, allowed, count, i)
			}
		}

		allowed, count, err := store.CheckAndIncrement(ctx, "public:1.2.3.4", start, window, 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if allowed {
			t.Error("4th call should be rejected")
		}
		if count != 3 {
			t.Errorf("count = %d, want 3 (rejections do not increment)", count)
		}
	})

	t.Run("new window resets the counter", func(t *testing.T) {
		store := NewInMemoryWindowStore(DefaultInMemoryStoreConfig())

		for i := 0; i < 2; i++ {
			_, _, _ = store.CheckAndIncrement(ctx, "k", start, window, 2)
		}
		allowed, _, _ := store.CheckAndIncrement(ctx, "k", start, window, 2)
		if allowed {
			t.Fatal("expected rejection in first window")
		}

		allowed, count, _ := store.CheckAndIncrement(ctx, "k", start.Add(window), window, 2)
		if !allowed || count != 1 {
			t.Errorf("next window: allowed=%v count=%d, want true 1", allowed, count)
		}
	})

	t.Run("record from a later window is reset after clock skew", func(t *testing.T) {
		store := NewInMemoryWindowStore(DefaultInMemoryStoreConfig())

		_, _, _ = store.CheckAndIncrement(ctx, "k", start.Add(window), window, 1)
		allowed, count, _ := store.CheckAndIncrement(ctx, "k", start, window, 1)
		if !allowed || count != 1 {
			t.Errorf("earlier window: allowed=%v count=%d, want true 1", allowed, count)
		}
	})

	t.Run("keys are independent", func(t *testing.T) {
		store := NewInMemoryWindowStore(DefaultInMemoryStoreConfig())

		_, _, _ = store.CheckAndIncrement(ctx, "public:a", start, window, 1)
		allowed, _, _ := store.CheckAndIncrement(ctx, "public:b", start, window, 1)
		if !allowed {
			t.Error("a different key must have its own budget")
		}
		allowed, _, _ = store.CheckAndIncrement(ctx, "ai_heavy:a", start, window, 1)
		if !allowed {
			t.Error("a different class must have its own budget")
		}
	})

	t.Run("zero limit rejects everything", func(t *testing.T) {
		store := NewInMemoryWindowStore(DefaultInMemoryStoreConfig())
		allowed, count, _ := store.CheckAndIncrement(ctx, "k", start, window, 0)
		if allowed || count != 0 {
			t.Errorf("allowed=%v count=%d, want false 0", allowed, count)
		}
	})
}

func TestInMemoryWindowStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryWindowStore(DefaultInMemoryStoreConfig())
	start := time.Unix(1_700_000_040, 0)

	const (
		callers = 200
		limit   = 25
	)

	var (
		wg       sync.WaitGroup
		accepted atomic.Int64
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed, _, err := store.CheckAndIncrement(ctx, "standard:10.0.0.1", start, time.Minute, limit)
			if err == nil && allowed {
				accepted.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := accepted.Load(); got != limit {
		t.Errorf("accepted = %d, want exactly %d", got, limit)
	}
}

func TestInMemoryWindowStore_LRUEviction(t *testing.T) {
	ctx := context.Background()
	metrics := &countingMetrics{}
	store := NewInMemoryWindowStore(InMemoryStoreConfig{MaxKeys: 10, Metrics: metrics})
	start := time.Unix(1_700_000_040, 0)

	for i := 0; i < 10; i++ {
		_, _, _ = store.CheckAndIncrement(ctx, fmt.Sprintf("key-%d", i), start, time.Minute, 5)
	}
	// key-0 becomes most recently used; key-1 is now the eviction candidate.
	_, _, _ = store.CheckAndIncrement(ctx, "key-0", start, time.Minute, 5)
	_, _, _ = store.CheckAndIncrement(ctx, "key-new", start, time.Minute, 5)

	count, _ := store.KeyCount(ctx)
	if count != 10 {
		t.Errorf("KeyCount() = %d, want 10", count)
	}
	if _, ok := store.records["key-1"]; ok {
		t.Error("key-1 should have been evicted")
	}
	if _, ok := store.records["key-0"]; !ok {
		t.Error("key-0 was touched and should survive")
	}
	if metrics.activeEvicted.Load() != 1 || metrics.evicted.Load() != 0 {
		t.Errorf("active evictions = %d, expired evictions = %d, want 1 and 0",
			metrics.activeEvicted.Load(), metrics.evicted.Load())
	}
}

func TestInMemoryWindowStore_EvictionPrefersExpiredRecords(t *testing.T) {
	ctx := context.Background()
	metrics := &countingMetrics{}
	store := NewInMemoryWindowStore(InMemoryStoreConfig{MaxKeys: 10, Metrics: metrics})
	previous := time.Unix(1_700_000_040, 0)
	current := previous.Add(time.Minute)

	// Nine callers from the previous window, then one active caller that
	// spends its whole budget in the current window.
	for i := 0; i < 9; i++ {
		_, _, _ = store.CheckAndIncrement(ctx, fmt.Sprintf("old-%d", i), previous, time.Minute, 5)
	}
	for i := 0; i < 5; i++ {
		if ok, _, _ := store.CheckAndIncrement(ctx, "active", current, time.Minute, 5); !ok {
			t.Fatalf("request %d of the active caller rejected", i+1)
		}
	}

	// A burst of new keys fills the store; the active record must survive
	// because expired ones are available to drop.
	for i := 0; i < 9; i++ {
		_, _, _ = store.CheckAndIncrement(ctx, fmt.Sprintf("new-%d", i), current, time.Minute, 5)
	}

	rec, ok := store.records["active"]
	if !ok {
		t.Fatal("active record was evicted while expired records existed")
	}
	if rec.count != 5 {
		t.Errorf("active count = %d, want 5", rec.count)
	}
	if ok, count, _ := store.CheckAndIncrement(ctx, "active", current, time.Minute, 5); ok || count != 5 {
		t.Errorf("6th request of the active caller = (%v, %d), want (false, 5)", ok, count)
	}
	if metrics.evicted.Load() != 9 {
		t.Errorf("expired evictions = %d, want 9", metrics.evicted.Load())
	}
	if metrics.activeEvicted.Load() != 0 {
		t.Errorf("active evictions = %d, want 0", metrics.activeEvicted.Load())
	}
}

func TestInMemoryWindowStore_KeyRotationDisplacesStaleRecordsFirst(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryWindowStore(InMemoryStoreConfig{MaxKeys: 10})
	previous := time.Unix(1_700_000_040, 0)
	current := previous.Add(time.Minute)

	for i := 0; i < 20; i++ {
		_, _, _ = store.CheckAndIncrement(ctx, fmt.Sprintf("stale-%d", i%9), previous, time.Minute, 5)
	}

	accepted := 0
	for i := 0; i < 5; i++ {
		if ok, _, _ := store.CheckAndIncrement(ctx, "caller", current, time.Minute, 5); ok {
			accepted++
		}
	}
	// Rotating through fresh identities only displaces the stale records.
	for i := 0; i < 8; i++ {
		_, _, _ = store.CheckAndIncrement(ctx, fmt.Sprintf("rotated-%d", i), current, time.Minute, 5)
	}
	for i := 0; i < 5; i++ {
		if ok, _, _ := store.CheckAndIncrement(ctx, "caller", current, time.Minute, 5); ok {
			accepted++
		}
	}

	if accepted != 5 {
		t.Errorf("caller accepted %d requests in one window, want 5", accepted)
	}
}

func TestInMemoryWindowStore_Cleanup(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryWindowStore(DefaultInMemoryStoreConfig())
	start := time.Unix(1_700_000_040, 0)

	_, _, _ = store.CheckAndIncrement(ctx, "old", start, time.Minute, 5)
	_, _, _ = store.CheckAndIncrement(ctx, "current", start.Add(time.Minute), time.Minute, 5)

	removed, err := store.Cleanup(ctx, start.Add(time.Minute+10*time.Second))
	if err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, ok := store.records["current"]; !ok {
		t.Error("record of the active window must survive cleanup")
	}
	if store.lru.head == nil || store.lru.head.key != "current" || store.lru.tail.key != "current" {
		t.Error("LRU list should only contain the surviving key")
	}
}
