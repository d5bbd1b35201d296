package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// InMemoryWindowStore is a thread-safe in-memory WindowStore.
//
// Each key holds one fixed-window counter. Memory is bounded by MaxKeys:
// when a new key would exceed it, records whose window has already ended
// are dropped first. Only when none have ended are the least recently used
// 10% of live records evicted; an evicted caller starts its window again
// from zero. Expired records are also removed by Cleanup.
type InMemoryWindowStore struct {
	mu      sync.Mutex
	records map[string]*windowRecord
	maxKeys int
	metrics RateLimitMetrics

	// LRU tracking
	lru *lruList
}

// windowRecord is the counter of one key.
type windowRecord struct {
	count       int
	windowStart time.Time
	expiresAt   time.Time
}

// lruList maintains a doubly-linked list of keys ordered by last access time.
type lruList struct {
	head *lruNode
	tail *lruNode
	keys map[string]*lruNode
}

type lruNode struct {
	key  string
	prev *lruNode
	next *lruNode
}

// InMemoryStoreConfig holds configuration for InMemoryWindowStore.
type InMemoryStoreConfig struct {
	// MaxKeys bounds the number of tracked keys.
	// Default: 10000
	MaxKeys int

	// Metrics receives eviction counts.
	// Default: NoOpMetrics
	Metrics RateLimitMetrics
}

// DefaultInMemoryStoreConfig returns the default configuration.
func DefaultInMemoryStoreConfig() InMemoryStoreConfig {
	return InMemoryStoreConfig{
		MaxKeys: 10000,
		Metrics: &NoOpMetrics{},
	}
}

// NewInMemoryWindowStore creates a new in-memory store with the given configuration.
func NewInMemoryWindowStore(config InMemoryStoreConfig) *InMemoryWindowStore {
	if config.MaxKeys <= 0 {
		config.MaxKeys = 10000
	}
	if config.Metrics == nil {
		config.Metrics = &NoOpMetrics{}
	}

	return &InMemoryWindowStore{
		records: make(map[string]*windowRecord),
		maxKeys: config.MaxKeys,
		metrics: config.Metrics,
		lru:     &lruList{keys: make(map[string]*lruNode)},
	}
}

// Name implements WindowStore.
func (s *InMemoryWindowStore) Name() string {
	return "memory"
}

// CheckAndIncrement implements WindowStore.
//
// The lookup, window reset, comparison and increment run under a single
// lock acquisition.
func (s *InMemoryWindowStore) CheckAndIncrement(ctx context.Context, key string, windowStart time.Time, window time.Duration, limit int) (bool, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.records[key]
	if !exists {
		if len(s.records) >= s.maxKeys {
			s.evict(windowStart)
		}
		rec = &windowRecord{}
		s.records[key] = rec
	}
	if !exists || !rec.windowStart.Equal(windowStart) {
		// New key, or a record left over from another window (including a
		// later one after a backwards clock step).
		rec.count = 0
		rec.windowStart = windowStart
		rec.expiresAt = windowStart.Add(window)
	}
	s.lru.touch(key)

	if rec.count >= limit {
		return false, rec.count, nil
	}
	rec.count++
	return true, rec.count, nil
}

// Cleanup implements MaintainableStore.
func (s *InMemoryWindowStore) Cleanup(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, rec := range s.records {
		if !rec.expiresAt.After(now) {
			delete(s.records, key)
			s.lru.remove(key)
			removed++
		}
	}
	return removed, nil
}

// KeyCount implements MaintainableStore.
func (s *InMemoryWindowStore) KeyCount(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records), nil
}

// evict makes room for one key. Records that ended at or before
// windowStart cannot affect any current decision and go first. Live
// records are evicted only when nothing has ended.
//
// Must be called while holding the lock.
func (s *InMemoryWindowStore) evict(windowStart time.Time) {
	expired := 0
	for node := s.lru.tail; node != nil; {
		prev := node.prev
		if rec := s.records[node.key]; rec == nil || !rec.expiresAt.After(windowStart) {
			delete(s.records, node.key)
			s.lru.remove(node.key)
			expired++
		}
		node = prev
	}
	if expired > 0 {
		s.metrics.RecordEviction(s.Name(), expired)
		return
	}

	want := max(s.maxKeys/10, 1)
	live := 0
	for live < want && s.lru.tail != nil {
		key := s.lru.tail.key
		delete(s.records, key)
		s.lru.remove(key)
		live++
	}
	s.metrics.RecordActiveEviction(s.Name(), live)
	slog.Warn("rate limit store full of active windows, evicting live records",
		slog.String("store", s.Name()),
		slog.Int("max_keys", s.maxKeys),
		slog.Int("evicted", live))
}

// touch moves key to the front (most recently used) of the list.
func (l *lruList) touch(key string) {
	if _, exists := l.keys[key]; exists {
		l.remove(key)
	}

	node := &lruNode{key: key, next: l.head}
	if l.head != nil {
		l.head.prev = node
	}
	l.head = node
	if l.tail == nil {
		l.tail = node
	}
	l.keys[key] = node
}

func (l *lruList) remove(key string) {
	node, exists := l.keys[key]
	if !exists {
		return
	}

	if node.prev != nil {
		node.prev.next = node.next
	} else {
		l.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		l.tail = node.prev
	}

	delete(l.keys, key)
}
