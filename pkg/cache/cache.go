package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired
var ErrMiss = errors.New("cache miss")

// Store caches completion texts keyed by normalized user input
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Key derives a fixed-length cache key from normalized user text
func Key(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Item represents a cached item with expiration
type Item struct {
	Value      string
	Expiration int64
}

// Expired checks if the cache item has expired at now (unix nanos)
func (item Item) Expired(now int64) bool {
	if item.Expiration == 0 {
		return false
	}
	return now > item.Expiration
}

// MemoryStore is a thread-safe in-memory Store with expiration
type MemoryStore struct {
	items             map[string]Item
	mu                sync.RWMutex
	defaultExpiration time.Duration
	maxItems          int
	now               func() time.Time
	stop              chan struct{}
	stopOnce          sync.Once
}

// NewMemoryStore creates a store with the given TTL, size bound and cleanup interval
func NewMemoryStore(ttl time.Duration, maxItems int, cleanupInterval time.Duration) *MemoryStore {
	m := &MemoryStore{
		items:             make(map[string]Item),
		defaultExpiration: ttl,
		maxItems:          maxItems,
		now:               time.Now,
		stop:              make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go m.startCleanupTimer(cleanupInterval)
	}

	return m
}

// Get retrieves an item from the cache
func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, found := m.items[key]
	if !found || item.Expired(m.now().UnixNano()) {
		return "", ErrMiss
	}
	return item.Value, nil
}

// Set adds an item to the cache with the default expiration
func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	var exp int64
	if m.defaultExpiration > 0 {
		exp = m.now().Add(m.defaultExpiration).UnixNano()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.items[key]; !exists && m.maxItems > 0 && len(m.items) >= m.maxItems {
		m.evictOldest()
	}

	m.items[key] = Item{Value: value, Expiration: exp}
	return nil
}

// Count returns the number of items in the cache (including expired items)
func (m *MemoryStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.items)
}

// Close stops the cleanup goroutine
func (m *MemoryStore) Close() error {
	m.stopOnce.Do(func() { close(m.stop) })
	return nil
}

func (m *MemoryStore) startCleanupTimer(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.deleteExpired()
		case <-m.stop:
			return
		}
	}
}

func (m *MemoryStore) deleteExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UnixNano()
	for k, v := range m.items {
		if v.Expired(now) {
			delete(m.items, k)
		}
	}
}

// evictOldest removes the item closest to expiry; caller holds the lock
func (m *MemoryStore) evictOldest() {
	var oldestKey string
	var oldestTime int64
	first := true

	for k, v := range m.items {
		if first || v.Expiration < oldestTime {
			oldestKey = k
			oldestTime = v.Expiration
			first = false
		}
	}

	if oldestKey != "" {
		delete(m.items, oldestKey)
	}
}
