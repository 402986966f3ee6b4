// Package memory provides in-process storage adapters: an expirable-LRU
// cache store and a slice-backed exchange store. Used by tests and by
// deployments that run without an external store.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/chocolab/ai-gateway/internal/domain"
)

const (
	// DefaultSize bounds the number of cached entries.
	DefaultSize = 4096
	// DefaultMaxTTL is the LRU-wide expiry ceiling. Per-entry TTLs shorter
	// than this are enforced on read.
	DefaultMaxTTL = 7 * 24 * time.Hour
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// CacheStore implements ports.CacheStore over an expirable LRU.
type CacheStore struct {
	lru *expirable.LRU[string, entry]
	now func() time.Time
}

// NewCacheStore creates an in-memory cache store. Zero arguments select
// defaults.
func NewCacheStore(size int, maxTTL time.Duration) *CacheStore {
	if size <= 0 {
		size = DefaultSize
	}
	if maxTTL <= 0 {
		maxTTL = DefaultMaxTTL
	}
	return &CacheStore{
		lru: expirable.NewLRU[string, entry](size, nil, maxTTL),
		now: time.Now,
	}
}

// Get returns the value for key, honoring the per-entry TTL.
func (s *CacheStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := s.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && s.now().After(e.expiresAt) {
		s.lru.Remove(key)
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set stores value under key. A zero TTL means the entry only expires via
// the LRU-wide ceiling.
func (s *CacheStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.lru.Add(key, e)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *CacheStore) Close() error { return nil }

// ExchangeStore implements ports.ExchangeStore in memory.
type ExchangeStore struct {
	mu        sync.Mutex
	exchanges []domain.ChatExchange
}

// NewExchangeStore creates an in-memory exchange store.
func NewExchangeStore() *ExchangeStore {
	return &ExchangeStore{}
}

// SaveExchange appends one exchange record.
func (s *ExchangeStore) SaveExchange(_ context.Context, exchange *domain.ChatExchange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exchanges = append(s.exchanges, *exchange)
	return nil
}

// Exchanges returns a copy of the stored records.
func (s *ExchangeStore) Exchanges() []domain.ChatExchange {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ChatExchange, len(s.exchanges))
	copy(out, s.exchanges)
	return out
}

// Close is a no-op for the in-memory store.
func (s *ExchangeStore) Close() error { return nil }
