// Package cache wraps the external key-value store with fail-soft
// get/set-with-TTL semantics. Store failures are logged and treated as
// misses; they never propagate to the caller.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/chocolab/ai-gateway/internal/core/ports"
)

// ResponseCache is a thin fail-soft layer over a CacheStore.
type ResponseCache struct {
	store  ports.CacheStore
	logger *slog.Logger
}

// Option configures the cache.
type Option func(*ResponseCache)

// WithLogger sets the logger for degraded-path warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *ResponseCache) {
		c.logger = logger
	}
}

// New creates a response cache. A nil store is permitted; every read then
// misses and every write is a no-op.
func New(store ports.CacheStore, opts ...Option) *ResponseCache {
	c := &ResponseCache{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached string for key, or false on absence or any store
// error.
func (c *ResponseCache) Get(ctx context.Context, key string) (string, bool) {
	raw, ok := c.GetRaw(ctx, key)
	if !ok {
		return "", false
	}
	return string(raw), true
}

// GetRaw returns the cached bytes for key, or false on absence or any store
// error.
func (c *ResponseCache) GetRaw(ctx context.Context, key string) ([]byte, bool) {
	if c.store == nil {
		return nil, false
	}
	value, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed, treating as miss",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return nil, false
	}
	return value, ok
}

// Set stores a string value with a TTL. Store errors are logged and dropped.
func (c *ResponseCache) Set(ctx context.Context, key, value string, ttl time.Duration) {
	c.SetRaw(ctx, key, []byte(value), ttl)
}

// SetRaw stores bytes with a TTL. Store errors are logged and dropped.
func (c *ResponseCache) SetRaw(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if c.store == nil {
		return
	}
	if err := c.store.Set(ctx, key, value, ttl); err != nil {
		c.logger.Warn("cache write failed, skipping",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
}

// TranslationKey derives a stable cache key from the translation inputs.
// Identical requests collapse to the same key regardless of call order.
// Fields are length-prefixed so values containing any delimiter cannot
// collide with a different field split.
func TranslationKey(text, targetLanguage, domain string) string {
	h := sha256.New()
	for _, field := range []string{targetLanguage, domain, text} {
		fmt.Fprintf(h, "%d:%s", len(field), field)
	}
	return "translate:" + hex.EncodeToString(h.Sum(nil))
}

// HistoryKey derives the per-user chat history key.
func HistoryKey(userID string) string {
	return "chat:history:" + userID
}
