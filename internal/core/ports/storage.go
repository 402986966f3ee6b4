package ports

import (
	"context"
	"time"

	"github.com/chocolab/ai-gateway/internal/domain"
)

// CacheStore is the external key-value store contract. Implementations must
// tolerate being unavailable; callers wrap every access fail-soft.
type CacheStore interface {
	// Get retrieves a value by key. The second return is false when the key
	// is absent or expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a TTL. A zero TTL means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Close releases the store connection.
	Close() error
}

// ExchangeStore is the persistent append-only log of completed chat
// exchanges. The AI subsystem only ever inserts; it never updates or reads.
type ExchangeStore interface {
	// SaveExchange appends one immutable exchange record.
	SaveExchange(ctx context.Context, exchange *domain.ChatExchange) error

	// Close releases the store connection.
	Close() error
}
