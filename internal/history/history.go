// Package history maintains the per-user rolling window of chat turns,
// persisted in the cache store. Long-term memory is best effort: corrupt or
// missing history is replaced by an empty one, never an error.
package history

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/chocolab/ai-gateway/internal/cache"
	"github.com/chocolab/ai-gateway/internal/domain"
)

const (
	// DefaultWindow is the number of most-recent turns kept per user.
	DefaultWindow = 10
	// DefaultTTL is how long an idle user's history survives.
	DefaultTTL = 24 * time.Hour
)

// History is the bounded per-user conversation window.
type History struct {
	cache  *cache.ResponseCache
	window int
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures the history.
type Option func(*History)

// WithLogger sets the logger for corruption warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(h *History) {
		h.logger = logger
	}
}

// New creates a conversation history. Zero window or TTL selects defaults.
func New(c *cache.ResponseCache, window int, ttl time.Duration, opts ...Option) *History {
	h := &History{
		cache:  c,
		window: window,
		ttl:    ttl,
		logger: slog.Default(),
	}
	if h.window <= 0 {
		h.window = DefaultWindow
	}
	if h.ttl <= 0 {
		h.ttl = DefaultTTL
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Load returns the user's stored turns, oldest first. Absent or corrupt
// history yields an empty slice.
func (h *History) Load(ctx context.Context, userID string) []domain.ConversationTurn {
	raw, ok := h.cache.GetRaw(ctx, cache.HistoryKey(userID))
	if !ok {
		return nil
	}

	var turns []domain.ConversationTurn
	if err := json.Unmarshal(raw, &turns); err != nil {
		h.logger.Warn("stored chat history is corrupt, starting fresh",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		return nil
	}
	return turns
}

// Append adds turns to the user's history, trims to the most recent window
// and writes it back. Write failures degrade silently via the cache layer.
func (h *History) Append(ctx context.Context, userID string, turns ...domain.ConversationTurn) {
	if len(turns) == 0 {
		return
	}

	all := append(h.Load(ctx, userID), turns...)
	if len(all) > h.window {
		all = all[len(all)-h.window:]
	}

	raw, err := json.Marshal(all)
	if err != nil {
		h.logger.Warn("failed to serialize chat history",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		return
	}

	h.cache.SetRaw(ctx, cache.HistoryKey(userID), raw, h.ttl)
}

// Window returns the configured window size.
func (h *History) Window() int {
	return h.window
}
