package runtime

import (
	"fmt"
	"log/slog"

	"github.com/chocolab/ai-gateway/internal/adapters/config/file"
	"github.com/chocolab/ai-gateway/internal/adapters/storage/memory"
	"github.com/chocolab/ai-gateway/internal/adapters/storage/sqlite"
	"github.com/chocolab/ai-gateway/internal/config"
	"github.com/chocolab/ai-gateway/internal/core/ports"
)

// Option is a functional option for configuring a Gateway.
type Option func(*Gateway) error

// WithFileConfig uses file-based configuration with hot-reload. The file is
// watched; valid rewrites rebuild the service graph without a restart.
func WithFileConfig(path string) Option {
	return func(g *Gateway) error {
		provider, err := file.NewProvider(path)
		if err != nil {
			return fmt.Errorf("create file config provider: %w", err)
		}
		g.confFile = provider
		return nil
	}
}

// WithEnvConfig reads configuration from the environment only, with path as
// an optional one-shot YAML overlay (no watching).
func WithEnvConfig(path string) Option {
	return func(g *Gateway) error {
		g.configPath = path
		return nil
	}
}

// WithConfig uses an already-built configuration. Useful for embedding.
func WithConfig(cfg *config.Config) Option {
	return func(g *Gateway) error {
		if cfg == nil {
			return fmt.Errorf("config cannot be nil")
		}
		g.staticCfg = cfg
		return nil
	}
}

// WithSQLite stores the cache, exchange log and events in a SQLite file,
// overriding whatever the config selects.
func WithSQLite(path string) Option {
	return func(g *Gateway) error {
		store, err := sqlite.New(path)
		if err != nil {
			return fmt.Errorf("create sqlite storage: %w", err)
		}
		g.cacheStore = store
		g.exchangeStore = store
		return nil
	}
}

// WithMemoryStorage keeps all state in process. Exchanges do not survive a
// restart.
func WithMemoryStorage() Option {
	return func(g *Gateway) error {
		g.cacheStore = memory.NewCacheStore(0, 0)
		g.exchangeStore = memory.NewExchangeStore()
		return nil
	}
}

// WithCacheStore sets a custom cache store.
func WithCacheStore(store ports.CacheStore) Option {
	return func(g *Gateway) error {
		g.cacheStore = store
		return nil
	}
}

// WithExchangeStore sets a custom exchange log store.
func WithExchangeStore(store ports.ExchangeStore) Option {
	return func(g *Gateway) error {
		g.exchangeStore = store
		return nil
	}
}

// WithEventPublisher sets a custom event publisher. The websocket hub is
// still attached alongside it.
func WithEventPublisher(publisher ports.EventPublisher) Option {
	return func(g *Gateway) error {
		g.events = publisher
		return nil
	}
}

// WithProvider sets a custom provider client, bypassing the config-built
// one. Intended for tests and embedders with their own transport.
func WithProvider(provider ports.Provider) Option {
	return func(g *Gateway) error {
		g.provider = provider
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) error {
		if logger != nil {
			g.logger = logger
		}
		return nil
	}
}
