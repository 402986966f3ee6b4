// Package runtime provides the Gateway struct and lifecycle management: it
// wires configuration, storage, the provider client and the HTTP server into
// a single runnable unit.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/chocolab/ai-gateway/internal/adapters/config/file"
	"github.com/chocolab/ai-gateway/internal/adapters/events/direct"
	"github.com/chocolab/ai-gateway/internal/adapters/events/wshub"
	"github.com/chocolab/ai-gateway/internal/adapters/storage/memory"
	"github.com/chocolab/ai-gateway/internal/adapters/storage/sqlite"
	"github.com/chocolab/ai-gateway/internal/breaker"
	"github.com/chocolab/ai-gateway/internal/cache"
	"github.com/chocolab/ai-gateway/internal/chat"
	"github.com/chocolab/ai-gateway/internal/config"
	"github.com/chocolab/ai-gateway/internal/core/ports"
	"github.com/chocolab/ai-gateway/internal/domain"
	"github.com/chocolab/ai-gateway/internal/history"
	"github.com/chocolab/ai-gateway/internal/provider/google"
	"github.com/chocolab/ai-gateway/internal/server"
	"github.com/chocolab/ai-gateway/internal/translate"
)

// services is the rebuildable part of the gateway. A config reload swaps the
// whole bundle atomically; in-flight calls finish on the old one.
type services struct {
	chat      *chat.Orchestrator
	translate *translate.Gateway
	batch     *translate.BatchOrchestrator
	detect    *translate.Detector
}

// Gateway composes the AI gateway. It can be embedded in a larger
// application or run standalone via cmd/gateway.
type Gateway struct {
	logger *slog.Logger

	// Config sources (one of the two).
	configPath string
	staticCfg  *config.Config
	confFile   *file.Provider

	// Injected or config-built dependencies.
	cacheStore    ports.CacheStore
	exchangeStore ports.ExchangeStore
	events        ports.EventPublisher
	provider      ports.Provider
	hub           *wshub.Hub

	current atomic.Pointer[services]
	srv     *server.Server

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
}

// New creates a Gateway with the given options. Configuration defaults to
// environment variables only; storage defaults to what the config selects.
func New(opts ...Option) (*Gateway, error) {
	g := &Gateway{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}
	return g, nil
}

// Start loads configuration, builds the service graph and starts the HTTP
// server in the background.
func (g *Gateway) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.ctx, g.cancel = context.WithCancel(ctx)

	cfg, err := g.loadConfig(g.ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := g.initStorage(cfg); err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	g.initEvents()
	g.current.Store(g.buildServices(cfg))

	g.srv = server.New(cfg.Server.Port, g.logger, server.Services{
		Chat:      g,
		Translate: g,
		Batch:     g,
		Detect:    g,
		Events:    g.hub,
	})

	go func() {
		if err := g.srv.Start(); err != nil {
			g.logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	if g.confFile != nil {
		if err := g.confFile.Watch(g.ctx, g.onConfigChange); err != nil {
			g.logger.Warn("config watch unavailable", slog.String("error", err.Error()))
		}
	}

	g.logger.Info("gateway started",
		slog.Int("port", cfg.Server.Port),
		slog.String("storage", cfg.Storage.Type),
		slog.Bool("provider_configured", cfg.Provider.APIKey != "" || g.provider != nil))

	return nil
}

// Shutdown drains the HTTP server and closes held resources.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.logger.Info("shutting down gateway")

	if g.cancel != nil {
		g.cancel()
	}

	if g.srv != nil {
		if err := g.srv.Shutdown(ctx); err != nil {
			g.logger.Error("failed to shutdown server", slog.String("error", err.Error()))
			return err
		}
	}

	if g.events != nil {
		if err := g.events.Close(); err != nil {
			g.logger.Error("failed to close event publisher", slog.String("error", err.Error()))
		}
	}
	if g.exchangeStore != nil {
		if err := g.exchangeStore.Close(); err != nil {
			g.logger.Error("failed to close exchange store", slog.String("error", err.Error()))
		}
	}
	// The cache store may be the same object as the exchange store (sqlite);
	// closing twice is safe for both adapters.
	if g.cacheStore != nil {
		if err := g.cacheStore.Close(); err != nil {
			g.logger.Error("failed to close cache store", slog.String("error", err.Error()))
		}
	}
	if g.confFile != nil {
		if err := g.confFile.Close(); err != nil {
			g.logger.Error("failed to close config watcher", slog.String("error", err.Error()))
		}
	}

	g.logger.Info("gateway shutdown complete")
	return nil
}

// Chat implements server.ChatService.
func (g *Gateway) Chat(ctx context.Context, message string, chatCtx *domain.ChatContext) (string, error) {
	return g.current.Load().chat.Chat(ctx, message, chatCtx)
}

// Translate implements server.TranslateService.
func (g *Gateway) Translate(ctx context.Context, req *domain.TranslationRequest) (string, error) {
	return g.current.Load().translate.Translate(ctx, req)
}

// TranslateBatch implements server.BatchService.
func (g *Gateway) TranslateBatch(ctx context.Context, texts []string, targetLanguage, textDomain string) (*domain.BatchResult, error) {
	return g.current.Load().batch.TranslateBatch(ctx, texts, targetLanguage, textDomain)
}

// Detect implements server.DetectService.
func (g *Gateway) Detect(ctx context.Context, text string) string {
	return g.current.Load().detect.Detect(ctx, text)
}

func (g *Gateway) loadConfig(ctx context.Context) (*config.Config, error) {
	if g.confFile != nil {
		return g.confFile.Load(ctx)
	}
	if g.staticCfg != nil {
		if err := g.staticCfg.Validate(); err != nil {
			return nil, err
		}
		return g.staticCfg, nil
	}

	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g.staticCfg = cfg
	return cfg, nil
}

// initStorage builds the stores the config selects, unless options already
// injected them.
func (g *Gateway) initStorage(cfg *config.Config) error {
	if g.cacheStore != nil && g.exchangeStore != nil {
		return nil
	}

	switch cfg.Storage.Type {
	case "sqlite":
		store, err := sqlite.New(cfg.Storage.Path)
		if err != nil {
			return err
		}
		if g.cacheStore == nil {
			g.cacheStore = store
		}
		if g.exchangeStore == nil {
			g.exchangeStore = store
		}

	default:
		if g.cacheStore == nil {
			g.cacheStore = memory.NewCacheStore(0, 0)
		}
		if g.exchangeStore == nil {
			g.exchangeStore = memory.NewExchangeStore()
		}
	}
	return nil
}

// initEvents sets up the websocket hub and, when storage can persist events,
// fans publishes out to both.
func (g *Gateway) initEvents() {
	g.hub = wshub.NewHub(g.logger)

	if g.events != nil {
		g.events = newFanoutPublisher(g.events, g.hub)
		return
	}

	if sink, ok := g.cacheStore.(direct.EventSink); ok {
		persisted, err := direct.NewPublisher(sink)
		if err == nil {
			g.events = newFanoutPublisher(persisted, g.hub)
			return
		}
		g.logger.Warn("event persistence unavailable", slog.String("error", err.Error()))
	}

	g.events = g.hub
}

// buildServices constructs the rebuildable service graph from a config.
func (g *Gateway) buildServices(cfg *config.Config) *services {
	provider := g.provider
	if provider == nil && cfg.Provider.APIKey != "" {
		clientOpts := []google.ClientOption{
			google.WithTimeout(cfg.Provider.Timeout),
		}
		if cfg.Provider.Model != "" {
			clientOpts = append(clientOpts, google.WithModel(cfg.Provider.Model))
		}
		if cfg.Provider.BaseURL != "" {
			clientOpts = append(clientOpts, google.WithBaseURL(cfg.Provider.BaseURL))
		}
		provider = google.NewClient(cfg.Provider.APIKey, clientOpts...)
	}

	c := cache.New(g.cacheStore, cache.WithLogger(g.logger))
	hist := history.New(c, cfg.Chat.HistoryWindow, cfg.Cache.HistoryTTL,
		history.WithLogger(g.logger))
	brk := breaker.New[string]("provider",
		cfg.Breaker.FailureThreshold, cfg.Breaker.ResetTimeout,
		breaker.WithLogger[string](g.logger))

	orch := chat.New(provider, hist,
		chat.WithExchangeStore(g.exchangeStore),
		chat.WithPublisher(g.events),
		chat.WithBreaker(brk),
		chat.WithMaxImageBytes(cfg.Chat.MaxImageBytes),
		chat.WithLogger(g.logger))

	// Translation and detection have deterministic fallbacks, so they run
	// against a stand-in provider when no credential is configured.
	textProvider := provider
	if textProvider == nil {
		textProvider = unconfiguredProvider{}
	}

	tg := translate.NewGateway(textProvider, c,
		translate.WithCacheTTL(cfg.Cache.TranslationTTL),
		translate.WithLogger(g.logger))
	batch := translate.NewBatchOrchestrator(tg, cfg.Translate.MaxBatchSize, g.logger)
	det := translate.NewDetector(textProvider, g.logger)

	return &services{chat: orch, translate: tg, batch: batch, detect: det}
}

// onConfigChange rebuilds the service graph from a validated reload. Storage
// and the listen port are fixed at startup; changing them requires a restart.
func (g *Gateway) onConfigChange(cfg *config.Config) {
	g.current.Store(g.buildServices(cfg))
	g.logger.Info("services rebuilt from updated config")
}
