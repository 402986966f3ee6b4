// Package server exposes the gateway over HTTP: chat, translation, language
// detection, health and the websocket event stream.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/chocolab/ai-gateway/internal/domain"
)

// ChatService answers a single assisted chat message.
type ChatService interface {
	Chat(ctx context.Context, message string, chatCtx *domain.ChatContext) (string, error)
}

// TranslateService translates one text.
type TranslateService interface {
	Translate(ctx context.Context, req *domain.TranslationRequest) (string, error)
}

// BatchService translates a bounded batch of texts.
type BatchService interface {
	TranslateBatch(ctx context.Context, texts []string, targetLanguage, textDomain string) (*domain.BatchResult, error)
}

// DetectService identifies the language of a text.
type DetectService interface {
	Detect(ctx context.Context, text string) string
}

// EventStream upgrades a request to a websocket subscribed to one topic.
type EventStream interface {
	ServeWS(w http.ResponseWriter, r *http.Request, topic string)
}

// Services bundles the endpoints' backing services. Events may be nil; the
// stream endpoint is then not mounted.
type Services struct {
	Chat      ChatService
	Translate TranslateService
	Batch     BatchService
	Detect    DetectService
	Events    EventStream
}

// Server is the gateway's HTTP front.
type Server struct {
	router *chi.Mux
	http   *http.Server
	logger *slog.Logger
}

// New builds the router with the standard middleware chain.
func New(port int, logger *slog.Logger, services Services) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(TimeoutMiddleware(60 * time.Second))
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "chocai-gateway")
	})

	h := &handlers{services: services, logger: logger}

	r.Get("/healthz", h.health)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/chat", h.chat)
		r.Post("/translate", h.translate)
		r.Post("/translate/batch", h.translateBatch)
		r.Post("/detect", h.detect)
		if services.Events != nil {
			r.Get("/events", h.events)
		}
	})

	return &Server{
		router: r,
		http: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("starting server", slog.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
