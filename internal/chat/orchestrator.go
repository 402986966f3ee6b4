// Package chat composes persona, history, attachments and the provider into
// a single assisted chat call, protected by a circuit breaker.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chocolab/ai-gateway/internal/breaker"
	"github.com/chocolab/ai-gateway/internal/core/ports"
	"github.com/chocolab/ai-gateway/internal/domain"
	"github.com/chocolab/ai-gateway/internal/history"
	"github.com/chocolab/ai-gateway/internal/tokens"
)

// unavailableMessage is returned when no provider credential is configured.
// The caller sees a completed call, not an error.
const unavailableMessage = "The AI assistant is not configured. Please contact your administrator."

// Orchestrator runs the chat pipeline. A nil provider means no credential is
// configured; every call then short-circuits to unavailableMessage without
// touching history, the exchange log or the breaker.
type Orchestrator struct {
	provider  ports.Provider
	history   *history.History
	breaker   *breaker.Breaker[string]
	store     ports.ExchangeStore
	publisher ports.EventPublisher
	counter   *tokens.Counter
	logger    *slog.Logger

	maxImageBytes int
	now           func() time.Time
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithExchangeStore sets the append-only exchange log.
func WithExchangeStore(store ports.ExchangeStore) Option {
	return func(o *Orchestrator) {
		o.store = store
	}
}

// WithPublisher sets the event publisher notified after each exchange.
func WithPublisher(publisher ports.EventPublisher) Option {
	return func(o *Orchestrator) {
		o.publisher = publisher
	}
}

// WithBreaker replaces the default circuit breaker.
func WithBreaker(b *breaker.Breaker[string]) Option {
	return func(o *Orchestrator) {
		o.breaker = b
	}
}

// WithMaxImageBytes overrides the per-attachment size limit.
func WithMaxImageBytes(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxImageBytes = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// New creates a chat orchestrator around a provider and a history window.
func New(provider ports.Provider, hist *history.History, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		provider:      provider,
		history:       hist,
		counter:       tokens.NewCounter(),
		logger:        slog.Default(),
		maxImageBytes: DefaultMaxImageBytes,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.breaker == nil {
		o.breaker = breaker.New[string]("provider",
			breaker.DefaultFailureThreshold, breaker.DefaultResetTimeout,
			breaker.WithLogger[string](o.logger))
	}
	return o
}

// Chat answers one user message. Provider failures and an open breaker
// degrade to a role-appropriate apology; only invalid input is an error.
// History, the exchange log and the event are only written for completed
// exchanges.
func (o *Orchestrator) Chat(ctx context.Context, message string, chatCtx *domain.ChatContext) (string, error) {
	if o.provider == nil {
		o.logger.Info("chat requested with no provider configured",
			slog.String("user_id", chatCtx.UserID))
		return unavailableMessage, nil
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return "", domain.ErrValidation("message is empty")
	}
	if chatCtx.UserID == "" {
		return "", domain.ErrValidation("user id is required")
	}
	if err := validateImages(chatCtx.Images, o.maxImageBytes); err != nil {
		return "", err
	}

	p := personaFor(chatCtx.UserRole)
	turns := o.history.Load(ctx, chatCtx.UserID)
	prompt := buildChatPrompt(p, turns, chatCtx.Page, message)

	count, estimated := o.counter.Count(prompt)
	o.logger.Debug("composed chat prompt",
		slog.String("user_id", chatCtx.UserID),
		slog.String("role", chatCtx.UserRole),
		slog.Int("history_turns", len(turns)),
		slog.Int("images", len(chatCtx.Images)),
		slog.Int("prompt_tokens", count),
		slog.Bool("tokens_estimated", estimated))

	req := &domain.GenerateRequest{
		Parts: []domain.GeneratePart{{Text: prompt}},
	}
	for i := range chatCtx.Images {
		req.Parts = append(req.Parts, domain.GeneratePart{Image: &chatCtx.Images[i]})
	}

	answer, err := o.breaker.Execute(ctx, func(ctx context.Context) (string, error) {
		return o.provider.Generate(ctx, req)
	})
	if err != nil {
		if errors.Is(err, breaker.ErrCircuitOpen) {
			o.logger.Warn("chat rejected by open circuit breaker",
				slog.String("user_id", chatCtx.UserID))
		} else {
			o.logger.Warn("provider call failed",
				slog.String("user_id", chatCtx.UserID),
				slog.String("error", err.Error()))
		}
		return p.Fallback, nil
	}

	answer = strings.TrimSpace(answer)
	now := o.now()

	o.history.Append(ctx, chatCtx.UserID,
		domain.ConversationTurn{Role: domain.TurnRoleUser, Content: message, Timestamp: now},
		domain.ConversationTurn{Role: domain.TurnRoleAssistant, Content: answer, Timestamp: now},
	)

	if o.store != nil {
		exchange := &domain.ChatExchange{
			ID:          uuid.NewString(),
			UserID:      chatCtx.UserID,
			UserMessage: message,
			AIResponse:  answer,
			CreatedAt:   now,
		}
		if err := o.store.SaveExchange(ctx, exchange); err != nil {
			o.logger.Warn("failed to persist chat exchange",
				slog.String("user_id", chatCtx.UserID),
				slog.String("error", err.Error()))
		}
	}

	if o.publisher != nil {
		event := &domain.Event{
			Topic: "user:" + chatCtx.UserID,
			Name:  "ai:chat",
			Payload: map[string]string{
				"user_message": message,
				"ai_response":  answer,
				"role":         chatCtx.UserRole,
			},
			Timestamp: now,
		}
		if err := o.publisher.Publish(ctx, event); err != nil {
			o.logger.Warn("failed to publish chat event",
				slog.String("user_id", chatCtx.UserID),
				slog.String("error", err.Error()))
		}
	}

	return answer, nil
}

// buildChatPrompt assembles the text portion of the provider request:
// persona, recent turns oldest first, optional page context, then the new
// message.
func buildChatPrompt(p persona, turns []domain.ConversationTurn, page, message string) string {
	var sb strings.Builder
	sb.WriteString(p.System)

	if len(turns) > 0 {
		sb.WriteString("\n\nRecent conversation:\n")
		for _, turn := range turns {
			fmt.Fprintf(&sb, "%s: %s\n", turn.Role, turn.Content)
		}
	}

	if page != "" {
		fmt.Fprintf(&sb, "\nThe user is currently on the %q screen.\n", page)
	}

	fmt.Fprintf(&sb, "\nUser: %s", message)
	return sb.String()
}
