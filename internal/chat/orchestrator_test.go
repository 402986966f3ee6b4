package chat

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chocolab/ai-gateway/internal/adapters/storage/memory"
	"github.com/chocolab/ai-gateway/internal/breaker"
	"github.com/chocolab/ai-gateway/internal/cache"
	"github.com/chocolab/ai-gateway/internal/domain"
	"github.com/chocolab/ai-gateway/internal/history"
)

type stubProvider struct {
	mu      sync.Mutex
	calls   int
	lastReq *domain.GenerateRequest
	fn      func(req *domain.GenerateRequest) (string, error)
}

func (p *stubProvider) Generate(_ context.Context, req *domain.GenerateRequest) (string, error) {
	p.mu.Lock()
	p.calls++
	p.lastReq = req
	p.mu.Unlock()
	return p.fn(req)
}

func (p *stubProvider) GenerateText(ctx context.Context, prompt string) (string, error) {
	return p.Generate(ctx, &domain.GenerateRequest{
		Parts: []domain.GeneratePart{{Text: prompt}},
	})
}

func (p *stubProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type recordingStore struct {
	mu        sync.Mutex
	exchanges []*domain.ChatExchange
}

func (s *recordingStore) SaveExchange(_ context.Context, e *domain.ChatExchange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exchanges = append(s.exchanges, e)
	return nil
}

func (s *recordingStore) Close() error { return nil }

func (s *recordingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.exchanges)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*domain.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e *domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type fixture struct {
	orch      *Orchestrator
	provider  *stubProvider
	cache     *cache.ResponseCache
	history   *history.History
	store     *recordingStore
	publisher *recordingPublisher
	breaker   *breaker.Breaker[string]
}

func newFixture(fn func(req *domain.GenerateRequest) (string, error)) *fixture {
	provider := &stubProvider{fn: fn}
	c := cache.New(memory.NewCacheStore(0, 0))
	hist := history.New(c, 0, 0)
	store := &recordingStore{}
	publisher := &recordingPublisher{}
	brk := breaker.New[string]("test", 5, 30*time.Second)

	orch := New(provider, hist,
		WithExchangeStore(store),
		WithPublisher(publisher),
		WithBreaker(brk),
	)
	return &fixture{
		orch:      orch,
		provider:  provider,
		cache:     c,
		history:   hist,
		store:     store,
		publisher: publisher,
		breaker:   brk,
	}
}

func chatContext(userID, role string) *domain.ChatContext {
	return &domain.ChatContext{UserID: userID, UserRole: role}
}

func TestChatNoCredential(t *testing.T) {
	store := &recordingStore{}
	orch := New(nil, history.New(cache.New(memory.NewCacheStore(0, 0)), 0, 0),
		WithExchangeStore(store))

	got, err := orch.Chat(context.Background(), "hello", chatContext("u1", "ADMIN"))
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if got != unavailableMessage {
		t.Errorf("got %q, want the unavailable message", got)
	}
	if store.count() != 0 {
		t.Errorf("exchange was logged for an unconfigured provider")
	}
}

func TestChatHappyPath(t *testing.T) {
	f := newFixture(func(*domain.GenerateRequest) (string, error) {
		return "  72% dark, conched for 48 hours.  ", nil
	})
	ctx := context.Background()

	got, err := f.orch.Chat(ctx, "What is today's batch?", chatContext("u1", "PRODUCTION"))
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if got != "72% dark, conched for 48 hours." {
		t.Errorf("got %q, want trimmed provider answer", got)
	}

	turns := f.history.Load(ctx, "u1")
	if len(turns) != 2 {
		t.Fatalf("history has %d turns, want 2", len(turns))
	}
	if turns[0].Role != domain.TurnRoleUser || turns[0].Content != "What is today's batch?" {
		t.Errorf("first turn = %+v", turns[0])
	}
	if turns[1].Role != domain.TurnRoleAssistant || turns[1].Content != got {
		t.Errorf("second turn = %+v", turns[1])
	}

	if f.store.count() != 1 {
		t.Fatalf("exchange log has %d records, want 1", f.store.count())
	}
	exchange := f.store.exchanges[0]
	if exchange.ID == "" {
		t.Error("exchange has no id")
	}
	if exchange.UserID != "u1" || exchange.UserMessage != "What is today's batch?" || exchange.AIResponse != got {
		t.Errorf("exchange = %+v", exchange)
	}

	if len(f.publisher.events) != 1 {
		t.Fatalf("published %d events, want 1", len(f.publisher.events))
	}
	event := f.publisher.events[0]
	if event.Topic != "user:u1" || event.Name != "ai:chat" {
		t.Errorf("event = %+v", event)
	}
	if event.Payload["ai_response"] != got || event.Payload["role"] != "PRODUCTION" {
		t.Errorf("event payload = %+v", event.Payload)
	}
}

func TestChatProviderFailureFallsBack(t *testing.T) {
	f := newFixture(func(*domain.GenerateRequest) (string, error) {
		return "", domain.ErrProvider("upstream unreachable")
	})
	ctx := context.Background()

	got, err := f.orch.Chat(ctx, "stock of cocoa butter?", chatContext("u1", "WAREHOUSE"))
	if err != nil {
		t.Fatalf("Chat should absorb provider failure, got %v", err)
	}
	if got != personas["WAREHOUSE"].Fallback {
		t.Errorf("got %q, want warehouse fallback", got)
	}

	if f.breaker.Failures() != 1 {
		t.Errorf("breaker failures = %d, want 1", f.breaker.Failures())
	}
	if f.store.count() != 0 {
		t.Error("failed exchange must not be logged")
	}
	if len(f.publisher.events) != 0 {
		t.Error("failed exchange must not publish an event")
	}
	if turns := f.history.Load(ctx, "u1"); len(turns) != 0 {
		t.Errorf("failed exchange wrote %d history turns", len(turns))
	}
}

func TestChatOpenBreakerFailsFast(t *testing.T) {
	f := newFixture(func(*domain.GenerateRequest) (string, error) {
		return "", domain.ErrProvider("down")
	})
	brk := breaker.New[string]("test", 1, time.Minute)
	f.orch.breaker = brk
	ctx := context.Background()

	// First call fails and trips the breaker.
	f.orch.Chat(ctx, "hello", chatContext("u1", "SALES"))
	if brk.State() != breaker.StateOpen {
		t.Fatalf("breaker state = %v, want open", brk.State())
	}

	got, err := f.orch.Chat(ctx, "hello again", chatContext("u1", "SALES"))
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if got != personas["SALES"].Fallback {
		t.Errorf("got %q, want sales fallback", got)
	}
	if f.provider.callCount() != 1 {
		t.Errorf("provider invoked %d times, want 1 (open breaker must not call)", f.provider.callCount())
	}
}

func TestChatValidation(t *testing.T) {
	f := newFixture(func(*domain.GenerateRequest) (string, error) { return "ok", nil })
	ctx := context.Background()

	cases := []struct {
		name    string
		message string
		chatCtx *domain.ChatContext
	}{
		{"empty message", "   ", chatContext("u1", "ADMIN")},
		{"missing user", "hello", chatContext("", "ADMIN")},
		{"bad media type", "hello", &domain.ChatContext{
			UserID: "u1",
			Images: []domain.ImageAttachment{{MimeType: "image/tiff", Data: []byte{1}}},
		}},
		{"oversized image", "hello", &domain.ChatContext{
			UserID: "u1",
			Images: []domain.ImageAttachment{{MimeType: "image/png", Data: make([]byte, DefaultMaxImageBytes+1)}},
		}},
		{"empty image", "hello", &domain.ChatContext{
			UserID: "u1",
			Images: []domain.ImageAttachment{{MimeType: "image/png"}},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.orch.Chat(ctx, tc.message, tc.chatCtx)
			if !domain.IsType(err, domain.ErrorTypeValidation) {
				t.Errorf("err = %v, want validation error", err)
			}
		})
	}

	if f.provider.callCount() != 0 {
		t.Errorf("provider invoked %d times for invalid input, want 0", f.provider.callCount())
	}
}

func TestChatImagesForwardedToProvider(t *testing.T) {
	f := newFixture(func(*domain.GenerateRequest) (string, error) { return "a truffle", nil })

	img := domain.ImageAttachment{MimeType: "image/jpeg", Data: []byte{0xff, 0xd8}}
	_, err := f.orch.Chat(context.Background(), "what is this?", &domain.ChatContext{
		UserID: "u1",
		Images: []domain.ImageAttachment{img},
	})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	req := f.provider.lastReq
	if len(req.Parts) != 2 {
		t.Fatalf("request has %d parts, want text + image", len(req.Parts))
	}
	if req.Parts[1].Image == nil || req.Parts[1].Image.MimeType != "image/jpeg" {
		t.Errorf("image part = %+v", req.Parts[1])
	}
}

func TestChatInjectsHistoryAndPersona(t *testing.T) {
	f := newFixture(func(*domain.GenerateRequest) (string, error) { return "ok", nil })
	ctx := context.Background()

	f.history.Append(ctx, "u1",
		domain.ConversationTurn{Role: domain.TurnRoleUser, Content: "earlier question about ganache"},
		domain.ConversationTurn{Role: domain.TurnRoleAssistant, Content: "earlier answer"},
	)

	_, err := f.orch.Chat(ctx, "and the ratio?", &domain.ChatContext{
		UserID:   "u1",
		UserRole: "QUALITY",
		Page:     "inspections",
	})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	prompt := f.provider.lastReq.Parts[0].Text
	if !strings.Contains(prompt, personas["QUALITY"].System) {
		t.Error("prompt missing quality persona")
	}
	if !strings.Contains(prompt, "earlier question about ganache") {
		t.Error("prompt missing prior history")
	}
	if !strings.Contains(prompt, "inspections") {
		t.Error("prompt missing page context")
	}
	if !strings.Contains(prompt, "and the ratio?") {
		t.Error("prompt missing the new message")
	}
}

func TestChatSurvivesCorruptHistory(t *testing.T) {
	f := newFixture(func(*domain.GenerateRequest) (string, error) { return "fresh start", nil })
	ctx := context.Background()

	f.cache.SetRaw(ctx, cache.HistoryKey("u1"), []byte("{not json"), time.Hour)

	got, err := f.orch.Chat(ctx, "hello", chatContext("u1", "ADMIN"))
	if err != nil {
		t.Fatalf("Chat failed on corrupt history: %v", err)
	}
	if got != "fresh start" {
		t.Errorf("got %q", got)
	}

	// The corrupt blob is replaced by the new exchange.
	if turns := f.history.Load(ctx, "u1"); len(turns) != 2 {
		t.Errorf("history has %d turns after recovery, want 2", len(turns))
	}
}

func TestPersonaForUnknownRole(t *testing.T) {
	if p := personaFor("INTERN"); p.System != defaultPersona.System {
		t.Errorf("unknown role got %+v", p)
	}
}
