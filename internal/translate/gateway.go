// Package translate provides the translation side of the AI gateway:
// cache-first single-text translation with a deterministic fallback,
// provider-backed language detection and concurrent batch fan-out.
package translate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chocolab/ai-gateway/internal/cache"
	"github.com/chocolab/ai-gateway/internal/core/ports"
	"github.com/chocolab/ai-gateway/internal/domain"
)

// DefaultCacheTTL is how long provider translations stay cached.
// Translations are far more reusable than chat turns.
const DefaultCacheTTL = 7 * 24 * time.Hour

// Gateway translates single texts through the provider with cache-first
// lookup. Provider failures degrade to the dictionary fallback so the caller
// always receives a usable string.
type Gateway struct {
	provider ports.Provider
	cache    *cache.ResponseCache
	ttl      time.Duration
	logger   *slog.Logger
}

// Option configures the gateway.
type Option func(*Gateway)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// WithCacheTTL overrides the translation cache TTL.
func WithCacheTTL(ttl time.Duration) Option {
	return func(g *Gateway) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

// NewGateway creates a translation gateway.
func NewGateway(provider ports.Provider, c *cache.ResponseCache, opts ...Option) *Gateway {
	g := &Gateway{
		provider: provider,
		cache:    c,
		ttl:      DefaultCacheTTL,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Translate returns the translated text. Provider failures are absorbed:
// the deterministic fallback translation is returned instead, and never
// cached.
func (g *Gateway) Translate(ctx context.Context, req *domain.TranslationRequest) (string, error) {
	if strings.TrimSpace(req.Text) == "" {
		return "", nil
	}
	if req.TargetLanguage == "" {
		return "", domain.ErrValidation("target language is required")
	}

	translated, err := g.translateOnce(ctx, req)
	if err != nil {
		g.logger.Warn("provider translation failed, using fallback",
			slog.String("target_language", req.TargetLanguage),
			slog.String("error", err.Error()))
		return fallbackTranslate(req.Text, req.TargetLanguage), nil
	}
	return translated, nil
}

// translateOnce is the strict path: cache-first, then provider, no fallback.
// The batch orchestrator uses it so per-item provider failures are visible
// in batch stats.
func (g *Gateway) translateOnce(ctx context.Context, req *domain.TranslationRequest) (string, error) {
	key := cache.TranslationKey(req.Text, req.TargetLanguage, req.Domain)

	if cached, ok := g.cache.Get(ctx, key); ok {
		return cached, nil
	}

	prompt := buildPrompt(req)
	result, err := g.provider.GenerateText(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("translate to %s: %w", req.TargetLanguage, err)
	}

	result = strings.TrimSpace(result)
	g.cache.Set(ctx, key, result, g.ttl)
	return result, nil
}

// promptTemplates maps content domains to instruction templates. The
// template constrains the provider to return only the translated text.
var promptTemplates = map[string]string{
	"recipe": "Translate the following chocolate recipe to %s. " +
		"Preserve ingredient names, quantities, units and formatting exactly. " +
		"Keep technical confectionery vocabulary and proper nouns untranslated where customary. " +
		"Return only the translated text.\n\n%s",
	"instruction": "Translate the following operating instruction to %s. " +
		"Preserve step numbering, equipment names, safety warnings and formatting. " +
		"Return only the translated text.\n\n%s",
	"general": "Translate the following text to %s. " +
		"Preserve formatting, technical vocabulary and proper nouns. " +
		"Return only the translated text.\n\n%s",
}

func buildPrompt(req *domain.TranslationRequest) string {
	tmpl, ok := promptTemplates[req.Domain]
	if !ok {
		tmpl = promptTemplates["general"]
	}

	prompt := fmt.Sprintf(tmpl, languageName(req.TargetLanguage), req.Text)

	if len(req.PreserveTerms) > 0 {
		prompt = fmt.Sprintf("%s\n\nDo not translate these terms: %s.",
			prompt, strings.Join(req.PreserveTerms, ", "))
	}
	return prompt
}

// languageName maps common codes to English names for clearer prompts;
// unknown codes pass through as-is.
func languageName(code string) string {
	names := map[string]string{
		"en": "English",
		"es": "Spanish",
		"fr": "French",
		"de": "German",
		"pt": "Portuguese",
		"ar": "Arabic",
		"he": "Hebrew",
		"am": "Amharic",
		"ru": "Russian",
		"zh": "Chinese",
		"ja": "Japanese",
		"ko": "Korean",
	}
	if name, ok := names[strings.ToLower(code)]; ok {
		return name
	}
	return code
}
