package translate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chocolab/ai-gateway/internal/domain"
)

// DefaultMaxBatchSize bounds a single translateBatch call.
const DefaultMaxBatchSize = 50

// BatchOrchestrator fans independent translation requests out to the
// gateway concurrently, isolating per-item failures.
type BatchOrchestrator struct {
	gateway  *Gateway
	maxBatch int
	logger   *slog.Logger
}

// NewBatchOrchestrator creates a batch orchestrator. A zero maxBatch selects
// the default.
func NewBatchOrchestrator(gateway *Gateway, maxBatch int, logger *slog.Logger) *BatchOrchestrator {
	if maxBatch <= 0 {
		maxBatch = DefaultMaxBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchOrchestrator{gateway: gateway, maxBatch: maxBatch, logger: logger}
}

// TranslateBatch translates texts concurrently. The result's translations
// align positionally with the input: a failing item yields a placeholder at
// its index instead of aborting the batch. Batches over the maximum are
// rejected up front with no provider calls.
func (b *BatchOrchestrator) TranslateBatch(ctx context.Context, texts []string, targetLanguage, textDomain string) (*domain.BatchResult, error) {
	if len(texts) > b.maxBatch {
		return nil, domain.ErrBatchTooLarge(
			fmt.Sprintf("batch of %d exceeds maximum of %d", len(texts), b.maxBatch))
	}

	result := &domain.BatchResult{
		Translations: make([]string, len(texts)),
	}
	if len(texts) == 0 {
		return result, nil
	}

	start := time.Now()
	failures := make([]bool, len(texts))

	var wg sync.WaitGroup
	for i, text := range texts {
		wg.Add(1)
		go func(idx int, text string) {
			defer wg.Done()

			translated, err := b.gateway.translateOnce(ctx, &domain.TranslationRequest{
				Text:           text,
				TargetLanguage: targetLanguage,
				Domain:         textDomain,
			})
			if err != nil {
				failures[idx] = true
				result.Translations[idx] = fmt.Sprintf("[Translation failed: %s]", err.Error())
				return
			}
			result.Translations[idx] = translated
		}(i, text)
	}
	wg.Wait()

	result.Stats.Total = len(texts)
	for _, failed := range failures {
		if failed {
			result.Stats.Failed++
		}
	}
	result.Stats.Successful = result.Stats.Total - result.Stats.Failed
	result.Stats.DurationMS = time.Since(start).Milliseconds()

	if result.Stats.Failed > 0 {
		b.logger.Warn("batch completed with failures",
			slog.Int("total", result.Stats.Total),
			slog.Int("failed", result.Stats.Failed))
	}

	return result, nil
}
