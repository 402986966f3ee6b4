package translate

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/chocolab/ai-gateway/internal/domain"
)

func TestTranslateBatchOrderPreserved(t *testing.T) {
	g, _ := newTestGateway(func(prompt string) (string, error) {
		// Echo the source line back so order is observable.
		lines := strings.Split(prompt, "\n")
		return "FR:" + lines[len(lines)-1], nil
	})
	b := NewBatchOrchestrator(g, 50, nil)

	texts := []string{"alpha", "bravo", "charlie", "delta"}
	result, err := b.TranslateBatch(context.Background(), texts, "fr", "")
	if err != nil {
		t.Fatalf("TranslateBatch failed: %v", err)
	}

	if len(result.Translations) != len(texts) {
		t.Fatalf("got %d translations, want %d", len(result.Translations), len(texts))
	}
	for i, text := range texts {
		if result.Translations[i] != "FR:"+text {
			t.Errorf("index %d = %q, want %q", i, result.Translations[i], "FR:"+text)
		}
	}
	if result.Stats.Successful != 4 || result.Stats.Failed != 0 {
		t.Errorf("stats = %+v", result.Stats)
	}
}

func TestTranslateBatchIsolatesFailures(t *testing.T) {
	g, _ := newTestGateway(func(prompt string) (string, error) {
		if strings.Contains(prompt, "poison") {
			return "", domain.ErrProvider("upstream exploded")
		}
		return "ok", nil
	})
	b := NewBatchOrchestrator(g, 50, nil)

	texts := make([]string, 50)
	for i := range texts {
		texts[i] = fmt.Sprintf("item %d", i)
	}
	texts[17] = "poison"

	result, err := b.TranslateBatch(context.Background(), texts, "es", "")
	if err != nil {
		t.Fatalf("TranslateBatch failed: %v", err)
	}

	if len(result.Translations) != 50 {
		t.Fatalf("got %d translations, want 50", len(result.Translations))
	}
	if !strings.HasPrefix(result.Translations[17], "[Translation failed:") {
		t.Errorf("failing index = %q, want placeholder", result.Translations[17])
	}
	for i, tr := range result.Translations {
		if i == 17 {
			continue
		}
		if tr != "ok" {
			t.Errorf("index %d = %q, want %q", i, tr, "ok")
		}
	}
	if result.Stats.Failed != 1 {
		t.Errorf("failed = %d, want 1", result.Stats.Failed)
	}
	if result.Stats.Successful != 49 {
		t.Errorf("successful = %d, want 49", result.Stats.Successful)
	}
	if result.Stats.Total != 50 {
		t.Errorf("total = %d, want 50", result.Stats.Total)
	}
}

func TestTranslateBatchTooLarge(t *testing.T) {
	g, provider := newTestGateway(func(string) (string, error) { return "ok", nil })
	b := NewBatchOrchestrator(g, 50, nil)

	texts := make([]string, 51)
	for i := range texts {
		texts[i] = "x"
	}

	_, err := b.TranslateBatch(context.Background(), texts, "fr", "")
	if !domain.IsType(err, domain.ErrorTypeBatchTooLarge) {
		t.Fatalf("err = %v, want batch-too-large", err)
	}
	if provider.callCount() != 0 {
		t.Errorf("provider invoked %d times, want 0 (no partial processing)", provider.callCount())
	}
}

func TestTranslateBatchEmptyInput(t *testing.T) {
	g, provider := newTestGateway(func(string) (string, error) { return "ok", nil })
	b := NewBatchOrchestrator(g, 50, nil)

	result, err := b.TranslateBatch(context.Background(), nil, "fr", "")
	if err != nil {
		t.Fatalf("empty batch should not error: %v", err)
	}
	if len(result.Translations) != 0 {
		t.Errorf("got %d translations, want 0", len(result.Translations))
	}
	if result.Stats.Total != 0 {
		t.Errorf("stats = %+v, want zeros", result.Stats)
	}
	if provider.callCount() != 0 {
		t.Errorf("provider invoked %d times, want 0", provider.callCount())
	}
}

func TestTranslateBatchSharesCache(t *testing.T) {
	g, provider := newTestGateway(func(string) (string, error) { return "translated", nil })
	b := NewBatchOrchestrator(g, 50, nil)
	ctx := context.Background()

	b.TranslateBatch(ctx, []string{"same text"}, "fr", "")
	b.TranslateBatch(ctx, []string{"same text"}, "fr", "")

	if provider.callCount() != 1 {
		t.Errorf("provider invoked %d times, want 1 (second batch should hit cache)", provider.callCount())
	}
}
