package translate

import (
	"context"
	"testing"

	"github.com/chocolab/ai-gateway/internal/domain"
)

func TestDetectUsesProvider(t *testing.T) {
	provider := &stubProvider{fn: func(string) (string, error) {
		return " FR.\n", nil
	}}
	d := NewDetector(provider, nil)

	if got := d.Detect(context.Background(), "Bonjour"); got != "fr" {
		t.Errorf("got %q, want %q", got, "fr")
	}
}

func TestDetectFallsBackOnProviderFailure(t *testing.T) {
	provider := &stubProvider{fn: func(string) (string, error) {
		return "", domain.ErrProvider("unreachable")
	}}
	d := NewDetector(provider, nil)

	if got := d.Detect(context.Background(), "مرحبا"); got != "ar" {
		t.Errorf("got %q, want %q", got, "ar")
	}
}

func TestDetectFallsBackOnUnusableProviderOutput(t *testing.T) {
	provider := &stubProvider{fn: func(string) (string, error) {
		return "The language appears to be Hebrew.", nil
	}}
	d := NewDetector(provider, nil)

	if got := d.Detect(context.Background(), "שלום"); got != "he" {
		t.Errorf("got %q, want %q", got, "he")
	}
}

func TestDetectByScriptTable(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"مرحبا بالعالم", "ar"},
		{"שלום עולם", "he"},
		{"ሰላም ልዑል", "am"},
		{"Привет мир", "ru"},
		{"안녕하세요", "ko"},
		{"こんにちは", "ja"},
		{"你好世界", "zh"},
		{"Hello world", "en"},
		{"", "en"},
	}

	for _, tc := range cases {
		if got := detectByScript(tc.text); got != tc.want {
			t.Errorf("detectByScript(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestNormalizeLanguageCode(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"fr", "fr", true},
		{" ES \n", "es", true},
		{"\"de\"", "de", true},
		{"french", "", false},
		{"f", "", false},
		{"12", "", false},
	}

	for _, tc := range cases {
		got, ok := normalizeLanguageCode(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("normalizeLanguageCode(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
