package translate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chocolab/ai-gateway/internal/core/ports"
)

// Detector identifies the language of a text. The provider is the primary
// path; a Unicode script-range table is the fallback.
type Detector struct {
	provider ports.Provider
	logger   *slog.Logger
}

// NewDetector creates a language detector.
func NewDetector(provider ports.Provider, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{provider: provider, logger: logger}
}

// Detect returns a two-letter language code for text. Provider failures and
// unusable provider output fall back to script-range classification, so
// Detect never fails.
func (d *Detector) Detect(ctx context.Context, text string) string {
	if d.provider != nil {
		prompt := fmt.Sprintf(
			"Identify the language of the following text. "+
				"Reply with only the two-letter ISO 639-1 code.\n\n%s", text)

		result, err := d.provider.GenerateText(ctx, prompt)
		if err == nil {
			if code, ok := normalizeLanguageCode(result); ok {
				return code
			}
			d.logger.Warn("unusable language code from provider",
				slog.String("result", result))
		} else {
			d.logger.Warn("provider language detection failed",
				slog.String("error", err.Error()))
		}
	}

	return detectByScript(text)
}

// normalizeLanguageCode extracts a two-letter code from provider output.
func normalizeLanguageCode(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, "\"'.`")
	if len(s) != 2 {
		return "", false
	}
	for i := 0; i < 2; i++ {
		if s[i] < 'a' || s[i] > 'z' {
			return "", false
		}
	}
	return s, true
}

// scriptRange maps a Unicode block to a language code. Ordered: the first
// range containing any rune of the text wins.
type scriptRange struct {
	lo, hi rune
	code   string
}

var scriptRanges = []scriptRange{
	{0x0600, 0x06FF, "ar"}, // Arabic
	{0x0590, 0x05FF, "he"}, // Hebrew
	{0x1200, 0x137F, "am"}, // Ethiopic
	{0x0400, 0x04FF, "ru"}, // Cyrillic
	{0xAC00, 0xD7AF, "ko"}, // Hangul syllables
	{0x3040, 0x30FF, "ja"}, // Hiragana + Katakana
	{0x4E00, 0x9FFF, "zh"}, // CJK unified ideographs
}

// detectByScript classifies text by the first range in the table that
// contains any of its runes, defaulting to English.
func detectByScript(text string) string {
	for _, sr := range scriptRanges {
		for _, r := range text {
			if r >= sr.lo && r <= sr.hi {
				return sr.code
			}
		}
	}
	return "en"
}
