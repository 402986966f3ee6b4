// Package tokens provides prompt token accounting. Counts are logged with
// each chat call so prompt growth is visible in operations.
package tokens

import (
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// estimatorCharsPerToken is the chars-per-token ratio used when no codec is
// available for the model family.
const estimatorCharsPerToken = 4

// Counter counts tokens in composed prompts. It uses a tiktoken codec when
// one can be loaded and falls back to a character-based estimate otherwise.
type Counter struct {
	once  sync.Once
	codec tokenizer.Codec
}

// NewCounter creates a token counter. Codec loading is deferred to first use.
func NewCounter() *Counter {
	return &Counter{}
}

// Count returns the token count for text and whether the value is an
// estimate rather than an exact count.
func (c *Counter) Count(text string) (int, bool) {
	c.once.Do(func() {
		// cl100k covers the chat-model families we compose prompts for.
		codec, err := tokenizer.Get(tokenizer.Cl100kBase)
		if err == nil {
			c.codec = codec
		}
	})

	if c.codec != nil {
		if count, err := c.codec.Count(text); err == nil {
			return count, false
		}
	}

	return len(text) / estimatorCharsPerToken, true
}
