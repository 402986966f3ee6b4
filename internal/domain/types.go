// Package domain provides the canonical types shared across the AI gateway.
package domain

import "time"

// TurnRole identifies who produced a conversation turn.
type TurnRole string

const (
	TurnRoleUser      TurnRole = "user"
	TurnRoleAssistant TurnRole = "assistant"
)

// ConversationTurn is a single entry in a user's rolling chat history.
type ConversationTurn struct {
	Role      TurnRole  `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatExchange is the immutable record of one completed chat round trip.
// It is appended to the log store once and never updated.
type ChatExchange struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	UserMessage string    `json:"user_message"`
	AIResponse  string    `json:"ai_response"`
	CreatedAt   time.Time `json:"created_at"`
}

// ImageAttachment is an inline image sent with a chat message.
// Data is the raw decoded bytes, not base64.
type ImageAttachment struct {
	MimeType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

// ChatContext carries the caller-scoped context for a chat call.
type ChatContext struct {
	UserID   string            `json:"user_id"`
	UserRole string            `json:"user_role"`
	Page     string            `json:"page,omitempty"`
	Images   []ImageAttachment `json:"images,omitempty"`
}

// TranslationRequest describes a single text translation.
type TranslationRequest struct {
	Text           string   `json:"text"`
	TargetLanguage string   `json:"target_language"`
	Domain         string   `json:"domain,omitempty"`
	PreserveTerms  []string `json:"preserve_terms,omitempty"`
}

// BatchStats aggregates the settled outcomes of a translation batch.
type BatchStats struct {
	Total      int   `json:"total"`
	Successful int   `json:"successful"`
	Failed     int   `json:"failed"`
	DurationMS int64 `json:"duration_ms"`
}

// BatchResult holds per-item translations positionally aligned with the
// input slice, regardless of which items failed.
type BatchResult struct {
	Translations []string   `json:"translations"`
	Stats        BatchStats `json:"stats"`
}

// GeneratePart is one part of a multimodal provider prompt.
// Exactly one of Text or Image is set.
type GeneratePart struct {
	Text  string
	Image *ImageAttachment
}

// GenerateRequest is the provider-agnostic generation request.
type GenerateRequest struct {
	Parts []GeneratePart
}

// Event is a fire-and-forget notification published after a completed
// exchange. Topic is scoped per user ("user:<id>").
type Event struct {
	Topic     string            `json:"topic"`
	Name      string            `json:"name"`
	Payload   map[string]string `json:"payload,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
