// Package google provides an HTTP client for the Google generative-language
// API (generateContent). It implements ports.Provider.
package google

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/chocolab/ai-gateway/internal/domain"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-1.5-flash"
	defaultTimeout = 30 * time.Second
)

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithModel sets the model name used for generation.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// WithTimeout bounds each provider call.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// Client is a custom HTTP client for the generative-language API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewClient creates a new generative-language client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate produces text from a multimodal prompt.
func (c *Client) Generate(ctx context.Context, req *domain.GenerateRequest) (string, error) {
	parts := make([]part, 0, len(req.Parts))
	for _, p := range req.Parts {
		if p.Image != nil {
			parts = append(parts, part{InlineData: &inlineData{
				MimeType: p.Image.MimeType,
				Data:     base64.StdEncoding.EncodeToString(p.Image.Data),
			}})
			continue
		}
		parts = append(parts, part{Text: p.Text})
	}
	return c.generateContent(ctx, parts)
}

// GenerateText produces text from a plain prompt.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	return c.generateContent(ctx, []part{{Text: prompt}})
}

func (c *Client) generateContent(ctx context.Context, parts []part) (string, error) {
	body, err := json.Marshal(&generateContentRequest{
		Contents: []content{{Role: "user", Parts: parts}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", domain.ErrProvider("request failed").Wrap(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.ErrProvider("failed to read response").Wrap(err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error.Message != "" {
			return "", domain.ErrProvider(fmt.Sprintf("%s (%s)", apiErr.Error.Message, apiErr.Error.Status))
		}
		return "", domain.ErrProvider(fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	var result generateContentResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", domain.ErrProvider("failed to unmarshal response").Wrap(err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", domain.ErrProvider("empty response from provider")
	}

	var sb strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}
