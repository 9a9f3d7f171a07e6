// internal/provider/claude.go
package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	DefaultClaudeModel     = "claude-3-5-sonnet-20241022"
	DefaultClaudeMaxTokens = 4096
)

// ClaudeConfig configures the Anthropic Messages adapter.
type ClaudeConfig struct {
	BaseURL   string
	Model     string
	MaxTokens int64
}

// ClaudeAdapter calls the Anthropic Messages API.
type ClaudeAdapter struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewClaude creates a Claude adapter authenticated with apiKey.
func NewClaude(apiKey string, cfg ClaudeConfig, client *http.Client) *ClaudeAdapter {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/"))
	}
	if client != nil {
		opts = append(opts, option.WithHTTPClient(client))
	}

	m := cfg.Model
	if m == "" {
		m = DefaultClaudeModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultClaudeMaxTokens
	}

	return &ClaudeAdapter{
		client:    anthropic.NewClient(opts...),
		model:     m,
		maxTokens: maxTokens,
	}
}

// Name implements Adapter.
func (c *ClaudeAdapter) Name() string { return "Claude" }

// Model returns the model identifier requests are sent to.
func (c *ClaudeAdapter) Model() string { return c.model }

// Submit implements Adapter. The text of the first content block is returned.
func (c *ClaudeAdapter) Submit(ctx context.Context, instruction, payload string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		System: []anthropic.TextBlockParam{{
			Type: "text",
			Text: instruction,
		}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(payload)),
		},
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", providerError(c.Name(), messageFromBody([]byte(apiErr.RawJSON())), err)
		}
		return "", providerError(c.Name(), "", err)
	}

	if len(resp.Content) == 0 {
		return "", nil
	}
	return resp.Content[0].Text, nil
}
