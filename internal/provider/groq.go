// internal/provider/groq.go
package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	groqAPIBase      = "https://api.groq.com/openai/v1"
	DefaultGroqModel = "llama3-70b-8192"
)

// GroqConfig configures the Groq chat completions adapter.
type GroqConfig struct {
	BaseURL string
	Model   string
}

// GroqAdapter calls Groq's OpenAI-compatible chat completions endpoint.
type GroqAdapter struct {
	client openai.Client
	model  string
}

// NewGroq creates a Groq adapter authenticated with apiKey.
func NewGroq(apiKey string, cfg GroqConfig, client *http.Client) *GroqAdapter {
	base := cfg.BaseURL
	if base == "" {
		base = groqAPIBase
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(strings.TrimRight(base, "/") + "/"),
		option.WithMaxRetries(0),
	}
	if client != nil {
		opts = append(opts, option.WithHTTPClient(client))
	}

	m := cfg.Model
	if m == "" {
		m = DefaultGroqModel
	}

	return &GroqAdapter{
		client: openai.NewClient(opts...),
		model:  m,
	}
}

// Name implements Adapter.
func (g *GroqAdapter) Name() string { return "Groq" }

// Model returns the model identifier requests are sent to.
func (g *GroqAdapter) Model() string { return g.model }

// Submit implements Adapter. The content of the first choice is returned.
func (g *GroqAdapter) Submit(ctx context.Context, instruction, payload string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(instruction),
			openai.UserMessage(payload),
		},
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			message := apiErr.Message
			if message == "" {
				message = messageFromBody([]byte(apiErr.RawJSON()))
			}
			return "", providerError(g.Name(), message, err)
		}
		return "", providerError(g.Name(), "", err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
