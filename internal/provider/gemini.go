// internal/provider/gemini.go
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

const (
	geminiAPIBase      = "https://generativelanguage.googleapis.com/"
	geminiAPIVersion   = "v1beta"
	DefaultGeminiModel = "gemini-2.5-flash-lite"
)

// GeminiConfig configures the Gemini generateContent adapter.
type GeminiConfig struct {
	BaseURL string
	Model   string
}

// GeminiAdapter calls Gemini generateContent through the genai SDK.
type GeminiAdapter struct {
	config genai.ClientConfig
	model  string
}

// NewGemini creates a Gemini adapter authenticated with apiKey. The genai
// client is built per Submit because it needs a context.
func NewGemini(apiKey string, cfg GeminiConfig, client *http.Client) *GeminiAdapter {
	base := cfg.BaseURL
	if base == "" {
		base = geminiAPIBase
	}
	m := cfg.Model
	if m == "" {
		m = DefaultGeminiModel
	}
	return &GeminiAdapter{
		config: genai.ClientConfig{
			APIKey:     apiKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: client,
			HTTPOptions: genai.HTTPOptions{
				BaseURL:    strings.TrimRight(base, "/") + "/",
				APIVersion: geminiAPIVersion,
			},
		},
		model: m,
	}
}

// Name implements Adapter.
func (g *GeminiAdapter) Name() string { return "Gemini" }

// Model returns the model identifier requests are sent to.
func (g *GeminiAdapter) Model() string { return g.model }

// Submit implements Adapter. The text parts of the first candidate are
// concatenated; no candidates is an empty report.
func (g *GeminiAdapter) Submit(ctx context.Context, instruction, payload string) (string, error) {
	cfg := g.config
	client, err := genai.NewClient(ctx, &cfg)
	if err != nil {
		return "", providerError(g.Name(), "", fmt.Errorf("create client: %w", err))
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, genai.Text(payload), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(instruction, genai.RoleUser),
	})
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", providerError(g.Name(), apiErr.Message, err)
		}
		return "", providerError(g.Name(), "", err)
	}
	return resp.Text(), nil
}
