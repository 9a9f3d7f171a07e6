// internal/provider/dispatcher.go
package provider

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/dsablic/anchoraudit/internal/model"
)

// DefaultKeyMissingMessage is reported when the default provider is used but
// no default API key is configured.
const DefaultKeyMissingMessage = "Default provider API key is not configured."

// Config holds the process-level provider settings. DefaultAPIKey is the
// credential for the Default provider; every other provider takes the
// caller's credential.
type Config struct {
	DefaultAPIKey string
	DefaultModel  string

	Gemini GeminiConfig
	Claude ClaudeConfig
	Groq   GroqConfig

	// HTTPClient is shared by all adapters. nil uses each client's default.
	HTTPClient *http.Client
}

// Request is one dispatch: the payload for exactly one provider.
type Request struct {
	Provider   ID
	Payload    string
	Credential string
}

type factory func(credential string) Adapter

// Dispatcher routes a payload to the adapter selected by provider id.
type Dispatcher struct {
	cfg       Config
	logger    *zap.Logger
	factories map[ID]factory
}

// NewDispatcher creates a Dispatcher. A nil logger disables logging.
func NewDispatcher(cfg Config, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{cfg: cfg, logger: logger}

	defaultGemini := GeminiConfig{BaseURL: cfg.Gemini.BaseURL, Model: cfg.DefaultModel}
	d.factories = map[ID]factory{
		Default: func(_ string) Adapter {
			return NewGemini(cfg.DefaultAPIKey, defaultGemini, cfg.HTTPClient)
		},
		GeminiCustom: func(key string) Adapter {
			return NewGemini(key, cfg.Gemini, cfg.HTTPClient)
		},
		Claude: func(key string) Adapter {
			return NewClaude(key, cfg.Claude, cfg.HTTPClient)
		},
		Groq: func(key string) Adapter {
			return NewGroq(key, cfg.Groq, cfg.HTTPClient)
		},
	}
	return d
}

// Adapter returns the adapter for id built with credential. Unknown ids
// select the Default adapter.
func (d *Dispatcher) Adapter(id ID, credential string) Adapter {
	f, ok := d.factories[id]
	if !ok {
		f = d.factories[Default]
	}
	return f(credential)
}

// Dispatch submits req.Payload with the audit instruction to exactly one
// provider. Missing credentials fail before any network call.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (model.AuditReport, error) {
	id := ParseID(string(req.Provider))

	if id.RequiresCredential() && req.Credential == "" {
		return model.AuditReport{}, &model.CredentialError{Provider: string(id)}
	}
	if id == Default && d.cfg.DefaultAPIKey == "" {
		return model.AuditReport{}, &model.ProviderError{Provider: string(id), Message: DefaultKeyMissingMessage}
	}

	adapter := d.Adapter(id, req.Credential)

	start := time.Now()
	text, err := adapter.Submit(ctx, AuditInstruction, req.Payload)
	fields := []zap.Field{
		zap.String("provider", string(id)),
		zap.String("adapter", adapter.Name()),
		zap.Int("payload_bytes", len(req.Payload)),
		zap.Duration("duration", time.Since(start)),
	}
	if err != nil {
		d.logger.Error("provider call failed", append(fields, zap.Error(err))...)
		return model.AuditReport{}, err
	}

	d.logger.Info("provider call completed", append(fields, zap.Int("report_bytes", len(text)))...)
	return model.AuditReport{Text: text}, nil
}
