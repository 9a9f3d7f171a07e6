package provider_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/dsablic/anchoraudit/internal/model"
	"github.com/dsablic/anchoraudit/internal/provider"
)

// backend serves all three provider APIs and counts requests.
func backend(t *testing.T) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/v1beta/models/"):
			m := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1beta/models/"), ":generateContent")
			text := "gemini:" + m + ":" + r.Header.Get("x-goog-api-key")
			json.NewEncoder(w).Encode(map[string]any{
				"candidates": []any{map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": text}}}}},
			})
		case r.URL.Path == "/v1/messages":
			w.Write([]byte(`{"id":"m","type":"message","role":"assistant","content":[{"type":"text","text":"claude:` + r.Header.Get("x-api-key") + `"}],"usage":{"input_tokens":1,"output_tokens":1}}`))
		case r.URL.Path == "/chat/completions":
			w.Write([]byte(`{"id":"c","object":"chat.completion","created":1,"model":"m","choices":[{"index":0,"message":{"role":"assistant","content":"groq:` + strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ") + `"},"finish_reason":"stop"}]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func newDispatcher(baseURL, defaultKey string) *provider.Dispatcher {
	return provider.NewDispatcher(provider.Config{
		DefaultAPIKey: defaultKey,
		DefaultModel:  provider.DefaultGeminiModel,
		Gemini:        provider.GeminiConfig{BaseURL: baseURL, Model: "gemini-2.5-pro"},
		Claude:        provider.ClaudeConfig{BaseURL: baseURL},
		Groq:          provider.GroqConfig{BaseURL: baseURL},
	}, nil)
}

func TestDispatchRequiresCredentialBeforeNetwork(t *testing.T) {
	server, hits := backend(t)
	d := newDispatcher(server.URL, "server-key")

	for _, id := range []provider.ID{provider.GeminiCustom, provider.Claude, provider.Groq} {
		t.Run(string(id), func(t *testing.T) {
			_, err := d.Dispatch(context.Background(), provider.Request{Provider: id, Payload: "p"})

			var cerr *model.CredentialError
			if !errors.As(err, &cerr) {
				t.Fatalf("expected CredentialError, got %v", err)
			}
			if err.Error() != "Custom API key required for this provider." {
				t.Errorf("unexpected message %q", err.Error())
			}
		})
	}
	if got := atomic.LoadInt32(hits); got != 0 {
		t.Errorf("expected no network calls, got %d", got)
	}
}

func TestDispatchDefaultUsesConfiguredKey(t *testing.T) {
	server, hits := backend(t)
	d := newDispatcher(server.URL, "server-key")

	report, err := d.Dispatch(context.Background(), provider.Request{
		Provider:   provider.Default,
		Payload:    "p",
		Credential: "ignored",
	})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if report.Text != "gemini:gemini-2.5-flash-lite:server-key" {
		t.Errorf("unexpected report %q", report.Text)
	}
	if atomic.LoadInt32(hits) != 1 {
		t.Errorf("expected exactly one call")
	}
}

func TestDispatchDefaultWithoutCallerCredential(t *testing.T) {
	server, _ := backend(t)
	d := newDispatcher(server.URL, "server-key")

	if _, err := d.Dispatch(context.Background(), provider.Request{Provider: provider.Default, Payload: "p"}); err != nil {
		t.Fatalf("default provider must not require a caller credential: %v", err)
	}
}

func TestDispatchUnknownProviderFallsBackToDefault(t *testing.T) {
	server, _ := backend(t)
	d := newDispatcher(server.URL, "server-key")

	report, err := d.Dispatch(context.Background(), provider.Request{Provider: "mistral", Payload: "p"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !strings.HasPrefix(report.Text, "gemini:gemini-2.5-flash-lite:") {
		t.Errorf("expected default adapter, got %q", report.Text)
	}
}

func TestDispatchCustomProviders(t *testing.T) {
	server, _ := backend(t)
	d := newDispatcher(server.URL, "server-key")

	tests := []struct {
		id   provider.ID
		want string
	}{
		{provider.GeminiCustom, "gemini:gemini-2.5-pro:user-key"},
		{provider.Claude, "claude:user-key"},
		{provider.Groq, "groq:user-key"},
	}
	for _, tt := range tests {
		t.Run(string(tt.id), func(t *testing.T) {
			report, err := d.Dispatch(context.Background(), provider.Request{
				Provider:   tt.id,
				Payload:    "p",
				Credential: "user-key",
			})
			if err != nil {
				t.Fatalf("Dispatch: %v", err)
			}
			if report.Text != tt.want {
				t.Errorf("report = %q, want %q", report.Text, tt.want)
			}
		})
	}
}

func TestDispatchDefaultKeyMissing(t *testing.T) {
	server, hits := backend(t)
	d := newDispatcher(server.URL, "")

	_, err := d.Dispatch(context.Background(), provider.Request{Provider: provider.Default, Payload: "p"})

	var perr *model.ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if perr.Message != provider.DefaultKeyMissingMessage {
		t.Errorf("unexpected message %q", perr.Message)
	}
	if atomic.LoadInt32(hits) != 0 {
		t.Error("expected no network calls")
	}
}

func TestAdapterNames(t *testing.T) {
	d := newDispatcher("http://127.0.0.1:1", "k")
	tests := map[provider.ID]string{
		provider.Default:      "Gemini",
		provider.GeminiCustom: "Gemini",
		provider.Claude:       "Claude",
		provider.Groq:         "Groq",
		"unknown":             "Gemini",
	}
	for id, want := range tests {
		if got := d.Adapter(id, "k").Name(); got != want {
			t.Errorf("Adapter(%s).Name() = %q, want %q", id, got, want)
		}
	}
}
