package ui_test

import (
	"testing"

	"github.com/dsablic/anchoraudit/internal/provider"
	"github.com/dsablic/anchoraudit/internal/ui"
)

func TestProviderOptions(t *testing.T) {
	opts := ui.ProviderOptions()
	if len(opts) != 4 {
		t.Fatalf("expected 4 options, got %d", len(opts))
	}
	if opts[0].Value != "default" || opts[0].Key != provider.Default.Label() {
		t.Errorf("unexpected first option %+v", opts[0])
	}
}

func TestNeedsKey(t *testing.T) {
	known := map[provider.ID]bool{provider.Groq: true}
	tests := []struct {
		id   provider.ID
		want bool
	}{
		{provider.Default, false},
		{provider.Groq, false},
		{provider.Claude, true},
		{provider.GeminiCustom, true},
	}
	for _, tt := range tests {
		if got := ui.NeedsKey(tt.id, known); got != tt.want {
			t.Errorf("NeedsKey(%s) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestValidateAPIKey(t *testing.T) {
	if ui.ValidateAPIKey("  ") == nil {
		t.Error("expected blank key to be rejected")
	}
	if err := ui.ValidateAPIKey("sk-1"); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}

func TestNewProviderFormBuilds(t *testing.T) {
	choice, key := "claude", ""
	if ui.NewProviderForm(&choice, &key, nil) == nil {
		t.Fatal("expected form")
	}
}
