package ui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/dsablic/anchoraudit/internal/provider"
)

// Selection is the result of the interactive provider prompt.
type Selection struct {
	Provider provider.ID
	APIKey   string
}

// ProviderOptions returns the select options in display order.
func ProviderOptions() []huh.Option[string] {
	ids := provider.IDs()
	opts := make([]huh.Option[string], 0, len(ids))
	for _, id := range ids {
		opts = append(opts, huh.NewOption(id.Label(), string(id)))
	}
	return opts
}

// ValidateAPIKey rejects an empty key.
func ValidateAPIKey(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("an API key is required for this provider")
	}
	return nil
}

// NewProviderForm builds a form that asks for a provider and, for custom
// providers without a known key, the API key. choice and key hold the
// initial values and receive the answers.
func NewProviderForm(choice, key *string, known map[provider.ID]bool) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("AI provider").
				Options(ProviderOptions()...).
				Value(choice),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("API key").
				Description("Used for this audit only. Store one with `anchoraudit keys set`.").
				EchoMode(huh.EchoModePassword).
				Validate(ValidateAPIKey).
				Value(key),
		).WithHideFunc(func() bool {
			return !NeedsKey(provider.ParseID(*choice), known)
		}),
	)
}

// NeedsKey reports whether the prompt must ask for a key for id.
func NeedsKey(id provider.ID, known map[provider.ID]bool) bool {
	return id.RequiresCredential() && !known[id]
}

// PromptProvider runs the provider form on the terminal.
func PromptProvider(initial Selection, known map[provider.ID]bool) (Selection, error) {
	choice := string(initial.Provider)
	if !provider.Known(choice) {
		choice = string(provider.Default)
	}
	key := initial.APIKey

	if err := NewProviderForm(&choice, &key, known).Run(); err != nil {
		return Selection{}, err
	}
	return Selection{Provider: provider.ParseID(choice), APIKey: key}, nil
}
