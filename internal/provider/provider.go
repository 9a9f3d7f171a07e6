// internal/provider/provider.go
package provider

import "context"

// ID selects one text-generation backend.
type ID string

const (
	Default      ID = "default"
	GeminiCustom ID = "gemini-custom"
	Claude       ID = "claude"
	Groq         ID = "groq"
)

var ids = []ID{Default, GeminiCustom, Claude, Groq}

var labels = map[ID]string{
	Default:      "Default - Gemini Flash-Lite (Free)",
	GeminiCustom: "Custom - Gemini Pro/Flash",
	Claude:       "Custom - Anthropic Claude 3.5",
	Groq:         "Custom - Groq Llama 3 (Fast)",
}

// IDs returns every provider id in display order.
func IDs() []ID {
	out := make([]ID, len(ids))
	copy(out, ids)
	return out
}

// ParseID maps a selector string to an ID. Empty and unknown selectors
// resolve to Default.
func ParseID(s string) ID {
	id := ID(s)
	if _, ok := labels[id]; ok {
		return id
	}
	return Default
}

// Known reports whether s names a provider exactly.
func Known(s string) bool {
	_, ok := labels[ID(s)]
	return ok
}

// RequiresCredential reports whether the caller must supply an API key.
func (id ID) RequiresCredential() bool {
	return id != Default
}

// Label returns the human-readable name shown in selectors.
func (id ID) Label() string {
	return labels[id]
}

// Adapter submits one payload to one backend and returns its text.
// A response without text yields an empty string and no error.
type Adapter interface {
	Name() string
	Submit(ctx context.Context, instruction, payload string) (string, error)
}
